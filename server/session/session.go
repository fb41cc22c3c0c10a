package session

import (
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
)

const (
	SESSION_NAME = "agenda_session"

	userIDKey = "user_id"

	// one week
	defaultMaxAge = 86400 * 7
)

var ErrNoSession = errors.New("no active session")

// Manager keeps session records on disk under 'dir'; the cookie only
// carries the signed session id.
type Manager struct {
	store *sessions.FilesystemStore
}

func NewManager(dir string, sessionKey []byte) (*Manager, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	store := sessions.NewFilesystemStore(dir, sessionKey)
	store.MaxAge(defaultMaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	return &Manager{store: store}, nil
}

// Login discards any session attached to 'r' and starts a new one for 'userID'
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID uint) error {
	if previous, err := m.store.New(r, SESSION_NAME); err == nil && !previous.IsNew {
		previous.Options.MaxAge = -1
		if err := m.store.Save(r, w, previous); err != nil {
			return err
		}
	}

	options := *m.store.Options
	session := sessions.NewSession(m.store, SESSION_NAME)
	session.Options = &options
	session.IsNew = true
	session.Values[userIDKey] = userID

	return m.store.Save(r, w, session)
}

// Logout removes the session record attached to 'r', if any, and expires the cookie
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := m.store.New(r, SESSION_NAME)
	if err != nil || session.IsNew {
		return nil
	}

	session.Options.MaxAge = -1
	return m.store.Save(r, w, session)
}

// UserID returns the id of the user bound to the session attached to 'r'
func (m *Manager) UserID(r *http.Request) (uint, error) {
	session, err := m.store.New(r, SESSION_NAME)
	if err != nil || session.IsNew {
		return 0, ErrNoSession
	}

	userID, ok := session.Values[userIDKey].(uint)
	if !ok {
		return 0, ErrNoSession
	}

	return userID, nil
}
