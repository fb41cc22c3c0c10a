package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Daskott/agenda/colors"
	"github.com/Daskott/agenda/server/auth"
	"github.com/Daskott/agenda/server/contactbook"
	"github.com/Daskott/agenda/server/models"
	"github.com/google/uuid"
)

const REQUEST_ID_HEADER = "X-Request-ID"

type RequestContextKey string

const (
	currentUserKey = RequestContextKey("currentUser")
	requestIDKey   = RequestContextKey("requestID")
)

type ResponseWriterWithStatus struct {
	http.ResponseWriter
	Status int
}

func (r *ResponseWriterWithStatus) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestIDMiddleware tags each request with an id, reusing the one sent by the client if any
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(REQUEST_ID_HEADER)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(REQUEST_ID_HEADER, requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		responseWriter := &ResponseWriterWithStatus{
			ResponseWriter: w,
			Status:         200,
		}

		defer func() {
			s.logg.Infof("%v %v %v %v %v",
				r.Method,
				r.URL.Path,
				colors.Status(responseWriter.Status),
				colors.Yellow(fmt.Sprintf("[%v]", time.Since(start))),
				requestID(r.Context()))
		}()

		next.ServeHTTP(responseWriter, r)
	})
}

func jsonContentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requireSession only lets requests with an active session through; anything
// else is redirected to the login form.
func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessionUser(r)
		if err != nil {
			if !errors.Is(err, errUnauthenticated) {
				s.renderServerError(w, r, err)
				return
			}

			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), currentUserKey, user)))
	})
}

// requireToken only lets API requests with a valid bearer token through
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, errMsg := s.decodeAndVerifyAuthHeader(r)
		if errMsg != "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeResponse(w, ResponsePayload{Errors: []string{errMsg}}, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), currentUserKey, user)))
	})
}

// ---------------------------------------------------------------------------------//
// Middleware Helper functions
// --------------------------------------------------------------------------------//

var errUnauthenticated = errors.New("unauthenticated")

// sessionUser returns the user bound to the request session. A session whose
// user no longer exists counts as no session.
func (s *Server) sessionUser(r *http.Request) (*models.User, error) {
	userID, err := s.sessions.UserID(r)
	if err != nil {
		return nil, errUnauthenticated
	}

	user, err := s.service.User(r.Context(), userID)
	if errors.Is(err, contactbook.ErrNotFound) {
		return nil, errUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Server) decodeAndVerifyAuthHeader(r *http.Request) (*models.User, string) {
	authHeaderList := strings.SplitN(r.Header.Get("Authorization"), "Bearer ", 2)
	if len(authHeaderList) < 2 || strings.TrimSpace(authHeaderList[1]) == "" {
		return nil, "no token provided"
	}

	tokenClaims, err := auth.DecodeJWT(strings.TrimSpace(authHeaderList[1]), s.keyPair)
	if err != nil {
		return nil, "invalid token provided"
	}

	var userID uint
	if _, err := fmt.Sscan(tokenClaims.Subject, &userID); err != nil {
		return nil, "invalid token provided"
	}

	// validate that the user account still exists
	user, err := s.service.User(r.Context(), userID)
	if err != nil {
		return nil, "invalid token provided"
	}

	return user, ""
}

// currentUser returns the authenticated user placed in the context by requireSession/requireToken
func currentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(currentUserKey).(*models.User)
	return user
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
