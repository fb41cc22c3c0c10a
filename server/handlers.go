package server

import (
	"errors"
	"net/http"

	"github.com/Daskott/agenda/server/contactbook"
)

func (s *Server) index(rw http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	contacts, err := s.service.List(r.Context(), user)
	if err != nil {
		s.renderServerError(rw, r, err)
		return
	}

	s.render(rw, r, "index.html", pageData{Title: "Contacts", User: user, Contacts: contacts}, http.StatusOK)
}

func (s *Server) contactAddForm(rw http.ResponseWriter, r *http.Request) {
	s.render(rw, r, "contacto_add.html", pageData{
		Title:   "New contact",
		User:    currentUser(r.Context()),
		Genders: genders,
	}, http.StatusOK)
}

func (s *Server) contactAdd(rw http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	fields := contactFieldsFromForm(r)

	_, err := s.service.Add(r.Context(), user, fields)

	var validationErr *contactbook.ValidationError
	if errors.As(err, &validationErr) {
		s.render(rw, r, "contacto_add.html", pageData{
			Title:   "New contact",
			User:    user,
			Form:    fields,
			Genders: genders,
			Errors:  validationErr.Messages(),
		}, http.StatusBadRequest)
		return
	}

	if err != nil {
		s.renderServerError(rw, r, err)
		return
	}

	http.Redirect(rw, r, "/", http.StatusFound)
}

func (s *Server) contactUpdateForm(rw http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	id, ok := contactID(r)
	if !ok {
		s.notFound(rw, r)
		return
	}

	contact, err := s.service.Find(r.Context(), user, id)
	if errors.Is(err, contactbook.ErrNotFound) {
		s.notFound(rw, r)
		return
	}

	if err != nil {
		s.renderServerError(rw, r, err)
		return
	}

	s.render(rw, r, "contacto_update.html", pageData{
		Title:     "Edit contact",
		User:      user,
		ContactID: contact.ID,
		Form:      contactbook.FieldsFromContact(contact),
		Genders:   genders,
	}, http.StatusOK)
}

func (s *Server) contactUpdate(rw http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	id, ok := contactID(r)
	if !ok {
		s.notFound(rw, r)
		return
	}

	fields := contactFieldsFromForm(r)
	_, err := s.service.Update(r.Context(), user, id, fields)

	var validationErr *contactbook.ValidationError
	switch {
	case err == nil:
		http.Redirect(rw, r, "/", http.StatusFound)
	case errors.Is(err, contactbook.ErrNotFound):
		s.notFound(rw, r)
	case errors.As(err, &validationErr):
		s.render(rw, r, "contacto_update.html", pageData{
			Title:     "Edit contact",
			User:      user,
			ContactID: id,
			Form:      fields,
			Genders:   genders,
			Errors:    validationErr.Messages(),
		}, http.StatusBadRequest)
	default:
		s.renderServerError(rw, r, err)
	}
}

func (s *Server) contactDelete(rw http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		s.notFound(rw, r)
		return
	}

	err := s.service.Delete(r.Context(), currentUser(r.Context()), id)
	if errors.Is(err, contactbook.ErrNotFound) {
		s.notFound(rw, r)
		return
	}

	if err != nil {
		s.renderServerError(rw, r, err)
		return
	}

	http.Redirect(rw, r, "/", http.StatusFound)
}

func (s *Server) loginForm(rw http.ResponseWriter, r *http.Request) {
	s.render(rw, r, "login.html", pageData{Title: "Log in", Next: r.URL.Query().Get("next")}, http.StatusOK)
}

func (s *Server) login(rw http.ResponseWriter, r *http.Request) {
	credentials := contactbook.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	next := r.PostFormValue("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}

	user, err := s.service.Authenticate(r.Context(), credentials)
	if errors.Is(err, contactbook.ErrInvalidCredentials) {
		s.render(rw, r, "login.html", pageData{
			Title:    "Log in",
			Error:    "Invalid username or password",
			Username: credentials.Username,
			Next:     next,
		}, http.StatusUnauthorized)
		return
	}

	if err != nil {
		s.renderServerError(rw, r, err)
		return
	}

	if err := s.sessions.Login(rw, r, user.ID); err != nil {
		s.renderServerError(rw, r, err)
		return
	}

	http.Redirect(rw, r, safeRedirectTarget(next), http.StatusFound)
}

func (s *Server) logout(rw http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(rw, r); err != nil {
		s.logg.Errorf("logout: %v", err)
	}

	http.Redirect(rw, r, "/login", http.StatusFound)
}

func (s *Server) registerForm(rw http.ResponseWriter, r *http.Request) {
	s.render(rw, r, "register.html", pageData{Title: "Register"}, http.StatusOK)
}

func (s *Server) register(rw http.ResponseWriter, r *http.Request) {
	credentials := contactbook.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	_, err := s.service.Register(r.Context(), credentials)

	var validationErr *contactbook.ValidationError
	switch {
	case err == nil:
		http.Redirect(rw, r, "/login", http.StatusFound)
	case errors.Is(err, contactbook.ErrConflict):
		s.render(rw, r, "register.html", pageData{
			Title:    "Register",
			Error:    contactbook.ErrConflict.Error(),
			Username: credentials.Username,
		}, http.StatusConflict)
	case errors.As(err, &validationErr):
		s.render(rw, r, "register.html", pageData{
			Title:    "Register",
			Errors:   validationErr.Messages(),
			Username: credentials.Username,
		}, http.StatusBadRequest)
	default:
		s.renderServerError(rw, r, err)
	}
}
