package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Daskott/agenda/server/contactbook"
	"github.com/gorilla/mux"
)

type ResponsePayload struct {
	Errors  []string    `json:"errors"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func (s *Server) writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		s.logg.Error(payLoad.Errors)
	} else if statusCode >= http.StatusBadRequest {
		s.logg.Info(payLoad.Errors)
	}

	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

// writeServiceError maps contactbook errors to API responses
func (s *Server) writeServiceError(rw http.ResponseWriter, err error) {
	var validationErr *contactbook.ValidationError

	switch {
	case errors.As(err, &validationErr):
		errs := []string{}
		for _, field := range validationErr.Fields {
			errs = append(errs, field.Field+": "+field.Message)
		}
		s.writeResponse(rw, ResponsePayload{Errors: errs, Data: validationErr.Fields}, http.StatusBadRequest)
	case errors.Is(err, contactbook.ErrNotFound):
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
	case errors.Is(err, contactbook.ErrConflict):
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
	case errors.Is(err, contactbook.ErrInvalidCredentials):
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusUnauthorized)
	default:
		s.logg.Error(err)
		s.writeResponse(rw, ResponsePayload{Errors: []string{"internal server error"}}, http.StatusInternalServerError)
	}
}

func (s *Server) render(rw http.ResponseWriter, r *http.Request, name string, data pageData, statusCode int) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(statusCode)

	if err := templates.ExecuteTemplate(rw, name, data); err != nil {
		s.logg.Errorf("unable to render %v: %v", name, err)
	}
}

func (s *Server) renderServerError(rw http.ResponseWriter, r *http.Request, err error) {
	s.logg.Errorf("%v %v: %v", r.Method, r.URL.Path, err)
	http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) notFound(rw http.ResponseWriter, r *http.Request) {
	s.render(rw, r, "not_found.html", pageData{Title: "Not found", User: currentUser(r.Context())}, http.StatusNotFound)
}

// contactID returns the {id} route variable. Routes only match digits, so a
// parse failure means the id is out of range & can't exist.
func contactID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 || uint64(uint(id)) != id {
		return 0, false
	}
	return uint(id), true
}

func contactFieldsFromForm(r *http.Request) contactbook.ContactFields {
	return contactbook.ContactFields{
		FirstNames: r.PostFormValue("nombres"),
		LastNames:  r.PostFormValue("apellidos"),
		Address:    r.PostFormValue("direccion"),
		Phone:      r.PostFormValue("telefono"),
		Email:      r.PostFormValue("email"),
		Gender:     r.PostFormValue("genero"),
	}
}

// safeRedirectTarget returns 'next' when it is a path on this site, else "/"
func safeRedirectTarget(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}

	parsed, err := url.Parse(next)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return "/"
	}

	return next
}
