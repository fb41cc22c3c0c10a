package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Daskott/agenda/server/auth"
	"github.com/Daskott/agenda/server/auth/key"
	"github.com/Daskott/agenda/server/contactbook"
	"github.com/golang-jwt/jwt"
)

func (s *Server) health(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func (s *Server) jwks(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")

	publicJWK, err := s.keyPair.JWK()
	if err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(publicJWK))
}

func (s *Server) apiRegister(rw http.ResponseWriter, r *http.Request) {
	credentials := contactbook.Credentials{}
	if !s.decodeBody(rw, r, &credentials) {
		return
	}

	user, err := s.service.Register(r.Context(), credentials)
	if err != nil {
		s.writeServiceError(rw, err)
		return
	}

	rw.WriteHeader(http.StatusCreated)
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: user})
}

func (s *Server) apiLogin(rw http.ResponseWriter, r *http.Request) {
	credentials := contactbook.Credentials{}
	if !s.decodeBody(rw, r, &credentials) {
		return
	}

	user, err := s.service.Authenticate(r.Context(), credentials)
	if err != nil {
		s.writeServiceError(rw, err)
		return
	}

	token, err := auth.EncodeJWT(auth.AgendaTokenClaims{
		Username: user.Username,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(s.tokenTTL).Unix(),
		},
	}, s.keyPair)
	if err != nil {
		s.writeServiceError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]string{"token": token}})
}

func (s *Server) apiListContacts(rw http.ResponseWriter, r *http.Request) {
	contacts, err := s.service.List(r.Context(), currentUser(r.Context()))
	if err != nil {
		s.writeServiceError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contacts})
}

func (s *Server) apiAddContact(rw http.ResponseWriter, r *http.Request) {
	fields := contactbook.ContactFields{}
	if !s.decodeBody(rw, r, &fields) {
		return
	}

	contact, err := s.service.Add(r.Context(), currentUser(r.Context()), fields)
	if err != nil {
		s.writeServiceError(rw, err)
		return
	}

	rw.WriteHeader(http.StatusCreated)
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contact})
}

func (s *Server) apiFindContact(rw http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		s.writeServiceError(rw, contactbook.ErrNotFound)
		return
	}

	contact, err := s.service.Find(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		s.writeServiceError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contact})
}

func (s *Server) apiUpdateContact(rw http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		s.writeServiceError(rw, contactbook.ErrNotFound)
		return
	}

	fields := contactbook.ContactFields{}
	if !s.decodeBody(rw, r, &fields) {
		return
	}

	contact, err := s.service.Update(r.Context(), currentUser(r.Context()), id, fields)
	if err != nil {
		s.writeServiceError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contact})
}

func (s *Server) apiDeleteContact(rw http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		s.writeServiceError(rw, contactbook.ErrNotFound)
		return
	}

	err := s.service.Delete(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		s.writeServiceError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// decodeBody decodes the JSON request body into 'dest', writing a 400 response on failure
func (s *Server) decodeBody(rw http.ResponseWriter, r *http.Request, dest interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(rw, r.Body, 1<<20))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{fmt.Sprintf("invalid request body: %v", err)}}, http.StatusBadRequest)
		return false
	}

	return true
}
