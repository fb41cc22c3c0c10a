package server

import "net/http"

func (s *Server) registerRoutes() {
	s.router.Use(requestIDMiddleware, s.loggingMiddleware, s.metrics.Middleware)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/jwks", s.jwks).Methods(http.MethodGet)

	// JSON API
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentMiddleware)
	api.HandleFunc("/users", s.apiRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", s.apiLogin).Methods(http.MethodPost)
	api.Handle("/contacts", s.requireToken(http.HandlerFunc(s.apiListContacts))).Methods(http.MethodGet)
	api.Handle("/contacts", s.requireToken(http.HandlerFunc(s.apiAddContact))).Methods(http.MethodPost)
	api.Handle("/contacts/{id:[0-9]+}", s.requireToken(http.HandlerFunc(s.apiFindContact))).Methods(http.MethodGet)
	api.Handle("/contacts/{id:[0-9]+}", s.requireToken(http.HandlerFunc(s.apiUpdateContact))).Methods(http.MethodPut)
	api.Handle("/contacts/{id:[0-9]+}", s.requireToken(http.HandlerFunc(s.apiDeleteContact))).Methods(http.MethodDelete)

	// HTML pages
	s.router.Handle("/", s.requireSession(s.index)).Methods(http.MethodGet)
	s.router.Handle("/contacto_add", s.requireSession(s.contactAddForm)).Methods(http.MethodGet)
	s.router.Handle("/contacto_add", s.requireSession(s.contactAdd)).Methods(http.MethodPost)
	s.router.Handle("/contacto_update/{id:[0-9]+}", s.requireSession(s.contactUpdateForm)).Methods(http.MethodGet)
	s.router.Handle("/contacto_update/{id:[0-9]+}", s.requireSession(s.contactUpdate)).Methods(http.MethodPost)
	s.router.Handle("/contacto_delete/{id:[0-9]+}", s.requireSession(s.contactDelete)).Methods(http.MethodGet)
	s.router.HandleFunc("/login", s.loginForm).Methods(http.MethodGet)
	s.router.HandleFunc("/login", s.login).Methods(http.MethodPost)
	s.router.HandleFunc("/logout", s.logout).Methods(http.MethodGet)
	s.router.HandleFunc("/register", s.registerForm).Methods(http.MethodGet)
	s.router.HandleFunc("/register", s.register).Methods(http.MethodPost)

	// mux skips Use middlewares for unmatched requests
	s.router.NotFoundHandler = requestIDMiddleware(s.loggingMiddleware(s.metrics.Middleware(http.HandlerFunc(s.notFound))))
}
