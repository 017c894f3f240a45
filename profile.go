package main

import (
	"fmt"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/notify"
)

func (s *server) signedIn(sess auth.Session, title string) {
	if s.stats != nil {
		s.stats.Login(string(sess.User.Role))
	}
	s.sink.Notify(notify.New(notify.LevelSuccess, title,
		fmt.Sprintf("Welcome, %s", sess.User.Name)))
}

// loginHandler expects JSON {"email","password"} and signs in as the demo
// user whose role matches the email.
func (s *server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var cred auth.Credentials
		if err := decodeJSON(r, &cred); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess, err := s.auth.Login(r.Context(), cred)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.signedIn(sess, "Signed in")
		writeJSON(w, http.StatusOK, sess)
	}
}

func (s *server) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var reg auth.Registration
		if err := decodeJSON(r, &reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess, err := s.auth.Register(r.Context(), reg)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.signedIn(sess, "Account created")
		writeJSON(w, http.StatusCreated, sess)
	}
}

func (s *server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := s.auth.Logout(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
		s.sink.Notify(notify.New(notify.LevelInfo, "Signed out", ""))
		w.WriteHeader(http.StatusNoContent)
	}
}

// meHandler reports the signed-in user, or null.
func (s *server) meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		var resp meResponse
		if u, ok := s.auth.Current(); ok {
			resp.User = &u
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *server) usersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if _, ok := s.authorize(w, r, "", auth.RoleAdmin); !ok {
			return
		}
		users, err := s.auth.Users(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}
