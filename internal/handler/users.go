package handler

import (
	"net/http"
	"strings"

	"github.com/pkordes/room-reservation/internal/service"
)

// register handles POST /auth/register.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !s.bind(w, r, &body) {
		return
	}

	user, err := s.svc.Auth.Register(r.Context(), service.Registration{
		Email:    string(body.Email),
		Password: body.Password,
		FullName: strings.TrimSpace(body.FullName),
		Phone:    strings.TrimSpace(body.Phone),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userToResponse(user))
}

// login handles POST /auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !s.bind(w, r, &body) {
		return
	}

	sess, err := s.svc.Auth.Login(r.Context(), string(body.Email), body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, Session{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      userToResponse(sess.User),
	})
}

// getProfile handles GET /users/me.
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Auth.Profile(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(user))
}

// updateProfile handles PUT /users/me.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var body profileRequest
	if !s.bind(w, r, &body) {
		return
	}

	user, err := s.svc.Auth.UpdateProfile(r.Context(), caller(r), strings.TrimSpace(body.FullName), strings.TrimSpace(body.Phone))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(user))
}

// listUsers handles GET /admin/users.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	params, err := queryPagination(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	users, total, err := s.svc.Auth.ListUsers(r.Context(), caller(r), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := make([]User, len(users))
	for i, u := range users {
		data[i] = userToResponse(u)
	}
	writeJSON(w, http.StatusOK, newPage(data, params, total))
}
