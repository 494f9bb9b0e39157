package http

import (
	"net/http"
	"strings"
	"time"

	"contas/internal/auth"
	"contas/internal/core"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginJSON struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
	User      userJSON `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, tok, err := s.deps.Users.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginJSON{
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUser(u),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	u, err := s.deps.Users.Profile(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	users, err := s.deps.Users.ListUsers(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	writeJSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Users.CreateUser(r.Context(), id, core.NewUser{
		Name:     sanitizeInput(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Role:     core.Role(strings.ToLower(strings.TrimSpace(req.Role))),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(u))
}
