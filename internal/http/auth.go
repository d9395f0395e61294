package http

import (
	"errors"
	"net/http"
	"time"

	"weatherhub/server/internal/crypto"
	"weatherhub/server/internal/model"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates a self-service account. Registered accounts start
// with the Teacher role.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.serverError(w, r, err, "Error registering user")
		return
	}

	account := model.Account{
		ID:           model.NewObjectID(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleTeacher,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAccount(r.Context(), account); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			writeMessage(w, http.StatusConflict, "Email address already in use.")
			return
		}
		s.serverError(w, r, err, "Error registering user")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"status":  http.StatusCreated,
		"message": "Registration successful.",
		"user":    renderAccount(account),
	})
}

// handleLogin verifies credentials, mints a fresh authentication key and
// stamps the login time. An unknown email and a wrong password are reported
// distinctly.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	account, err := s.store.GetAccountByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.serverError(w, r, err, "Error processing login")
		return
	}

	if err := crypto.CheckPassword(account.PasswordHash, req.Password); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Incorrect password.")
		return
	}

	key := crypto.NewAuthenticationKey()
	now := time.Now().UTC()
	account.AuthenticationKey = &key
	account.LastLogin = &now
	if err := s.store.UpdateAccount(r.Context(), account); err != nil {
		s.serverError(w, r, err, "Error processing login")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":            http.StatusOK,
		"message":           "Authentication successful.",
		"authenticationKey": key,
		"user":              renderAccount(account),
	})
}

type logoutRequest struct {
	AuthenticationKey string `json:"authenticationKey"`
}

// handleLogout revokes an authentication key. An unknown key is a client
// error, not a not-found.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	account, err := s.store.GetAccountByKey(r.Context(), req.AuthenticationKey)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusBadRequest, "Authentication key not found.")
			return
		}
		s.serverError(w, r, err, "Error processing logout")
		return
	}

	account.AuthenticationKey = nil
	if err := s.store.UpdateAccount(r.Context(), account); err != nil {
		s.serverError(w, r, err, "Error processing logout")
		return
	}

	writeMessage(w, http.StatusOK, "Logout successful.")
}
