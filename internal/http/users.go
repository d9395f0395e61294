package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"weatherhub/server/internal/crypto"
	"weatherhub/server/internal/model"
)

var knownRoles = []string{model.RoleTeacher, model.RoleUser, model.RoleSensor}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// handleCreateUser provisions an account with an explicit role, unlike
// registration which always assigns Teacher.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}
	if !contains(knownRoles, req.Role) {
		writeMessage(w, http.StatusBadRequest, "Role must be one of Teacher, User or Sensor.")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.serverError(w, r, err, "Error creating user")
		return
	}

	account := model.Account{
		ID:           model.NewObjectID(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAccount(r.Context(), account); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			writeMessage(w, http.StatusConflict, "Email address already in use.")
			return
		}
		s.serverError(w, r, err, "Error creating user")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"status":  http.StatusCreated,
		"message": "User created successfully.",
		"user":    renderAccount(account),
	})
}

func (s *Server) handleGetAllUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context(), s.cfg.UserListLimit)
	if err != nil {
		s.serverError(w, r, err, "Error retrieving users")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":    http.StatusOK,
		"message":   "Users retrieved successfully.",
		"usersData": renderAccounts(accounts),
	})
}

func (s *Server) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	account, err := s.store.GetAccountByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.serverError(w, r, err, "Error retrieving user")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":  http.StatusOK,
		"message": "User retrieved successfully.",
		"user":    renderAccount(account),
	})
}

func (s *Server) handleGetUserByKey(w http.ResponseWriter, r *http.Request) {
	account, err := s.store.GetAccountByKey(r.Context(), chi.URLParam(r, "authenticationKey"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.serverError(w, r, err, "Error retrieving user")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":  http.StatusOK,
		"message": "User retrieved successfully.",
		"user":    renderAccount(account),
	})
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// handleUpdateUser replaces the mutable fields of an account. The password is
// re-hashed; id, creation time and any active authentication key survive.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}
	if !contains(knownRoles, req.Role) {
		writeMessage(w, http.StatusBadRequest, "Role must be one of Teacher, User or Sensor.")
		return
	}

	account, err := s.store.GetAccountByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.serverError(w, r, err, "Error updating user")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.serverError(w, r, err, "Error updating user")
		return
	}

	account.Email = req.Email
	account.PasswordHash = hash
	account.Role = req.Role
	if err := s.store.UpdateAccount(r.Context(), account); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.serverError(w, r, err, "Error updating user")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":  http.StatusOK,
		"message": "User updated successfully.",
		"user":    renderAccount(account),
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	if err := s.store.DeleteAccountByID(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.serverError(w, r, err, "Error deleting user")
		return
	}

	writeMessage(w, http.StatusOK, "User deleted successfully.")
}

type dateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// handleDeleteUsersByLastLogin purges User-role accounts whose last login
// falls inside the given day range.
func (s *Server) handleDeleteUsersByLastLogin(w http.ResponseWriter, r *http.Request) {
	var req dateRangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	start, end, err := parseDayRange(req.StartDate, req.EndDate)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Dates must be 8-digit YYYYMMDD values.")
		return
	}

	deleted, err := s.store.DeleteAccountsByRoleAndLastLogin(r.Context(), model.RoleUser, start, end)
	if err != nil {
		s.serverError(w, r, err, "Error deleting users")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":       http.StatusOK,
		"message":      "Users deleted successfully.",
		"deletedCount": deleted,
	})
}

type promoteUsersRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Role      string `json:"role"`
}

// handlePromoteUsersByCreatedAt assigns a role to every account created in
// the given day range.
func (s *Server) handlePromoteUsersByCreatedAt(w http.ResponseWriter, r *http.Request) {
	var req promoteUsersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if !contains(knownRoles, req.Role) {
		writeMessage(w, http.StatusBadRequest, "Role must be one of Teacher, User or Sensor.")
		return
	}

	start, end, err := parseDayRange(req.StartDate, req.EndDate)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Dates must be 8-digit YYYYMMDD values.")
		return
	}

	matched, modified, err := s.store.UpdateRoleByCreatedAtRange(r.Context(), start, end, req.Role)
	if err != nil {
		s.serverError(w, r, err, "Error updating users")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":        http.StatusOK,
		"message":       "User roles updated successfully.",
		"matchedCount":  matched,
		"modifiedCount": modified,
	})
}
