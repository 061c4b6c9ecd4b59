package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/internal/core/services"
	"courier/internal/platform/logger"
	"courier/pkg/middleware"
)

type AuthHandler struct {
	auth     contracts.AuthProvider
	profiles *services.ProfileService
}

func NewAuthHandler(auth contracts.AuthProvider, profiles *services.ProfileService) *AuthHandler {
	return &AuthHandler{auth: auth, profiles: profiles}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "auth handler - signup - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	ident, token, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrInvalidCredentials):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.ErrorContext(r.Context(), "auth handler - signup failed", "err", err)
			http.Error(w, "sign up failed", http.StatusInternalServerError)
		}
		return
	}
	// The directory entry is created eagerly so the new account is visible
	// to other users before its first live connection.
	if _, err := h.profiles.EnsureProfile(r.Context(), ident); err != nil {
		log.ErrorContext(r.Context(), "auth handler - signup - ensure profile failed", "identity_id", ident.ID, "err", err)
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":    token,
		"identity": ident,
	})
	log.InfoContext(r.Context(), "auth handler - signup success", "identity_id", ident.ID)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "auth handler - signin - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	ident, token, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		log.ErrorContext(r.Context(), "auth handler - signin failed", "err", err)
		http.Error(w, "sign in failed", http.StatusInternalServerError)
		return
	}
	if _, err := h.profiles.EnsureProfile(r.Context(), ident); err != nil {
		log.ErrorContext(r.Context(), "auth handler - signin - ensure profile failed", "identity_id", ident.ID, "err", err)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":    token,
		"identity": ident,
	})
	log.InfoContext(r.Context(), "auth handler - signin success", "identity_id", ident.ID)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.auth.SignOut(r.Context(), ident.ID); err != nil {
		log.ErrorContext(r.Context(), "auth handler - signout failed", "identity_id", ident.ID, "err", err)
		http.Error(w, "sign out failed", http.StatusInternalServerError)
		return
	}
	if err := h.profiles.SetPresence(r.Context(), ident.ID, false); err != nil {
		log.ErrorContext(r.Context(), "auth handler - signout - presence update failed", "identity_id", ident.ID, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
	log.InfoContext(r.Context(), "auth handler - signout success", "identity_id", ident.ID)
}
