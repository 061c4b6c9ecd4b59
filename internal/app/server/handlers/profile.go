package handlers

import (
	"encoding/json"
	"net/http"

	"courier/internal/core/contracts"
	"courier/internal/core/services"
	"courier/internal/platform/logger"
	"courier/pkg/middleware"
)

type ProfileHandler struct {
	auth     contracts.AuthProvider
	profiles *services.ProfileService
}

func NewProfileHandler(auth contracts.AuthProvider, profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{auth: auth, profiles: profiles}
}

// UpdateAvatar writes the new avatar reference to both the auth record and
// the directory profile. The two writes are not atomic; if the second fails
// the auth record keeps the new avatar and the directory lags until the next
// successful update.
func (h *ProfileHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		AvatarRef string `json:"photoURL"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AvatarRef == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	updated, err := h.auth.UpdateIdentity(r.Context(), ident.ID, nil, &req.AvatarRef)
	if err != nil {
		log.ErrorContext(r.Context(), "profile handler - identity update failed", "identity_id", ident.ID, "err", err)
		http.Error(w, "avatar update failed", http.StatusInternalServerError)
		return
	}
	if err := h.profiles.UpdateAvatar(r.Context(), ident.ID, req.AvatarRef); err != nil {
		log.ErrorContext(r.Context(), "profile handler - directory update failed", "identity_id", ident.ID, "err", err)
		http.Error(w, "avatar update failed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(updated)
	log.InfoContext(r.Context(), "profile handler - avatar updated", "identity_id", ident.ID)
}
