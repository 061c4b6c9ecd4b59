package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/internal/platform/logger"
	"courier/internal/platform/metrics"
)

type BlobHandler struct {
	blobs    contracts.BlobStore
	maxBytes int64
}

func NewBlobHandler(blobs contracts.BlobStore, maxBytes int64) *BlobHandler {
	return &BlobHandler{blobs: blobs, maxBytes: maxBytes}
}

// Upload stores the raw request body under a fresh key and returns the
// reference to embed in a message or profile.
func (h *BlobHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty payload", http.StatusBadRequest)
		return
	}
	key := uuid.NewString()
	ref, err := h.blobs.Upload(r.Context(), key, data, contentType)
	if err != nil {
		log.ErrorContext(r.Context(), "blob handler - upload failed", "key", key, "err", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	metrics.BlobUploads.Inc()
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"ref": ref})
	log.InfoContext(r.Context(), "blob handler - upload success", "key", key, "bytes", len(data))
}

func (h *BlobHandler) Download(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	key := r.PathValue("key")
	data, contentType, err := h.blobs.Download(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.ErrorContext(r.Context(), "blob handler - download failed", "key", key, "err", err)
		http.Error(w, "download failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}
