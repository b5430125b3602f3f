package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/checksum"
	"github.com/starford/notetoself/internal/identity"
	"github.com/starford/notetoself/internal/remote"
)

// Publisher is notified after a write has been committed.
type Publisher interface {
	PublishEntryEvent(owner, key string, revision uint64)
}

// Handler holds registry route handlers.
type Handler struct {
	backend remote.Backend
	events  Publisher
	logger  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(backend remote.Backend, events Publisher, logger *slog.Logger) *Handler {
	return &Handler{backend: backend, events: events, logger: logger}
}

// entryAddress extracts and validates the owner and key of a request.
// Keys travel in the query string so that any title survives routing.
// The owner is returned in canonical lowercase hex.
func entryAddress(r *http.Request) (owner, key string, ok bool) {
	pub, err := identity.ParsePublicKey(chi.URLParam(r, "publicKey"))
	if err != nil {
		return "", "", false
	}
	q := r.URL.Query()
	if !q.Has("key") {
		return "", "", false
	}
	return hex.EncodeToString(pub), q.Get("key"), true
}

// GetEntry handles GET /api/entries/{publicKey}?key=.
//
//	@Summary		Read the document stored under a key
//	@Tags			entries
//	@Produce		json
//	@Param			publicKey	path		string	true	"Hex-encoded ed25519 public key"
//	@Param			key			query		string	true	"Document key"
//	@Success		200			{object}	EntryResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{publicKey} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	owner, key, ok := entryAddress(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("public key and key are required"))
		return
	}
	e, err := h.backend.Get(r.Context(), owner, key)
	if err != nil {
		h.writeError(w, "get entry failed", key, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(e.Data))
	writeJSON(w, http.StatusOK, EntryResponse{
		Data:      e.Data,
		Revision:  e.Revision,
		UpdatedAt: e.UpdatedAt,
	})
}

// PutEntry handles PUT /api/entries/{publicKey}?key=.
//
//	@Summary		Overwrite the document stored under a key
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			publicKey	path		string			true	"Hex-encoded ed25519 public key"
//	@Param			key			query		string			true	"Document key"
//	@Param			body		body		PutEntryRequest	true	"Signed document"
//	@Success		200			{object}	PutEntryResponse
//	@Failure		400			{object}	errResponse
//	@Failure		403			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{publicKey} [put]
func (h *Handler) PutEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	owner, key, ok := entryAddress(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("public key and key are required"))
		return
	}

	var req PutEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("data is required"))
		return
	}
	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("signature must be hex"))
		return
	}
	if err := remote.Authorize(owner, key, req.Data, sig); err != nil {
		h.writeError(w, "put entry rejected", key, err)
		return
	}

	rev, err := h.backend.Put(r.Context(), owner, key, req.Data)
	if err != nil {
		h.writeError(w, "put entry failed", key, err)
		return
	}
	if h.events != nil {
		h.events.PublishEntryEvent(owner, key, rev)
	}
	writeJSON(w, http.StatusOK, PutEntryResponse{Revision: rev})
}

func (h *Handler) writeError(w http.ResponseWriter, msg, key string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, keyErrorBody("not found", key))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, keyErrorBody("signature rejected", key))
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, keyErrorBody(err.Error(), key))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, keyErrorBody("conflicting write", key))
	case errors.Is(err, apperr.ErrUnavailable):
		h.logger.Warn(msg, slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, keyErrorBody("backend unavailable", key))
	default:
		h.logger.Error(msg, slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, keyErrorBody("internal error", key))
	}
}
