package api

import (
	"encoding/json"
	"time"
)

// EntryResponse is the response body for GET /entries/{publicKey}.
type EntryResponse struct {
	Data      json.RawMessage `json:"data" validate:"required"`
	Revision  uint64          `json:"revision" example:"3" validate:"required"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PutEntryRequest is the request body for PUT /entries/{publicKey}.
// Signature is the hex-encoded ed25519 signature of remote.SigningPayload.
type PutEntryRequest struct {
	Data      json.RawMessage `json:"data" validate:"required"`
	Signature string          `json:"signature" validate:"required"`
}

// PutEntryResponse is returned after a successful write.
type PutEntryResponse struct {
	Revision uint64 `json:"revision" example:"4" validate:"required"`
}
