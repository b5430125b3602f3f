// Package httpstore implements remote.Store against a registry server over HTTP.
package httpstore

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/remote"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Client talks to the registry API mounted at baseURL (e.g. http://host:8080/api).
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the registry at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ remote.Store = (*Client)(nil)

type entryResponse struct {
	Data      json.RawMessage `json:"data"`
	Revision  uint64          `json:"revision"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type putRequest struct {
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

type putResponse struct {
	Revision uint64 `json:"revision"`
}

type errResponse struct {
	Error string `json:"error"`
}

func (c *Client) entryURL(owner, key string) string {
	return c.baseURL + "/entries/" + owner + "?key=" + url.QueryEscape(key)
}

// GetJSON fetches the document stored for pub under key.
func (c *Client) GetJSON(ctx context.Context, pub ed25519.PublicKey, key string) (remote.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.entryURL(hex.EncodeToString(pub), key), nil)
	if err != nil {
		return remote.Entry{}, fmt.Errorf("httpstore: build request: %w", err)
	}
	var out entryResponse
	if err := c.do(req, key, &out); err != nil {
		return remote.Entry{}, err
	}
	return remote.Entry{Data: out.Data, Revision: out.Revision, UpdatedAt: out.UpdatedAt}, nil
}

// SetJSON signs value with priv and uploads it under key.
func (c *Client) SetJSON(ctx context.Context, priv ed25519.PrivateKey, key string, value any) (uint64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("httpstore: encode %q: %w", key, err)
	}
	sig, err := remote.Sign(priv, key, data)
	if err != nil {
		return 0, err
	}
	body, err := json.Marshal(putRequest{Data: data, Signature: hex.EncodeToString(sig)})
	if err != nil {
		return 0, fmt.Errorf("httpstore: encode request: %w", err)
	}

	owner := hex.EncodeToString(priv.Public().(ed25519.PublicKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.entryURL(owner, key), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("httpstore: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out putResponse
	if err := c.do(req, key, &out); err != nil {
		return 0, err
	}
	return out.Revision, nil
}

func (c *Client) do(req *http.Request, key string, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("httpstore: %s %q: %v: %w", req.Method, key, err, apperr.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&e)
		return fmt.Errorf("httpstore: %s %q: %s: %w", req.Method, key, describe(resp.StatusCode, e.Error), statusError(resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httpstore: decode %q: %v: %w", key, err, apperr.ErrUnavailable)
	}
	return nil
}

func describe(status int, msg string) string {
	if msg == "" {
		return http.StatusText(status)
	}
	return msg
}

// statusError maps registry status codes back to the shared error kinds.
func statusError(status int) error {
	switch {
	case status == http.StatusNotFound:
		return apperr.ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperr.ErrUnauthorized
	case status == http.StatusConflict, status == http.StatusPreconditionFailed:
		return apperr.ErrConflict
	case status == http.StatusBadRequest:
		return apperr.ErrInvalid
	default:
		return apperr.ErrUnavailable
	}
}
