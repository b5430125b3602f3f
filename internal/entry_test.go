package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/remote/memstore"
	"github.com/starford/notetoself/internal/sse"
	"github.com/starford/notetoself/internal/testutil"
)

func TestHealthEndpoints(t *testing.T) {
	backend := memstore.New()
	broker := sse.NewBroker(0)
	defer broker.Close()
	h := newServerHandler(backend, broker, NewDefaultConfig(), testutil.Logger())

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	if w := get("/health/live"); w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Errorf("live = %d %q", w.Code, w.Body.String())
	}
	if w := get("/health/ready"); w.Code != http.StatusOK {
		t.Errorf("ready = %d, want 200", w.Code)
	}

	backend.FailGet("", apperr.ErrUnavailable)
	w := get("/health/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with failing backend = %d, want 503", w.Code)
	}
	if w.Body.String() != `{"status":"unavailable"}` {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestHealthBypassesAuth(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "secret"}
	broker := sse.NewBroker(0)
	defer broker.Close()
	h := newServerHandler(memstore.New(), broker, cfg, testutil.Logger())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("live = %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/entries/"+probeOwner+"?key=x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("api without token = %d, want 401", w.Code)
	}
}
