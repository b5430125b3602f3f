package internal

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/client"
	"github.com/starford/notetoself/internal/identity"
	"github.com/starford/notetoself/internal/remote/httpstore"
	"github.com/starford/notetoself/internal/remote/memstore"
	"github.com/starford/notetoself/internal/sse"
	"github.com/starford/notetoself/internal/testutil"
)

func sqliteConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Registry.Backend = BackendSQLite
	cfg.Registry.SQLite.Path = filepath.Join(t.TempDir(), "db", "notes.db")
	return cfg
}

func TestEmbeddedCommands(t *testing.T) {
	cfg := sqliteConfig(t)
	ctx := context.Background()
	run := func(fn func(opts ...Option) error) string {
		t.Helper()
		var out bytes.Buffer
		if err := fn(WithConfig(cfg), WithLogger(testutil.Logger()), WithPassphrase("alice"), WithOutput(&out)); err != nil {
			t.Fatalf("command failed: %v", err)
		}
		return out.String()
	}

	out := run(func(opts ...Option) error { return Login(ctx, opts...) })
	if !strings.Contains(out, identity.Derive("alice").PublicKeyHex()) || !strings.Contains(out, "no notes") {
		t.Errorf("login output = %q", out)
	}

	out = run(func(opts ...Option) error { return Save(ctx, "Groceries", "Milk, Eggs", opts...) })
	if out != "saved: Groceries\n" {
		t.Errorf("save output = %q", out)
	}

	out = run(func(opts ...Option) error { return Open(ctx, "Groceries", opts...) })
	if out != "Milk, Eggs\n" {
		t.Errorf("open output = %q", out)
	}

	out = run(func(opts ...Option) error { return Login(ctx, opts...) })
	if !strings.HasSuffix(out, "Groceries\n") {
		t.Errorf("login output = %q", out)
	}
}

func TestOpenMissingNote(t *testing.T) {
	err := Open(context.Background(), "nope",
		WithConfig(sqliteConfig(t)), WithLogger(testutil.Logger()), WithPassphrase("alice"), WithOutput(&bytes.Buffer{}))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCommandsRequireConfig(t *testing.T) {
	if err := Login(context.Background()); !errors.Is(err, errConfigRequired) {
		t.Errorf("err = %v", err)
	}
}

func TestServerHandler_EndToEnd(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "secret"}
	backend := memstore.New()
	broker := sse.NewBroker(0)
	defer broker.Close()

	srv := httptest.NewServer(newServerHandler(backend, broker, cfg, testutil.Logger()))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/health/live")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	ctx := context.Background()
	c := client.New(httpstore.New(srv.URL+"/api", httpstore.WithToken("secret")), testutil.Logger())
	c.Login(ctx, "alice")
	if err := c.SaveDraft(ctx, "Groceries", "Milk, Eggs"); err != nil {
		t.Fatalf("save through registry: %v", err)
	}
	if got := c.State().Index().Titles(); len(got) != 1 || got[0] != "Groceries" {
		t.Errorf("index = %v", got)
	}
	if backend.Puts("Groceries") != 1 {
		t.Errorf("backend puts = %d", backend.Puts("Groceries"))
	}

	noToken := client.New(httpstore.New(srv.URL+"/api"), testutil.Logger())
	st := noToken.Login(ctx, "alice").State
	if !errors.Is(st.Err(), apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized index read, got %v", st.Err())
	}
	if !st.Authenticated() {
		t.Error("login must still authenticate")
	}
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cases := []RegistryConfig{
		{Backend: BackendMemory},
		{Backend: BackendFS, FS: FSConfig{Path: filepath.Join(dir, "entries")}},
		{Backend: BackendSQLite, SQLite: SQLiteConfig{Path: filepath.Join(dir, "sqlite", "x.db")}},
	}
	for _, rc := range cases {
		b, closeFn, err := openBackend(ctx, rc, testutil.Logger())
		if err != nil {
			t.Fatalf("%s: %v", rc.Backend, err)
		}
		if b == nil {
			t.Fatalf("%s: nil backend", rc.Backend)
		}
		if err := closeFn(); err != nil {
			t.Errorf("%s close: %v", rc.Backend, err)
		}
	}

	if _, closeFn, err := openBackend(ctx, RegistryConfig{Backend: "redis"}, testutil.Logger()); err == nil {
		t.Error("expected error for unknown backend")
	} else if closeFn == nil {
		t.Error("close func must not be nil")
	}
}
