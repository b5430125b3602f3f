package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/starford/notetoself/internal/client"
	"github.com/starford/notetoself/internal/drafts"
	"github.com/starford/notetoself/internal/mcpserver"
	"github.com/starford/notetoself/internal/orchestrator"
	"github.com/starford/notetoself/internal/remote"
	"github.com/starford/notetoself/internal/remote/httpstore"
)

// Login logs in and prints the notebook's public key and titles.
func Login(ctx context.Context, opts ...Option) error {
	app, c, closeFn, err := openNotebook(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	st := c.State()
	id, _ := st.Identity()
	fmt.Fprintf(app.out, "public key: %s\n", id.PublicKeyHex())
	if st.Index().Empty() {
		fmt.Fprintln(app.out, "no notes")
	}
	for _, title := range st.Index().Titles() {
		fmt.Fprintln(app.out, title)
	}
	if text := st.ErrorText(); text != "" {
		fmt.Fprintf(app.out, "warning: %s\n", text)
	}
	return nil
}

// Open prints the body of the note stored under title.
func Open(ctx context.Context, title string, opts ...Option) error {
	app, c, closeFn, err := openNotebook(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	tr := c.Open(ctx, title)
	if err := client.OpenError(tr, title); err != nil {
		return err
	}
	n, _ := tr.State.CurrentNote()
	fmt.Fprintln(app.out, n.Body)
	return nil
}

// Save stores body under title.
func Save(ctx context.Context, title, body string, opts ...Option) error {
	app, c, closeFn, err := openNotebook(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	err = client.SaveError(c.Save(ctx, title, body))
	if errors.Is(err, client.ErrIndexNotUpdated) {
		fmt.Fprintf(app.out, "saved: %s (warning: %v)\n", title, err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "saved: %s\n", title)
	return nil
}

// Watch saves every draft under the configured drafts path, then keeps
// saving drafts as they change until interrupted.
func Watch(ctx context.Context, opts ...Option) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, c, closeFn, err := openNotebook(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	root := app.config.Client.DraftsPath
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create drafts dir: %w", err)
	}

	w := drafts.NewWatcher(root, c.SaveDraft, app.logger)
	n, err := w.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("initial drafts sync: %w", err)
	}
	app.logger.Info("Initial drafts sync finished", slog.Int("saved", n))

	return w.Run(ctx)
}

// ServeMCP exposes the notebook to an MCP client on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	_, c, closeFn, err := openNotebook(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	return mcpserver.New(c).ServeStdio()
}

// openNotebook builds a client for the configured store and logs in. Index
// read failures do not fail the login; they are logged and stay on the
// session.
func openNotebook(ctx context.Context, opts []Option) (*application, *client.Client, func(), error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	app.logger = app.clientLogger()
	cfg := app.config.Client

	var store remote.Store
	closeFn := func() {}
	if cfg.Embedded() {
		backend, closeBackend, err := openBackend(ctx, app.config.Registry, app.logger)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn = func() {
			if err := closeBackend(); err != nil {
				app.logger.Warn("backend close failed", slog.String("error", err.Error()))
			}
		}
		store = remote.NewDirect(backend)
		app.logger.Debug("Using embedded backend", slog.String("backend", app.config.Registry.Backend))
	} else {
		store = httpstore.New(cfg.RemoteURL,
			httpstore.WithToken(cfg.Token),
			httpstore.WithTimeout(cfg.Timeout))
		app.logger.Debug("Using remote registry", slog.String("url", cfg.RemoteURL))
	}

	c := client.New(store, app.logger, orchestrator.WithSuccessWindow(cfg.SuccessWindow))
	st := c.Login(ctx, app.passphrase).State
	for _, e := range st.Errors() {
		app.logger.Warn("Login degraded", slog.String("op", e.Op), slog.String("error", e.Error()))
	}
	return app, c, closeFn, nil
}
