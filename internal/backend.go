package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/starford/notetoself/internal/remote"
	"github.com/starford/notetoself/internal/remote/fsstore"
	"github.com/starford/notetoself/internal/remote/memstore"
	"github.com/starford/notetoself/internal/remote/miniostore"
	"github.com/starford/notetoself/internal/remote/sqlitestore"
)

// openBackend builds the configured registry backend. The returned close
// function is never nil.
func openBackend(ctx context.Context, cfg RegistryConfig, logger *slog.Logger) (remote.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case BackendMemory:
		logger.Warn("Using in-memory backend; entries are lost on exit")
		return memstore.New(), noop, nil

	case BackendFS:
		if err := os.MkdirAll(cfg.FS.Path, 0o755); err != nil {
			return nil, noop, fmt.Errorf("create entries dir: %w", err)
		}
		fs, err := fsstore.NewFS(cfg.FS.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("init fs backend: %w", err)
		}
		return fs, noop, nil

	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
			return nil, noop, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("init sqlite backend: %w", err)
		}
		return db, db.Close, nil

	case BackendMinIO:
		mc, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("init minio client: %w", err)
		}
		c, err := miniostore.NewClient(ctx, mc, cfg.MinIO.Bucket)
		if err != nil {
			return nil, noop, fmt.Errorf("init minio backend: %w", err)
		}
		return c, noop, nil
	}

	return nil, noop, fmt.Errorf("unknown registry backend %q", cfg.Backend)
}
