// Package drafts keeps a directory of plain-text drafts in sync with the
// notebook: every created or changed .md or .txt file is saved as a note.
//
// Deleting or renaming a draft never removes a note.
package drafts

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notetoself/internal/checksum"
	"github.com/starford/notetoself/internal/parser"
)

// DefaultDebounce is how long a file must stay unchanged before it is saved.
const DefaultDebounce = 300 * time.Millisecond

// SaveFunc stores one note.
type SaveFunc func(ctx context.Context, title, body string) error

// Watcher saves drafts from root through a SaveFunc. SyncAll and Run must
// not run concurrently.
type Watcher struct {
	root     string
	save     SaveFunc
	logger   *slog.Logger
	debounce time.Duration

	// last content saved per path, so rewrites of identical bytes are skipped.
	saved map[string]string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for root.
func NewWatcher(root string, save SaveFunc, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		save:     save,
		logger:   logger,
		debounce: DefaultDebounce,
		saved:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsDraft reports whether path names a file the watcher saves.
func IsDraft(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".txt":
		return true
	}
	return false
}

// SyncAll saves every draft currently under root. Failures are logged and the
// walk continues; the number of drafts saved is returned.
func (w *Watcher) SyncAll(ctx context.Context) (int, error) {
	n := 0
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsDraft(path) {
			return nil
		}
		if w.saveFile(ctx, path) {
			n++
		}
		return nil
	})
	return n, err
}

// Run watches root and its subdirectories until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	w.logger.Info("drafts: watching", slog.String("root", w.root))

	// Timers only signal; the loop below owns pending and saved.
	due := make(chan string, 64)
	stopped := make(chan struct{})
	defer close(stopped)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	schedule := func(path string) {
		if t, ok := pending[path]; ok {
			t.Reset(w.debounce)
			return
		}
		pending[path] = time.AfterFunc(w.debounce, func() {
			select {
			case due <- path:
			case <-stopped:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("drafts: stopped")
			return nil

		case path := <-due:
			delete(pending, path)
			w.saveFile(ctx, path)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("drafts: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
						continue
					}
					_ = filepath.WalkDir(ev.Name, func(path string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() && IsDraft(path) {
							schedule(path)
						}
						return nil
					})
					continue
				}
			}

			if !IsDraft(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule(ev.Name)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("drafts: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// saveFile parses and saves one draft, reporting whether a save happened.
func (w *Watcher) saveFile(ctx context.Context, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("drafts: read failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		return false
	}
	sum := checksum.Sum(data)
	if w.saved[path] == sum {
		return false
	}

	d := parser.Parse(path, data)
	if err := w.save(ctx, d.Title, d.Body); err != nil {
		w.logger.Warn("drafts: save failed",
			slog.String("path", path),
			slog.String("title", d.Title),
			slog.String("error", err.Error()))
		return false
	}
	w.saved[path] = sum
	w.logger.Info("drafts: saved", slog.String("path", path), slog.String("title", d.Title))
	return true
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
