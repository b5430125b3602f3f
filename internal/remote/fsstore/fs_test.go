package fsstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notetoself/internal/apperr"
)

const owner = "0a1b2c3d"

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestPutAndGet(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	rev, err := s.Put(ctx, owner, "Groceries", []byte(`{"noteBody":"Milk, Eggs"}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rev != 1 {
		t.Errorf("rev = %d, want 1", rev)
	}
	e, err := s.Get(ctx, owner, "Groceries")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(e.Data) != `{"noteBody":"Milk, Eggs"}` {
		t.Errorf("data = %s", e.Data)
	}
}

func TestRevisionIncrements(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		rev, err := s.Put(ctx, owner, "k", []byte(`{}`))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if rev != uint64(i) {
			t.Errorf("rev = %d, want %d", rev, i)
		}
	}
}

func TestGetMissing(t *testing.T) {
	s := tempStore(t)
	_, err := s.Get(context.Background(), owner, "nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestKeysCannotEscapeRoot(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	for _, key := range []string{"../../etc/passwd", "/etc/shadow", "a/b/c", ".."} {
		if _, err := s.Put(ctx, owner, key, []byte(`{}`)); err != nil {
			t.Fatalf("Put %q: %v", key, err)
		}
		if _, err := s.Get(ctx, owner, key); err != nil {
			t.Errorf("Get %q: %v", key, err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(s.root, owner))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("files = %d, want 4", len(entries))
	}
}

func TestOwnerMustBeHex(t *testing.T) {
	s := tempStore(t)
	for _, o := range []string{"", "../x", "not-hex"} {
		if _, err := s.Put(context.Background(), o, "k", []byte(`{}`)); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("owner %q: err = %v", o, err)
		}
	}
}

func TestLongKeys(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	for _, n := range []int{150, 190, 200, 300, 4000} {
		key := strings.Repeat("a", n)
		if _, err := s.Get(ctx, owner, key); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("n=%d: Get before Put: err = %v, want ErrNotFound", n, err)
		}
		for want := uint64(1); want <= 2; want++ {
			rev, err := s.Put(ctx, owner, key, []byte(`{"n":1}`))
			if err != nil {
				t.Fatalf("n=%d: Put: %v", n, err)
			}
			if rev != want {
				t.Errorf("n=%d: rev = %d, want %d", n, rev, want)
			}
		}
		e, err := s.Get(ctx, owner, key)
		if err != nil {
			t.Fatalf("n=%d: Get: %v", n, err)
		}
		if string(e.Data) != `{"n":1}` || e.Revision != 2 {
			t.Errorf("n=%d: got %s rev %d", n, e.Data, e.Revision)
		}
	}

	// Keys sharing a long prefix stay distinct.
	a, b := strings.Repeat("x", 300)+"1", strings.Repeat("x", 300)+"2"
	if _, err := s.Put(ctx, owner, a, []byte(`"a"`)); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if _, err := s.Get(ctx, owner, b); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get b: err = %v, want ErrNotFound", err)
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	_, _ = s.Put(ctx, owner, "atomic", []byte(`"original"`))
	if _, err := s.Put(ctx, owner, "atomic", []byte(`"updated"`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e, _ := s.Get(ctx, owner, "atomic")
	if string(e.Data) != `"updated"` {
		t.Errorf("expected updated content, got %s", e.Data)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, owner, ".notetoself-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/notetoself-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "notetoself-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
