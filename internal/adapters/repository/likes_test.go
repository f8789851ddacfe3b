package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func TestMemoryLikeStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLikeStore(3)

	n, err := store.Increment(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 likes, got %d", n)
	}
	if n, _ := store.Count(ctx); n != 4 {
		t.Errorf("expected count 4, got %d", n)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Increment(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSQLiteLikeStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "likes.db")

	store, err := OpenSQLiteLikeStore(ctx, path, WithInitialCount(10))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if n, err := store.Count(ctx); err != nil || n != 10 {
		t.Fatalf("expected seeded count 10, got %d (%v)", n, err)
	}
	for want := int64(11); want <= 13; want++ {
		got, err := store.Increment(ctx)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := store.Count(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}

	// The seed only applies to a new table.
	reopened, err := OpenSQLiteLikeStore(ctx, path, WithInitialCount(99))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if n, _ := reopened.Count(ctx); n != 13 {
		t.Errorf("expected persisted count 13, got %d", n)
	}
}

func TestSQLiteLikeStore_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteLikeStore(ctx, filepath.Join(t.TempDir(), "likes.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := store.Increment(ctx); err != nil {
					t.Errorf("increment: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if n, _ := store.Count(ctx); n != 200 {
		t.Errorf("expected 200 likes, got %d", n)
	}
}

func TestOpenSQLiteLikeStore_RequiresPath(t *testing.T) {
	if _, err := OpenSQLiteLikeStore(context.Background(), ""); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}
