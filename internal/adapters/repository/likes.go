// Package repository persists the planner's feedback like counter.
package repository

import (
	"context"
	"sync"
)

// LikeStore counts "leave a like" presses.
type LikeStore interface {
	// Increment adds one like and returns the new total.
	Increment(ctx context.Context) (int64, error)

	// Count returns the current total.
	Count(ctx context.Context) (int64, error)

	// Close releases underlying resources.
	Close() error
}

// MemoryLikeStore keeps the counter in process memory. It is used when no
// database path is configured and in tests.
type MemoryLikeStore struct {
	mu    sync.Mutex
	count int64
}

// NewMemoryLikeStore creates a counter starting at initial.
func NewMemoryLikeStore(initial int64) *MemoryLikeStore {
	return &MemoryLikeStore{count: initial}
}

func (m *MemoryLikeStore) Increment(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, Wrap("likes.increment", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return m.count, nil
}

func (m *MemoryLikeStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, Wrap("likes.count", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, nil
}

func (m *MemoryLikeStore) Close() error { return nil }
