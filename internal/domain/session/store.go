package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Store keeps sessions by id.
type Store interface {
	// Create assigns an id to initial, stores it and returns it.
	Create(ctx context.Context, initial State) (State, error)

	// Get returns the session. Unknown ids yield ErrNotFound.
	Get(ctx context.Context, id string) (State, error)

	// Update replaces the session with fn's result. fn runs under the
	// store's lock and must not block; if it fails nothing is written.
	Update(ctx context.Context, id string, fn func(State) (State, error)) (State, error)

	// Delete forgets the session. Unknown ids yield ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Len returns the number of live sessions.
	Len() int64
}

// node is an entry in the creation-ordered list, newest at head.
type node struct {
	id   string
	next *node
}

func (n *node) reset() {
	n.id = ""
	n.next = nil
}

// inMemoryStore implements Store with a map plus a creation-ordered
// linked list used for eviction.
// For bounded mode (maxSize > 0) the oldest session is evicted when full.
// For unbounded mode (maxSize <= 0) the list is not maintained.
type inMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
	nodes    map[string]*node
	head     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
	newID    func() string
	now      func() time.Time
	onEvict  func(id string)
}

// NewInMemoryStore creates a session store with configuration options.
func NewInMemoryStore(opts ...StoreOption) Store {
	s := &inMemoryStore{
		maxSize: 1000,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = make(map[string]State)
	s.nodes = make(map[string]*node)
	if s.maxSize > 0 {
		s.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}
	return s
}

func (s *inMemoryStore) Create(ctx context.Context, initial State) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, fmt.Errorf("session.create: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, exists := s.sessions[id]; exists; _, exists = s.sessions[id] {
		id = s.newID()
	}
	now := s.now()
	initial.ID = id
	initial.CreatedAt = now
	initial.UpdatedAt = now

	if s.maxSize > 0 {
		if len(s.sessions) >= s.maxSize {
			s.evictOldest()
		}
		n := s.nodePool.Get().(*node)
		n.id = id
		n.next = s.head
		s.head = n
		s.nodes[id] = n
	}
	s.sessions[id] = initial
	s.size.Add(1)
	return initial, nil
}

func (s *inMemoryStore) Get(_ context.Context, id string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return State{}, fmt.Errorf("session.get: %q: %w", id, ErrNotFound)
	}
	return st, nil
}

func (s *inMemoryStore) Update(ctx context.Context, id string, fn func(State) (State, error)) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, fmt.Errorf("session.update: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[id]
	if !ok {
		return State{}, fmt.Errorf("session.update: %q: %w", id, ErrNotFound)
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	s.sessions[id] = next
	return next, nil
}

func (s *inMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session.delete: %q: %w", id, ErrNotFound)
	}
	delete(s.sessions, id)
	s.unlink(id)
	s.size.Add(-1)
	return nil
}

func (s *inMemoryStore) Len() int64 {
	return s.size.Load()
}

// unlink removes id from the eviction list. Must be called with s.mu held.
func (s *inMemoryStore) unlink(id string) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	delete(s.nodes, id)
	if s.head == n {
		s.head = n.next
	} else {
		cur := s.head
		for cur != nil && cur.next != n {
			cur = cur.next
		}
		if cur != nil {
			cur.next = n.next
		}
	}
	n.reset()
	s.nodePool.Put(n)
}

// evictOldest drops the tail of the list. Must be called with s.mu held.
func (s *inMemoryStore) evictOldest() {
	if s.head == nil {
		return
	}
	tail := s.head
	for tail.next != nil {
		tail = tail.next
	}
	id := tail.id
	delete(s.sessions, id)
	s.unlink(id)
	s.size.Add(-1)
	if s.onEvict != nil {
		s.onEvict(id)
	}
}
