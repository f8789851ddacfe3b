package session

// StoreOption applies a configuration option to the in-memory store.
type StoreOption func(*inMemoryStore)

// WithMaxSessions bounds the number of live sessions.
// If maxSize > 0: bounded mode, the oldest session is evicted when full.
// If maxSize <= 0: unbounded mode.
func WithMaxSessions(maxSize int) StoreOption {
	return func(s *inMemoryStore) {
		s.maxSize = maxSize
	}
}

// WithIDGenerator replaces the session id source.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *inMemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// ReducerOption applies a configuration option to the Reducer.
type ReducerOption func(*Reducer)

// WithMaxPartySize caps the party size a session accepts.
func WithMaxPartySize(n int) ReducerOption {
	return func(r *Reducer) {
		if n > 0 {
			r.maxPartySize = n
		}
	}
}

// WithPartyTiers restricts the tiers a session accepts. An empty list
// accepts any integer tier.
func WithPartyTiers(tiers []int) ReducerOption {
	return func(r *Reducer) {
		r.partyTiers = append([]int(nil), tiers...)
	}
}

// WithEvictionHook is called with the id of every session dropped to make
// room. It runs under the store's lock and must not call back into it.
func WithEvictionHook(fn func(id string)) StoreOption {
	return func(s *inMemoryStore) {
		s.onEvict = fn
	}
}
