package repository

import "time"

// Option applies a configuration option to the SQLiteLikeStore.
type Option func(*SQLiteLikeStore)

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteLikeStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithInitialCount seeds the counter when the table is first created,
// e.g. when migrating from a plain likes file.
func WithInitialCount(n int64) Option {
	return func(s *SQLiteLikeStore) {
		if n > 0 {
			s.initial = n
		}
	}
}
