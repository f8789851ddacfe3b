package service

import (
	repository "github.com/okian/cremling/internal/adapters/repository"
	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog sets the catalog new sessions start from. Without it Start
// loads the bundled catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLikeStore sets where likes are counted. Without it likes live in memory.
func WithLikeStore(l repository.LikeStore) Option {
	return func(s *Service) {
		if l != nil {
			s.likes = l
		}
	}
}

// WithMaxSessions bounds live sessions; 0 is unbounded.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithMaxPartySize caps the party size a session accepts.
func WithMaxPartySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPartySize = n
		}
	}
}

// WithPartyTiers restricts the tiers a session accepts.
func WithPartyTiers(tiers []int) Option {
	return func(s *Service) {
		s.partyTiers = append([]int(nil), tiers...)
	}
}

// WithMaxCatalogRows caps the rows of an uploaded catalog.
func WithMaxCatalogRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCatalogRows = n
		}
	}
}
