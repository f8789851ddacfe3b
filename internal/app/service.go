// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	repository "github.com/okian/cremling/internal/adapters/repository"
	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/internal/domain/scoring"
	"github.com/okian/cremling/internal/domain/session"
	"github.com/okian/cremling/pkg/logger"
	"github.com/okian/cremling/pkg/metrics"
)

// Catalog load sources reported to metrics.
const (
	sourceDefault = "default"
	sourceUpload  = "upload"
)

// Service implements the API dependencies for the encounter planner.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog  *catalog.Catalog
	sessions session.Store
	reducer  *session.Reducer
	likes    repository.LikeStore

	// Configuration
	maxSessions    int
	maxPartySize   int
	partyTiers     []int
	maxCatalogRows int

	// State
	started bool
	stopped bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxSessions:    1000,
		maxPartySize:   10,
		partyTiers:     []int{1, 2, 3},
		maxCatalogRows: 10_000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the default catalog and builds the session and like stores.
// A Service starts once: after Stop, Start fails with ErrStopped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("service.start: %w", ErrStopped)
	}
	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting encounter planner service...")

	if s.catalog == nil {
		c, err := catalog.Default(ctx)
		if err != nil {
			return fmt.Errorf("service.start: %w", err)
		}
		s.catalog = c
	}
	metrics.RecordCatalogLoad(sourceDefault, s.catalog.Len())

	s.sessions = session.NewInMemoryStore(
		session.WithMaxSessions(s.maxSessions),
		session.WithEvictionHook(func(string) { metrics.RecordSessionEvicted() }),
	)
	s.reducer = session.NewReducer(
		session.WithMaxPartySize(s.maxPartySize),
		session.WithPartyTiers(s.partyTiers),
	)

	if s.likes == nil {
		s.likes = repository.NewMemoryLikeStore(0)
	}
	likes, err := s.likes.Count(ctx)
	if err != nil {
		return fmt.Errorf("service.start: %w", err)
	}
	metrics.UpdateLikes(likes)

	s.started = true
	s.logger.Info(ctx, "encounter planner service started",
		logger.String("catalog", s.catalog.Name()),
		logger.Int("catalogEntries", s.catalog.Len()),
		logger.Int("maxSessions", s.maxSessions),
		logger.Int("maxPartySize", s.maxPartySize),
		logger.Int64("likes", likes),
	)

	return nil
}

// Stop releases the like store. It is safe to call whether or not Start ran
// or succeeded, and only the first call has any effect.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(context.Background(), "stopping encounter planner service...")

	if s.likes != nil {
		if err := s.likes.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing like store", logger.Error(err))
		}
	}

	s.started = false
	s.stopped = true
	s.logger.Info(context.Background(), "encounter planner service stopped")
}

func (s *Service) ready(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return fmt.Errorf("%s: %w", op, ErrNotStarted)
	}
	return nil
}

// Catalog returns the catalog new sessions start from.
func (s *Service) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Score rates an ad-hoc encounter.
func (s *Service) Score(ctx context.Context, party scoring.Party, enemies []scoring.Enemy) (scoring.Result, error) {
	if err := s.ready("service.score"); err != nil {
		return scoring.Result{}, err
	}
	start := time.Now()
	res, err := scoring.Score(party, enemies)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordErrorByComponent("scoring", "invalid_argument")
		metrics.RecordErrorLatency("scoring", "invalid_argument", latencyMs)
		s.logger.Debug(ctx, "encounter rejected", logger.Error(err))
		return scoring.Result{}, err
	}
	metrics.RecordScoringLatency(latencyMs)
	metrics.RecordEncounterScored(res.Category.String(), res.ThreatPerPlayer)
	s.logger.Debug(ctx, "encounter scored",
		logger.Int("enemies", len(enemies)),
		logger.Float64("threatPerPlayer", res.ThreatPerPlayer),
		logger.String("category", res.Category.String()),
	)
	return res, nil
}

// CreateSession opens a planning session over the default catalog.
func (s *Service) CreateSession(ctx context.Context) (session.State, error) {
	const op = "service.create_session"
	if err := s.ready(op); err != nil {
		return session.State{}, err
	}
	st, err := s.sessions.Create(ctx, session.NewState(s.Catalog()))
	if err != nil {
		return session.State{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(s.sessions.Len())
	s.logger.Debug(ctx, "session created", logger.String("session", st.ID))
	return st, nil
}

// Session returns a planning session.
func (s *Service) Session(ctx context.Context, id string) (session.State, error) {
	const op = "service.session"
	if err := s.ready(op); err != nil {
		return session.State{}, err
	}
	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		return session.State{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// DeleteSession forgets a planning session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	const op = "service.delete_session"
	if err := s.ready(op); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.UpdateActiveSessions(s.sessions.Len())
	return nil
}

// SetParty changes the session's party.
func (s *Service) SetParty(ctx context.Context, id string, party scoring.Party) (session.State, error) {
	return s.apply(ctx, id, session.SetParty{Party: party})
}

// AddEnemy picks one instance of a catalog entry.
func (s *Service) AddEnemy(ctx context.Context, id, entryID string) (session.State, error) {
	return s.apply(ctx, id, session.AddEnemy{EntryID: entryID})
}

// RemoveEnemy drops every pick of entryID, or only the first when one is set.
func (s *Service) RemoveEnemy(ctx context.Context, id, entryID string, one bool) (session.State, error) {
	return s.apply(ctx, id, session.RemoveEnemy{EntryID: entryID, One: one})
}

// ClearSelection empties the session's selection.
func (s *Service) ClearSelection(ctx context.Context, id string) (session.State, error) {
	return s.apply(ctx, id, session.ClearSelection{})
}

// UploadCatalog parses r as the session's catalog. The selection is cleared.
func (s *Service) UploadCatalog(ctx context.Context, id, name string, r io.Reader) (session.State, error) {
	const op = "service.upload_catalog"
	if err := s.ready(op); err != nil {
		return session.State{}, err
	}
	c, err := catalog.Parse(ctx, r, catalog.WithName(name), catalog.WithMaxRows(s.maxCatalogRows))
	if err != nil {
		metrics.RecordCatalogLoadError()
		metrics.RecordErrorByComponent("catalog", "invalid_catalog")
		s.logger.Warn(ctx, "catalog upload rejected",
			logger.String("session", id),
			logger.String("name", name),
			logger.Error(err),
		)
		return session.State{}, fmt.Errorf("%s: %w", op, err)
	}
	st, err := s.apply(ctx, id, session.LoadCatalog{Catalog: c})
	if err != nil {
		return session.State{}, err
	}
	metrics.RecordCatalogLoad(sourceUpload, c.Len())
	s.logger.Info(ctx, "catalog uploaded",
		logger.String("session", id),
		logger.String("name", c.Name()),
		logger.Int("entries", c.Len()),
	)
	return st, nil
}

// Evaluate scores the session's selection.
func (s *Service) Evaluate(ctx context.Context, id string) (session.State, scoring.Result, error) {
	st, err := s.Session(ctx, id)
	if err != nil {
		return session.State{}, scoring.Result{}, err
	}
	res, err := s.Score(ctx, st.Party, st.Selection.Enemies())
	if err != nil {
		return st, scoring.Result{}, fmt.Errorf("service.evaluate: %w", err)
	}
	return st, res, nil
}

func (s *Service) apply(ctx context.Context, id string, a session.Action) (session.State, error) {
	op := "service." + session.ActionName(a)
	if err := s.ready(op); err != nil {
		return session.State{}, err
	}
	st, err := s.sessions.Update(ctx, id, func(cur session.State) (session.State, error) {
		return s.reducer.Reduce(cur, a)
	})
	if err != nil {
		metrics.RecordSessionAction(session.ActionName(a), "rejected")
		s.logger.Debug(ctx, "session action rejected",
			logger.String("session", id),
			logger.String("action", session.ActionName(a)),
			logger.Error(err),
		)
		return session.State{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordSessionAction(session.ActionName(a), "ok")
	return st, nil
}

// Like records one like and returns the new total.
func (s *Service) Like(ctx context.Context) (int64, error) {
	const op = "service.like"
	if err := s.ready(op); err != nil {
		return 0, err
	}
	n, err := s.likes.Increment(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("likes", "storage")
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	metrics.UpdateLikes(n)
	return n, nil
}

// Likes returns the like total.
func (s *Service) Likes(ctx context.Context) (int64, error) {
	const op = "service.likes"
	if err := s.ready(op); err != nil {
		return 0, err
	}
	n, err := s.likes.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"maxSessions":  s.maxSessions,
		"maxPartySize": s.maxPartySize,
		"partyTiers":   s.partyTiers,
	}

	if s.started {
		active := s.sessions.Len()
		stats["activeSessions"] = active
		stats["catalog"] = s.catalog.Name()
		stats["catalogEntries"] = s.catalog.Len()
		if likes, err := s.likes.Count(context.Background()); err == nil {
			stats["likes"] = likes
		}

		metrics.UpdateActiveSessions(active)
	}

	return stats
}
