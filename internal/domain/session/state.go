// Package session keeps the per-user planning state: the party, the loaded
// catalog and the enemies picked from it.
//
// State is a value. Changes go through Reducer.Reduce, which returns the next
// State and never mutates its input.
package session

import (
	"fmt"
	"time"

	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/internal/domain/model"
	"github.com/okian/cremling/internal/domain/scoring"
)

// Default limits mirror the planner's party controls.
const (
	defaultMaxPartySize = 10
	defaultPartySize    = 1
	defaultPartyTier    = 1
)

// State is one planning session.
type State struct {
	ID        string
	Party     scoring.Party
	Catalog   *catalog.Catalog
	Selection model.Selection
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewState returns a fresh session over cat with the default party.
func NewState(cat *catalog.Catalog) State {
	return State{
		Party:   scoring.Party{Tier: defaultPartyTier, Size: defaultPartySize},
		Catalog: cat,
	}
}

// Evaluate scores the current selection.
func (s State) Evaluate() (scoring.Result, error) {
	return scoring.Score(s.Party, s.Selection.Enemies())
}

// Action is an input to Reducer.Reduce.
type Action interface {
	actionName() string
}

// SetParty replaces the party descriptor.
type SetParty struct{ Party scoring.Party }

// AddEnemy appends one instance of a catalog entry.
type AddEnemy struct{ EntryID string }

// RemoveEnemy drops picks of a catalog entry: all of them, or only the
// first when One is set.
type RemoveEnemy struct {
	EntryID string
	One     bool
}

// ClearSelection empties the selection.
type ClearSelection struct{}

// LoadCatalog swaps the catalog. The selection is cleared because its picks
// refer to entries of the old catalog.
type LoadCatalog struct{ Catalog *catalog.Catalog }

func (SetParty) actionName() string       { return "set_party" }
func (AddEnemy) actionName() string       { return "add_enemy" }
func (RemoveEnemy) actionName() string    { return "remove_enemy" }
func (ClearSelection) actionName() string { return "clear_selection" }
func (LoadCatalog) actionName() string    { return "load_catalog" }

// ActionName returns a short label for logs and metrics.
func ActionName(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.actionName()
}

// Reducer validates and applies actions.
type Reducer struct {
	maxPartySize int
	partyTiers   []int
	now          func() time.Time
}

// NewReducer creates a Reducer with configuration options.
func NewReducer(opts ...ReducerOption) *Reducer {
	r := &Reducer{
		maxPartySize: defaultMaxPartySize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce returns the state that results from applying a to s. On error the
// returned state is s unchanged.
func (r *Reducer) Reduce(s State, a Action) (State, error) {
	next := s
	switch act := a.(type) {
	case SetParty:
		if err := r.validateParty(act.Party); err != nil {
			return s, err
		}
		next.Party = act.Party
	case AddEnemy:
		if s.Catalog == nil {
			return s, fmt.Errorf("session.add_enemy: %w", ErrNoCatalog)
		}
		e, err := s.Catalog.Lookup(act.EntryID)
		if err != nil {
			return s, fmt.Errorf("session.add_enemy: %w", err)
		}
		next.Selection = s.Selection.Add(model.PickFrom(e))
	case RemoveEnemy:
		if !s.Selection.Contains(act.EntryID) {
			return s, fmt.Errorf("session.remove_enemy: %q: %w", act.EntryID, ErrNotSelected)
		}
		if act.One {
			next.Selection = s.Selection.RemoveOne(act.EntryID)
		} else {
			next.Selection = s.Selection.RemoveAll(act.EntryID)
		}
	case ClearSelection:
		next.Selection = s.Selection.Clear()
	case LoadCatalog:
		if act.Catalog == nil {
			return s, fmt.Errorf("session.load_catalog: %w", ErrNoCatalog)
		}
		next.Catalog = act.Catalog
		next.Selection = s.Selection.Clear()
	default:
		return s, fmt.Errorf("session.reduce: %T: %w", a, ErrUnknownInput)
	}
	next.UpdatedAt = r.now()
	return next, nil
}

func (r *Reducer) validateParty(p scoring.Party) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Size > r.maxPartySize {
		return fmt.Errorf("session.set_party: size %d exceeds %d: %w", p.Size, r.maxPartySize, scoring.ErrInvalidArgument)
	}
	if len(r.partyTiers) == 0 {
		return nil
	}
	for _, t := range r.partyTiers {
		if t == p.Tier {
			return nil
		}
	}
	return fmt.Errorf("session.set_party: tier %d not offered: %w", p.Tier, scoring.ErrInvalidArgument)
}
