// Package model contains domain models passed between layers.
package model

import (
	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/internal/domain/scoring"
)

// Pick is one enemy placed into an encounter. EntryID is the catalog
// identity; Name is kept for display only.
type Pick struct {
	EntryID string       `json:"entry_id"`
	Name    string       `json:"name"`
	Tier    int          `json:"tier"`
	Role    scoring.Role `json:"role"`
}

// PickFrom copies the fields of a catalog entry that an encounter needs.
func PickFrom(e catalog.Entry) Pick {
	return Pick{EntryID: e.ID, Name: e.Name, Tier: e.Tier, Role: e.Role}
}

// Enemy returns the scoring view of the pick.
func (p Pick) Enemy() scoring.Enemy {
	return scoring.Enemy{Role: p.Role, Tier: p.Tier}
}

// Group counts identical picks for display, e.g. "Axehound x 3".
type Group struct {
	Pick
	Count int `json:"count"`
}

// Selection is an ordered multiset of picks. It is a value: every mutator
// returns a new Selection and leaves the receiver untouched, so a Selection
// can be shared freely between goroutines.
type Selection struct {
	picks []Pick
}

// NewSelection builds a selection from picks in order.
func NewSelection(picks ...Pick) Selection {
	return Selection{picks: append([]Pick(nil), picks...)}
}

// Len returns the number of picks, counting duplicates.
func (s Selection) Len() int { return len(s.picks) }

// Picks returns a copy of the picks in insertion order.
func (s Selection) Picks() []Pick {
	return append([]Pick(nil), s.picks...)
}

// Add appends p.
func (s Selection) Add(p Pick) Selection {
	out := make([]Pick, len(s.picks), len(s.picks)+1)
	copy(out, s.picks)
	return Selection{picks: append(out, p)}
}

// RemoveAll drops every pick of the given catalog entry.
func (s Selection) RemoveAll(entryID string) Selection {
	out := make([]Pick, 0, len(s.picks))
	for _, p := range s.picks {
		if p.EntryID != entryID {
			out = append(out, p)
		}
	}
	return Selection{picks: out}
}

// RemoveOne drops the first pick of the given catalog entry, if any.
func (s Selection) RemoveOne(entryID string) Selection {
	for i, p := range s.picks {
		if p.EntryID != entryID {
			continue
		}
		out := make([]Pick, 0, len(s.picks)-1)
		out = append(out, s.picks[:i]...)
		return Selection{picks: append(out, s.picks[i+1:]...)}
	}
	return s
}

// Contains reports whether the entry has been picked at least once.
func (s Selection) Contains(entryID string) bool {
	for _, p := range s.picks {
		if p.EntryID == entryID {
			return true
		}
	}
	return false
}

// Clear returns an empty selection.
func (s Selection) Clear() Selection { return Selection{} }

// Enemies projects the picks for scoring.
func (s Selection) Enemies() []scoring.Enemy {
	out := make([]scoring.Enemy, len(s.picks))
	for i, p := range s.picks {
		out[i] = p.Enemy()
	}
	return out
}

// Groups collapses duplicates by entry, ordered by first appearance.
func (s Selection) Groups() []Group {
	index := make(map[string]int)
	groups := []Group{}
	for _, p := range s.picks {
		if i, ok := index[p.EntryID]; ok {
			groups[i].Count++
			continue
		}
		index[p.EntryID] = len(groups)
		groups = append(groups, Group{Pick: p, Count: 1})
	}
	return groups
}
