// Package scoring computes encounter difficulty from a party and the enemies
// it faces.
//
// Each enemy contributes its role's base threat scaled by 2^(enemy tier -
// party tier). Contributions under a quarter point are dropped. The sum is
// divided by party size and bucketed into a Category.
package scoring

import (
	"fmt"
	"math"
)

// negligibleThreat is the cutoff below which an enemy contributes nothing.
const negligibleThreat = 0.25

// Tiers outside [MinTier, MaxTier] are rejected. The bound keeps every
// tier delta small enough that 2^delta stays finite.
const (
	MinTier = -100
	MaxTier = 100
)

// ValidateTier reports whether tier lies within [MinTier, MaxTier].
func ValidateTier(tier int) error {
	if tier < MinTier || tier > MaxTier {
		return fmt.Errorf("scoring.tier: tier %d outside [%d, %d]: %w", tier, MinTier, MaxTier, ErrInvalidArgument)
	}
	return nil
}

// Party describes the player characters.
type Party struct {
	Tier int `json:"tier"`
	Size int `json:"size"`
}

// Validate checks that the party can be scored against.
func (p Party) Validate() error {
	if p.Size < 1 {
		return fmt.Errorf("scoring.party: size %d must be at least 1: %w", p.Size, ErrInvalidArgument)
	}
	if err := ValidateTier(p.Tier); err != nil {
		return fmt.Errorf("scoring.party: %w", err)
	}
	return nil
}

// Enemy is the scoring view of a selected enemy.
type Enemy struct {
	Role Role `json:"role"`
	Tier int  `json:"tier"`
}

// Result is the outcome of scoring an encounter.
type Result struct {
	TotalThreat     float64  `json:"total_threat"`
	ThreatPerPlayer float64  `json:"threat_per_player"`
	Category        Category `json:"category"`
}

// Contribution returns the threat a single enemy adds against party,
// after tier scaling and the negligible-threat cutoff.
func Contribution(party Party, e Enemy) (float64, error) {
	base, err := e.Role.BaseThreat()
	if err != nil {
		return 0, err
	}
	if err := ValidateTier(party.Tier); err != nil {
		return 0, fmt.Errorf("scoring.contribution: party: %w", err)
	}
	if err := ValidateTier(e.Tier); err != nil {
		return 0, fmt.Errorf("scoring.contribution: enemy: %w", err)
	}
	adjusted := math.Ldexp(base, e.Tier-party.Tier)
	if adjusted < negligibleThreat {
		return 0, nil
	}
	return adjusted, nil
}

// Score rates an encounter. It is pure and safe for concurrent use; the
// caller must not mutate enemies during the call.
func Score(party Party, enemies []Enemy) (Result, error) {
	if err := party.Validate(); err != nil {
		return Result{}, err
	}
	var total float64
	for i, e := range enemies {
		c, err := Contribution(party, e)
		if err != nil {
			return Result{}, fmt.Errorf("scoring.score: enemy %d: %w", i, err)
		}
		total += c
	}
	if math.IsInf(total, 0) {
		return Result{}, fmt.Errorf("scoring.score: total threat overflows: %w", ErrInvalidArgument)
	}
	tpp := total / float64(party.Size)
	return Result{
		TotalThreat:     total,
		ThreatPerPlayer: tpp,
		Category:        Categorize(tpp),
	}, nil
}
