package planner

import "errors"

// Sentinel kinds for planner errors.
var (
	ErrInvalidConfig  = errors.New("invalid planner config")
	ErrUnknownEnemy   = errors.New("no catalog entry matches")
	ErrAmbiguousEnemy = errors.New("several catalog entries match")
)
