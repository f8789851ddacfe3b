package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrNotFound     = errors.New("session not found")
	ErrNotSelected  = errors.New("enemy not in selection")
	ErrNoCatalog    = errors.New("session has no catalog")
	ErrUnknownInput = errors.New("unknown session action")
)
