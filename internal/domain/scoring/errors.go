package scoring

import "errors"

// Sentinel kinds for scoring errors. Callers match with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
)
