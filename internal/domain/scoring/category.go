package scoring

import "fmt"

// Category is the qualitative difficulty of an encounter.
type Category int

// Difficulty buckets in increasing order.
const (
	Easy Category = iota
	Average
	Hard
	AboveHard
)

// Lower bounds (inclusive) of each bucket above Easy.
const (
	averageThreshold   = 0.75
	hardThreshold      = 1.25
	aboveHardThreshold = 1.75
)

func (c Category) String() string {
	switch c {
	case Easy:
		return "Easy"
	case Average:
		return "Average"
	case Hard:
		return "Hard"
	case AboveHard:
		return "Above Hard"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// MarshalText encodes the category label.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Categorize buckets a threat-per-player value. Intervals are half-open, so
// a value on a boundary belongs to the higher bucket.
func Categorize(threatPerPlayer float64) Category {
	switch {
	case threatPerPlayer >= aboveHardThreshold:
		return AboveHard
	case threatPerPlayer >= hardThreshold:
		return Hard
	case threatPerPlayer >= averageThreshold:
		return Average
	default:
		return Easy
	}
}
