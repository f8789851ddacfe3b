package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Role is the combat archetype of an enemy.
type Role int

// Known roles, ordered from weakest to strongest archetype.
const (
	RoleUnknown Role = iota
	Minion
	Rival
	Boss
)

var roleNames = map[Role]string{
	Minion: "Minion",
	Rival:  "Rival",
	Boss:   "Boss",
}

// baseThreat is the threat a role contributes at the party's own tier.
var baseThreat = map[Role]float64{
	Minion: 0.5,
	Rival:  1.0,
	Boss:   4.0,
}

// Roles returns the known roles in ascending order.
func Roles() []Role { return []Role{Minion, Rival, Boss} }

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Role(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := baseThreat[r]
	return ok
}

// BaseThreat returns the role's weight before tier scaling.
func (r Role) BaseThreat() (float64, error) {
	w, ok := baseThreat[r]
	if !ok {
		return 0, fmt.Errorf("scoring.base_threat: unknown role %d: %w", int(r), ErrInvalidArgument)
	}
	return w, nil
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("scoring.marshal_role: unknown role %d: %w", int(r), ErrInvalidArgument)
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name, see ParseRole.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole maps a role name (case-insensitive) to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minion":
		return Minion, nil
	case "rival":
		return Rival, nil
	case "boss":
		return Boss, nil
	}
	return RoleUnknown, fmt.Errorf("scoring.parse_role: unrecognized role %q: %w", s, ErrInvalidArgument)
}

// ParseTier coerces a textual tier to an integer within [MinTier, MaxTier].
// Integral decimals such as "2.0" are accepted; anything else is rejected.
func ParseTier(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if err := ValidateTier(n); err != nil {
			return 0, fmt.Errorf("scoring.parse_tier: %w", err)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("scoring.parse_tier: tier %q is not an integer: %w", s, ErrInvalidArgument)
	}
	if f > MaxTier || f < MinTier {
		return 0, fmt.Errorf("scoring.parse_tier: tier %q outside [%d, %d]: %w", s, MinTier, MaxTier, ErrInvalidArgument)
	}
	return int(f), nil
}
