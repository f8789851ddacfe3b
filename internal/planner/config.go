package planner

import (
	"flag"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/internal/domain/scoring"
)

// Config holds the planner's command line.
type Config struct {
	CatalogPath string
	PartyTier   int
	PartySize   int
	Enemies     []EnemySpec
	List        bool
	Search      string
	Sort        catalog.SortOption
	Filters     map[string][]string
}

// EnemySpec names catalog entries to add: NAME[@TIER][xCOUNT].
type EnemySpec struct {
	Name  string
	Tier  int
	Count int

	hasTier bool
}

var enemySpecPattern = regexp.MustCompile(`^(.+?)(?:@(-?\d+))?(?:\s*[xX](\d+))?$`)

// ParseEnemySpec parses "Axehound", "Axehound x3" or "Axehound@2x3".
func ParseEnemySpec(s string) (EnemySpec, error) {
	m := enemySpecPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return EnemySpec{}, fmt.Errorf("planner.enemy: %q: %w", s, ErrInvalidConfig)
	}
	spec := EnemySpec{Name: strings.TrimSpace(m[1]), Count: 1}
	if m[2] != "" {
		tier, err := scoring.ParseTier(m[2])
		if err != nil {
			return EnemySpec{}, fmt.Errorf("planner.enemy: %q: %w", s, err)
		}
		spec.Tier, spec.hasTier = tier, true
	}
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil || n < 1 {
			return EnemySpec{}, fmt.Errorf("planner.enemy: %q: count must be positive: %w", s, ErrInvalidConfig)
		}
		spec.Count = n
	}
	return spec, nil
}

func (e EnemySpec) String() string {
	var b strings.Builder
	b.WriteString(e.Name)
	if e.hasTier {
		fmt.Fprintf(&b, "@%d", e.Tier)
	}
	if e.Count > 1 {
		fmt.Fprintf(&b, "x%d", e.Count)
	}
	return b.String()
}

type enemyFlag struct{ specs *[]EnemySpec }

func (f enemyFlag) String() string {
	if f.specs == nil {
		return ""
	}
	parts := make([]string, len(*f.specs))
	for i, s := range *f.specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func (f enemyFlag) Set(v string) error {
	spec, err := ParseEnemySpec(v)
	if err != nil {
		return err
	}
	*f.specs = append(*f.specs, spec)
	return nil
}

type filterFlag struct{ filters map[string][]string }

func (f filterFlag) String() string { return "" }

func (f filterFlag) Set(v string) error {
	col, values, ok := strings.Cut(v, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return fmt.Errorf("planner.filter: %q is not COLUMN=v1,v2: %w", v, ErrInvalidConfig)
	}
	for _, part := range strings.Split(values, ",") {
		if part = strings.TrimSpace(part); part != "" {
			f.filters[col] = append(f.filters[col], part)
		}
	}
	return nil
}

// ParseConfig reads flags from args into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{PartyTier: 1, PartySize: 1, Filters: make(map[string][]string)}
	var sortBy string

	fs.StringVar(&cfg.CatalogPath, "catalog", "", "CSV catalog path (default: bundled catalog)")
	fs.IntVar(&cfg.PartyTier, "party-tier", cfg.PartyTier, "party tier")
	fs.IntVar(&cfg.PartySize, "party-size", cfg.PartySize, "number of player characters")
	fs.Var(enemyFlag{specs: &cfg.Enemies}, "enemy", "enemy to add as NAME[@TIER][xCOUNT]; repeatable")
	fs.BoolVar(&cfg.List, "list", false, "list catalog entries instead of scoring")
	fs.StringVar(&cfg.Search, "search", "", "with -list, case-insensitive name search")
	fs.StringVar(&sortBy, "sort", "", "with -list, one of none, tier_asc, tier_desc, role_asc, role_desc, name_asc, name_desc")
	fs.Var(filterFlag{filters: cfg.Filters}, "filter", "with -list, COLUMN=v1,v2; repeatable")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	s, err := catalog.ParseSortOption(sortBy)
	if err != nil {
		return Config{}, fmt.Errorf("planner.config: %w: %w", ErrInvalidConfig, err)
	}
	cfg.Sort = s
	if cfg.PartySize < 1 {
		return Config{}, fmt.Errorf("planner.config: party-size must be at least 1: %w", ErrInvalidConfig)
	}
	if !cfg.List && len(cfg.Enemies) == 0 {
		return Config{}, fmt.Errorf("planner.config: add at least one -enemy or use -list: %w", ErrInvalidConfig)
	}
	return cfg, nil
}
