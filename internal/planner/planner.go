// Package planner is the offline encounter planner behind cmd/encounter. It
// drives the same session reducer the HTTP service uses, against a catalog
// read from disk.
package planner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/internal/domain/scoring"
	"github.com/okian/cremling/internal/domain/session"
	"github.com/okian/cremling/pkg/logger"
)

// Run executes the planner using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	cat, err := loadCatalog(ctx, cfg.CatalogPath)
	if err != nil {
		return err
	}
	logger.Get().Debug(ctx, "catalog loaded",
		logger.String("name", cat.Name()),
		logger.Int("entries", cat.Len()),
	)

	if cfg.List {
		return list(out, cat, catalog.Query{Filters: cfg.Filters, Search: cfg.Search, Sort: cfg.Sort})
	}
	return plan(out, cat, cfg)
}

func loadCatalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	if path == "" {
		c, err := catalog.Default(ctx)
		if err != nil {
			return nil, fmt.Errorf("planner.load_catalog: %w", err)
		}
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("planner.load_catalog: %w", err)
	}
	defer f.Close()
	c, err := catalog.Parse(ctx, f, catalog.WithName(filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("planner.load_catalog: %s: %w", path, err)
	}
	return c, nil
}

func list(out io.Writer, cat *catalog.Catalog, q catalog.Query) error {
	entries, err := cat.Query(q)
	if err != nil {
		return fmt.Errorf("planner.list: %w", err)
	}
	header := cat.Header()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, e := range entries {
		cells := make([]string, len(header))
		for i, col := range header {
			cells[i] = e.Cell(col)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("planner.list: %w", err)
	}
	_, err = fmt.Fprintf(out, "\n%d of %d entries from %s\n", len(entries), cat.Len(), cat.Name())
	return err
}

func plan(out io.Writer, cat *catalog.Catalog, cfg Config) error {
	r := session.NewReducer()
	st, err := r.Reduce(session.NewState(cat), session.SetParty{Party: scoring.Party{Tier: cfg.PartyTier, Size: cfg.PartySize}})
	if err != nil {
		return fmt.Errorf("planner.plan: %w", err)
	}
	for _, spec := range cfg.Enemies {
		e, err := resolve(cat, spec)
		if err != nil {
			return err
		}
		for i := 0; i < spec.Count; i++ {
			if st, err = r.Reduce(st, session.AddEnemy{EntryID: e.ID}); err != nil {
				return fmt.Errorf("planner.plan: %w", err)
			}
		}
	}
	res, err := st.Evaluate()
	if err != nil {
		return fmt.Errorf("planner.plan: %w", err)
	}
	return report(out, st, res)
}

// resolve finds the catalog entry an -enemy value names. Names match case-insensitively;
// a tier is needed only when the name alone is ambiguous.
func resolve(cat *catalog.Catalog, spec EnemySpec) (catalog.Entry, error) {
	var matches []catalog.Entry
	for _, e := range cat.Entries() {
		if !strings.EqualFold(e.Name, spec.Name) {
			continue
		}
		if spec.hasTier && e.Tier != spec.Tier {
			continue
		}
		matches = append(matches, e)
	}
	switch len(matches) {
	case 0:
		return catalog.Entry{}, fmt.Errorf("planner.resolve: %q: %w", spec.Name, ErrUnknownEnemy)
	case 1:
		return matches[0], nil
	}
	tiers := make([]string, len(matches))
	for i, m := range matches {
		tiers[i] = strconv.Itoa(m.Tier)
	}
	return catalog.Entry{}, fmt.Errorf("planner.resolve: %q at tiers %s, add @TIER: %w",
		spec.Name, strings.Join(tiers, ", "), ErrAmbiguousEnemy)
}

func report(out io.Writer, st session.State, res scoring.Result) error {
	fmt.Fprintf(out, "Catalog: %s\n", st.Catalog.Name())
	fmt.Fprintf(out, "Party: tier %d, %d %s\n\n", st.Party.Tier, st.Party.Size, plural(st.Party.Size, "player", "players"))

	if st.Selection.Len() == 0 {
		fmt.Fprintln(out, "No enemies added.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ENEMY\tTIER\tROLE\tCOUNT\tTHREAT")
		for _, g := range st.Selection.Groups() {
			c, err := scoring.Contribution(st.Party, g.Enemy())
			if err != nil {
				return fmt.Errorf("planner.report: %w", err)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%.2f\n", g.Name, g.Tier, g.Role, g.Count, c*float64(g.Count))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("planner.report: %w", err)
		}
	}

	_, err := fmt.Fprintf(out, "\nTotal threat:       %.2f\nThreat per player:  %.2f\nDifficulty:         %s\n",
		res.TotalThreat, res.ThreatPerPlayer, res.Category)
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
