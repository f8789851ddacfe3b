// Package catalog holds the table of enemy definitions a session picks from.
//
// A catalog is read from CSV with at least Name, Tier and Role columns; any
// other columns are kept verbatim for display and filtering. Once parsed a
// Catalog is immutable and safe to share between sessions.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/cremling/internal/domain/scoring"
)

// Required column headers.
const (
	ColumnName = "Name"
	ColumnTier = "Tier"
	ColumnRole = "Role"
)

// entryNamespace seeds deterministic entry identities.
var entryNamespace = uuid.MustParse("6f1c6a52-3d0b-4c59-9a8e-52b0c7d4e1a9")

// Entry is one enemy definition.
type Entry struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Tier   int               `json:"tier"`
	Role   scoring.Role      `json:"role"`
	Fields map[string]string `json:"fields"`

	cells []string
}

// Enemy returns the scoring view of the entry.
func (e Entry) Enemy() scoring.Enemy {
	return scoring.Enemy{Role: e.Role, Tier: e.Tier}
}

// Cell returns the raw value of column, or "" when absent.
func (e Entry) Cell(column string) string {
	return e.Fields[column]
}

// Catalog is an ordered, read-only collection of entries.
type Catalog struct {
	name    string
	header  []string
	entries []Entry
	byID    map[string]int
}

type parser struct {
	name    string
	maxRows int
}

// Parse reads a CSV catalog. Rows with an unknown role or a non-integer
// tier fail the whole parse with ErrInvalidCatalog.
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*Catalog, error) {
	const op = "catalog.parse"
	p := &parser{name: "catalog.csv"}
	for _, opt := range opts {
		opt(p)
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty input: %w", op, ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("%s: header: %v: %w", op, err, ErrInvalidCatalog)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	idx, err := requiredColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c := &Catalog{name: p.name, header: header, byID: make(map[string]int)}
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %v: %w", op, row, err, ErrInvalidCatalog)
		}
		if p.maxRows > 0 && len(c.entries) >= p.maxRows {
			return nil, fmt.Errorf("%s: more than %d rows: %w", op, p.maxRows, ErrInvalidCatalog)
		}
		e, err := newEntry(row, header, idx, cells)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, row, err)
		}
		c.byID[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

type columnIndex struct{ name, tier, role int }

func requiredColumns(header []string) (columnIndex, error) {
	idx := columnIndex{name: -1, tier: -1, role: -1}
	for i, h := range header {
		switch h {
		case ColumnName:
			idx.name = i
		case ColumnTier:
			idx.tier = i
		case ColumnRole:
			idx.role = i
		}
	}
	var missing []string
	if idx.name < 0 {
		missing = append(missing, ColumnName)
	}
	if idx.tier < 0 {
		missing = append(missing, ColumnTier)
	}
	if idx.role < 0 {
		missing = append(missing, ColumnRole)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("missing column(s) %s: %w", strings.Join(missing, ", "), ErrInvalidCatalog)
	}
	return idx, nil
}

func newEntry(row int, header []string, idx columnIndex, cells []string) (Entry, error) {
	tier, err := scoring.ParseTier(cells[idx.tier])
	if err != nil {
		return Entry{}, fmt.Errorf("%v: %w", err, ErrInvalidCatalog)
	}
	role, err := scoring.ParseRole(cells[idx.role])
	if err != nil {
		return Entry{}, fmt.Errorf("%v: %w", err, ErrInvalidCatalog)
	}
	name := strings.TrimSpace(cells[idx.name])
	fields := make(map[string]string, len(header))
	for i, h := range header {
		fields[h] = cells[i]
	}
	fields[ColumnTier] = strconv.Itoa(tier)
	fields[ColumnRole] = role.String()
	return Entry{
		ID:     uuid.NewSHA1(entryNamespace, []byte(strconv.Itoa(row)+"\x00"+name)).String(),
		Name:   name,
		Tier:   tier,
		Role:   role,
		Fields: fields,
		cells:  cells,
	}, nil
}

// Name returns the label the catalog was loaded under.
func (c *Catalog) Name() string { return c.name }

// Header returns the column names in file order.
func (c *Catalog) Header() []string {
	return append([]string(nil), c.header...)
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns all entries in file order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup finds an entry by identity.
func (c *Catalog) Lookup(id string) (Entry, error) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("catalog.lookup: %q: %w", id, ErrNotFound)
	}
	return c.entries[i], nil
}

// Facets lists the distinct values of every column except Name, in order
// of first appearance. These are the options offered for filtering.
func (c *Catalog) Facets() map[string][]string {
	out := make(map[string][]string, len(c.header))
	for _, h := range c.header {
		if h == ColumnName {
			continue
		}
		seen := make(map[string]struct{})
		values := []string{}
		for _, e := range c.entries {
			v := e.Fields[h]
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		out[h] = values
	}
	return out
}

// WriteCSV writes the catalog back out in its original column order.
func (c *Catalog) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(c.header); err != nil {
		return fmt.Errorf("catalog.write: %w", err)
	}
	for _, e := range c.entries {
		if err := cw.Write(e.cells); err != nil {
			return fmt.Errorf("catalog.write: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("catalog.write: %w", err)
	}
	return nil
}
