package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/internal/domain/model"
	"github.com/okian/cremling/internal/domain/scoring"
	"github.com/okian/cremling/internal/domain/session"
)

// tierValue accepts a tier as a JSON number or a numeric string.
type tierValue int

func (t *tierValue) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	n, err := scoring.ParseTier(s)
	if err != nil {
		return err
	}
	*t = tierValue(n)
	return nil
}

type partyRequest struct {
	Tier *tierValue `json:"tier"`
	Size int        `json:"size"`
}

func (p partyRequest) party(op string) (scoring.Party, error) {
	if p.Tier == nil {
		return scoring.Party{}, WrapKind(op, ErrBadRequest, errMissing("party tier"))
	}
	return scoring.Party{Tier: int(*p.Tier), Size: p.Size}, nil
}

type enemyRequest struct {
	Role string     `json:"role"`
	Tier *tierValue `json:"tier"`
}

// scoreRequest mirrors the OpenAPI schema for POST /score.
type scoreRequest struct {
	Party   partyRequest   `json:"party"`
	Enemies []enemyRequest `json:"enemies"`
}

func (r scoreRequest) decode(op string) (scoring.Party, []scoring.Enemy, error) {
	party, err := r.Party.party(op)
	if err != nil {
		return scoring.Party{}, nil, err
	}
	enemies := make([]scoring.Enemy, 0, len(r.Enemies))
	for _, e := range r.Enemies {
		role, err := scoring.ParseRole(e.Role)
		if err != nil {
			return scoring.Party{}, nil, Wrap(op, err)
		}
		if e.Tier == nil {
			return scoring.Party{}, nil, WrapKind(op, ErrBadRequest, errMissing("enemy tier"))
		}
		enemies = append(enemies, scoring.Enemy{Role: role, Tier: int(*e.Tier)})
	}
	return party, enemies, nil
}

type addEnemyRequest struct {
	EntryID string `json:"entry_id"`
}

type entryView struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Tier   int               `json:"tier"`
	Role   scoring.Role      `json:"role"`
	Fields map[string]string `json:"fields"`
}

func newEntryView(e catalog.Entry) entryView {
	return entryView{ID: e.ID, Name: e.Name, Tier: e.Tier, Role: e.Role, Fields: e.Fields}
}

type catalogView struct {
	Name        string               `json:"name"`
	Columns     []string             `json:"columns"`
	Count       int                  `json:"count"`
	Entries     []entryView          `json:"entries"`
	SortOptions []catalog.SortOption `json:"sort_options"`
}

func newCatalogView(c *catalog.Catalog, entries []catalog.Entry) catalogView {
	v := catalogView{
		Name:        c.Name(),
		Columns:     c.Header(),
		Count:       len(entries),
		Entries:     make([]entryView, len(entries)),
		SortOptions: catalog.SortOptions(),
	}
	for i, e := range entries {
		v.Entries[i] = newEntryView(e)
	}
	return v
}

// groupView is one roster line with the threat its picks add.
type groupView struct {
	model.Group
	Threat float64 `json:"threat"`
}

type sessionView struct {
	ID        string          `json:"id"`
	Party     scoring.Party   `json:"party"`
	Catalog   string          `json:"catalog"`
	Enemies   []groupView     `json:"enemies"`
	Score     *scoring.Result `json:"score,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// newSessionView renders st with its score res. The score is left out while
// nothing is picked.
func newSessionView(st session.State, res scoring.Result) (sessionView, error) {
	v := sessionView{
		ID:        st.ID,
		Party:     st.Party,
		Enemies:   []groupView{},
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
	if st.Catalog != nil {
		v.Catalog = st.Catalog.Name()
	}
	for _, g := range st.Selection.Groups() {
		c, err := scoring.Contribution(st.Party, g.Enemy())
		if err != nil {
			return sessionView{}, err
		}
		v.Enemies = append(v.Enemies, groupView{Group: g, Threat: c * float64(g.Count)})
	}
	if st.Selection.Len() > 0 {
		v.Score = &res
	}
	return v, nil
}

type likesResponse struct {
	Likes int64 `json:"likes"`
}

type missingFieldError string

func (e missingFieldError) Error() string { return "missing " + string(e) }

func errMissing(field string) error { return missingFieldError(field) }
