package app

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"sedes/domain/core"
	"sedes/domain/dataset"
	"sedes/internal/analysis"
	"sedes/internal/errors"
	"sedes/internal/search"
)

// DefaultTableLimit is the number of rows rendered in the results table
const DefaultTableLimit = 500

// QueryMode is the suggestion box currently in use. The two modes are
// mutually exclusive.
type QueryMode string

const (
	QueryNone     QueryMode = ""
	QueryText     QueryMode = "text"
	QueryCategory QueryMode = "category"
)

// ViewMode tells the presentation layer what to render
type ViewMode string

const (
	ViewSummary ViewMode = "summary"
	ViewTable   ViewMode = "table"
)

// View is the FilteredView: the subset of a RecordSet selected for display.
// Views are immutable once built.
type View struct {
	Set            *dataset.RecordSet `json:"-"`
	Indices        []int              `json:"indices"`
	Mode           ViewMode           `json:"mode"`
	Message        string             `json:"message,omitempty"`
	CategoryKey    string             `json:"category_key,omitempty"`
	CategoryHeader string             `json:"category_header,omitempty"`
	Municipality   string             `json:"municipality,omitempty"`
}

// Len returns the number of records in the view
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Indices)
}

// Records resolves the view indices against its RecordSet.
func (v *View) Records() []*dataset.Record {
	if v == nil || v.Set == nil {
		return nil
	}
	out := make([]*dataset.Record, 0, len(v.Indices))
	for _, i := range v.Indices {
		if r, ok := v.Set.At(i); ok {
			out = append(out, r)
		}
	}
	return out
}

func fullView(rs *dataset.RecordSet) *View {
	indices := make([]int, rs.Len())
	for i := range indices {
		indices[i] = i
	}
	return &View{Set: rs, Indices: indices, Mode: ViewSummary}
}

// TableColumn is one column of the results table.
type TableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	role  columnRole
}

type columnRole int

const (
	roleField columnRole = iota
	roleMunicipality
	roleInstitution
	roleSite
	roleZone
	roleStudents
)

// TableRow is one rendered row; Index addresses the record for Detail.
type TableRow struct {
	Index int      `json:"index"`
	Cells []string `json:"cells"`
}

// Table is the rendered results table of a view.
type Table struct {
	Columns   []TableColumn `json:"columns"`
	Rows      []TableRow    `json:"rows"`
	Total     int           `json:"total"`
	Truncated bool          `json:"truncated"`
}

// baseColumns names the fixed table columns after the first mapped key of
// each field, so a remapped catalog still labels its own columns.
func baseColumns(m dataset.FieldMapping) []TableColumn {
	return []TableColumn{
		{Key: firstKey(m.Municipality, "MUNICIPIO"), Label: "MUNICIPIO", role: roleMunicipality},
		{Key: firstKey(m.Institution, "INSTITUCION"), Label: "INSTITUCIÓN EDUCATIVA", role: roleInstitution},
		{Key: firstKey(m.Site, "SEDE"), Label: "SEDE", role: roleSite},
		{Key: firstKey(m.Zone, "ZONA"), Label: "ZONA", role: roleZone},
		{Key: firstKey(m.Students, "TOTAL_GENERAL"), Label: "Estudiantes", role: roleStudents},
	}
}

func firstKey(keys []string, fallback string) string {
	if len(keys) == 0 {
		return fallback
	}
	return keys[0]
}

// Session is the command interface of one dashboard client. It holds the
// active query mode and the single live view.
type Session struct {
	id      core.SessionID
	service *DashboardService

	mu       sync.Mutex
	mode     QueryMode
	query    string
	queried  *dataset.RecordSet // RecordSet behind the last site suggestions
	view     *View
	lastSeen time.Time
}

func newSession(id core.SessionID, service *DashboardService) *Session {
	return &Session{id: id, service: service, lastSeen: time.Now()}
}

// ID returns the session id
func (s *Session) ID() core.SessionID { return s.id }

// Mode returns the active query mode and its query text.
func (s *Session) Mode() (QueryMode, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.query
}

// LastSeen returns when the session last handled a command
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() { s.lastSeen = time.Now() }

// OnTextQuery activates text mode and returns ranked site suggestions.
func (s *Session) OnTextQuery(q string) ([]search.SiteMatch, error) {
	rs, err := s.service.RecordSet()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.mode, s.query = QueryText, q
	s.queried = rs
	s.touch()
	s.mu.Unlock()
	return search.SearchSites(rs, q), nil
}

// OnCategoryQuery activates category mode and returns category suggestions.
func (s *Session) OnCategoryQuery(q string) ([]search.CategoryMatch, error) {
	rs, err := s.service.RecordSet()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.mode, s.query = QueryCategory, q
	s.queried = nil
	s.touch()
	s.mu.Unlock()
	return search.SearchCategories(rs, s.service.labels, q), nil
}

// SelectSite collapses the view to one record. The index is resolved against
// the RecordSet the last site suggestions were computed from, so a reload
// between suggesting and selecting cannot pick a different site.
func (s *Session) SelectSite(index int) (*View, error) {
	s.mu.Lock()
	rs := s.queried
	s.mu.Unlock()
	if rs == nil {
		var err error
		if rs, err = s.service.RecordSet(); err != nil {
			return nil, err
		}
	}
	r, ok := rs.At(index)
	if !ok {
		return nil, recordNotFound(index)
	}
	v := &View{
		Set:     rs,
		Indices: []int{index},
		Mode:    ViewTable,
		Message: fmt.Sprintf("Sede seleccionada: %s", r.First(rs.Mapping.Site...)),
	}
	return s.setView(v), nil
}

// SelectCategory narrows the view to records carrying the category and
// remembers its column for the table.
func (s *Session) SelectCategory(label string) (*View, error) {
	rs, err := s.service.RecordSet()
	if err != nil {
		return nil, err
	}
	key := search.CategoryKey(label)
	if key == "" {
		return nil, errors.InvalidInput(fmt.Sprintf("category %q", label)).WithCause(core.ErrUnknownLabel)
	}
	v := &View{
		Set:            rs,
		Indices:        search.FilterByCategory(rs, key),
		Mode:           ViewTable,
		Message:        fmt.Sprintf("Categoría: %s", label),
		CategoryKey:    key,
		CategoryHeader: rs.VisibleLabel(key),
	}
	return s.setView(v), nil
}

// OnSelectMunicipality filters by exact municipality. An empty name resets.
func (s *Session) OnSelectMunicipality(name string) (*View, error) {
	if name == "" {
		return s.Reset()
	}
	rs, err := s.service.RecordSet()
	if err != nil {
		return nil, err
	}
	v := &View{
		Set:          rs,
		Indices:      search.FilterByMunicipality(rs, name),
		Mode:         ViewTable,
		Message:      fmt.Sprintf("Municipio: %s", name),
		Municipality: name,
	}
	return s.setView(v), nil
}

// Reset returns to the full RecordSet in summary mode and clears both queries.
func (s *Session) Reset() (*View, error) {
	rs, err := s.service.RecordSet()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode, s.query = QueryNone, ""
	s.queried = nil
	s.view = fullView(rs)
	s.touch()
	return s.view, nil
}

func (s *Session) setView(v *View) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.touch()
	return v
}

// View returns the live view; a session that has not selected anything sees
// the full current RecordSet.
func (s *Session) View() (*View, error) {
	s.mu.Lock()
	v := s.view
	s.mu.Unlock()
	if v != nil {
		return v, nil
	}
	rs, err := s.service.RecordSet()
	if err != nil {
		return nil, err
	}
	return fullView(rs), nil
}

// Summary aggregates the records of the live view.
func (s *Session) Summary() (analysis.Summary, error) {
	v, err := s.View()
	if err != nil {
		return analysis.Summary{}, err
	}
	return analysis.SummarizeMapped(v.Records(), v.Set.Mapping), nil
}

// Table renders at most limit rows of the live view. limit <= 0 uses
// DefaultTableLimit.
func (s *Session) Table(limit int) (*Table, error) {
	v, err := s.View()
	if err != nil {
		return nil, err
	}
	return BuildTable(v, limit), nil
}

// BuildTable renders the results table of a view.
func BuildTable(v *View, limit int) *Table {
	if limit <= 0 {
		limit = DefaultTableLimit
	}
	columns := baseColumns(v.Set.Mapping)
	if v.CategoryKey != "" {
		columns = append(columns, TableColumn{Key: v.CategoryKey, Label: v.CategoryHeader})
	}

	t := &Table{Columns: columns, Rows: []TableRow{}, Total: v.Len()}
	for _, i := range v.Indices {
		if len(t.Rows) == limit {
			t.Truncated = true
			break
		}
		r, ok := v.Set.At(i)
		if !ok {
			continue
		}
		cells := make([]string, len(columns))
		for c, col := range columns {
			cells[c] = cellValue(r, col, v.Set.Mapping)
		}
		t.Rows = append(t.Rows, TableRow{Index: i, Cells: cells})
	}
	return t
}

func cellValue(r *dataset.Record, col TableColumn, m dataset.FieldMapping) string {
	switch col.role {
	case roleMunicipality:
		return r.First(m.Municipality...)
	case roleInstitution:
		return r.First(m.Institution...)
	case roleSite:
		return r.First(m.Site...)
	case roleZone:
		return r.First(m.Zone...)
	case roleStudents:
		return strconv.FormatFloat(r.Meta.TotalStudents, 'f', -1, 64)
	default:
		return r.Get(col.Key)
	}
}

// Detail lists the label/value pairs of one record in header order. The
// index is resolved against the RecordSet of the live view.
func (s *Session) Detail(index int) ([]dataset.LabeledValue, error) {
	v, err := s.View()
	if err != nil {
		return nil, err
	}
	rs := v.Set
	r, ok := rs.At(index)
	if !ok {
		return nil, recordNotFound(index)
	}
	return rs.Detail(r), nil
}

func recordNotFound(index int) error {
	return errors.NotFound(fmt.Sprintf("record %d", index)).WithCause(core.ErrRecordNotFound)
}
