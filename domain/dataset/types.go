package dataset

import (
	"strings"
	"time"

	"sedes/domain/core"
)

// DefaultHeaderRowIndex is the row holding column labels in the published
// spreadsheet; the two rows above it are a title preamble. It is a contract
// with the upstream sheet, not something inferred from the data.
const DefaultHeaderRowIndex = 2

// RawTable is the parser output: ordered rows of ordered text cells.
type RawTable [][]string

// TrimTrailingBlank drops trailing rows whose cells are all blank after trimming.
func (t RawTable) TrimTrailingBlank() RawTable {
	end := len(t)
	for end > 0 && isBlankRow(t[end-1]) {
		end--
	}
	return t[:end]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// HeaderEntry is one spreadsheet column after key normalization.
type HeaderEntry struct {
	Visible string `json:"visible"`
	Key     string `json:"key"`
}

// Metadata is derived from a record's own fields once, at build time.
type Metadata struct {
	Full          string  `json:"-"`
	Municipality  string  `json:"mun"`
	Site          string  `json:"sede"`
	Institution   string  `json:"inst"`
	Code          string  `json:"cod"`
	Zone          string  `json:"zona"`
	TotalStudents float64 `json:"totalEst"`
	TotalTeachers float64 `json:"totalDoc"`
}

// Record is one educational site row.
type Record struct {
	// Fields maps header key to the raw cell text. Empty strings are kept.
	Fields map[string]string `json:"fields"`
	// Display maps the visible header label to the raw cell text.
	Display map[string]string `json:"-"`
	Meta    Metadata          `json:"meta"`
}

// Get returns the raw value for a header key, "" when absent.
func (r *Record) Get(key string) string {
	if r == nil {
		return ""
	}
	return r.Fields[key]
}

// First returns the first non-empty raw value among keys.
func (r *Record) First(keys ...string) string {
	for _, key := range keys {
		if v := r.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// LabeledValue is one label/value pair for a detail view.
type LabeledValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldMapping names the header keys metadata is read from. Each slice is
// an ordered preference list: the first key holding a non-empty raw value wins.
type FieldMapping struct {
	Municipality []string `json:"municipality" yaml:"municipality"`
	Site         []string `json:"site" yaml:"site"`
	Institution  []string `json:"institution" yaml:"institution"`
	Code         []string `json:"code" yaml:"code"`
	Zone         []string `json:"zone" yaml:"zone"`
	Students     []string `json:"students" yaml:"students"`
	Teachers     []string `json:"teachers" yaml:"teachers"`
}

// DefaultFieldMapping matches the column layout of the published sheet.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		Municipality: []string{"MUNICIPIO"},
		Site:         []string{"SEDE"},
		Institution:  []string{"INSTITUCION"},
		Code:         []string{"COD_SEDE_DANE", "COD_IE_DANE"},
		Zone:         []string{"ZONA", "UBICACION"},
		Students:     []string{"TOTAL_GENERAL", "TOTAL"},
		Teachers:     []string{"2025_DOCENTES", "2024_DOCENTES"},
	}
}

// RecordSet is the full, read-only result of one successful load.
type RecordSet struct {
	Headers        []HeaderEntry  `json:"headers"`
	Records        []*Record      `json:"-"`
	Mapping        FieldMapping   `json:"mapping"`
	Fingerprint    core.Hash      `json:"fingerprint"`
	LoadedAt       time.Time      `json:"loaded_at"`
	Source         string         `json:"source"`
	municipalities []string
}

// NewRecordSet assembles a RecordSet and its municipality side index.
func NewRecordSet(headers []HeaderEntry, records []*Record, mapping FieldMapping, municipalities []string) *RecordSet {
	return &RecordSet{
		Headers:        headers,
		Records:        records,
		Mapping:        mapping,
		LoadedAt:       time.Now(),
		municipalities: municipalities,
	}
}

// Len returns the number of records
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// At returns the record at index or false when out of range.
func (rs *RecordSet) At(index int) (*Record, bool) {
	if rs == nil || index < 0 || index >= len(rs.Records) {
		return nil, false
	}
	return rs.Records[index], true
}

// Municipalities returns the distinct, sorted municipality names.
func (rs *RecordSet) Municipalities() []string {
	if rs == nil {
		return nil
	}
	out := make([]string, len(rs.municipalities))
	copy(out, rs.municipalities)
	return out
}

// VisibleLabel returns the display label for a header key, or the key itself.
func (rs *RecordSet) VisibleLabel(key string) string {
	if rs != nil {
		for _, h := range rs.Headers {
			if h.Key == key {
				return h.Visible
			}
		}
	}
	return key
}

// Detail lists label/value pairs in header order, skipping blank values.
func (rs *RecordSet) Detail(r *Record) []LabeledValue {
	if rs == nil || r == nil {
		return nil
	}
	pairs := make([]LabeledValue, 0, len(rs.Headers))
	for _, h := range rs.Headers {
		v := r.Display[h.Visible]
		if strings.TrimSpace(v) == "" {
			continue
		}
		label := h.Visible
		if label == "" {
			label = h.Key
		}
		pairs = append(pairs, LabeledValue{Label: label, Value: v})
	}
	return pairs
}

// LoadStatus is the outcome of one ingestion attempt.
type LoadStatus string

const (
	LoadSucceeded LoadStatus = "succeeded"
	LoadFailed    LoadStatus = "failed"
)

// LoadRun records one ingestion attempt for the load history.
type LoadRun struct {
	ID           core.LoadRunID `json:"id" db:"id"`
	Source       string         `json:"source" db:"source"`
	Status       LoadStatus     `json:"status" db:"status"`
	ErrorCode    string         `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage string         `json:"error_message,omitempty" db:"error_message"`
	RowCount     int            `json:"row_count" db:"row_count"`
	RecordCount  int            `json:"record_count" db:"record_count"`
	HeaderCount  int            `json:"header_count" db:"header_count"`
	Fingerprint  string         `json:"fingerprint,omitempty" db:"fingerprint"`
	StartedAt    time.Time      `json:"started_at" db:"started_at"`
	DurationMS   int64          `json:"duration_ms" db:"duration_ms"`
}
