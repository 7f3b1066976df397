// Package dataset turns a parsed spreadsheet export into the in-memory record
// set the dashboard searches and aggregates.
package dataset

import (
	"fmt"
	"sort"
	"strings"

	"sedes/adapters/datareadiness/coercer"
	"sedes/domain/core"
	"sedes/domain/dataset"
	"sedes/internal"
	"sedes/internal/errors"
	"sedes/internal/textnorm"
)

// BuilderConfig controls where headers live and which columns feed metadata
type BuilderConfig struct {
	HeaderRowIndex int
	Mapping        dataset.FieldMapping
	Coercion       coercer.CoercionConfig
}

// DefaultBuilderConfig returns the layout of the published sheet
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		HeaderRowIndex: dataset.DefaultHeaderRowIndex,
		Mapping:        dataset.DefaultFieldMapping(),
		Coercion:       coercer.DefaultCoercionConfig(),
	}
}

// Builder builds RecordSets. It holds no per-load state and is safe to reuse.
type Builder struct {
	config  BuilderConfig
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewBuilder creates a record builder
func NewBuilder(config BuilderConfig, logger *internal.Logger) *Builder {
	if config.HeaderRowIndex < 0 {
		config.HeaderRowIndex = dataset.DefaultHeaderRowIndex
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Builder{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.Coercion),
		logger:  logger.Named("RecordBuilder"),
	}
}

// Build validates the table shape and builds one Record per row below the
// header row. It fails without building anything when the header row is missing.
func (b *Builder) Build(table dataset.RawTable) (*dataset.RecordSet, error) {
	table = table.TrimTrailingBlank()

	minRows := b.config.HeaderRowIndex + 1
	if len(table) < minRows {
		return nil, errors.StructuralIngestion(fmt.Sprintf(
			"table has %d rows, need at least %d (preamble plus header row)", len(table), minRows))
	}

	headers := b.BuildHeaders(table[b.config.HeaderRowIndex])
	dataRows := table[b.config.HeaderRowIndex+1:]

	records := make([]*dataset.Record, 0, len(dataRows))
	for _, row := range dataRows {
		records = append(records, b.BuildRecord(headers, row))
	}

	rs := dataset.NewRecordSet(headers, records, b.config.Mapping, b.municipalities(records))
	rs.Fingerprint = core.ComputeTableHash(table)

	b.logger.Info("built %d records from %d columns (fingerprint %s)", len(records), len(headers), rs.Fingerprint.Short())
	return rs, nil
}

// BuildHeaders normalizes every header cell. Headers whose key comes out
// empty get the positional key of their column.
func (b *Builder) BuildHeaders(row []string) []dataset.HeaderEntry {
	headers := make([]dataset.HeaderEntry, len(row))
	seen := make(map[string]int, len(row))
	for i, cell := range row {
		h := textnorm.NormalizeKey(cell)
		if h.Key == "" {
			h.Key = textnorm.PositionalKey(i)
		}
		if prev, dup := seen[h.Key]; dup {
			b.logger.Warn("columns %d and %d share key %s; the later column wins", prev, i, h.Key)
		}
		seen[h.Key] = i
		headers[i] = h
	}
	return headers
}

// BuildRecord maps one data row onto the headers and derives its metadata.
// Missing trailing cells become "", cells beyond the header row are ignored.
func (b *Builder) BuildRecord(headers []dataset.HeaderEntry, row []string) *dataset.Record {
	r := &dataset.Record{
		Fields:  make(map[string]string, len(headers)),
		Display: make(map[string]string, len(headers)),
	}

	order := make([]string, 0, len(headers))
	for i, h := range headers {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		if _, exists := r.Fields[h.Key]; !exists {
			order = append(order, h.Key)
		}
		r.Fields[h.Key] = value
		r.Display[h.Visible] = value
	}

	values := make([]string, len(order))
	for i, key := range order {
		values[i] = r.Fields[key]
	}

	m := b.config.Mapping
	r.Meta = dataset.Metadata{
		Full:          textnorm.ForSearch(strings.Join(values, " ")),
		Municipality:  textnorm.ForSearch(r.First(m.Municipality...)),
		Site:          textnorm.ForSearch(r.First(m.Site...)),
		Institution:   textnorm.ForSearch(r.First(m.Institution...)),
		Code:          textnorm.ForSearch(r.First(m.Code...)),
		Zone:          textnorm.ForSearch(r.First(m.Zone...)),
		TotalStudents: b.coercer.ParseNumber(r.First(m.Students...)),
		TotalTeachers: b.coercer.ParseNumber(r.First(m.Teachers...)),
	}
	return r
}

func (b *Builder) municipalities(records []*dataset.Record) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		if name := r.First(b.config.Mapping.Municipality...); name != "" {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
