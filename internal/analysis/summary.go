// Package analysis computes the enrollment and staffing KPIs shown on the
// dashboard summary panel.
package analysis

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"sedes/domain/dataset"
)

// OtherMunicipality groups records with an empty municipality
const OtherMunicipality = "Otros"

// Zone is the rural/urban bucket of a record.
type Zone string

const (
	ZoneRural        Zone = "rural"
	ZoneUrban        Zone = "urban"
	ZoneUnclassified Zone = ""
)

// ClassifyZone buckets a normalized zone value. "rural" is checked first;
// values matching neither substring stay unclassified.
func ClassifyZone(zone string) Zone {
	switch {
	case strings.Contains(zone, "rural"):
		return ZoneRural
	case strings.Contains(zone, "urban"):
		return ZoneUrban
	default:
		return ZoneUnclassified
	}
}

// MunicipalityBreakdown is the rural/urban enrollment split of one municipality.
type MunicipalityBreakdown struct {
	Name  string  `json:"name"`
	Rural float64 `json:"rural"`
	Urban float64 `json:"urban"`
}

// Summary holds the aggregates of a set of records.
type Summary struct {
	SiteCount              int                     `json:"site_count"`
	TotalStudents          float64                 `json:"total_students"`
	TotalTeachers          float64                 `json:"total_teachers"`
	RuralStudents          float64                 `json:"rural_students"`
	UrbanStudents          float64                 `json:"urban_students"`
	AverageStudentsPerSite float64                 `json:"average_students_per_site"`
	MedianStudentsPerSite  float64                 `json:"median_students_per_site"`
	StudentsPerTeacher     float64                 `json:"students_per_teacher"`
	ByMunicipality         []MunicipalityBreakdown `json:"by_municipality"`
}

// Summarize aggregates records using the default municipality column.
func Summarize(records []*dataset.Record) Summary {
	return SummarizeMapped(records, dataset.DefaultFieldMapping())
}

// SummarizeMapped aggregates records. Unclassified zones count toward the
// totals but toward neither the rural nor the urban sums.
func SummarizeMapped(records []*dataset.Record, mapping dataset.FieldMapping) Summary {
	s := Summary{
		SiteCount:      len(records),
		ByMunicipality: []MunicipalityBreakdown{},
	}
	if len(records) == 0 {
		return s
	}

	students := make([]float64, len(records))
	teachers := make([]float64, len(records))
	var rural, urban []float64
	groups := make(map[string]*MunicipalityBreakdown)

	for i, r := range records {
		students[i] = r.Meta.TotalStudents
		teachers[i] = r.Meta.TotalTeachers

		name := municipalityName(r, mapping)
		g, ok := groups[name]
		if !ok {
			g = &MunicipalityBreakdown{Name: name}
			groups[name] = g
		}

		switch ClassifyZone(r.Meta.Zone) {
		case ZoneRural:
			rural = append(rural, r.Meta.TotalStudents)
			g.Rural += r.Meta.TotalStudents
		case ZoneUrban:
			urban = append(urban, r.Meta.TotalStudents)
			g.Urban += r.Meta.TotalStudents
		}
	}

	s.TotalStudents = sum(students)
	s.TotalTeachers = sum(teachers)
	s.RuralStudents = sum(rural)
	s.UrbanStudents = sum(urban)
	s.AverageStudentsPerSite = stat.Mean(students, nil)
	s.MedianStudentsPerSite, _ = stats.Median(students)
	if s.TotalTeachers > 0 {
		s.StudentsPerTeacher = s.TotalStudents / s.TotalTeachers
	}

	for _, g := range groups {
		s.ByMunicipality = append(s.ByMunicipality, *g)
	}
	sort.Slice(s.ByMunicipality, func(i, j int) bool {
		return s.ByMunicipality[i].Name < s.ByMunicipality[j].Name
	})
	return s
}

// sum returns 0 for empty input, where stats.Sum reports an error.
func sum(values []float64) float64 {
	total, err := stats.Sum(values)
	if err != nil {
		return 0
	}
	return total
}

func municipalityName(r *dataset.Record, mapping dataset.FieldMapping) string {
	name := r.First(mapping.Municipality...)
	if name == "" {
		return OtherMunicipality
	}
	return name
}
