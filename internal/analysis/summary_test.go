package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sedes/domain/dataset"
)

func record(municipality, zone string, students, teachers float64) *dataset.Record {
	return &dataset.Record{
		Fields: map[string]string{"MUNICIPIO": municipality},
		Meta: dataset.Metadata{
			Zone:          zone,
			TotalStudents: students,
			TotalTeachers: teachers,
		},
	}
}

func TestSummarizeEndToEnd(t *testing.T) {
	records := []*dataset.Record{
		record("A", "rural", 10, 2),
		record("A", "urbano", 5, 1),
		record("B", "rural", 7, 1),
	}

	s := Summarize(records)
	assert.Equal(t, 3, s.SiteCount)
	assert.Equal(t, 22.0, s.TotalStudents)
	assert.Equal(t, 4.0, s.TotalTeachers)
	assert.Equal(t, 17.0, s.RuralStudents)
	assert.Equal(t, 5.0, s.UrbanStudents)
	assert.InDelta(t, 22.0/3.0, s.AverageStudentsPerSite, 1e-9)
	assert.Equal(t, 7.0, s.MedianStudentsPerSite)
	assert.Equal(t, 5.5, s.StudentsPerTeacher)

	assert.Equal(t, []MunicipalityBreakdown{
		{Name: "A", Rural: 10, Urban: 5},
		{Name: "B", Rural: 7, Urban: 0},
	}, s.ByMunicipality)
}

func TestSummarizeUnclassifiedZone(t *testing.T) {
	records := []*dataset.Record{
		record("A", "rural", 10, 0),
		record("A", "periurbana", 4, 0),
		record("A", "", 6, 0),
	}

	s := Summarize(records)
	assert.Equal(t, 20.0, s.TotalStudents)
	assert.Equal(t, 10.0, s.RuralStudents)
	assert.Equal(t, 4.0, s.UrbanStudents, "periurbana contains urban")
	assert.NotEqual(t, s.TotalStudents, s.RuralStudents+s.UrbanStudents)
	assert.Equal(t, 0.0, s.StudentsPerTeacher)

	require.Len(t, s.ByMunicipality, 1)
	assert.Equal(t, MunicipalityBreakdown{Name: "A", Rural: 10, Urban: 4}, s.ByMunicipality[0])
}

func TestSummarizeGroupsEmptyMunicipality(t *testing.T) {
	records := []*dataset.Record{
		record("", "urbano", 3, 1),
		record("Zaragoza", "rural", 2, 1),
		record("Amalfi", "rural", 1, 1),
	}

	s := Summarize(records)
	names := make([]string, 0, len(s.ByMunicipality))
	for _, g := range s.ByMunicipality {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Amalfi", OtherMunicipality, "Zaragoza"}, names)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.SiteCount)
	assert.Equal(t, 0.0, s.TotalStudents)
	assert.Equal(t, 0.0, s.AverageStudentsPerSite)
	assert.NotNil(t, s.ByMunicipality)
	assert.Empty(t, s.ByMunicipality)
}

func TestClassifyZone(t *testing.T) {
	tests := map[string]Zone{
		"rural":             ZoneRural,
		"urbano":            ZoneUrban,
		"urbana":            ZoneUrban,
		"rural dispersa":    ZoneRural,
		"zona urbano rural": ZoneRural,
		"centro poblado":    ZoneUnclassified,
		"":                  ZoneUnclassified,
	}
	for zone, want := range tests {
		assert.Equal(t, want, ClassifyZone(zone), zone)
	}
}
