package app

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sedes/domain/core"
	"sedes/domain/dataset"
	"sedes/internal/errors"
	ingest "sedes/internal/dataset"
)

func loadedService(t *testing.T) (*DashboardService, *MockTableSource) {
	t.Helper()
	source := new(MockTableSource)
	source.On("Describe").Return("mem:test")
	source.On("Fetch", mock.Anything).Return(fixtureTable(), nil).Once()
	svc := newTestService(source, nil)
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	return svc, source
}

func TestQueryModesAreExclusive(t *testing.T) {
	svc, _ := loadedService(t)
	sess := svc.NewSession()

	sites, err := sess.OnTextQuery("la")
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, 0, sites[0].Index)
	mode, q := sess.Mode()
	assert.Equal(t, QueryText, mode)
	assert.Equal(t, "la", q)

	cats, err := sess.OnCategoryQuery("batuta")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, 1, cats[0].Count)
	mode, q = sess.Mode()
	assert.Equal(t, QueryCategory, mode)
	assert.Equal(t, "batuta", q)

	_, err = sess.Reset()
	require.NoError(t, err)
	mode, q = sess.Mode()
	assert.Equal(t, QueryNone, mode)
	assert.Empty(t, q)
}

func TestSelectSite(t *testing.T) {
	svc, _ := loadedService(t)
	sess := svc.NewSession()

	v, err := sess.SelectSite(2)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, v.Indices)
	assert.Equal(t, ViewTable, v.Mode)
	assert.Equal(t, "Sede seleccionada: El Roble", v.Message)

	_, err = sess.SelectSite(3)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	_, err = sess.SelectSite(-1)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	current, err := sess.View()
	require.NoError(t, err)
	assert.Same(t, v, current, "failed commands leave the view alone")
}

func TestSelectCategoryAddsColumn(t *testing.T) {
	svc, _ := loadedService(t)
	sess := svc.NewSession()

	v, err := sess.SelectCategory("BATUTA 2025")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, v.Indices)
	assert.Equal(t, "BATUTA_2025", v.CategoryKey)
	assert.Equal(t, "BATUTA 2025", v.CategoryHeader)

	table, err := sess.Table(0)
	require.NoError(t, err)
	require.Len(t, table.Columns, 6)
	assert.Equal(t, TableColumn{Key: "BATUTA_2025", Label: "BATUTA 2025"}, table.Columns[5])
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"A", "IE Rural Piamonte", "La Esperanza", "Rural", "10", "Si"}, table.Rows[0].Cells)

	_, err = sess.SelectCategory("  ¿? ")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestSelectMunicipality(t *testing.T) {
	svc, _ := loadedService(t)
	sess := svc.NewSession()

	_, err := sess.SelectCategory("BATUTA 2025")
	require.NoError(t, err)

	v, err := sess.OnSelectMunicipality("A")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, v.Indices)
	assert.Empty(t, v.CategoryKey, "municipality filter clears the category")
	assert.Equal(t, "Municipio: A", v.Message)

	summary, err := sess.Summary()
	require.NoError(t, err)
	assert.Equal(t, 15.0, summary.TotalStudents)
	assert.Equal(t, 10.0, summary.RuralStudents)
	assert.Equal(t, 5.0, summary.UrbanStudents)

	table, err := sess.Table(0)
	require.NoError(t, err)
	assert.Len(t, table.Columns, 5)
	assert.Equal(t, "Urbano", table.Rows[1].Cells[3], "ZONA falls back to UBICACION")

	v, err = sess.OnSelectMunicipality("a")
	require.NoError(t, err)
	assert.Empty(t, v.Indices)

	v, err = sess.OnSelectMunicipality("")
	require.NoError(t, err)
	assert.Equal(t, ViewSummary, v.Mode)
	assert.Equal(t, []int{0, 1, 2}, v.Indices)
}

func TestSummaryOfFullView(t *testing.T) {
	svc, _ := loadedService(t)
	sess := svc.NewSession()

	summary, err := sess.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.SiteCount)
	assert.Equal(t, 22.0, summary.TotalStudents)
	assert.Equal(t, 17.0, summary.RuralStudents)
	assert.Equal(t, 5.0, summary.UrbanStudents)
	assert.Equal(t, 4.0, summary.TotalTeachers)
}

func TestTableLimit(t *testing.T) {
	svc, _ := loadedService(t)
	sess := svc.NewSession()

	table, err := sess.Table(2)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, 3, table.Total)
	assert.True(t, table.Truncated)

	table, err = sess.Table(0)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)
	assert.False(t, table.Truncated)
	assert.Equal(t, "INSTITUCIÓN EDUCATIVA", table.Columns[1].Label)
	assert.Equal(t, "Estudiantes", table.Columns[4].Label)
}

func TestDetail(t *testing.T) {
	svc, _ := loadedService(t)
	sess := svc.NewSession()

	pairs, err := sess.Detail(1)
	require.NoError(t, err)
	assert.Equal(t, []dataset.LabeledValue{
		{Label: "MUNICIPIO", Value: "A"},
		{Label: "INSTITUCION", Value: "IE Central"},
		{Label: "SEDE", Value: "Villa Alta"},
		{Label: "UBICACION", Value: "Urbano"},
		{Label: "TOTAL GENERAL", Value: "5"},
		{Label: "2025 Docentes", Value: "1"},
		{Label: "BATUTA 2025", Value: "0"},
	}, pairs)

	_, err = sess.Detail(10)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestViewKeepsItsRecordSetAcrossReloads(t *testing.T) {
	svc, source := loadedService(t)
	sess := svc.NewSession()

	v, err := sess.OnSelectMunicipality("B")
	require.NoError(t, err)
	before := v.Set

	reloaded := fixtureTable()[:4]
	source.On("Fetch", mock.Anything).Return(reloaded, nil).Once()
	rs, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Len())

	current, err := sess.View()
	require.NoError(t, err)
	assert.Same(t, before, current.Set)
	assert.Equal(t, []int{2}, current.Indices)

	pairs, err := sess.Detail(2)
	require.NoError(t, err)
	assert.Equal(t, "B", pairs[0].Value)

	v, err = sess.Reset()
	require.NoError(t, err)
	assert.Same(t, rs, v.Set)
}

func TestCommandErrorsWrapDomainSentinels(t *testing.T) {
	svc, _ := loadedService(t)
	sess := svc.NewSession()

	_, err := sess.SelectSite(99)
	assert.True(t, stderrors.Is(err, core.ErrRecordNotFound))
	assert.Contains(t, err.Error(), "record 99 not found")

	_, err = sess.SelectCategory("¿?")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrUnknownLabel))
}

func TestSelectSiteUsesQueriedRecordSet(t *testing.T) {
	svc, source := loadedService(t)
	sess := svc.NewSession()

	matches, err := sess.OnTextQuery("la esperanza")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	queried, err := svc.RecordSet()
	require.NoError(t, err)

	table := fixtureTable()
	reordered := dataset.RawTable{table[0], table[1], table[2], table[5], table[4], table[3]}
	source.On("Fetch", mock.Anything).Return(reordered, nil).Once()
	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	v, err := sess.SelectSite(matches[0].Index)
	require.NoError(t, err)
	assert.Equal(t, "Sede seleccionada: La Esperanza", v.Message)
	assert.Same(t, queried, v.Set)

	_, err = sess.Reset()
	require.NoError(t, err)
	v, err = sess.SelectSite(0)
	require.NoError(t, err)
	assert.Equal(t, "Sede seleccionada: El Roble", v.Message, "after a reset the current set is used")
}

func TestRemappedColumnsFlowThroughViews(t *testing.T) {
	source := new(MockTableSource)
	source.On("Describe").Return("mem:remapped")
	source.On("Fetch", mock.Anything).Return(dataset.RawTable{
		{"preamble"},
		{"preamble"},
		{"CIUDAD", "COLEGIO", "NOMBRE SEDE", "AREA", "MATRICULA"},
		{"A", "IE Piamonte", "La Esperanza", "Rural", "10"},
		{"B", "IE Norte", "El Roble", "Urbana", "4"},
	}, nil).Once()

	cfg := ingest.DefaultBuilderConfig()
	cfg.Mapping = dataset.FieldMapping{
		Municipality: []string{"CIUDAD"},
		Site:         []string{"NOMBRE_SEDE"},
		Institution:  []string{"COLEGIO"},
		Code:         []string{"CODIGO"},
		Zone:         []string{"AREA"},
		Students:     []string{"MATRICULA"},
	}
	svc := NewDashboardService(source, ingest.NewBuilder(cfg, nil), nil, nil, nil)
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	sess := svc.NewSession()

	matches, err := sess.OnTextQuery("la esp")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "La Esperanza", matches[0].Site)
	assert.Equal(t, "IE Piamonte", matches[0].Institution)
	assert.Equal(t, "A", matches[0].Municipality)

	v, err := sess.SelectSite(matches[0].Index)
	require.NoError(t, err)
	assert.Equal(t, "Sede seleccionada: La Esperanza", v.Message)

	table := BuildTable(v, 0)
	assert.Equal(t, "NOMBRE_SEDE", table.Columns[2].Key)
	assert.Equal(t, "SEDE", table.Columns[2].Label)
	assert.Equal(t, []string{"A", "IE Piamonte", "La Esperanza", "Rural", "10"}, table.Rows[0].Cells)

	v, err = sess.OnSelectMunicipality("B")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, v.Indices)
}
