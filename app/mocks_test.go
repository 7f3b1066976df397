package app

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sedes/domain/dataset"
	ingest "sedes/internal/dataset"
)

type MockTableSource struct {
	mock.Mock
}

func (m *MockTableSource) Fetch(ctx context.Context) (dataset.RawTable, error) {
	args := m.Called(ctx)
	table, _ := args.Get(0).(dataset.RawTable)
	return table, args.Error(1)
}

func (m *MockTableSource) Describe() string {
	return m.Called().String(0)
}

type MockLoadRunRepository struct {
	mock.Mock
}

func (m *MockLoadRunRepository) Record(ctx context.Context, run *dataset.LoadRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockLoadRunRepository) ListRecent(ctx context.Context, limit int) ([]*dataset.LoadRun, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]*dataset.LoadRun)
	return runs, args.Error(1)
}

func fixtureTable() dataset.RawTable {
	return dataset.RawTable{
		{"SECRETARIA DE EDUCACION"},
		{"Corte marzo"},
		{"MUNICIPIO", "INSTITUCIÓN", "SEDE", "ZONA", "UBICACIÓN", "TOTAL GENERAL", "2025 Docentes", "BATUTA 2025"},
		{"A", "IE Rural Piamonte", "La Esperanza", "Rural", "", "10", "2", "Si"},
		{"A", "IE Central", "Villa Alta", "", "Urbano", "5", "1", "0"},
		{"B", "IE Norte", "El Roble", "rural", "", "7", "1", "NO"},
	}
}

func newTestService(source *MockTableSource, history *MockLoadRunRepository) *DashboardService {
	builder := ingest.NewBuilder(ingest.DefaultBuilderConfig(), nil)
	labels := []string{"BATUTA 2025", "2025 Docentes", "Agua potable"}
	if history == nil {
		return NewDashboardService(source, builder, nil, labels, nil)
	}
	return NewDashboardService(source, builder, history, labels, nil)
}
