package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSheet = "../../adapters/excel/testdata/sedes.csv"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SOURCE_URL", "")
	t.Setenv("CATEGORIES_FILE", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	out, err := runCLI(t, "--source", testSheet, "--json", "summary")
	require.NoError(t, err)

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, float64(2), summary["site_count"])
	assert.Equal(t, float64(1291), summary["total_students"])
	assert.Equal(t, float64(1234), summary["rural_students"])
	assert.Equal(t, float64(57), summary["urban_students"])
}

func TestSummaryCommandByMunicipality(t *testing.T) {
	out, err := runCLI(t, "--source", testSheet, "summary", "--municipio", "Nechí")
	require.NoError(t, err)
	assert.Contains(t, out, "Estudiantes urbanos")
	assert.Contains(t, out, "Nechí")
	assert.NotContains(t, out, "Cáceres")
}

func TestSearchCommand(t *testing.T) {
	out, err := runCLI(t, "--source", testSheet, "--json", "search", "la esperanza")
	require.NoError(t, err)

	var matches []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "La Esperanza", matches[0]["sede"])
	assert.Equal(t, "Cáceres", matches[0]["municipio"])
	assert.Equal(t, float64(100), matches[0]["score"])

	out, err = runCLI(t, "--source", testSheet, "search", "villa alta")
	require.NoError(t, err)
	assert.Contains(t, out, "Villa Alta")
	assert.Contains(t, out, "IE Villa")
}

func TestCatalogMappingReachesBuilder(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "catalogo.yaml")
	doc := `
categories: ["BATUTA 2025"]
mapping:
  municipality: ["SEDE"]
`
	require.NoError(t, os.WriteFile(catalog, []byte(doc), 0o644))

	out, err := runCLI(t, "--source", testSheet, "--catalog", catalog, "--json", "municipios")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"La Esperanza", "Villa Alta"}, names)
}

func TestCommandErrors(t *testing.T) {
	_, err := runCLI(t, "summary")
	assert.ErrorContains(t, err, "--source is required")

	_, err = runCLI(t, "--source", testSheet, "detail", "x")
	assert.ErrorContains(t, err, "invalid index")

	_, err = runCLI(t, "--source", "missing.csv", "municipios")
	assert.Error(t, err)
}
