package ui

import (
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sedes/internal/errors"
)

func TestAdminHealthAndReadiness(t *testing.T) {
	src := &staticSource{table: fixtureTable()}
	svc := newService(t, src, false)
	admin := NewAdminRouter(svc, time.Second, nil)

	w := do(t, admin, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["loaded"])

	w = do(t, admin, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, admin, http.MethodPost, "/admin/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["records"])

	w = do(t, admin, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminReloadFailureKeepsData(t *testing.T) {
	src := &staticSource{table: fixtureTable()}
	svc := newService(t, src, true)
	admin := NewAdminRouter(svc, time.Second, nil)

	src.err = errors.Transport("static", stderrors.New("timeout"))
	w := do(t, admin, http.MethodPost, "/admin/reload", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, errors.CodeTransport, decode(t, w)["code"])

	src.err = nil
	src.table = fixtureTable()[:2]
	w = do(t, admin, http.MethodPost, "/admin/reload", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	rs, err := svc.RecordSet()
	require.NoError(t, err)
	assert.Equal(t, 3, rs.Len())
}

func TestAdminLoadsAndProfiler(t *testing.T) {
	svc := newService(t, &staticSource{table: fixtureTable()}, true)
	admin := NewAdminRouter(svc, 0, nil)

	w := do(t, admin, http.MethodGet, "/admin/loads?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["loads"])

	w = do(t, admin, http.MethodGet, "/debug/pprof/", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
