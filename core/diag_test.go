package core

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/encodeous/rankd/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagNeighbours(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.AddOrUpdate("a")
	m.ReceiveAck("a")

	h := NewDiagHandler(m)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/neighbours", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"rank":2`)
	assert.Contains(t, rec.Body.String(), `"parent":"a"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/neighbours", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDiagMetrics(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.AddOrUpdate("a")
	m.SendProbe("a")

	h := NewDiagHandler(m)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rankd_probe_transmitted_total")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rankd:Probes/s")
}

func TestFetchSnapshot(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.AddOrUpdate("b")
	m.AddOrUpdate("a")
	m.ReceiveAck("b")

	srv := httptest.NewServer(NewDiagHandler(m))
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	snap, err := FetchSnapshot(t.Context(), strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	if diff := cmp.Diff(m.Snapshot(), *snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, state.NodeId("b"), snap.Parent)
}

func TestFetchSnapshotBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	bind := strings.TrimPrefix(srv.URL, "http://")
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	_, err := FetchSnapshot(t.Context(), bind)
	assert.ErrorContains(t, err, "unexpected status")
}
