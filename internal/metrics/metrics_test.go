package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextfileAndHandler(t *testing.T) {
	m := New()
	m.LinesTotal.Add(12)
	m.SessionsTotal.WithLabelValues("success").Inc()
	m.ConnectSeconds.Observe(6)

	assert.Equal(t, 12.0, testutil.ToFloat64(m.LinesTotal))

	path := filepath.Join(t.TempDir(), "vpnlogsift.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vpnlogsift_lines_total 12")
	assert.Contains(t, string(data), `vpnlogsift_sessions_total{outcome="success"} 1`)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "vpnlogsift_connect_seconds_count 1")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.LinesTotal.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LinesTotal))
}
