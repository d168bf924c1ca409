package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServerExposesCollectors(t *testing.T) {
	before := testutil.ToFloat64(Interactions.WithLabelValues("like", "ok"))
	Interactions.WithLabelValues("like", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Interactions.WithLabelValues("like", "ok")))

	s := NewServer(zap.NewNop())
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `canvas_interactions_total{action="like",outcome="ok"}`)

	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
