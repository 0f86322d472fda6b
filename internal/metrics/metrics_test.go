package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveFetch(120*time.Millisecond, nil)
	pr.ObserveFetch(time.Second, errors.New("boom"))
	pr.ObservePass(OutcomeRendered, 3)
	pr.ObservePass(OutcomeNoData, 0)
	pr.ObservePass(OutcomeNoData, 0)

	require.Equal(t, 1.0, testutil.ToFloat64(pr.passes.WithLabelValues(string(OutcomeRendered))))
	require.Equal(t, 2.0, testutil.ToFloat64(pr.passes.WithLabelValues(string(OutcomeNoData))))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 3)
}

func TestHTTPHandlerExposesMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).ObservePass(OutcomeFetchError, 0)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `careloader_render_passes_total{outcome="fetch_error"} 1`))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveFetch(time.Second, nil)
	r.ObservePass(OutcomeRootMissing, 0)
}
