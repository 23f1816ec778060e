package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("build", 150*time.Millisecond)
	pr.IncStageResult("build", ResultSuccess)
	pr.IncStageResult("publish", ResultTimeout)
	pr.ObservePipelineDuration(500 * time.Millisecond)
	pr.IncPipelineOutcome("success")
	pr.IncValidationFailure("master_branch")
	pr.IncValidationFailure("master_branch")

	assert.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues("publish", "timeout")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.validationFailures.WithLabelValues("master_branch")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 5)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("build", time.Second)
		pr.IncStageResult("build", ResultFailure)
		pr.IncPipelineOutcome("failed")
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).IncPipelineOutcome("success")

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `docworker_pipeline_outcomes_total{outcome="success"} 1`))
}
