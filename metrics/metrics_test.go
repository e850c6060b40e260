package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue digs a counter out of the registry by name and label value.
func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpload(OutcomeAccepted)
	c.RecordUpload(OutcomeAccepted)
	c.RecordUpload(OutcomeValidationFailed)
	c.RecordForkEnsure(OutcomeForkCreated)
	c.RecordWorkflowDispatch(OutcomeDispatched)

	assert.Equal(t, float64(2), counterValue(t, reg, "faasrhub_uploads_total", OutcomeAccepted))
	assert.Equal(t, float64(1), counterValue(t, reg, "faasrhub_uploads_total", OutcomeValidationFailed))
	assert.Equal(t, float64(1), counterValue(t, reg, "faasrhub_fork_ensures_total", OutcomeForkCreated))
	assert.Equal(t, float64(1), counterValue(t, reg, "faasrhub_workflow_dispatches_total", OutcomeDispatched))
}

func TestHTTPMiddlewareRecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	router := mux.NewRouter()
	router.Use(c.HTTPMiddleware)
	router.HandleFunc("/workflows/status/{fileName}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	req := httptest.NewRequest("GET", "/workflows/status/test.json", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	// The label must be the route template, not the concrete path.
	assert.Equal(t, float64(1), counterValue(t, reg, "faasrhub_http_requests_total", "/workflows/status/{fileName}"))
	assert.Equal(t, float64(0), counterValue(t, reg, "faasrhub_http_requests_total", "/workflows/status/test.json"))
	assert.Equal(t, float64(1), counterValue(t, reg, "faasrhub_http_requests_total", "404"))
}

func TestRecordHTTPRequestObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", "/health", http.StatusOK, 150*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() == "faasrhub_http_request_duration_seconds" {
			found = true
			histogram := mf.GetMetric()[0].GetHistogram()
			assert.Equal(t, uint64(1), histogram.GetSampleCount())
			assert.InDelta(t, 0.15, histogram.GetSampleSum(), 0.001)
		}
	}
	assert.True(t, found, "duration histogram not registered")
}

func TestHandlerServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordUpload(OutcomeAccepted)

	req := httptest.NewRequest("GET", "/metrics", nil)
	recorder := httptest.NewRecorder()
	Handler(reg).ServeHTTP(recorder, req)

	resp := recorder.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "faasrhub_uploads_total")
}
