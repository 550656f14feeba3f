package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveDocument(OutcomeConverted, 20*time.Millisecond)
	m.ObserveDocument(OutcomeConverted, 30*time.Millisecond)
	m.ObserveDocument(OutcomeUnreadable, time.Millisecond)
	m.ObserveDiagnostic("RowClassificationWarning", "warning")
	m.ObserveBatch(true, 12)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues(OutcomeConverted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(OutcomeUnreadable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.diagnostics.WithLabelValues("RowClassificationWarning", "warning")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.entries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues("true")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDocument(OutcomeRejected, time.Second)
		m.ObserveDiagnostic("x", "error")
		m.ObserveBatch(false, 0)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveBatch(false, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `journal_batches_total{success="false"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
