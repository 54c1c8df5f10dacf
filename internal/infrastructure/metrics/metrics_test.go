package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveHTTP("POST", "/api/v1/seller/register", 201, 20*time.Millisecond)
	m.ObserveHTTP("POST", "/api/v1/seller/register", 201, 10*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)
	m.ObserveGateway("create_transaction", nil, time.Second)
	m.ObserveGateway("verify_transaction", errors.New("timeout"), time.Second)
	m.ObserveOutbox("email", "sent")
	m.ObserveSweep(nil, 2, 1, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/seller/register", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayCalls.WithLabelValues("verify_transaction", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxJobs.WithLabelValues("email", "sent")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweepChanges.WithLabelValues("subscription_expired")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sweepChanges.WithLabelValues("user_demoted")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
		m.ObserveGateway("create_transaction", nil, time.Millisecond)
		m.ObserveOutbox("email", "dropped")
		m.ObserveSweep(errors.New("x"), 0, 0, 0)
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveOutbox("notification", "retried")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `marketplace_outbox_jobs_total{kind="notification",result="retried"} 1`)
}
