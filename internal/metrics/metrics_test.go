package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamMetrics(t *testing.T) {
	m := New()

	m.ClientsChanged(3)
	m.EventBroadcast("team:updated", 3, 0)
	m.EventBroadcast("team:updated", 2, 1)
	m.ClientRemoved("send_failed")

	assert.Equal(t, float64(3), testutil.ToFloat64(m.streamClients))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.eventsSent.WithLabelValues("team:updated")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sendFailures.WithLabelValues("team:updated")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.clientsRemoved.WithLabelValues("send_failed")))
}

func TestWatcherMetrics(t *testing.T) {
	m := New()
	m.FileEvent("config")
	m.FileEvent("config")
	m.FileEvent("inbox")
	m.ReloadFailed("inbox")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.fileEvents.WithLabelValues("config")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fileEvents.WithLabelValues("inbox")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reloadFailures.WithLabelValues("inbox")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/teams", 200, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `teamboard_http_requests_total{method="GET",route="/api/teams",status="200"} 1`))
	assert.Contains(t, text, "teamboard_http_request_duration_seconds_bucket")
	assert.Contains(t, text, "go_goroutines")
}
