package platform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/cluster"
	"github.com/hiveops/hivectl/pkg/log"
	"github.com/hiveops/hivectl/pkg/poll"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	m.Run()
}

// exposition renders a real Prometheus text body containing the platform
// status gauge, so parsing is tested against the actual wire format.
func exposition(t *testing.T, status Status) string {
	t.Helper()

	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: StatusMetricPrefix,
		Help: "Platform status of the node",
	})
	registry.MustRegister(gauge)
	gauge.Set(float64(status))

	recorder := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).
		ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return recorder.Body.String()
}

func TestParseStatusFromMetrics(t *testing.T) {
	tests := []struct {
		name   string
		status Status
	}{
		{"active", StatusActive},
		{"starting up", StatusStartingUp},
		{"freeze complete", StatusFreezeComplete},
		{"catastrophic failure", StatusCatastrophicFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := exposition(t, tt.status)
			got, err := ParseStatusFromMetrics(body)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got)
		})
	}
}

func TestParseStatusErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"no status metric", "some_other_metric 1\n"},
		{"non-numeric value", StatusMetricPrefix + " banana\n"},
		{"unknown code", StatusMetricPrefix + " 42\n"},
		{"bare prefix", StatusMetricPrefix + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatusFromMetrics(tt.body)
			assert.Error(t, err)
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ACTIVE", StatusActive.String())
	assert.Equal(t, "CATASTROPHIC_FAILURE", StatusCatastrophicFailure.String())
	assert.Equal(t, "UNKNOWN(99)", Status(99).String())
}

// statusServer serves successive platform statuses, one per scrape.
func statusServer(t *testing.T, statuses ...Status) (*httptest.Server, int, *atomic.Int32) {
	t.Helper()

	var scrapes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(scrapes.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.Write([]byte(StatusMetricPrefix + " " + strconv.Itoa(int(status)) + "\n"))
	}))
	t.Cleanup(server.Close)

	parts := strings.Split(server.Listener.Addr().String(), ":")
	port, err := strconv.Atoi(parts[len(parts)-1])
	require.NoError(t, err)
	return server, port, &scrapes
}

func waitConfig(attempts int) poll.Config {
	return poll.Config{
		Entity:         "node node1",
		Target:         "ACTIVE",
		MaxAttempts:    attempts,
		Delay:          time.Millisecond,
		AttemptTimeout: time.Second,
	}
}

func TestWaitForStatusSucceedsOnThirdScrape(t *testing.T) {
	_, port, scrapes := statusServer(t, StatusStartingUp, StatusStartingUp, StatusActive)

	fake := cluster.NewFake()
	checker := NewChecker(fake)
	checker.Settle = 0

	err := checker.WaitForStatus(context.Background(), "solo", "network-node1-0", port, StatusActive, waitConfig(10))
	require.NoError(t, err)
	assert.Equal(t, int32(3), scrapes.Load(), "exactly 3 scrapes expected")
	assert.Equal(t, 0, fake.OpenForwards, "port-forward must be closed on success")
}

func TestWaitForStatusCatastrophicIsTerminal(t *testing.T) {
	_, port, scrapes := statusServer(t, StatusStartingUp, StatusCatastrophicFailure)

	fake := cluster.NewFake()
	checker := NewChecker(fake)
	checker.Settle = 0

	err := checker.WaitForStatus(context.Background(), "solo", "network-node1-0", port, StatusActive, waitConfig(100))
	require.Error(t, err)

	var terminal *poll.TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, int32(2), scrapes.Load(), "terminal status must stop polling immediately")
	assert.Equal(t, 0, fake.OpenForwards, "port-forward must be closed on terminal failure")
}

func TestWaitForStatusTimesOut(t *testing.T) {
	_, port, _ := statusServer(t, StatusStartingUp)

	fake := cluster.NewFake()
	checker := NewChecker(fake)
	checker.Settle = 0

	err := checker.WaitForStatus(context.Background(), "solo", "network-node1-0", port, StatusActive, waitConfig(3))
	require.Error(t, err)

	var timeout *poll.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 3, timeout.Attempts)
	assert.Equal(t, 0, fake.OpenForwards, "port-forward must be closed on timeout")
}

func TestWaitForStatusAppliesSettleDelay(t *testing.T) {
	_, port, _ := statusServer(t, StatusActive)

	fake := cluster.NewFake()
	checker := NewChecker(fake)
	checker.Settle = 50 * time.Millisecond

	start := time.Now()
	err := checker.WaitForStatus(context.Background(), "solo", "network-node1-0", port, StatusActive, waitConfig(5))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitForProxy(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	parts := strings.Split(server.Listener.Addr().String(), ":")
	port, err := strconv.Atoi(parts[len(parts)-1])
	require.NoError(t, err)

	fake := cluster.NewFake()
	checker := NewChecker(fake)

	err = checker.WaitForProxy(context.Background(), "solo", "envoy-proxy-node1-0", port, waitConfig(10))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 0, fake.OpenForwards)
}
