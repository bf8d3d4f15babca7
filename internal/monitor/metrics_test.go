package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExposition = `# HELP mepd_http_requests_total Total number of HTTP requests
# TYPE mepd_http_requests_total counter
mepd_http_requests_total{http_method="POST",http_route="/api/v1/route"} 40
mepd_http_requests_total{http_method="GET",http_route="/health"} 20
# TYPE mepd_http_request_duration_seconds histogram
mepd_http_request_duration_seconds_bucket{le="0.005"} 30
mepd_http_request_duration_seconds_bucket{le="0.05"} 55
mepd_http_request_duration_seconds_bucket{le="+Inf"} 60
mepd_http_request_duration_seconds_sum 1.2
mepd_http_request_duration_seconds_count 60
# TYPE mepd_http_active_requests gauge
mepd_http_active_requests{http_method="POST"} 2
# TYPE go_goroutines gauge
go_goroutines 42
# TYPE process_resident_memory_bytes gauge
process_resident_memory_bytes 2.5690112e+07
`

func TestNewMetricsClient(t *testing.T) {
	client := NewMetricsClient("http://localhost:9090")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:9090", client.baseURL)
	assert.NotNil(t, client.client)
}

func TestMetricsClient_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/status", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"version": "1.2.0",
			"counts":  map[string]int{"elements": 128, "hangers": 342},
		})
	}))
	defer server.Close()

	client := NewMetricsClient(server.URL)
	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.0", status.Version)
	assert.Equal(t, 128, status.Counts.Elements)
	assert.Equal(t, 342, status.Counts.Hangers)
}

func TestMetricsClient_Status_Timeout(t *testing.T) {
	// Server that delays response beyond timeout
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewMetricsClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Status(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context deadline exceeded")
}

func TestMetricsClient_Status_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewMetricsClient(server.URL)

	_, err := client.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 500")
}

func TestMetricsClient_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics", r.URL.Path)

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(sampleExposition))
	}))
	defer server.Close()

	client := NewMetricsClient(server.URL)
	families, err := client.Scrape(context.Background())
	require.NoError(t, err)

	total, ok := familyValue(families, metricRequestsTotal)
	require.True(t, ok)
	assert.InDelta(t, 60.0, total, 0.01, "counter samples sum across label sets")

	active, ok := familyValue(families, metricActiveRequests)
	require.True(t, ok)
	assert.InDelta(t, 2.0, active, 0.01)

	goroutines, ok := familyValue(families, metricGoroutines)
	require.True(t, ok)
	assert.InDelta(t, 42.0, goroutines, 0.01)

	_, ok = familyValue(families, "mepd_no_such_family")
	assert.False(t, ok)
}

func TestMetricsClient_Scrape_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not an exposition"))
	}))
	defer server.Close()

	client := NewMetricsClient(server.URL)

	_, err := client.Scrape(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse metrics")
}

func TestMetricsClient_Snapshot(t *testing.T) {
	var requests atomic.Uint64
	requests.Store(60)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"version": "1.2.0",
			"counts":  map[string]int{"elements": 128, "hangers": 342},
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "# TYPE mepd_http_requests_total counter\nmepd_http_requests_total %d\n", requests.Load())
		fmt.Fprint(w, "# TYPE go_goroutines gauge\ngo_goroutines 42\n")
		fmt.Fprint(w, "# TYPE process_resident_memory_bytes gauge\nprocess_resident_memory_bytes 2.5690112e+07\n")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewMetricsClient(server.URL)

	first, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", first.Status)
	assert.Equal(t, "1.2.0", first.Version)
	assert.Equal(t, 128, first.Elements)
	assert.Equal(t, 342, first.Hangers)
	assert.Equal(t, 42, first.Goroutines)
	assert.Equal(t, uint64(25690112), first.MemoryBytes)
	assert.Zero(t, first.RequestRate, "first snapshot primes the rate window")

	requests.Store(120)
	time.Sleep(20 * time.Millisecond)

	second, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Greater(t, second.RequestRate, 0.0)
}

func TestMetricsClient_Window(t *testing.T) {
	client := NewMetricsClient("http://localhost:9090")

	h1 := histogramState{
		count:   60,
		buckets: map[float64]uint64{0.005: 30, 0.05: 55, math.Inf(1): 60},
	}
	t0 := time.Now()

	rate, p95 := client.window(t0, 60, h1)
	assert.Zero(t, rate)
	assert.InDelta(t, 0.05, p95, 1e-9, "first call reports the lifetime p95")

	// 90 more requests over 30s, 60 of them in the window histogram.
	h2 := histogramState{
		count:   120,
		buckets: map[float64]uint64{0.005: 40, 0.05: 110, math.Inf(1): 120},
	}
	rate, p95 = client.window(t0.Add(30*time.Second), 150, h2)
	assert.InDelta(t, 180.0, rate, 1e-9)
	assert.InDelta(t, 0.05, p95, 1e-9, "windowed p95 clamps to the last finite bound")

	// Counter reset (daemon restart) falls back to the lifetime view.
	rate, p95 = client.window(t0.Add(60*time.Second), 10, h1)
	assert.Zero(t, rate)
	assert.InDelta(t, 0.05, p95, 1e-9)
}

func TestDurationHistogram_MergesSeries(t *testing.T) {
	exposition := `# TYPE mepd_http_request_duration_seconds histogram
mepd_http_request_duration_seconds_bucket{http_route="/api/v1/route",le="0.005"} 30
mepd_http_request_duration_seconds_bucket{http_route="/api/v1/route",le="+Inf"} 40
mepd_http_request_duration_seconds_sum{http_route="/api/v1/route"} 0.4
mepd_http_request_duration_seconds_count{http_route="/api/v1/route"} 40
mepd_http_request_duration_seconds_bucket{http_route="/api/v1/hangers",le="0.005"} 10
mepd_http_request_duration_seconds_bucket{http_route="/api/v1/hangers",le="+Inf"} 20
mepd_http_request_duration_seconds_sum{http_route="/api/v1/hangers"} 0.3
mepd_http_request_duration_seconds_count{http_route="/api/v1/hangers"} 20
`

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(exposition))
	require.NoError(t, err)

	state := durationHistogram(families)
	assert.Equal(t, uint64(60), state.count)
	assert.Equal(t, uint64(40), state.buckets[0.005])
	assert.Equal(t, uint64(60), state.buckets[math.Inf(1)])
}

func TestHistogramQuantile(t *testing.T) {
	h := histogramState{
		count: 100,
		buckets: map[float64]uint64{
			0.1:         50,
			0.5:         90,
			math.Inf(1): 100,
		},
	}

	// Rank 50 lands exactly on the first bucket boundary.
	assert.InDelta(t, 0.1, histogramQuantile(0.5, h), 1e-9)
	// Rank 75 interpolates within the second bucket.
	assert.InDelta(t, 0.35, histogramQuantile(0.75, h), 1e-9)
	// Rank 95 falls in the +Inf bucket and clamps to the last finite bound.
	assert.InDelta(t, 0.5, histogramQuantile(0.95, h), 1e-9)

	assert.Zero(t, histogramQuantile(0.95, histogramState{}))
}
