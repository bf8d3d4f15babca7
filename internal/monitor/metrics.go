package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

// Prometheus family names scraped from the daemon. The mepd_http_*
// families come from the coordination API instrumentation, the rest
// from the default Go and process collectors.
const (
	metricRequestsTotal   = "mepd_http_requests_total"
	metricRequestDuration = "mepd_http_request_duration_seconds"
	metricActiveRequests  = "mepd_http_active_requests"
	metricGoroutines      = "go_goroutines"
	metricResidentMemory  = "process_resident_memory_bytes"
	metricProcessStart    = "process_start_time_seconds"
)

// MetricsClient polls a running mepd daemon for status and metrics. It
// remembers the previous scrape so request rates and latency quantiles
// cover the refresh window instead of the process lifetime.
type MetricsClient struct {
	baseURL string
	client  *http.Client

	mu        sync.Mutex
	lastAt    time.Time
	lastTotal float64
	lastHist  histogramState
}

// DaemonStatus mirrors the daemon's GET /api/v1/status response.
type DaemonStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Counts  struct {
		Elements int `json:"elements"`
		Hangers  int `json:"hangers"`
	} `json:"counts"`
}

// NewMetricsClient creates a client for the daemon at baseURL.
func NewMetricsClient(baseURL string) *MetricsClient {
	return &MetricsClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// Status fetches the daemon status document.
func (c *MetricsClient) Status(ctx context.Context) (DaemonStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/status", nil)
	if err != nil {
		return DaemonStatus{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return DaemonStatus{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DaemonStatus{}, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var status DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return DaemonStatus{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return status, nil
}

// Scrape fetches and parses the Prometheus exposition at /metrics.
func (c *MetricsClient) Scrape(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metrics", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	// prometheus/common v0.66+ panics on a zero-value TextParser; UTF8 is
	// the validation scheme earlier versions applied by default.
	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}

	return families, nil
}

// Snapshot polls the status and metrics endpoints and assembles one
// dashboard snapshot. The first call primes the rate window and
// reports zero traffic.
func (c *MetricsClient) Snapshot(ctx context.Context) (MetricsSnapshot, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return MetricsSnapshot{}, err
	}

	families, err := c.Scrape(ctx)
	if err != nil {
		return MetricsSnapshot{}, err
	}

	// Coordination families are absent until the first instrumented
	// request lands, so missing values simply stay zero.
	total, _ := familyValue(families, metricRequestsTotal)
	active, _ := familyValue(families, metricActiveRequests)
	goroutines, _ := familyValue(families, metricGoroutines)
	memory, _ := familyValue(families, metricResidentMemory)

	var uptime int64
	if start, ok := familyValue(families, metricProcessStart); ok && start > 0 {
		uptime = int64(time.Since(time.Unix(int64(start), 0)).Seconds())
	}

	rate, p95 := c.window(time.Now(), total, durationHistogram(families))

	return MetricsSnapshot{
		Status:         status.Status,
		Version:        status.Version,
		Elements:       status.Counts.Elements,
		Hangers:        status.Counts.Hangers,
		RequestRate:    rate,
		LatencyP95:     p95,
		ActiveRequests: int(active),
		Goroutines:     int(goroutines),
		MemoryBytes:    uint64(memory),
		Uptime:         uptime,
	}, nil
}

// window computes the request rate and latency p95 between the
// previous observation and this one, then stores the observation for
// the next call. Without a previous observation the p95 covers the
// process lifetime. A counter reset (daemon restart) also falls back
// to the lifetime view.
func (c *MetricsClient) window(at time.Time, total float64, hist histogramState) (ratePerMin, p95 float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevAt, prevTotal, prevHist := c.lastAt, c.lastTotal, c.lastHist
	c.lastAt, c.lastTotal, c.lastHist = at, total, hist

	if prevAt.IsZero() || !at.After(prevAt) || total < prevTotal {
		return 0, histogramQuantile(0.95, hist)
	}

	elapsed := at.Sub(prevAt).Seconds()
	ratePerMin = (total - prevTotal) / elapsed * 60

	delta, ok := hist.sub(prevHist)
	if !ok {
		return ratePerMin, histogramQuantile(0.95, hist)
	}
	return ratePerMin, histogramQuantile(0.95, delta)
}

// familyValue sums the sample values of a family across all label
// sets. Works for counters, gauges, and untyped metrics.
func familyValue(families map[string]*dto.MetricFamily, name string) (float64, bool) {
	mf, ok := families[name]
	if !ok {
		return 0, false
	}

	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.GetCounter() != nil:
			total += m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			total += m.GetGauge().GetValue()
		case m.GetUntyped() != nil:
			total += m.GetUntyped().GetValue()
		}
	}
	return total, true
}

// histogramState is a cumulative histogram merged across every label
// set of a family.
type histogramState struct {
	count   uint64
	buckets map[float64]uint64 // upper bound -> cumulative count
}

// durationHistogram merges the request duration histogram across all
// label sets. Summing cumulative buckets per bound is valid because
// every series of an instrument shares the same bounds.
func durationHistogram(families map[string]*dto.MetricFamily) histogramState {
	state := histogramState{buckets: make(map[float64]uint64)}

	mf, ok := families[metricRequestDuration]
	if !ok {
		return state
	}

	for _, m := range mf.GetMetric() {
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		state.count += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			state.buckets[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	// Some expositions omit the +Inf bucket since it always equals the
	// sample count.
	if _, ok := state.buckets[math.Inf(1)]; !ok && state.count > 0 {
		state.buckets[math.Inf(1)] = state.count
	}

	return state
}

// sub returns the bucket-wise difference h - prev. It reports false
// when any count went backwards, meaning the daemon restarted between
// scrapes.
func (h histogramState) sub(prev histogramState) (histogramState, bool) {
	if h.count < prev.count {
		return histogramState{}, false
	}

	out := histogramState{
		count:   h.count - prev.count,
		buckets: make(map[float64]uint64, len(h.buckets)),
	}
	for le, cum := range h.buckets {
		p := prev.buckets[le]
		if cum < p {
			return histogramState{}, false
		}
		out.buckets[le] = cum - p
	}
	return out, true
}

// histogramQuantile estimates a quantile from cumulative buckets with
// linear interpolation, matching PromQL's histogram_quantile. Values
// in the +Inf bucket clamp to the highest finite bound.
func histogramQuantile(q float64, h histogramState) float64 {
	if h.count == 0 || len(h.buckets) == 0 {
		return 0
	}

	bounds := make([]float64, 0, len(h.buckets))
	for le := range h.buckets {
		bounds = append(bounds, le)
	}
	sort.Float64s(bounds)

	rank := q * float64(h.count)
	var lower float64
	var below uint64
	for _, le := range bounds {
		cum := h.buckets[le]
		if float64(cum) < rank {
			lower = le
			below = cum
			continue
		}
		if math.IsInf(le, 1) {
			return lower
		}
		width := cum - below
		if width == 0 {
			return le
		}
		return lower + (le-lower)*((rank-float64(below))/float64(width))
	}
	return lower
}
