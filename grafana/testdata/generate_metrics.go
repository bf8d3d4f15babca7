// Package testdata provides utilities for generating sample metrics data
// to test Grafana dashboards without using real production data.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics for testing dashboards. Names and labels mirror what the daemon
// exposes through the OTEL Prometheus bridge.
var (
	// HTTP server metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mepd_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mepd_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"method", "endpoint", "status"},
	)
	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mepd_http_response_size_bytes",
			Help:    "HTTP response body size",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"method", "endpoint", "status"},
	)
	httpActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mepd_http_active_requests",
			Help: "Number of currently active HTTP requests",
		},
	)

	// MCP tool metrics
	mcpInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mepd_mcp_tool_invocations_total",
			Help: "Total MCP tool invocations",
		},
		[]string{"tool"},
	)
	mcpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mepd_mcp_tool_duration_seconds",
			Help:    "MCP tool execution duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"tool"},
	)
	mcpErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mepd_mcp_tool_errors_total",
			Help: "Total MCP tool errors",
		},
		[]string{"tool", "reason"},
	)

	// Routing metrics
	routingRoutes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_routes_total",
			Help: "Total routes planned",
		},
		[]string{"kind", "pattern"},
	)
	routingFindings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_findings_total",
			Help: "Validation findings attached to planned routes",
		},
		[]string{"severity"},
	)
	routingRoutePoints = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routing_route_points",
			Help:    "Points per planned route",
			Buckets: []float64{2, 3, 4, 6, 8, 12, 16, 24},
		},
		[]string{"kind", "pattern"},
	)
	routingRouteLength = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routing_route_length_meters",
			Help:    "Plan-view route length in meters",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
		[]string{"kind", "pattern"},
	)

	// Collision metrics
	collisionDetections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collision_detections_total",
			Help: "Total detection batches run",
		},
		[]string{"level"},
	)
	collisionPairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collision_pairs_total",
			Help: "Total interfering pairs found",
		},
		[]string{"level"},
	)
	collisionSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collision_pairs_skipped_total",
			Help: "Pairs skipped because the intersector failed",
		},
		[]string{"level"},
	)
	collisionCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collision_candidates_count",
			Help:    "Candidate elements per detection batch",
			Buckets: []float64{2, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"level"},
	)

	// Conflict resolution metrics
	conflictResolutions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conflict_resolutions_total",
			Help: "Total resolution batches run",
		},
	)
	conflictResolved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conflict_pairs_resolved_total",
			Help: "Total collision pairs resolved",
		},
	)
	conflictSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conflict_pairs_skipped_total",
			Help: "Pairs skipped because geometry could not be fetched",
		},
	)
	conflictHangerRegenFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conflict_hanger_regen_failed_total",
			Help: "Failed best-effort hanger regeneration passes",
		},
	)

	// Hanger metrics
	hangerPlacements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hanger_placements_total",
			Help: "Total placement runs",
		},
		[]string{"hanger_mode"},
	)
	hangerHangers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hanger_hangers_total",
			Help: "Total hangers placed",
		},
		[]string{"hanger_mode"},
	)
	hangerWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hanger_warnings_total",
			Help: "Warnings raised during placement",
		},
		[]string{"hanger_mode"},
	)
	hangerPerBatch = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hanger_hangers_per_batch",
			Help:    "Hangers placed per run",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"hanger_mode"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		// HTTP
		httpRequestsTotal,
		httpRequestDuration,
		httpResponseSize,
		httpActiveRequests,
		// MCP
		mcpInvocations,
		mcpDuration,
		mcpErrors,
		// Routing
		routingRoutes,
		routingFindings,
		routingRoutePoints,
		routingRouteLength,
		// Collision
		collisionDetections,
		collisionPairs,
		collisionSkipped,
		collisionCandidates,
		// Conflict
		conflictResolutions,
		conflictResolved,
		conflictSkipped,
		conflictHangerRegenFailed,
		// Hangers
		hangerPlacements,
		hangerHangers,
		hangerWarnings,
		hangerPerBatch,
	)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	// Generate initial sample data
	generateSampleData()

	// Start background goroutine to continuously generate data
	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx)

	// Serve metrics
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'mepd-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

var (
	levels    = []string{"L1", "L2", "B1"}
	kinds     = []string{"pipe", "duct", "cable_tray"}
	patterns  = []string{"manhattan", "double_45", "arc"}
	modes     = []string{"individual", "integrated"}
	endpoints = []string{
		"/api/v1/route",
		"/api/v1/collisions/detect",
		"/api/v1/collisions/resolve",
		"/api/v1/hangers",
		"/api/v1/hangers/integrated",
		"/api/v1/semantics/validate-connection",
		"/api/v1/status",
	}
	tools = []string{
		"route_element",
		"resolve_collisions",
		"generate_hangers",
		"generate_integrated_hangers",
		"validate_connection",
	}
	errorReasons = []string{"validation_error", "invalid_request", "not_found", "internal_error"}
	statuses     = []string{"200", "400", "404", "429", "500"}
)

func generateSampleData() {
	// HTTP traffic
	for i := 0; i < 200; i++ {
		endpoint := randomChoice(endpoints)
		method := "POST"
		if endpoint == "/api/v1/status" {
			method = "GET"
		}
		status := randomChoice(statuses)
		httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(rand.Float64() * 0.25)
		httpResponseSize.WithLabelValues(method, endpoint, status).Observe(float64(rand.Intn(50000) + 200))
	}
	httpActiveRequests.Set(float64(rand.Intn(5)))

	// MCP tool traffic
	for i := 0; i < 80; i++ {
		tool := randomChoice(tools)
		mcpInvocations.WithLabelValues(tool).Inc()
		mcpDuration.WithLabelValues(tool).Observe(rand.Float64() * 0.5)
	}
	for i := 0; i < 8; i++ {
		mcpErrors.WithLabelValues(randomChoice(tools), randomChoice(errorReasons)).Inc()
	}

	// Routing activity
	for i := 0; i < 100; i++ {
		kind := randomChoice(kinds)
		pattern := randomChoice(patterns)
		routingRoutes.WithLabelValues(kind, pattern).Inc()
		routingRoutePoints.WithLabelValues(kind, pattern).Observe(float64(rand.Intn(10) + 2))
		routingRouteLength.WithLabelValues(kind, pattern).Observe(rand.Float64()*50 + 1)
	}
	for i := 0; i < 20; i++ {
		routingFindings.WithLabelValues(randomChoice([]string{"warning", "error"})).Inc()
	}

	// Collision scans
	for i := 0; i < 60; i++ {
		level := randomChoice(levels)
		collisionDetections.WithLabelValues(level).Inc()
		collisionCandidates.WithLabelValues(level).Observe(float64(rand.Intn(100) + 2))
		if rand.Float64() > 0.4 {
			collisionPairs.WithLabelValues(level).Add(float64(rand.Intn(8) + 1))
		}
	}
	for i := 0; i < 3; i++ {
		collisionSkipped.WithLabelValues(randomChoice(levels)).Inc()
	}

	// Conflict resolution
	for i := 0; i < 40; i++ {
		conflictResolutions.Inc()
		conflictResolved.Add(float64(rand.Intn(5)))
	}
	for i := 0; i < 4; i++ {
		conflictSkipped.Inc()
	}
	conflictHangerRegenFailed.Inc()

	// Hanger placement
	for i := 0; i < 70; i++ {
		mode := randomChoice(modes)
		count := rand.Intn(20) + 1
		hangerPlacements.WithLabelValues(mode).Inc()
		hangerHangers.WithLabelValues(mode).Add(float64(count))
		hangerPerBatch.WithLabelValues(mode).Observe(float64(count))
	}
	for i := 0; i < 10; i++ {
		hangerWarnings.WithLabelValues(randomChoice(modes)).Inc()
	}
}

func generateContinuousData(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Add some random activity
			if rand.Float64() > 0.3 {
				endpoint := randomChoice(endpoints)
				status := randomChoice(statuses)
				httpRequestsTotal.WithLabelValues("POST", endpoint, status).Inc()
				httpRequestDuration.WithLabelValues("POST", endpoint, status).Observe(rand.Float64() * 0.25)
				httpResponseSize.WithLabelValues("POST", endpoint, status).Observe(float64(rand.Intn(50000) + 200))
			}
			if rand.Float64() > 0.5 {
				kind := randomChoice(kinds)
				pattern := randomChoice(patterns)
				routingRoutes.WithLabelValues(kind, pattern).Inc()
				routingRoutePoints.WithLabelValues(kind, pattern).Observe(float64(rand.Intn(10) + 2))
				routingRouteLength.WithLabelValues(kind, pattern).Observe(rand.Float64()*50 + 1)
			}
			if rand.Float64() > 0.6 {
				level := randomChoice(levels)
				collisionDetections.WithLabelValues(level).Inc()
				collisionCandidates.WithLabelValues(level).Observe(float64(rand.Intn(100) + 2))
				if rand.Float64() > 0.5 {
					collisionPairs.WithLabelValues(level).Add(float64(rand.Intn(4) + 1))
					conflictResolutions.Inc()
					conflictResolved.Add(float64(rand.Intn(4)))
				}
			}
			if rand.Float64() > 0.6 {
				mode := randomChoice(modes)
				count := rand.Intn(20) + 1
				hangerPlacements.WithLabelValues(mode).Inc()
				hangerHangers.WithLabelValues(mode).Add(float64(count))
				hangerPerBatch.WithLabelValues(mode).Observe(float64(count))
			}
			if rand.Float64() > 0.7 {
				tool := randomChoice(tools)
				mcpInvocations.WithLabelValues(tool).Inc()
				mcpDuration.WithLabelValues(tool).Observe(rand.Float64() * 0.5)
			}
			if rand.Float64() > 0.95 {
				mcpErrors.WithLabelValues(randomChoice(tools), randomChoice(errorReasons)).Inc()
			}

			httpActiveRequests.Set(float64(rand.Intn(5)))
		}
	}
}

func randomChoice(choices []string) string {
	return choices[rand.Intn(len(choices))]
}
