package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// Model represents the BubbleTea dashboard model
type Model struct {
	daemonURL  string
	interval   time.Duration
	client     *MetricsClient
	lastUpdate time.Time
	metrics    MetricsSnapshot
	err        error
	quitting   bool

	// Progress bars
	memoryProgress  progress.Model
	requestProgress progress.Model
}

// MetricsSnapshot holds one round of daemon observations
type MetricsSnapshot struct {
	Status   string
	Version  string
	Elements int
	Hangers  int

	RequestRate    float64 // requests per minute over the refresh window
	LatencyP95     float64 // seconds
	ActiveRequests int
	Goroutines     int
	MemoryBytes    uint64
	Uptime         int64

	// Historical data for sparklines (last N points)
	RequestRateHistory []float64
	LatencyHistory     []float64
	ElementsHistory    []float64
	MemoryHistory      []float64

	// Peak values for progress bars
	RequestRatePeak float64
	MemoryMaxBytes  uint64
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	// Header style - bright cyan background, bold black text
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	// Section title style - bold bright cyan
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	// Label style - dim cyan
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Value style - bright white
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	// Dim style - for units and secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Status styles with unicode symbols
	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Container style - rounded border with dim gray
	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	// Footer style - bright keys on dim background
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	// Sparkline container
	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a new dashboard model polling the daemon at daemonURL
func NewModel(daemonURL string, interval time.Duration) Model {
	// Initialize progress bars with custom gradient
	memProg := progress.New(
		progress.WithGradient("#00ff00", "#ffff00"),
		progress.WithWidth(40),
	)

	reqProg := progress.New(
		progress.WithGradient("#00ffff", "#ff00ff"),
		progress.WithWidth(40),
	)

	return Model{
		daemonURL:       daemonURL,
		interval:        interval,
		client:          NewMetricsClient(daemonURL),
		quitting:        false,
		memoryProgress:  memProg,
		requestProgress: reqProg,
		metrics: MetricsSnapshot{
			RequestRateHistory: make([]float64, 0, historySize),
			LatencyHistory:     make([]float64, 0, historySize),
			ElementsHistory:    make([]float64, 0, historySize),
			MemoryHistory:      make([]float64, 0, historySize),
			RequestRatePeak:    1.0,       // Minimum peak to avoid division by zero
			MemoryMaxBytes:     512 << 20, // Default max memory for the progress bar
		},
	}
}

// getLatencyBadge returns a colored status badge based on latency
func getLatencyBadge(latencyMS float64) string {
	if latencyMS < 100 {
		return healthyStyle.Render("[✓]")
	} else if latencyMS < 500 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

// getStatusBadge returns the overall badge from the daemon status and
// the observed latency
func getStatusBadge(status string, latencyMS float64) string {
	if status != "" && status != "ok" {
		return errorStyle.Render("✗ " + strings.ToUpper(status))
	}
	if latencyMS < 100 {
		return healthyStyle.Render("✓ HEALTHY")
	} else if latencyMS < 500 {
		return warningStyle.Render("⚠ WARN")
	}
	return errorStyle.Render("✗ ERROR")
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type metricsMsg MetricsSnapshot
type errMsg error

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchSnapshot(m.client),
	)
}

// tick creates a tick command for auto-refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshot polls the daemon through the shared client so rate
// windows survive across refreshes
func fetchSnapshot(client *MetricsClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		snapshot, err := client.Snapshot(ctx)
		if err != nil {
			return errMsg(err)
		}

		return metricsMsg(snapshot)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchSnapshot(m.client)
		}

	case tickMsg:
		// Auto-refresh triggered
		return m, tea.Batch(
			tick(m.interval),
			fetchSnapshot(m.client),
		)

	case metricsMsg:
		// Metrics successfully fetched - update with history
		newMetrics := MetricsSnapshot(msg)

		// Preserve historical data and update ring buffers
		newMetrics.RequestRateHistory = appendToHistory(m.metrics.RequestRateHistory, newMetrics.RequestRate)
		newMetrics.LatencyHistory = appendToHistory(m.metrics.LatencyHistory, newMetrics.LatencyP95*1000) // Convert to ms
		newMetrics.ElementsHistory = appendToHistory(m.metrics.ElementsHistory, float64(newMetrics.Elements))
		newMetrics.MemoryHistory = appendToHistory(m.metrics.MemoryHistory, float64(newMetrics.MemoryBytes)/(1<<20))

		// Update peaks
		newMetrics.RequestRatePeak = m.metrics.RequestRatePeak
		if newMetrics.RequestRate > newMetrics.RequestRatePeak {
			newMetrics.RequestRatePeak = newMetrics.RequestRate
		}
		newMetrics.MemoryMaxBytes = m.metrics.MemoryMaxBytes

		m.metrics = newMetrics
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		// Error occurred
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	// Display error state if error exists
	if m.err != nil {
		return m.renderError()
	}

	return m.renderDashboard()
}

// renderError renders the error view
func (m Model) renderError() string {
	header := headerStyle.Render("mepd Coordination Dashboard")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot connect to mepd") + "\n"
	content += "\n"
	content += dimStyle.Render("URL: ") + valueStyle.Render(m.daemonURL) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure:") + "\n"
	content += dimStyle.Render("  1. the daemon is running: mepd --config mepd.yaml") + "\n"
	content += dimStyle.Render("  2. the HTTP API is reachable at the URL above") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	box := containerStyle.Render(header + "\n" + content)
	return box
}

// renderDashboard renders the main dashboard view with sparklines and progress bars
func (m Model) renderDashboard() string {
	var content string

	// Header with status badge
	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}
	uptimeStr := FormatUptime(m.metrics.Uptime)
	latencyMS := m.metrics.LatencyP95 * 1000

	header := headerStyle.Render(" mepd Monitor ")
	statusBadge := getStatusBadge(m.metrics.Status, latencyMS)
	headerLine := fmt.Sprintf("%s   %s   %s   %s",
		statusBadge,
		dimStyle.Render("Uptime:"),
		valueStyle.Render(uptimeStr),
		dimStyle.Render(lastUpdateStr))

	content += header + "\n"
	content += headerLine + "\n"

	// Coordination API section with sparklines and progress
	content += "\n" + sectionStyle.Render("┃ Coordination API") + "\n"

	// Rate with sparkline
	rateSparkline := createSparkline(m.metrics.RequestRateHistory)
	rateBadge := getLatencyBadge(latencyMS)
	content += labelStyle.Render("  Rate: ") +
		valueStyle.Render(FormatRate(m.metrics.RequestRate)) +
		" " + rateBadge +
		"   " + rateSparkline + "\n"

	// Latency with sparkline
	latencySparkline := createSparkline(m.metrics.LatencyHistory)
	content += labelStyle.Render("  Latency (p95): ") +
		valueStyle.Render(FormatLatency(m.metrics.LatencyP95)) +
		" " + rateBadge +
		"   " + latencySparkline + "\n"

	// Request rate progress bar
	ratePercent := 0.0
	if m.metrics.RequestRatePeak > 0 {
		ratePercent = m.metrics.RequestRate / m.metrics.RequestRatePeak
		if ratePercent > 1.0 {
			ratePercent = 1.0
		}
	}
	content += labelStyle.Render("  Load: ") +
		m.requestProgress.ViewAs(ratePercent) +
		" " + dimStyle.Render(fmt.Sprintf("%.0f%%", ratePercent*100)) + "\n"

	// In-flight requests
	content += labelStyle.Render("  In flight: ") +
		valueStyle.Render(fmt.Sprintf("%d", m.metrics.ActiveRequests)) + "\n"

	// Model graph section
	content += "\n" + sectionStyle.Render("┃ Model Graph") + "\n"

	// Element count with sparkline
	elementsSparkline := createSparkline(m.metrics.ElementsHistory)
	content += labelStyle.Render("  Elements: ") +
		valueStyle.Render(FormatCount(m.metrics.Elements)) +
		"           " + elementsSparkline + "\n"

	// Hangers and daemon version
	content += labelStyle.Render("  Hangers: ") +
		valueStyle.Render(FormatCount(m.metrics.Hangers))
	if m.metrics.Version != "" {
		content += "  " +
			labelStyle.Render("Version: ") +
			valueStyle.Render(m.metrics.Version)
	}
	content += "\n"

	// System section with memory progress
	content += "\n" + sectionStyle.Render("┃ System") + "\n"

	// Memory with progress bar
	memoryPercent := 0.0
	if m.metrics.MemoryMaxBytes > 0 {
		memoryPercent = float64(m.metrics.MemoryBytes) / float64(m.metrics.MemoryMaxBytes)
		if memoryPercent > 1.0 {
			memoryPercent = 1.0
		}
	}
	content += labelStyle.Render("  Memory: ") +
		valueStyle.Render(FormatMemory(m.metrics.MemoryBytes)) +
		" " + m.memoryProgress.ViewAs(memoryPercent) +
		" " + dimStyle.Render(fmt.Sprintf("%.1f%%", memoryPercent*100)) + "\n"

	// Goroutines
	content += labelStyle.Render("  Goroutines: ") +
		valueStyle.Render(fmt.Sprintf("%d", m.metrics.Goroutines)) + "\n"

	// Footer with keyboard shortcuts
	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	// Wrap in container
	return containerStyle.Render(content)
}
