package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/mepd/internal/monitor"
)

var (
	// monitor command flags
	monitorInterval time.Duration
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "Refresh interval")
}

// monitorCmd runs the live terminal dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard for a running mepd daemon",
	Long: `Run a live terminal dashboard showing coordination request rates,
latency, model-graph counts, and daemon memory, polled from the daemon's
status and metrics endpoints.

Keys: q quits, r forces a refresh.

Examples:
  # Watch the local daemon
  mepctl monitor

  # Slower refresh against a remote daemon
  mepctl monitor --server http://mep-host:9090 --interval 5s`,
	RunE: runMonitor,
}

// runMonitor handles the monitor command
func runMonitor(cmd *cobra.Command, args []string) error {
	model := monitor.NewModel(serverURL, monitorInterval)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}

	return nil
}
