// Package main implements the mepctl CLI for manual operations against the
// mepd coordination daemon.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the mepd HTTP server
	serverURL string
	// outputAsJSON switches machine-readable output on
	outputAsJSON bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mepctl",
	Short: "CLI for mepd coordination operations",
	Long: `mepctl is a command-line interface for the mepd coordination daemon.
It routes elements, detects and resolves collisions, places hangers, and
checks connection semantics against a running daemon.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "mepd server URL")
	rootCmd.PersistentFlags().BoolVar(&outputAsJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statusCmd)
}

// healthCmd checks daemon health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check mepd daemon health",
	Long: `Check the health status of the mepd daemon.

Examples:
  # Check health
  mepctl health

  # Check health on a different server
  mepctl health --server http://localhost:8080`,
	RunE: runHealth,
}

// statusCmd reports daemon status and model-graph counts
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and model counts",
	Long: `Show the daemon version and the element and hanger counts of the
loaded model graph.

Examples:
  # Show status
  mepctl status

  # Machine readable
  mepctl status --json`,
	RunE: runStatus,
}

// HealthResponse matches internal/http/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse matches internal/http/types.go StatusResponse
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts matches internal/http/types.go StatusCounts
type StatusCounts struct {
	Elements int `json:"elements"`
	Hangers  int `json:"hangers"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	var healthResp HealthResponse
	if err := getJSON("/health", &healthResp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to reach %s: %v\n", serverURL, err)
		return err
	}

	if outputAsJSON {
		return outputJSON(healthResp)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}

// runStatus handles the status command
func runStatus(cmd *cobra.Command, args []string) error {
	var statusResp StatusResponse
	if err := getJSON("/api/v1/status", &statusResp); err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(statusResp)
	}

	fmt.Printf("Status: %s\n", statusResp.Status)
	if statusResp.Version != "" {
		fmt.Printf("Version: %s\n", statusResp.Version)
	}
	fmt.Printf("Elements: %s\n", formatCount(statusResp.Counts.Elements))
	fmt.Printf("Hangers: %s\n", formatCount(statusResp.Counts.Hangers))

	return nil
}

// Helper functions

// getJSON performs a GET against the daemon and decodes the JSON response.
func getJSON(path string, out interface{}) error {
	url := serverURL + path

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// postJSON performs a POST against the daemon and decodes the JSON response.
func postJSON(path string, reqBody, out interface{}) error {
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := serverURL + path
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatCount renders a store count, where -1 means the store could not
// report it.
func formatCount(n int) string {
	if n < 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d", n)
}

// formatPoint3 renders a 3D coordinate in meters.
func formatPoint3(p [3]float64) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p[0], p[1], p[2])
}

// printWarnings writes warnings to stderr so piped output stays clean.
func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}
