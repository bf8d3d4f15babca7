package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

var (
	// collision command flags
	coordLevel        string
	coordElements     []string
	coordNoStructures bool
	coordNoHangers    bool
)

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(resolveCmd)

	detectCmd.Flags().StringVar(&coordLevel, "level", "", "Building level to scan (required)")
	detectCmd.Flags().StringSliceVar(&coordElements, "elements", nil, "Restrict the scan to these element ids")
	detectCmd.Flags().BoolVar(&coordNoStructures, "no-structures", false, "Skip structural elements")
	_ = detectCmd.MarkFlagRequired("level")

	resolveCmd.Flags().StringVar(&coordLevel, "level", "", "Building level to coordinate (required)")
	resolveCmd.Flags().StringSliceVar(&coordElements, "elements", nil, "Restrict coordination to these element ids")
	resolveCmd.Flags().BoolVar(&coordNoStructures, "no-structures", false, "Skip structural elements")
	resolveCmd.Flags().BoolVar(&coordNoHangers, "no-hangers", false, "Skip hanger regeneration for adjusted elements")
	_ = resolveCmd.MarkFlagRequired("level")
}

// detectCmd scans a level for collisions without changing anything
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect collisions at a building level",
	Long: `Scan a building level and report classified collision pairs without
modifying the model. Pairs are reported in resolution order: beam_column,
then structure, then mep.

Examples:
  # Scan level L1
  mepctl detect --level L1

  # Scan only specific elements
  mepctl detect --level L1 --elements duct-1,pipe-7

  # Machine readable
  mepctl detect --level L1 --json`,
	RunE: runDetect,
}

// resolveCmd detects and resolves collisions
var resolveCmd = &cobra.Command{
	Use:     "resolve",
	Aliases: []string{"coordinate"},
	Short:   "Detect and resolve collisions at a building level",
	Long: `Detect collisions at a building level and displace the yielding
elements. Adjusted routes are written back to the model store, and hangers
along adjusted elements are regenerated unless --no-hangers is set.

Examples:
  # Coordinate level L1
  mepctl resolve --level L1

  # Coordinate without hanger regeneration
  mepctl resolve --level L1 --no-hangers

  # Machine readable
  mepctl resolve --level L1 --json`,
	RunE: runResolve,
}

// runDetect handles the detect command
func runDetect(cmd *cobra.Command, args []string) error {
	req := apiv1.DetectRequest{
		Level:      coordLevel,
		ElementIDs: coordElements,
	}
	if coordNoStructures {
		include := false
		req.IncludeStructures = &include
	}

	var res apiv1.DetectResult
	if err := postJSON("/api/v1/collisions/detect", req, &res); err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(res)
	}

	if len(res.Collisions) == 0 {
		fmt.Println("No collisions found")
		printWarnings(res.Warnings)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ELEMENT A\tELEMENT B\tCLASS")
	for _, c := range res.Collisions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ElementA, c.ElementB, c.Class)
	}
	w.Flush()
	printWarnings(res.Warnings)

	return nil
}

// runResolve handles the resolve command
func runResolve(cmd *cobra.Command, args []string) error {
	req := apiv1.CoordinateRequest{
		Level:      coordLevel,
		ElementIDs: coordElements,
	}
	if coordNoStructures {
		include := false
		req.IncludeStructures = &include
	}
	if coordNoHangers {
		generate := false
		req.GenerateHangers = &generate
	}

	var res apiv1.CoordinationResult
	if err := postJSON("/api/v1/collisions/resolve", req, &res); err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(res)
	}

	fmt.Printf("Collisions resolved: %d\n", res.CollisionsResolved)
	if len(res.AdjustedElements) == 0 {
		fmt.Println("No elements adjusted")
		printWarnings(res.Warnings)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ELEMENT\tADJUSTMENT\tREASON")
	for _, a := range res.AdjustedElements {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.ElementID, a.AdjustmentType, a.AdjustmentReason)
	}
	w.Flush()
	printWarnings(res.Warnings)

	return nil
}
