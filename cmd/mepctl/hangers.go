package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

var (
	// hangers command flags
	hangersGrade string
)

func init() {
	rootCmd.AddCommand(hangersCmd)

	hangersCmd.Flags().StringVar(&hangersGrade, "grade", "", "Seismic grade: none, low, medium or high")
}

// hangersCmd places hangers along one element or across a parallel group
var hangersCmd = &cobra.Command{
	Use:   "hangers <element-id> [<element-id>...]",
	Short: "Place hangers along elements",
	Long: `Place code-compliant hangers. With a single element id, hangers are
placed along that element at the interval its standard requires. With
several ids, shared trapeze hangers are placed across the parallel group.

Examples:
  # Hangers along one pipe
  mepctl hangers pipe-1

  # Tighter spacing for a seismic zone
  mepctl hangers pipe-1 --grade high

  # Shared trapeze hangers across a parallel run
  mepctl hangers pipe-1 pipe-2 duct-3

  # Machine readable
  mepctl hangers pipe-1 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHangers,
}

// runHangers handles the hangers command
func runHangers(cmd *cobra.Command, args []string) error {
	var res apiv1.HangersResult

	if len(args) == 1 {
		req := apiv1.HangersRequest{
			ElementID:    args[0],
			SeismicGrade: hangersGrade,
		}
		if err := postJSON("/api/v1/hangers", req, &res); err != nil {
			return err
		}
	} else {
		req := apiv1.IntegratedHangersRequest{
			ElementIDs:   args,
			SeismicGrade: hangersGrade,
		}
		if err := postJSON("/api/v1/hangers/integrated", req, &res); err != nil {
			return err
		}
	}

	if outputAsJSON {
		return outputJSON(res)
	}

	fmt.Printf("Placed %d hangers\n", len(res.Hangers))
	if len(res.Hangers) == 0 {
		printWarnings(res.Warnings)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOSITION\tTYPE\tDETAIL\tINTERVAL\tSUPPORTS")
	for _, h := range res.Hangers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f m\t%s\n",
			h.ID,
			formatPoint3(h.Position),
			h.HangerType,
			h.DetailCode,
			h.SupportInterval,
			strings.Join(h.SupportedElementIDs, ","),
		)
	}
	w.Flush()
	printWarnings(res.Warnings)

	return nil
}
