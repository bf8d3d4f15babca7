package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

var (
	// route command flags
	routeFrom     string
	routeTo       string
	routeKind     string
	routeSystem   string
	routeDiameter float64
	routeWidth    float64
	routeHeight   float64
	routeLevel    string
)

func init() {
	rootCmd.AddCommand(routeCmd)

	routeCmd.Flags().StringVar(&routeFrom, "from", "", "Start point as x,y in meters (required)")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "End point as x,y in meters (required)")
	routeCmd.Flags().StringVar(&routeKind, "kind", "", "Element kind: duct, pipe or cable_tray (required)")
	routeCmd.Flags().StringVar(&routeSystem, "system", "", "System tag, e.g. supply_air or gravity_drainage")
	routeCmd.Flags().Float64Var(&routeDiameter, "diameter", 0, "Diameter in millimeters (round elements)")
	routeCmd.Flags().Float64Var(&routeWidth, "width", 0, "Width in millimeters (rectangular elements)")
	routeCmd.Flags().Float64Var(&routeHeight, "height", 0, "Height in millimeters (rectangular elements)")
	routeCmd.Flags().StringVar(&routeLevel, "level", "", "Building level to route on")
	_ = routeCmd.MarkFlagRequired("from")
	_ = routeCmd.MarkFlagRequired("to")
	_ = routeCmd.MarkFlagRequired("kind")
}

// routeCmd plans a constraint-compliant path
var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Plan a constraint-compliant path between two points",
	Long: `Plan a path between two plan-view points, applying the discipline
rules of the element kind and system.

Examples:
  # Route a rectangular duct
  mepctl route --from 0,0 --to 12,0 --kind duct --width 400 --height 200

  # Route a gravity drainage pipe (gets the double 45 pattern on offsets)
  mepctl route --from 0,0 --to 10,10 --kind pipe --system gravity_drainage --diameter 100

  # Machine readable
  mepctl route --from 0,0 --to 12,0 --kind duct --width 400 --height 200 --json`,
	RunE: runRoute,
}

// runRoute handles the route command
func runRoute(cmd *cobra.Command, args []string) error {
	start, err := parsePoint(routeFrom)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	end, err := parsePoint(routeTo)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	req := apiv1.RouteRequest{
		Start:      start,
		End:        end,
		Kind:       routeKind,
		System:     routeSystem,
		DiameterMM: routeDiameter,
		WidthMM:    routeWidth,
		HeightMM:   routeHeight,
		Level:      routeLevel,
	}

	var res apiv1.RouteResult
	if err := postJSON("/api/v1/route", req, &res); err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(res)
	}

	fmt.Printf("Path (%d points):\n", len(res.PathPoints))
	for _, p := range res.PathPoints {
		fmt.Printf("  (%.2f, %.2f)\n", p[0], p[1])
	}
	if res.Constraints.Pattern != "" {
		fmt.Printf("Pattern: %s\n", res.Constraints.Pattern)
	}
	if res.Constraints.BendRadius > 0 {
		fmt.Printf("Bend radius: %.2f m\n", res.Constraints.BendRadius)
	}
	if res.Constraints.MinWidth > 0 {
		fmt.Printf("Min width: %.2f m\n", res.Constraints.MinWidth)
	}
	printWarnings(res.Warnings)

	return nil
}

// parsePoint parses an "x,y" pair in meters.
func parsePoint(s string) ([2]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("expected x,y, got %q", s)
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("invalid x coordinate %q", parts[0])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("invalid y coordinate %q", parts[1])
	}

	return [2]float64{x, y}, nil
}
