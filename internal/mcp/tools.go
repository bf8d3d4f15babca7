package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

// registerTools registers all MCP tools with the server. Handlers are named
// methods so they can be exercised directly in tests.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "route_element",
		Description: "Route a duct, pipe, or cable tray between two points, honoring clearance and bend constraints",
	}, s.routeElement)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "resolve_collisions",
		Description: "Detect collisions on a level and resolve them by adjusting the yielding elements",
	}, s.resolveCollisions)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "generate_hangers",
		Description: "Place support hangers along a routed element at code-mandated intervals",
	}, s.generateHangers)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "generate_integrated_hangers",
		Description: "Place shared trapeze hangers supporting multiple parallel elements",
	}, s.generateIntegratedHangers)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "validate_connection",
		Description: "Check whether a semantic relationship between two element types is allowed",
	}, s.validateConnection)
}

// ===== ROUTING =====

type routeElementInput struct {
	Start      [2]float64 `json:"start" jsonschema:"required,Start point in plan coordinates (meters)"`
	End        [2]float64 `json:"end" jsonschema:"required,End point in plan coordinates (meters)"`
	Kind       string     `json:"kind" jsonschema:"required,Element kind (duct pipe or cable_tray)"`
	System     string     `json:"system,omitempty" jsonschema:"System classification (e.g. supply_air gravity_drainage)"`
	DiameterMM float64    `json:"diameter_mm,omitempty" jsonschema:"Diameter in millimeters for round elements"`
	WidthMM    float64    `json:"width_mm,omitempty" jsonschema:"Width in millimeters for rectangular elements"`
	HeightMM   float64    `json:"height_mm,omitempty" jsonschema:"Height in millimeters for rectangular elements"`
	Level      string     `json:"level,omitempty" jsonschema:"Building level used for obstacle lookup"`
}

type routeElementOutput struct {
	PathPoints [][2]float64 `json:"path_points" jsonschema:"Routed path as plan coordinates"`
	BendRadius float64      `json:"bend_radius" jsonschema:"Minimum bend radius applied (meters)"`
	MinWidth   float64      `json:"min_width" jsonschema:"Clearance corridor width (meters)"`
	Pattern    string       `json:"pattern" jsonschema:"Routing pattern used"`
	Warnings   []string     `json:"warnings,omitempty" jsonschema:"Non-fatal routing warnings"`
}

func (s *Server) routeElement(ctx context.Context, req *mcp.CallToolRequest, args routeElementInput) (*mcp.CallToolResult, routeElementOutput, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "route_element")
	var toolErr error
	defer func() {
		s.metrics.DecrementActive(ctx, "route_element")
		s.metrics.RecordInvocation(ctx, "route_element", time.Since(start), toolErr)
	}()

	res, err := s.coord.Route(ctx, apiv1.RouteRequest{
		Start:      args.Start,
		End:        args.End,
		Kind:       args.Kind,
		System:     args.System,
		DiameterMM: args.DiameterMM,
		WidthMM:    args.WidthMM,
		HeightMM:   args.HeightMM,
		Level:      args.Level,
	})
	if err != nil {
		toolErr = fmt.Errorf("routing failed: %w", err)
		return nil, routeElementOutput{}, toolErr
	}

	output := routeElementOutput{
		PathPoints: res.PathPoints,
		BendRadius: res.Constraints.BendRadius,
		MinWidth:   res.Constraints.MinWidth,
		Pattern:    res.Constraints.Pattern,
		Warnings:   res.Warnings,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Routed %s through %d points", args.Kind, len(output.PathPoints))},
		},
	}, output, nil
}

// ===== COORDINATION =====

type resolveCollisionsInput struct {
	Level             string   `json:"level" jsonschema:"required,Building level to coordinate"`
	ElementIDs        []string `json:"element_ids,omitempty" jsonschema:"Restrict coordination to these elements"`
	IncludeStructures *bool    `json:"include_structures,omitempty" jsonschema:"Check against beams and columns (default: true)"`
	GenerateHangers   *bool    `json:"generate_hangers,omitempty" jsonschema:"Regenerate hangers for adjusted elements (default: true)"`
}

type resolveCollisionsOutput struct {
	AdjustedElements   []apiv1.AdjustedElement `json:"adjusted_elements" jsonschema:"Elements moved to clear collisions"`
	CollisionsResolved int                     `json:"collisions_resolved" jsonschema:"Number of collisions resolved"`
	Warnings           []string                `json:"warnings,omitempty" jsonschema:"Collisions that could not be resolved"`
}

func (s *Server) resolveCollisions(ctx context.Context, req *mcp.CallToolRequest, args resolveCollisionsInput) (*mcp.CallToolResult, resolveCollisionsOutput, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "resolve_collisions")
	var toolErr error
	defer func() {
		s.metrics.DecrementActive(ctx, "resolve_collisions")
		s.metrics.RecordInvocation(ctx, "resolve_collisions", time.Since(start), toolErr)
	}()

	res, err := s.coord.ResolveCollisions(ctx, apiv1.CoordinateRequest{
		Level:             args.Level,
		ElementIDs:        args.ElementIDs,
		IncludeStructures: args.IncludeStructures,
		GenerateHangers:   args.GenerateHangers,
	})
	if err != nil {
		toolErr = fmt.Errorf("coordination failed: %w", err)
		return nil, resolveCollisionsOutput{}, toolErr
	}

	output := resolveCollisionsOutput{
		AdjustedElements:   res.AdjustedElements,
		CollisionsResolved: res.CollisionsResolved,
		Warnings:           res.Warnings,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Resolved %d collisions, adjusted %d elements", output.CollisionsResolved, len(output.AdjustedElements))},
		},
	}, output, nil
}

// ===== HANGERS =====

type generateHangersInput struct {
	ElementID    string `json:"element_id" jsonschema:"required,Element to support"`
	SeismicGrade string `json:"seismic_grade,omitempty" jsonschema:"Seismic grade tightening the spacing (none standard or high)"`
}

type generateHangersOutput struct {
	Hangers  []apiv1.HangerResult `json:"hangers" jsonschema:"Placed hangers"`
	Count    int                  `json:"count" jsonschema:"Number of hangers placed"`
	Warnings []string             `json:"warnings,omitempty" jsonschema:"Placement warnings"`
}

func (s *Server) generateHangers(ctx context.Context, req *mcp.CallToolRequest, args generateHangersInput) (*mcp.CallToolResult, generateHangersOutput, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "generate_hangers")
	var toolErr error
	defer func() {
		s.metrics.DecrementActive(ctx, "generate_hangers")
		s.metrics.RecordInvocation(ctx, "generate_hangers", time.Since(start), toolErr)
	}()

	res, err := s.coord.PlaceHangers(ctx, apiv1.HangersRequest{
		ElementID:    args.ElementID,
		SeismicGrade: args.SeismicGrade,
	})
	if err != nil {
		toolErr = fmt.Errorf("hanger placement failed: %w", err)
		return nil, generateHangersOutput{}, toolErr
	}

	output := generateHangersOutput{
		Hangers:  res.Hangers,
		Count:    len(res.Hangers),
		Warnings: res.Warnings,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Placed %d hangers for %s", output.Count, args.ElementID)},
		},
	}, output, nil
}

type generateIntegratedHangersInput struct {
	ElementIDs   []string `json:"element_ids" jsonschema:"required,Parallel elements to support together"`
	SeismicGrade string   `json:"seismic_grade,omitempty" jsonschema:"Seismic grade tightening the spacing (none standard or high)"`
}

func (s *Server) generateIntegratedHangers(ctx context.Context, req *mcp.CallToolRequest, args generateIntegratedHangersInput) (*mcp.CallToolResult, generateHangersOutput, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "generate_integrated_hangers")
	var toolErr error
	defer func() {
		s.metrics.DecrementActive(ctx, "generate_integrated_hangers")
		s.metrics.RecordInvocation(ctx, "generate_integrated_hangers", time.Since(start), toolErr)
	}()

	res, err := s.coord.PlaceIntegratedHangers(ctx, apiv1.IntegratedHangersRequest{
		ElementIDs:   args.ElementIDs,
		SeismicGrade: args.SeismicGrade,
	})
	if err != nil {
		toolErr = fmt.Errorf("integrated hanger placement failed: %w", err)
		return nil, generateHangersOutput{}, toolErr
	}

	output := generateHangersOutput{
		Hangers:  res.Hangers,
		Count:    len(res.Hangers),
		Warnings: res.Warnings,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Placed %d shared hangers for %d elements", output.Count, len(args.ElementIDs))},
		},
	}, output, nil
}

// ===== SEMANTICS =====

type validateConnectionInput struct {
	SourceType   string `json:"source_type" jsonschema:"required,Source element type (e.g. duct)"`
	TargetType   string `json:"target_type" jsonschema:"required,Target element type (e.g. diffuser)"`
	Relationship string `json:"relationship" jsonschema:"required,Relationship to validate (e.g. supplies connects_to)"`
}

type validateConnectionOutput struct {
	Valid                bool     `json:"valid" jsonschema:"Whether the relationship is allowed"`
	AllowedRelationships []string `json:"allowed_relationships,omitempty" jsonschema:"Relationships permitted for this type pair"`
	Suggestion           string   `json:"suggestion,omitempty" jsonschema:"Suggested correction for invalid relationships"`
}

func (s *Server) validateConnection(ctx context.Context, req *mcp.CallToolRequest, args validateConnectionInput) (*mcp.CallToolResult, validateConnectionOutput, error) {
	start := time.Now()
	s.metrics.IncrementActive(ctx, "validate_connection")
	var toolErr error
	defer func() {
		s.metrics.DecrementActive(ctx, "validate_connection")
		s.metrics.RecordInvocation(ctx, "validate_connection", time.Since(start), toolErr)
	}()

	res, err := s.coord.ValidateConnection(ctx, apiv1.ConnectionCheckRequest{
		SourceType:   args.SourceType,
		TargetType:   args.TargetType,
		Relationship: args.Relationship,
	})
	if err != nil {
		toolErr = fmt.Errorf("connection check failed: %w", err)
		return nil, validateConnectionOutput{}, toolErr
	}

	output := validateConnectionOutput{
		Valid:                res.Valid,
		AllowedRelationships: res.AllowedRelationships,
		Suggestion:           res.Suggestion,
	}

	text := "Connection valid"
	if !output.Valid {
		text = "Connection invalid"
		if output.Suggestion != "" {
			text = fmt.Sprintf("Connection invalid: %s", output.Suggestion)
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, output, nil
}
