package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateCmd checks a semantic connection
var validateCmd = &cobra.Command{
	Use:   "validate <source-type> <relationship> <target-type>",
	Short: "Check whether a connection between two element types is valid",
	Long: `Check whether the ontology allows a relationship between two element
types, and suggest valid relationships when it does not.

Examples:
  # A duct supplying a diffuser
  mepctl validate duct supplies diffuser

  # An invalid pairing gets a suggestion
  mepctl validate duct connects_to diffuser

  # Machine readable
  mepctl validate duct supplies diffuser --json`,
	Args: cobra.ExactArgs(3),
	RunE: runValidate,
}

// runValidate handles the validate command
func runValidate(cmd *cobra.Command, args []string) error {
	req := apiv1.ConnectionCheckRequest{
		SourceType:   args[0],
		Relationship: args[1],
		TargetType:   args[2],
	}

	var res apiv1.ConnectionCheckResult
	if err := postJSON("/api/v1/semantics/validate-connection", req, &res); err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(res)
	}

	if res.Valid {
		fmt.Println("Connection valid")
		return nil
	}

	fmt.Println("Connection invalid")
	if len(res.AllowedRelationships) > 0 {
		fmt.Printf("Allowed relationships: %s\n", strings.Join(res.AllowedRelationships, ", "))
	}
	if res.Suggestion != "" {
		fmt.Printf("Suggestion: %s\n", res.Suggestion)
	}

	return nil
}
