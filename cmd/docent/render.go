package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/internal/render"
)

var renderSchema string

var renderCmd = &cobra.Command{
	Use:   "render [result.json]",
	Short: "Render an extraction result as Markdown",
	Long: `Render a previously extracted JSON result as Markdown. The input
may be a full extraction result (with schema and value) or a bare
instance, in which case --schema is required.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		schemaKey := renderSchema
		var instance map[string]any

		// Full results carry their schema; bare instances need --schema.
		var result struct {
			Schema string          `json:"schema"`
			Value  json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("input is not valid JSON: %w", err)
		}
		if result.Schema != "" && len(result.Value) > 0 {
			if schemaKey == "" {
				schemaKey = result.Schema
			}
			if err := json.Unmarshal(result.Value, &instance); err != nil {
				return fmt.Errorf("result value is not an object: %w", err)
			}
		} else {
			if schemaKey == "" {
				return fmt.Errorf("--schema is required for bare instances")
			}
			if err := json.Unmarshal(data, &instance); err != nil {
				return fmt.Errorf("input is not an object: %w", err)
			}
		}

		desc, ok := a.catalog.Get(schemaKey)
		if !ok {
			return fmt.Errorf("unknown schema %q", schemaKey)
		}

		fmt.Fprint(cmd.OutOrStdout(), render.Markdown(desc, instance, a.catalog))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderSchema, "schema", "s", "", "schema key for bare instances")
}
