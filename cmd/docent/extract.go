package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/internal/output"
)

var (
	extractSchema    string
	extractProvider  string
	extractModel     string
	extractMaxTokens int
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract structured data from documents",
	Long: `Extract structured data from one or more documents.

With --schema, extraction targets the named catalog schema. Without it,
the document is classified against the catalog first and the selected
schema is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		parts, err := loadParts(args)
		if err != nil {
			return err
		}
		opts := a.extractOptions(extractProvider, extractModel, extractMaxTokens)

		if extractSchema != "" {
			result, err := a.service.Extract(ctx, parts, extractSchema, opts)
			if err != nil {
				return err
			}
			return output.Print(result)
		}

		result, err := a.service.Auto(ctx, parts, opts)
		if err != nil {
			return err
		}
		return output.Print(result)
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [files...]",
	Short: "Classify documents against the schema catalog",
	Long: `Classify one or more documents without extracting. Prints the
selection path through the catalog and the final schema.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		parts, err := loadParts(args)
		if err != nil {
			return err
		}
		opts := a.extractOptions(extractProvider, extractModel, 0)

		outcome, err := a.service.ClassifyOnly(ctx, parts, opts)
		if err != nil {
			return err
		}
		if outcome.Warning != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", outcome.Warning)
		}
		return output.Print(outcome)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractSchema, "schema", "s", "", "target schema key (omit to classify automatically)")
	extractCmd.Flags().StringVarP(&extractProvider, "provider", "p", "", "provider name (default from config)")
	extractCmd.Flags().StringVarP(&extractModel, "model", "m", "", "model override")
	extractCmd.Flags().IntVar(&extractMaxTokens, "max-tokens", 0, "extraction token budget override")

	classifyCmd.Flags().StringVarP(&extractProvider, "provider", "p", "", "provider name (default from config)")
	classifyCmd.Flags().StringVarP(&extractModel, "model", "m", "", "model override")
}
