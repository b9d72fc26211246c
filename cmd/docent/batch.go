package main

import (
	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/internal/batch"
	"github.com/docentlabs/docent/internal/output"
)

var (
	batchSchema    string
	batchOutputDir string
	batchWorkers   int
)

var batchCmd = &cobra.Command{
	Use:   "batch [directory]",
	Short: "Extract from every document under a directory",
	Long: `Crawl a directory tree and run extraction over every supported
document (.pdf, .txt, .md), writing one JSON result per input file.

With --schema every document targets the named schema; without it each
document is classified first. Failures are isolated per file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		opts := a.extractOptions(extractProvider, extractModel, 0)
		cfg := a.batchConfig(args[0], batchOutputDir, batchSchema, batchWorkers, opts)

		runner := batch.NewRunner(a.service, a.logger)
		summary, err := runner.Run(ctx, cfg)
		if err != nil {
			return err
		}
		return output.Print(summary)
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchSchema, "schema", "s", "", "target schema key (omit to classify per document)")
	batchCmd.Flags().StringVar(&batchOutputDir, "out", "", "output directory (default: ~/.docent/results)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "concurrent workers (default from config)")
	batchCmd.Flags().StringVarP(&extractProvider, "provider", "p", "", "provider name (default from config)")
	batchCmd.Flags().StringVarP(&extractModel, "model", "m", "", "model override")
}
