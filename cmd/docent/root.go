package main

import (
	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/internal/output"
	"github.com/docentlabs/docent/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "docent",
	Short: "LLM-powered structured data extraction from documents",
	Long: `Docent extracts structured data from documents (PDFs, text files)
using LLM providers and a catalog of extraction schemas.

Features:
  - Schema catalog organized as a tree, extensible via YAML manifests
  - Automatic document classification against the catalog
  - Response caching keyed by request fingerprint
  - Batch extraction over directory trees`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docent/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "docent home directory (default: ~/.docent)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.SetFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(redisCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(initCmd)
}
