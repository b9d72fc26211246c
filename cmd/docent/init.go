package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/internal/config"
	"github.com/docentlabs/docent/internal/home"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the docent home directory and a default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() {
			fmt.Fprintf(cmd.OutOrStdout(), "config already exists at %s\n", h.ConfigPath())
			return nil
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", h.ConfigPath())
		return nil
	},
}
