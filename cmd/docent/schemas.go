package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/internal/output"
	"github.com/docentlabs/docent/internal/schema"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Inspect the schema catalog",
}

type schemaListing struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Parent      string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Depth       int    `json:"depth" yaml:"depth"`
	Fields      int    `json:"fields" yaml:"fields"`
	Description string `json:"description" yaml:"description"`
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every schema in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		listings := make([]schemaListing, 0, a.catalog.Len())
		for _, desc := range a.catalog.List() {
			listings = append(listings, schemaListing{
				Key:         desc.Key,
				Name:        desc.Name,
				Parent:      desc.Parent,
				Depth:       a.catalog.Depth(desc.Key),
				Fields:      len(desc.Fields),
				Description: desc.Description,
			})
		}
		return output.Print(listings)
	},
}

var schemasShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show the full definition of one schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		desc, ok := a.catalog.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown schema %q", args[0])
		}

		children := a.catalog.Children(desc.Key)
		childKeys := make([]string, 0, len(children))
		for _, c := range children {
			childKeys = append(childKeys, c.Key)
		}

		return output.Print(struct {
			Key         string         `json:"key" yaml:"key"`
			Name        string         `json:"name" yaml:"name"`
			Description string         `json:"description" yaml:"description"`
			Parent      string         `json:"parent,omitempty" yaml:"parent,omitempty"`
			Fields      []schema.Field `json:"fields" yaml:"fields"`
			Children    []string       `json:"children,omitempty" yaml:"children,omitempty"`
		}{desc.Key, desc.Name, desc.Description, desc.Parent, desc.Fields, childKeys})
	},
}

func init() {
	schemasCmd.AddCommand(schemasListCmd)
	schemasCmd.AddCommand(schemasShowCmd)
}
