package main

import (
	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	schemaIn     inputFlags
	schemaFormat string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the feature/lane/frame descriptor of every column",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := schemaIn.open(cmd)
		if err != nil {
			return err
		}
		schema := c.Schema()

		out := cmd.OutOrStdout()
		switch schemaFormat {
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(schema); err != nil {
				return eris.Wrap(err, "schema: encode yaml")
			}
			return eris.Wrap(enc.Close(), "schema: flush yaml")
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(schema), "schema: encode json")
		default:
			return eris.Errorf("schema: unknown format %q (want yaml or json)", schemaFormat)
		}
	},
}

func init() {
	schemaIn.register(schemaCmd)
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "yaml", "yaml or json")
	rootCmd.AddCommand(schemaCmd)
}
