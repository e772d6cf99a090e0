package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Shallow copy so the redaction never touches the live config.
		c := *cfg
		if c.Enrich.GoogleAPIKey != "" {
			c.Enrich.GoogleAPIKey = "[redacted]"
		}

		out, err := yaml.Marshal(&c)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
