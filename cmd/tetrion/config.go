package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying the config file, .env,
TETRION_* environment variables and global flags, as YAML.

The output is a valid config file:
  tetrion config > ~/.tetrion/configs/tetrion.yaml`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func runConfig(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		fatal("%v", err)
	}
	if err := enc.Close(); err != nil {
		fatal("%v", err)
	}
}
