package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var dumpOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the task configuration",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the effective configuration as YAML",
	Long: `Prints the built-in defaults overlaid with --config. The output is a
complete configuration file that can be edited and passed back with --config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if dumpOutput != "" {
			return cfg.Save(dumpOutput)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configDumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "write to this file instead of stdout")
	configCmd.AddCommand(configDumpCmd)
}
