package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railsight/sidenum/internal/config"
)

// configCmd prints the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the effective configuration as YAML, after merging defaults,
the config file, environment variables and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dump, err := GetConfig().Dump()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), dump)
		return nil
	},
}

// configInitCmd writes a default configuration file.
var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := ""
		if len(args) > 0 {
			filename = args[0]
		}
		if filename == "" {
			filename = config.ConfigFileName + ".yaml"
		}
		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filename)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
