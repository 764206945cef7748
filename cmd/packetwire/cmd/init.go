/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/packetwire/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file with a freshly generated API key.

The file goes to --config, or ~/.config/packetwire/config.yaml when omitted.
An existing file is left alone unless --force is given.

Examples:
  packetwire init
  packetwire init --config ./packetwire.yaml --data-dir ./data --print-key`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")
		printKey, _ := cmd.Flags().GetBool("print-key")

		path := cfgFile
		if path == "" {
			path = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(path) && !force {
			return errors.Newf("config already exists at %s, use --force to overwrite", path)
		}

		cfg, err := config.BootstrapConfig(path, dataDir)
		if err != nil {
			return err
		}

		cmd.Printf("Configuration written to %s\n", path)
		cmd.Printf("Archive directory: %s\n", cfg.Archive.DataDir)
		if printKey {
			cmd.Printf("API key: %s\n", cfg.Server.APIKey)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("data-dir", "", "Archive data directory (default: ./data)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
}
