/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/packetwire/pkg/config"
	"github.com/ssargent/packetwire/pkg/di"
	"github.com/ssargent/packetwire/pkg/logging"
)

var (
	cfgFile   string
	logLevel  string
	container *di.Container
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "packetwire",
	Short: "packetwire - compressed, checksummed packet framing",
	Long: `packetwire builds, encodes and decodes schema 1 packets: a kind tag, an
optional reaction, a compressed payload and a CRC-32 of the compressed bytes.

It can also archive encoded packets locally and serve the codec over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		container = di.NewContainer(cfg, logging.New(cfg.Logging, cmd.ErrOrStderr()))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	closeContainer()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: ~/.config/packetwire/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

// loadConfig reads the config file at path, or the default location when path
// is empty. A missing file yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if !config.ConfigExists(path) {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

func closeContainer() {
	if container == nil {
		return
	}
	if err := container.Close(); err != nil {
		logger := container.Logger()
		logger.Error().Err(err).Msg("failed to close archive")
	}
	container = nil
}
