package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/mwcs-module-service/pkg/enumerate"
)

var (
	config = enumerate.NewConfig()

	Root = &cobra.Command{
		Use:           "mwcs",
		Short:         "Enumerate disjoint maximum-weight connected modules of node-weighted graphs",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	configFile = Root.PersistentFlags().String("config", "", "Configuration file (yaml, json or toml)")
	loglevel   = Root.PersistentFlags().String("loglevel", "info", "Console log level")
)

func init() {
	Root.PersistentPreRunE = loadConfiguration
	Root.AddCommand(enumerateCmd, reduceCmd, serveCmd)
}

// loadConfiguration layers the config file and explicitly set flags over
// the defaults, then installs the logger
func loadConfiguration(cmd *cobra.Command, args []string) error {
	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			return fmt.Errorf("failed to load config %s: %w", *configFile, err)
		}
	}
	config.BindFlags(cmd.Flags())

	log.Logger = config.CreateLogger()
	if *configFile != "" {
		log.Debug().Str("file", *configFile).Msg("Configuration loaded")
	}
	return nil
}

func main() {
	if err := Root.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
