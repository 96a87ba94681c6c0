// Command falcon serves the Falcon 9 landing prediction dashboard and
// its supporting data tools.
package main

import (
	"os"
	"strings"

	"falcon-dash/internal/cfg"
	"falcon-dash/internal/common"
	"falcon-dash/internal/ml"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	settings   cfg.Settings
)

var rootCmd = &cobra.Command{
	Use:           "falcon",
	Short:         "Falcon 9 first stage landing prediction dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := os.Setenv(common.EnvConfigFile, configFile); err != nil {
				return err
			}
		}

		var err error
		settings, err = cfg.Load()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			settings.LogLevel = strings.ToLower(logLevel)
		}
		setupLogging(settings.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides "+common.EnvConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", common.DefaultLogLevel, "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd, fetchCmd, predictCmd, evaluateCmd)
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func artifactPaths(s cfg.Settings) ml.ArtifactPaths {
	return ml.ArtifactPaths{
		ModelPath:        s.ModelPath,
		ScalerPath:       s.ScalerPath,
		TrainingDataPath: s.TrainingDataPath,
		ONNXLibraryPath:  s.ONNXLibraryPath,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
