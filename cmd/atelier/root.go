package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/cli"
	"github.com/aretw0/atelier/internal/config"
	"github.com/aretw0/atelier/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Atelier is the session backend of a 3D studio",
	Long: `Atelier keeps the edit history of 3D studio sessions (undo/redo) and
simulates their generation and export jobs. Sessions can be driven from
the command line, over HTTP or by agents through MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Project directory holding .atelier/")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./atelier.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// openStudio builds a Studio from the command flags. Offline commands pass
// persistent=true, which swaps the in-memory store for the file store so
// sessions outlive the process.
func openStudio(cmd *cobra.Command, persistent bool, reg prometheus.Registerer) (*atelier.Studio, func(), config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, cfg, err
	}
	if persistent {
		if cfg.Store.Type == "" || cfg.Store.Type == config.StoreMemory {
			cfg.Store.Type = config.StoreFile
		}
		// One-shot commands only log problems unless asked otherwise.
		if !cmd.Flags().Changed("log-level") && cfg.LogLevel == config.Default().LogLevel {
			cfg.LogLevel = "warn"
		}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, cfg, err
	}

	dir, _ := cmd.Flags().GetString("dir")
	studio, backend, err := cli.NewStudio(cfg, cli.StudioOptions{Dir: dir, Logger: logger, Registerer: reg})
	if err != nil {
		return nil, nil, cfg, err
	}

	closeFn := func() {
		if err := studio.Close(); err != nil {
			logger.Error("Failed to close studio", "err", err)
		}
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close store", "err", err)
		}
	}
	return studio, closeFn, cfg, nil
}
