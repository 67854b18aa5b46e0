package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// initializeLogging is the root PersistentPreRunE hook. It creates the XDG
// directories, loads the configuration and starts logging.
func initializeLogging(_ *cobra.Command, _ []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir(), config.CacheDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	cfg, err := config.LoadViper(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	current.cfg = cfg

	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		Rotation:     parseRotationConfig(cfg.Logging.Rotation),
		Components:   cfg.Logging.Components,
		ConsoleLevel: cfg.Logging.ConsoleLevel,
	}
	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	printVerbose("config loaded, database %s", cfg.Database.Path)
	return nil
}

// parseRotationConfig converts the config file's rotation section. An empty
// or invalid max_size keeps the 10MB default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.DefaultRotationConfig()
	if rc.MaxSize != "" {
		if size, err := types.ParseSize(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = size
		}
	}
	out.MaxAge = rc.MaxAge
	out.MaxBackups = rc.MaxBackups
	out.Daily = rc.Daily
	return out
}

// shutdown releases what the command opened.
func shutdown() {
	current.close()
	_ = logging.Close()
}
