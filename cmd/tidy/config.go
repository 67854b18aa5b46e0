package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage tidy configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/tidy/config.yaml (if set)
  2. ~/.config/tidy/config.yaml

Environment variables can override config file settings using the TIDY_ prefix:
  TIDY_DATABASE_PATH=/tmp/tidy.db
  TIDY_OUTPUT_FORMAT=json
  TIDY_LARGE_FILE_MB=500`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd, configEditCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// schemaVersion describes the migration state of the configured database.
func schemaVersion() string {
	s, err := current.openStore()
	if err != nil {
		return "unavailable: " + err.Error()
	}
	version, dirty, err := s.SchemaVersion()
	if err != nil {
		return "unavailable: " + err.Error()
	}
	if dirty {
		return strconv.FormatUint(uint64(version), 10) + " (dirty)"
	}
	return strconv.FormatUint(uint64(version), 10)
}

func configPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// runConfigShow displays the effective configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg := current.config()

	title := "Config file: (using defaults, no file found)"
	if used := viper.ConfigFileUsed(); used != "" {
		title = "Config file: " + used
	}
	r := &output.Report{Title: title, Columns: []string{"Key", "Value"}, Data: cfg}
	r.AddRow("database.path", cfg.Database.Path)
	if fsutil.Exists(cfg.Database.Path) {
		r.AddRow("database.schema_version", schemaVersion())
	}
	r.AddRow("cache.enabled", strconv.FormatBool(cfg.Cache.Enabled))
	r.AddRow("cache.path", cfg.Cache.Path)
	r.AddRow("backup.root", cfg.Backup.Root)
	r.AddRow("watch.buffer", strconv.Itoa(cfg.Watch.Buffer))
	r.AddRow("watch.poll", cfg.Watch.Poll.String())
	r.AddRow("output.format", cfg.Output.Format)
	r.AddRow("large_file_mb", strconv.Itoa(cfg.LargeFileMB))
	r.AddRow("tree_depth", strconv.Itoa(cfg.TreeDepth))
	r.AddRow("hash_workers", strconv.Itoa(cfg.HashWorkers))
	r.AddRow("logging.level", cfg.Logging.Level)
	r.AddRow("logging.console_level", cfg.Logging.ConsoleLevel)
	r.AddRow("logging.path", cfg.Logging.Path)
	r.AddRow("logging.rotation.max_size", cfg.Logging.Rotation.MaxSize)

	for _, name := range []string{"TIDY_DATABASE_PATH", "TIDY_OUTPUT_FORMAT", "TIDY_BACKUP_ROOT",
		"TIDY_CACHE_ENABLED", "TIDY_LARGE_FILE_MB", "TIDY_LOGGING_LEVEL"} {
		if val := os.Getenv(name); val != "" {
			r.AddSummary(name, val)
		}
	}
	return render(cmd, r)
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.CommandContext(cmd.Context(), editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		printInfo(cmd, "Config file already exists: %s", path)
		printInfo(cmd, "Use 'tidy config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	printInfo(cmd, "Created default config file: %s", path)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if _, err := os.Stat(path); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
