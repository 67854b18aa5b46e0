package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/tidy/pkg/tidy/output"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "tidy",
		Short: "Organize, deduplicate and clean up folders",
		Long: `Tidy sorts the files of a folder into category folders, finds duplicates,
compares and merges trees, and keeps an undoable history of every change.

Examples:
  tidy organize ~/Desktop --dry-run   # Preview rule-driven organization
  tidy organize ~/Desktop             # Apply it
  tidy dupes ~/Pictures               # Find duplicate files
  tidy history                        # Recent operations
  tidy history undo 42                # Reverse operation 42`,
		SilenceUsage:      true,
		PersistentPreRunE: initializeLogging,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/tidy/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format ("+joinFormats()+")")
	rootCmd.PersistentFlags().String("db", "", "database path (default: $XDG_DATA_HOME/tidy/tidy.db)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
}

// Execute runs the root command and releases what it opened, also when the
// command fails.
func Execute(ctx context.Context) error {
	defer shutdown()
	return rootCmd.ExecuteContext(ctx)
}

func joinFormats() string {
	return strings.Join(output.Available(), ", ")
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to the command's output unless quiet.
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}
}
