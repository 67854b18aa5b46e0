// Package config provides configuration management for tidy.
package config

import "time"

// Default configuration values for tidy.
const (
	// DefaultOutputFormat is the CLI output format.
	DefaultOutputFormat = "pretty"

	// DefaultLargeFileMB is the large-file threshold in MiB.
	DefaultLargeFileMB = 100

	// DefaultTreeDepth is the folder tree depth shown by default.
	DefaultTreeDepth = 3

	// DefaultWatchBuffer is the capacity of the watcher event channel.
	DefaultWatchBuffer = 100

	// DefaultWatchPoll bounds how long the watcher loop blocks before
	// checking for a stop signal.
	DefaultWatchPoll = 100 * time.Millisecond

	// DefaultHistoryLimit is the number of history entries listed by default.
	DefaultHistoryLimit = 50
)
