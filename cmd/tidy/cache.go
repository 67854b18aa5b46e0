package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the fingerprint cache",
	Long: `Commands for managing the fingerprint cache.

The cache stores file fingerprints keyed by path, size and modification time
so that repeat duplicate scans skip unchanged files. It lives at cache.path
in the config (typically ~/.cache/tidy/fingerprints).`,
	RunE: runCacheStats,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, entry count, size on disk and last modified time.`,
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop entries for files that no longer exist",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

var cacheForgetCmd = &cobra.Command{
	Use:   "forget <path>...",
	Short: "Drop the cached fingerprints of specific files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCacheForget,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached data",
	Long:  `Removes the whole cache. The next duplicate scan hashes every candidate again.`,
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), cachePath())
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheForgetCmd, cacheClearCmd, cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func cachePath() string {
	return current.config().Cache.Path
}

// cacheStats is the machine-readable form of `cache stats`.
type cacheStats struct {
	Path     string    `json:"path" yaml:"path"`
	Enabled  bool      `json:"enabled" yaml:"enabled"`
	Entries  int       `json:"entries" yaml:"entries"`
	Bytes    int64     `json:"bytes" yaml:"bytes"`
	Modified time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	st := cacheStats{Path: cachePath(), Enabled: current.config().Cache.Enabled}

	r := &output.Report{Title: "Fingerprint cache", Columns: []string{"Key", "Value"}, Data: &st}
	info, err := os.Stat(st.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.AddRow("location", st.Path)
		r.AddRow("enabled", strconv.FormatBool(st.Enabled))
		r.AddRow("entries", "0 (no cache yet)")
		return render(cmd, r)
	case err != nil:
		return fmt.Errorf("failed to stat cache: %w", err)
	}
	st.Modified = info.ModTime()

	c, err := current.openCache()
	if err != nil {
		return err
	}
	if st.Entries, err = c.Len(); err != nil {
		return fmt.Errorf("failed to count cache entries: %w", err)
	}
	current.closeCache()

	err = filepath.WalkDir(st.Path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			st.Bytes += fi.Size()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to calculate cache size: %w", err)
	}

	r.AddRow("location", st.Path)
	r.AddRow("enabled", strconv.FormatBool(st.Enabled))
	r.AddRow("entries", strconv.Itoa(st.Entries))
	r.AddRow("size", types.FormatSize(st.Bytes))
	r.AddRow("last modified", types.FormatTime(st.Modified))
	return render(cmd, r)
}

func runCachePrune(cmd *cobra.Command, _ []string) error {
	if !fsutil.Exists(cachePath()) {
		printInfo(cmd, "Cache is empty.")
		return nil
	}
	c, err := current.openCache()
	if err != nil {
		return err
	}
	removed, err := c.Prune(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	printInfo(cmd, "Removed %d stale entries.", removed)
	return nil
}

func runCacheForget(cmd *cobra.Command, args []string) error {
	if !fsutil.Exists(cachePath()) {
		printInfo(cmd, "Cache is empty.")
		return nil
	}
	c, err := current.openCache()
	if err != nil {
		return err
	}
	for _, p := range args {
		if err := c.Invalidate(p); err != nil {
			return fmt.Errorf("failed to forget %s: %w", p, err)
		}
	}
	printInfo(cmd, "Forgot %d path(s).", len(args))
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	path := cachePath()
	if !fsutil.Exists(path) {
		printInfo(cmd, "Cache is already empty.")
		return nil
	}

	current.closeCache()
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	printInfo(cmd, "Cache cleared.")
	return nil
}
