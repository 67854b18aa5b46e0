package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/exclude"
	"github.com/jamesainslie/tidy/pkg/tidy/fingerprint"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/store"
)

// app holds what the commands of one invocation share. Resources open
// lazily and are released by shutdown.
type app struct {
	cfg    *config.Config
	store  *store.Store
	ledger *history.Ledger
	cache  *fingerprint.Cache
}

var current = &app{}

func (a *app) config() *config.Config {
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			logging.Get("cli").Warn("failed to load config, using defaults", "error", err)
			cfg = &config.Config{}
			cfg.Database.Path = config.DefaultDBPath()
			cfg.Backup.Root = config.DefaultBackupRoot()
			cfg.Output.Format = config.DefaultOutputFormat
		}
		a.cfg = cfg
	}
	return a.cfg
}

func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.config().Database.Path)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *app) getLedger() (*history.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.ledger = history.New(s)
	return a.ledger, nil
}

// openCache opens the fingerprint cache at the configured path.
func (a *app) openCache() (*fingerprint.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	c, err := fingerprint.OpenCache(a.config().Cache.Path)
	if err != nil {
		return nil, err
	}
	a.cache = c
	return c, nil
}

// closeCache releases the cache so its files can be removed.
func (a *app) closeCache() {
	if a.cache == nil {
		return
	}
	hits, misses := a.cache.Stats()
	logging.Get("cli").Debug("fingerprint cache", "hits", hits, "misses", misses)
	_ = a.cache.Close()
	a.cache = nil
}

// hasher returns the badger-backed fingerprint cache, or direct hashing
// when the cache is disabled or cannot be opened.
func (a *app) hasher(noCache bool) fingerprint.Hasher {
	cfg := a.config()
	if noCache || !cfg.Cache.Enabled || cfg.Cache.Path == "" {
		return fingerprint.Direct{}
	}
	c, err := a.openCache()
	if err != nil {
		logging.Get("cli").Warn("fingerprint cache unavailable", "path", cfg.Cache.Path, "error", err)
		return fingerprint.Direct{}
	}
	return c
}

// mapper returns the classifier with the stored extension mappings.
func (a *app) mapper(ctx context.Context) (*classify.Overrides, error) {
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return s.Overrides(ctx)
}

func (a *app) matcher(ctx context.Context) (*exclude.Matcher, error) {
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return s.Matcher(ctx)
}

func (a *app) settings(ctx context.Context) (store.Settings, error) {
	s, err := a.openStore()
	if err != nil {
		return store.Settings{}, err
	}
	return s.LoadSettings(ctx)
}

func (a *app) close() {
	a.closeCache()
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
	a.ledger = nil
}

// render writes r in the configured output format.
func render(cmd *cobra.Command, r *output.Report) error {
	format := current.config().Output.Format
	if format == "" {
		format = config.DefaultOutputFormat
	}
	return output.Write(cmd.OutOrStdout(), format, r)
}

// confirm asks a yes/no question on the command's input. Anything but
// y or yes is a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// hashProgress returns a progress callback that draws a bar on stderr once
// the number of files to hash is known. It draws nothing when quiet.
func hashProgress(cmd *cobra.Command) (func(done, total int), func()) {
	if getQuiet() {
		return nil, func() {}
	}
	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Hashing files"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "=",
					SaucerHead:    ">",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionThrottle(100*time.Millisecond),
			)
		}
		_ = bar.Set(done)
	}
	finish := func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}
	return progress, finish
}
