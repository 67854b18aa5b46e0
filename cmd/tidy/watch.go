package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
	"github.com/jamesainslie/tidy/pkg/tidy/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Print file changes in a folder as they happen",
	Long: `Watch a folder and print create, modify and remove events until
interrupted. Without an argument the desktop_path setting is watched, or
the current directory when it is unset.

With --organize, newly created files are organized with the custom and
default rules as they arrive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var (
	watchRecursive bool
	watchOrganize  bool
)

func init() {
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", false, "also watch subfolders")
	watchCmd.Flags().BoolVar(&watchOrganize, "organize", false, "organize new files as they appear")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings, err := current.settings(ctx)
	if err != nil {
		return err
	}

	dir := dirArg(args)
	if len(args) == 0 && settings.DesktopPath != "" {
		dir = settings.DesktopPath
	}
	if !settings.EnableWatcher {
		printVerbose("enable_watcher is off, watching on request")
	}

	organizeNow := func() {}
	if watchOrganize || settings.AutoOrganizeOnStartup {
		in, err := unifiedInput(ctx)
		if err != nil {
			return err
		}
		ledger, err := current.getLedger()
		if err != nil {
			return err
		}
		organizeNow = func() {
			plan, err := rules.PreviewUnified(dir, in)
			if err != nil {
				logging.Get("cli").Warn("organize failed", "dir", dir, "error", err)
				return
			}
			if !plan.HasActionable() {
				return
			}
			res, err := rules.ExecuteUnified(ctx, dir, in, ledger)
			if err != nil {
				logging.Get("cli").Warn("organize failed", "dir", dir, "error", err)
				return
			}
			if res.FilesMoved > 0 {
				printInfo(cmd, "Organized %d file(s) (history %d)", res.FilesMoved, res.HistoryID)
			}
		}
		if settings.AutoOrganizeOnStartup {
			organizeNow()
		}
	}

	cfg := current.config()
	h := watcher.New(watcher.Options{
		Buffer:    cfg.Watch.Buffer,
		Poll:      cfg.Watch.Poll,
		Recursive: watchRecursive,
	})

	out := cmd.OutOrStdout()
	asJSON := strings.EqualFold(cfg.Output.Format, "json")
	err = h.Start(dir, func(ev watcher.Event) {
		printEvent(out, ev, asJSON)
		if watchOrganize && ev.Type == watcher.EventCreated {
			organizeNow()
		}
	})
	if err != nil {
		return err
	}
	defer h.Stop()

	if path, ok := h.Path(); ok {
		printInfo(cmd, "Watching %s (Ctrl+C to stop)", path)
	}
	<-ctx.Done()
	return nil
}

func printEvent(w io.Writer, ev watcher.Event, asJSON bool) {
	if asJSON {
		_ = json.NewEncoder(w).Encode(ev)
		return
	}
	fmt.Fprintf(w, "%s  %-6s  %s\n", time.Now().Format("15:04:05"), ev.Type, strings.Join(ev.Paths, ", "))
}
