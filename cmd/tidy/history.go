package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of file operations.

Every move, copy, rename, delete and organize run is recorded with what is
needed to reverse it. Use 'tidy history undo <id>' to reverse one.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Reverse a recorded operation",
	Long: `Reverse a recorded operation. Moves and renames go back, copies are
removed and trashed items are restored. Permanent deletes cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryUndo,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every history entry",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var (
	historyLimit  int
	historyOffset int
	historyYes    bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", config.DefaultHistoryLimit, "maximum number of entries to show")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "skip this many recent entries")
	historyClearCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "do not ask for confirmation")

	historyCmd.AddCommand(historyShowCmd, historyUndoCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// runHistory lists recent operations.
func runHistory(cmd *cobra.Command, _ []string) error {
	ledger, err := current.getLedger()
	if err != nil {
		return err
	}
	entries, err := ledger.List(cmd.Context(), historyLimit, historyOffset)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	r := &output.Report{
		Columns: []string{"ID", "When", "Operation", "Files", "Description", "Undone"},
		Empty:   "No history entries found.",
		Data:    entries,
	}
	for _, e := range entries {
		undone := ""
		if e.Undone {
			undone = "yes"
		}
		r.AddRow(strconv.FormatInt(e.ID, 10), types.FormatAge(e.CreatedAt), string(e.Operation),
			strconv.Itoa(e.FilesAffected), truncateString(e.Description, 60), undone)
	}
	return render(cmd, r)
}

// runHistoryShow displays one entry and the paths it touched.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ledger, err := current.getLedger()
	if err != nil {
		return err
	}
	e, err := ledger.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	r := &output.Report{
		Title:   fmt.Sprintf("Operation %d", e.ID),
		Columns: []string{"Action", "From", "To"},
		Data:    e,
	}
	r.AddSummary("Operation", string(e.Operation))
	r.AddSummary("When", types.FormatTime(e.CreatedAt))
	r.AddSummary("Description", e.Description)
	r.AddSummary("Files", strconv.Itoa(e.FilesAffected))
	r.AddSummary("Undone", strconv.FormatBool(e.Undone))

	switch p := e.Payload.(type) {
	case history.Move:
		r.AddRow("move", p.From, p.To)
	case history.Rename:
		r.AddRow("rename", p.From, p.To)
	case history.Copy:
		r.AddRow("copy", "", p.To)
	case history.Delete:
		action := "delete"
		if p.ToTrash {
			action = "trash"
		}
		r.AddRow(action, p.Path, "")
	case history.Batch:
		for _, pair := range p.Pairs {
			r.AddRow("move", pair.From, pair.To)
		}
	}
	return render(cmd, r)
}

func runHistoryUndo(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ledger, err := current.getLedger()
	if err != nil {
		return err
	}
	if err := ledger.Undo(cmd.Context(), id); err != nil {
		return err
	}
	printInfo(cmd, "Undid operation %d", id)
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if !historyYes && !confirm(cmd, "Remove every history entry? Operations can no longer be undone.") {
		printInfo(cmd, "Cancelled")
		return nil
	}
	ledger, err := current.getLedger()
	if err != nil {
		return err
	}
	if err := ledger.Clear(cmd.Context()); err != nil {
		return err
	}
	printInfo(cmd, "History cleared.")
	return nil
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
