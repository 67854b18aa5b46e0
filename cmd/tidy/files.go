package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/fileops"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/rename"
)

var mvCmd = &cobra.Command{
	Use:   "mv <source> <dest>",
	Short: "Move a file or folder",
	Long: `Move a file or folder. When dest is an existing folder the item keeps
its name inside it. The move is recorded in history.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(cmd, args, (*fileops.Executor).Move)
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <source> <dest>",
	Short: "Copy a file or folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(cmd, args, (*fileops.Executor).Copy)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Delete files or folders",
	Long: `Delete files or folders. Items go to the system trash unless the
use_trash setting is off or --permanent is given. Trashed items can be
restored with 'tidy history undo'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

var renameCmd = &cobra.Command{
	Use:   "rename <path> <new-name>",
	Short: "Rename a file or folder in place",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a folder and its parents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := fileops.New(nil).CreateFolder(args[0]); err != nil {
			return err
		}
		printVerbose("created %s", args[0])
		return nil
	},
}

var batchRenameCmd = &cobra.Command{
	Use:   "batch-rename <file>...",
	Short: "Rename many files with a chain of rules",
	Long: `Rename files by applying a chain of steps to each name (the extension
is kept). Steps run in this order: --find/--replace, --regex, --case,
--prefix, --suffix, --date, --sequence.

Examples:
  tidy batch-rename *.jpg --prefix trip_ --sequence --dry-run
  tidy batch-rename *.txt --regex '\s+' --regex-replace _ --case lower`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatchRename,
}

var (
	conflictFlag   string
	rmPermanent    bool
	rmYes          bool
	batchDryRun    bool
	batchRenameSet renameFlags
)

func init() {
	for _, c := range []*cobra.Command{mvCmd, cpCmd} {
		c.Flags().StringVar(&conflictFlag, "conflict", string(fileops.Rename), "overwrite, rename or skip")
	}
	rmCmd.Flags().BoolVar(&rmPermanent, "permanent", false, "delete instead of moving to trash")
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "do not ask for confirmation")

	f := batchRenameCmd.Flags()
	f.BoolVarP(&batchDryRun, "dry-run", "n", false, "show the new names without renaming")
	f.StringVar(&batchRenameSet.find, "find", "", "text to replace")
	f.StringVar(&batchRenameSet.replace, "replace", "", "replacement for --find")
	f.StringVar(&batchRenameSet.regex, "regex", "", "regular expression to replace")
	f.StringVar(&batchRenameSet.regexReplace, "regex-replace", "", "replacement for --regex ($1 expands groups)")
	f.StringVar(&batchRenameSet.caseType, "case", "", "upper, lower or title")
	f.StringVar(&batchRenameSet.prefix, "prefix", "", "text to prepend")
	f.StringVar(&batchRenameSet.suffix, "suffix", "", "text to append")
	f.BoolVar(&batchRenameSet.withDate, "date", false, "append the file date")
	f.StringVar(&batchRenameSet.dateFormat, "date-format", "%Y%m%d", "strftime layout for --date")
	f.StringVar(&batchRenameSet.dateSource, "date-source", "modified", "created or modified")
	f.BoolVar(&batchRenameSet.sequence, "sequence", false, "append a running number")
	f.IntVar(&batchRenameSet.start, "start", 1, "first number for --sequence")
	f.IntVar(&batchRenameSet.digits, "digits", 3, "zero padding for --sequence")

	rootCmd.AddCommand(mvCmd, cpCmd, rmCmd, renameCmd, mkdirCmd, batchRenameCmd)
}

func executor() (*fileops.Executor, error) {
	ledger, err := current.getLedger()
	if err != nil {
		return nil, err
	}
	return fileops.New(ledger), nil
}

type transferFunc func(*fileops.Executor, context.Context, string, string, fileops.Conflict) (*fileops.Result, error)

func runTransfer(cmd *cobra.Command, args []string, op transferFunc) error {
	c, err := fileops.ParseConflict(conflictFlag)
	if err != nil {
		return err
	}
	e, err := executor()
	if err != nil {
		return err
	}
	res, err := op(e, cmd.Context(), args[0], args[1], c)
	if err != nil {
		return err
	}
	if res.Skipped {
		printInfo(cmd, "Skipped %s: %s exists", args[0], res.Path)
		return nil
	}
	printInfo(cmd, "%s -> %s", args[0], res.Path)
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings, err := current.settings(ctx)
	if err != nil {
		return err
	}
	toTrash := settings.UseTrash && !rmPermanent

	if settings.ConfirmBeforeDelete && !rmYes {
		verb := "Move to trash"
		if !toTrash {
			verb = "Permanently delete"
		}
		if !confirm(cmd, fmt.Sprintf("%s %d item(s)?", verb, len(args))) {
			printInfo(cmd, "Cancelled")
			return nil
		}
	}

	e, err := executor()
	if err != nil {
		return err
	}
	var failed int
	for _, path := range args {
		if _, err := e.Delete(ctx, path, toTrash); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			continue
		}
		printVerbose("deleted %s", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletions failed", failed, len(args))
	}
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	e, err := executor()
	if err != nil {
		return err
	}
	res, err := e.Rename(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	printInfo(cmd, "%s -> %s", filepath.Base(args[0]), filepath.Base(res.Path))
	return nil
}

func runBatchRename(cmd *cobra.Command, args []string) error {
	chain := batchRenameSet.chain()
	if len(chain) == 0 {
		return fmt.Errorf("no rename steps given")
	}

	if batchDryRun {
		previews, err := rename.PreviewRename(args, chain)
		if err != nil {
			return err
		}
		r := &output.Report{
			Columns: []string{"Old", "New", "Conflict"},
			Data:    previews,
		}
		conflicts := 0
		for _, p := range previews {
			if p.HasConflict() {
				conflicts++
			}
			r.AddRow(p.OldName, p.NewName, p.Conflict)
		}
		r.AddSummary("Files", strconv.Itoa(len(previews)))
		r.AddSummary("Conflicts", strconv.Itoa(conflicts))
		return render(cmd, r)
	}

	ledger, err := current.getLedger()
	if err != nil {
		return err
	}
	res, err := rename.Execute(cmd.Context(), args, chain, ledger)
	if err != nil {
		return err
	}
	r := &output.Report{Warnings: res.Errors, Data: res}
	r.AddSummary("Renamed", strconv.Itoa(res.Renamed))
	r.AddSummary("Failed", strconv.Itoa(res.Failed))
	if res.HistoryID > 0 {
		r.AddSummary("History", strconv.FormatInt(res.HistoryID, 10))
	}
	return render(cmd, r)
}
