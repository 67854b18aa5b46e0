package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/compare"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare <source> <target>",
	Short: "Compare two folders file by file",
	Long: `Compare every file under source with the file at the same relative path
under target. Content is compared by fingerprint.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <source> <target>",
	Short: "Copy files from one folder into another",
	Long: `Copy files from source into target.

By default only files missing from target are copied. Strategies decide
what happens to files that exist on both sides:
  skip_existing    leave the target file alone
  overwrite_all    always replace it
  overwrite_newer  replace it when the source is newer
  overwrite_older  replace it when the source is older
  rename           copy alongside as name_1.ext`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

var (
	compareAll bool

	mergeStrategy     string
	mergeDifferent    bool
	mergeNoOnlySource bool
	mergeDeleteSource bool
)

func init() {
	compareCmd.Flags().BoolVar(&compareAll, "all", false, "also list identical files")

	mergeCmd.Flags().StringVarP(&mergeStrategy, "strategy", "s", string(compare.SkipExisting), "conflict strategy")
	mergeCmd.Flags().BoolVar(&mergeDifferent, "include-different", false, "also copy files whose content differs")
	mergeCmd.Flags().BoolVar(&mergeNoOnlySource, "skip-new", false, "do not copy files missing from target")
	mergeCmd.Flags().BoolVar(&mergeDeleteSource, "delete-source", false, "remove source when the merge had no errors")

	rootCmd.AddCommand(compareCmd, mergeCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	res, err := compare.Folders(args[0], args[1], compare.Options{Hasher: current.hasher(false)})
	if err != nil {
		return err
	}

	r := &output.Report{
		Title:   res.Summary.SourcePath + " ⇄ " + res.Summary.TargetPath,
		Columns: []string{"Status", "Path", "Delta"},
		Empty:   "No differences",
		Data:    res,
	}
	for _, e := range res.Entries {
		if e.Status == compare.Identical && !compareAll {
			continue
		}
		r.AddRow(statusLabel(e.Status), e.RelativePath, types.FormatSize(e.SizeDelta))
	}
	s := res.Summary
	r.AddSummary("Only in source", strconv.Itoa(s.OnlySource))
	r.AddSummary("Only in target", strconv.Itoa(s.OnlyTarget))
	r.AddSummary("Different", strconv.Itoa(s.Different))
	r.AddSummary("Identical", strconv.Itoa(s.Identical))
	return render(cmd, r)
}

func statusLabel(s compare.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func runMerge(cmd *cobra.Command, args []string) error {
	strategy, err := compare.ParseStrategy(mergeStrategy)
	if err != nil {
		return err
	}
	opts := compare.MergeOptions{
		Strategy:          strategy,
		IncludeOnlySource: !mergeNoOnlySource,
		IncludeDifferent:  mergeDifferent,
		DeleteSourceAfter: mergeDeleteSource,
		Compare:           compare.Options{Hasher: current.hasher(false)},
	}

	res, err := compare.Merge(args[0], args[1], opts)
	if err != nil {
		return err
	}

	r := &output.Report{Columns: []string{"Error"}, Warnings: res.Errors, Data: res}
	r.AddSummary("Copied", strconv.Itoa(res.FilesCopied))
	r.AddSummary("Overwritten", strconv.Itoa(res.FilesOverwritten))
	r.AddSummary("Skipped", strconv.Itoa(res.FilesSkipped))
	r.AddSummary("Transferred", types.FormatSize(res.BytesTransferred))
	return render(cmd, r)
}
