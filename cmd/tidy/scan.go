package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/analyze"
	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List the files of a folder with their categories",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var dupesCmd = &cobra.Command{
	Use:   "dupes [dir]",
	Short: "Find duplicate files",
	Long: `Find files with identical content under a folder.

Files are bucketed by size and only same-size files are hashed. Groups are
listed by wasted space, largest first. Exclusions apply.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDupes,
}

var emptyCmd = &cobra.Command{
	Use:   "empty [dir]",
	Short: "Find empty folders",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEmpty,
}

var largeCmd = &cobra.Command{
	Use:   "large [dir]",
	Short: "Find large files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLarge,
}

var treeCmd = &cobra.Command{
	Use:   "tree [dir]",
	Short: "Show folder sizes as a tree",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTree,
}

var statsCmd = &cobra.Command{
	Use:   "stats [dir]",
	Short: "Summarize a folder by category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

var (
	listRecursive bool
	listHidden    bool
	listCategory  string
	dupesHidden   bool
	dupesNoCache  bool
	largeMB       int64
	treeDepth     int
)

func init() {
	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", false, "descend into subfolders")
	listCmd.Flags().BoolVarP(&listHidden, "all", "a", false, "include hidden entries")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only show this category")

	dupesCmd.Flags().BoolVar(&dupesHidden, "hidden", false, "include hidden files")
	dupesCmd.Flags().BoolVar(&dupesNoCache, "no-cache", false, "hash every file, ignoring the fingerprint cache")

	largeCmd.Flags().Int64Var(&largeMB, "min-mb", 0, "size threshold in MiB (default from config)")
	treeCmd.Flags().IntVarP(&treeDepth, "depth", "d", 0, "tree depth (default from config)")

	rootCmd.AddCommand(listCmd, dupesCmd, emptyCmd, largeCmd, treeCmd, statsCmd)
}

// dirArg returns the first argument or the current directory.
func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, err := current.mapper(ctx)
	if err != nil {
		return err
	}
	settings, err := current.settings(ctx)
	if err != nil {
		return err
	}

	records, err := inventory.List(dirArg(args), inventory.Options{
		Recursive:     listRecursive,
		IncludeHidden: listHidden || settings.ShowHiddenFiles,
		Classifier:    m,
	})
	if err != nil {
		return err
	}

	if listCategory != "" {
		want := classify.Parse(listCategory)
		filtered := records[:0]
		for _, r := range records {
			if !r.IsDirectory && r.Category == want {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	r := &output.Report{
		Columns: []string{"Name", "Category", "Size", "Modified"},
		Empty:   "No files found",
		Data:    records,
	}
	var total int64
	for _, rec := range records {
		category, size := rec.Category.Label(), rec.HumanSize()
		if rec.IsDirectory {
			category, size = "folder", "-"
		}
		r.AddRow(rec.Name, category, size, types.FormatTime(rec.Modified))
		total += rec.Size
	}
	r.AddSummary("Entries", strconv.Itoa(len(records)))
	r.AddSummary("Total", types.FormatSize(total))
	return render(cmd, r)
}

func runDupes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, err := current.mapper(ctx)
	if err != nil {
		return err
	}
	ex, err := current.matcher(ctx)
	if err != nil {
		return err
	}

	progress, finish := hashProgress(cmd)
	groups, err := analyze.FindDuplicates(dirArg(args), analyze.Options{
		Hasher:     current.hasher(dupesNoCache),
		Exclude:    ex,
		Classifier: m,
		SkipHidden: !dupesHidden,
		Workers:    current.config().HashWorkers,
		Progress:   progress,
	})
	finish()
	if err != nil {
		return err
	}

	r := &output.Report{
		Title:   "Duplicate files",
		Columns: []string{"Group", "Size", "Wasted", "Path"},
		Empty:   "No duplicates found",
		Data:    groups,
	}
	for i, g := range groups {
		for j, f := range g.Files {
			group, wasted := "", ""
			if j == 0 {
				group, wasted = strconv.Itoa(i+1), types.FormatSize(g.Wasted())
			}
			r.AddRow(group, types.FormatSize(g.Size), wasted, f.Path)
		}
	}
	r.AddSummary("Groups", strconv.Itoa(len(groups)))
	r.AddSummary("Reclaimable", types.FormatSize(analyze.TotalWasted(groups)))
	return render(cmd, r)
}

func runEmpty(cmd *cobra.Command, args []string) error {
	dirs, err := analyze.FindEmptyFolders(dirArg(args))
	if err != nil {
		return err
	}
	r := &output.Report{
		Columns: []string{"Path"},
		Empty:   "No empty folders",
		Data:    dirs,
	}
	for _, d := range dirs {
		r.AddRow(d)
	}
	r.AddSummary("Empty folders", strconv.Itoa(len(dirs)))
	return render(cmd, r)
}

func runLarge(cmd *cobra.Command, args []string) error {
	threshold := largeMB
	if threshold <= 0 {
		threshold = int64(current.config().LargeFileMB)
	}
	files, err := analyze.FindLargeFiles(dirArg(args), threshold)
	if err != nil {
		return err
	}
	r := &output.Report{
		Columns: []string{"Size", "Modified", "Path"},
		Empty:   fmt.Sprintf("No files of %d MiB or more", threshold),
		Data:    files,
	}
	var total int64
	for _, f := range files {
		r.AddRow(f.HumanSize(), types.FormatAge(f.Modified), f.Path)
		total += f.Size
	}
	r.AddSummary("Files", strconv.Itoa(len(files)))
	r.AddSummary("Total", types.FormatSize(total))
	return render(cmd, r)
}

func runTree(cmd *cobra.Command, args []string) error {
	depth := treeDepth
	if depth <= 0 {
		depth = current.config().TreeDepth
	}
	root, err := analyze.FolderTree(dirArg(args), depth)
	if err != nil {
		return err
	}
	r := &output.Report{
		Title:   root.Path,
		Columns: []string{"Folder", "Size", "Files"},
		Data:    root,
	}
	for _, n := range root.Flatten() {
		name := n.Name
		if n != root {
			name = strings.Repeat("  ", n.Depth()-1) + "└ " + n.Name
		}
		r.AddRow(name, types.FormatSize(n.Size), strconv.Itoa(n.FileCount))
	}
	return render(cmd, r)
}

func runStats(cmd *cobra.Command, args []string) error {
	m, err := current.mapper(cmd.Context())
	if err != nil {
		return err
	}
	stats, err := analyze.Stats(dirArg(args), m)
	if err != nil {
		return err
	}

	r := &output.Report{
		Title:   stats.Path,
		Columns: []string{"Category", "Files", "Size"},
		Empty:   "No files",
		Data:    stats,
	}
	for _, c := range stats.Categories {
		r.AddRow(c.Category.Label(), strconv.Itoa(c.Count), types.FormatSize(c.TotalSize))
	}
	r.AddSummary("Files", strconv.Itoa(stats.FileCount))
	r.AddSummary("Folders", strconv.Itoa(stats.FolderCount))
	r.AddSummary("Total", types.FormatSize(stats.TotalSize))
	if stats.LargestFile != nil {
		r.AddSummary("Largest", fmt.Sprintf("%s (%s)", filepath.Base(stats.LargestFile.Path), stats.LargestFile.HumanSize()))
	}
	return render(cmd, r)
}
