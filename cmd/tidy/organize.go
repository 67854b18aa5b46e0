package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/organize"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
)

var organizeCmd = &cobra.Command{
	Use:   "organize [dir]",
	Short: "Organize a folder with custom and default rules",
	Long: `Organize the files directly inside a folder.

Each file is handled by the first matching enabled custom rule (highest
priority first). Files no custom rule matches fall back to the enabled
default rule for their category. The run is recorded in history and can be
undone with 'tidy history undo <id>'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrganize,
}

var organizeCategoriesCmd = &cobra.Command{
	Use:   "categories [dir]",
	Short: "Sort files into one folder per category",
	Long: `Move every visible file directly inside a folder into its category
folder (Images, Documents, ...), ignoring custom rules.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrganizeCategories,
}

var (
	organizeDryRun   bool
	organizeSkipDest []string

	categoriesDateSubfolders bool
	categoriesDateFormat     string
	categoriesDuplicates     string
)

func init() {
	organizeCmd.PersistentFlags().BoolVarP(&organizeDryRun, "dry-run", "n", false, "preview without moving anything")
	organizeCmd.Flags().StringSliceVar(&organizeSkipDest, "skip-dest", nil, "destination folders to leave out of this run")

	organizeCategoriesCmd.Flags().BoolVar(&categoriesDateSubfolders, "date-subfolders", false, "add a date folder below each category folder")
	organizeCategoriesCmd.Flags().StringVar(&categoriesDateFormat, "date-format", "", "YYYY-MM, YYYY/MM, YYYY or YYYY-MM-DD (default from settings)")
	organizeCategoriesCmd.Flags().StringVar(&categoriesDuplicates, "duplicates", organize.DuplicateRename, "overwrite, rename or skip")

	organizeCmd.AddCommand(organizeCategoriesCmd)
	rootCmd.AddCommand(organizeCmd)
}

// unifiedInput gathers the stored rules, defaults, mappings and exclusions.
func unifiedInput(ctx context.Context) (rules.UnifiedInput, error) {
	s, err := current.openStore()
	if err != nil {
		return rules.UnifiedInput{}, err
	}
	custom, err := s.ListRules(ctx)
	if err != nil {
		return rules.UnifiedInput{}, err
	}
	defaults, err := s.ListDefaultRules(ctx)
	if err != nil {
		return rules.UnifiedInput{}, err
	}
	opts, err := ruleOptions(ctx)
	if err != nil {
		return rules.UnifiedInput{}, err
	}
	return rules.UnifiedInput{
		Rules:    custom,
		Defaults: defaults,
		Excluded: organizeSkipDest,
		Options:  opts,
	}, nil
}

func ruleOptions(ctx context.Context) (rules.Options, error) {
	m, err := current.mapper(ctx)
	if err != nil {
		return rules.Options{}, err
	}
	ex, err := current.matcher(ctx)
	if err != nil {
		return rules.Options{}, err
	}
	return rules.Options{Classifier: m, Exclude: ex}, nil
}

func runOrganize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := dirArg(args)
	in, err := unifiedInput(ctx)
	if err != nil {
		return err
	}

	if organizeDryRun {
		plan, err := rules.PreviewUnified(dir, in)
		if err != nil {
			return err
		}
		return render(cmd, planReport(plan))
	}

	ledger, err := current.getLedger()
	if err != nil {
		return err
	}
	res, err := rules.ExecuteUnified(ctx, dir, in, ledger)
	if err != nil {
		return err
	}
	return render(cmd, resultReport(res.FilesMoved, res.FilesSkipped, res.Errors, res.HistoryID, res))
}

func planReport(plan *rules.Plan) *output.Report {
	r := &output.Report{
		Title:   plan.Dir,
		Columns: []string{"File", "Match", "Rule", "Action"},
		Empty:   "Nothing to organize",
		Data:    plan,
	}
	for _, it := range plan.Items {
		rule, action := "", it.Preview
		switch it.MatchType {
		case rules.MatchRule:
			rule = it.Rule.Name
		case rules.MatchDefault:
			rule = it.Default.Category.Label()
		}
		if it.Excluded {
			action += " (excluded)"
		}
		r.AddRow(it.File.Name, string(it.MatchType), rule, action)
	}
	counts := plan.Counts()
	r.AddSummary("Custom", strconv.Itoa(counts[rules.MatchRule]))
	r.AddSummary("Default", strconv.Itoa(counts[rules.MatchDefault]))
	r.AddSummary("Unmatched", strconv.Itoa(counts[rules.MatchNone]))
	return r
}

// resultReport renders the outcome of a batch mutation.
func resultReport(moved, skipped int, errs []string, historyID int64, data any) *output.Report {
	r := &output.Report{Warnings: errs, Data: data}
	r.AddSummary("Moved", strconv.Itoa(moved))
	r.AddSummary("Skipped", strconv.Itoa(skipped))
	if historyID > 0 {
		r.AddSummary("History", strconv.FormatInt(historyID, 10))
	}
	return r
}

func runOrganizeCategories(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := dirArg(args)

	m, err := current.mapper(ctx)
	if err != nil {
		return err
	}
	ex, err := current.matcher(ctx)
	if err != nil {
		return err
	}
	settings, err := current.settings(ctx)
	if err != nil {
		return err
	}
	format := categoriesDateFormat
	if format == "" {
		format = settings.DefaultDateFormat
	}
	opts := organize.Options{
		Mapper:               m,
		Exclude:              ex,
		CreateDateSubfolders: categoriesDateSubfolders,
		DateFormat:           format,
		Duplicates:           categoriesDuplicates,
	}

	if organizeDryRun {
		groups, err := organize.Preview(dir, opts)
		if err != nil {
			return err
		}
		r := &output.Report{
			Columns: []string{"Category", "Files", "Destination"},
			Empty:   "Nothing to organize",
			Data:    groups,
		}
		for _, g := range groups {
			r.AddRow(g.Label, strconv.Itoa(g.FileCount), g.Destination)
		}
		return render(cmd, r)
	}

	ledger, err := current.getLedger()
	if err != nil {
		return err
	}
	res, err := organize.Organize(ctx, dir, opts, ledger)
	if err != nil {
		return err
	}
	return render(cmd, resultReport(res.FilesMoved, res.FilesSkipped, res.Errors, res.HistoryID, res))
}
