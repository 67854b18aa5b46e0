package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage custom organization rules",
	Long: `Custom rules match files by name, extension, size or date and move,
copy, rename or delete them. Higher priority rules are tried first.`,
	RunE: runRulesList,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List custom rules",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a custom rule",
	Long: `Add a custom rule.

Conditions are field:operator:value. Fields are name, extension, size,
createdDate and modifiedDate. Operators are equals, contains, startsWith,
endsWith, greaterThan, lessThan and matches.

Examples:
  tidy rules add --name PDFs --when extension:equals:.pdf --action move --dest Documents/PDF
  tidy rules add --name Big --when size:greaterThan:104857600 --action move --dest Large`,
	Args: cobra.NoArgs,
	RunE: runRulesAdd,
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a custom rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDelete,
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a custom rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleEnabled(cmd, args[0], true)
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a custom rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleEnabled(cmd, args[0], false)
	},
}

var rulesPreviewCmd = &cobra.Command{
	Use:   "preview [dir]",
	Short: "Show what the custom rules would do",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesPreview,
}

var rulesRunCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Apply only the custom rules",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesRun,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rules from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesImport,
}

var rulesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export rules as YAML (to stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesExport,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a rules file without importing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesValidate,
}

var (
	ruleName          string
	rulePriority      int
	ruleLogic         string
	ruleWhen          []string
	ruleAction        string
	ruleDest          string
	rulePattern       string
	ruleDateSubfolder bool
	ruleDisabled      bool
)

func init() {
	rulesAddCmd.Flags().StringVar(&ruleName, "name", "", "rule name (required)")
	rulesAddCmd.Flags().IntVar(&rulePriority, "priority", 0, "higher runs first")
	rulesAddCmd.Flags().StringVar(&ruleLogic, "logic", string(rules.And), "AND or OR")
	rulesAddCmd.Flags().StringArrayVar(&ruleWhen, "when", nil, "condition field:operator:value (repeatable)")
	rulesAddCmd.Flags().StringVar(&ruleAction, "action", string(rules.ActionMove), "move, copy, rename or delete")
	rulesAddCmd.Flags().StringVar(&ruleDest, "dest", "", "destination folder for move and copy")
	rulesAddCmd.Flags().StringVar(&rulePattern, "pattern", "", "rename pattern, e.g. {date}_{name}{ext}")
	rulesAddCmd.Flags().BoolVar(&ruleDateSubfolder, "date-subfolder", false, "add a YYYY-MM folder below the destination")
	rulesAddCmd.Flags().BoolVar(&ruleDisabled, "disabled", false, "save the rule disabled")
	_ = rulesAddCmd.MarkFlagRequired("name")

	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesDeleteCmd, rulesEnableCmd, rulesDisableCmd,
		rulesPreviewCmd, rulesRunCmd, rulesImportCmd, rulesExportCmd, rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	s, err := current.openStore()
	if err != nil {
		return err
	}
	list, err := s.ListRules(cmd.Context())
	if err != nil {
		return err
	}

	r := &output.Report{
		Columns: []string{"ID", "Name", "Priority", "Enabled", "Conditions", "Action"},
		Empty:   "No custom rules. Add one with 'tidy rules add'.",
		Data:    list,
	}
	for _, rule := range list {
		r.AddRow(strconv.FormatInt(rule.ID, 10), rule.Name, strconv.Itoa(rule.Priority),
			strconv.FormatBool(rule.Enabled), formatConditions(rule), rules.PreviewAction(rule.Action, "*"))
	}
	return render(cmd, r)
}

func formatConditions(r rules.Rule) string {
	parts := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		parts[i] = fmt.Sprintf("%s %s %q", c.Field, c.Operator, c.Value)
	}
	return strings.Join(parts, " "+string(r.Logic)+" ")
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	conds := make([]rules.Condition, 0, len(ruleWhen))
	for _, w := range ruleWhen {
		c, err := parseCondition(w)
		if err != nil {
			return err
		}
		conds = append(conds, c)
	}

	rule := rules.Rule{
		Name:       ruleName,
		Priority:   rulePriority,
		Enabled:    !ruleDisabled,
		Conditions: conds,
		Logic:      rules.Logic(strings.ToUpper(ruleLogic)),
		Action: rules.Action{
			Type:          rules.ActionType(ruleAction),
			Destination:   ruleDest,
			RenamePattern: rulePattern,
			DateSubfolder: ruleDateSubfolder,
		},
	}

	s, err := current.openStore()
	if err != nil {
		return err
	}
	id, err := s.SaveRule(cmd.Context(), rule)
	if err != nil {
		return err
	}
	printInfo(cmd, "Added rule %d (%s)", id, rule.Name)
	return nil
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	s, err := current.openStore()
	if err != nil {
		return err
	}
	if err := s.DeleteRule(cmd.Context(), id); err != nil {
		return err
	}
	printInfo(cmd, "Deleted rule %d", id)
	return nil
}

func setRuleEnabled(cmd *cobra.Command, arg string, enabled bool) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	s, err := current.openStore()
	if err != nil {
		return err
	}
	if err := s.SetRuleEnabled(cmd.Context(), id, enabled); err != nil {
		return err
	}
	state := "Disabled"
	if enabled {
		state = "Enabled"
	}
	printInfo(cmd, "%s rule %d", state, id)
	return nil
}

func runRulesPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := current.openStore()
	if err != nil {
		return err
	}
	list, err := s.ListRules(ctx)
	if err != nil {
		return err
	}
	opts, err := ruleOptions(ctx)
	if err != nil {
		return err
	}

	matches, err := rules.Preview(dirArg(args), list, opts)
	if err != nil {
		return err
	}
	r := &output.Report{
		Columns: []string{"File", "Rule", "Action"},
		Empty:   "No files match a custom rule",
		Data:    matches,
	}
	for _, m := range matches {
		r.AddRow(m.File.Name, m.Rule.Name, m.Preview)
	}
	r.AddSummary("Matches", strconv.Itoa(len(matches)))
	return render(cmd, r)
}

func runRulesRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := current.openStore()
	if err != nil {
		return err
	}
	list, err := s.ListRules(ctx)
	if err != nil {
		return err
	}
	opts, err := ruleOptions(ctx)
	if err != nil {
		return err
	}
	ledger, err := current.getLedger()
	if err != nil {
		return err
	}

	res, err := rules.Execute(ctx, dirArg(args), list, opts, ledger)
	if err != nil {
		return err
	}
	return render(cmd, resultReport(res.Executed, res.Skipped, res.Errors, res.HistoryID, res))
}

func readRulesFile(path string) ([]rules.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rules.Import(f)
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	imported, err := readRulesFile(args[0])
	if err != nil {
		return err
	}
	s, err := current.openStore()
	if err != nil {
		return err
	}
	for _, rule := range imported {
		if _, err := s.SaveRule(cmd.Context(), rule); err != nil {
			return fmt.Errorf("saving rule %q: %w", rule.Name, err)
		}
	}
	printInfo(cmd, "Imported %d rules", len(imported))
	return nil
}

func runRulesExport(cmd *cobra.Command, args []string) error {
	s, err := current.openStore()
	if err != nil {
		return err
	}
	list, err := s.ListRules(cmd.Context())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return rules.Export(w, list)
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	list, err := readRulesFile(args[0])
	if err != nil {
		return err
	}
	printInfo(cmd, "%s: %d valid rules", args[0], len(list))
	return nil
}
