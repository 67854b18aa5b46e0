package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/exclude"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show or change the per-category default rules",
	Long: `Default rules decide where files go when no custom rule matches them.
There is one per category.`,
	RunE: runDefaultsList,
}

var defaultsSetCmd = &cobra.Command{
	Use:   "set <category>",
	Short: "Change the default rule of a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefaultsSet,
}

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Manage extension to category mappings",
	Long: `Mappings override the built-in extension table: an extension can be
assigned another category and target folder.`,
	RunE: runMappingsList,
}

var mappingsSetCmd = &cobra.Command{
	Use:   "set <extension> <category>",
	Short: "Map an extension to a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runMappingsSet,
}

var mappingsDeleteCmd = &cobra.Command{
	Use:   "delete <extension>",
	Short: "Remove an extension mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := current.openStore()
		if err != nil {
			return err
		}
		if err := s.DeleteMapping(cmd.Context(), args[0]); err != nil {
			return err
		}
		printInfo(cmd, "Deleted mapping for %s", classify.Normalize(args[0]))
		return nil
	},
}

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions",
	Short: "Manage paths that batch operations skip",
	RunE:  runExclusionsList,
}

var exclusionsAddCmd = &cobra.Command{
	Use:   "add <pattern>[,pattern...]",
	Short: "Exclude paths by glob, extension or folder name",
	Long: `Exclude paths from organization, rules and duplicate scans.

Examples:
  tidy exclusions add '*.tmp'
  tidy exclusions add --type extension part,crdownload
  tidy exclusions add --type folder node_modules`,
	Args: cobra.ExactArgs(1),
	RunE: runExclusionsAdd,
}

var exclusionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an exclusion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := current.openStore()
		if err != nil {
			return err
		}
		if err := s.DeleteExclusion(cmd.Context(), id); err != nil {
			return err
		}
		printInfo(cmd, "Deleted exclusion %d", id)
		return nil
	},
}

var (
	defaultsDisable       bool
	defaultsEnable        bool
	defaultsDest          string
	defaultsDateSubfolder bool
	defaultsPriority      int

	mappingFolder string
	exclusionType string
)

func init() {
	defaultsSetCmd.Flags().BoolVar(&defaultsEnable, "enable", false, "enable the rule")
	defaultsSetCmd.Flags().BoolVar(&defaultsDisable, "disable", false, "disable the rule")
	defaultsSetCmd.Flags().StringVar(&defaultsDest, "dest", "", "destination folder")
	defaultsSetCmd.Flags().BoolVar(&defaultsDateSubfolder, "date-subfolder", false, "add a YYYY-MM folder below the destination")
	defaultsSetCmd.Flags().IntVar(&defaultsPriority, "priority", 0, "display order, higher first")
	defaultsSetCmd.MarkFlagsMutuallyExclusive("enable", "disable")
	defaultsCmd.AddCommand(defaultsSetCmd)

	mappingsSetCmd.Flags().StringVar(&mappingFolder, "folder", "", "target folder (default: the category folder)")
	mappingsCmd.AddCommand(mappingsSetCmd, mappingsDeleteCmd)

	exclusionsAddCmd.Flags().StringVarP(&exclusionType, "type", "t", string(exclude.Glob), "glob, extension or folder")
	exclusionsCmd.AddCommand(exclusionsAddCmd, exclusionsDeleteCmd)

	rootCmd.AddCommand(defaultsCmd, mappingsCmd, exclusionsCmd)
}

func runDefaultsList(cmd *cobra.Command, _ []string) error {
	s, err := current.openStore()
	if err != nil {
		return err
	}
	list, err := s.ListDefaultRules(cmd.Context())
	if err != nil {
		return err
	}
	r := &output.Report{
		Columns: []string{"Category", "Enabled", "Destination", "Date folder", "Priority"},
		Data:    list,
	}
	for _, d := range list {
		r.AddRow(d.Category.String(), strconv.FormatBool(d.Enabled), d.Destination,
			strconv.FormatBool(d.DateSubfolder), strconv.Itoa(d.Priority))
	}
	return render(cmd, r)
}

func runDefaultsSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cat, err := parseCategory(args[0])
	if err != nil {
		return err
	}
	s, err := current.openStore()
	if err != nil {
		return err
	}
	list, err := s.ListDefaultRules(ctx)
	if err != nil {
		return err
	}

	d := rules.DefaultRule{Category: cat, Destination: cat.Folder()}
	for _, existing := range list {
		if existing.Category == cat {
			d = existing
			break
		}
	}

	flags := cmd.Flags()
	switch {
	case defaultsEnable:
		d.Enabled = true
	case defaultsDisable:
		d.Enabled = false
	}
	if flags.Changed("dest") {
		d.Destination = defaultsDest
	}
	if flags.Changed("date-subfolder") {
		d.DateSubfolder = defaultsDateSubfolder
	}
	if flags.Changed("priority") {
		d.Priority = defaultsPriority
	}

	if err := s.SetDefaultRule(ctx, d); err != nil {
		return err
	}
	printInfo(cmd, "Updated default rule for %s", cat)
	return nil
}

func runMappingsList(cmd *cobra.Command, _ []string) error {
	s, err := current.openStore()
	if err != nil {
		return err
	}
	list, err := s.ListMappings(cmd.Context())
	if err != nil {
		return err
	}
	r := &output.Report{
		Columns: []string{"Extension", "Category", "Folder"},
		Empty:   "No extension mappings",
		Data:    list,
	}
	for _, m := range list {
		r.AddRow(m.Extension, m.Category.String(), m.Folder)
	}
	return render(cmd, r)
}

func runMappingsSet(cmd *cobra.Command, args []string) error {
	cat, err := parseCategory(args[1])
	if err != nil {
		return err
	}
	s, err := current.openStore()
	if err != nil {
		return err
	}
	m := classify.Mapping{Extension: args[0], Category: cat, Folder: mappingFolder}
	if err := s.SetMapping(cmd.Context(), m); err != nil {
		return err
	}
	printInfo(cmd, "Mapped %s to %s", classify.Normalize(args[0]), cat)
	return nil
}

func runExclusionsList(cmd *cobra.Command, _ []string) error {
	s, err := current.openStore()
	if err != nil {
		return err
	}
	list, err := s.ListExclusions(cmd.Context())
	if err != nil {
		return err
	}
	r := &output.Report{
		Columns: []string{"ID", "Type", "Pattern"},
		Empty:   "No exclusions",
		Data:    list,
	}
	for _, e := range list {
		r.AddRow(strconv.FormatInt(e.ID, 10), string(e.Type), e.Pattern)
	}
	return render(cmd, r)
}

func runExclusionsAdd(cmd *cobra.Command, args []string) error {
	s, err := current.openStore()
	if err != nil {
		return err
	}
	for _, p := range parseCommaSeparated(args[0]) {
		id, err := s.AddExclusion(cmd.Context(), exclude.Rule{Pattern: p, Type: exclude.PatternType(exclusionType)})
		if err != nil {
			return err
		}
		printInfo(cmd, "Added exclusion %d (%s %s)", id, exclusionType, p)
	}
	return nil
}
