package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change stored preferences",
	Long: `Preferences live in the database next to rules and history, unlike
config.yaml which describes the installation.`,
	RunE: runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one preference",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one preference",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

// settingKeys maps each known key to whether it holds a boolean.
var settingKeys = map[string]bool{
	store.KeyDesktopPath:           false,
	store.KeyLanguage:              false,
	store.KeyTheme:                 false,
	store.KeyEnableWatcher:         true,
	store.KeyAutoOrganizeOnStartup: true,
	store.KeyDefaultDateFormat:     false,
	store.KeyShowHiddenFiles:       true,
	store.KeyConfirmBeforeDelete:   true,
	store.KeyUseTrash:              true,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func checkSettingKey(key string) (bool, error) {
	isBool, ok := settingKeys[key]
	if !ok {
		known := make([]string, 0, len(settingKeys))
		for k := range settingKeys {
			known = append(known, k)
		}
		sort.Strings(known)
		return false, fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(known, ", "))
	}
	return isBool, nil
}

// settingValues returns every preference as key/value pairs in display
// order.
func settingValues(st store.Settings) [][2]string {
	return [][2]string{
		{store.KeyDesktopPath, st.DesktopPath},
		{store.KeyLanguage, st.Language},
		{store.KeyTheme, st.Theme},
		{store.KeyEnableWatcher, strconv.FormatBool(st.EnableWatcher)},
		{store.KeyAutoOrganizeOnStartup, strconv.FormatBool(st.AutoOrganizeOnStartup)},
		{store.KeyDefaultDateFormat, st.DefaultDateFormat},
		{store.KeyShowHiddenFiles, strconv.FormatBool(st.ShowHiddenFiles)},
		{store.KeyConfirmBeforeDelete, strconv.FormatBool(st.ConfirmBeforeDelete)},
		{store.KeyUseTrash, strconv.FormatBool(st.UseTrash)},
	}
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	st, err := current.settings(cmd.Context())
	if err != nil {
		return err
	}
	r := &output.Report{Columns: []string{"Key", "Value"}, Data: st}
	for _, kv := range settingValues(st) {
		r.AddRow(kv[0], kv[1])
	}
	return render(cmd, r)
}

// runSettingsGet prints the effective value, the default when unset.
func runSettingsGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := checkSettingKey(key); err != nil {
		return err
	}
	st, err := current.settings(cmd.Context())
	if err != nil {
		return err
	}
	for _, kv := range settingValues(st) {
		if kv[0] == key {
			fmt.Fprintln(cmd.OutOrStdout(), kv[1])
			break
		}
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	isBool, err := checkSettingKey(key)
	if err != nil {
		return err
	}
	if isBool {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s takes true or false, got %q", key, value)
		}
		value = strconv.FormatBool(b)
	}

	s, err := current.openStore()
	if err != nil {
		return err
	}
	if err := s.SetSetting(cmd.Context(), key, value); err != nil {
		return err
	}
	printInfo(cmd, "%s = %s", key, value)
	return nil
}
