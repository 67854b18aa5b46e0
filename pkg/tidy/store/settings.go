package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Setting keys.
const (
	KeyDesktopPath           = "desktop_path"
	KeyLanguage              = "language"
	KeyTheme                 = "theme"
	KeyEnableWatcher         = "enable_watcher"
	KeyAutoOrganizeOnStartup = "auto_organize_on_startup"
	KeyDefaultDateFormat     = "default_date_format"
	KeyShowHiddenFiles       = "show_hidden_files"
	KeyConfirmBeforeDelete   = "confirm_before_delete"
	KeyUseTrash              = "use_trash"
)

// Settings are the user preferences persisted in the settings table.
type Settings struct {
	DesktopPath           string `json:"desktop_path" yaml:"desktop_path"`
	Language              string `json:"language" yaml:"language"`
	Theme                 string `json:"theme" yaml:"theme"`
	EnableWatcher         bool   `json:"enable_watcher" yaml:"enable_watcher"`
	AutoOrganizeOnStartup bool   `json:"auto_organize_on_startup" yaml:"auto_organize_on_startup"`
	DefaultDateFormat     string `json:"default_date_format" yaml:"default_date_format"`
	ShowHiddenFiles       bool   `json:"show_hidden_files" yaml:"show_hidden_files"`
	ConfirmBeforeDelete   bool   `json:"confirm_before_delete" yaml:"confirm_before_delete"`
	UseTrash              bool   `json:"use_trash" yaml:"use_trash"`
}

// DefaultSettings returns the preferences of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Language:            "ko",
		Theme:               "dark",
		DefaultDateFormat:   "YYYY-MM",
		ConfirmBeforeDelete: true,
		UseTrash:            true,
	}
}

// GetSetting returns a raw value and whether it is set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if isNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return v, true, nil
}

// SetSetting stores a raw value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving setting %s: %w", key, err)
	}
	logger.Debug("saved setting", "key", key)
	return nil
}

// AllSettings returns every stored raw value.
func (s *Store) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("listing settings: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// LoadSettings returns the stored preferences with defaults filled in for
// missing keys. Unparsable booleans keep their default.
func (s *Store) LoadSettings(ctx context.Context) (Settings, error) {
	raw, err := s.AllSettings(ctx)
	if err != nil {
		return Settings{}, err
	}

	st := DefaultSettings()
	str := func(key string, dst *string) {
		if v, ok := raw[key]; ok {
			*dst = v
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := raw[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str(KeyDesktopPath, &st.DesktopPath)
	str(KeyLanguage, &st.Language)
	str(KeyTheme, &st.Theme)
	flag(KeyEnableWatcher, &st.EnableWatcher)
	flag(KeyAutoOrganizeOnStartup, &st.AutoOrganizeOnStartup)
	str(KeyDefaultDateFormat, &st.DefaultDateFormat)
	flag(KeyShowHiddenFiles, &st.ShowHiddenFiles)
	flag(KeyConfirmBeforeDelete, &st.ConfirmBeforeDelete)
	flag(KeyUseTrash, &st.UseTrash)
	return st, nil
}

// SaveSettings stores every preference.
func (s *Store) SaveSettings(ctx context.Context, st Settings) error {
	for k, v := range st.values() {
		if err := s.SetSetting(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (st Settings) values() map[string]string {
	return map[string]string{
		KeyDesktopPath:           st.DesktopPath,
		KeyLanguage:              st.Language,
		KeyTheme:                 st.Theme,
		KeyEnableWatcher:         strconv.FormatBool(st.EnableWatcher),
		KeyAutoOrganizeOnStartup: strconv.FormatBool(st.AutoOrganizeOnStartup),
		KeyDefaultDateFormat:     st.DefaultDateFormat,
		KeyShowHiddenFiles:       strconv.FormatBool(st.ShowHiddenFiles),
		KeyConfirmBeforeDelete:   strconv.FormatBool(st.ConfirmBeforeDelete),
		KeyUseTrash:              strconv.FormatBool(st.UseTrash),
	}
}
