package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Path         string            `mapstructure:"path"`
	Rotation     RotationConfig    `mapstructure:"rotation"`
	Components   map[string]string `mapstructure:"components"`
}

// Config represents the application configuration.
type Config struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Cache struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`
	Backup struct {
		Root string `mapstructure:"root"`
	} `mapstructure:"backup"`
	Watch struct {
		Buffer int           `mapstructure:"buffer"`
		Poll   time.Duration `mapstructure:"poll"`
	} `mapstructure:"watch"`
	Output struct {
		Format string `mapstructure:"format"`
	} `mapstructure:"output"`
	LargeFileMB int           `mapstructure:"large_file_mb"`
	TreeDepth   int           `mapstructure:"tree_depth"`
	HashWorkers int           `mapstructure:"hash_workers"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

// Load reads configuration from file and environment variables.
// Config file locations, in order of precedence:
//   - $XDG_CONFIG_HOME/tidy/config.yaml
//   - $HOME/.config/tidy/config.yaml
//
// Environment variables use the TIDY_ prefix (TIDY_DATABASE_PATH).
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches
// the default locations.
func LoadFile(path string) (*Config, error) {
	return LoadViper(viper.New(), path)
}

// LoadViper is LoadFile on a caller-supplied viper instance. Flags bound
// to v with BindPFlag take precedence over the file and environment.
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("TIDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.Database.Path, &cfg.Cache.Path, &cfg.Backup.Root, &cfg.Logging.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	return &cfg, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDBPath())
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath())
	v.SetDefault("backup.root", DefaultBackupRoot())
	v.SetDefault("watch.buffer", DefaultWatchBuffer)
	v.SetDefault("watch.poll", DefaultWatchPoll)
	v.SetDefault("output.format", DefaultOutputFormat)
	v.SetDefault("large_file_mb", DefaultLargeFileMB)
	v.SetDefault("tree_depth", DefaultTreeDepth)
	v.SetDefault("hash_workers", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"watcher": "warn",
	})
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "tidy"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tidy"), nil
}

// WriteDefault writes a commented default config file if none exists and
// returns its path.
func WriteDefault() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	content := fmt.Sprintf(`# tidy configuration

database:
  # SQLite database holding rules, settings and history
  path: %s

cache:
  # Fingerprint cache used by duplicate scans
  enabled: true
  path: %s

backup:
  # Folder that holds backup snapshots
  root: %s

watch:
  buffer: %d
  poll: %s

output:
  # pretty, json or yaml
  format: %s

large_file_mb: %d
tree_depth: %d
# Concurrent hashing workers for duplicate scans (0 sizes from CPU count)
hash_workers: 0

logging:
  # debug, info, warn, error
  level: info
  # Mirror logs to stderr at this level (empty disables)
  console_level: ""
  # Empty means $XDG_STATE_HOME/tidy/tidy.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30
    max_backups: 5
    daily: true
  components:
    watcher: warn
`, DefaultDBPath(), DefaultCachePath(), DefaultBackupRoot(), DefaultWatchBuffer, DefaultWatchPoll,
		DefaultOutputFormat, DefaultLargeFileMB, DefaultTreeDepth)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/tidy/.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "tidy")
}

// StateDir returns $XDG_STATE_HOME/tidy/.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "tidy")
}

// CacheDir returns $XDG_CACHE_HOME/tidy/.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "tidy")
}

// DefaultDBPath returns the default SQLite database path.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "tidy.db")
}

// DefaultCachePath returns the default fingerprint cache directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "fingerprints")
}

// DefaultBackupRoot returns the default backup snapshot folder.
func DefaultBackupRoot() string {
	return filepath.Join(DataDir(), "backups")
}
