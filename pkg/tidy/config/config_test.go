package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	assert.Equal(t, DefaultDBPath(), cfg.Database.Path)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, DefaultCachePath(), cfg.Cache.Path)
	assert.Equal(t, DefaultBackupRoot(), cfg.Backup.Root)
	assert.Equal(t, DefaultWatchBuffer, cfg.Watch.Buffer)
	assert.Equal(t, DefaultWatchPoll, cfg.Watch.Poll)
	assert.Equal(t, DefaultOutputFormat, cfg.Output.Format)
	assert.Equal(t, DefaultLargeFileMB, cfg.LargeFileMB)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "10MB", cfg.Logging.Rotation.MaxSize)
	assert.Equal(t, "warn", cfg.Logging.Components["watcher"])
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	configDir := filepath.Join(tempDir, "tidy")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	content := `
database:
  path: /srv/tidy/tidy.db
cache:
  enabled: false
watch:
  poll: 250ms
output:
  format: json
large_file_mb: 42
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/tidy/tidy.db", cfg.Database.Path)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Poll)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 42, cfg.LargeFileMB)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DefaultTreeDepth, cfg.TreeDepth)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TIDY_OUTPUT_FORMAT", "yaml")
	t.Setenv("TIDY_LARGE_FILE_MB", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, 7, cfg.LargeFileMB)
}

func TestLoadFile_ExplicitAndTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backup:\n  root: ~/snapshots\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "snapshots"), cfg.Backup.Root)
}

func TestLoadViper_BoundFlagWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: yaml\ndatabase:\n  path: /from/file.db\n"), 0o644))

	flags := pflag.NewFlagSet("tidy", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("format", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "/from/flag.db"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("database.path", flags.Lookup("db")))
	require.NoError(t, v.BindPFlag("output.format", flags.Lookup("format")))

	cfg, err := LoadViper(v, path)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.Database.Path)
	assert.Equal(t, "yaml", cfg.Output.Format, "an unchanged flag does not override the file")
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unterminated"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := WriteDefault()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "large_file_mb: 100")

	// A second call leaves the existing file alone.
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n"), 0o644))
	_, err = WriteDefault()
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), got)

	got, err = ExpandPath("/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", got)
}
