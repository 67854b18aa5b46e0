package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

// These tests share the package's global state and do not run in parallel.

func TestInit(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  logging.Config{Level: "info", Path: filepath.Join(t.TempDir(), "tidy.log")},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(t.TempDir(), "tidy.log"),
				Components: map[string]string{"rules": "debug", "history": "warn"},
			},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud", Path: filepath.Join(t.TempDir(), "tidy.log")},
			wantErr: true,
		},
		{
			name:    "invalid component level",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(t.TempDir(), "tidy.log"), Components: map[string]string{"x": "nope"}},
			wantErr: true,
		},
		{
			name:    "parent is a file",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(blocker, "tidy.log")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			require.NoError(t, logging.Close())
		})
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tidy.log")

	// Loggers obtained before Init must pick up the file sink afterwards.
	early := logging.Get("early")

	require.NoError(t, logging.Init(logging.Config{Level: "debug", Path: path}))

	early.Info("before init handle", "k", "v")
	logging.Get("fileops").Debug("moved file", "path", "/tmp/a")
	logging.Get("fileops").With("batch", 7).Warn("skipped")

	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "before init handle")
	assert.Contains(t, content, "moved file")
	assert.Contains(t, content, "batch=7")
	assert.Contains(t, content, "fileops")
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tidy.log")
	require.NoError(t, logging.Init(logging.Config{
		Level:      "warn",
		Path:       path,
		Components: map[string]string{"verbose": "debug"},
	}))

	logging.Get("quiet").Info("hidden message")
	logging.Get("verbose").Debug("shown message")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden message")
	assert.Contains(t, string(data), "shown message")
}

func TestLoggingAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tidy.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: path}))
	logger := logging.Get("closing")
	require.NoError(t, logging.Close())

	logger.Info("discarded")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "discarded")
}

func TestConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tidy.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: path}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger := logging.Get("worker")
			for j := 0; j < 50; j++ {
				logger.Info("tick")
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 400, strings.Count(string(data), "tick"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"trace", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	assert.Equal(t, "warn", logging.LevelWarn.String())
}

func TestDefaultLogPath(t *testing.T) {
	path := logging.DefaultLogPath()
	assert.Equal(t, "tidy.log", filepath.Base(path))
	assert.Equal(t, "tidy", filepath.Base(filepath.Dir(path)))
}
