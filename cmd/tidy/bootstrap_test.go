package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

func TestParseRotationConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    config.RotationConfig
		expected logging.RotationConfig
	}{
		{
			name:     "default values",
			input:    config.RotationConfig{MaxSize: "10MB", MaxAge: 30, MaxBackups: 5, Daily: true},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxAge: 30, MaxBackups: 5, Daily: true},
		},
		{
			name:     "custom size in gigabytes",
			input:    config.RotationConfig{MaxSize: "1G", MaxAge: 7, MaxBackups: 3},
			expected: logging.RotationConfig{MaxSize: 1024 * 1024 * 1024, MaxAge: 7, MaxBackups: 3},
		},
		{
			name:     "empty max_size uses default",
			input:    config.RotationConfig{MaxAge: 14, MaxBackups: 2, Daily: true},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxAge: 14, MaxBackups: 2, Daily: true},
		},
		{
			name:     "invalid max_size uses default",
			input:    config.RotationConfig{MaxSize: "invalid", MaxAge: 21, MaxBackups: 4},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxAge: 21, MaxBackups: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRotationConfig(tt.input)
			assert.Equal(t, tt.expected.MaxSize, got.MaxSize)
			assert.Equal(t, tt.expected.MaxAge, got.MaxAge)
			assert.Equal(t, tt.expected.MaxBackups, got.MaxBackups)
			assert.Equal(t, tt.expected.Daily, got.Daily)
		})
	}
}

func TestInitializeLoggingEnsuresDirectories(t *testing.T) {
	// XDG paths are resolved at package init, so the real locations are
	// checked rather than temporary ones.
	cfgFile = writeTestConfig(t, t.TempDir())
	t.Cleanup(func() {
		cfgFile = ""
		shutdown()
	})

	require.NoError(t, initializeLogging(nil, nil))

	configDir, err := config.ConfigDir()
	require.NoError(t, err)
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir(), config.CacheDir()} {
		assert.DirExists(t, dir)
	}
	require.NotNil(t, current.cfg)
	assert.False(t, current.cfg.Cache.Enabled)
}
