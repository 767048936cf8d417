package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POSECOACH_DATA_DIR", dir)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, filepath.Join(dir, "posecoach.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "plugins"), cfg.PluginDir)
	assert.Equal(t, 10, cfg.ProgressInterval)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, DetectorMediaPipe, cfg.Detector)
	assert.False(t, cfg.Tray, "Tray should default to false")
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("POSECOACH_ADDR", "127.0.0.1:9000")
	t.Setenv("POSECOACH_DB_PATH", "/tmp/x.db")
	t.Setenv("POSECOACH_PROGRESS_INTERVAL", "5")
	t.Setenv("POSECOACH_WORKERS", "4")
	t.Setenv("POSECOACH_DETECTOR", "Mock")
	t.Setenv("POSECOACH_TRAY", "yes")
	t.Setenv("POSECOACH_MIN_DETECTION_CONFIDENCE", "0.7")
	t.Setenv("POSECOACH_MODEL_COMPLEXITY", "2")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 5, cfg.ProgressInterval)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2, cfg.ModelComplexity)
	assert.Equal(t, DetectorMock, cfg.Detector)
	assert.True(t, cfg.Tray)
	assert.Equal(t, 0.7, cfg.MinDetectionConfidence)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"POSECOACH_PROGRESS_INTERVAL", "ten"},
		{"POSECOACH_PROGRESS_INTERVAL", "0"},
		{"POSECOACH_WORKERS", "-1"},
		{"POSECOACH_TRAY", "maybe"},
		{"POSECOACH_DETECTOR", "openpose"},
		{"POSECOACH_MIN_TRACKING_CONFIDENCE", "1.5"},
		{"POSECOACH_MODEL_COMPLEXITY", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key, "error should name the variable")
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("POSECOACH_WORKERS=3\n"), 0644))

	// godotenv.Load sets variables in the process; register cleanup first.
	t.Setenv("POSECOACH_WORKERS", "")
	os.Unsetenv("POSECOACH_WORKERS")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers, "workers should come from the env file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err, "missing env file should be ignored")
}
