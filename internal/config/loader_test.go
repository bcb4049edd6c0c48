package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader() *Loader {
	return &Loader{v: viper.New()}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sidenum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWithFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
log_level: debug
transport:
  listen_addr: 10.0.0.5:18060
pipeline:
  train_type: 0
  rec_mode: 0
  dedup_window: 3s
metro:
  car_count: 8
`)
	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "10.0.0.5:18060", cfg.Transport.ListenAddr)
	assert.Equal(t, 0, cfg.Pipeline.TrainType)
	assert.Equal(t, 0, cfg.Pipeline.RecMode)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.DedupWindow)
	assert.Equal(t, 8, cfg.Metro.CarCount)

	// Untouched sections keep their defaults.
	assert.Equal(t, "127.0.0.1:18061", cfg.Transport.SendAddr)
	assert.Equal(t, "105-x", cfg.Pipeline.Channel)
	assert.EqualValues(t, 0.25, cfg.OCR.Thresh)
}

func TestLoadWithFilePropagatesTrainType(t *testing.T) {
	path := writeConfigFile(t, "pipeline:\n  train_type: 0\n")
	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Accumulator.TrainType)
}

func TestLoadWithFileRejectsInvalidConfig(t *testing.T) {
	path := writeConfigFile(t, "pipeline:\n  rec_mode: 7\n")
	_, err := newTestLoader().LoadWithFile(path)
	assert.ErrorContains(t, err, "rec_mode")
}

func TestLoadWithFileMissingFile(t *testing.T) {
	_, err := newTestLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("SIDENUM_LOG_LEVEL", "warn")
	path := writeConfigFile(t, "log_level: debug\n")
	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Transport.ListenAddr, cfg.Transport.ListenAddr)
}
