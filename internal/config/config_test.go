package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/barologd/internal/config"
	"codeberg.org/mutker/barologd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setArgs replaces os.Args for the duration of the test so the flag set
// never sees the test binary's own flags.
func setArgs(t *testing.T, args ...string) {
	t.Helper()

	saved := os.Args
	os.Args = append([]string{"barologd"}, args...)
	t.Cleanup(func() { os.Args = saved })
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "barologd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	setArgs(t)
	t.Setenv("BAROLOGD_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Interval)
	assert.Equal(t, 2500, cfg.TimeoutMS)
	assert.False(t, cfg.UseForeground)
	assert.Equal(t, "/var/lib/barologd/barometer.db", cfg.Database)
	assert.Equal(t, 60, cfg.RecentDays)
	assert.Equal(t, 0x76, cfg.SensorAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Debug)
}

func TestLoadFromFile(t *testing.T) {
	setArgs(t)
	path := writeConfigFile(t, `
interval = 5
timeout_ms = 1000
use_foreground = true
database = "/tmp/baro-test.db"
log_level = "debug"
`)
	t.Setenv("BAROLOGD_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, 1000, cfg.TimeoutMS)
	assert.True(t, cfg.UseForeground)
	assert.Equal(t, "/tmp/baro-test.db", cfg.Database)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFlagsOverrideFile(t *testing.T) {
	setArgs(t, "--interval=30", "--use-foreground")
	path := writeConfigFile(t, `
interval = 5
use_foreground = false
`)
	t.Setenv("BAROLOGD_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Interval)
	assert.True(t, cfg.UseForeground)
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	setArgs(t)
	path := writeConfigFile(t, "interval = 0\n")
	t.Setenv("BAROLOGD_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidInterval, errors.CodeOf(err))
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	setArgs(t)
	path := writeConfigFile(t, `log_level = "chatty"`)
	t.Setenv("BAROLOGD_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidLogLevel, errors.CodeOf(err))
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	setArgs(t)
	path := writeConfigFile(t, "interval = [not toml")
	t.Setenv("BAROLOGD_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		Interval:  15,
		TimeoutMS: 2500,
		Database:  "/tmp/baro.db",
		LogLevel:  "info",
	}
	assert.NoError(t, valid.Validate())

	noTimeout := valid
	noTimeout.TimeoutMS = 0
	assert.Error(t, noTimeout.Validate())

	noDatabase := valid
	noDatabase.Database = ""
	assert.Error(t, noDatabase.Validate())
}
