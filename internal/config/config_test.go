package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultsMatchCode(t *testing.T) {
	var embedded TetrionConfig
	require.NoError(t, yaml.Unmarshal(defaultTetrionYAML, &embedded))
	assert.Equal(t, DefaultTetrionConfig(), embedded)
	require.NoError(t, embedded.Validate())
}

func TestLoadCustomPathOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	data := []byte("simulation:\n  tick_rate: 30\ninput:\n  das_steps: 7\nssh:\n  idle_timeout: 90s\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Chdir(dir)
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvRecordingsDir, "")
	t.Setenv(EnvDB, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Simulation.TickRate)
	assert.Equal(t, uint64(7), cfg.Input.DASSteps)
	assert.Equal(t, uint64(2), cfg.Input.ARRSteps, "missing fields keep defaults")
	assert.Equal(t, 90*time.Second, cfg.SSH.IdleTimeout)
	assert.Equal(t, DefaultTetrionConfig().Controls, cfg.Controls)
}

func TestLoadMissingCustomPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: [1, 2"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadLocalConfigsDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "tetrion.yaml"), []byte("simulation:\n  starting_level: 3\n"), 0o600))
	t.Chdir(dir)
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvRecordingsDir, "")
	t.Setenv(EnvDB, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cfg.Simulation.StartingLevel)
	assert.Equal(t, 60, cfg.Simulation.TickRate)
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvRecordingsDir, "/tmp/recs")
	t.Setenv(EnvDB, "")
	require.NoError(t, os.Unsetenv(EnvDB)) // restored by the Setenv cleanup

	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFile), []byte(EnvDB+"=/tmp/from-dotenv.db\n"+EnvLogLevel+"=error\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level, "process environment wins over .env")
	assert.Equal(t, "/tmp/recs", cfg.Recording.Directory)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Storage.DBPath)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDB:            " /data/t.db ",
		EnvRecordingsDir: "",
	}
	cfg := DefaultTetrionConfig()
	applyEnv(&cfg, func(key string) string { return env[key] })

	assert.Equal(t, "/data/t.db", cfg.Storage.DBPath)
	assert.Equal(t, DefaultTetrionConfig().Recording.Directory, cfg.Recording.Directory)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TetrionConfig)
		ok     bool
	}{
		{"defaults", func(*TetrionConfig) {}, true},
		{"zero tick rate", func(c *TetrionConfig) { c.Simulation.TickRate = 0 }, false},
		{"zero das", func(c *TetrionConfig) { c.Input.DASSteps = 0 }, false},
		{"zero arr", func(c *TetrionConfig) { c.Input.ARRSteps = 0 }, false},
		{"bad level", func(c *TetrionConfig) { c.Log.Level = "loud" }, false},
		{"bad format", func(c *TetrionConfig) { c.Log.Format = "xml" }, false},
		{"no recording dir", func(c *TetrionConfig) { c.Recording.Directory = "" }, false},
		{"no recording dir when disabled", func(c *TetrionConfig) {
			c.Recording.Directory = ""
			c.Recording.Enabled = false
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTetrionConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestLogFormatter(t *testing.T) {
	cfg := DefaultTetrionConfig()
	assert.Equal(t, log.TextFormatter, cfg.LogFormatter())
	cfg.Log.Format = "JSON"
	assert.Equal(t, log.JSONFormatter, cfg.LogFormatter())
	cfg.Log.Format = "logfmt"
	assert.Equal(t, log.LogfmtFormatter, cfg.LogFormatter())
}

func TestDifficultyPresets(t *testing.T) {
	cfg := DefaultTetrionConfig()
	ApplyDifficultyPreset(&cfg, DifficultyMaster)
	assert.Equal(t, uint32(19), cfg.Simulation.StartingLevel)
	assert.Equal(t, uint64(1), cfg.Input.ARRSteps)
	require.NoError(t, cfg.Validate())

	p, err := ParseDifficultyPreset("hard")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, p)

	_, err = ParseDifficultyPreset("impossible")
	require.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "x", "y"), ExpandHome("~/x/y"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/abs", ExpandHome("/abs"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
