package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/teamboard/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TEAMS_PATH", "HOST", "PORT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, 100, cfg.Stream.MaxClients)
	assert.Equal(t, 30*time.Second, cfg.Stream.HeartbeatInterval)
	assert.Equal(t, 60*time.Second, cfg.Stream.ReapInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.StabilityThreshold)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.PollInterval)
	assert.Equal(t, 10, cfg.Watch.MessageLimit)
	assert.Equal(t, 3, cfg.Lock.Retries)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "teamboard.yml")
	content := `
teams_path: /srv/teams
port: 4000
logging:
  level: debug
stream:
  max_clients: 5
  heartbeat_interval: 10s
watch:
  stability_threshold: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/teams", cfg.TeamsPath)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Stream.MaxClients)
	assert.Equal(t, 10*time.Second, cfg.Stream.HeartbeatInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.StabilityThreshold)

	// Untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 60*time.Second, cfg.Stream.ReapInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.PollInterval)
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "teamboard.toml")
	content := `
host = "127.0.0.1"
port = 5000

[lock]
retries = 5
min_backoff = "10ms"
max_backoff = "80ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 5, cfg.Lock.Retries)
	assert.Equal(t, 10*time.Millisecond, cfg.Lock.MinBackoff)
	assert.Equal(t, 80*time.Millisecond, cfg.Lock.MaxBackoff)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("BOARD_ROOT", "/data/teams")
	t.Setenv("BOARD_UNSET", "")

	cfg, err := LoadFromBytes([]byte("teams_path: ${BOARD_ROOT}\nhost: ${BOARD_UNSET:-localhost}\n"), "yaml")
	require.NoError(t, err)
	assert.Equal(t, "/data/teams", cfg.TeamsPath)
	assert.Equal(t, "localhost", cfg.Host)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))

	path := filepath.Join(t.TempDir(), "teamboard.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not, a, port"), 0644))
	_, err = Load(path)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEAMS_PATH", "/env/teams")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/env/teams", cfg.TeamsPath)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	t.Setenv("PORT", "eighty")
	err := Default().ApplyEnv()
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestLoadDefaultPrecedence(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("TEAMBOARD_HOME", home)
	configDir := filepath.Join(home, "config", "teamboard")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "teamboard.yml"), []byte("port: 4100\nhost: 10.0.0.1\n"), 0644))

	t.Setenv("PORT", "4200")

	cfg, path, err := LoadDefault("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configDir, "teamboard.yml"), path)
	assert.Equal(t, 4200, cfg.Port, "environment beats file")
	assert.Equal(t, "10.0.0.1", cfg.Host, "file beats default")
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEAMBOARD_HOME", t.TempDir())

	cfg, path, err := LoadDefault("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--port", "9000", "--teams-path", "/flag/teams", "--max-clients", "3"}))

	cfg := Default()
	cfg.Host = "from-file"
	require.NoError(t, cfg.ApplyFlags(fs))

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/flag/teams", cfg.TeamsPath)
	assert.Equal(t, 3, cfg.Stream.MaxClients)
	assert.Equal(t, "from-file", cfg.Host, "unset flags must not override")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"port zero picks free port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, false},
		{"no clients", func(c *Config) { c.Stream.MaxClients = 0 }, false},
		{"zero heartbeat", func(c *Config) { c.Stream.HeartbeatInterval = 0 }, false},
		{"zero reap", func(c *Config) { c.Stream.ReapInterval = 0 }, false},
		{"zero stability", func(c *Config) { c.Watch.StabilityThreshold = 0 }, false},
		{"zero poll", func(c *Config) { c.Watch.PollInterval = 0 }, false},
		{"zero message limit", func(c *Config) { c.Watch.MessageLimit = 0 }, false},
		{"negative retries", func(c *Config) { c.Lock.Retries = -1 }, false},
		{"zero retries", func(c *Config) { c.Lock.Retries = 0 }, true},
		{"inverted backoff", func(c *Config) { c.Lock.MaxBackoff = time.Millisecond }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid), "got %v", err)
			}
		})
	}
}
