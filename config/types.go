package config

import (
	"time"

	"github.com/grovetools/teamboard/logging"
)

// Config is the complete teamboard server configuration.
type Config struct {
	// TeamsPath is the root of the watched teams tree.
	TeamsPath string `yaml:"teams_path" toml:"teams_path" mapstructure:"teams_path"`
	Host      string `yaml:"host" toml:"host" mapstructure:"host"`
	Port      int    `yaml:"port" toml:"port" mapstructure:"port"`
	// StaticDir, when set, is served at / (a built frontend).
	StaticDir string `yaml:"static_dir,omitempty" toml:"static_dir,omitempty" mapstructure:"static_dir"`

	Logging logging.Config `yaml:"logging" toml:"logging" mapstructure:"logging"`
	Stream  StreamConfig   `yaml:"stream" toml:"stream" mapstructure:"stream"`
	Watch   WatchConfig    `yaml:"watch" toml:"watch" mapstructure:"watch"`
	Lock    LockConfig     `yaml:"lock" toml:"lock" mapstructure:"lock"`
}

// StreamConfig controls the streaming client registry.
type StreamConfig struct {
	MaxClients        int           `yaml:"max_clients" toml:"max_clients" mapstructure:"max_clients"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" toml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	ReapInterval      time.Duration `yaml:"reap_interval" toml:"reap_interval" mapstructure:"reap_interval"`
}

// WatchConfig controls how filesystem events are settled and reloaded.
type WatchConfig struct {
	// StabilityThreshold is how long a file must stay unchanged before it is read.
	StabilityThreshold time.Duration `yaml:"stability_threshold" toml:"stability_threshold" mapstructure:"stability_threshold"`
	PollInterval       time.Duration `yaml:"poll_interval" toml:"poll_interval" mapstructure:"poll_interval"`
	// MessageLimit bounds the messages carried by a message:new event.
	MessageLimit int `yaml:"message_limit" toml:"message_limit" mapstructure:"message_limit"`
}

// LockConfig is the retry schedule for locked JSON reads.
type LockConfig struct {
	Retries    int           `yaml:"retries" toml:"retries" mapstructure:"retries"`
	MinBackoff time.Duration `yaml:"min_backoff" toml:"min_backoff" mapstructure:"min_backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff" toml:"max_backoff" mapstructure:"max_backoff"`
}

// Default values
const (
	DefaultHost               = "0.0.0.0"
	DefaultPort               = 3001
	DefaultMaxClients         = 100
	DefaultHeartbeatInterval  = 30 * time.Second
	DefaultReapInterval       = 60 * time.Second
	DefaultStabilityThreshold = 100 * time.Millisecond
	DefaultPollInterval       = 50 * time.Millisecond
	DefaultMessageLimit       = 10
	DefaultLockRetries        = 3
	DefaultLockMinBackoff     = 50 * time.Millisecond
	DefaultLockMaxBackoff     = 200 * time.Millisecond
)

// Default returns a Config populated with every default. TeamsPath is left
// empty so the path resolver applies TEAMS_PATH or the home-directory default.
func Default() *Config {
	return &Config{
		Host: DefaultHost,
		Port: DefaultPort,
		Logging: logging.Config{
			Level: "info",
		},
		Stream: StreamConfig{
			MaxClients:        DefaultMaxClients,
			HeartbeatInterval: DefaultHeartbeatInterval,
			ReapInterval:      DefaultReapInterval,
		},
		Watch: WatchConfig{
			StabilityThreshold: DefaultStabilityThreshold,
			PollInterval:       DefaultPollInterval,
			MessageLimit:       DefaultMessageLimit,
		},
		Lock: LockConfig{
			Retries:    DefaultLockRetries,
			MinBackoff: DefaultLockMinBackoff,
			MaxBackoff: DefaultLockMaxBackoff,
		},
	}
}

// Addr returns host:port for net.Listen.
func (c *Config) Addr() string {
	return joinHostPort(c.Host, c.Port)
}
