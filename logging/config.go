package logging

// Config defines the logging section of teamboard.yml.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by TEAMBOARD_LOG_LEVEL or LOG_LEVEL.
	Level string `yaml:"level" toml:"level" mapstructure:"level"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	// Can be enabled with TEAMBOARD_LOG_CALLER=true.
	ReportCaller bool `yaml:"report_caller" toml:"report_caller" mapstructure:"report_caller"`

	// Format configures the appearance of the log output.
	Format FormatConfig `yaml:"format" toml:"format" mapstructure:"format"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset can be "default" (rich text), "simple" (minimal text), or "json".
	Preset string `yaml:"preset" toml:"preset" mapstructure:"preset"`
	// DisableTimestamp disables the timestamp from the "default" and "simple" formats.
	DisableTimestamp bool `yaml:"disable_timestamp" toml:"disable_timestamp" mapstructure:"disable_timestamp"`
	// DisableComponent disables the component name from the "default" and "simple" formats.
	DisableComponent bool `yaml:"disable_component" toml:"disable_component" mapstructure:"disable_component"`
	// DisableColor turns off component styling even on a terminal.
	DisableColor bool `yaml:"disable_color" toml:"disable_color" mapstructure:"disable_color"`
}
