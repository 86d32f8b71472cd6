package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/grovetools/teamboard/errors"
	"github.com/grovetools/teamboard/pkg/paths"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

var configNames = []string{
	"teamboard.yml",
	"teamboard.yaml",
	"teamboard.toml",
}

// Load reads a configuration file on top of the defaults.
// Environment overrides are not applied; see LoadDefault.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg := Default()
	if err := decodeInto(cfg, data, formatFor(path)); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file").
			WithDetail("path", path)
	}
	return cfg, nil
}

// LoadFromBytes decodes data in the given format ("yaml" or "toml") over the defaults.
func LoadFromBytes(data []byte, format string) (*Config, error) {
	cfg := Default()
	if err := decodeInto(cfg, data, format); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config")
	}
	return cfg, nil
}

// LoadDefault builds the effective configuration:
// 1. Defaults
// 2. explicitPath if given, else the first teamboard.{yml,yaml,toml} in paths.ConfigDir()
// 3. Environment (TEAMS_PATH, HOST, PORT, LOG_LEVEL)
func LoadDefault(explicitPath string) (*Config, string, error) {
	path := explicitPath
	if path == "" {
		if found, err := FindConfigFile(paths.ConfigDir()); err == nil {
			path = found
		}
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// FindConfigFile returns the first teamboard config file in dir.
func FindConfigFile(dir string) (string, error) {
	if dir == "" {
		return "", errors.ConfigNotFound("teamboard.yml")
	}
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.ConfigNotFound(filepath.Join(dir, configNames[0]))
}

// ApplyEnv overlays the environment-level settings.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("TEAMS_PATH"); v != "" {
		c.TeamsPath = v
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "PORT is not a number").
				WithDetail("value", v)
		}
		c.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// decodeInto parses data into a generic map and decodes it over cfg, so keys
// absent from the file keep their current values.
func decodeInto(cfg *Config, data []byte, format string) error {
	expanded := []byte(expandEnvVars(string(data)))

	raw := make(map[string]interface{})
	switch format {
	case "toml":
		if err := toml.Unmarshal(expanded, &raw); err != nil {
			return err
		}
	default:
		if err := yaml.Unmarshal(expanded, &raw); err != nil {
			return err
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} references.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
