package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the serve command and ApplyFlags.
const (
	FlagTeamsPath  = "teams-path"
	FlagHost       = "host"
	FlagPort       = "port"
	FlagStaticDir  = "static-dir"
	FlagMaxClients = "max-clients"
	FlagLogLevel   = "log-level"
)

// RegisterFlags adds the server flags to fs. Defaults shown in help come from
// Default(); only flags the user actually sets override file and environment.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagTeamsPath, "", "Root directory of team folders (default $TEAMS_PATH or ~/.claude/teams)")
	fs.String(FlagHost, d.Host, "Listen host")
	fs.IntP(FlagPort, "p", d.Port, "Listen port")
	fs.String(FlagStaticDir, "", "Directory of a built frontend to serve at /")
	fs.Int(FlagMaxClients, d.Stream.MaxClients, "Maximum concurrent streaming clients")
	fs.String(FlagLogLevel, "", "Log level (debug, info, warn, error)")
}

// ApplyFlags overlays every flag in fs that was explicitly set.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagTeamsPath) {
		if c.TeamsPath, err = fs.GetString(FlagTeamsPath); err != nil {
			return err
		}
	}
	if fs.Changed(FlagHost) {
		if c.Host, err = fs.GetString(FlagHost); err != nil {
			return err
		}
	}
	if fs.Changed(FlagPort) {
		if c.Port, err = fs.GetInt(FlagPort); err != nil {
			return err
		}
	}
	if fs.Changed(FlagStaticDir) {
		if c.StaticDir, err = fs.GetString(FlagStaticDir); err != nil {
			return err
		}
	}
	if fs.Changed(FlagMaxClients) {
		if c.Stream.MaxClients, err = fs.GetInt(FlagMaxClients); err != nil {
			return err
		}
	}
	if fs.Changed(FlagLogLevel) {
		if c.Logging.Level, err = fs.GetString(FlagLogLevel); err != nil {
			return err
		}
	}
	return nil
}
