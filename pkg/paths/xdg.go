// Package paths resolves every on-disk location teamboard touches.
//
// Teamboard's own directories resolve in this order:
// 1. TEAMBOARD_HOME (portable root) → $TEAMBOARD_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/teamboard
// 3. Platform defaults → ~/.config/teamboard, ~/.local/state/teamboard
//
// The watched teams tree resolves from TEAMS_PATH, else ~/.claude/teams.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "teamboard"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("TEAMBOARD_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("TEAMBOARD_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the teamboard configuration directory.
// Used for teamboard.yml / teamboard.toml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the teamboard state directory.
// Used for the pid file.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	if os.Getenv("TEAMBOARD_HOME") != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// PidFilePath returns the path to the server PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), appName+".pid")
}

// DefaultTeamsRoot returns the watched teams directory.
func DefaultTeamsRoot() string {
	if p := os.Getenv("TEAMS_PATH"); p != "" {
		return p
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".claude", "teams")
	}
	return filepath.Join(".claude", "teams")
}
