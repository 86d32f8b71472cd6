package errors

import (
	"fmt"
)

// TeamNotFound creates a team not found error
func TeamNotFound(teamID string) *TeamboardError {
	return New(ErrCodeNotFound, fmt.Sprintf("team '%s' not found", teamID)).
		WithDetail("teamId", teamID)
}

// ParseFailed creates an error for a file that exists but holds malformed JSON
func ParseFailed(path string, err error) *TeamboardError {
	return Wrap(err, ErrCodeParseError, fmt.Sprintf("failed to parse %s", path)).
		WithDetail("path", path)
}

// LockTimeout creates an error for a file lock that could not be acquired
func LockTimeout(path string, attempts int) *TeamboardError {
	return New(ErrCodeLockTimeout,
		fmt.Sprintf("could not lock %s after %d attempts", path, attempts)).
		WithDetail("path", path).
		WithDetail("attempts", attempts)
}

// InvalidTeamID creates a validation error for an unsafe team identifier
func InvalidTeamID(teamID string) *TeamboardError {
	return New(ErrCodeValidation, fmt.Sprintf("invalid team id: %q", teamID)).
		WithDetail("teamId", teamID)
}

// InvalidParam creates a validation error for a malformed query parameter
func InvalidParam(name, value string) *TeamboardError {
	return New(ErrCodeValidation, fmt.Sprintf("invalid value for '%s': %q", name, value)).
		WithDetail("param", name)
}

// CapacityReached creates an error for a full client registry
func CapacityReached(max int) *TeamboardError {
	return New(ErrCodeCapacity,
		fmt.Sprintf("maximum number of connections reached (%d)", max)).
		WithDetail("max", max)
}

// TransportFailed creates an error for a write to a dead connection
func TransportFailed(clientID string, err error) *TeamboardError {
	return Wrap(err, ErrCodeTransport, "write to client failed").
		WithDetail("clientId", clientID)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *TeamboardError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *TeamboardError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}
