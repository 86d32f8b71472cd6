// Package process inspects and signals other processes by PID.
package process

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// IsProcessAlive reports whether a process with the given PID exists.
// Signal 0 probes without delivering anything; EPERM still means alive.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// Terminate asks the process to exit with SIGTERM.
func Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}
	return nil
}

// WaitForExit polls until the process is gone or ctx ends.
func WaitForExit(ctx context.Context, pid int, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for IsProcessAlive(pid) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("pid %d still running: %w", pid, ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
