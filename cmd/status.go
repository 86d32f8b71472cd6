package cmd

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/teamboard/cli"
	"github.com/grovetools/teamboard/internal/pidfile"
	"github.com/grovetools/teamboard/pkg/client"
	"github.com/grovetools/teamboard/pkg/paths"
)

// ErrNotRunning is returned by status when no server is running, so scripts
// see a non-zero exit.
var ErrNotRunning = stderrors.New("teamboard is not running")

type statusReport struct {
	Running bool            `json:"running"`
	PID     int             `json:"pid,omitempty"`
	Server  json.RawMessage `json:"server,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			report := statusReport{Running: running, PID: pid}

			if running {
				if cfg, _, err := loadConfig(cmd); err == nil {
					remote := client.NewRemoteClient(client.BaseURL(cfg.Host, cfg.Port))
					report.Server, _ = remote.Status(cmd.Context())
					_ = remote.Close()
				}
			}

			out := cmd.OutOrStdout()
			switch {
			case cli.GetOptions(cmd).JSONOutput:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			case running:
				fmt.Fprintf(out, "Running (PID: %d)\n", pid)
				var s struct {
					Clients int    `json:"clients"`
					Uptime  string `json:"uptime"`
				}
				if report.Server != nil && json.Unmarshal(report.Server, &s) == nil {
					fmt.Fprintf(out, "Clients: %d\nUptime:  %s\n", s.Clients, s.Uptime)
				}
			default:
				fmt.Fprintln(out, "Stopped")
			}

			if !running {
				return ErrNotRunning
			}
			return nil
		},
	}
}
