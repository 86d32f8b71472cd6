package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/teamboard/internal/pidfile"
	"github.com/grovetools/teamboard/pkg/paths"
	"github.com/grovetools/teamboard/pkg/process"
)

func newStopCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			out := cmd.OutOrStdout()
			if !running {
				fmt.Fprintln(out, "teamboard is not running")
				return nil
			}

			if err := process.Terminate(pid); err != nil {
				return err
			}
			fmt.Fprintf(out, "Sent SIGTERM to process %d\n", pid)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := process.WaitForExit(ctx, pid, 100*time.Millisecond); err != nil {
				return err
			}
			fmt.Fprintln(out, "Stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the server to exit")
	return cmd
}
