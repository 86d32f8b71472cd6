package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/teamboard/cli"
	"github.com/grovetools/teamboard/pkg/client"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow the live event stream of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			remote := client.NewRemoteClient(client.BaseURL(cfg.Host, cfg.Port))
			defer remote.Close()

			events, err := remote.Events(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			asJSON := cli.GetOptions(cmd).JSONOutput
			enc := json.NewEncoder(out)
			for ev := range events {
				if asJSON {
					if err := enc.Encode(ev); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s %s %s\n",
					time.Now().Format("15:04:05"),
					headerStyle.Render(ev.Name),
					string(ev.Data))
			}
			return nil
		},
	}
}
