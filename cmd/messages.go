package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/grovetools/teamboard/cli"
	"github.com/grovetools/teamboard/errors"
	"github.com/grovetools/teamboard/pkg/team"
)

func newMessagesCmd() *cobra.Command {
	var (
		local  bool
		limit  int
		before string
	)
	cmd := &cobra.Command{
		Use:   "messages <team-id>",
		Short: "Print a team's messages, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.InvalidParam("limit", fmt.Sprint(limit))
			}
			q := team.Query{Limit: limit}
			if before != "" {
				ts, ok := team.ParseTimestamp(before)
				if !ok {
					return errors.InvalidParam("before", before)
				}
				q.Before = &ts
			}

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c := newClient(cfg, local)
			defer c.Close()

			messages, err := c.GetMessages(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if messages == nil {
					messages = []team.Message{}
				}
				return enc.Encode(messages)
			}
			printMessages(out, messages)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Read from disk even if a server is running")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum messages to print (0 for all)")
	cmd.Flags().StringVar(&before, "before", "", "Only messages older than this ISO-8601 timestamp")
	return cmd
}

// printMessages prints one line per message: timestamp, sender, text. Fields
// other than those three are left out.
func printMessages(w io.Writer, messages []team.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages")
		return
	}
	rows := [][]string{{"TIMESTAMP", "FROM", "TEXT"}}
	for _, m := range messages {
		var body struct {
			From string `json:"from"`
			Text string `json:"text"`
		}
		if raw, err := json.Marshal(m); err == nil {
			_ = json.Unmarshal(raw, &body)
		}
		ts := m.Timestamp
		if ts == "" {
			ts = "-"
		}
		rows = append(rows, []string{ts, body.From, body.Text})
	}
	printTable(w, rows)
}
