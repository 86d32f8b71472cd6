package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/grovetools/teamboard/cli"
	"github.com/grovetools/teamboard/config"
	"github.com/grovetools/teamboard/pkg/client"
	"github.com/grovetools/teamboard/pkg/team"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// newClient returns a client for the configured server, falling back to
// reading the teams directory when no server answers or local is set.
func newClient(cfg *config.Config, local bool) client.Client {
	loader := newLoader(cfg)
	if local {
		return client.NewLocalClient(loader)
	}
	return client.New(client.BaseURL(cfg.Host, cfg.Port), loader)
}

func newTeamsCmd() *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "teams [team-id]",
		Short: "Print team snapshots",
		Long:  "Print team snapshots from the running server, or straight from disk when no server is running.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c := newClient(cfg, local)
			defer c.Close()

			var teams []*team.Team
			if len(args) == 1 {
				t, err := c.GetTeam(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				teams = []*team.Team{t}
			} else if teams, err = c.ListTeams(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if len(args) == 1 {
					return enc.Encode(teams[0])
				}
				return enc.Encode(teams)
			}
			printTeams(out, teams)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Read from disk even if a server is running")
	return cmd
}

// printTeams renders teams as a bordered table.
func printTeams(w io.Writer, teams []*team.Team) {
	if len(teams) == 0 {
		fmt.Fprintln(w, "No teams found")
		return
	}
	rows := [][]string{{"ID", "NAME", "MEMBERS", "LAST ACTIVITY"}}
	for _, t := range teams {
		last := "-"
		if t.LastActivity != nil {
			last = *t.LastActivity
		}
		rows = append(rows, []string{t.ID, t.Name, strconv.Itoa(t.MemberCount), last})
	}
	printTable(w, rows)
}

func printTable(w io.Writer, rows [][]string) {
	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(rows[0]...).
		Rows(rows[1:]...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}
