// Package cmd holds the teamboard command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/teamboard/cli"
	"github.com/grovetools/teamboard/version"
)

// NewRootCmd returns the teamboard command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("teamboard", "Live dashboard backend for agent teams")
	root.Long = "Watches a directory of team folders and serves their snapshots, messages and live change events over HTTP."
	cli.SetVersionTemplate(root, version.GetInfo())

	root.AddCommand(newServeCmd())
	root.AddCommand(newStopCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newTeamsCmd())
	root.AddCommand(newMessagesCmd())
	root.AddCommand(newEventsCmd())
	root.AddCommand(cli.NewVersionCommand("teamboard"))

	return root
}
