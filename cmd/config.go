package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/teamboard/cli"
	"github.com/grovetools/teamboard/config"
	"github.com/grovetools/teamboard/internal/jsonfile"
	"github.com/grovetools/teamboard/logging"
	"github.com/grovetools/teamboard/pkg/paths"
	"github.com/grovetools/teamboard/pkg/team"
)

// loadConfig resolves the effective configuration for cmd: defaults, the
// config file, the environment, then any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	opts := cli.GetOptions(cmd)
	cfg, path, err := config.LoadDefault(opts.ConfigFile)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, path, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// newLoader builds the snapshot loader for cfg.
func newLoader(cfg *config.Config) *team.Loader {
	reader := jsonfile.NewReader(jsonfile.RetryPolicy{
		Retries:    cfg.Lock.Retries,
		MinBackoff: cfg.Lock.MinBackoff,
		MaxBackoff: cfg.Lock.MaxBackoff,
	}, logging.NewLogger("jsonfile"))
	return team.NewLoader(paths.NewResolver(cfg.TeamsPath), reader, logging.NewLogger("team"))
}
