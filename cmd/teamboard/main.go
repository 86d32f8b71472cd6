package main

import (
	stderrors "errors"
	"os"

	"github.com/grovetools/teamboard/cli"
	"github.com/grovetools/teamboard/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, cmd.ErrNotRunning) {
			verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
			cli.NewErrorHandler(verbose).Handle(err)
		}
		os.Exit(1)
	}
}
