package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamyforge/analyticsengine/internal/pipeline"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline.EngineVersion = version
			fmt.Fprintf(cmd.OutOrStdout(), "analyticsengine %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}
