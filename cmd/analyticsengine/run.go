package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/logger"
	"github.com/streamyforge/analyticsengine/internal/manager"
	"github.com/streamyforge/analyticsengine/internal/pipeline"
	"github.com/streamyforge/analyticsengine/internal/plugin"
)

type runFlags struct {
	configPath string
}

// newRunCmd wires the host-embeddable entry point: load the plugin
// registry, parse the analytics document, build the Manager, and run every
// configured pipeline until SIGINT/SIGTERM. This is wiring for an
// embeddable engine, not a pipeline-facing CLI surface.
func newRunCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load an analytics document and run its pipelines until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline.EngineVersion = version

			level := "info"
			if root.verbose {
				level = "debug"
			}
			log := logger.New(logger.Options{Level: level, HumanReadable: true})

			reg := plugin.Instance(log.With("component", "registry"))

			cfg, err := config.ParseFile(flags.configPath, reg)
			if err != nil {
				return fmt.Errorf("loading %s: %w", flags.configPath, err)
			}

			mgr, err := manager.New(cfg, reg, log.With("component", "manager"))
			if err != nil {
				return fmt.Errorf("building manager: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info(fmt.Sprintf("starting %d pipeline(s)", len(cfg.Pipelines)))
			if err := mgr.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			log.Info("all pipelines stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "analytics.yaml", "Path to the analytics document")

	return cmd
}
