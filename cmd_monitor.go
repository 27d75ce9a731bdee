package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/app"
	"github.com/decker502/orbgallery/pkg/monitor"
	"github.com/decker502/orbgallery/pkg/render"
	"github.com/decker502/orbgallery/pkg/systems"
)

func (c *cli) newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the installation headlessly with a terminal view of shelves and projectors",
		Long: `Runs the scene without a window and shows shelf occupancy and projector
state in the terminal.

Keys: s stores a new orb, r takes the last stored orb off the shelf,
v sends an orb into the first projection zone, p pauses, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			records := c.libraryRecords(ctx, cfg)

			rigs := make(map[string]systems.ProjectorRig, len(cfg.Projectors))
			for _, pc := range cfg.Projectors {
				rigs[pc.Name] = render.NewRig(nil, nil).Systems()
			}
			// 终端被监视画面占用，场景日志只在 --verbose 时保留
			sceneLogger := zap.NewNop()
			if c.verbose {
				sceneLogger = c.logger
			}
			in, err := app.New(cfg, app.Options{Rigs: rigs, Logger: sceneLogger})
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to open terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("failed to initialize terminal: %w", err)
			}
			defer screen.Fini()

			return monitor.New(screen, in, records, sceneLogger).Run(ctx)
		},
	}
}
