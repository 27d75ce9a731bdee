package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/app"
	"github.com/decker502/orbgallery/pkg/audio"
	"github.com/decker502/orbgallery/pkg/config"
	"github.com/decker502/orbgallery/pkg/render"
	"github.com/decker502/orbgallery/pkg/systems"
	"github.com/decker502/orbgallery/pkg/types"
	"github.com/decker502/orbgallery/pkg/utils"
)

// maxInitialOrbs 启动时摆在地面上的内容库光球数量上限
const maxInitialOrbs = 8

func (c *cli) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the installation window",
		Long: `Opens the installation window. Drag orbs with the mouse or touch,
tap an orb in a projection zone to end its presentation.

Keys: N spawns the next orb from the library, P pauses, F11 toggles fullscreen.
When --config is given the file is watched and timing changes apply live.`,
		Args: cobra.NoArgs,
		RunE: c.runWindow,
	}
}

func (c *cli) runWindow(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	records := c.libraryRecords(ctx, cfg)

	var hum systems.Effect
	if cfg.Audio.Enabled {
		out := audio.NewOutput(cfg.Audio.SampleRate)
		if err := out.Initialize(); err != nil {
			c.logger.Warn("audio unavailable, continuing without hum", zap.Error(err))
		} else {
			defer out.Close()
			hum = out.NewHum(cfg.Audio.Frequency, cfg.Audio.Volume, c.logger)
		}
	}

	rigs := make(map[string]*render.Rig, len(cfg.Projectors))
	systemRigs := make(map[string]systems.ProjectorRig, len(cfg.Projectors))
	for _, pc := range cfg.Projectors {
		rig := render.NewRig(hum, c.logger)
		rigs[pc.Name] = rig
		systemRigs[pc.Name] = rig.Systems()
	}

	in, err := app.New(cfg, app.Options{Rigs: systemRigs, Logger: c.logger})
	if err != nil {
		return err
	}

	if c.configPath != "" {
		if err := c.watchConfig(ctx, in); err != nil {
			c.logger.Warn("config hot reload disabled", zap.Error(err))
		}
	}

	for i, rec := range records {
		if i >= maxInitialOrbs {
			break
		}
		in.SpawnOrb(rec, utils.V3(-2+float64(i)*0.5, cfg.Physics.FloorY+0.3, 1))
	}

	return render.NewGame(in, rigs, records, c.logger).Run()
}

// watchConfig 监听配置文件，新配置在下一帧开始时生效
func (c *cli) watchConfig(ctx context.Context, in *app.Installation) error {
	w, err := config.NewWatcher(c.configPath, c.logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	in.Watch(w.Updates())
	return nil
}

// libraryRecords 读取内容库；失败时只记录日志，装置照常启动
func (c *cli) libraryRecords(ctx context.Context, cfg *config.InstallationConfig) []types.OrbRecord {
	store, err := c.openLibrary(ctx, cfg)
	if err != nil {
		c.logger.Warn("orb library unavailable", zap.Error(err))
		return nil
	}
	defer store.Close()

	records, err := store.List(ctx)
	if err != nil {
		c.logger.Warn("failed to list orb library", zap.Error(err))
		return nil
	}
	c.logger.Info("orb library loaded", zap.Int("orbs", len(records)))
	return records
}
