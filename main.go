package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/decker502/orbgallery/pkg/config"
	"github.com/decker502/orbgallery/pkg/embedded"
	"github.com/decker502/orbgallery/pkg/game"
	"github.com/decker502/orbgallery/pkg/store/sqlite"
)

// cli 命令行共享状态（全局参数和 PersistentPreRunE 创建的日志）
type cli struct {
	configPath string
	verbose    bool
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "orbgallery",
		Short: "Orb gallery installation",
		Long: `orbgallery runs an interactive orb installation: orbs dropped into the
shelf volume are stored on curved shelves, orbs entering a projection zone
have their image or video projected.

Run without arguments to open the installation window.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if c.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
		RunE: c.runWindow,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "installation config file (default: embedded data/installation.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.newRunCmd(),
		c.newSimulateCmd(),
		c.newMonitorCmd(),
		c.newOrbsCmd(),
	)
	return root
}

// loadConfig 读取 --config 指定的配置，未指定时使用内嵌默认配置
func (c *cli) loadConfig() (*config.InstallationConfig, error) {
	cfg, err := config.LoadInstallationConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("config loaded", zap.String("path", c.configPath), zap.String("library", cfg.Library.Backend))
	return cfg, nil
}

// openLibrary 按配置打开光球内容库
func (c *cli) openLibrary(ctx context.Context, cfg *config.InstallationConfig) (game.OrbStore, error) {
	switch cfg.Library.Backend {
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.Library.Path, c.logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		lib, err := game.OpenOrbLibrary(cfg.Library.AppName, c.logger)
		if err != nil {
			return nil, err
		}
		return lib, nil
	}
}

func main() {
	embedded.Init(dataFS)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
