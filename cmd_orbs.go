package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/game"
	"github.com/decker502/orbgallery/pkg/types"
	"github.com/decker502/orbgallery/pkg/upload"
)

func (c *cli) newOrbsCmd() *cobra.Command {
	orbs := &cobra.Command{
		Use:   "orbs",
		Short: "Manage the orb content library",
	}
	orbs.AddCommand(c.newOrbsAddCmd(), c.newOrbsListCmd(), c.newOrbsRmCmd(), c.newOrbsUploadCmd())
	return orbs
}

// withLibrary 打开内容库执行 fn，结束后关闭
func (c *cli) withLibrary(ctx context.Context, fn func(store game.OrbStore) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := c.openLibrary(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.logger.Warn("failed to close orb library", zap.Error(err))
		}
	}()
	return fn(store)
}

func (c *cli) newOrbsAddCmd() *cobra.Command {
	var text, image, video, color string
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create an orb with text, an image (png/jpg) or a video (mp4)",
		Example: `  orbgallery orbs add "Harbour at dusk" --image harbour.jpg
  orbgallery orbs add Greeting --text "hello" --color "#ffcc00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := types.NewOrbRecord(args[0])
			if color != "" {
				rec.Color = color
			}
			if err := rec.Validate(); err != nil {
				return err
			}
			return c.withLibrary(cmd.Context(), func(store game.OrbStore) error {
				authoring := game.NewOrbAuthoring(&rec, store, nil, c.logger)
				authoring.SetText(text)
				if err := authoring.SetImage(image); err != nil {
					return err
				}
				if err := authoring.SetVideo(video); err != nil {
					return err
				}
				if err := authoring.Save(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "text content")
	cmd.Flags().StringVar(&image, "image", "", "image file (png/jpg)")
	cmd.Flags().StringVar(&video, "video", "", "video file (mp4)")
	cmd.Flags().StringVar(&color, "color", "", "orb color #RRGGBB")
	return cmd
}

func (c *cli) newOrbsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the orbs in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(store game.OrbStore) error {
				records, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, rec := range records {
					fmt.Fprintf(w, "%s  %-24s %s\n", rec.ID, rec.Name, contentSummary(rec))
				}
				if len(records) == 0 {
					fmt.Fprintln(w, "no orbs")
				}
				return nil
			})
		},
	}
}

func (c *cli) newOrbsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id...]",
		Short: "Delete orbs from the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(store game.OrbStore) error {
				for _, id := range args {
					if err := store.Delete(cmd.Context(), id); err != nil {
						return fmt.Errorf("failed to delete orb %s: %w", id, err)
					}
				}
				return nil
			})
		},
	}
}

func (c *cli) newOrbsUploadCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "upload [id...]",
		Short: "Upload orbs to the content backend (all orbs when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if endpoint == "" {
				endpoint = cfg.Upload.Endpoint
			}
			client := upload.NewClient(endpoint, cfg.Upload.Timeout, c.logger, upload.WithConcurrency(cfg.Upload.Concurrency))

			return c.withLibrary(cmd.Context(), func(store game.OrbStore) error {
				ctx := cmd.Context()
				if len(args) == 1 {
					rec, err := store.Get(ctx, args[0])
					if err != nil {
						return err
					}
					if err := game.NewOrbAuthoring(&rec, store, client, c.logger).Upload(ctx); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to %s\n", rec.ID, client.Endpoint())
					return nil
				}

				var records []types.OrbRecord
				if len(args) == 0 {
					if records, err = store.List(ctx); err != nil {
						return err
					}
				}
				for _, id := range args {
					rec, err := store.Get(ctx, id)
					if err != nil {
						return err
					}
					records = append(records, rec)
				}
				if err := client.UploadAll(ctx, records); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d orbs to %s\n", len(records), client.Endpoint())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "upload endpoint (default from config)")
	return cmd
}

func contentSummary(rec types.OrbRecord) string {
	var parts []string
	if rec.HasText() {
		parts = append(parts, "text")
	}
	if rec.HasImage() {
		parts = append(parts, "image")
	}
	if rec.HasVideo() {
		parts = append(parts, "video")
	}
	if len(parts) == 0 {
		return "-"
	}
	return fmt.Sprint(parts)
}
