package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/decker502/orbgallery/pkg/app"
	"github.com/decker502/orbgallery/pkg/systems"
	"github.com/decker502/orbgallery/pkg/types"
)

// maxSimulatedSeconds simulate 最长推进的场景时间
const maxSimulatedSeconds = 600.0

func (c *cli) newSimulateCmd() *cobra.Command {
	var orbs int
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drop orbs into the shelf volume headlessly and print slot assignments",
		Long: `Spawns --orbs orbs in the middle of the shelf volume, advances the scene
at 60 frames per second until the storage queue is idle, then prints
every assignment in order followed by the orbs that found no free slot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if orbs < 0 {
				return fmt.Errorf("--orbs must be >= 0, got %d", orbs)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			in, err := app.New(cfg, app.Options{Logger: c.logger})
			if err != nil {
				return err
			}
			return simulate(cmd.OutOrStdout(), in, orbs)
		},
	}
	cmd.Flags().IntVarP(&orbs, "orbs", "n", 20, "number of orbs to drop")
	return cmd
}

// simulate 投放 n 个光球并打印分配结果
func simulate(w io.Writer, in *app.Installation, n int) error {
	storage := in.Storage()
	if storage == nil {
		return fmt.Errorf("shelves are disabled: no curve has enough control points")
	}

	shelves := in.Config().Shelves
	center := shelves.Anchor.Add(shelves.Trigger.Offset)
	for i := 0; i < n; i++ {
		in.SpawnOrb(types.NewOrbRecord(fmt.Sprintf("orb-%02d", i+1)), center)
	}

	elapsed := 0.0
	for ; elapsed < maxSimulatedSeconds; elapsed += app.FrameDelta {
		in.Update(app.FrameDelta)
		if idle(storage) && in.Frame() > 1 {
			break
		}
	}

	fmt.Fprintf(w, "capacity %d, dropped %d, simulated %.2fs\n", in.Capacity(), n, elapsed)
	for i, a := range storage.Assignments() {
		fmt.Fprintf(w, "%3d  orb %-4d shelf %d  position %-3d at %s\n",
			i+1, a.Orb, a.Slot.ShelfIndex, a.Slot.PositionIndex, a.Slot.Position)
	}
	if rejected := storage.Rejected(); len(rejected) > 0 {
		fmt.Fprintf(w, "rejected %d:", len(rejected))
		for _, orb := range rejected {
			fmt.Fprintf(w, " %d", orb)
		}
		fmt.Fprintln(w)
	}
	if pending := storage.Pending(); len(pending) > 0 {
		fmt.Fprintf(w, "still queued %d (storage paused: %v)\n", len(pending), storage.Paused())
	}
	return nil
}

func idle(s *systems.StorageSystem) bool {
	if s.Processing() {
		return false
	}
	return len(s.Pending()) == 0 || s.Paused()
}
