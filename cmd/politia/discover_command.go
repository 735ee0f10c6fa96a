package main

import (
	"context"
	"os"

	"github.com/politia/politia/internal/discovery"
	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/pipeline"
	"github.com/spf13/cobra"
)

func newDiscoverCommand() *cobra.Command {
	var (
		maxMisses int
		maxNew    int
		noFetch   bool
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Probe for sittings published after the stored watermark",
		Long: `Probes session numbers above the highest stored one until enough
consecutive numbers are missing, then downloads the transcripts it found.
With no stored sessions the run defers instead of probing blindly from 1.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				watermark, hasWatermark, err := a.sessions.MaxSessionNumber(ctx, a.settings.Legislature)
				if err != nil {
					return err
				}

				d := discovery.NewDiscoverer(a.camera, a.logger, discovery.Options{
					MaxConsecutiveMisses: maxMisses,
					MaxNew:               maxNew,
				})
				result, err := d.Discover(ctx, watermark, hasWatermark)
				if err != nil {
					return err
				}
				if result.Deferred {
					a.logger.Info("no sessions stored yet, run an initial fetch first",
						"legislature", a.settings.Legislature)
					return nil
				}
				a.logger.Info("discovery done",
					"found", len(result.Found),
					"probed", result.Probed,
					"highestProbed", result.HighestProbed,
					"exhausted", result.Exhausted)
				if noFetch || len(result.Found) == 0 {
					return nil
				}

				if err = os.MkdirAll(a.settings.CameraDataPath, 0o755); err != nil {
					return errors.Wrap(err, "create transcript data directory")
				}
				saved := 0
				for _, sessionNumber := range result.Found {
					unit, err := a.camera.FetchSession(ctx, sessionNumber)
					if err != nil {
						a.logger.Error("failed to fetch discovered sitting",
							"sessionNumber", sessionNumber, "error", err)
						continue
					}
					if _, err = pipeline.WriteUnitFile(a.settings.CameraDataPath, unit); err != nil {
						return err
					}
					saved++
				}
				a.logger.Info("discovered sittings downloaded", "saved", saved)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&maxMisses, "max-misses", discovery.DefaultMaxConsecutiveMisses,
		"Consecutive missing session numbers that end the search")
	cmd.Flags().IntVar(&maxNew, "max-new", 0, "Cap on newly discovered sessions per run, 0 for no cap")
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "Only report discovered session numbers, do not download")
	return cmd
}
