package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sizzlebits/layerlens/cli/internal/client"
	"github.com/sizzlebits/layerlens/cli/internal/seeder"
	"github.com/sizzlebits/layerlens/cli/pkg/output"
)

var (
	seedQueue string
	seedCount int
	seedSeed  int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Push generated analytics events through a capture agent",
	Long: `Generate a realistic mix of dataLayer events (page views, clicks,
commerce events) and push them through a running capture agent, so the
full pipeline can be exercised without a real site.

Examples:
  llens seed
  llens seed --count 500 --queue digitalData
  llens seed --seed 42   # reproducible stream`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := seeder.Config{Queue: seedQueue, Count: seedCount, Seed: seedSeed}
		if cfg.Seed == 0 {
			cfg.Seed = time.Now().UnixNano()
		}

		capture := client.NewCapture(profile().CaptureURL)
		start := time.Now()
		err := seeder.Run(cmd.Context(), capture, cfg, func(done, total int) {
			if done%100 == 0 {
				output.Info("%d/%d events pushed", done, total)
			}
		})
		if err != nil {
			output.Error("Seeding failed: %v", err)
			return err
		}
		output.Success("Pushed %d events to %q in %s", seedCount, seedQueue,
			time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedQueue, "queue", "dataLayer", "queue to push into")
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "number of events")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed (0 = time-based)")

	rootCmd.AddCommand(seedCmd)
}
