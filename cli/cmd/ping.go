package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sizzlebits/layerlens/cli/internal/client"
	"github.com/sizzlebits/layerlens/cli/pkg/output"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the services are reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := profile()
		checks := []struct {
			name string
			url  string
			ping func(context.Context) error
		}{
			{"collector", p.CollectorURL, client.NewCollector(p.CollectorURL).Ping},
			{"coordinator", p.CoordinatorURL, client.NewCoordinator(p.CoordinatorURL).Ping},
			{"capture", p.CaptureURL, client.NewCapture(p.CaptureURL).Ping},
		}

		var failed bool
		for _, c := range checks {
			if err := c.ping(cmd.Context()); err != nil {
				output.Error("%-12s %s  (%v)", c.name, c.url, err)
				failed = true
				continue
			}
			output.Success("%-12s %s", c.name, c.url)
		}
		if failed {
			cmd.SilenceUsage = true
			return errUnreachable
		}
		return nil
	},
}

var errUnreachable = errors.New("one or more services unreachable")

func init() {
	rootCmd.AddCommand(pingCmd)
}
