package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sizzlebits/layerlens/cli/internal/client"
	"github.com/sizzlebits/layerlens/cli/pkg/output"
)

var (
	eventsTab        int
	eventsSearch     string
	eventsFilters    []string
	eventsFilterMode string
	eventsTimestamps bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Captured event commands",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured events for a tab",
	Long: `List the collector's event buffer for one tab, newest first.

Examples:
  llens events list --tab 1
  llens events list --tab 1 --search add_to_cart
  llens events list --tab 1 --filter gtm.js --filter gtm.click --mode exclude`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewCollector(profile().CollectorURL)
		res, err := c.Events(cmd.Context(), eventsTab, client.EventsQuery{
			Search:  eventsSearch,
			Filters: eventsFilters,
			Mode:    eventsFilterMode,
		})
		if err != nil {
			output.Error("Failed to fetch events: %v", err)
			return err
		}

		if jsonOutput(cmd) {
			return output.JSON(res)
		}

		if len(res.Events) == 0 {
			output.Info("No events (buffer holds %d total)", res.Total)
			return nil
		}
		for _, evt := range res.Events {
			cmd.Println(output.Event(evt, eventsTimestamps))
		}
		output.Info("%d of %d events shown", len(res.Events), res.Total)
		return nil
	},
}

var eventsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear a tab's event buffer",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewCollector(profile().CollectorURL)
		if err := c.ClearEvents(cmd.Context(), eventsTab); err != nil {
			output.Error("Failed to clear events: %v", err)
			return err
		}
		output.Success("Cleared events for tab %d", eventsTab)
		return nil
	},
}

var eventsSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search the long-term event archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		c := client.NewCollector(profile().CollectorURL)
		results, err := c.SearchArchive(cmd.Context(), args[0], limit)
		if err != nil {
			output.Error("Archive search failed: %v", err)
			return err
		}

		if jsonOutput(cmd) {
			return output.JSON(results)
		}

		table := output.NewTable([]string{"TIME", "TAB", "HOST", "EVENT", "SOURCE"})
		for _, r := range results {
			table.AddRow([]string{
				r.Time().Format("2006-01-02 15:04:05"),
				strconv.Itoa(r.TabID),
				r.Host,
				r.EventName,
				r.Source,
			})
		}
		table.Render()
		output.Info("%d results", len(results))
		return nil
	},
}

func init() {
	eventsCmd.PersistentFlags().IntVar(&eventsTab, "tab", 1, "tab ID")
	eventsListCmd.Flags().StringVar(&eventsSearch, "search", "", "substring match over names and payloads")
	eventsListCmd.Flags().StringArrayVar(&eventsFilters, "filter", nil, "event name filter (repeatable)")
	eventsListCmd.Flags().StringVar(&eventsFilterMode, "mode", "", "filter mode: include or exclude")
	eventsListCmd.Flags().BoolVar(&eventsTimestamps, "timestamps", true, "show event timestamps")
	eventsSearchCmd.Flags().Int("limit", 100, "maximum results")

	eventsCmd.AddCommand(eventsListCmd, eventsClearCmd, eventsSearchCmd)
	rootCmd.AddCommand(eventsCmd)
}
