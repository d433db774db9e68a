package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sizzlebits/layerlens/cli/internal/client"
	"github.com/sizzlebits/layerlens/cli/pkg/output"
	"github.com/sizzlebits/layerlens/common/settings"
)

var (
	settingsDomain     string
	settingsSaveGlobal bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Settings commands",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show effective settings for a scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewCoordinator(profile().CoordinatorURL)
		res, err := c.GetSettings(cmd.Context(), settingsDomain)
		if err != nil {
			output.Error("Failed to fetch settings: %v", err)
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(res)
		}

		scope := "global"
		if res.Domain != "" {
			scope = res.Domain
		}
		output.Info("Effective settings (%s):", scope)

		s := res.Settings
		table := output.NewTable([]string{"SETTING", "VALUE"})
		table.AddRow([]string{"max_events", strconv.Itoa(s.MaxEvents)})
		table.AddRow([]string{"queue_names", strings.Join(s.QueueNames, ", ")})
		table.AddRow([]string{"event_filters", strings.Join(s.EventFilters, ", ")})
		table.AddRow([]string{"filter_mode", s.FilterMode})
		table.AddRow([]string{"grouping", fmt.Sprintf("enabled=%t mode=%s window=%dms",
			s.Grouping.Enabled, s.Grouping.Mode, s.Grouping.TimeWindowMs)})
		table.AddRow([]string{"persist_events", strconv.FormatBool(s.PersistEvents)})
		table.AddRow([]string{"console_logging", strconv.FormatBool(s.ConsoleLogging)})
		table.Render()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key=value> [key=value ...]",
	Short: "Update settings for a scope",
	Long: `Apply a partial settings update. Unset keys keep their stored values.

Supported keys: max_events, queue_names (comma separated), filter_mode,
event_filters (comma separated), persist_events, console_logging,
debug_logging.

Examples:
  llens settings set max_events=250
  llens settings set --domain shop.example.com queue_names=dataLayer,digitalData
  llens settings set --domain shop.example.com --save-global persist_events=true`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := parsePatch(args)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		c := client.NewCoordinator(profile().CoordinatorURL)
		if err := c.UpdateSettings(cmd.Context(), settingsDomain, *patch, settingsSaveGlobal); err != nil {
			output.Error("Update failed: %v", err)
			return err
		}
		output.Success("Settings updated")
		return nil
	},
}

var settingsDomainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List domains with stored overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewCoordinator(profile().CoordinatorURL)
		domains, err := c.Domains(cmd.Context())
		if err != nil {
			output.Error("Failed to list domains: %v", err)
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(domains)
		}
		if len(domains) == 0 {
			output.Info("No per-domain overrides stored")
			return nil
		}
		for domain := range domains {
			cmd.Println(domain)
		}
		return nil
	},
}

var settingsDeleteDomainCmd = &cobra.Command{
	Use:   "delete-domain <domain>",
	Short: "Delete a domain's override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewCoordinator(profile().CoordinatorURL)
		if err := c.DeleteDomain(cmd.Context(), args[0]); err != nil {
			output.Error("Delete failed: %v", err)
			return err
		}
		output.Success("Deleted override for %s; it now follows global settings", args[0])
		return nil
	},
}

var settingsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all settings as a bundle",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewCoordinator(profile().CoordinatorURL)
		bundle, err := c.Export(cmd.Context())
		if err != nil {
			output.Error("Export failed: %v", err)
			return err
		}
		if len(args) == 0 {
			cmd.Println(string(bundle))
			return nil
		}
		if err := os.WriteFile(args[0], bundle, 0o644); err != nil {
			output.Error("Writing %s: %v", args[0], err)
			return err
		}
		output.Success("Settings exported to %s", args[0])
		return nil
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a settings bundle, replacing all stored settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			output.Error("Reading %s: %v", args[0], err)
			return err
		}
		c := client.NewCoordinator(profile().CoordinatorURL)
		if err := c.Import(cmd.Context(), data); err != nil {
			output.Error("Import failed: %v", err)
			return err
		}
		output.Success("Settings imported from %s", args[0])
		return nil
	},
}

// parsePatch builds a partial settings record from key=value arguments.
func parsePatch(args []string) (*settings.Override, error) {
	var o settings.Override
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch key {
		case "max_events":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("max_events: %q is not a number", value)
			}
			o.MaxEvents = &n
		case "queue_names":
			o.QueueNames = splitList(value)
		case "event_filters":
			o.EventFilters = splitList(value)
		case "filter_mode":
			v := value
			o.FilterMode = &v
		case "persist_events":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("persist_events: %q is not a bool", value)
			}
			o.PersistEvents = &b
		case "console_logging":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("console_logging: %q is not a bool", value)
			}
			o.ConsoleLogging = &b
		case "debug_logging":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("debug_logging: %q is not a bool", value)
			}
			o.DebugLogging = &b
		default:
			return nil, fmt.Errorf("unknown setting %q", key)
		}
	}
	return &o, nil
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func init() {
	settingsCmd.PersistentFlags().StringVar(&settingsDomain, "domain", "", "domain scope (empty for global)")
	settingsSetCmd.Flags().BoolVar(&settingsSaveGlobal, "save-global", false, "write to the global record even with a domain set")

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsDomainsCmd,
		settingsDeleteDomainCmd, settingsExportCmd, settingsImportCmd)
	rootCmd.AddCommand(settingsCmd)
}
