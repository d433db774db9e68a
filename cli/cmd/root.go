package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sizzlebits/layerlens/cli/internal/config"
)

var (
	cfgFile     string
	profileName string
	cfg         *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "llens",
	Short: "LayerLens CLI",
	Long: `llens is the command-line interface for LayerLens.

Inspect captured dataLayer events, manage global and per-domain settings,
seed realistic analytics traffic, and check service health from your
terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.llens/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "profile to use")
	rootCmd.PersistentFlags().Bool("json", false, "output raw JSON instead of formatted text")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// profile resolves the active endpoint profile; unknown names warn and
// fall back to local defaults.
func profile() *config.Profile {
	p, err := cfg.Profile(profileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
	}
	return p
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
