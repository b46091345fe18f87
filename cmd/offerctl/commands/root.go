package commands

import (
	"github.com/spf13/cobra"

	"github.com/ignite/offer-monitor/internal/config"
	"github.com/ignite/offer-monitor/internal/pkg/logger"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "offerctl",
	Short: "Offer performance analysis",
	Long: `offerctl analyses daily offer performance exports and produces the
Offer Analysis and Action Items workbook.

Examples:
  offerctl analyze --input data.xlsx
  offerctl analyze --config config/config.yaml --store --notify
  offerctl rulesets`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(logger.DEBUG)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads --config with environment overrides, or returns the
// built-in defaults.
func loadConfig() (*config.Config, error) {
	if configFile == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	cfg, err := config.LoadFromEnv(configFile)
	if err != nil {
		return nil, err
	}
	if !verbose {
		logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	}
	return cfg, nil
}
