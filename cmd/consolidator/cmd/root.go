package cmd

import (
	"fmt"
	"os"

	"golang-consolidation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "consolidator",
	Short: "Bank statement consolidation tool",
	Long: `Consolidator merges bank statement exports from multiple banks and
accounts into one unified dataset. It detects each bank's export format,
normalizes rows into canonical records, removes duplicates from overlapping
statements and can rebuild a consolidated statement view with running
balances. Companion commands fetch market quotes and corporate events for
the securities side of a portfolio.

Examples:
  consolidator consolidate ./statements --accounts accounts.yaml
  consolidator consolidate ./statements --output-format csv --output-file all.csv
  consolidator quotes TCS.BO --from 2021-04-01 --to 2022-03-31
  consolidator events 532540 --from 2021-04-01 --to 2022-03-31
  consolidator scrips RELIANCE`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// setupLogger configures the global logger from the persistent flags before
// any command runs.
func setupLogger(cmd *cobra.Command, args []string) error {
	config := logger.DefaultConfig()
	config.Level = logger.Level(viper.GetString("log-level"))
	config.Format = logger.Format(viper.GetString("log-format"))
	config.Output = logger.StderrOutput
	if viper.GetBool("verbose") && config.Level != logger.DebugLevel {
		config.Level = logger.InfoLevel
	}

	log, err := logger.NewLogger(config)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	logger.SetGlobalLogger(log)
	return nil
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)

		// If a config file is specified, read it in.
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// Read environment variables that match
	viper.SetEnvPrefix("CONSOLIDATOR")
	viper.AutomaticEnv()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
