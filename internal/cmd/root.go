// Package cmd wires the quotaguard CLI: serving the HTTP surface, running
// migrations, cleaning expired cache rows and administering rate limiter
// rules.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/quotaguard/quotaguard/internal/config"
)

var (
	cfgFile string

	// Version info set by the main package.
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by the main package to set build metadata.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   "quotaguard",
	Short: "Rate-limiting quota service with interchangeable cache backends",
	Long: `quotaguard enforces hourly/daily/monthly request ceilings per
(path, product) pair, records every request for audit, and exposes a TTL
cache with in-process, database and redis backends.

Use the subcommands to perform specific operations.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./quotaguard.yaml)")
}

// loadConfig loads the layered configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
