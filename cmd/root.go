// Package cmd defines the CLI commands for the identity-crawler executable.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phidi/identity-crawler/internal/logging"
	"github.com/phidi/identity-crawler/pkg/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity-crawler",
		Short: "A polite concurrent crawler extracting company identity signals.",
		Long: `identity-crawler reads a list of company domains, fetches each homepage
politely (robots.txt compliance, crawl delays, bounded concurrency) and
resiliently (protocol fallback, retries with jittered backoff), extracts
identity signals — phone numbers, company name, social profile links,
postal address — and writes one NDJSON record per domain.`,
	}

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		config.InitConfig()
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/identity-crawler, $HOME/.identity-crawler)")

	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	logging.InitLogger()

	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
