// Command auditctl runs operator tasks against the audit database and the
// assistant backends.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-audit-insights/internal/config"
	"go-audit-insights/internal/logging"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "auditctl",
	Short: "Operator tools for the audit insights service",
	Long: `Operator tools for the audit insights service.

Configuration is read from the same environment variables and env files as the API server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		cfg = config.FromEnv()
		level := cfg.LogLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		logger = logging.Init(cfg.Environment, level, cfg.LogFormat)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(dbcheckCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(selftestCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
