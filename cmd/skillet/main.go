package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/config"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/presenter"
)

var (
	// settings is the viper instance every command reads its configuration from
	settings = config.New()
	// cfg is decoded before any command runs
	cfg config.Config

	shutdownTracing = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "skillet",
	Short: "Build and test skills for a CSI host runtime",
	Long: `skillet packages Go functions as skills and talks to development hosts
speaking the CSI protocol.

Configuration is read from $HOME/.skillet/config.yaml, ./config.yaml and
SKILLET_* environment variables. Flags take precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(settings)
		if err != nil {
			return err
		}
		if err := logger.Configure(loaded.Log); err != nil {
			return err
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			presenter.SetQuiet(true)
		}
		cfg = loaded

		shutdown, err := initTracing(cmd.Context(), cfg.Tracing)
		if err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to initialize tracing")
			return nil
		}
		shutdownTracing = shutdown
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text or json)")
	flags.BoolP("quiet", "q", false, "Only print results and errors")

	_ = settings.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = settings.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(csiCmd)
	rootCmd.AddCommand(devHostCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	if shutdownErr := shutdownTracing(context.Background()); shutdownErr != nil {
		logger.G(ctx).WithError(shutdownErr).Debug("failed to flush traces")
	}
	cancel()

	if err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
