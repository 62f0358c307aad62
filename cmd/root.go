package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/errs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "vendorguard",
	Short:        "Vendor compliance risk engine",
	Long:         "Tracks vendor onboarding, compliance documents and audit findings, and keeps a derived risk score consistent with document expiry over time.",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.main().
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logger := slog.New(slog.NewTextHandler(rootCmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithAttrs(ctx, slog.String("app", "vendorguard"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "Config file path")
}
