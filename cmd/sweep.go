package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"vendorguard/internal/bootstrap"
	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/errs"
	"vendorguard/internal/usecase/sweep"
)

// One-shot sweep entry points for deployments that prefer external cron
// over the built-in scheduler.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run background sweep jobs once",
}

var sweepExpiryCmd = &cobra.Command{
	Use:   "expiry",
	Short: "Flag approved vendors holding expired documents",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		report, err := svcs.Sweep.ExpirySweep(ctx)
		if err != nil {
			return errs.Wrap(err, "run expiry sweep")
		}
		return printReport(cmd, report)
	}),
}

var sweepHighRiskCmd = &cobra.Command{
	Use:   "high-risk",
	Short: "Flag vendors at or above the high risk threshold",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		report, err := svcs.Sweep.HighRiskSweep(ctx)
		if err != nil {
			return errs.Wrap(err, "run high risk sweep")
		}
		return printReport(cmd, report)
	}),
}

func printReport(cmd *cobra.Command, report sweep.Report) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d flagged=%d skipped=%d failed=%d\n",
		report.Scanned, report.Flagged, report.Skipped, report.Failed)
	return errs.Wrap(err, "write sweep report")
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.AddCommand(sweepExpiryCmd)
	sweepCmd.AddCommand(sweepHighRiskCmd)
}
