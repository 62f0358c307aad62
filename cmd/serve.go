package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vendorguard/internal/bootstrap"
	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/errs"
	httpserver "vendorguard/internal/interfaces/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background sweep jobs",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svcs bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := httpserver.NewServer(
			app.Config.HTTP.Addr,
			svcs.Vendors,
			svcs.Documents,
			svcs.Risk,
			svcs.Flags,
			svcs.Audit,
		)

		svcs.Scheduler.Start(ctx)
		defer svcs.Scheduler.Stop(context.Background())

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.Start(ctx)
		}()

		select {
		case err := <-serveErr:
			return errs.Wrap(err, "serve http")
		case <-ctx.Done():
		}

		logging.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
