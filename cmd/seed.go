package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vendorguard/internal/bootstrap"
	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/errs"
	"vendorguard/internal/usecase/vendor"
)

type seedFile struct {
	Actor   string       `yaml:"actor"`
	Vendors []seedVendor `yaml:"vendors"`
}

type seedVendor struct {
	LegalName          string `yaml:"legal_name"`
	TradingName        string `yaml:"trading_name"`
	RegistrationNumber string `yaml:"registration_number"`
	Email              string `yaml:"email"`
	Phone              string `yaml:"phone"`
	Address            string `yaml:"address"`
	Notes              string `yaml:"notes"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo vendors from a YAML fixture",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svcs bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		path, _ := cmd.Flags().GetString("file")
		raw, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrapf(err, "read seed file %q", path)
		}

		var seed seedFile
		if err := yaml.Unmarshal(raw, &seed); err != nil {
			return errs.Wrap(err, "parse seed file")
		}
		actor := seed.Actor
		if actor == "" {
			actor = "seed"
		}

		created := 0
		start := time.Now()
		for _, sv := range seed.Vendors {
			_, err := svcs.Vendors.Onboard(ctx, vendor.OnboardInput{
				LegalName:          sv.LegalName,
				TradingName:        sv.TradingName,
				RegistrationNumber: sv.RegistrationNumber,
				Email:              sv.Email,
				Phone:              sv.Phone,
				Address:            sv.Address,
				OnboardingNotes:    sv.Notes,
			}, actor)
			if err != nil {
				logging.Warn(ctx, "seed vendor skipped",
					slog.String("registration_number", sv.RegistrationNumber),
					slog.Any("err", errs.Loggable(err)))
				continue
			}
			created++
		}

		logging.Info(ctx, "seed finished",
			slog.Int("created", created),
			slog.Duration("elapsed", time.Since(start)))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "seeded %d vendors from %s\n", created, path); err != nil {
			return errs.Wrap(err, "write seed output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("file", "configs/seed.yaml", "Seed fixture path")
}
