package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/errs"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Sweep      SweepConfig      `mapstructure:"sweep"`
	Compliance ComplianceConfig `mapstructure:"compliance"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type BlobConfig struct {
	Root string `mapstructure:"root"`
}

// NotifyConfig enables the NATS event publisher when URL is set; the
// default is a no-op publisher.
type NotifyConfig struct {
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type SweepConfig struct {
	ExpiryInterval       time.Duration `mapstructure:"expiry_interval"`
	ExpiryInitialDelay   time.Duration `mapstructure:"expiry_initial_delay"`
	HighRiskInterval     time.Duration `mapstructure:"high_risk_interval"`
	HighRiskInitialDelay time.Duration `mapstructure:"high_risk_initial_delay"`
}

// ComplianceConfig carries the ordered set of required document
// categories. Swapping the set never touches scorer logic.
type ComplianceConfig struct {
	RequiredDocuments []string `mapstructure:"required_documents"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if len(cfg.Compliance.RequiredDocuments) == 0 {
		return Config{}, errors.New("compliance.required_documents must not be empty")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Int("required_documents", len(cfg.Compliance.RequiredDocuments)),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "vendorguard")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/vendorguard.sqlite")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("blob.root", "data/blobs")
	v.SetDefault("notify.nats_url", "")
	v.SetDefault("notify.subject_prefix", "compliance")
	v.SetDefault("sweep.expiry_interval", 24*time.Hour)
	v.SetDefault("sweep.expiry_initial_delay", time.Minute)
	v.SetDefault("sweep.high_risk_interval", 24*time.Hour)
	v.SetDefault("sweep.high_risk_initial_delay", 5*time.Minute)
	v.SetDefault("compliance.required_documents", []string{
		"BUSINESS_LICENSE",
		"TAX_CLEARANCE",
		"INSURANCE_CERTIFICATE",
		"FINANCIAL_STATEMENT",
		"DATA_PROTECTION_POLICY",
	})
}
