package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"vendorguard/internal/bootstrap/config"
	"vendorguard/internal/bootstrap/database"
	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/domain/compliance"
	blobinfra "vendorguard/internal/infrastructure/blob"
	"vendorguard/internal/infrastructure/notify"
	sqliterepo "vendorguard/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "vendorguard/internal/infrastructure/persistence/sqlite/uow"
	"vendorguard/internal/ports"
	"vendorguard/internal/usecase/audit"
	"vendorguard/internal/usecase/document"
	"vendorguard/internal/usecase/flags"
	"vendorguard/internal/usecase/risk"
	"vendorguard/internal/usecase/sweep"
	"vendorguard/internal/usecase/vendor"
)

// Services bundles the engine's public operations for commands and the
// HTTP layer.
type Services struct {
	fx.In

	Vendors   *vendor.Service
	Documents *document.Service
	Risk      *risk.Service
	Flags     *flags.Service
	Audit     *audit.Service
	Sweep     *sweep.Service
	Scheduler *sweep.Scheduler
}

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideRequiredCategories),
	fx.Provide(provideBlobStore),
	fx.Provide(providePublisher),
	fx.Provide(provideScheduler),
	fx.Provide(
		fx.Annotate(sqliterepo.NewVendorRepository, fx.As(new(ports.VendorRepository))),
	),
	fx.Provide(
		fx.Annotate(sqliterepo.NewDocumentRepository, fx.As(new(ports.DocumentRepository))),
	),
	fx.Provide(
		fx.Annotate(sqliterepo.NewFlagRepository, fx.As(new(ports.FlagRepository))),
	),
	fx.Provide(
		fx.Annotate(sqliterepo.NewAuditLogRepository, fx.As(new(ports.AuditLogRepository))),
	),
	fx.Provide(
		fx.Annotate(sqliteuow.NewUnitOfWork, fx.As(new(ports.UnitOfWork))),
	),
	fx.Provide(audit.NewService),
	fx.Provide(risk.NewService),
	fx.Provide(vendor.NewService),
	fx.Provide(document.NewService),
	fx.Provide(flags.NewService),
	fx.Provide(sweep.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideRequiredCategories(cfg config.Config) []compliance.Category {
	categories := make([]compliance.Category, 0, len(cfg.Compliance.RequiredDocuments))
	for _, c := range cfg.Compliance.RequiredDocuments {
		categories = append(categories, compliance.NormalizeCategory(c))
	}
	return categories
}

func provideBlobStore(cfg config.Config) (ports.BlobStore, error) {
	return blobinfra.NewFSStore(cfg.Blob.Root)
}

func providePublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.EventPublisher, error) {
	if cfg.Notify.NATSURL == "" {
		return notify.NoopPublisher{}, nil
	}

	publisher, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.SubjectPrefix)
	if err != nil {
		return nil, err
	}
	logging.Info(ctx, "nats publisher connected", slog.String("url", cfg.Notify.NATSURL))

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher, nil
}

func provideScheduler(cfg config.Config, svc *sweep.Service) *sweep.Scheduler {
	schedConfig := sweep.DefaultSchedulerConfig()
	if cfg.Sweep.ExpiryInterval > 0 {
		schedConfig.ExpiryInterval = cfg.Sweep.ExpiryInterval
	}
	if cfg.Sweep.ExpiryInitialDelay > 0 {
		schedConfig.ExpiryInitialDelay = cfg.Sweep.ExpiryInitialDelay
	}
	if cfg.Sweep.HighRiskInterval > 0 {
		schedConfig.HighRiskInterval = cfg.Sweep.HighRiskInterval
	}
	if cfg.Sweep.HighRiskInitialDelay > 0 {
		schedConfig.HighRiskInitialDelay = cfg.Sweep.HighRiskInitialDelay
	}
	return sweep.NewScheduler(svc, schedConfig)
}
