package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"renewals/internal/backend"
	"renewals/internal/config"
	"renewals/internal/ledger"
	"renewals/internal/log"
	"renewals/internal/records"
	"renewals/internal/services"
	"renewals/internal/sheets"
	"renewals/internal/sheets/google"
	"renewals/internal/storage"
)

// App is the assembled application shared by every subcommand.
type App struct {
	Config *config.Config
	Logger *log.Logger

	Storage   storage.Backend
	Records   *records.Store
	Ledger    *ledger.Ledger
	Renewals  *services.RenewalService
	Billing   *services.BillingService
	Sync      *services.SyncService
	Publisher services.Publisher

	cleanup backend.CleanupFunc
}

// AppOption customizes NewApp, mostly for tests.
type AppOption func(*appOptions)

type appOptions struct {
	factory backend.Factory
	writers services.WriterFactory
	noAMQP  bool
}

// WithFactory replaces the default backend factory.
func WithFactory(f backend.Factory) AppOption {
	return func(o *appOptions) { o.factory = f }
}

// WithWriterFactory replaces the Google Sheets writer factory.
func WithWriterFactory(w services.WriterFactory) AppOption {
	return func(o *appOptions) { o.writers = w }
}

// WithoutPublisher forces inline pushes even when AMQP is configured. The
// worker uses it so it never queues work for itself.
func WithoutPublisher() AppOption {
	return func(o *appOptions) { o.noAMQP = true }
}

// NewApp opens the configured backend and wires the stores and services.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...AppOption) (*App, error) {
	o := appOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = backend.NewFactory(logger)
	}
	if o.writers == nil {
		o.writers = GoogleWriterFactory(cfg)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if o.noAMQP {
		bcfg.AMQPURL = ""
	}
	res, err := o.factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Storage: res.Storage,
		cleanup: res.Cleanup,
	}

	app.Records = records.NewStore(res.Storage,
		records.WithKey(cfg.RecordsKey),
		records.WithLogger(logger))
	app.Records.Load(ctx)

	app.Ledger = ledger.New(res.Storage,
		ledger.WithKey(cfg.BillsKey),
		ledger.WithLogger(logger))
	app.Ledger.Load(ctx)

	loc := cfg.Location()
	svcOpts := []services.Option{
		services.WithLogger(logger),
		services.WithClock(func() time.Time { return time.Now().In(loc) }),
	}
	if res.Publisher != nil {
		app.Publisher = res.Publisher
		svcOpts = append(svcOpts, services.WithPublisher(res.Publisher))
	}

	settings := sheets.NewSettingsStore(res.Storage)
	app.Renewals = services.NewRenewalService(app.Records, svcOpts...)
	app.Billing = services.NewBillingService(app.Ledger, app.Records, cfg.MonthlyTarget(), svcOpts...)
	app.Sync = services.NewSyncService(app.Records, settings, o.writers, loc, svcOpts...)

	if err := app.seedSheetsSettings(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// seedSheetsSettings connects the configured spreadsheet when nothing has
// been connected yet. Stored settings win over the environment.
func (a *App) seedSheetsSettings(ctx context.Context) error {
	if !a.Config.SheetsEnabled() {
		return nil
	}
	if _, err := a.Sync.Settings(ctx); !errors.Is(err, sheets.ErrNotConnected) {
		return err
	}
	_, err := a.Sync.Connect(ctx, a.Config.GoogleSpreadsheetID, a.Config.GoogleAPIKey, a.Config.GoogleSheetName)
	return err
}

// Close releases the backend.
func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

// GoogleWriterFactory opens a Sheets client for the stored settings. The
// stored API key wins over GOOGLE_API_KEY; service account credentials
// come from the environment only.
func GoogleWriterFactory(cfg *config.Config) services.WriterFactory {
	return func(ctx context.Context, st sheets.Settings) (sheets.RangeWriter, error) {
		apiKey := st.APIKey
		if apiKey == "" {
			apiKey = cfg.GoogleAPIKey
		}
		return google.NewWithCredentials(ctx, st.SpreadsheetID, google.Credentials{
			APIKey:             apiKey,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
	}
}
