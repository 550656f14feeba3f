package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/handler"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/service"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/config"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/cron"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/metrics"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/middleware"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Template *template.Template
	Metrics  *metrics.Metrics

	// Archive and Scheduler are nil when ARCHIVE_DIR is unset
	Archive   storage.Storage
	Scheduler *cron.Scheduler

	ConverterService *service.ConverterService
	ConverterHandler *handler.ConverterHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initTemplate(); err != nil {
		return nil, fmt.Errorf("failed to init template: %w", err)
	}

	if err := deps.initArchive(); err != nil {
		return nil, fmt.Errorf("failed to init archive: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initTemplate loads the journal template, falling back to the built-in one
func (d *Dependencies) initTemplate() error {
	path := d.Config.Converter.TemplatePath
	if path == "" {
		d.Template = template.Default()
		d.Logger.Info("using built-in journal template", slog.String("template", d.Template.Name))
		return nil
	}

	tpl, err := template.Load(path)
	if err != nil {
		return err
	}
	d.Template = tpl
	d.Logger.Info("journal template loaded", slog.String("path", path), slog.String("template", tpl.Name))
	return nil
}

// initArchive opens the batch archive and schedules its pruning
func (d *Dependencies) initArchive() error {
	cfg := d.Config.Archive
	if cfg.Dir == "" {
		return nil
	}

	store, err := storage.NewLocalStorage(cfg.Dir)
	if err != nil {
		return err
	}
	d.Archive = store

	d.Scheduler = cron.NewScheduler(store, cfg.Retention, d.Logger)
	if err := d.Scheduler.Start(cfg.PruneSchedule); err != nil {
		return fmt.Errorf("failed to schedule archive pruning: %w", err)
	}

	d.Logger.Info("batch archive enabled", slog.String("dir", cfg.Dir))
	return nil
}

// initServices initializes the conversion service
func (d *Dependencies) initServices() error {
	d.Metrics = metrics.New()
	d.ConverterService = service.NewConverterService(d.Template, d.Logger).
		WithWorkers(d.Config.Converter.Workers).
		WithMetrics(d.Metrics)

	d.Logger.Info("services initialized", slog.Int("workers", d.Config.Converter.Workers))
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.ConverterHandler = handler.NewConverterHandler(d.ConverterService, d.Config.Server.MaxUploadBytes, d.Logger)
	if d.Archive != nil {
		d.ConverterHandler.WithArchive(d.Archive)
	}

	d.Logger.Info("handlers initialized")
	return nil
}

// Router returns the HTTP handler serving every public endpoint
func (d *Dependencies) Router() http.Handler {
	mux := http.NewServeMux()
	d.ConverterHandler.Register(mux)

	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Logging(d.Logger),
		middleware.CORS(d.Config.Server.AllowedOrigins),
		middleware.RateLimit(d.Config.Server.RateLimitPerSecond, d.Config.Server.RateLimitBurst),
	)
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	d.Logger.Info("cleanup completed")
}
