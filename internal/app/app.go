// Package app wires configuration into a ready-to-use slip pipeline.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/tradeslip/internal/common"
	"github.com/joseph-ayodele/tradeslip/internal/core"
	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
	"github.com/joseph-ayodele/tradeslip/internal/core/ocr"
	"github.com/joseph-ayodele/tradeslip/internal/metrics"
	"github.com/joseph-ayodele/tradeslip/internal/repository"
)

// App holds the long-lived collaborators shared by the binaries.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB // nil when auditing is off
	Metrics   *metrics.Metrics
	Processor *core.Processor
}

type Options struct {
	// Audit opens the database, applies migrations and records every run.
	Audit bool
}

// New builds the pipeline from cfg.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	procOpts := []core.ProcessorOption{core.WithMetrics(a.Metrics)}
	if opts.Audit {
		db, err := OpenDatabase(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		a.DB = db
		procOpts = append(procOpts, core.WithJobs(repository.NewExtractJobRepository(db.DB, logger)))
	}

	a.Processor = core.NewProcessor(logger, NewOrchestrator(cfg.OCR, logger), procOpts...)
	return a, nil
}

// NewOrchestrator assembles the extraction collaborators backed by the external tools.
func NewOrchestrator(cfg common.OCRConfig, logger *slog.Logger) *extract.Orchestrator {
	ocrCfg := ocr.Config{
		Pdftoppm:      cfg.Pdftoppm,
		Tesseract:     cfg.Tesseract,
		Languages:     cfg.Languages,
		TessdataDir:   cfg.TessdataDir,
		HeicConverter: cfg.HeicConverter,
	}
	return extract.NewOrchestrator(
		ocr.NewPDFTextReader(logger),
		ocr.NewPdftoppm(ocrCfg, ocr.WithLogger(logger)),
		ocr.NewTesseract(ocrCfg, ocr.WithLogger(logger)),
		extract.WithScale(cfg.Scale),
		extract.WithLogger(logger),
	)
}

// OpenDatabase connects, pings and migrates.
func OpenDatabase(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "open database"), common.ErrDatabase)
	}
	if err := repository.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		repository.Close(db, logger)
		return nil, errors.Mark(errors.Wrap(err, "ping database"), common.ErrDatabase)
	}
	if err := repository.Migrate(ctx, db, logger); err != nil {
		repository.Close(db, logger)
		return nil, errors.Mark(err, common.ErrDatabase)
	}
	return db, nil
}

// Limiter returns the shared request limiter, or nil when rate limiting is off.
func (a *App) Limiter() *rate.Limiter {
	if a.Config.Server.RateLimit <= 0 {
		return nil
	}
	burst := a.Config.Server.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(a.Config.Server.RateLimit), burst)
}

// MaxUploadBytes converts the configured megabytes.
func (a *App) MaxUploadBytes() int64 {
	return a.Config.Server.MaxUploadMB << 20
}

// Health pings the audit database when there is one.
func (a *App) Health(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return repository.HealthCheck(ctx, a.DB, 0, a.Logger)
}

func (a *App) Close() {
	repository.Close(a.DB, a.Logger)
}
