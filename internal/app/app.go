package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ExamPapers/internal/board"
	"ExamPapers/internal/classifier"
	"ExamPapers/internal/config"
	"ExamPapers/internal/infrastructure/parser"
	"ExamPapers/internal/infrastructure/scheduler"
	"ExamPapers/internal/infrastructure/storage"
	"ExamPapers/internal/infrastructure/transfer"
	"ExamPapers/internal/infrastructure/validate"
	"ExamPapers/internal/layout"
	"ExamPapers/internal/ledger"
	"ExamPapers/internal/logging"
	"ExamPapers/internal/ports"
	"ExamPapers/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	registry  *board.Registry
	ledger    ports.Ledger
	harvester *usecase.Harvester
	verifier  *usecase.Verifier
	closers   []io.Closer
}

// New builds the application: board registry, ledger backend, HTTP adapters
// and the use cases on top of them.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	registry, err := buildRegistry(cfg.Boards)
	if err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger, registry: registry}

	switch cfg.Ledger.Backend {
	case config.BackendSQLite:
		l := storage.NewSQLite(cfg.Ledger.Path, baseLogger)
		a.ledger = l
		a.closers = append(a.closers, l)
	default:
		a.ledger = ledger.NewCSV(cfg.Ledger.Path, baseLogger)
	}

	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout}

	pages := parser.NewPageFetcher(httpClient, cfg.Fetch.UserAgent, cfg.Fetch.Referer, baseLogger)
	files := transfer.NewClient(httpClient, transfer.NewPacer(cfg.Fetch.MinDelay, cfg.Fetch.MaxDelay), transfer.Options{
		UserAgent:      cfg.Fetch.UserAgent,
		Referer:        cfg.Fetch.Referer,
		MaxRetries:     cfg.Fetch.MaxRetries,
		InitialBackoff: cfg.Fetch.InitialBackoff,
		MaxBackoff:     cfg.Fetch.MaxBackoff,
	}, baseLogger)

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Pages:      pages,
		Transfer:   files,
		Validator:  validate.NewPDFValidator(),
		Ledger:     a.ledger,
		Classifier: classifier.New(classifier.Options{RequireYear: true}),
		Resolver:   layout.NewResolver(layout.Convention(cfg.Layout.Folders)),
		Logger:     baseLogger,
	})

	a.harvester = usecase.NewHarvester(registry, orchestrator, a.ledger, baseLogger)
	a.verifier = usecase.NewVerifier(a.ledger, baseLogger)
	return a, nil
}

func buildRegistry(extra []config.BoardConfig) (*board.Registry, error) {
	profiles := board.Builtin()
	for _, bc := range extra {
		p, err := board.FromConfig(bc)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return board.NewRegistry(profiles...)
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Boards lists every registered board profile ordered by key.
func (a *Application) Boards() []board.Profile {
	profiles, _ := a.registry.Select("all")
	return profiles
}

// SyncRequest returns a request populated from configuration for boards.
func (a *Application) SyncRequest(boards string) usecase.SyncRequest {
	return usecase.SyncRequest{
		Boards:    boards,
		OutputDir: a.cfg.Output,
		Discovery: a.cfg.Discovery,
		Validate:  !a.cfg.SkipValidation,
	}
}

// Sync runs one harvest.
func (a *Application) Sync(ctx context.Context, req usecase.SyncRequest) (usecase.Report, error) {
	return a.harvester.Sync(ctx, req)
}

// Verify re-hashes every recorded file.
func (a *Application) Verify(ctx context.Context) (usecase.VerifyReport, error) {
	return a.verifier.Verify(ctx)
}

// Schedule runs the sync on the configured cron expression until ctx is
// cancelled.
func (a *Application) Schedule(ctx context.Context, req usecase.SyncRequest) error {
	expr := a.cfg.Schedule.CronExpression
	if err := scheduler.Validate(expr); err != nil {
		return err
	}
	if _, err := a.registry.Select(req.Boards); err != nil {
		return err
	}

	driver := scheduler.NewCronScheduler(expr, a.logger)
	s := usecase.NewScheduler(driver, func(ctx context.Context) error {
		report, err := a.harvester.Sync(ctx, req)
		if err != nil {
			return err
		}
		a.logger.Info("scheduled sync finished", "report", report)
		return nil
	}, a.logger)

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

// Close releases the ledger backend.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
