package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ExamPapers/internal/board"
	"ExamPapers/internal/ports"
)

// SyncRequest selects boards and run behaviour for one sync.
type SyncRequest struct {
	// Boards is a comma-separated list of board keys or "all".
	Boards    string
	OutputDir string
	Discovery string
	Validate  bool
	DryRun    bool
	// Fresh recreates the ledger instead of resuming from it.
	Fresh bool
}

// Harvester runs the orchestrator over a selection of boards sharing one
// ledger and one known-filename set.
type Harvester struct {
	registry     *board.Registry
	orchestrator *Orchestrator
	ledger       ports.Ledger
	logger       *slog.Logger
}

// NewHarvester wires the registry, orchestrator and ledger.
func NewHarvester(registry *board.Registry, orchestrator *Orchestrator, ledger ports.Ledger, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{
		registry:     registry,
		orchestrator: orchestrator,
		ledger:       ledger,
		logger:       logger.With("component", "harvester"),
	}
}

// Sync runs every selected board. An unknown board key fails before any
// work; a board whose page cannot be fetched is logged and the next board
// runs. Ledger write failures abort the sync.
func (h *Harvester) Sync(ctx context.Context, req SyncRequest) (Report, error) {
	var total Report

	profiles, err := h.registry.Select(req.Boards)
	if err != nil {
		return total, err
	}

	runID := uuid.NewString()
	logger := h.logger.With("run_id", runID)
	logger.Info("sync started", "boards", len(profiles), "dry_run", req.DryRun, "fresh", req.Fresh)

	known := map[string]struct{}{}
	if !req.DryRun {
		if err := h.ledger.Initialize(ctx, req.Fresh); err != nil {
			return total, fmt.Errorf("initialize ledger: %w", err)
		}
	}
	if !req.Fresh {
		known = h.ledger.KnownFilenames(ctx)
	}

	orch := h.orchestrator.WithLogger(logger)
	opts := RunOptions{
		OutputDir: req.OutputDir,
		Discovery: req.Discovery,
		Validate:  req.Validate,
		DryRun:    req.DryRun,
		Known:     known,
	}

	for _, profile := range profiles {
		report, err := orch.Run(ctx, profile, opts)
		total.Add(report)
		if err == nil {
			continue
		}
		var pageErr *PageFetchError
		if errors.As(err, &pageErr) {
			logger.Error("board skipped", "board", profile.Key, "error", err)
			continue
		}
		return total, fmt.Errorf("board %s: %w", profile.Key, err)
	}

	logger.Info("sync finished", "report", total)
	return total, nil
}
