package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"ExamPapers/internal/ports"
)

// VerifyReport lists ledger entries whose files are gone or changed.
type VerifyReport struct {
	Checked    int
	Intact     int
	Missing    []string
	Mismatched []string
}

// Clean reports whether every recorded file is present and unchanged.
func (r VerifyReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Mismatched) == 0
}

// Verifier re-hashes recorded files. It never modifies the ledger.
type Verifier struct {
	ledger ports.Ledger
	logger *slog.Logger
}

// NewVerifier wires the ledger to check.
func NewVerifier(ledger ports.Ledger, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{ledger: ledger, logger: logger.With("component", "verifier")}
}

// Verify checks every ledger entry against the file it points at.
func (v *Verifier) Verify(ctx context.Context) (VerifyReport, error) {
	var report VerifyReport

	entries, err := v.ledger.Entries(ctx)
	if err != nil {
		return report, fmt.Errorf("load ledger: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		hash, err := hashFile(entry.FilePath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			report.Missing = append(report.Missing, entry.FilePath)
			v.logger.Warn("recorded file missing", "filename", entry.Filename, "path", entry.FilePath)
		case err != nil:
			return report, fmt.Errorf("hash %s: %w", entry.FilePath, err)
		case hash != entry.ContentHash:
			report.Mismatched = append(report.Mismatched, entry.FilePath)
			v.logger.Warn("recorded file changed", "filename", entry.Filename, "path", entry.FilePath)
		default:
			report.Intact++
		}
	}

	v.logger.Info("ledger verified",
		"checked", report.Checked,
		"intact", report.Intact,
		"missing", len(report.Missing),
		"mismatched", len(report.Mismatched),
	)
	return report, nil
}
