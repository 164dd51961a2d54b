// Package ledger keeps the append-only record of validated downloads.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ExamPapers/internal/domain"
	"ExamPapers/internal/ports"
)

// TimeLayout is the download_date format.
const TimeLayout = "2006-01-02 15:04:05"

// Header is the fixed column order of the CSV ledger.
var Header = []string{
	"filename", "exam_board", "level", "paper_type", "subtype",
	"content_type", "year", "month", "file_path", "download_date",
	"content_hash", "validated",
}

// ReadError reports an unreadable or malformed ledger.
type ReadError struct {
	Path string
	Line int
	Err  error
}

func (e *ReadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("read ledger %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("read ledger %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// CSVLedger stores entries in a UTF-8 CSV file. It assumes a single writer.
type CSVLedger struct {
	path   string
	logger *slog.Logger
}

var _ ports.Ledger = (*CSVLedger)(nil)

// NewCSV returns a ledger backed by the file at path.
func NewCSV(path string, logger *slog.Logger) *CSVLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVLedger{path: path, logger: logger.With("component", "ledger", "path", path)}
}

// Path returns the ledger file location.
func (l *CSVLedger) Path() string {
	return l.path
}

// Initialize writes a header-only file when none exists (or it is empty), or
// when overwrite is set. An existing ledger is otherwise left untouched.
func (l *CSVLedger) Initialize(ctx context.Context, overwrite bool) error {
	info, err := os.Stat(l.path)
	exists := err == nil && info.Size() > 0
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat ledger %s: %w", l.path, err)
	}
	if exists && !overwrite {
		l.logger.Info("using existing ledger")
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("create ledger %s: %w", l.path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return fmt.Errorf("write ledger header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write ledger header: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger %s: %w", l.path, err)
	}

	if exists {
		l.logger.Info("reinitialized ledger")
	} else {
		l.logger.Info("created ledger")
	}
	return nil
}

// KnownFilenames returns every recorded filename. Only the filename column
// is read: a malformed row is logged with its line number and skipped, and
// the rows around it still count. A missing ledger yields an empty set; an
// unreadable one is logged and yields whatever was read before the failure.
func (l *CSVLedger) KnownFilenames(ctx context.Context) map[string]struct{} {
	known := map[string]struct{}{}

	f, err := os.Open(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("ledger unreadable, treating as empty", "error", &ReadError{Path: l.path, Err: err})
		}
		return known
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			l.logger.Warn("ledger row skipped", "line", perr.Line, "error", perr.Err)
			continue
		}
		if err != nil {
			l.logger.Warn("ledger unreadable, keeping rows read so far", "known", len(known), "error", &ReadError{Path: l.path, Err: err})
			break
		}

		line, _ := r.FieldPos(0)
		name := strings.TrimSpace(row[0])
		switch {
		case line == 1 && name == Header[0]:
			continue
		case name == "":
			l.logger.Warn("ledger row skipped", "line", line, "error", "empty filename")
			continue
		case len(row) != len(Header):
			l.logger.Warn("ledger row malformed, keeping filename", "line", line, "filename", name, "fields", len(row))
		}
		known[name] = struct{}{}
	}
	return known
}

// Record appends one row. The header is written first if the file is new.
func (l *CSVLedger) Record(ctx context.Context, entry domain.LedgerEntry) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", l.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat ledger %s: %w", l.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			f.Close()
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	if err := w.Write(toRow(entry)); err != nil {
		f.Close()
		return fmt.Errorf("write ledger row %s: %w", entry.Filename, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush ledger row %s: %w", entry.Filename, err)
	}
	return f.Close()
}

// Entries reads every row. Any malformed row fails the whole read.
func (l *CSVLedger) Entries(ctx context.Context) ([]domain.LedgerEntry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, &ReadError{Path: l.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &ReadError{Path: l.path, Line: 1, Err: err}
	}
	if header[0] != Header[0] {
		return nil, &ReadError{Path: l.path, Line: 1, Err: fmt.Errorf("unexpected header %q", strings.Join(header, ","))}
	}

	var entries []domain.LedgerEntry
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ReadError{Path: l.path, Line: line, Err: err}
		}
		entry, err := fromRow(row)
		if err != nil {
			return nil, &ReadError{Path: l.path, Line: line, Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func toRow(e domain.LedgerEntry) []string {
	return []string{
		e.Filename,
		e.Metadata.ExamBoard,
		e.Metadata.Level,
		e.Metadata.PaperLabel,
		e.Metadata.Subtype,
		string(e.Metadata.ContentType),
		e.Metadata.Year,
		e.Metadata.MonthName(),
		e.FilePath,
		FormatTime(e.DownloadedAt),
		e.ContentHash,
		FormatBool(e.Validated),
	}
}

func fromRow(row []string) (domain.LedgerEntry, error) {
	entry := domain.LedgerEntry{
		Filename: row[0],
		Metadata: domain.ArtifactMetadata{
			ExamBoard:  row[1],
			Level:      row[2],
			PaperLabel: row[3],
			Subtype:    row[4],
			Year:       row[6],
		},
		FilePath:    row[8],
		ContentHash: row[10],
	}
	if entry.Filename == "" {
		return domain.LedgerEntry{}, errors.New("empty filename")
	}

	if row[5] != "" {
		ct, ok := domain.ParseContentType(row[5])
		if !ok {
			return domain.LedgerEntry{}, fmt.Errorf("unknown content type %q", row[5])
		}
		entry.Metadata.ContentType = ct
	}

	month, err := ParseMonth(row[7])
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	entry.Metadata.Month = month

	if row[9] != "" {
		at, err := time.ParseInLocation(TimeLayout, row[9], time.Local)
		if err != nil {
			return domain.LedgerEntry{}, fmt.Errorf("parse download_date: %w", err)
		}
		entry.DownloadedAt = at
	}

	entry.Validated = ParseBool(row[11])
	return entry, nil
}

// FormatTime renders a download timestamp.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimeLayout)
}

// FormatBool renders the validated column.
func FormatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// ParseBool accepts True/False in any case.
func ParseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// ParseMonth converts a full month name back to time.Month; "" is unset.
func ParseMonth(name string) (time.Month, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", name)
}
