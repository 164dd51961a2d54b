package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ExamPapers/internal/domain"
	"ExamPapers/internal/ledger"
	"ExamPapers/internal/ports"
)

const ledgerTable = "ledger_entries"

const schema = `CREATE TABLE IF NOT EXISTS ledger_entries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	filename      TEXT NOT NULL,
	exam_board    TEXT NOT NULL,
	level         TEXT NOT NULL,
	paper_type    TEXT NOT NULL,
	subtype       TEXT NOT NULL DEFAULT '',
	content_type  TEXT NOT NULL,
	year          TEXT NOT NULL DEFAULT '',
	month         TEXT NOT NULL DEFAULT '',
	file_path     TEXT NOT NULL,
	download_date TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	validated     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_filename ON ledger_entries (filename);`

var columns = []string{
	"filename", "exam_board", "level", "paper_type", "subtype",
	"content_type", "year", "month", "file_path", "download_date",
	"content_hash", "validated",
}

// SQLiteLedger persists ledger entries into a SQLite database. Rows are only
// ever inserted. The database file is created by the first Initialize or
// Record; reads against a missing file do not create it.
type SQLiteLedger struct {
	path    string
	builder sq.StatementBuilderType
	logger  *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

var _ ports.Ledger = (*SQLiteLedger)(nil)

// NewSQLite returns a ledger for the database at path without touching the
// filesystem.
func NewSQLite(path string, logger *slog.Logger) *SQLiteLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteLedger{
		path:    path,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  logger.With("component", "ledger", "backend", "sqlite", "path", path),
	}
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteLedger, error) {
	l := NewSQLite(path, logger)
	if _, err := l.conn(context.Background(), true); err != nil {
		return nil, err
	}
	return l, nil
}

// NewSQLiteLedger wires an existing sql.DB whose schema is already in place.
func NewSQLiteLedger(db *sql.DB, path string, logger *slog.Logger) *SQLiteLedger {
	l := NewSQLite(path, logger)
	l.db = db
	return l
}

// conn returns the open database. With create unset a missing file is
// reported as fs.ErrNotExist instead of being created.
func (l *SQLiteLedger) conn(ctx context.Context, create bool) (*sql.DB, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		return l.db, nil
	}

	if !create {
		if _, err := os.Stat(l.path); err != nil {
			return nil, err
		}
	} else if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", l.path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db %s: %w", l.path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	l.db = db
	return db, nil
}

// Close releases the database handle, if one was opened.
func (l *SQLiteLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Initialize ensures the table exists; overwrite clears previous rows.
func (l *SQLiteLedger) Initialize(ctx context.Context, overwrite bool) error {
	db, err := l.conn(ctx, true)
	if err != nil {
		return err
	}
	if !overwrite {
		l.logger.Info("using existing ledger")
		return nil
	}

	query, args, err := l.builder.Delete(ledgerTable).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	l.logger.Info("reinitialized ledger")
	return nil
}

// KnownFilenames returns recorded filenames, or an empty set when the
// database cannot be read.
func (l *SQLiteLedger) KnownFilenames(ctx context.Context) map[string]struct{} {
	known, err := l.filenames(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]struct{}{}
	}
	if err != nil {
		l.logger.Warn("ledger unreadable, treating as empty", "error", err)
		return map[string]struct{}{}
	}
	return known
}

func (l *SQLiteLedger) filenames(ctx context.Context) (map[string]struct{}, error) {
	db, err := l.conn(ctx, false)
	if err != nil {
		return nil, &ledger.ReadError{Path: l.path, Err: err}
	}

	query, args, err := l.builder.Select("DISTINCT filename").From(ledgerTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ledger.ReadError{Path: l.path, Err: err}
	}
	defer rows.Close()

	known := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &ledger.ReadError{Path: l.path, Err: err}
		}
		known[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.ReadError{Path: l.path, Err: err}
	}
	return known, nil
}

// Record inserts one entry.
func (l *SQLiteLedger) Record(ctx context.Context, entry domain.LedgerEntry) error {
	db, err := l.conn(ctx, true)
	if err != nil {
		return err
	}

	validated := 0
	if entry.Validated {
		validated = 1
	}

	query, args, err := l.builder.Insert(ledgerTable).
		Columns(columns...).
		Values(
			entry.Filename,
			entry.Metadata.ExamBoard,
			entry.Metadata.Level,
			entry.Metadata.PaperLabel,
			entry.Metadata.Subtype,
			string(entry.Metadata.ContentType),
			entry.Metadata.Year,
			entry.Metadata.MonthName(),
			entry.FilePath,
			ledger.FormatTime(entry.DownloadedAt),
			entry.ContentHash,
			validated,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert ledger entry %s: %w", entry.Filename, err)
	}
	return nil
}

// Entries returns every row in insertion order.
func (l *SQLiteLedger) Entries(ctx context.Context) ([]domain.LedgerEntry, error) {
	db, err := l.conn(ctx, false)
	if err != nil {
		return nil, &ledger.ReadError{Path: l.path, Err: err}
	}

	query, args, err := l.builder.Select(columns...).From(ledgerTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ledger.ReadError{Path: l.path, Err: err}
	}

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var contentType, month, stamp string
		var validated int
		if err := rows.Scan(
			&e.Filename,
			&e.Metadata.ExamBoard,
			&e.Metadata.Level,
			&e.Metadata.PaperLabel,
			&e.Metadata.Subtype,
			&contentType,
			&e.Metadata.Year,
			&month,
			&e.FilePath,
			&stamp,
			&e.ContentHash,
			&validated,
		); err != nil {
			_ = rows.Close()
			return nil, &ledger.ReadError{Path: l.path, Err: err}
		}

		e.Metadata.ContentType, _ = domain.ParseContentType(contentType)
		if e.Metadata.Month, err = ledger.ParseMonth(month); err != nil {
			_ = rows.Close()
			return nil, &ledger.ReadError{Path: l.path, Err: err}
		}
		if stamp != "" {
			if e.DownloadedAt, err = time.ParseInLocation(ledger.TimeLayout, stamp, time.Local); err != nil {
				_ = rows.Close()
				return nil, &ledger.ReadError{Path: l.path, Err: err}
			}
		}
		e.Validated = validated != 0
		entries = append(entries, e)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, &ledger.ReadError{Path: l.path, Err: rowsErr}
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return entries, nil
}
