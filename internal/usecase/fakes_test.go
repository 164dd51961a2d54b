package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"ExamPapers/internal/board"
	"ExamPapers/internal/domain"
	"ExamPapers/internal/infrastructure/parser"
	"ExamPapers/internal/ports"
)

const pdfPayload = "%PDF-1.4 test payload"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(raw)
}

func edexcelProfile(t *testing.T) board.Profile {
	t.Helper()
	reg, err := board.NewRegistry(board.Builtin()...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	p, err := reg.Lookup("edexcel_alevel")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	return p
}

type fakePages struct {
	mu    sync.Mutex
	html  map[string]string
	calls int
}

func (f *fakePages) Fetch(ctx context.Context, url string) (ports.Document, error) {
	f.mu.Lock()
	f.calls++
	body, ok := f.html[url]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("page %s returned 503 Service Unavailable", url)
	}
	doc, err := parser.Parse(bytes.NewBufferString(body), url)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type fakeTransfer struct {
	mu       sync.Mutex
	payloads map[string]string
	failures map[string]error
	calls    []string
}

func (f *fakeTransfer) Transfer(ctx context.Context, url, dest string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	if err, ok := f.failures[url]; ok {
		return 0, err
	}
	body := pdfPayload
	if p, ok := f.payloads[url]; ok {
		body = p
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(dest, []byte(body), 0o644); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

func (f *fakeTransfer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errNotPDF = errors.New("not a pdf")

type fakeValidator struct{}

func (fakeValidator) Validate(ctx context.Context, path string, kind domain.DocumentKind) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		return errNotPDF
	}
	return nil
}

type memoryLedger struct {
	mu          sync.Mutex
	entries     []domain.LedgerEntry
	initialized int
	recordErr   error
}

func (m *memoryLedger) Initialize(ctx context.Context, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized++
	if overwrite {
		m.entries = nil
	}
	return nil
}

func (m *memoryLedger) KnownFilenames(ctx context.Context) map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	known := map[string]struct{}{}
	for _, e := range m.entries {
		known[e.Filename] = struct{}{}
	}
	return known
}

func (m *memoryLedger) Record(ctx context.Context, entry domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLedger) Entries(ctx context.Context) ([]domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LedgerEntry(nil), m.entries...), nil
}

type harness struct {
	pages     *fakePages
	transfer  *fakeTransfer
	ledger    *memoryLedger
	orch      *Orchestrator
	profile   board.Profile
	outputDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	profile := edexcelProfile(t)
	h := &harness{
		pages:     &fakePages{html: map[string]string{profile.URL: loadFixture(t, "edexcel_papers.html")}},
		transfer:  &fakeTransfer{payloads: map[string]string{}, failures: map[string]error{}},
		ledger:    &memoryLedger{},
		profile:   profile,
		outputDir: t.TempDir(),
	}
	h.orch = NewOrchestrator(OrchestratorDeps{
		Pages:     h.pages,
		Transfer:  h.transfer,
		Validator: fakeValidator{},
		Ledger:    h.ledger,
		Logger:    quietLogger(),
	})
	return h
}

func (h *harness) run(t *testing.T, opts RunOptions) Report {
	t.Helper()
	opts.OutputDir = h.outputDir
	report, err := h.orch.Run(context.Background(), h.profile, opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	return report
}
