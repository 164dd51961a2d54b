package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"ExamPapers/internal/board"
	"ExamPapers/internal/classifier"
	"ExamPapers/internal/config"
	"ExamPapers/internal/domain"
	"ExamPapers/internal/layout"
	"ExamPapers/internal/ports"
)

// PageFetchError reports a board page that could not be retrieved.
type PageFetchError struct {
	Board string
	URL   string
	Err   error
}

func (e *PageFetchError) Error() string {
	return fmt.Sprintf("fetch page for %s (%s): %v", e.Board, e.URL, e.Err)
}

func (e *PageFetchError) Unwrap() error {
	return e.Err
}

// RunOptions tune a single board run.
type RunOptions struct {
	OutputDir string
	// Discovery is config.DiscoverySections (default) or config.DiscoveryPage.
	Discovery string
	Validate  bool
	DryRun    bool
	// Known holds filenames to skip. It is updated in place as files are
	// recorded; nil loads the set from the ledger.
	Known map[string]struct{}
}

// Report summarizes one or more board runs.
type Report struct {
	SectionsLocated        int
	SectionsFailed         int
	LinksSeen              int
	Downloaded             int
	SkippedKnown           int
	Planned                int
	ClassificationFailures int
	TransferFailures       int
	ValidationFailures     int
	Bytes                  int64
}

// Add accumulates other into r.
func (r *Report) Add(other Report) {
	r.SectionsLocated += other.SectionsLocated
	r.SectionsFailed += other.SectionsFailed
	r.LinksSeen += other.LinksSeen
	r.Downloaded += other.Downloaded
	r.SkippedKnown += other.SkippedKnown
	r.Planned += other.Planned
	r.ClassificationFailures += other.ClassificationFailures
	r.TransferFailures += other.TransferFailures
	r.ValidationFailures += other.ValidationFailures
	r.Bytes += other.Bytes
}

// LogValue renders the report as a slog group.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("sections_located", r.SectionsLocated),
		slog.Int("sections_failed", r.SectionsFailed),
		slog.Int("links_seen", r.LinksSeen),
		slog.Int("downloaded", r.Downloaded),
		slog.Int("skipped_known", r.SkippedKnown),
		slog.Int("planned", r.Planned),
		slog.Int("classification_failures", r.ClassificationFailures),
		slog.Int("transfer_failures", r.TransferFailures),
		slog.Int("validation_failures", r.ValidationFailures),
		slog.Int64("bytes", r.Bytes),
	)
}

// OrchestratorDeps wires the driven adapters into the orchestrator.
type OrchestratorDeps struct {
	Pages      ports.PageSource
	Transfer   ports.Transferrer
	Validator  ports.Validator
	Ledger     ports.Ledger
	Classifier *classifier.Classifier
	Resolver   *layout.Resolver
	Logger     *slog.Logger
	Now        func() time.Time
}

// Orchestrator runs the fetch pipeline for one board page at a time:
// locate links, classify, resolve, skip known, transfer, validate, record.
type Orchestrator struct {
	pages      ports.PageSource
	transfer   ports.Transferrer
	validator  ports.Validator
	ledger     ports.Ledger
	classifier *classifier.Classifier
	resolver   *layout.Resolver
	logger     *slog.Logger
	now        func() time.Time
}

// NewOrchestrator constructs the pipeline. Missing classifier, resolver,
// logger and clock get defaults.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		pages:      deps.Pages,
		transfer:   deps.Transfer,
		validator:  deps.Validator,
		ledger:     deps.Ledger,
		classifier: deps.Classifier,
		resolver:   deps.Resolver,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if o.classifier == nil {
		o.classifier = classifier.New(classifier.Options{RequireYear: true})
	}
	if o.resolver == nil {
		o.resolver = layout.NewResolver(layout.Long)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o
}

// WithLogger returns a copy of o that logs through logger.
func (o *Orchestrator) WithLogger(logger *slog.Logger) *Orchestrator {
	cp := *o
	cp.logger = logger.With("component", "orchestrator")
	return &cp
}

// Run processes one board. Per-link and per-section failures are logged and
// counted; a page fetch failure returns *PageFetchError and a ledger write
// failure is returned as fatal.
func (o *Orchestrator) Run(ctx context.Context, profile board.Profile, opts RunOptions) (Report, error) {
	var report Report
	logger := o.logger.With("board", profile.Key)

	if o.pages == nil {
		return report, errors.New("orchestrator: no page source")
	}
	if !opts.DryRun && (o.transfer == nil || o.ledger == nil) {
		return report, errors.New("orchestrator: transfer and ledger are required outside dry-run")
	}
	if opts.Validate && !opts.DryRun && o.validator == nil {
		return report, errors.New("orchestrator: validation enabled without a validator")
	}

	known := opts.Known
	if known == nil {
		known = map[string]struct{}{}
		if o.ledger != nil {
			known = o.ledger.KnownFilenames(ctx)
		}
	}

	doc, err := o.pages.Fetch(ctx, profile.URL)
	if err != nil {
		return report, &PageFetchError{Board: profile.Key, URL: profile.URL, Err: err}
	}

	links := o.discover(doc, profile, opts.Discovery, &report, logger)
	logger.Info("links discovered", "count", len(links), "discovery", discoveryMode(opts.Discovery))

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.LinksSeen++
		if err := o.process(ctx, profile, link, opts, known, &report, logger); err != nil {
			return report, err
		}
	}

	logger.Info("board finished", "report", report)
	return report, nil
}

func discoveryMode(mode string) string {
	if mode == "" {
		return config.DiscoverySections
	}
	return mode
}

func (o *Orchestrator) discover(doc ports.Document, profile board.Profile, mode string, report *Report, logger *slog.Logger) []domain.RawLink {
	if discoveryMode(mode) == config.DiscoveryPage {
		return pageLinks(doc, profile)
	}

	locator := newSectionLocator(doc, profile.Key)
	var links []domain.RawLink
	for _, section := range profile.Sections {
		found, err := locator.Locate(section)
		if err != nil {
			report.SectionsFailed++
			logger.Warn("section skipped", "section", section.Name, "error", err)
			continue
		}
		report.SectionsLocated++
		logger.Info("section located", "section", section.Name, "links", len(found))
		links = append(links, found...)
	}
	return links
}

// pageLinks collects every QP/MS anchor on the page, restricted to hrefs
// containing the profile's href token when one is set.
func pageLinks(doc ports.Document, profile board.Profile) []domain.RawLink {
	token := strings.ToLower(profile.HrefToken)
	var out []domain.RawLink
	for _, link := range doc.Links() {
		if !strings.Contains(link.Text, string(domain.QuestionPaper)) && !strings.Contains(link.Text, string(domain.MarkScheme)) {
			continue
		}
		if token != "" && !strings.Contains(strings.ToLower(link.URL), token) {
			continue
		}
		out = append(out, link)
	}
	return out
}

func (o *Orchestrator) process(ctx context.Context, profile board.Profile, link domain.RawLink, opts RunOptions, known map[string]struct{}, report *Report, logger *slog.Logger) error {
	logger = logger.With("url", link.URL, "text", link.Text)

	meta, err := o.classifier.Classify(link, profile)
	if err != nil {
		report.ClassificationFailures++
		logger.Warn("link skipped: classification failed", "error", err)
		return nil
	}
	if section, ok := profile.SectionByName(meta.Section); ok && len(section.ContentTypes) > 0 &&
		!slices.Contains(section.ContentTypes, meta.ContentType) {
		report.ClassificationFailures++
		logger.Warn("link skipped: content type not offered by section", "section", section.Name, "content_type", meta.ContentType)
		return nil
	}

	dir, name := o.resolver.Resolve(opts.OutputDir, meta, link)
	if _, ok := known[name]; ok {
		report.SkippedKnown++
		logger.Debug("already downloaded", "filename", name)
		return nil
	}
	dest := filepath.Join(dir, name)

	if opts.DryRun {
		report.Planned++
		known[name] = struct{}{}
		logger.Info("would download",
			"filename", name,
			"dest", dest,
			"paper", meta.PaperLabel,
			"content_type", meta.ContentType,
			"year", meta.Year,
			"month", meta.MonthName(),
			"subtype", meta.Subtype,
		)
		return nil
	}

	n, err := o.transfer.Transfer(ctx, link.URL, dest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		report.TransferFailures++
		logger.Warn("link skipped: transfer failed", "filename", name, "error", err)
		return nil
	}

	validated := false
	if opts.Validate {
		if err := o.validator.Validate(ctx, dest, domain.KindPDF); err != nil {
			report.ValidationFailures++
			if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.Error("remove invalid file", "path", dest, "error", rmErr)
			}
			logger.Warn("link skipped: invalid document removed", "path", dest, "error", err)
			return nil
		}
		validated = true
	}

	hash, err := hashFile(dest)
	if err != nil {
		report.TransferFailures++
		logger.Warn("link skipped: cannot hash file", "path", dest, "error", err)
		return nil
	}

	entry := domain.LedgerEntry{
		Filename:     name,
		Metadata:     meta,
		FilePath:     dest,
		ContentHash:  hash,
		Validated:    validated,
		DownloadedAt: o.now(),
	}
	if err := o.ledger.Record(ctx, entry); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}

	known[name] = struct{}{}
	report.Downloaded++
	report.Bytes += n
	logger.Info("downloaded", "filename", name, "path", dest, "bytes", n)
	return nil
}

// hashFile returns the hex SHA-256 of the file at path.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
