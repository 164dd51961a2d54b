// Package parser fetches board pages and exposes them through ports.Document.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ExamPapers/internal/ports"
)

// PageFetcher downloads and parses board pages.
type PageFetcher struct {
	client    *http.Client
	userAgent string
	referer   string
	logger    *slog.Logger
}

var _ ports.PageSource = (*PageFetcher)(nil)

// NewPageFetcher wires an HTTP client; a nil client gets a 30s timeout.
func NewPageFetcher(client *http.Client, userAgent, referer string, logger *slog.Logger) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PageFetcher{
		client:    client,
		userAgent: userAgent,
		referer:   referer,
		logger:    logger.With("component", "page_fetcher"),
	}
}

// Fetch retrieves pageURL and parses it as HTML.
func (p *PageFetcher) Fetch(ctx context.Context, pageURL string) (ports.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if p.referer != "" {
		req.Header.Set("Referer", p.referer)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	p.logger.Info("fetching page", "url", pageURL)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page %s returned %s", pageURL, resp.Status)
	}

	doc, err := Parse(resp.Body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", pageURL, err)
	}
	return doc, nil
}
