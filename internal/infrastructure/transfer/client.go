// Package transfer downloads paper files over HTTP with politeness delays and
// retries.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ExamPapers/internal/ports"
)

// TransferError is returned once the retry budget is spent or a permanent
// failure is hit. Status is 0 for network failures.
type TransferError struct {
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (e *TransferError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transfer %s: status %d after %d attempt(s)", e.URL, e.Status, e.Attempts)
	}
	return fmt.Sprintf("transfer %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Options configure request headers and the retry policy.
type Options struct {
	UserAgent      string
	Referer        string
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client streams remote files to disk.
type Client struct {
	http   *http.Client
	pacer  *Pacer
	opts   Options
	logger *slog.Logger
}

var _ ports.Transferrer = (*Client)(nil)

// NewClient wires an HTTP client and pacer. A nil pacer disables delays.
func NewClient(httpClient *http.Client, pacer *Pacer, opts Options, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:   httpClient,
		pacer:  pacer,
		opts:   opts,
		logger: logger.With("component", "transfer"),
	}
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return "unexpected status " + e.status
}

// retryable covers throttling, server errors and the site's transient 400s.
func retryable(code int) bool {
	return code == http.StatusBadRequest ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// Transfer downloads url into dest. The body is streamed to dest+".part" and
// renamed on success, so dest never holds a partial file.
func (c *Client) Transfer(ctx context.Context, url, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create dir for %s: %w", dest, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.InitialBackoff
	policy.MaxInterval = c.opts.MaxBackoff
	policy.MaxElapsedTime = 0

	var (
		attempts int
		written  int64
	)
	op := func() error {
		if err := c.pacer.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempts++

		n, err := c.attempt(ctx, url, dest)
		if err == nil {
			written = n
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return err
		}
		var se *statusError
		if errors.As(err, &se) && !retryable(se.code) {
			return backoff.Permanent(err)
		}
		c.logger.Warn("transfer attempt failed", "url", url, "attempt", attempts, "error", err)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.opts.MaxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		terr := &TransferError{URL: url, Attempts: attempts, Err: err}
		var se *statusError
		if errors.As(err, &se) {
			terr.Status = se.code
		}
		return 0, terr
	}
	return written, nil
}

func (c *Client) attempt(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.Referer != "" {
		req.Header.Set("Referer", c.opts.Referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return 0, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("create %s: %w", part, err))
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(part)
		if copyErr != nil {
			return 0, fmt.Errorf("read body %s: %w", url, copyErr)
		}
		return 0, backoff.Permanent(fmt.Errorf("close %s: %w", part, closeErr))
	}

	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return 0, backoff.Permanent(fmt.Errorf("rename %s: %w", part, err))
	}
	return n, nil
}
