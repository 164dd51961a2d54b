package ports

import (
	"context"
	"time"

	"ExamPapers/internal/domain"
)

// PageSource fetches and parses board pages.
type PageSource interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// Document is a parsed HTML page.
type Document interface {
	// ElementByID returns the first <a> element carrying the id.
	ElementByID(id string) (Element, bool)
	// Headings lists every heading (h1..h6) in document order.
	Headings() []Element
	// Links lists every anchor with an href, in document order.
	Links() []domain.RawLink
}

// Element is a node of a parsed page.
type Element interface {
	Tag() string
	Text() string
	// Heading returns the closest enclosing h1..h6, or the element itself.
	Heading() (Element, bool)
	NextSibling() (Element, bool)
	// Same reports whether both values wrap the same node.
	Same(other Element) bool
	// Links lists anchors with an href below the element.
	Links() []domain.RawLink
}

// Transferrer downloads a remote file to a local path.
type Transferrer interface {
	Transfer(ctx context.Context, url, dest string) (int64, error)
}

// Validator checks that a downloaded file is a well-formed document.
type Validator interface {
	Validate(ctx context.Context, path string, kind domain.DocumentKind) error
}

// Ledger persists one record per validated download.
type Ledger interface {
	Initialize(ctx context.Context, overwrite bool) error
	// KnownFilenames fails soft: an unreadable ledger yields an empty set.
	KnownFilenames(ctx context.Context) map[string]struct{}
	Record(ctx context.Context, entry domain.LedgerEntry) error
	Entries(ctx context.Context) ([]domain.LedgerEntry, error)
}

// Scheduler controls when recurring syncs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
