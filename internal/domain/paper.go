package domain

import (
	"strings"
	"time"
)

// ContentType distinguishes question papers from mark schemes.
type ContentType string

const (
	QuestionPaper ContentType = "QP"
	MarkScheme    ContentType = "MS"
)

// Valid reports whether the content type is one of the known kinds.
func (c ContentType) Valid() bool {
	return c == QuestionPaper || c == MarkScheme
}

// ParseContentType accepts the ledger form ("QP"/"MS") case-insensitively.
func ParseContentType(value string) (ContentType, bool) {
	switch ContentType(strings.ToUpper(strings.TrimSpace(value))) {
	case QuestionPaper:
		return QuestionPaper, true
	case MarkScheme:
		return MarkScheme, true
	default:
		return "", false
	}
}

// DocumentKind names the file format a transfer is expected to produce.
type DocumentKind string

const (
	KindPDF DocumentKind = "pdf"
)

// RawLink is a scraped anchor: href plus visible text. Section is set when the
// link was found under a located paper section.
type RawLink struct {
	URL     string
	Text    string
	Section string
}

// ArtifactMetadata is the classified identity of one downloadable paper.
type ArtifactMetadata struct {
	ExamBoard   string
	Level       string
	PaperLabel  string
	Section     string
	ContentType ContentType
	Year        string
	Month       time.Month
	Subtype     string
}

// MonthName returns the full month name, or "" when the sitting is unknown.
func (m ArtifactMetadata) MonthName() string {
	if m.Month < time.January || m.Month > time.December {
		return ""
	}
	return m.Month.String()
}

// LedgerEntry is one row of the download ledger.
type LedgerEntry struct {
	Filename     string
	Metadata     ArtifactMetadata
	FilePath     string
	ContentHash  string
	Validated    bool
	DownloadedAt time.Time
}
