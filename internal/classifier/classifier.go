// Package classifier derives paper metadata from scraped links.
package classifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ExamPapers/internal/board"
	"ExamPapers/internal/domain"
)

var (
	ErrUnknownContentType      = errors.New("unknown content type")
	ErrUnresolvedPaperIdentity = errors.New("unresolved paper identity")
	ErrMissingYear             = errors.New("missing year")
)

// Error describes why a link could not be classified. Kind is one of the
// package sentinels and is matched by errors.Is.
type Error struct {
	Kind  error
	Board string
	URL   string
	Text  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("classify %q (%s) for %s: %v", e.Text, e.URL, e.Board, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Options tune classification strictness.
type Options struct {
	// RequireYear turns a missing year into ErrMissingYear.
	RequireYear bool
}

// Classifier maps (link, profile) pairs to artifact metadata. It holds no
// state besides its options and is safe for concurrent use.
type Classifier struct {
	opts Options
}

// New creates a classifier.
func New(opts Options) *Classifier {
	return &Classifier{opts: opts}
}

// Classify derives metadata for link against profile.
func (c *Classifier) Classify(link domain.RawLink, profile board.Profile) (domain.ArtifactMetadata, error) {
	fail := func(kind error) (domain.ArtifactMetadata, error) {
		return domain.ArtifactMetadata{}, &Error{Kind: kind, Board: profile.Key, URL: link.URL, Text: link.Text}
	}

	contentType, ok := contentTypeOf(link.Text)
	if !ok {
		return fail(ErrUnknownContentType)
	}

	section, ok := resolveSection(link, profile)
	if !ok {
		return fail(ErrUnresolvedPaperIdentity)
	}

	year := yearOf(link.Text)
	if year == "" && c.opts.RequireYear {
		return fail(ErrMissingYear)
	}

	return domain.ArtifactMetadata{
		ExamBoard:   profile.Board,
		Level:       profile.Level,
		PaperLabel:  section.Label(),
		Section:     section.Name,
		ContentType: contentType,
		Year:        year,
		Month:       monthOf(link.Text),
		Subtype:     subtypeOf(link.Text, section),
	}, nil
}

// contentTypeOf is case-sensitive: "QP"/"MS" are literal markers and must not
// match ordinary words.
func contentTypeOf(text string) (domain.ContentType, bool) {
	switch {
	case strings.Contains(text, string(domain.QuestionPaper)):
		return domain.QuestionPaper, true
	case strings.Contains(text, string(domain.MarkScheme)):
		return domain.MarkScheme, true
	default:
		return "", false
	}
}

var yearExpr = regexp.MustCompile(`20(\d{2})`)

func yearOf(text string) string {
	m := yearExpr.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return "20" + m[1]
}

var monthExpr = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

func monthOf(text string) time.Month {
	m := monthExpr.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return monthsByPrefix[strings.ToLower(m[1][:3])]
}

func subtypeOf(text string, section board.Section) string {
	if !section.HasSubtypes() {
		return ""
	}
	lower := strings.ToLower(text)
	for _, subtype := range section.Subtypes {
		name := strings.ToLower(subtype)
		if strings.Contains(lower, name) {
			return subtype
		}
		if hasParenthesized(lower, abbreviate(name)) {
			return subtype
		}
	}
	return ""
}

func abbreviate(name string) string {
	runes := []rune(name)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return string(runes)
}

// hasParenthesized reports whether text holds "(abbr...)" where only letters
// follow the abbreviation, e.g. "(mech)" or "(stats)" for "stat".
func hasParenthesized(text, abbr string) bool {
	needle := "(" + abbr
	for offset := 0; ; {
		idx := strings.Index(text[offset:], needle)
		if idx < 0 {
			return false
		}
		rest := text[offset+idx+len(needle):]
		end := strings.IndexFunc(rest, func(r rune) bool { return r < 'a' || r > 'z' })
		if end >= 0 && rest[end] == ')' {
			return true
		}
		offset += idx + len(needle)
	}
}
