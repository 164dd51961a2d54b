package usecase

import (
	"fmt"
	"strings"

	"ExamPapers/internal/board"
	"ExamPapers/internal/domain"
	"ExamPapers/internal/ports"
)

// SectionLocationError reports a section that could not be found on a page.
type SectionLocationError struct {
	Board   string
	Section string
	Reason  string
}

func (e *SectionLocationError) Error() string {
	return fmt.Sprintf("locate section %q on %s: %s", e.Section, e.Board, e.Reason)
}

// sectionLocator finds the links of each section of one page. It remembers
// which headings earlier sections consumed so a reused anchor id resolves to
// a later heading.
type sectionLocator struct {
	doc      ports.Document
	board    string
	headings []ports.Element
	consumed []ports.Element
}

func newSectionLocator(doc ports.Document, boardKey string) *sectionLocator {
	return &sectionLocator{doc: doc, board: boardKey, headings: doc.Headings()}
}

// Locate returns the links below the section heading, tagged with the
// section name.
func (l *sectionLocator) Locate(section board.Section) ([]domain.RawLink, error) {
	fail := func(reason string) ([]domain.RawLink, error) {
		return nil, &SectionLocationError{Board: l.board, Section: section.Name, Reason: reason}
	}

	anchor, ok := l.doc.ElementByID(section.Anchor)
	if !ok {
		return fail(fmt.Sprintf("anchor %q not found", section.Anchor))
	}
	heading, ok := anchor.Heading()
	if !ok {
		return fail(fmt.Sprintf("anchor %q is not inside a heading", section.Anchor))
	}

	if section.HeadingTitle != "" || l.isConsumed(heading) {
		heading, ok = l.scanForward(heading, section.HeadingTitle)
		if !ok {
			return fail(fmt.Sprintf("no heading titled %q after anchor %q", section.HeadingTitle, section.Anchor))
		}
	}
	l.consumed = append(l.consumed, heading)

	var links []domain.RawLink
	for el, ok := heading.NextSibling(); ok; el, ok = el.NextSibling() {
		tag := el.Tag()
		if tag == "hr" || isHeadingTag(tag) {
			break
		}
		if tag != "div" {
			continue
		}
		for _, link := range el.Links() {
			link.Section = section.Name
			links = append(links, link)
		}
	}

	if len(links) == 0 {
		return fail("no links below heading")
	}
	return links, nil
}

// scanForward walks the page's headings from start (inclusive) and returns
// the first unconsumed one whose text contains title. An empty title accepts
// any unconsumed heading of the same level.
func (l *sectionLocator) scanForward(start ports.Element, title string) (ports.Element, bool) {
	idx := -1
	for i, h := range l.headings {
		if h.Same(start) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	for _, h := range l.headings[idx:] {
		if l.isConsumed(h) {
			continue
		}
		if title == "" {
			if h.Tag() == start.Tag() {
				return h, true
			}
			continue
		}
		if strings.Contains(h.Text(), title) {
			return h, true
		}
	}
	return nil, false
}

func (l *sectionLocator) isConsumed(el ports.Element) bool {
	for _, c := range l.consumed {
		if c.Same(el) {
			return true
		}
	}
	return false
}

func isHeadingTag(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}
