package board

import (
	"fmt"
	"regexp"
	"slices"

	"ExamPapers/internal/domain"
)

// RuleKind selects how an IdentityRule is evaluated against a link.
type RuleKind string

const (
	// RuleTextToken matches Pattern against the anchor text.
	RuleTextToken RuleKind = "text"
	// RuleURLToken matches Pattern against the link URL.
	RuleURLToken RuleKind = "url"
	// RuleKeywords infers Paper from subject keywords in the URL.
	RuleKeywords RuleKind = "keywords"
)

// IdentityRule is one step of a board's paper identity resolution. Text and
// URL rules read the paper number from the first capture group of Pattern.
type IdentityRule struct {
	Kind      RuleKind
	Pattern   *regexp.Regexp
	Lowercase bool
	Paper     int
	Contains  []string
	Excludes  []string
}

// Section describes one paper on a board page.
type Section struct {
	Name  string
	Paper int
	// Anchor is the id of the <a> element marking the section heading.
	Anchor string
	// HeadingTitle, when set, must appear in the section heading text. Used
	// when the page reuses an anchor id for more than one section.
	HeadingTitle string
	ContentTypes []domain.ContentType
	Subtypes     []string
}

// Label is the canonical paper label, e.g. "Paper 3".
func (s Section) Label() string {
	return fmt.Sprintf("Paper %d", s.Paper)
}

// HasSubtypes reports whether links of this section carry a subtype.
func (s Section) HasSubtypes() bool {
	return len(s.Subtypes) > 0
}

// Profile is the static description of one board/level page.
type Profile struct {
	Key      string
	Name     string
	Board    string
	Level    string
	URL      string
	Sections []Section
	Identity []IdentityRule
	// HrefToken restricts page-wide discovery to links whose href contains it
	// (case-insensitive). Empty accepts every QP/MS link.
	HrefToken string
}

// SectionByPaper returns the section with the given paper number.
func (p Profile) SectionByPaper(paper int) (Section, bool) {
	for _, s := range p.Sections {
		if s.Paper == paper {
			return s, true
		}
	}
	return Section{}, false
}

// SectionByName returns the section with the given display name.
func (p Profile) SectionByName(name string) (Section, bool) {
	for _, s := range p.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

func (p Profile) clone() Profile {
	out := p
	out.Sections = make([]Section, len(p.Sections))
	for i, s := range p.Sections {
		s.ContentTypes = slices.Clone(s.ContentTypes)
		s.Subtypes = slices.Clone(s.Subtypes)
		out.Sections[i] = s
	}
	out.Identity = make([]IdentityRule, len(p.Identity))
	for i, r := range p.Identity {
		r.Contains = slices.Clone(r.Contains)
		r.Excludes = slices.Clone(r.Excludes)
		out.Identity[i] = r
	}
	return out
}

func (p Profile) validate() error {
	if p.Key == "" {
		return fmt.Errorf("board profile without key")
	}
	if p.URL == "" {
		return fmt.Errorf("board %s: missing page url", p.Key)
	}
	if p.Board == "" || p.Level == "" {
		return fmt.Errorf("board %s: board and level folders are required", p.Key)
	}
	if len(p.Sections) == 0 {
		return fmt.Errorf("board %s: no sections", p.Key)
	}
	for _, s := range p.Sections {
		if s.Paper <= 0 {
			return fmt.Errorf("board %s: section %q has no paper number", p.Key, s.Name)
		}
		if s.Anchor == "" {
			return fmt.Errorf("board %s: section %q has no anchor", p.Key, s.Name)
		}
	}
	for i, r := range p.Identity {
		switch r.Kind {
		case RuleTextToken, RuleURLToken:
			if r.Pattern == nil || r.Pattern.NumSubexp() < 1 {
				return fmt.Errorf("board %s: identity rule %d needs a pattern with a capture group", p.Key, i)
			}
		case RuleKeywords:
			if r.Paper <= 0 || len(r.Contains) == 0 {
				return fmt.Errorf("board %s: keyword rule %d needs paper and keywords", p.Key, i)
			}
		default:
			return fmt.Errorf("board %s: unknown identity rule kind %q", p.Key, r.Kind)
		}
	}
	return nil
}
