package classifier

import (
	"strconv"
	"strings"

	"ExamPapers/internal/board"
	"ExamPapers/internal/domain"
)

// matcher evaluates one identity rule and returns the paper number it names.
type matcher func(rule board.IdentityRule, link domain.RawLink) (int, bool)

var matchers = map[board.RuleKind]matcher{
	board.RuleTextToken: func(rule board.IdentityRule, link domain.RawLink) (int, bool) {
		return matchToken(rule, link.Text)
	},
	board.RuleURLToken: func(rule board.IdentityRule, link domain.RawLink) (int, bool) {
		return matchToken(rule, link.URL)
	},
	board.RuleKeywords: matchKeywords,
}

// resolveSection runs the profile's identity rules in order; the first rule
// naming a declared paper wins. The located section, if any, is the last
// resort.
func resolveSection(link domain.RawLink, profile board.Profile) (board.Section, bool) {
	for _, rule := range profile.Identity {
		match, ok := matchers[rule.Kind]
		if !ok {
			continue
		}
		paper, ok := match(rule, link)
		if !ok {
			continue
		}
		if section, found := profile.SectionByPaper(paper); found {
			return section, true
		}
	}

	if link.Section != "" {
		return profile.SectionByName(link.Section)
	}
	return board.Section{}, false
}

func matchToken(rule board.IdentityRule, input string) (int, bool) {
	if rule.Pattern == nil {
		return 0, false
	}
	if rule.Lowercase {
		input = strings.ToLower(input)
	}
	m := rule.Pattern.FindStringSubmatch(input)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func matchKeywords(rule board.IdentityRule, link domain.RawLink) (int, bool) {
	href := strings.ToLower(link.URL)
	for _, kw := range rule.Excludes {
		if strings.Contains(href, strings.ToLower(kw)) {
			return 0, false
		}
	}
	for _, kw := range rule.Contains {
		if strings.Contains(href, strings.ToLower(kw)) {
			return rule.Paper, true
		}
	}
	return 0, false
}
