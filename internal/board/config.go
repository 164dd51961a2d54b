package board

import (
	"fmt"
	"regexp"

	"ExamPapers/internal/config"
	"ExamPapers/internal/domain"
)

// FromConfig converts a YAML board declaration into a Profile.
func FromConfig(cfg config.BoardConfig) (Profile, error) {
	p := Profile{
		Key:       cfg.Key,
		Name:      cfg.Name,
		Board:     cfg.Board,
		Level:     cfg.Level,
		URL:       cfg.URL,
		HrefToken: cfg.HrefToken,
	}
	if p.Name == "" {
		p.Name = cfg.Key
	}

	for _, sc := range cfg.Sections {
		section := Section{
			Name:         sc.Name,
			Paper:        sc.Paper,
			Anchor:       sc.Anchor,
			HeadingTitle: sc.HeadingTitle,
			Subtypes:     sc.Subtypes,
		}
		for _, raw := range sc.ContentTypes {
			ct, ok := domain.ParseContentType(raw)
			if !ok {
				return Profile{}, fmt.Errorf("board %s: section %q: unknown content type %q", cfg.Key, sc.Name, raw)
			}
			section.ContentTypes = append(section.ContentTypes, ct)
		}
		if len(section.ContentTypes) == 0 {
			section.ContentTypes = bothTypes
		}
		p.Sections = append(p.Sections, section)
	}

	for i, rc := range cfg.Identity {
		rule := IdentityRule{
			Kind:      RuleKind(rc.Kind),
			Lowercase: rc.Lowercase,
			Paper:     rc.Paper,
			Contains:  rc.Contains,
			Excludes:  rc.Excludes,
		}
		if rc.Pattern != "" {
			re, err := regexp.Compile(rc.Pattern)
			if err != nil {
				return Profile{}, fmt.Errorf("board %s: identity rule %d: %w", cfg.Key, i, err)
			}
			rule.Pattern = re
		}
		p.Identity = append(p.Identity, rule)
	}

	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
