package board

import (
	"regexp"

	"ExamPapers/internal/domain"
)

const pmtPapersURL = "https://www.physicsandmathstutor.com/maths-revision/"

var (
	componentText = regexp.MustCompile(`Component (\d+)`)
	componentURL  = regexp.MustCompile(`component-(\d+)`)
	paperURL      = regexp.MustCompile(`Paper-(\d+)`)

	bothTypes = []domain.ContentType{domain.QuestionPaper, domain.MarkScheme}
)

// Builtin returns the compiled-in board profiles.
func Builtin() []Profile {
	return []Profile{
		ocrALevel(),
		ocrMEIALevel(),
		aqaALevel(),
		edexcelALevel(),
	}
}

func ocrALevel() Profile {
	return Profile{
		Key:   "ocr_alevel",
		Name:  "OCR A-Level",
		Board: "ocr",
		Level: "alevel",
		URL:   pmtPapersURL + "a-level-ocr/papers/",
		Sections: []Section{
			{Name: "Paper 1 - Pure", Paper: 1, Anchor: "component-1-pure", ContentTypes: bothTypes},
			{Name: "Paper 2 - Pure and Statistics", Paper: 2, Anchor: "component-2-pure-and-statistics", ContentTypes: bothTypes},
			{Name: "Paper 3 - Pure and Mechanics", Paper: 3, Anchor: "component-3-pure-and-mechanics", ContentTypes: bothTypes},
		},
		Identity: []IdentityRule{
			{Kind: RuleTextToken, Pattern: componentText},
			{Kind: RuleURLToken, Pattern: componentURL, Lowercase: true},
			{Kind: RuleKeywords, Paper: 1, Contains: []string{"pure-mathematics"}, Excludes: []string{"statistics", "mechanics"}},
			{Kind: RuleKeywords, Paper: 2, Contains: []string{"statistics", "stats"}},
			{Kind: RuleKeywords, Paper: 3, Contains: []string{"mechanics", "mech"}},
		},
	}
}

func ocrMEIALevel() Profile {
	return Profile{
		Key:   "ocr_mei_alevel",
		Name:  "OCR MEI A-Level",
		Board: "ocr-mei",
		Level: "alevel",
		URL:   pmtPapersURL + "a-level-ocr-mei/papers/",
		Sections: []Section{
			{Name: "Component 1 - Pure and Mechanics", Paper: 1, Anchor: "component-1-pure-and-mechanics", ContentTypes: bothTypes},
			{Name: "Component 2 - Pure and Statistics", Paper: 2, Anchor: "component-2-pure-and-statistics", ContentTypes: bothTypes},
			{Name: "Component 3 - Pure and Comprehension", Paper: 3, Anchor: "component-3-pure-and-comprehension", ContentTypes: bothTypes},
		},
		Identity: []IdentityRule{
			{Kind: RuleTextToken, Pattern: componentText},
			{Kind: RuleURLToken, Pattern: paperURL},
			{Kind: RuleKeywords, Paper: 1, Contains: []string{"mechanics", "mech", "component-1"}},
			{Kind: RuleKeywords, Paper: 2, Contains: []string{"statistics", "stats", "component-2"}},
			{Kind: RuleKeywords, Paper: 3, Contains: []string{"comprehension", "comp", "component-3"}},
		},
	}
}

func aqaALevel() Profile {
	return Profile{
		Key:   "aqa_alevel",
		Name:  "AQA A-Level",
		Board: "aqa",
		Level: "alevel",
		URL:   pmtPapersURL + "a-level-aqa/papers/",
		Sections: []Section{
			{Name: "Paper 1 - Pure", Paper: 1, Anchor: "paper-1-pure", ContentTypes: bothTypes},
			{Name: "Paper 2 - Pure and Mechanics", Paper: 2, Anchor: "paper-2-pure-mechanics", ContentTypes: bothTypes},
			{Name: "Paper 3 - Pure and Statistics", Paper: 3, Anchor: "paper-3-pure-statistics", ContentTypes: bothTypes},
		},
		Identity: []IdentityRule{
			{Kind: RuleURLToken, Pattern: paperURL},
		},
		HrefToken: "paper",
	}
}

// The Edexcel page marks Paper 3 with the anchor id "paper1", the same id
// used by Paper 1. Paper 3 is found by scanning forward to its own heading.
func edexcelALevel() Profile {
	return Profile{
		Key:   "edexcel_alevel",
		Name:  "Edexcel A-Level",
		Board: "edexcel",
		Level: "alevel",
		URL:   pmtPapersURL + "a-level-edexcel/papers/",
		Sections: []Section{
			{Name: "Paper 1 - Pure", Paper: 1, Anchor: "paper1", ContentTypes: bothTypes},
			{Name: "Paper 2 - Pure", Paper: 2, Anchor: "paper2", ContentTypes: bothTypes},
			{
				Name:         "Paper 3 - Statistics & Mechanics",
				Paper:        3,
				Anchor:       "paper1",
				HeadingTitle: "Paper 3",
				ContentTypes: bothTypes,
				Subtypes:     []string{"Mechanics", "Statistics"},
			},
		},
		Identity: []IdentityRule{
			{Kind: RuleURLToken, Pattern: paperURL},
		},
	}
}
