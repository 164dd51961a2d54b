package classifier

import (
	"errors"
	"testing"
	"time"

	"ExamPapers/internal/board"
	"ExamPapers/internal/domain"
)

func profile(t *testing.T, key string) board.Profile {
	t.Helper()

	reg, err := board.NewRegistry(board.Builtin()...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	p, err := reg.Lookup(key)
	if err != nil {
		t.Fatalf("lookup %s: %v", key, err)
	}
	return p
}

func TestClassifyQuestionPaperFromURL(t *testing.T) {
	t.Parallel()

	c := New(Options{RequireYear: true})
	link := domain.RawLink{
		URL:  "https://pmt.physicsandmathstutor.com/download/Maths/A-level/Papers/Edexcel/Paper-1/June%202022%20QP/Paper-1-QP.pdf",
		Text: "2022 June QP",
	}

	meta, err := c.Classify(link, profile(t, "edexcel_alevel"))
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	if meta.ContentType != domain.QuestionPaper {
		t.Fatalf("expected QP, got %s", meta.ContentType)
	}
	if meta.Year != "2022" {
		t.Fatalf("expected year 2022, got %q", meta.Year)
	}
	if meta.Month != time.June {
		t.Fatalf("expected June, got %v", meta.Month)
	}
	if meta.PaperLabel != "Paper 1" {
		t.Fatalf("unexpected paper label: %s", meta.PaperLabel)
	}
	if meta.ExamBoard != "edexcel" || meta.Level != "alevel" {
		t.Fatalf("unexpected board/level: %s/%s", meta.ExamBoard, meta.Level)
	}
	if meta.Subtype != "" {
		t.Fatalf("paper 1 has no subtypes, got %q", meta.Subtype)
	}
}

func TestClassifyMarkSchemeWithSubtypeAbbreviation(t *testing.T) {
	t.Parallel()

	c := New(Options{RequireYear: true})
	link := domain.RawLink{
		URL:     "https://pmt.physicsandmathstutor.com/download/Maths/A-level/Papers/Edexcel/Paper-3/2021-MS-Mech.pdf",
		Text:    "2021 (Mech) MS",
		Section: "Paper 3 - Statistics & Mechanics",
	}

	meta, err := c.Classify(link, profile(t, "edexcel_alevel"))
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	if meta.ContentType != domain.MarkScheme {
		t.Fatalf("expected MS, got %s", meta.ContentType)
	}
	if meta.PaperLabel != "Paper 3" {
		t.Fatalf("unexpected paper label: %s", meta.PaperLabel)
	}
	if meta.Subtype != "Mechanics" {
		t.Fatalf("expected Mechanics subtype, got %q", meta.Subtype)
	}
	if meta.Year != "2021" {
		t.Fatalf("expected year 2021, got %q", meta.Year)
	}
	if meta.Month != 0 {
		t.Fatalf("expected unset month, got %v", meta.Month)
	}
}

func TestClassifyStatisticsSubtypeFullName(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	link := domain.RawLink{
		URL:  "https://example.com/Paper-3/Statistics.pdf",
		Text: "June 2019 Statistics QP",
	}

	meta, err := c.Classify(link, profile(t, "edexcel_alevel"))
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if meta.Subtype != "Statistics" {
		t.Fatalf("expected Statistics subtype, got %q", meta.Subtype)
	}

	link.Text = "June 2019 (Stats) QP"
	meta, err = c.Classify(link, profile(t, "edexcel_alevel"))
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if meta.Subtype != "Statistics" {
		t.Fatalf("expected Statistics subtype from abbreviation, got %q", meta.Subtype)
	}
}

func TestClassifyMissingYear(t *testing.T) {
	t.Parallel()

	link := domain.RawLink{
		URL:  "https://example.com/Paper-1-QP.pdf",
		Text: "Specimen QP",
	}

	_, err := New(Options{RequireYear: true}).Classify(link, profile(t, "edexcel_alevel"))
	if !errors.Is(err, ErrMissingYear) {
		t.Fatalf("expected ErrMissingYear, got %v", err)
	}

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if cerr.URL != link.URL || cerr.Text != link.Text || cerr.Board != "edexcel_alevel" {
		t.Fatalf("error does not carry link context: %+v", cerr)
	}

	meta, err := New(Options{}).Classify(link, profile(t, "edexcel_alevel"))
	if err != nil {
		t.Fatalf("year should be optional without RequireYear: %v", err)
	}
	if meta.Year != "" {
		t.Fatalf("expected empty year, got %q", meta.Year)
	}
}

func TestClassifyUnknownContentType(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	for _, text := range []string{"2022 June Examiner Report", "2022 June qp", "2022 June ms"} {
		_, err := c.Classify(domain.RawLink{URL: "https://example.com/Paper-1.pdf", Text: text}, profile(t, "edexcel_alevel"))
		if !errors.Is(err, ErrUnknownContentType) {
			t.Fatalf("%q: expected ErrUnknownContentType, got %v", text, err)
		}
	}
}

func TestClassifyUnresolvedIdentity(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	link := domain.RawLink{URL: "https://example.com/Paper-7-QP.pdf", Text: "2022 June QP"}

	_, err := c.Classify(link, profile(t, "aqa_alevel"))
	if !errors.Is(err, ErrUnresolvedPaperIdentity) {
		t.Fatalf("expected ErrUnresolvedPaperIdentity, got %v", err)
	}
}

func TestClassifyOCRResolverOrder(t *testing.T) {
	t.Parallel()

	c := New(Options{RequireYear: true})
	p := profile(t, "ocr_alevel")

	cases := []struct {
		name  string
		link  domain.RawLink
		paper string
	}{
		{
			name:  "text token",
			link:  domain.RawLink{URL: "https://example.com/files/mechanics.pdf", Text: "Component 2 June 2019 QP"},
			paper: "Paper 2",
		},
		{
			name:  "url token",
			link:  domain.RawLink{URL: "https://example.com/Component-3/June-2018-QP.pdf", Text: "June 2018 QP"},
			paper: "Paper 3",
		},
		{
			name:  "pure keyword",
			link:  domain.RawLink{URL: "https://example.com/pure-mathematics/June-2018-MS.pdf", Text: "June 2018 MS"},
			paper: "Paper 1",
		},
		{
			name:  "statistics keyword",
			link:  domain.RawLink{URL: "https://example.com/pure-mathematics-and-statistics/2020.pdf", Text: "November 2020 MS"},
			paper: "Paper 2",
		},
		{
			name:  "section hint",
			link:  domain.RawLink{URL: "https://example.com/files/2021.pdf", Text: "2021 QP", Section: "Paper 3 - Pure and Mechanics"},
			paper: "Paper 3",
		},
	}

	for _, tc := range cases {
		meta, err := c.Classify(tc.link, p)
		if err != nil {
			t.Fatalf("%s: Classify returned error: %v", tc.name, err)
		}
		if meta.PaperLabel != tc.paper {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.paper, meta.PaperLabel)
		}
	}
}

func TestClassifyMonthAbbreviations(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Month{
		"Nov 2020 QP":       time.November,
		"sept 2021 QP":      time.September,
		"October 2020 QP":   time.October,
		"2019 QP":           0,
		"Summary 2019 QP":   0,
		"2017 JANUARY QP":   time.January,
		"Mayhem 2019 QP":    0,
		"2023 May/June QP":  time.May,
		"Specimen (Mar) QP": time.March,
	}

	for text, want := range cases {
		if got := monthOf(text); got != want {
			t.Fatalf("monthOf(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	c := New(Options{RequireYear: true})
	p := profile(t, "edexcel_alevel")
	link := domain.RawLink{URL: "https://example.com/Paper-3/Mech.pdf", Text: "June 2022 (Mech) QP"}

	first, err := c.Classify(link, p)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Classify(link, p)
		if err != nil {
			t.Fatalf("Classify returned error: %v", err)
		}
		if again != first {
			t.Fatalf("classification changed between calls: %+v vs %+v", first, again)
		}
	}
}
