package layout

import (
	"path/filepath"
	"testing"
	"time"

	"ExamPapers/internal/domain"
)

func TestResolveEdexcelMechanicsMarkScheme(t *testing.T) {
	t.Parallel()

	meta := domain.ArtifactMetadata{
		ExamBoard:   "edexcel",
		Level:       "alevel",
		PaperLabel:  "Paper 3",
		ContentType: domain.MarkScheme,
		Year:        "2021",
		Subtype:     "Mechanics",
	}
	link := domain.RawLink{
		URL:  "https://pmt.physicsandmathstutor.com/download/Maths/A-level/Papers/Edexcel/Paper-3/June%202021%20MS%20-%20Mechanics.pdf",
		Text: "2021 (Mech) MS",
	}

	dir, name := NewResolver(Long).Resolve("out", meta, link)

	wantDir := filepath.Join("out", "edexcel", "alevel", "Paper_3", "Mechanics", "mark_schemes")
	if dir != wantDir {
		t.Fatalf("unexpected dir: %s, want %s", dir, wantDir)
	}
	if name != "June 2021 MS - Mechanics.pdf" {
		t.Fatalf("unexpected filename: %q", name)
	}
}

func TestResolveShortConvention(t *testing.T) {
	t.Parallel()

	meta := domain.ArtifactMetadata{
		ExamBoard:   "aqa",
		Level:       "alevel",
		PaperLabel:  "Paper 1",
		ContentType: domain.QuestionPaper,
		Month:       time.June,
	}
	dir, _ := NewResolver(Short).Resolve("/data", meta, domain.RawLink{URL: "https://example.com/a.pdf"})

	if want := filepath.Join("/data", "aqa", "alevel", "Paper_1", "qp"); dir != want {
		t.Fatalf("unexpected dir: %s, want %s", dir, want)
	}
}

func TestFilenameFallsBackToSanitizedText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		link domain.RawLink
		want string
	}{
		{
			link: domain.RawLink{URL: "https://example.com/download?id=12", Text: " June 2020: QP/Paper 1? "},
			want: "June 2020_ QP_Paper 1_.pdf",
		},
		{
			link: domain.RawLink{URL: "https://example.com/papers/", Text: `A<b>|"c"*`},
			want: "A_b___c__.pdf",
		},
		{
			link: domain.RawLink{URL: "https://example.com/papers/QP-2019.PDF", Text: "ignored"},
			want: "QP-2019.PDF",
		},
	}

	for _, tc := range cases {
		if got := Filename(tc.link); got != tc.want {
			t.Fatalf("Filename(%+v) = %q, want %q", tc.link, got, tc.want)
		}
	}
}

func TestResolveIsStable(t *testing.T) {
	t.Parallel()

	r := NewResolver(Long)
	meta := domain.ArtifactMetadata{ExamBoard: "ocr", Level: "alevel", PaperLabel: "Paper 2", ContentType: domain.QuestionPaper}
	link := domain.RawLink{URL: "https://example.com/Component-2.pdf", Text: "2019 QP"}

	dir1, name1 := r.Resolve("base", meta, link)
	dir2, name2 := r.Resolve("base", meta, link)
	if dir1 != dir2 || name1 != name2 {
		t.Fatalf("resolve not stable: %s/%s vs %s/%s", dir1, name1, dir2, name2)
	}
}
