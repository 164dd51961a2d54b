// Package layout maps classified papers onto the on-disk directory tree.
package layout

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"ExamPapers/internal/domain"
)

// Convention picks the names of the content-type folders.
type Convention string

const (
	// Long uses question_papers / mark_schemes.
	Long Convention = "long"
	// Short uses qp / ms.
	Short Convention = "short"
)

// Resolver computes destination directories and filenames. It never touches
// the filesystem.
type Resolver struct {
	convention Convention
}

// NewResolver returns a resolver using the given folder convention. Unknown
// conventions fall back to Long.
func NewResolver(convention Convention) *Resolver {
	if convention != Short {
		convention = Long
	}
	return &Resolver{convention: convention}
}

// Resolve returns the directory and filename for a classified link:
// base/<board>/<level>/<Paper_N>[/<subtype>]/<content folder>.
func (r *Resolver) Resolve(base string, meta domain.ArtifactMetadata, link domain.RawLink) (string, string) {
	parts := []string{
		base,
		meta.ExamBoard,
		meta.Level,
		strings.ReplaceAll(meta.PaperLabel, " ", "_"),
	}
	if meta.Subtype != "" {
		parts = append(parts, meta.Subtype)
	}
	parts = append(parts, r.contentFolder(meta.ContentType))

	return filepath.Join(parts...), Filename(link)
}

func (r *Resolver) contentFolder(ct domain.ContentType) string {
	if r.convention == Short {
		if ct == domain.MarkScheme {
			return "ms"
		}
		return "qp"
	}
	if ct == domain.MarkScheme {
		return "mark_schemes"
	}
	return "question_papers"
}

var unsafeChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// Filename derives the stored filename of a link: the unescaped last URL path
// segment when it is a .pdf, otherwise the sanitized anchor text.
func Filename(link domain.RawLink) string {
	if name := urlBase(link.URL); strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name
	}
	return unsafeChars.Replace(strings.TrimSpace(link.Text)+".pdf")
}

func urlBase(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.EscapedPath()
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}
