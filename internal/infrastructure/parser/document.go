package parser

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ExamPapers/internal/domain"
	"ExamPapers/internal/ports"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

// Document adapts a goquery document to ports.Document. Link URLs are made
// absolute against the page URL.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

var _ ports.Document = (*Document)(nil)

// Parse reads HTML from r. pageURL is used to resolve relative links.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return &Document{doc: doc, base: base}, nil
}

// ElementByID returns the first anchor whose id attribute equals id.
func (d *Document) ElementByID(id string) (ports.Element, bool) {
	sel := d.doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr("id")
		return ok && v == id
	}).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return &element{sel: sel, doc: d}, true
}

// Headings returns all h1..h6 elements in document order.
func (d *Document) Headings() []ports.Element {
	var out []ports.Element
	d.doc.Find(headingSelector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{sel: s, doc: d})
	})
	return out
}

// Links returns every anchor with an href in document order.
func (d *Document) Links() []domain.RawLink {
	return d.links(d.doc.Selection)
}

func (d *Document) links(root *goquery.Selection) []domain.RawLink {
	var out []domain.RawLink
	root.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		out = append(out, domain.RawLink{
			URL:  d.resolve(href),
			Text: normalizeText(s.Text()),
		})
	})
	return out
}

// resolve makes href absolute and unwraps "pdf-pages/?pdf=<url>" viewer links
// to the PDF they point at.
func (d *Document) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	abs := d.base.ResolveReference(ref)

	if strings.Contains(abs.Path, "pdf-pages") {
		if target := abs.Query().Get("pdf"); target != "" {
			if inner, err := url.Parse(target); err == nil {
				return d.base.ResolveReference(inner).String()
			}
			return target
		}
	}
	return abs.String()
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type element struct {
	sel *goquery.Selection
	doc *Document
}

func (e *element) Tag() string {
	return goquery.NodeName(e.sel)
}

func (e *element) Text() string {
	return normalizeText(e.sel.Text())
}

func (e *element) Heading() (ports.Element, bool) {
	if isHeading(e.Tag()) {
		return e, true
	}
	parent := e.sel.ParentsFiltered(headingSelector).First()
	if parent.Length() == 0 {
		return nil, false
	}
	return &element{sel: parent, doc: e.doc}, true
}

func (e *element) NextSibling() (ports.Element, bool) {
	next := e.sel.Next()
	if next.Length() == 0 {
		return nil, false
	}
	return &element{sel: next, doc: e.doc}, true
}

func (e *element) Same(other ports.Element) bool {
	o, ok := other.(*element)
	if !ok || e.sel.Length() == 0 || o.sel.Length() == 0 {
		return false
	}
	return e.sel.Get(0) == o.sel.Get(0)
}

func (e *element) Links() []domain.RawLink {
	return e.doc.links(e.sel)
}

func isHeading(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}
