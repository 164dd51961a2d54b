// Package validate checks downloaded files before they are recorded.
package validate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"ExamPapers/internal/domain"
	"ExamPapers/internal/ports"
)

// ErrInvalidDocument marks a file that is not a well-formed document.
var ErrInvalidDocument = errors.New("invalid document")

var pdfMagic = []byte("%PDF-")

// PDFValidator accepts files that parse as PDF and have at least one page.
type PDFValidator struct{}

var _ ports.Validator = (*PDFValidator)(nil)

// NewPDFValidator returns a validator for domain.KindPDF.
func NewPDFValidator() *PDFValidator {
	return &PDFValidator{}
}

// Validate returns an error wrapping ErrInvalidDocument when path is not a
// readable PDF with pages.
func (v *PDFValidator) Validate(ctx context.Context, path string, kind domain.DocumentKind) (err error) {
	if kind != domain.KindPDF {
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidDocument, kind)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	head := make([]byte, len(pdfMagic))
	if _, err := f.ReadAt(head, 0); err != nil || !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("%w: %s: missing PDF header", ErrInvalidDocument, path)
	}

	// The parser panics on some truncated inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, r)
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, err)
	}
	if reader.NumPage() <= 0 {
		return fmt.Errorf("%w: %s: no pages", ErrInvalidDocument, path)
	}
	return nil
}
