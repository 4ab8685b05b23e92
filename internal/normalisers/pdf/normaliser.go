// Package pdf extracts text from PDF files with a pure-Go reader,
// one Document per page.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrUnreadable is returned for files the reader cannot parse.
var ErrUnreadable = errors.New("unreadable pdf")

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name identifies the normaliser in logs.
func (n *Normaliser) Name() string {
	return "pdf"
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts one Document per page, numbered from 1.
// Pages whose text is blank are skipped.
func (n *Normaliser) Normalise(ctx context.Context, path string) (docs []domain.Document, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("%w: %s: %v", ErrUnreadable, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}
	defer f.Close()

	title := plaintext.Title(path)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", ErrUnreadable, path, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		doc := domain.NewDocument(path, i, text)
		doc.Metadata = map[string]string{
			"extractor": n.Name(),
			"title":     title,
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
