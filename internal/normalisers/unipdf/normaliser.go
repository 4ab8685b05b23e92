// Package unipdf extracts PDF text with UniDoc's layout-aware extractor.
// It needs a metered license key.
package unipdf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// The license is process-global in the library.
var (
	licenseOnce sync.Once
	licenseErr  error
)

// Normaliser handles PDF documents using unipdf.
type Normaliser struct{}

// New activates the license key and creates the normaliser.
// A missing or rejected key fails with domain.ErrConfig.
func New(licenseKey string) (*Normaliser, error) {
	if licenseKey == "" {
		return nil, fmt.Errorf("%w: the unipdf extractor needs a license key; set UNIDOC_LICENSE_KEY",
			domain.ErrConfig)
	}

	licenseOnce.Do(func() {
		licenseErr = license.SetMeteredKey(licenseKey)
	})
	if licenseErr != nil {
		return nil, fmt.Errorf("%w: unipdf license: %w", domain.ErrConfig, licenseErr)
	}
	return &Normaliser{}, nil
}

// Name identifies the normaliser in logs.
func (n *Normaliser) Name() string {
	return "unipdf"
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
// It outranks the default PDF reader when registered.
func (n *Normaliser) Priority() int {
	return 60
}

// Normalise extracts one Document per non-blank page, numbered from 1.
func (n *Normaliser) Normalise(ctx context.Context, path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("count pages of %s: %w", path, err)
	}

	title := plaintext.Title(path)
	var docs []domain.Document
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", path, i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", path, i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", path, i, err)
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
