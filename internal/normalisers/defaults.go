package normalisers

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/normalisers/markdown"
	"github.com/custodia-labs/ragchat/internal/normalisers/pdf"
	"github.com/custodia-labs/ragchat/internal/normalisers/plaintext"
	"github.com/custodia-labs/ragchat/internal/normalisers/unipdf"
)

// NewDefaultRegistry returns a registry with the built-in normalisers.
// The unipdf extractor is registered only when selected, and then
// requires its license key.
func NewDefaultRegistry(cfg domain.CorpusSettings) (*Registry, error) {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(pdf.New())

	if cfg.Extractor == domain.PDFExtractorUniPDF {
		n, err := unipdf.New(cfg.UniPDFLicenseKey)
		if err != nil {
			return nil, err
		}
		r.Register(n)
	}
	return r, nil
}
