package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

type stubNormaliser struct {
	name     string
	exts     []string
	priority int
}

func (s *stubNormaliser) Name() string                  { return s.name }
func (s *stubNormaliser) SupportedExtensions() []string { return s.exts }
func (s *stubNormaliser) Priority() int                 { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, path string) ([]domain.Document, error) {
	return []domain.Document{domain.NewDocument(path, 1, s.name)}, nil
}

func TestRegistry_PriorityWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "fallback", exts: []string{".txt", ".pdf"}, priority: 5})
	r.Register(&stubNormaliser{name: "pdf", exts: []string{".pdf"}, priority: 50})
	r.Register(&stubNormaliser{name: "pdf-other", exts: []string{".PDF"}, priority: 50})

	docs, err := r.Normalise(context.Background(), "/corpus/Report.PDF")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "pdf", docs[0].Content, "equal priority keeps registration order")

	n, ok := r.Lookup("notes.txt")
	require.True(t, ok)
	assert.Equal(t, "fallback", n.Name())
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "pdf", exts: []string{".pdf"}, priority: 50})

	_, err := r.Normalise(context.Background(), "image.png")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, ok := r.Lookup("noext")
	assert.False(t, ok)
}

func TestRegistry_SupportedExtensions(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.SupportedExtensions())

	r.Register(&stubNormaliser{exts: []string{".pdf"}})
	r.Register(&stubNormaliser{exts: []string{".txt", ".md"}})

	assert.Equal(t, []string{".md", ".pdf", ".txt"}, r.SupportedExtensions())
}

func TestNewDefaultRegistry(t *testing.T) {
	r, err := NewDefaultRegistry(domain.CorpusSettings{Extractor: domain.PDFExtractorLedongthuc})
	require.NoError(t, err)

	n, ok := r.Lookup("a.pdf")
	require.True(t, ok)
	assert.Equal(t, "pdf", n.Name())

	n, ok = r.Lookup("README.md")
	require.True(t, ok)
	assert.Equal(t, "markdown", n.Name())

	n, ok = r.Lookup("notes.txt")
	require.True(t, ok)
	assert.Equal(t, "plaintext", n.Name())
}

func TestNewDefaultRegistry_UniPDFNeedsKey(t *testing.T) {
	_, err := NewDefaultRegistry(domain.CorpusSettings{Extractor: domain.PDFExtractorUniPDF})
	assert.ErrorIs(t, err, domain.ErrConfig)
}
