// Package plaintext extracts UTF-8 text files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name identifies the normaliser in logs.
func (n *Normaliser) Name() string {
	return "plaintext"
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".text", ".md", ".csv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise reads the file as one Document with page 0.
// Invalid UTF-8 sequences are replaced. A blank file yields no Documents.
func (n *Normaliser) Normalise(ctx context.Context, path string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	content = normaliseNewlines(content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	doc := domain.NewDocument(path, 0, content)
	doc.Metadata = map[string]string{
		"extractor": n.Name(),
		"title":     Title(path),
	}
	return []domain.Document{doc}, nil
}

// normaliseNewlines converts CRLF and CR line endings to LF so the
// chunker's paragraph detection works on Windows-authored files.
func normaliseNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Title extracts a human-readable title from a file path.
func Title(path string) string {
	filename := path
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}

	// Remove the extension for a cleaner title
	if i := strings.LastIndex(filename, "."); i > 0 {
		filename = filename[:i]
	}

	// Replace underscores and dashes with spaces
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
