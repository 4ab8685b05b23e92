// Package markdown extracts the prose of Markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	codeBlock    = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldStar     = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	boldUnder    = regexp.MustCompile(`__([^_\n]+)__`)
	italicStar   = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUnder  = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	hr           = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	htmlComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	frontMatter  = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name identifies the normaliser in logs.
func (n *Normaliser) Name() string {
	return "markdown"
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific, higher than plaintext
}

// Normalise converts a markdown file to one plain text Document.
func (n *Normaliser) Normalise(ctx context.Context, path string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	raw := strings.ReplaceAll(string(data), "\r\n", "\n")
	content := Strip(raw)
	if content == "" {
		return nil, nil
	}

	doc := domain.NewDocument(path, 0, content)
	doc.Metadata = map[string]string{
		"extractor": n.Name(),
		"title":     title(raw, path),
	}
	return []domain.Document{doc}, nil
}

// title returns the first H1 heading, or a title derived from the path.
func title(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return plaintext.Title(path)
}

// Strip removes common markdown syntax, keeping the prose.
// Fenced code blocks are dropped; inline code keeps its text.
func Strip(content string) string {
	content = frontMatter.ReplaceAllString(content, "")
	content = htmlComment.ReplaceAllString(content, "")
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = boldStar.ReplaceAllString(content, "$1")
	content = boldUnder.ReplaceAllString(content, "$1")
	content = italicStar.ReplaceAllString(content, "$1")
	content = italicUnder.ReplaceAllString(content, "$1")
	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = multiNewline.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
