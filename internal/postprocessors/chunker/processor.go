// Package chunker splits documents into overlapping text chunks.
package chunker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// span is one chunk of a document, located by byte offset.
type span struct {
	offset int
	text   string
}

// splitFunc divides text into spans.
type splitFunc func(text string) ([]span, error)

// Processor splits document content into overlapping chunks.
type Processor struct {
	chunkSize int
	overlap   int
	strategy  domain.ChunkStrategy
	split     splitFunc
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets how many characters consecutive chunks share.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithStrategy selects the split algorithm.
func WithStrategy(s domain.ChunkStrategy) Option {
	return func(p *Processor) {
		p.strategy = s
	}
}

// New creates a chunker. It fails with domain.ErrConfig unless
// 0 < overlap < chunk size and the strategy is known.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
		strategy:  domain.ChunkStrategyWindow,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfig, p.chunkSize)
	}
	if p.overlap <= 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 < overlap < size, got overlap %d, size %d",
			domain.ErrConfig, p.overlap, p.chunkSize)
	}

	switch p.strategy {
	case domain.ChunkStrategyWindow:
		p.split = p.window
	case domain.ChunkStrategyRecursive:
		p.split = recursive(p.chunkSize, p.overlap)
	default:
		return nil, fmt.Errorf("%w: unknown chunk strategy %q", domain.ErrConfig, p.strategy)
	}
	return p, nil
}

// Name returns the strategy and its parameters.
func (p *Processor) Name() string {
	return fmt.Sprintf("%s size=%d overlap=%d", p.strategy, p.chunkSize, p.overlap)
}

// Chunk splits docs in order. Positions run across the whole batch.
func (p *Processor) Chunk(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := &docs[i]

		spans, err := p.split(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("split %s page %d: %w", doc.Source, doc.Page, err)
		}
		for _, s := range spans {
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				Source:     doc.Source,
				Page:       doc.Page,
				Position:   len(chunks),
				Offset:     s.offset,
				Content:    s.text,
			})
		}
	}
	return chunks, nil
}

// separators are tried in order when looking for a cut point.
var separators = []string{"\n\n", "\n", " "}

// window is a greedy forward split measured in characters. Each window of
// chunkSize characters is cut back to its last paragraph break, newline or
// space, provided the cut leaves the chunk long enough to make progress;
// otherwise it is cut hard. The next window starts overlap characters
// before the cut. Span offsets stay in bytes.
func (p *Processor) window(text string) ([]span, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	at := runeOffsets(text)
	n := len(at) - 1
	if n <= p.chunkSize {
		return []span{{offset: 0, text: text}}, nil
	}

	// A cut at or before start+minLen would not advance the next window.
	minLen := max(p.chunkSize-p.overlap, p.overlap+1)

	var spans []span
	start := 0
	for {
		end := start + p.chunkSize
		if end >= n {
			spans = append(spans, span{offset: at[start], text: text[at[start]:]})
			return spans, nil
		}

		cut := end
		if b := softCut(text, at[start], at[end], at[start+minLen]); b >= 0 {
			// Separators are ASCII, so b is always a rune boundary.
			cut, _ = slices.BinarySearch(at, b)
		}
		spans = append(spans, span{offset: at[start], text: text[at[start]:at[cut]]})
		start = cut - p.overlap
	}
}

// runeOffsets returns the byte offset of every rune in text followed by
// len(text).
func runeOffsets(text string) []int {
	at := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		at = append(at, i)
	}
	return append(at, len(text))
}

// softCut returns the byte offset just past the last separator in
// text[start:end] that lies beyond limit, or -1.
func softCut(text string, start, end, limit int) int {
	window := text[start:end]
	for _, sep := range separators {
		i := strings.LastIndex(window, sep)
		if i < 0 {
			continue
		}
		if cut := start + i + len(sep); cut > limit {
			return cut
		}
	}
	return -1
}
