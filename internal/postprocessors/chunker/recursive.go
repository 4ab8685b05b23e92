package chunker

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// recursive splits on paragraph, line, word and character boundaries in
// turn using langchaingo's recursive character splitter. Offsets are
// recovered by searching forward through the source text.
func recursive(size, overlap int) splitFunc {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)

	return func(text string) ([]span, error) {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		pieces, err := splitter.SplitText(text)
		if err != nil {
			return nil, err
		}

		spans := make([]span, 0, len(pieces))
		from := 0
		for _, piece := range pieces {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			offset := from
			if i := strings.Index(text[from:], piece); i >= 0 {
				offset = from + i
				from = offset + 1
			}
			spans = append(spans, span{offset: offset, text: piece})
		}
		return spans, nil
	}
}
