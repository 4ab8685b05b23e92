// Package chroma mirrors published indexes into a Chroma collection so
// external tools can query the same corpus.
package chroma

import (
	"context"
	"fmt"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Mirror implements the interface.
var _ driven.IndexMirror = (*Mirror)(nil)

// Metadata attribute names written on every record.
const (
	attrCorpus   = "corpus"
	attrSource   = "source"
	attrPage     = "page"
	attrPosition = "position"
	attrModel    = "model"
)

// DefaultBatchSize is the number of records sent per add request.
const DefaultBatchSize = 128

// batch is one add request worth of records.
type batch struct {
	ids        []chromago.DocumentID
	texts      []string
	embeddings []embeddings.Embedding
	metadatas  []chromago.DocumentMetadata
}

// sink is the collection operations the mirror needs.
type sink interface {
	clear(ctx context.Context, corpus string) error
	add(ctx context.Context, b batch) error
	close() error
}

// Mirror replaces the contents of a Chroma collection with each published index.
type Mirror struct {
	sink      sink
	corpus    string
	batchSize int
	log       *logger.Logger
}

// New creates a mirror for the collection at baseURL. No request is made
// until the first Replace.
func New(baseURL, collection string) (*Mirror, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: chroma url is required", domain.ErrConfig)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: chroma collection is required", domain.ErrConfig)
	}
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("creating chroma client: %w", err)
	}
	return newMirror(&chromaSink{client: client, name: collection}, collection), nil
}

func newMirror(s sink, corpus string) *Mirror {
	return &Mirror{
		sink:      s,
		corpus:    corpus,
		batchSize: DefaultBatchSize,
		log:       logger.For("chroma"),
	}
}

// Replace removes the previously mirrored records and adds the snapshot's chunks.
func (m *Mirror) Replace(ctx context.Context, snapshot *domain.IndexSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}
	if err := m.sink.clear(ctx, m.corpus); err != nil {
		return fmt.Errorf("clearing collection %s: %w", m.corpus, err)
	}

	batches := m.batches(snapshot)
	for i, b := range batches {
		if err := m.sink.add(ctx, b); err != nil {
			return fmt.Errorf("adding batch %d/%d to %s: %w", i+1, len(batches), m.corpus, err)
		}
	}
	m.log.Info("mirrored %d chunks to chroma collection %s", len(snapshot.Chunks), m.corpus)
	return nil
}

func (m *Mirror) batches(snapshot *domain.IndexSnapshot) []batch {
	var out []batch
	for start := 0; start < len(snapshot.Chunks); start += m.batchSize {
		end := min(start+m.batchSize, len(snapshot.Chunks))
		var b batch
		for _, c := range snapshot.Chunks[start:end] {
			b.ids = append(b.ids, chromago.DocumentID(c.ID))
			b.texts = append(b.texts, c.Content)
			b.embeddings = append(b.embeddings, embeddings.NewEmbeddingFromFloat32(c.Embedding))
			b.metadatas = append(b.metadatas, chromago.NewDocumentMetadata(
				chromago.NewStringAttribute(attrCorpus, m.corpus),
				chromago.NewStringAttribute(attrSource, c.Source),
				chromago.NewIntAttribute(attrPage, int64(c.Page)),
				chromago.NewIntAttribute(attrPosition, int64(c.Position)),
				chromago.NewStringAttribute(attrModel, snapshot.Info.Model),
			))
		}
		out = append(out, b)
	}
	return out
}

// Close releases the client.
func (m *Mirror) Close() error {
	return m.sink.close()
}

// chromaSink talks to a Chroma server through the v2 client.
type chromaSink struct {
	client chromago.Client
	name   string

	mu         sync.Mutex
	collection chromago.Collection
}

func (s *chromaSink) get(ctx context.Context) (chromago.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection != nil {
		return s.collection, nil
	}
	col, err := s.client.GetOrCreateCollection(ctx, s.name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "ragchat corpus mirror"),
				chromago.NewStringAttribute("created_by", "ragchat"),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	s.collection = col
	return col, nil
}

func (s *chromaSink) clear(ctx context.Context, corpus string) error {
	col, err := s.get(ctx)
	if err != nil {
		return err
	}
	return col.Delete(ctx, chromago.WithWhereDelete(chromago.EqString(attrCorpus, corpus)))
}

func (s *chromaSink) add(ctx context.Context, b batch) error {
	col, err := s.get(ctx)
	if err != nil {
		return err
	}
	return col.Add(ctx,
		chromago.WithIDs(b.ids...),
		chromago.WithTexts(b.texts...),
		chromago.WithEmbeddings(b.embeddings...),
		chromago.WithMetadatas(b.metadatas...),
	)
}

func (s *chromaSink) close() error {
	return s.client.Close()
}
