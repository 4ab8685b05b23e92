package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

const testTemplate = "Context: {context}\nQuestion: {question}"

// testIndex holds three chunks on the axes of a 3-d space.
func testIndex(t *testing.T) *memory.VectorIndex {
	t.Helper()
	idx, err := memory.BuildIndex([]domain.Chunk{
		{ID: "c0", Position: 0, Content: "apples are red", Embedding: []float32{1, 0, 0}},
		{ID: "c1", Position: 1, Content: "the sky is blue", Embedding: []float32{0, 1, 0}},
		{ID: "c2", Position: 2, Content: "grass is green", Embedding: []float32{0, 0, 1}},
	}, domain.IndexInfo{Model: "mock-embed"})
	require.NoError(t, err)
	return idx
}

func testEmbedder() *mockEmbedder {
	return &mockEmbedder{
		vectors: map[string][]float32{
			"What colour is the sky?": {0.1, 0.9, 0.2},
		},
		fallback: []float32{1, 0, 0},
		dims:     3,
	}
}

type queryFixture struct {
	svc      *QueryService
	embedder *mockEmbedder
	gen      *scriptedGenerator
	waits    []time.Duration
}

func newQueryFixture(t *testing.T, cfg QueryConfig, gen *scriptedGenerator) *queryFixture {
	t.Helper()
	assembler, err := NewPromptAssembler(testTemplate)
	require.NoError(t, err)

	f := &queryFixture{embedder: testEmbedder(), gen: gen}
	f.svc = NewQueryService(staticIndex{idx: testIndex(t)}, f.embedder, assembler, gen, cfg)
	f.svc.sleep = func(_ context.Context, d time.Duration) error {
		f.waits = append(f.waits, d)
		return nil
	}
	return f
}

func TestQueryService_Ask_Success(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"  The sky is blue.\n"}}
	f := newQueryFixture(t, QueryConfig{K: 2, Temperature: 0.5, MaxTokens: 64}, gen)

	var transitions []string
	f.svc.SetObserver(func(_ string, from, to domain.QueryState) {
		transitions = append(transitions, from.String()+">"+to.String())
	})

	answer, err := f.svc.Ask(context.Background(), "  What colour is the sky?  ")

	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", answer.Text)
	assert.Equal(t, 1, answer.Attempts)
	assert.NotEmpty(t, answer.RequestID)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "c1", answer.Sources[0].Chunk.ID)

	assert.Equal(t, []string{
		"received>retrieving",
		"retrieving>assembling",
		"assembling>generating",
		"generating>completed",
	}, transitions)

	require.Len(t, gen.prompts, 1)
	assert.Equal(t,
		"Context: the sky is blue\ngrass is green\nQuestion: What colour is the sky?",
		gen.prompts[0])
	assert.Equal(t, 64, gen.opts[0].MaxTokens)
	assert.InDelta(t, 0.5, gen.opts[0].Temperature, 1e-9)
}

func TestQueryService_Ask_DefaultK(t *testing.T) {
	f := newQueryFixture(t, QueryConfig{}, &scriptedGenerator{replies: []string{"ok"}})

	answer, err := f.svc.Ask(context.Background(), "anything")

	require.NoError(t, err)
	assert.Len(t, answer.Sources, domain.DefaultK)
}

func TestQueryService_Ask_EmptyMessage(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t"} {
		t.Run(fmt.Sprintf("%q", msg), func(t *testing.T) {
			gen := &scriptedGenerator{replies: []string{"never"}}
			f := newQueryFixture(t, QueryConfig{}, gen)
			var transitions []domain.QueryState
			var runID string
			f.svc.SetObserver(func(id string, _, to domain.QueryState) {
				runID = id
				transitions = append(transitions, to)
			})

			answer, err := f.svc.Ask(context.Background(), msg)

			assert.Nil(t, answer)
			var qe *domain.QueryError
			require.ErrorAs(t, err, &qe)
			assert.NotEmpty(t, qe.RequestID)
			assert.Equal(t, runID, qe.RequestID)
			assert.Equal(t, domain.KindValidation, qe.Kind)
			assert.Equal(t, "No message provided", qe.Message)
			assert.Equal(t, domain.QueryReceived, qe.State)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, []domain.QueryState{domain.QueryFailed}, transitions)
			assert.Zero(t, f.embedder.calls.Load())
			assert.Zero(t, gen.calls())
		})
	}
}

func TestQueryService_Ask_NoIndex(t *testing.T) {
	assembler, err := NewPromptAssembler(testTemplate)
	require.NoError(t, err)
	gen := &scriptedGenerator{}
	svc := NewQueryService(staticIndex{}, testEmbedder(), assembler, gen, QueryConfig{})

	_, err = svc.Ask(context.Background(), "hello")

	var qe *domain.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, domain.KindNotFound, qe.Kind)
	assert.Contains(t, qe.Message, "ragchat build")
	assert.Zero(t, gen.calls())
}

func TestQueryService_Ask_RetrievalFailures(t *testing.T) {
	tests := []struct {
		name     string
		embedder *mockEmbedder
		kind     domain.ErrorKind
		message  string
	}{
		{
			name: "embedder unavailable",
			embedder: &mockEmbedder{
				err: fmt.Errorf("%w: dial tcp 127.0.0.1:11434: connection refused", domain.ErrEmbeddingUnavailable),
			},
			kind:    domain.KindProvider,
			message: msgUnavailable,
		},
		{
			name:     "model changed since build",
			embedder: &mockEmbedder{fallback: []float32{1, 0}, dims: 2},
			kind:     domain.KindDimensionMismatch,
			message:  msgModelChanged,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assembler, err := NewPromptAssembler(testTemplate)
			require.NoError(t, err)
			gen := &scriptedGenerator{}
			svc := NewQueryService(staticIndex{idx: testIndex(t)}, tc.embedder, assembler, gen, QueryConfig{})

			_, err = svc.Ask(context.Background(), "hello")

			var qe *domain.QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tc.kind, qe.Kind)
			assert.Equal(t, tc.message, qe.Message)
			assert.Equal(t, domain.QueryRetrieving, qe.State)
			assert.Zero(t, gen.calls())
		})
	}
}

func TestQueryService_Ask_UpstreamDetailNeverLeaks(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{
		fmt.Errorf("%w: openai: 401 invalid key sk-abc123", domain.ErrAuth),
	}}
	f := newQueryFixture(t, QueryConfig{MaxRetries: 3}, gen)

	_, err := f.svc.Ask(context.Background(), "hello")

	var qe *domain.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, domain.KindAuth, qe.Kind)
	assert.Equal(t, domain.QueryGenerating, qe.State)
	assert.Equal(t, msgUnavailable, qe.Message)
	assert.NotContains(t, qe.Error(), "sk-abc123")
	assert.Equal(t, 1, gen.calls(), "auth failures are not retried")
}

func TestQueryService_Ask_SingleAttemptByDefault(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{fmt.Errorf("%w: slow", domain.ErrTimeout)}}
	f := newQueryFixture(t, QueryConfig{}, gen)

	_, err := f.svc.Ask(context.Background(), "hello")

	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
	assert.Equal(t, 1, gen.calls())
	assert.Empty(t, f.waits)
}

func TestQueryService_Ask_RetriesTransientFailures(t *testing.T) {
	gen := &scriptedGenerator{
		errs: []error{
			&domain.RateLimitError{Provider: "test"},
			fmt.Errorf("%w: upstream", domain.ErrTimeout),
			nil,
		},
		replies: []string{"", "", "finally"},
	}
	f := newQueryFixture(t, QueryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
	}, gen)

	answer, err := f.svc.Ask(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "finally", answer.Text)
	assert.Equal(t, 3, answer.Attempts)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, f.waits)
}

func TestQueryService_Ask_RetriesExhausted(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{&domain.RateLimitError{Provider: "test", RetryAfter: 3 * time.Second}}}
	f := newQueryFixture(t, QueryConfig{
		MaxRetries:     2,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}, gen)

	_, err := f.svc.Ask(context.Background(), "hello")

	var qe *domain.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, domain.KindRateLimit, qe.Kind)
	assert.Equal(t, 3, gen.calls())
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, f.waits,
		"provider hint raises the delay, the cap bounds it")
}

func TestQueryService_Ask_RequestTimeout(t *testing.T) {
	gen := &scriptedGenerator{block: true}
	f := newQueryFixture(t, QueryConfig{Timeout: 50 * time.Millisecond, MaxRetries: 2}, gen)

	start := time.Now()
	_, err := f.svc.Ask(context.Background(), "hello")

	var qe *domain.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, domain.KindTimeout, qe.Kind)
	assert.Equal(t, domain.QueryGenerating, qe.State)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, 1, gen.calls(), "no retry once the request deadline has passed")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestQueryService_Ask_CallerCancelled(t *testing.T) {
	gen := &scriptedGenerator{block: true}
	f := newQueryFixture(t, QueryConfig{}, gen)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for gen.calls() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	_, err := f.svc.Ask(ctx, "hello")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestQueryService_Ask_Concurrent(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"ok"}}
	f := newQueryFixture(t, QueryConfig{K: 1}, gen)

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			answer, err := f.svc.Ask(context.Background(), "What colour is the sky?")
			if err != nil {
				errs <- err
				return
			}
			if answer.Sources[0].Chunk.ID != "c1" {
				errs <- errors.New("unexpected top chunk " + answer.Sources[0].Chunk.ID)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, workers, gen.calls())
}

func TestQueryService_Retrieve(t *testing.T) {
	f := newQueryFixture(t, QueryConfig{K: 2}, &scriptedGenerator{})

	result, err := f.svc.Retrieve(context.Background(), "What colour is the sky?", 0)
	require.NoError(t, err)
	assert.Len(t, result, 2)

	result, err = f.svc.Retrieve(context.Background(), "What colour is the sky?", 10)
	require.NoError(t, err)
	assert.Len(t, result, 3, "k above the index size returns every chunk")
	for i := 1; i < len(result); i++ {
		assert.GreaterOrEqual(t, result[i-1].Score, result[i].Score)
	}

	_, err = f.svc.Retrieve(context.Background(), " ", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	for _, k := range []int{-1, -5} {
		result, err = f.svc.Retrieve(context.Background(), "What colour is the sky?", k)
		assert.ErrorIs(t, err, domain.ErrInvalidK, "k=%d", k)
		assert.Nil(t, result)
	}
	assert.Zero(t, f.gen.calls())
}

func TestQueryService_Retrieve_Deterministic(t *testing.T) {
	f := newQueryFixture(t, QueryConfig{K: 3}, &scriptedGenerator{})

	first, err := f.svc.Retrieve(context.Background(), "What colour is the sky?", 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.svc.Retrieve(context.Background(), "What colour is the sky?", 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDeadlineError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := deadlineError(ctx, errors.New("read tcp: use of closed connection"))
	assert.ErrorIs(t, err, domain.ErrTimeout)

	plain := errors.New("boom")
	assert.Equal(t, plain, deadlineError(context.Background(), plain))
}
