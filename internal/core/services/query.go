package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// User-facing failure messages. Upstream detail is logged, never returned.
const (
	msgNoMessage      = "No message provided"
	msgUnavailable    = "The assistant is temporarily unavailable. Please try again."
	msgNoIndex        = "The document index is not available. Run 'ragchat build' first."
	msgCorruptIndex   = "The document index is damaged. Rebuild it with 'ragchat build'."
	msgModelChanged   = "The document index was built with a different embedding model. Rebuild it with 'ragchat build'."
	msgInvalidK       = "The number of passages to retrieve must be positive."
	msgBadTemplate    = "The prompt template is invalid."
	msgMisconfigured  = "The assistant is not configured correctly."
	msgEmptyCorpus    = "The document index is empty."
	msgLoadFailure    = "The documents could not be loaded."
	msgInvalidRequest = "The request is invalid."
)

// IndexSource provides the index queries run against.
type IndexSource interface {
	// Current returns the loaded index, or nil if none is loaded.
	Current() driven.VectorIndex
}

// StateObserver is notified of every query state transition.
type StateObserver func(requestID string, from, to domain.QueryState)

// QueryConfig holds the query service parameters.
type QueryConfig struct {
	K              int
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Temperature    float64
	MaxTokens      int
}

// QueryConfigFromSettings extracts the query parameters from settings.
func QueryConfigFromSettings(s domain.Settings) QueryConfig {
	return QueryConfig{
		K:              s.Query.K,
		Timeout:        s.Query.Timeout,
		MaxRetries:     s.Query.MaxRetries,
		InitialBackoff: s.Query.InitialBackoff,
		MaxBackoff:     s.Query.MaxBackoff,
		Temperature:    s.LLM.Temperature,
		MaxTokens:      s.LLM.MaxTokens,
	}
}

// QueryService answers questions by retrieval, prompt assembly and generation.
type QueryService struct {
	index     IndexSource
	retriever *Retriever
	assembler *PromptAssembler
	generator driven.Generator
	cfg       QueryConfig
	backoff   Backoff
	observer  StateObserver
	sleep     func(context.Context, time.Duration) error
	log       *logger.Logger
}

// NewQueryService creates a query service.
// A zero K falls back to domain.DefaultK.
func NewQueryService(
	index IndexSource,
	embedder driven.Embedder,
	assembler *PromptAssembler,
	generator driven.Generator,
	cfg QueryConfig,
) *QueryService {
	if cfg.K == 0 {
		cfg.K = domain.DefaultK
	}
	return &QueryService{
		index:     index,
		retriever: NewRetriever(embedder),
		assembler: assembler,
		generator: generator,
		cfg:       cfg,
		backoff:   Backoff{Initial: cfg.InitialBackoff, Max: cfg.MaxBackoff},
		sleep:     sleepContext,
		log:       logger.For("query"),
	}
}

// SetObserver registers a hook called on every state transition.
func (s *QueryService) SetObserver(o StateObserver) {
	s.observer = o
}

// Ask answers message from the indexed corpus.
// An empty or whitespace-only message fails before any embedder or
// generator call.
func (s *QueryService) Ask(ctx context.Context, message string) (*domain.Answer, error) {
	start := time.Now()
	run := &queryRun{svc: s, id: uuid.NewString(), state: domain.QueryReceived}
	s.log.Debug("%s: %s", run.id, run.state)

	question := strings.TrimSpace(message)
	if question == "" {
		return nil, run.fail(fmt.Errorf("%w: empty message", domain.ErrInvalidInput))
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	idx := s.index.Current()
	if idx == nil {
		return nil, run.fail(fmt.Errorf("%w: no index loaded", domain.ErrNotFound))
	}

	run.transition(domain.QueryRetrieving)
	result, err := s.retriever.Retrieve(ctx, idx, question, s.cfg.K)
	if err != nil {
		return nil, run.fail(deadlineError(ctx, err))
	}
	s.log.Debug("%s: retrieved %d chunks", run.id, len(result))

	run.transition(domain.QueryAssembling)
	prompt, err := s.assembler.Assemble(result, question)
	if err != nil {
		return nil, run.fail(err)
	}

	run.transition(domain.QueryGenerating)
	text, attempts, err := s.generate(ctx, run, prompt)
	if err != nil {
		return nil, run.fail(err)
	}

	run.transition(domain.QueryCompleted)
	return &domain.Answer{
		RequestID: run.id,
		Text:      strings.TrimSpace(text),
		Sources:   result,
		Attempts:  attempts,
		Duration:  time.Since(start),
	}, nil
}

// Retrieve returns the top-k chunks for query without generating.
// k == 0 uses the configured default; a negative k is rejected by the index.
func (s *QueryService) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k == 0 {
		k = s.cfg.K
	}
	idx := s.index.Current()
	if idx == nil {
		return nil, fmt.Errorf("%w: no index loaded", domain.ErrNotFound)
	}
	return s.retriever.Retrieve(ctx, idx, query, k)
}

// generate calls the generator, retrying rate limits and timeouts with
// exponential backoff. It returns the number of attempts made.
func (s *QueryService) generate(ctx context.Context, run *queryRun, prompt string) (string, int, error) {
	opts := driven.GenerateOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	for attempt := 0; ; attempt++ {
		text, err := s.generator.Generate(ctx, prompt, opts)
		if err == nil {
			return text, attempt + 1, nil
		}
		err = deadlineError(ctx, err)

		if attempt >= s.cfg.MaxRetries || !domain.KindOf(err).Retryable() || ctx.Err() != nil {
			return "", attempt + 1, err
		}

		wait := s.backoff.Delay(attempt, err)
		s.log.Warn("%s: attempt %d failed (%v), retrying in %s", run.id, attempt+1, err, wait)
		if serr := s.sleep(ctx, wait); serr != nil {
			return "", attempt + 1, deadlineError(ctx, serr)
		}
	}
}

// deadlineError reports any failure after the request deadline as a timeout.
func deadlineError(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

// queryRun tracks one request through the state machine.
type queryRun struct {
	svc   *QueryService
	id    string
	state domain.QueryState
}

func (r *queryRun) transition(next domain.QueryState) {
	if !r.state.CanTransition(next) {
		r.svc.log.Error("%s: illegal transition %s -> %s", r.id, r.state, next)
		return
	}
	prev := r.state
	r.state = next
	r.svc.log.Debug("%s: %s -> %s", r.id, prev, next)
	if r.svc.observer != nil {
		r.svc.observer(r.id, prev, next)
	}
}

// fail moves the run to Failed and builds the structured error.
func (r *queryRun) fail(err error) *domain.QueryError {
	failedIn := r.state
	kind := domain.KindOf(err)
	if kind.IsUpstream() {
		r.svc.log.Warn("%s: %s failed: %v", r.id, failedIn, err)
	} else {
		r.svc.log.Debug("%s: %s failed: %v", r.id, failedIn, err)
	}
	r.transition(domain.QueryFailed)
	return &domain.QueryError{
		Kind:      kind,
		Message:   userMessage(kind),
		State:     failedIn,
		RequestID: r.id,
		Err:       err,
	}
}

func userMessage(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindValidation:
		return msgNoMessage
	case domain.KindNotFound:
		return msgNoIndex
	case domain.KindCorruptIndex:
		return msgCorruptIndex
	case domain.KindDimensionMismatch:
		return msgModelChanged
	case domain.KindInvalidK:
		return msgInvalidK
	case domain.KindTemplate:
		return msgBadTemplate
	case domain.KindConfig:
		return msgMisconfigured
	case domain.KindEmptyCorpus:
		return msgEmptyCorpus
	case domain.KindLoad:
		return msgLoadFailure
	}
	if kind.IsUpstream() {
		return msgUnavailable
	}
	return msgInvalidRequest
}
