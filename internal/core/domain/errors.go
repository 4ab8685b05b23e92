package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent pipeline failures.
// Adapters wrap these with fmt.Errorf("%w: ...") so callers can use errors.Is.
var (
	// ErrConfig indicates bad parameters or a missing credential.
	// It is fatal at startup.
	ErrConfig = errors.New("configuration error")

	// ErrLoad indicates the corpus directory is missing or yielded no usable files.
	ErrLoad = errors.New("load error")

	// ErrNotFound indicates a requested entity (usually the index file) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorruptIndex indicates the persisted index is structurally invalid.
	// Rebuilding the index recovers from it.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrEmptyCorpus indicates an index build was attempted with no chunks.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrInvalidK indicates a non-positive result count was requested.
	ErrInvalidK = errors.New("invalid k")

	// ErrTemplate indicates a prompt template is missing a required placeholder
	// or names an unknown one.
	ErrTemplate = errors.New("template error")

	// ErrDimensionMismatch indicates vectors of different lengths were mixed,
	// usually because the embedding model changed since the index was built.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidInput indicates malformed or empty caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBuildInProgress indicates another process holds the index build lock.
	ErrBuildInProgress = errors.New("index build in progress")

	// ErrEmbeddingUnavailable indicates the embedding service failed or is unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Generation Errors.

	// ErrAuth indicates the provider rejected the credential.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates the upstream call did not finish in time.
	ErrTimeout = errors.New("timeout")

	// ErrProvider indicates an opaque upstream failure.
	ErrProvider = errors.New("provider error")
)

// RateLimitError carries the provider's retry hint.
// It matches ErrRateLimited under errors.Is.
type RateLimitError struct {
	// RetryAfter is the wait requested by the provider, zero if unknown.
	RetryAfter time.Duration

	// Provider names the upstream service.
	Provider string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// ErrorKind classifies a failure for callers that cannot inspect Go errors,
// such as the HTTP and MCP shells.
type ErrorKind string

// Error kinds, one per entry of the error taxonomy.
const (
	KindValidation        ErrorKind = "validation"
	KindConfig            ErrorKind = "config"
	KindLoad              ErrorKind = "load"
	KindNotFound          ErrorKind = "not_found"
	KindCorruptIndex      ErrorKind = "corrupt_index"
	KindEmptyCorpus       ErrorKind = "empty_corpus"
	KindInvalidK          ErrorKind = "invalid_k"
	KindTemplate          ErrorKind = "template"
	KindDimensionMismatch ErrorKind = "dimension_mismatch"
	KindAuth              ErrorKind = "auth"
	KindRateLimit         ErrorKind = "rate_limit"
	KindTimeout           ErrorKind = "timeout"
	KindProvider          ErrorKind = "provider"
	KindInternal          ErrorKind = "internal"
)

// kindTable is checked in order; the first matching sentinel wins.
var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidInput, KindValidation},
	{ErrConfig, KindConfig},
	{ErrLoad, KindLoad},
	{ErrNotFound, KindNotFound},
	{ErrCorruptIndex, KindCorruptIndex},
	{ErrEmptyCorpus, KindEmptyCorpus},
	{ErrInvalidK, KindInvalidK},
	{ErrTemplate, KindTemplate},
	{ErrDimensionMismatch, KindDimensionMismatch},
	{ErrAuth, KindAuth},
	{ErrRateLimited, KindRateLimit},
	{ErrTimeout, KindTimeout},
	{ErrProvider, KindProvider},
	{ErrEmbeddingUnavailable, KindProvider},
}

// KindOf maps any error onto the taxonomy.
// Unrecognised errors are KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindInternal
}

// Retryable returns true for transient upstream failures.
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimit || k == KindTimeout
}

// IsUpstream returns true for failures reported by a remote provider.
// Their raw text is never shown to end users.
func (k ErrorKind) IsUpstream() bool {
	switch k {
	case KindAuth, KindRateLimit, KindTimeout, KindProvider, KindInternal:
		return true
	default:
		return false
	}
}

// QueryError is the structured failure returned by the query service.
type QueryError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Message is safe to show to end users.
	Message string

	// State is the stage the request was in when it failed.
	State QueryState

	// RequestID matches the ID logged for the request.
	RequestID string

	// Err is the underlying cause. It is never shown to end users.
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause so errors.Is works against the sentinels.
func (e *QueryError) Unwrap() error {
	return e.Err
}
