package mcp

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	answer *domain.Answer
	result domain.RetrievalResult
	err    error

	lastK int
}

func (m *mockQueryService) Ask(_ context.Context, message string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{RequestID: "req-1", Text: "answer to " + message}, nil
}

func (m *mockQueryService) Retrieve(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockIndexManager implements driving.IndexManager for testing.
type mockIndexManager struct {
	info   domain.IndexInfo
	loaded bool
}

func (m *mockIndexManager) Info() (domain.IndexInfo, bool) {
	return m.info, m.loaded
}

func (m *mockIndexManager) Reload(context.Context) error {
	return nil
}

func testResult() domain.RetrievalResult {
	return domain.RetrievalResult{
		{Chunk: domain.Chunk{ID: "c0", Source: "data/company.pdf", Page: 1, Content: "Founded in 2010."}, Score: 0.91},
		{Chunk: domain.Chunk{ID: "c3", Source: "data/company.pdf", Page: 2, Content: "Forty engineers."}, Score: 0.42},
	}
}
