package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

type stubQuery struct {
	answer *domain.Answer
	err    error
	asked  []string
	ctx    context.Context
}

func (s *stubQuery) Ask(ctx context.Context, message string) (*domain.Answer, error) {
	s.asked = append(s.asked, message)
	s.ctx = ctx
	return s.answer, s.err
}

func (s *stubQuery) Retrieve(context.Context, string, int) (domain.RetrievalResult, error) {
	return nil, nil
}

func newSizedView(query *stubQuery, greeting string) *View {
	var v *View
	if query == nil {
		v = NewView(nil, nil, nil, greeting)
	} else {
		v = NewView(nil, nil, query, greeting)
	}
	v.SetDimensions(100, 40)
	return v
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func sources() domain.RetrievalResult {
	return domain.RetrievalResult{
		{Chunk: domain.Chunk{ID: "a", Source: "docs/a.pdf", Page: 1, Content: "alpha passage"}, Score: 0.9},
		{Chunk: domain.Chunk{ID: "b", Source: "docs/b.pdf", Content: "beta passage"}, Score: 0.4},
	}
}

func TestNewView_Greeting(t *testing.T) {
	v := NewView(nil, nil, &stubQuery{}, "  Hi there  ")

	assert.Equal(t, []string{"Assistant: Hi there"}, v.Transcript())
	assert.True(t, v.InputFocused())
	assert.False(t, v.Pending())
}

func TestNewView_NoGreeting(t *testing.T) {
	v := NewView(nil, nil, &stubQuery{}, "   ")

	assert.Empty(t, v.Transcript())
}

func TestView_NotReady(t *testing.T) {
	v := NewView(nil, nil, &stubQuery{}, "")

	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Submit(t *testing.T) {
	query := &stubQuery{answer: &domain.Answer{Text: "In 2010.", Sources: sources(), Duration: time.Second}}
	v := newSizedView(query, "")
	v.SetInput("  When was it founded?  ")

	_, cmd := v.Update(key(tea.KeyEnter))

	require.NotNil(t, cmd)
	assert.True(t, v.Pending())
	assert.Equal(t, status.StateThinking, v.StatusState())
	assert.Empty(t, v.Input())
	assert.Contains(t, v.View(), "Assistant is thinking...")
	assert.Equal(t, []string{"You: When was it founded?"}, v.Transcript())

	msg := cmd()
	answer, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	assert.Equal(t, "When was it founded?", answer.Question)
	assert.Equal(t, []string{"When was it founded?"}, query.asked)

	v.Update(msg)

	assert.False(t, v.Pending())
	assert.Equal(t, status.StateReady, v.StatusState())
	assert.Equal(t, []string{"You: When was it founded?", "Assistant: In 2010."}, v.Transcript())
	assert.Len(t, v.Sources(), 2)
	assert.Contains(t, v.View(), "Sources (2)")
}

func TestView_SubmitIgnored(t *testing.T) {
	t.Run("blank", func(t *testing.T) {
		query := &stubQuery{}
		v := newSizedView(query, "")
		v.SetInput("   ")

		_, cmd := v.Update(key(tea.KeyEnter))

		assert.Nil(t, cmd)
		assert.Empty(t, v.Transcript())
	})

	t.Run("pending", func(t *testing.T) {
		query := &stubQuery{answer: &domain.Answer{Text: "ok"}}
		v := newSizedView(query, "")
		v.SetInput("first")
		_, first := v.Update(key(tea.KeyEnter))
		require.NotNil(t, first)

		v.SetInput("second")
		_, second := v.Update(key(tea.KeyEnter))

		assert.Nil(t, second)
		assert.Equal(t, "second", v.Input())
		assert.Len(t, v.Transcript(), 1)
	})
}

func TestView_AskUsesContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "chat")
	query := &stubQuery{answer: &domain.Answer{Text: "ok"}}
	v := newSizedView(query, "").WithContext(ctx)
	v.SetInput("hello")

	_, cmd := v.Update(key(tea.KeyEnter))
	cmd()

	assert.Equal(t, "chat", query.ctx.Value(ctxKey{}))
}

func TestView_NoQueryService(t *testing.T) {
	v := newSizedView(nil, "")
	v.SetInput("hello")

	_, cmd := v.Update(key(tea.KeyEnter))
	msg := cmd()
	v.Update(msg)

	assert.ErrorIs(t, msg.(messages.AnswerReceived).Err, ErrNoQueryService)
	assert.Equal(t, "Error: query service not available", v.Transcript()[1])
}

func TestView_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "query error shows its message",
			err: &domain.QueryError{
				Kind:    domain.KindNotFound,
				Message: "The document index is not available.",
				Err:     domain.ErrNotFound,
			},
			want: "Error: The document index is not available.",
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "Error: boom",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := newSizedView(&stubQuery{err: tc.err}, "")
			v.SetInput("hello")
			_, cmd := v.Update(key(tea.KeyEnter))

			v.Update(cmd())

			transcript := v.Transcript()
			assert.Equal(t, tc.want, transcript[len(transcript)-1])
			assert.Equal(t, status.StateError, v.StatusState())
			assert.False(t, v.Pending())
		})
	}
}

func TestView_BrowseSources(t *testing.T) {
	v := newSizedView(&stubQuery{}, "")
	v.Update(messages.AnswerReceived{Question: "q", Answer: &domain.Answer{Text: "a", Sources: sources()}})

	v.Update(key(tea.KeyTab))
	assert.False(t, v.InputFocused())
	assert.Equal(t, status.StateSources, v.StatusState())

	v.Update(key(tea.KeyDown))
	_, cmd := v.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	selected, ok := cmd().(messages.PassageSelected)
	require.True(t, ok)
	assert.Equal(t, 2, selected.Rank)
	assert.Equal(t, "b", selected.Passage.Chunk.ID)

	v.Update(key(tea.KeyEsc))
	assert.True(t, v.InputFocused())
	assert.Equal(t, status.StateReady, v.StatusState())
}

func TestView_TabWithoutSources(t *testing.T) {
	v := newSizedView(&stubQuery{}, "")

	v.Update(key(tea.KeyTab))

	assert.True(t, v.InputFocused())
}

func TestView_TabTogglesBack(t *testing.T) {
	v := newSizedView(&stubQuery{}, "")
	v.Update(messages.AnswerReceived{Answer: &domain.Answer{Text: "a", Sources: sources()}})

	v.Update(key(tea.KeyTab))
	v.Update(key(tea.KeyTab))

	assert.True(t, v.InputFocused())
}

func TestView_AnswerWhileBrowsingKeepsSourcesState(t *testing.T) {
	v := newSizedView(&stubQuery{}, "")
	v.Update(messages.AnswerReceived{Answer: &domain.Answer{Text: "a", Sources: sources()}})
	v.Update(key(tea.KeyTab))

	v.Update(messages.AnswerReceived{Answer: &domain.Answer{Text: "b", Sources: sources()[:1]}})

	assert.Equal(t, status.StateSources, v.StatusState())
	assert.Len(t, v.Sources(), 1)
}

func TestView_IndexInfo(t *testing.T) {
	v := newSizedView(&stubQuery{}, "")

	v.Update(messages.IndexInfoLoaded{Info: domain.IndexInfo{Model: "text-embedding-3-small", Count: 12}, Loaded: true})
	assert.Contains(t, v.View(), "12 chunks")

	v.Update(messages.IndexInfoLoaded{})
	assert.Contains(t, v.View(), "no index loaded")
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newSizedView(&stubQuery{}, "")

	v.Update(messages.ErrorOccurred{Err: errors.New("index reload failed")})

	assert.Equal(t, status.StateError, v.StatusState())
}

func TestView_Typing(t *testing.T) {
	v := newSizedView(&stubQuery{}, "")

	for _, r := range "hi?" {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "hi?", v.Input())
}
