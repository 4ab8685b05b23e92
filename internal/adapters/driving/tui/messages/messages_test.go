package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewChat, "chat"},
		{ViewPassage, "passage"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.view.String())
		})
	}
}

func TestViewType_ChatIsZeroValue(t *testing.T) {
	var v ViewType
	assert.Equal(t, ViewChat, v)
}

func TestAnswerReceived(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		msg := AnswerReceived{Question: "q", Answer: &domain.Answer{Text: "a"}}
		assert.NoError(t, msg.Err)
		assert.Equal(t, "a", msg.Answer.Text)
	})

	t.Run("failure", func(t *testing.T) {
		msg := AnswerReceived{Question: "q", Err: errors.New("boom")}
		assert.Nil(t, msg.Answer)
		assert.EqualError(t, msg.Err, "boom")
	})
}

func TestPassageSelected(t *testing.T) {
	msg := PassageSelected{Rank: 2, Passage: domain.ScoredChunk{
		Chunk: domain.Chunk{Source: "a.pdf", Content: "text"},
		Score: 0.5,
	}}

	assert.Equal(t, 2, msg.Rank)
	assert.Equal(t, "a.pdf", msg.Passage.Chunk.Source)
}
