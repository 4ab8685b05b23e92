// Package messages defines Bubbletea message types for the chat TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// MessageSubmitted is sent when the user sends a chat message.
type MessageSubmitted struct {
	Text string
}

// AnswerReceived carries the query service reply back to the model.
// Exactly one of Answer and Err is set.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// PassageSelected is sent when a retrieved passage is opened.
type PassageSelected struct {
	Rank    int
	Passage domain.ScoredChunk
}

// IndexInfoLoaded carries the metadata of the index serving queries.
type IndexInfoLoaded struct {
	Info   domain.IndexInfo
	Loaded bool
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the transcript and message input.
	ViewChat ViewType = iota
	// ViewPassage shows one retrieved passage in full.
	ViewPassage
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewPassage:
		return "passage"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened outside a query.
type ErrorOccurred struct {
	Err error
}
