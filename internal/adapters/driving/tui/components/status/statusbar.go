// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// State represents the chat state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateSources  State = "sources"
	StateHelp     State = "help"
)

// Bar displays the chat state, index summary and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	index   *domain.IndexInfo
	elapsed time.Duration
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateThinking:
		return b.styles.Warning.Render("Thinking...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Error: " + b.message)
		}
		return b.styles.Error.Render("Error")
	case StateHelp:
		return b.styles.Normal.Render("Help")
	case StateReady, StateSources:
	}

	parts := make([]string, 0, 2)
	if b.index != nil {
		parts = append(parts, fmt.Sprintf("%d chunks · %s", b.index.Count, b.index.Model))
	} else {
		parts = append(parts, "no index loaded")
	}
	if b.message != "" {
		parts = append(parts, b.message)
	} else if b.elapsed > 0 {
		parts = append(parts, fmt.Sprintf("answered in %s", b.elapsed.Round(time.Millisecond)))
	}
	return b.styles.Muted.Render(strings.Join(parts, " | "))
}

func (b *Bar) renderRight() string {
	var bindings []key.Binding
	if b.state == StateSources {
		bindings = b.keymap.SourcesHelp()
	} else {
		bindings = b.keymap.ChatHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets a custom message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetIndex records the index serving queries; nil means none is loaded.
func (b *Bar) SetIndex(info *domain.IndexInfo) {
	b.index = info
}

// SetElapsed records the latency of the last answer.
func (b *Bar) SetElapsed(d time.Duration) {
	b.elapsed = d
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}

// Clear resets the state and message, keeping the index summary.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
}
