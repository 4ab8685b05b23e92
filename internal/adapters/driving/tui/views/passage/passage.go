// Package passage provides the view that shows one retrieved passage in full.
package passage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// View is the passage view.
type View struct {
	styles  *styles.Styles
	body    viewport.Model
	passage *domain.ScoredChunk
	rank    int
	width   int
	height  int
}

// NewView creates an empty passage view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		body:   viewport.New(80, 16),
		width:  80,
		height: 24,
	}
}

// SetPassage shows p, ranked rank among the answer's sources.
func (v *View) SetPassage(rank int, p domain.ScoredChunk) {
	v.passage = &p
	v.rank = rank
	v.wrap()
	v.body.GotoTop()
}

// Update handles scrolling and Esc.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewChat}
			}
		}
		var cmd tea.Cmd
		v.body, cmd = v.body.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) wrap() {
	if v.passage == nil {
		v.body.SetContent("")
		return
	}
	width := v.body.Width - 2
	if width < 20 {
		width = 20
	}
	v.body.SetContent(v.styles.Normal.Width(width).Render(v.passage.Chunk.Content))
}

// View renders the passage view.
func (v *View) View() string {
	var b strings.Builder

	if v.passage == nil {
		b.WriteString(v.styles.Muted.Render("(No passage selected)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	c := v.passage.Chunk
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("[%d] %s", v.rank, list.Label(c))))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("score %.3f · chunk %d · offset %d", v.passage.Score, c.Position, c.Offset)))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")
	b.WriteString(v.body.View())
	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	// Title, metadata, separator and help.
	bh := height - 7
	if bh < 3 {
		bh = 3
	}
	v.body.Width = width - 2
	v.body.Height = bh
	v.wrap()
}

// Passage returns the passage shown, or nil.
func (v *View) Passage() *domain.ScoredChunk {
	return v.passage
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
