// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// SourceList displays the passages an answer was grounded on.
type SourceList struct {
	passages domain.RetrievalResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 8,
	}
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list, one line per passage.
func (l *SourceList) View() string {
	if len(l.passages) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.passages)+1)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.passages))))

	visible := l.height - 1
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.passages) {
		end = len(l.passages)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderPassage(i, &l.passages[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderPassage(index int, p *domain.ScoredChunk) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	label := Label(p.Chunk)
	score := fmt.Sprintf("%.2f", p.Score)

	preview := strings.Join(strings.Fields(p.Chunk.Content), " ")
	room := l.width - len(label) - len(score) - 8
	if room < 10 {
		room = 10
	}
	if runes := []rune(preview); len(runes) > room {
		preview = string(runes[:room-3]) + "..."
	}

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s[%d] %s  %s", indicator, index+1, label, score))
	}
	return l.styles.Normal.Render(fmt.Sprintf("%s[%d] %s  ", indicator, index+1, label)) +
		l.styles.Muted.Render(score+"  "+preview)
}

// Label names a chunk by file and page, e.g. "report.pdf p.3".
func Label(c domain.Chunk) string {
	name := filepath.Base(c.Source)
	if c.Source == "" {
		name = c.ID
	}
	if c.Page > 0 {
		return fmt.Sprintf("%s p.%d", name, c.Page)
	}
	return name
}

// SetPassages replaces the list content and resets the selection.
func (l *SourceList) SetPassages(passages domain.RetrievalResult) {
	l.passages = passages
	l.selected = 0
}

// Passages returns the current passages.
func (l *SourceList) Passages() domain.RetrievalResult {
	return l.passages
}

// Selected returns the index of the selected passage.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedPassage returns the selected passage, or nil if the list is empty.
func (l *SourceList) SelectedPassage() *domain.ScoredChunk {
	if l.selected < 0 || l.selected >= len(l.passages) {
		return nil
	}
	return &l.passages[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.passages)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of passages.
func (l *SourceList) Count() int {
	return len(l.passages)
}

// IsEmpty returns whether the list is empty.
func (l *SourceList) IsEmpty() bool {
	return len(l.passages) == 0
}
