// Package chat provides the conversation view: transcript, message input,
// the passages behind the last answer, and a status bar.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// ErrNoQueryService is reported when the view has nothing to ask.
var ErrNoQueryService = errors.New("query service not available")

// sourcesHeight is the number of rows given to the source list.
const sourcesHeight = 5

type speaker int

const (
	speakerUser speaker = iota
	speakerAssistant
	speakerError
)

// turn is one line of the transcript.
type turn struct {
	speaker speaker
	text    string
}

// View is the chat view.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.ChatInput
	sources    *list.SourceList
	statusbar  *status.Bar
	transcript viewport.Model

	query driving.QueryService
	ctx   context.Context

	turns      []turn
	width      int
	height     int
	ready      bool
	pending    bool
	focusInput bool // false while browsing sources
}

// NewView creates a chat view. A non-empty greeting opens the transcript.
func NewView(s *styles.Styles, km *keymap.KeyMap, query driving.QueryService, greeting string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewChatInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		transcript: viewport.New(80, 10),
		query:      query,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
	if greeting = strings.TrimSpace(greeting); greeting != "" {
		v.turns = append(v.turns, turn{speaker: speakerAssistant, text: greeting})
	}
	v.refreshTranscript()
	return v
}

// WithContext sets the context passed to the query service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.IndexInfoLoaded:
		if msg.Loaded {
			info := msg.Info
			v.statusbar.SetIndex(&info)
		} else {
			v.statusbar.SetIndex(nil)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	if keymap.Matches(key, v.keymap.PageUp) || keymap.Matches(key, v.keymap.PageDown) {
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	if !v.focusInput {
		return v.handleSourcesKey(msg)
	}

	switch {
	case keymap.Matches(key, v.keymap.Send):
		return v, v.submit()
	case keymap.Matches(key, v.keymap.Sources):
		if !v.sources.IsEmpty() {
			v.focusInput = false
			v.input.Blur()
			v.statusbar.SetState(status.StateSources)
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleSourcesKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Back), keymap.Matches(key, v.keymap.Sources):
		v.focusInput = true
		v.statusbar.SetState(status.StateReady)
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Open):
		p := v.sources.SelectedPassage()
		if p == nil {
			return v, nil
		}
		selected := messages.PassageSelected{Rank: v.sources.Selected() + 1, Passage: *p}
		return v, func() tea.Msg { return selected }
	}

	v.sources, _ = v.sources.Update(msg)
	return v, nil
}

// submit sends the typed message. Blank input and input typed while an
// answer is pending are ignored.
func (v *View) submit() tea.Cmd {
	text := strings.TrimSpace(v.input.Value())
	if text == "" || v.pending {
		return nil
	}

	v.input.Reset()
	v.turns = append(v.turns, turn{speaker: speakerUser, text: text})
	v.refreshTranscript()
	v.pending = true
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	return v.ask(text)
}

func (v *View) ask(question string) tea.Cmd {
	query, ctx := v.query, v.ctx
	return func() tea.Msg {
		if query == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoQueryService}
		}
		answer, err := query.Ask(ctx, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false

	if msg.Err != nil {
		text := msg.Err.Error()
		var qe *domain.QueryError
		if errors.As(msg.Err, &qe) {
			text = qe.Message
		}
		v.turns = append(v.turns, turn{speaker: speakerError, text: text})
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(text)
		v.refreshTranscript()
		return
	}

	v.turns = append(v.turns, turn{speaker: speakerAssistant, text: msg.Answer.Text})
	v.sources.SetPassages(msg.Answer.Sources)
	v.statusbar.Clear()
	if !v.focusInput {
		v.statusbar.SetState(status.StateSources)
	}
	v.statusbar.SetElapsed(msg.Answer.Duration)
	v.refreshTranscript()
}

func (v *View) refreshTranscript() {
	width := v.transcript.Width - 2
	if width < 20 {
		width = 20
	}
	body := lipgloss.NewStyle().Width(width)

	blocks := make([]string, 0, len(v.turns))
	for _, t := range v.turns {
		var label string
		switch t.speaker {
		case speakerUser:
			label = v.styles.User.Render("You")
		case speakerAssistant:
			label = v.styles.Assistant.Render("Assistant")
		case speakerError:
			label = v.styles.Error.Render("Error")
		}
		blocks = append(blocks, label+"\n"+body.Render(t.text))
	}
	if v.pending {
		blocks = append(blocks, v.styles.Muted.Render("Assistant is thinking..."))
	}

	v.transcript.SetContent(strings.Join(blocks, "\n\n"))
	v.transcript.GotoBottom()
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("ragchat"),
		v.styles.Border.Render(v.transcript.View()),
		v.input.View(),
		v.sources.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Title, transcript border, input box and status bar.
	reserved := 1 + 2 + 3 + sourcesHeight + 1
	th := height - reserved
	if th < 3 {
		th = 3
	}
	v.transcript.Width = width - 2
	v.transcript.Height = th
	v.input.SetWidth(width)
	v.sources.SetDimensions(width, sourcesHeight)
	v.statusbar.SetWidth(width)
	v.refreshTranscript()
}

// Transcript returns the transcript as plain "speaker: text" lines.
func (v *View) Transcript() []string {
	out := make([]string, len(v.turns))
	for i, t := range v.turns {
		prefix := "Assistant: "
		switch t.speaker {
		case speakerUser:
			prefix = "You: "
		case speakerError:
			prefix = "Error: "
		case speakerAssistant:
		}
		out[i] = prefix + t.text
	}
	return out
}

// Pending reports whether an answer is outstanding.
func (v *View) Pending() bool {
	return v.pending
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Input returns the current draft message.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput replaces the draft message.
func (v *View) SetInput(text string) {
	v.input.SetValue(text)
}

// Sources returns the passages behind the last answer.
func (v *View) Sources() domain.RetrievalResult {
	return v.sources.Passages()
}

// StatusState returns the status bar state.
func (v *View) StatusState() status.State {
	return v.statusbar.State()
}

// FocusInput returns focus to the message input.
func (v *View) FocusInput() tea.Cmd {
	v.focusInput = true
	v.statusbar.SetState(status.StateReady)
	return v.input.Focus()
}
