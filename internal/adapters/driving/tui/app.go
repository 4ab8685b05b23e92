package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/passage"
)

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	chatView    *chat.View
	passageView *passage.View

	currentView messages.ViewType

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat TUI over the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		chatView:    chat.NewView(s, km, ports.Query, ports.Greeting),
		passageView: passage.NewView(s),
		currentView: messages.ViewChat,
	}, nil
}

// WithContext sets the context used for queries.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("ragchat"),
		a.chatView.Init(),
		a.loadIndexInfo(),
	)
}

func (a *App) loadIndexInfo() tea.Cmd {
	index := a.ports.Index
	if index == nil {
		return nil
	}
	return func() tea.Msg {
		info, ok := index.Info()
		return messages.IndexInfoLoaded{Info: info, Loaded: ok}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case messages.PassageSelected:
		a.passageView.SetPassage(msg.Rank, msg.Passage)
		a.currentView = messages.ViewPassage
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.AnswerReceived, messages.IndexInfoLoaded, messages.ErrorOccurred:
		// The chat view owns the transcript whichever view is showing.
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd
	}

	if a.currentView == messages.ViewChat {
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc || keymap.Matches(msg.String(), a.keymap.Help) {
			a.currentView = messages.ViewChat
		}
		return a, nil

	case messages.ViewPassage:
		a.passageView, cmd = a.passageView.Update(msg)
		return a, cmd

	case messages.ViewChat:
		if keymap.Matches(msg.String(), a.keymap.Help) {
			a.currentView = messages.ViewHelp
			return a, nil
		}
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd
	}
	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewPassage:
		return a.passageView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewChat:
	}
	return a.chatView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("Answers come only from the indexed documents. Sources lists the\n")
	b.WriteString("passages the last answer was grounded on.\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to chat"))
	return b.String()
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Chat returns the chat view.
func (a *App) Chat() *chat.View {
	return a.chatView
}

// Passage returns the passage view.
func (a *App) Passage() *passage.View {
	return a.passageView
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
	a.passageView.SetDimensions(width, height)
}
