package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		key     string
	}{
		{"quit", km.Quit, "ctrl+c"},
		{"help", km.Help, "f1"},
		{"back", km.Back, "esc"},
		{"send", km.Send, "enter"},
		{"sources", km.Sources, "tab"},
		{"up", km.Up, "up"},
		{"down vim", km.Down, "j"},
		{"open", km.Open, "enter"},
		{"page down", km.PageDown, "pgdown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, tc.binding.Keys(), tc.key)
			assert.NotEmpty(t, tc.binding.Help().Desc)
		})
	}
}

func TestDefaultKeyMap_QuitDoesNotStealLetters(t *testing.T) {
	km := DefaultKeyMap()

	assert.NotContains(t, km.Quit.Keys(), "q")
}

func TestKeyMap_HelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ChatHelp(), 4)
	assert.Len(t, km.SourcesHelp(), 4)
	assert.Len(t, km.FullHelp(), 3)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("tab", km.Sources))
	assert.True(t, Matches("k", km.Up))
	assert.False(t, Matches("x", km.Up))
	assert.False(t, Matches("", km.Send))
}
