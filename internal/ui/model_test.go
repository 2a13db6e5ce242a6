// ABOUTME: Tests for the TUI model
// ABOUTME: Covers key-to-command mapping, status application, and rendering helpers
package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeysEmitCommands(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want Command
	}{
		{"space toggles", keyMsg(" "), Command{Kind: CmdTogglePlay}},
		{"left seeks back", tea.KeyMsg{Type: tea.KeyLeft}, Command{Kind: CmdSeekBy, Delta: -5}},
		{"right seeks forward", tea.KeyMsg{Type: tea.KeyRight}, Command{Kind: CmdSeekBy, Delta: 5}},
		{"r resets", keyMsg("r"), Command{Kind: CmdReset}},
		{"e exports", keyMsg("e"), Command{Kind: CmdExport}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := make(chan Command, 1)
			m := NewModel(cmds)

			_, _ = m.Update(tt.msg)

			select {
			case got := <-cmds:
				assert.Equal(t, tt.want, got)
			default:
				t.Fatal("no command emitted")
			}
		})
	}
}

func TestQuitKeyEmitsQuit(t *testing.T) {
	cmds := make(chan Command, 1)
	m := NewModel(cmds)

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, Command{Kind: CmdQuit}, <-cmds)
}

func TestSendNeverBlocks(t *testing.T) {
	cmds := make(chan Command) // unbuffered, nobody reading
	m := NewModel(cmds)

	// Must return immediately even though the channel cannot accept
	_, _ = m.Update(keyMsg("r"))
}

func TestStatusMsgUpdatesModel(t *testing.T) {
	m := NewModel(make(chan Command, 1))

	updated, _ := m.Update(StatusMsg{
		Connected:      true,
		Generator:      "studio",
		State:          "playing",
		Cursor:         12.5,
		Total:          60.0,
		Codec:          "pcm",
		SampleRate:     48000,
		Channels:       2,
		ChunksReceived: 42,
	})

	got := updated.(Model)
	assert.True(t, got.connected)
	assert.Equal(t, "playing", got.state)
	assert.InDelta(t, 12.5, got.cursor, 1e-9)
	assert.Equal(t, int64(42), got.received)
}

func TestViewRendersAfterResize(t *testing.T) {
	m := NewModel(make(chan Command, 1))
	assert.Equal(t, "Loading...", m.View())

	resized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	view := resized.(Model).View()
	assert.Contains(t, view, "Driftwave Player")
	assert.Contains(t, view, "q:quit")
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "██░░", renderBar(5, 10, 4))
	assert.Equal(t, "████", renderBar(20, 10, 4))
	assert.Equal(t, "░░░░", renderBar(0, 0, 4))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0:00.0", formatTime(0))
	assert.Equal(t, "0:12.5", formatTime(12.5))
	assert.Equal(t, "2:05.0", formatTime(125))
	assert.Equal(t, "0:00.0", formatTime(-1))
}
