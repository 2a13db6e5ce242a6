// ABOUTME: Bubbletea model for the playout TUI
// ABOUTME: Renders transport, cursor, spectrum, and stats; emits control commands
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// CommandKind identifies a TUI control command
type CommandKind int

const (
	CmdTogglePlay CommandKind = iota
	CmdSeekBy
	CmdReset
	CmdExport
	CmdQuit
)

// Command is a control request from the TUI to the app loop
type Command struct {
	Kind  CommandKind
	Delta float64 // seek delta in seconds, for CmdSeekBy
}

// seekStep is how far the arrow keys move the cursor
const seekStep = 5.0

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

// StatusMsg refreshes the TUI from engine and session state
type StatusMsg struct {
	Connected bool
	Generator string

	State      string
	Cursor     float64
	Total      float64
	Codec      string
	SampleRate int
	Channels   int

	Spectrum []float64

	ChunksReceived int64
	DecodeFailures int64
	Gaps           int64
	LiveUnits      int

	Notice string
	Err    string
}

// Model represents the TUI state
type Model struct {
	commands chan<- Command

	connected bool
	generator string

	state      string
	cursor     float64
	total      float64
	codec      string
	sampleRate int
	channels   int

	spectrum []float64

	received int64
	failures int64
	gaps     int64
	live     int

	notice string
	errMsg string

	width  int
	height int
}

// NewModel creates a TUI model that emits control commands on the given
// channel
func NewModel(commands chan<- Command) Model {
	return Model{
		commands: commands,
		state:    "stopped",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.send(Command{Kind: CmdQuit})
		return m, tea.Quit
	case " ":
		m.send(Command{Kind: CmdTogglePlay})
	case "left":
		m.send(Command{Kind: CmdSeekBy, Delta: -seekStep})
	case "right":
		m.send(Command{Kind: CmdSeekBy, Delta: seekStep})
	case "r":
		m.send(Command{Kind: CmdReset})
	case "e":
		m.send(Command{Kind: CmdExport})
	}

	return m, nil
}

// send forwards a command without ever blocking the render loop
func (m Model) send(cmd Command) {
	select {
	case m.commands <- cmd:
	default:
	}
}

// applyStatus updates model from a status message
func (m *Model) applyStatus(msg StatusMsg) {
	m.connected = msg.Connected
	m.generator = msg.Generator
	m.state = msg.State
	m.cursor = msg.Cursor
	m.total = msg.Total
	m.codec = msg.Codec
	m.sampleRate = msg.SampleRate
	m.channels = msg.Channels
	m.spectrum = msg.Spectrum
	m.received = msg.ChunksReceived
	m.failures = msg.DecodeFailures
	m.gaps = msg.Gaps
	m.live = msg.LiveUnits
	if msg.Notice != "" {
		m.notice = msg.Notice
	}
	m.errMsg = msg.Err
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Driftwave Player") + "\n\n")
	b.WriteString(m.renderConnection() + "\n")
	b.WriteString(m.renderTransport() + "\n")
	b.WriteString(m.renderSpectrum() + "\n")
	b.WriteString(m.renderStats() + "\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("error: "+m.errMsg) + "\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("space:play/pause  ←/→:seek 5s  r:reset  e:export  q:quit"))
	return b.String()
}

func (m Model) renderConnection() string {
	if !m.connected {
		return labelStyle.Render("session  ") + errorStyle.Render("disconnected")
	}

	format := ""
	if m.codec != "" {
		format = fmt.Sprintf("  %s %dHz %s", m.codec, m.sampleRate, channelName(m.channels))
	}
	return labelStyle.Render("session  ") + valueStyle.Render(m.generator+format)
}

func (m Model) renderTransport() string {
	bar := renderBar(m.cursor, m.total, 30)
	return labelStyle.Render("playback ") +
		valueStyle.Render(fmt.Sprintf("%-7s %s %s / %s",
			m.state, bar, formatTime(m.cursor), formatTime(m.total)))
}

func (m Model) renderSpectrum() string {
	if len(m.spectrum) == 0 {
		return labelStyle.Render("spectrum ") + valueStyle.Render(strings.Repeat("·", 16))
	}

	levels := []rune(" ▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, v := range m.spectrum {
		idx := int(v * float64(len(levels)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(levels) {
			idx = len(levels) - 1
		}
		b.WriteRune(levels[idx])
	}
	return labelStyle.Render("spectrum ") + barStyle.Render(b.String())
}

func (m Model) renderStats() string {
	return labelStyle.Render("stats    ") +
		valueStyle.Render(fmt.Sprintf("chunks:%d  failed:%d  gaps:%d  live:%d",
			m.received, m.failures, m.gaps, m.live))
}

// renderBar renders a progress bar of the given width
func renderBar(value, max float64, width int) string {
	filled := 0
	if max > 0 {
		filled = int(value / max * float64(width))
		if filled > width {
			filled = width
		}
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatTime renders seconds as m:ss.t
func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := int(seconds) / 60
	return fmt.Sprintf("%d:%04.1f", mins, seconds-float64(mins*60))
}

func channelName(channels int) string {
	if channels == 1 {
		return "mono"
	}
	return "stereo"
}
