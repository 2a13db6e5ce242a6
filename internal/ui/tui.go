// ABOUTME: TUI initialization and control plumbing
// ABOUTME: Wraps the bubbletea program and the command channel to the app loop
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Control carries commands from the TUI to the app loop
type Control struct {
	Commands chan Command
}

// NewControl creates the control channel set
func NewControl() *Control {
	return &Control{
		Commands: make(chan Command, 10),
	}
}

// Run builds the bubbletea program around a model wired to ctrl
func Run(ctrl *Control) *tea.Program {
	return tea.NewProgram(NewModel(ctrl.Commands), tea.WithAltScreen())
}
