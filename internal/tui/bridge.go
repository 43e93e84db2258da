package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"jobtrack/internal/records/models"
	"jobtrack/internal/tui/messages"
)

// Bridge delivers settings published by the session to a running program.
// Publish may be called from any goroutine, including the update loop itself.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach sets the program that receives settings. Settings published before
// a program is attached are dropped; the app reads the session on start.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

// Publish is suitable as session.Options.OnSettings
func (b *Bridge) Publish(s models.Settings) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return
	}
	// Send blocks until the loop receives the message, so never call it
	// inline from Update.
	go p.Send(messages.SettingsMsg{Settings: s})
}
