package sim

import (
	"sync"

	"gometer/core"
)

// Buttons holds raw contact state set by a test or the CLI. It implements
// core.ButtonInput.
type Buttons struct {
	mu      sync.Mutex
	pressed [core.NumButtons + 1]bool
}

// NewButtons creates a panel with nothing pressed and the selector nowhere.
func NewButtons() *Buttons {
	return &Buttons{}
}

// Pressed implements core.ButtonInput.
func (b *Buttons) Pressed(btn core.Button) bool {
	if int(btn) > core.NumButtons {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed[btn]
}

// Set closes or opens one contact.
func (b *Buttons) Set(btn core.Button, pressed bool) {
	if btn == core.ButtonNone || int(btn) > core.NumButtons {
		return
	}
	b.mu.Lock()
	b.pressed[btn] = pressed
	b.mu.Unlock()
}

// Select turns the selector to pos, opening every other position.
func (b *Buttons) Select(pos core.Button) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for p := core.SelectorLowZ; p <= core.SelectorAmps; p++ {
		b.pressed[p] = p == pos
	}
}
