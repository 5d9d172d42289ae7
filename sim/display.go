package sim

import (
	"sync"

	"gometer/core"
)

// Screen is what one numeric field shows.
type Screen struct {
	Text    string
	Reading core.Reading
	Numeric bool
}

// Display renders into a frame buffer and hands it to OnFlush when flushed.
// It implements core.Display.
type Display struct {
	mu      sync.Mutex
	buffer  [2]Screen
	shown   [2]Screen
	queued  bool
	flushes int
	onFlush func(main, sub Screen)
}

// NewDisplay creates a blank display.
func NewDisplay() *Display {
	return &Display{}
}

// OnFlush sets a callback run with every flushed frame.
func (d *Display) OnFlush(f func(main, sub Screen)) {
	d.mu.Lock()
	d.onFlush = f
	d.mu.Unlock()
}

func (d *Display) RenderReading(s core.Screen, r core.Reading) {
	if s > core.ScreenMain {
		return
	}
	d.mu.Lock()
	d.buffer[s] = Screen{Text: r.Format(), Reading: r, Numeric: true}
	d.mu.Unlock()
}

func (d *Display) RenderText(s core.Screen, text string) {
	if s > core.ScreenMain {
		return
	}
	if len(text) > 5 {
		text = text[:5]
	}
	d.mu.Lock()
	d.buffer[s] = Screen{Text: text}
	d.mu.Unlock()
}

func (d *Display) QueueUpdate() {
	d.mu.Lock()
	d.queued = true
	d.mu.Unlock()
}

func (d *Display) Flush() {
	d.mu.Lock()
	if !d.queued {
		d.mu.Unlock()
		return
	}
	d.queued = false
	d.flushes++
	d.shown = d.buffer
	f := d.onFlush
	main, sub := d.shown[core.ScreenMain], d.shown[core.ScreenSub]
	d.mu.Unlock()

	if f != nil {
		f(main, sub)
	}
}

// Shown returns what is on the glass.
func (d *Display) Shown(s core.Screen) Screen {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown[s&1]
}

// Flushes returns how many frames reached the glass.
func (d *Display) Flushes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}
