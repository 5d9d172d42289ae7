package core

import "sync"

// ScreenText is what one screen shows: the digits and the unit.
type ScreenText struct {
	Text string
	Unit string
}

// FrameLatch implements the job side of Display for panels that are too
// slow to push from Job10msTimer. Rendering and Flush only touch memory:
// Flush latches the rendered screens when an update was queued. The
// board's idle side collects the latched frame with Take and pushes it.
type FrameLatch struct {
	screen [2]ScreenText
	queued bool

	mu      sync.Mutex
	latched [2]ScreenText
	dirty   bool
}

// RenderReading implements Display.
func (l *FrameLatch) RenderReading(s Screen, r Reading) {
	if s > ScreenMain {
		return
	}
	l.screen[s] = ScreenText{Text: r.Format(), Unit: r.Unit.String()}
}

// RenderText implements Display.
func (l *FrameLatch) RenderText(s Screen, text string) {
	if s > ScreenMain {
		return
	}
	if len(text) > 5 {
		text = text[:5]
	}
	l.screen[s] = ScreenText{Text: text}
}

// QueueUpdate implements Display.
func (l *FrameLatch) QueueUpdate() {
	l.queued = true
}

// Flush implements Display. It never waits on the panel.
func (l *FrameLatch) Flush() {
	if !l.queued {
		return
	}
	l.queued = false

	l.mu.Lock()
	l.latched = l.screen
	l.dirty = true
	l.mu.Unlock()
}

// Take returns the latest latched frame, indexed by Screen, once. It is
// safe to call from any goroutine. Frames latched while the previous one
// was being pushed collapse into the newest.
func (l *FrameLatch) Take() ([2]ScreenText, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.dirty {
		return [2]ScreenText{}, false
	}
	l.dirty = false
	return l.latched, true
}
