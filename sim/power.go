package sim

import "sync"

// Power models the two measurement supplies and the chip's reset line.
// The chip only runs with both rails up and reset released.
type Power struct {
	mu      sync.Mutex
	chip    *Chip
	rails   bool
	inReset bool
	resets  int
}

// NewPower creates rails feeding chip, all off.
func NewPower(chip *Chip) *Power {
	return &Power{chip: chip, inReset: true}
}

// SetRails implements core.PowerControl.
func (p *Power) SetRails(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rails = on
	p.update()
}

// ResetChip implements core.PowerControl.
func (p *Power) ResetChip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
	p.inReset = false
	p.chip.Reset()
	p.update()
}

// PowerDownChip implements core.PowerControl.
func (p *Power) PowerDownChip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inReset = true
	p.update()
}

func (p *Power) update() {
	p.chip.SetPowered(p.rails && !p.inReset)
}

// Rails reports whether the supplies are on.
func (p *Power) Rails() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rails
}

// Resets returns how many times the chip was reset.
func (p *Power) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}
