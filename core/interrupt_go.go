//go:build !tinygo

package core

// irqState is the saved hardware interrupt mask. On a hosted build there is no
// mask to save; the scheduler's own nesting depth provides the exclusion.
type irqState uintptr

// maskInterrupts is a no-op on regular Go (for testing and the simulator)
func maskInterrupts() irqState {
	return 0
}

// unmaskInterrupts is a no-op on regular Go
func unmaskInterrupts(irqState) {}
