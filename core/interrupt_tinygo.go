//go:build tinygo

package core

import "runtime/interrupt"

type irqState = interrupt.State

// maskInterrupts disables interrupts and returns the previous state
func maskInterrupts() irqState {
	return interrupt.Disable()
}

// unmaskInterrupts restores the interrupt state
func unmaskInterrupts(state irqState) {
	interrupt.Restore(state)
}
