package core

// Collaborators the firmware core talks to. Targets implement them on real
// hardware; the sim package implements them on the host.

// RegisterTransport moves bytes to and from the measurement chip's register
// file. Each call is one complete transaction.
type RegisterTransport interface {
	ReadRegisters(start uint8, buf []byte) error
	WriteRegisters(start uint8, data []byte) error
}

// IRQLine is the chip's edge-signalled interrupt output.
type IRQLine interface {
	// Asserted reports the current physical level.
	Asserted() bool
}

// PowerControl switches the measurement supplies and the chip itself.
type PowerControl interface {
	SetRails(on bool)
	ResetChip()
	PowerDownChip()
}

// ButtonInput reports raw, undebounced contact state.
type ButtonInput interface {
	Pressed(b Button) bool
}

// Screen selects one of the display's numeric fields.
type Screen uint8

const (
	ScreenSub Screen = iota
	ScreenMain
)

func (s Screen) String() string {
	if s == ScreenMain {
		return "main"
	}
	return "sub"
}

// Display renders into a frame buffer; nothing reaches the glass until Flush.
type Display interface {
	RenderReading(screen Screen, r Reading)
	// RenderText shows up to five characters; longer text is truncated.
	RenderText(screen Screen, text string)
	// QueueUpdate asks for a flush on the next 10ms tick.
	QueueUpdate()
	// Flush pushes the frame buffer out if an update was queued. It runs in
	// Job10msTimer, so a slow panel only latches here (see FrameLatch).
	Flush()
}

// Clock returns milliseconds since boot.
type Clock interface {
	Millis() uint32
}

// HAL bundles the collaborators a Firmware needs.
type HAL struct {
	Chip    RegisterTransport
	IRQ     IRQLine
	Power   PowerControl
	Buttons ButtonInput
	Display Display
}
