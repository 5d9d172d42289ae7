package core

// Button identifies a key, a jack detect switch or a selector position.
// Zero means no button; keep the order in step with buttonTable.
type Button uint8

const (
	ButtonNone Button = iota

	// top row, left to right
	ButtonRange
	ButtonHold
	ButtonRel
	ButtonPeak
	// bottom row, left to right
	ButtonMode
	ButtonMinMax
	ButtonMem
	ButtonSetup

	// something is in the corresponding jack
	ButtonJackMilliamps
	ButtonJackAmps

	// selector switch, left to right
	SelectorLowZ
	SelectorVolts
	SelectorMillivolts
	SelectorHertz
	SelectorOhms
	SelectorVA
	SelectorMicroamps
	SelectorAmps
)

// NumButtons counts every Button except ButtonNone.
const NumButtons = int(SelectorAmps)

// number of keys and jack switches, which come first
const numKeys = int(ButtonJackAmps)

var buttonNames = [...]string{
	"none",
	"range", "hold", "rel", "peak",
	"mode", "minmax", "mem", "setup",
	"jack_ma", "jack_a",
	"lowz", "v", "mv", "hz", "ohms", "va", "ua", "a",
}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "button?"
}

// ParseButton looks a button up by its String name.
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if n == name {
			return Button(i), true
		}
	}
	return ButtonNone, false
}

// ButtonState is a debounced state. The low bit marks a state nobody has
// read yet; reading it clears the bit.
type ButtonState uint8

const (
	ButtonReleased     ButtonState = 0
	ButtonJustReleased ButtonState = 1
	ButtonPressed      ButtonState = 2
	ButtonJustPressed  ButtonState = 3
	ButtonHeld         ButtonState = 4
	ButtonJustHeld     ButtonState = 5
)

// Just reports whether the state has not been read yet.
func (s ButtonState) Just() bool { return s&1 != 0 }

// Settled drops the just bit.
func (s ButtonState) Settled() ButtonState { return s &^ 1 }

var buttonStateNames = [...]string{
	"released", "just_released", "pressed", "just_pressed", "held", "just_held",
}

func (s ButtonState) String() string {
	if int(s) < len(buttonStateNames) {
		return buttonStateNames[s]
	}
	return "state?"
}

// HeldTime is how many 10ms ticks a key stays pressed before it is held.
const HeldTime = 100

type buttonInfo struct {
	holdable   bool
	debPress   uint8 // 10ms ticks pressed before it counts
	debRelease uint8 // 10ms ticks released before it counts
}

var buttonTable = [NumButtons]buttonInfo{
	// keys
	{true, 5, 5}, {true, 5, 5}, {true, 5, 5}, {true, 5, 5},
	{true, 5, 5}, {true, 5, 5}, {true, 5, 5}, {true, 5, 5},
	// jacks
	{false, 20, 20}, {false, 20, 20},
	// selector
	{false, 10, 10}, {false, 10, 10}, {false, 10, 10}, {false, 10, 10},
	{false, 10, 10}, {false, 10, 10}, {false, 10, 10}, {false, 10, 10},
}

type buttonMem struct {
	last     bool
	state    ButtonState
	debounce uint8
	held     uint8
}

// Buttons debounces every button once per 10ms tick and tracks held keys.
// Process runs in Job10msTimer; the getters run in less urgent jobs and
// take a critical section.
type Buttons struct {
	in  ButtonInput
	cs  CriticalSection
	mem [NumButtons]buttonMem
}

// NewButtons starts with every button settled as released.
func NewButtons(in ButtonInput, cs CriticalSection) *Buttons {
	b := &Buttons{in: in, cs: cs}
	for i := range b.mem {
		b.mem[i].debounce = buttonTable[i].debRelease
	}
	return b
}

// Process samples and debounces every button. Call it every 10ms.
func (b *Buttons) Process() {
	for i := range b.mem {
		info := &buttonTable[i]
		mem := &b.mem[i]

		curr := b.in.Pressed(Button(i + 1))

		if curr == mem.last {
			target := info.debPress
			if !curr {
				target = info.debRelease
			}
			if mem.debounce < target {
				mem.debounce++
				if mem.debounce == target {
					if curr {
						mem.state = ButtonJustPressed
					} else {
						mem.state = ButtonJustReleased
					}
					mem.held = 0
				}
			}
		} else {
			// bouncing, start over
			mem.debounce = 0
		}

		if info.holdable && mem.state.Settled() == ButtonPressed {
			if mem.held < HeldTime {
				mem.held++
				if mem.held == HeldTime {
					mem.state = ButtonJustHeld
				}
			}
		}

		mem.last = curr
	}
}

// GetNew returns the first key or jack with an unread state, and that
// state, marking it read. It returns ButtonNone if nothing changed.
func (b *Buttons) GetNew() (Button, ButtonState) {
	state := b.cs.DisableInterrupts()
	defer b.cs.RestoreInterrupts(state)

	for i := 0; i < numKeys; i++ {
		s := b.mem[i].state
		if s.Just() {
			b.mem[i].state = s.Settled()
			return Button(i + 1), s
		}
	}
	return ButtonNone, ButtonReleased
}

// GetSelector returns the selector position, or ButtonNone if no position
// or more than one is closed, as happens mid-turn.
func (b *Buttons) GetSelector() Button {
	state := b.cs.DisableInterrupts()
	defer b.cs.RestoreInterrupts(state)

	pos := ButtonNone
	for i := numKeys; i < NumButtons; i++ {
		s := b.mem[i].state
		b.mem[i].state = s.Settled()
		if s.Settled() != ButtonPressed {
			continue
		}
		if pos != ButtonNone {
			return ButtonNone
		}
		pos = Button(i + 1)
	}
	return pos
}

// State returns a button's debounced state without marking it read.
func (b *Buttons) State(btn Button) ButtonState {
	if btn == ButtonNone || int(btn) > NumButtons {
		return ButtonReleased
	}
	state := b.cs.DisableInterrupts()
	s := b.mem[btn-1].state
	b.cs.RestoreInterrupts(state)
	return s
}
