//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"gometer/core"
)

// Board wiring.
const (
	pinHYSCK  = machine.GPIO2
	pinHYMOSI = machine.GPIO3
	pinHYMISO = machine.GPIO4
	pinHYCS   = core.GPIOPin(5)
	pinHYIRQ  = core.GPIOPin(6)

	pinDigitalRail = core.GPIOPin(7)
	pinAnalogRail  = core.GPIOPin(8)
	pinHYReset     = core.GPIOPin(9)

	pinOLEDSDA = machine.GPIO0
	pinOLEDSCL = machine.GPIO1

	pinReportTX = machine.GPIO28
	pinReportRX = machine.GPIO29

	// 125MHz / (8 * 16) is just under 1MHz
	hySPIClkDiv = 16
)

// buttonPins is indexed by core.Button-1: keys, jacks, then the selector.
var buttonPins = [core.NumButtons]core.GPIOPin{
	10, 11, 12, 13, 14, 15, 16, 17,
	18, 19,
	20, 21, 22, 23, 24, 25, 26, 27,
}

func main() {
	// Disable watchdog on boot to clear any previous state
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	uart := uartx.UART0
	if err := uart.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       pinReportTX,
		RX:       pinReportRX,
	}); err != nil {
		halt()
	}
	core.SetDebugWriter(func(s string) {
		println(s)
	})

	gpio := NewRPGPIODriver()
	var bus drivers.SPI
	pioBus, err := NewPIOSPI(0, 0, pinHYSCK, pinHYMOSI, pinHYMISO, hySPIClkDiv)
	if err == nil {
		bus = pioBus
	} else {
		// no PIO program space left, bit-bang the same timing
		core.DebugPrintln("[SYS] PIO SPI unavailable, using GPIO")
		bus, err = core.NewSoftSPI(gpio, core.GPIOPin(pinHYSCK), core.GPIOPin(pinHYMOSI), core.GPIOPin(pinHYMISO))
		if err != nil {
			halt()
		}
	}
	chip, err := core.NewSPITransport(bus, gpio, pinHYCS)
	if err != nil {
		halt()
	}
	irq, err := core.NewIRQPin(gpio, pinHYIRQ, false)
	if err != nil {
		halt()
	}
	power, err := core.NewPowerPins(gpio, pinDigitalRail, pinAnalogRail, pinHYReset)
	if err != nil {
		halt()
	}
	buttons, err := core.NewButtonPins(gpio, buttonPins)
	if err != nil {
		halt()
	}

	machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       pinOLEDSDA,
		SCL:       pinOLEDSCL,
	})
	display := NewOLEDDisplay(machine.I2C0)

	fw := core.New(core.DefaultConfig(), core.HAL{
		Chip:    chip,
		IRQ:     irq,
		Power:   power,
		Buttons: buttons,
		Display: display,
	})

	// the chip pulses its line on every finished conversion
	irqPin := machine.Pin(pinHYIRQ)
	irqPin.SetInterrupt(machine.PinRising, func(machine.Pin) {
		fw.Chip.IRQEdge()
	})

	fw.Boot()

	go tick(fw.Timer)
	go drain(fw.Reporter, uart)
	go refresh(display)

	_ = fw.Run(context.Background())
}

// tick stands in for SysTick and the 10ms timer: it only raises interrupts.
func tick(t *core.Timer) {
	ticker := time.NewTicker(time.Millisecond)
	n := 0
	for range ticker.C {
		t.Tick1ms()
		if n++; n == 10 {
			n = 0
			t.Tick10ms()
		}
	}
}

// drain copies the report stream to the UART.
func drain(rp *core.Reporter, uart *uartx.UART) {
	buf := make([]byte, 64)
	for {
		if n := rp.Read(buf); n > 0 {
			_, _ = uart.Write(buf[:n])
			continue
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// refresh pushes latched frames to the OLED outside job context.
func refresh(d *OLEDDisplay) {
	for {
		if !d.Refresh() {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func halt() {
	for {
		time.Sleep(time.Second)
	}
}
