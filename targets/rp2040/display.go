//go:build rp2040

package main

import (
	"image/color"
	"machine"
	"runtime"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
	"tinygo.org/x/tinyfont/proggy"

	"gometer/core"
)

var white = color.RGBA{255, 255, 255, 255}

// pixels is the part of the panel driver tinyfont draws through.
type pixels struct {
	size     func() (int16, int16)
	setPixel func(x, y int16, c color.RGBA)
	display  func() error
}

func (p pixels) Size() (int16, int16)              { return p.size() }
func (p pixels) SetPixel(x, y int16, c color.RGBA) { p.setPixel(x, y, c) }
func (p pixels) Display() error                    { return p.display() }

// SSD1306 addressing commands; the driver leaves the panel in horizontal
// addressing mode.
const (
	cmdColumnAddr = 0x21
	cmdPageAddr   = 0x22

	oledWidth = 128
	oledPages = 8
)

// OLEDDisplay implements core.Display on a 128x64 SSD1306: the main
// reading in a large font with its unit, the sub reading in a small one
// underneath. The 10ms job only latches the text. Refresh draws and pushes
// it from the idle side, one 128 byte page at a time, so the 23ms of I2C
// a full frame takes never runs inside a job.
type OLEDDisplay struct {
	core.FrameLatch

	px      pixels
	clear   func()
	buffer  func() []byte
	command func(uint8)
	data    func([]byte)
}

// NewOLEDDisplay configures the panel on an I2C bus.
func NewOLEDDisplay(bus *machine.I2C) *OLEDDisplay {
	dev := ssd1306.NewI2C(bus)
	dev.Configure(ssd1306.Config{Width: oledWidth, Height: 64, Address: 0x3C, VccState: ssd1306.SWITCHCAPVCC})
	dev.ClearDisplay()
	return &OLEDDisplay{
		px: pixels{
			size:     dev.Size,
			setPixel: dev.SetPixel,
			display:  dev.Display,
		},
		clear:   dev.ClearBuffer,
		buffer:  dev.GetBuffer,
		command: func(c uint8) { dev.Command(c) },
		data:    func(b []byte) { dev.Tx(b, false) },
	}
}

// Refresh draws the latest latched frame and pushes it to the panel. It
// reports whether there was a frame to draw.
func (d *OLEDDisplay) Refresh() bool {
	frame, ok := d.Take()
	if !ok {
		return false
	}

	d.clear()
	top := frame[core.ScreenMain]
	tinyfont.WriteLine(d.px, &freesans.Bold18pt7b, 0, 30, top.Text, white)
	tinyfont.WriteLine(d.px, &proggy.TinySZ8pt7b, 110, 30, top.Unit, white)
	sub := frame[core.ScreenSub]
	tinyfont.WriteLine(d.px, &proggy.TinySZ8pt7b, 0, 58, sub.Text+" "+sub.Unit, white)

	buf := d.buffer()
	for page := 0; page < oledPages; page++ {
		d.command(cmdColumnAddr)
		d.command(0)
		d.command(oledWidth - 1)
		d.command(cmdPageAddr)
		d.command(uint8(page))
		d.command(uint8(page))
		d.data(buf[page*oledWidth : (page+1)*oledWidth])
		// let pending jobs run between pages
		runtime.Gosched()
	}
	return true
}
