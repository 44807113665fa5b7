// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts defines the options for the device.
type Opts struct {
	// W and H are the panel size in pixels. W must be a multiple of 8 and H
	// at most 255.
	W int
	H int
	// Rotation of the logical coordinates.
	Rotation Rotation
	// Freq is the SPI clock. Defaults to 4MHz. Some panels are only rated
	// for 1MHz.
	Freq physic.Frequency
	// Strategy selects how frames are sent. Defaults to Staged.
	Strategy Strategy
}

// Panel presets.
var (
	// LS013B7DH03 is the 1.28" 128x128 panel.
	LS013B7DH03 = Opts{W: 128, H: 128}
	// LS013B7DH05 is the 1.26" 144x168 panel.
	LS013B7DH05 = Opts{W: 144, H: 168}
	// LS027B7DH01 is the 2.7" 400x240 panel.
	LS027B7DH01 = Opts{W: 400, H: 240}
	// Nano33_320x240 is a 320x240 panel as wired on the Nano 33 BLE
	// breakout.
	Nano33_320x240 = Opts{W: 320, H: 240}
)

// DefaultOpts is the recommended default options.
var DefaultOpts = LS027B7DH01

const defaultFreq = 4 * physic.MegaHertz

// New returns a Dev object that communicates over SPI to a Sharp memory LCD.
//
// # Wiring
//
// Connect SI to SPI_MOSI, SCLK to SPI_CLK. The SCS line of these panels is
// active High, so it is driven through the cs pin and the SPI port's own chip
// select is not used. Pass nil for cs when SCS is wired to a hardware chip
// select that is already inverted.
//
// disp is the optional DISP line (display on when High). Pass nil when DISP
// is tied High. EXTMODE must be Low so that VCOM is toggled over the serial
// interface.
func New(p spi.Port, cs, disp gpio.PinOut, opts *Opts) (*Dev, error) {
	if cs == gpio.INVALID || disp == gpio.INVALID {
		return nil, errors.New("sharpmem: use nil for an unused pin, do not use gpio.INVALID")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Freq == 0 {
		o.Freq = defaultFreq
	}
	buf, err := NewBuffer(o.W, o.H)
	if err != nil {
		return nil, err
	}
	if err := buf.SetRotation(o.Rotation); err != nil {
		return nil, err
	}
	buf.Clear()

	mode := spi.Mode0
	if cs != nil {
		if err := cs.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("sharpmem: failed to release SCS: %w", err)
		}
		mode |= spi.NoCS
	}
	c, err := p.Connect(o.Freq, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("sharpmem: %w", err)
	}
	maxTx := 0
	if l, ok := c.(conn.Limits); ok {
		maxTx = l.MaxTxSize()
	}
	xfer, err := newTransfer(o.Strategy, buf, maxTx)
	if err != nil {
		return nil, err
	}
	if disp != nil {
		if err := disp.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("sharpmem: failed to enable DISP: %w", err)
		}
	}
	return &Dev{
		c:    c,
		cs:   cs,
		disp: disp,
		opts: o,
		buf:  buf,
		xfer: xfer,
		vcom: bitVCOM,
	}, nil
}

// Dev is an open handle to the display controller.
//
// It is safe for concurrent use. Pixel writes never interleave with a frame
// being sent.
type Dev struct {
	// Communication
	c    spi.Conn
	cs   gpio.PinOut
	disp gpio.PinOut
	opts Opts

	mu     sync.Mutex
	buf    *Buffer
	xfer   transfer
	vcom   byte // 0 or bitVCOM, sent with the next transfer
	halted bool
}

func (d *Dev) String() string {
	if d.cs == nil {
		return fmt.Sprintf("sharpmem.Dev{%s, %dx%d, %s}", d.c, d.opts.W, d.opts.H, d.opts.Strategy)
	}
	return fmt.Sprintf("sharpmem.Dev{%s, %s, %dx%d, %s}", d.c, d.cs, d.opts.W, d.opts.H, d.opts.Strategy)
}

// ColorModel implements display.Drawer.
//
// It is a one bit color model, as implemented by image1bit.Bit. On is a
// light pixel.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
//
// The size accounts for the rotation.
func (d *Dev) Bounds() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Bounds()
}

// Width implements Canvas.
func (d *Dev) Width() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Width()
}

// Height implements Canvas.
func (d *Dev) Height() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Height()
}

// Rotation implements Canvas.
func (d *Dev) Rotation() Rotation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Rotation()
}

// SetRotation changes the orientation used by subsequent pixel operations.
// The buffer content is not moved.
func (d *Dev) SetRotation(r Rotation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.SetRotation(r)
}

// SetPixel implements Canvas. The display is not updated until Refresh.
func (d *Dev) SetPixel(x, y int, c image1bit.Bit) {
	d.mu.Lock()
	d.buf.SetPixel(x, y, c)
	d.mu.Unlock()
}

// Pixel implements Canvas.
func (d *Dev) Pixel(x, y int) image1bit.Bit {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Pixel(x, y)
}

// At implements image.Image so the content of the buffer can be read back.
func (d *Dev) At(x, y int) color.Color {
	return d.Pixel(x, y)
}

// Set implements draw.Image. This permits using any drawing library on the
// device directly; call Refresh to show the result.
func (d *Dev) Set(x, y int, c color.Color) {
	d.SetPixel(x, y, image1bit.BitModel.Convert(c).(image1bit.Bit))
}

// Draw implements display.Drawer.
//
// It draws synchronously, once this function returns, the display is updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if img, ok := src.(*Buffer); ok && img.w == d.buf.w && img.h == d.buf.h && img.rot == d.buf.rot && r == d.buf.Bounds() && sp.X == 0 && sp.Y == 0 {
		// Same layout, full frame: fast path!
		copy(d.buf.Pix, img.Pix)
	} else {
		draw.Src.Draw(d.buf, r, src, sp)
	}
	return d.refreshLocked()
}

// Write replaces the whole buffer with pixels and updates the display.
//
// pixels uses the Buffer.Pix layout, that is panel orientation regardless of
// the rotation.
func (d *Dev) Write(pixels []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(pixels) != len(d.buf.Pix) {
		return 0, fmt.Errorf("sharpmem: invalid pixel stream length; expected %d bytes, got %d bytes", len(d.buf.Pix), len(pixels))
	}
	copy(d.buf.Pix, pixels)
	if err := d.refreshLocked(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Refresh sends the whole buffer to the panel.
//
// It blocks for the duration of the transfer. On failure the panel keeps
// showing the previous frame and the error is returned; there is no retry.
func (d *Dev) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refreshLocked()
}

func (d *Dev) refreshLocked() error {
	err := d.transact(true, func(s sender) error {
		return d.xfer.writeFrame(s, d.buf, d.vcom)
	})
	if err != nil {
		return fmt.Errorf("sharpmem: refresh: %w", err)
	}
	return nil
}

// ClearBuffer sets every pixel of the buffer to light without updating the
// display.
//
// Beware: cleared means white on this panel, not black. Draw with
// image1bit.Off to darken pixels.
func (d *Dev) ClearBuffer() {
	d.mu.Lock()
	d.buf.Clear()
	d.mu.Unlock()
}

// ClearDisplay is ClearBuffer followed by Refresh.
func (d *Dev) ClearDisplay() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Clear()
	return d.refreshLocked()
}

// Blank sends the controller's all clear command. The panel turns white but
// the buffer is left untouched, a following Refresh shows it again.
func (d *Dev) Blank() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blankLocked()
}

func (d *Dev) blankLocked() error {
	err := d.transact(false, func(s sender) error {
		return s.send([]byte{cmdClear | d.vcom, 0})
	})
	if err != nil {
		return fmt.Errorf("sharpmem: clear: %w", err)
	}
	return nil
}

// Hold toggles VCOM without sending any line.
//
// The panel must see VCOM alternate at least once per second or the liquid
// crystal accumulates a DC bias that damages it over time. Call Hold, or run
// Maintain, when the image does not change for a while. Hold leaves a halted
// display off.
func (d *Dev) Hold() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.transact(false, func(s sender) error {
		return s.send([]byte{d.vcom, 0})
	})
	if err != nil {
		return fmt.Errorf("sharpmem: hold: %w", err)
	}
	return nil
}

// Maintain calls Hold every period until ctx is done or a transfer fails.
//
// It is meant to run in its own goroutine. Drawing and refreshing may
// proceed concurrently.
func (d *Dev) Maintain(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("sharpmem: invalid period %s", period)
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := d.Hold(); err != nil {
				return err
			}
		}
	}
}

// Halt implements conn.Resource.
//
// It turns the display off with the DISP line when available, otherwise it
// blanks the panel. The next Refresh, Draw, Write or ClearDisplay turns the
// display back on. Hold and Blank keep it off, so a running Maintain keeps
// toggling VCOM on a halted display.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disp == nil {
		return d.blankLocked()
	}
	if err := d.disp.Out(gpio.Low); err != nil {
		return fmt.Errorf("sharpmem: failed to disable DISP: %w", err)
	}
	d.halted = true
	return nil
}

// transact runs fn with SCS asserted. SCS is released even when fn fails.
// VCOM flips only once the whole exchange succeeded, so the next transfer
// carries the opposite level of the one the panel just latched.
//
// wake re-enables a halted display before the transfer.
func (d *Dev) transact(wake bool, fn func(s sender) error) error {
	eh := errorHandler{d: d}
	if wake && d.halted {
		// Transparently enable the display.
		eh.dispOut(gpio.High)
		if eh.err != nil {
			return eh.err
		}
		d.halted = false
	}
	eh.csOut(gpio.High)
	if eh.err == nil {
		eh.err = fn(&eh)
	}
	eh.release()
	if eh.err != nil {
		return eh.err
	}
	d.toggleVCOM()
	return nil
}

// toggleVCOM is the only place the polarity changes.
func (d *Dev) toggleVCOM() {
	if d.vcom != 0 {
		d.vcom = 0
	} else {
		d.vcom = bitVCOM
	}
}

var _ display.Drawer = &Dev{}
var _ draw.Image = &Dev{}
var _ Canvas = &Dev{}
