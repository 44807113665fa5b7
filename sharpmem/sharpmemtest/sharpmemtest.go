// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sharpmemtest emulates a Sharp memory LCD on the host.
//
// Panel decodes what a driver sends and keeps the resulting picture, which
// makes it usable both in tests and to preview a program without hardware.
package sharpmemtest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/bits"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Kind of transaction.
type Kind uint8

// Known transactions.
const (
	Hold Kind = iota
	Write
	Clear
)

func (k Kind) String() string {
	switch k {
	case Hold:
		return "hold"
	case Write:
		return "write"
	case Clear:
		return "clear"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Transaction is everything sent while SCS was High.
type Transaction struct {
	Kind Kind
	VCOM bool
	// W is the concatenation of all the bytes written.
	W []byte
	// Txs is the number of Tx calls.
	Txs int
	// Lines lists the panel lines updated, in the order sent, 0-based.
	Lines []int
}

// Panel emulates a w×h memory LCD connected to an SPI port, with its SCS
// line on the pin returned by CS.
type Panel struct {
	// Fail, when not nil, is returned by Tx instead of accepting the bytes.
	// A selection during which a Tx failed is discarded when SCS goes Low: it
	// is neither decoded nor recorded.
	Fail error
	// OnUpdate, when set, is called with a snapshot of the panel after each
	// transaction that changed it.
	OnUpdate func(img *image.Gray)

	w, h int
	cs   csPin

	mu        sync.Mutex
	pix       *image.Gray
	connected bool
	freq      physic.Frequency
	mode      spi.Mode
	bits      int
	selected  bool
	aborted   bool
	cur       Transaction
	done      []Transaction
	err       error
}

// NewPanel returns an emulated w×h panel. The panel starts white.
func NewPanel(w, h int) *Panel {
	p := &Panel{
		w:   w,
		h:   h,
		pix: image.NewGray(image.Rect(0, 0, w, h)),
	}
	p.cs.N = "SCS"
	p.cs.Num = -1
	p.cs.Fn = "SCS"
	p.cs.p = p
	p.fill()
	return p
}

func (p *Panel) String() string {
	return fmt.Sprintf("sharpmemtest.Panel{%dx%d}", p.w, p.h)
}

// CS returns the emulated SCS line. High selects the panel.
func (p *Panel) CS() gpio.PinOut {
	return &p.cs
}

// Connect implements spi.Port.
func (p *Panel) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return nil, errors.New("sharpmemtest: Connect cannot be called twice")
	}
	if bits != 8 {
		return nil, fmt.Errorf("sharpmemtest: unsupported bits per word %d", bits)
	}
	p.connected = true
	p.freq = f
	p.mode = mode
	p.bits = bits
	return &panelConn{p: p}, nil
}

// LimitSpeed implements spi.PortCloser.
func (p *Panel) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Close implements spi.PortCloser.
func (p *Panel) Close() error {
	return nil
}

// Connection returns the parameters passed to Connect.
func (p *Panel) Connection() (physic.Frequency, spi.Mode, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freq, p.mode, p.bits
}

// Image returns a snapshot of the panel. White is 0xFF.
func (p *Panel) Image() *image.Gray {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Transactions returns the completed transactions.
func (p *Panel) Transactions() []Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Transaction(nil), p.done...)
}

// Frames returns the number of completed write transactions.
func (p *Panel) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.done {
		if t.Kind == Write {
			n++
		}
	}
	return n
}

// Err returns the first protocol violation seen, if any.
func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Panel) fill() {
	for i := range p.pix.Pix {
		p.pix.Pix[i] = 0xFF
	}
}

func (p *Panel) snapshotLocked() *image.Gray {
	img := image.NewGray(p.pix.Rect)
	copy(img.Pix, p.pix.Pix)
	return img
}

func (p *Panel) failLocked(format string, a ...interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf("sharpmemtest: "+format, a...)
	}
}

func (p *Panel) tx(w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		p.aborted = p.selected
		return p.Fail
	}
	if !p.selected {
		p.failLocked("Tx of %d bytes while SCS is Low", len(w))
		return errors.New("sharpmemtest: panel not selected")
	}
	p.cur.W = append(p.cur.W, w...)
	p.cur.Txs++
	for i := range r {
		r[i] = 0
	}
	return nil
}

// level is called by the SCS pin.
func (p *Panel) level(l gpio.Level) {
	var snap *image.Gray
	p.mu.Lock()
	switch {
	case l == gpio.High && !p.selected:
		p.selected = true
		p.aborted = false
		p.cur = Transaction{}
	case l == gpio.Low && p.selected && p.aborted:
		p.selected = false
		p.aborted = false
	case l == gpio.Low && p.selected:
		p.selected = false
		if p.decodeLocked(&p.cur) && p.OnUpdate != nil {
			snap = p.snapshotLocked()
		}
		p.done = append(p.done, p.cur)
	}
	p.mu.Unlock()
	if snap != nil {
		p.OnUpdate(snap)
	}
}

// decodeLocked applies t to the panel. It returns true if the picture
// changed.
func (p *Panel) decodeLocked(t *Transaction) bool {
	b := t.W
	if len(b) < 2 {
		p.failLocked("transaction of %d bytes is too short", len(b))
		return false
	}
	cmd := b[0]
	t.VCOM = cmd&0x40 != 0
	if n := len(p.done); n != 0 && p.done[n-1].VCOM == t.VCOM {
		p.failLocked("VCOM did not alternate at transaction %d", n)
	}
	if b[len(b)-1] != 0 {
		p.failLocked("missing trailer, got 0x%02x", b[len(b)-1])
	}
	switch {
	case cmd&0x20 != 0:
		t.Kind = Clear
		if len(b) != 2 {
			p.failLocked("clear command is %d bytes", len(b))
		}
		p.fill()
		return true
	case cmd&0x80 != 0:
		t.Kind = Write
		return p.writeLocked(t, b[1:len(b)-1])
	default:
		t.Kind = Hold
		if len(b) != 2 {
			p.failLocked("hold command is %d bytes", len(b))
		}
		return false
	}
}

func (p *Panel) writeLocked(t *Transaction, body []byte) bool {
	stride := p.w / 8
	if len(body)%(1+stride) != 0 {
		p.failLocked("write payload of %d bytes is not a multiple of %d", len(body), 1+stride)
		return false
	}
	for ; len(body) != 0; body = body[1+stride:] {
		line := int(bits.Reverse8(body[0]))
		if line < 1 || line > p.h {
			p.failLocked("invalid line address 0x%02x", body[0])
			return false
		}
		y := line - 1
		t.Lines = append(t.Lines, y)
		data := body[1 : 1+stride]
		for x := 0; x < p.w; x++ {
			c := color.Gray{}
			if data[x/8]&(1<<uint(x&7)) != 0 {
				c.Y = 0xFF
			}
			p.pix.SetGray(x, y, c)
		}
	}
	return true
}

// csPin is a gpiotest.Pin that reports its level changes to the panel.
type csPin struct {
	gpiotest.Pin
	p *Panel
}

func (c *csPin) Out(l gpio.Level) error {
	if err := c.Pin.Out(l); err != nil {
		return err
	}
	c.p.level(l)
	return nil
}

type panelConn struct {
	p *Panel
}

func (c *panelConn) String() string {
	return c.p.String()
}

func (c *panelConn) Tx(w, r []byte) error {
	return c.p.tx(w, r)
}

func (c *panelConn) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := c.p.tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

func (c *panelConn) Duplex() conn.Duplex {
	return conn.Half
}

var _ spi.PortCloser = &Panel{}
var _ spi.Conn = &panelConn{}
var _ gpio.PinOut = &csPin{}
