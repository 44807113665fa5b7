// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Errors returned by the package.
var (
	ErrRotation = errors.New("sharpmem: rotation must be 0, 1, 2 or 3")
	ErrSize     = errors.New("sharpmem: invalid panel size")
)

// Rotation is the orientation of the logical coordinate space relative to
// the panel, in 90° steps.
//
// It only changes how coordinates are mapped, the buffer layout always
// follows the panel.
type Rotation uint8

// Supported rotations.
const (
	NoRotation Rotation = iota
	Rotate90            // Rotate 90° clock wise
	Rotate180           // Rotate 180°
	Rotate270           // Rotate 270° clock wise
)

func (r Rotation) String() string {
	switch r {
	case NoRotation:
		return "0°"
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return fmt.Sprintf("Rotation(%d)", uint8(r))
	}
}

// Canvas is the pixel level contract drawing code relies on.
//
// Coordinates are logical, that is after rotation. Out of range coordinates
// are not an error: writes are dropped and reads return image1bit.Off.
type Canvas interface {
	SetPixel(x, y int, c image1bit.Bit)
	Pixel(x, y int) image1bit.Bit
	Width() int
	Height() int
	Rotation() Rotation
}

// Per bit masks, bit 0 is the leftmost pixel of each byte.
var (
	setMask = [8]byte{1, 2, 4, 8, 16, 32, 64, 128}
	clrMask = [8]byte{^byte(1), ^byte(2), ^byte(4), ^byte(8), ^byte(16), ^byte(32), ^byte(64), ^byte(128)}
)

// Buffer is a packed 1 bit per pixel bitmap in the panel's native layout:
// rows top to bottom, W/8 bytes per row, pixel x of a row in bit x%8 of
// byte x/8. A set bit is a light (reflective) pixel.
//
// Buffer implements draw.Image in logical coordinates.
type Buffer struct {
	// Pix holds the panel memory image. Its length never changes.
	Pix []byte

	w, h int // panel geometry
	rot  Rotation
}

// NewBuffer returns an all dark buffer for a w×h panel.
//
// w must be a positive multiple of 8 and h must be between 1 and 255.
func NewBuffer(w, h int) (*Buffer, error) {
	if w <= 0 || w&7 != 0 {
		return nil, fmt.Errorf("%w: width %d must be a positive multiple of 8", ErrSize, w)
	}
	if h <= 0 || h > maxLines {
		return nil, fmt.Errorf("%w: height %d must be between 1 and %d", ErrSize, h, maxLines)
	}
	return &Buffer{Pix: make([]byte, (w*h+7)/8), w: w, h: h}, nil
}

// Width returns the logical width.
func (b *Buffer) Width() int {
	if b.rot&1 != 0 {
		return b.h
	}
	return b.w
}

// Height returns the logical height.
func (b *Buffer) Height() int {
	if b.rot&1 != 0 {
		return b.w
	}
	return b.h
}

// Rotation returns the current rotation.
func (b *Buffer) Rotation() Rotation {
	return b.rot
}

// SetRotation changes the coordinate mapping. The pixels are left in place.
func (b *Buffer) SetRotation(r Rotation) error {
	if r > Rotate270 {
		return ErrRotation
	}
	b.rot = r
	return nil
}

// Stride returns the number of bytes per panel line.
func (b *Buffer) Stride() int {
	return b.w / 8
}

// Line returns the bytes of panel line i.
func (b *Buffer) Line(i int) []byte {
	s := b.Stride()
	return b.Pix[i*s : (i+1)*s]
}

// physical maps logical coordinates to panel coordinates. ok is false when
// the point is off the canvas.
func (b *Buffer) physical(x, y int) (px, py int, ok bool) {
	if x < 0 || y < 0 || x >= b.Width() || y >= b.Height() {
		return 0, 0, false
	}
	switch b.rot {
	case Rotate90:
		x, y = y, x
		x = b.w - 1 - x
	case Rotate180:
		x = b.w - 1 - x
		y = b.h - 1 - y
	case Rotate270:
		x, y = y, x
		y = b.h - 1 - y
	}
	return x, y, true
}

// SetPixel sets the pixel at logical (x, y). image1bit.On is light.
func (b *Buffer) SetPixel(x, y int, c image1bit.Bit) {
	x, y, ok := b.physical(x, y)
	if !ok {
		return
	}
	i := (y*b.w + x) / 8
	if c {
		b.Pix[i] |= setMask[x&7]
	} else {
		b.Pix[i] &= clrMask[x&7]
	}
}

// Pixel returns the pixel at logical (x, y).
func (b *Buffer) Pixel(x, y int) image1bit.Bit {
	x, y, ok := b.physical(x, y)
	if !ok {
		return image1bit.Off
	}
	return b.Pix[(y*b.w+x)/8]&setMask[x&7] != 0
}

// Clear sets every pixel to light, that is every bit to 1.
//
// Beware: this is the opposite of what "clear" means on most monochrome
// displays. A cleared memory LCD is white.
func (b *Buffer) Clear() {
	for i := range b.Pix {
		b.Pix[i] = 0xFF
	}
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements image.Image. Min is always {0, 0}.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width(), b.Height())
}

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	return b.Pixel(x, y)
}

// Set implements draw.Image.
func (b *Buffer) Set(x, y int, c color.Color) {
	b.SetPixel(x, y, image1bit.BitModel.Convert(c).(image1bit.Bit))
}

var _ Canvas = &Buffer{}
var _ draw.Image = &Buffer{}
