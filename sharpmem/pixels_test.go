// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"errors"
	"image"
	"image/draw"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var rotations = []Rotation{NoRotation, Rotate90, Rotate180, Rotate270}

func newTestBuffer(t *testing.T, w, h int, r Rotation) *Buffer {
	t.Helper()
	b, err := NewBuffer(w, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetRotation(r); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNewBuffer(t *testing.T) {
	for _, tc := range []struct {
		name    string
		w, h    int
		wantLen int
		wantErr bool
	}{
		{name: "8x2", w: 8, h: 2, wantLen: 2},
		{name: "320x240", w: 320, h: 240, wantLen: 9600},
		{name: "tallest", w: 8, h: 255, wantLen: 255},
		{name: "zero width", w: 0, h: 10, wantErr: true},
		{name: "negative width", w: -8, h: 10, wantErr: true},
		{name: "unaligned width", w: 12, h: 10, wantErr: true},
		{name: "zero height", w: 8, h: 0, wantErr: true},
		{name: "too tall", w: 8, h: 256, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b, err := NewBuffer(tc.w, tc.h)
			if tc.wantErr {
				if !errors.Is(err, ErrSize) {
					t.Fatalf("NewBuffer(%d, %d) error = %v, want ErrSize", tc.w, tc.h, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(b.Pix) != tc.wantLen {
				t.Errorf("len(Pix) = %d, want %d", len(b.Pix), tc.wantLen)
			}
			for i, v := range b.Pix {
				if v != 0 {
					t.Fatalf("Pix[%d] = %#x, want 0", i, v)
				}
			}
		})
	}
}

func TestBufferSize(t *testing.T) {
	for _, tc := range []struct {
		rot        Rotation
		wantBounds image.Rectangle
	}{
		{NoRotation, image.Rect(0, 0, 16, 8)},
		{Rotate90, image.Rect(0, 0, 8, 16)},
		{Rotate180, image.Rect(0, 0, 16, 8)},
		{Rotate270, image.Rect(0, 0, 8, 16)},
	} {
		t.Run(tc.rot.String(), func(t *testing.T) {
			b := newTestBuffer(t, 16, 8, tc.rot)
			if diff := cmp.Diff(b.Bounds(), tc.wantBounds); diff != "" {
				t.Errorf("Bounds() difference (-got +want):\n%s", diff)
			}
			if b.Width() != tc.wantBounds.Dx() || b.Height() != tc.wantBounds.Dy() {
				t.Errorf("Width(), Height() = %d, %d", b.Width(), b.Height())
			}
			if b.Stride() != 2 {
				t.Errorf("Stride() = %d, want 2", b.Stride())
			}
		})
	}
}

func TestSetRotationInvalid(t *testing.T) {
	b := newTestBuffer(t, 8, 8, Rotate90)
	if err := b.SetRotation(4); !errors.Is(err, ErrRotation) {
		t.Errorf("SetRotation(4) = %v, want ErrRotation", err)
	}
	if b.Rotation() != Rotate90 {
		t.Errorf("Rotation() = %s after failed SetRotation", b.Rotation())
	}
}

func TestPhysical(t *testing.T) {
	// A 16x8 panel. Each case maps the logical origin and the point (1, 2).
	for _, tc := range []struct {
		rot        Rotation
		wantOrigin image.Point
		wantPoint  image.Point
	}{
		{NoRotation, image.Pt(0, 0), image.Pt(1, 2)},
		{Rotate90, image.Pt(15, 0), image.Pt(13, 1)},
		{Rotate180, image.Pt(15, 7), image.Pt(14, 5)},
		{Rotate270, image.Pt(0, 7), image.Pt(2, 6)},
	} {
		t.Run(tc.rot.String(), func(t *testing.T) {
			b := newTestBuffer(t, 16, 8, tc.rot)
			for _, c := range []struct{ in, want image.Point }{
				{image.Pt(0, 0), tc.wantOrigin},
				{image.Pt(1, 2), tc.wantPoint},
			} {
				x, y, ok := b.physical(c.in.X, c.in.Y)
				if !ok {
					t.Fatalf("physical(%v) out of range", c.in)
				}
				if diff := cmp.Diff(image.Pt(x, y), c.want); diff != "" {
					t.Errorf("physical(%v) difference (-got +want):\n%s", c.in, diff)
				}
			}
		})
	}
}

func TestPixelRoundTrip(t *testing.T) {
	for _, rot := range rotations {
		t.Run(rot.String(), func(t *testing.T) {
			b := newTestBuffer(t, 16, 8, rot)
			for y := 0; y < b.Height(); y++ {
				for x := 0; x < b.Width(); x++ {
					b.SetPixel(x, y, image1bit.On)
					if got := b.Pixel(x, y); got != image1bit.On {
						t.Fatalf("Pixel(%d, %d) = %v after On", x, y, got)
					}
					b.SetPixel(x, y, image1bit.Off)
					if got := b.Pixel(x, y); got != image1bit.Off {
						t.Fatalf("Pixel(%d, %d) = %v after Off", x, y, got)
					}
				}
			}
		})
	}
}

func TestSetPixelTouchesOneBit(t *testing.T) {
	b := newTestBuffer(t, 16, 8, NoRotation)
	b.SetPixel(9, 3, image1bit.On)
	want := make([]byte, len(b.Pix))
	// Line 3, second byte, bit 1.
	want[3*2+1] = 0x02
	if diff := cmp.Diff(b.Pix, want); diff != "" {
		t.Errorf("Pix difference (-got +want):\n%s", diff)
	}
}

func TestPixelOutOfRange(t *testing.T) {
	for _, rot := range rotations {
		t.Run(rot.String(), func(t *testing.T) {
			b := newTestBuffer(t, 16, 8, rot)
			b.Clear()
			b.SetPixel(2, 2, image1bit.Off)
			before := append([]byte(nil), b.Pix...)
			for _, p := range []image.Point{
				{-1, 0}, {0, -1}, {-1, -1},
				{b.Width(), 0}, {0, b.Height()},
				{b.Width(), b.Height()},
				{1000, 1000}, {-1000, 3},
			} {
				b.SetPixel(p.X, p.Y, image1bit.Off)
				b.Set(p.X, p.Y, image1bit.On)
				if got := b.Pixel(p.X, p.Y); got != image1bit.Off {
					t.Errorf("Pixel(%v) = %v, want Off", p, got)
				}
			}
			if diff := cmp.Diff(b.Pix, before); diff != "" {
				t.Errorf("Pix changed (-got +want):\n%s", diff)
			}
		})
	}
}

func TestPhysicalBijection(t *testing.T) {
	for _, rot := range rotations {
		t.Run(rot.String(), func(t *testing.T) {
			b := newTestBuffer(t, 24, 8, rot)
			seen := map[image.Point]image.Point{}
			for y := 0; y < b.Height(); y++ {
				for x := 0; x < b.Width(); x++ {
					px, py, ok := b.physical(x, y)
					if !ok {
						t.Fatalf("physical(%d, %d) out of range", x, y)
					}
					if px < 0 || px >= 24 || py < 0 || py >= 8 {
						t.Fatalf("physical(%d, %d) = (%d, %d) off the panel", x, y, px, py)
					}
					p := image.Pt(px, py)
					if prev, ok := seen[p]; ok {
						t.Fatalf("(%d, %d) and %v both map to %v", x, y, prev, p)
					}
					seen[p] = image.Pt(x, y)
				}
			}
			if len(seen) != 24*8 {
				t.Errorf("%d distinct pixels, want %d", len(seen), 24*8)
			}
		})
	}
}

func TestClear(t *testing.T) {
	for _, rot := range rotations {
		t.Run(rot.String(), func(t *testing.T) {
			b := newTestBuffer(t, 16, 8, rot)
			b.SetPixel(1, 1, image1bit.Off)
			b.Clear()
			for y := 0; y < b.Height(); y++ {
				for x := 0; x < b.Width(); x++ {
					if b.Pixel(x, y) != image1bit.On {
						t.Fatalf("Pixel(%d, %d) is Off after Clear", x, y)
					}
				}
			}
			for i, v := range b.Pix {
				if v != 0xFF {
					t.Fatalf("Pix[%d] = %#x after Clear, want 0xff", i, v)
				}
			}
		})
	}
}

func TestBufferDrawImage(t *testing.T) {
	b := newTestBuffer(t, 16, 8, Rotate90)
	r := image.Rect(1, 2, 4, 10)
	draw.Draw(b, r, &image.Uniform{image1bit.On}, image.Point{}, draw.Src)
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			want := image1bit.Bit(image.Pt(x, y).In(r))
			if got := b.At(x, y); got != want {
				t.Fatalf("At(%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRotationString(t *testing.T) {
	got := []string{NoRotation.String(), Rotate90.String(), Rotate180.String(), Rotate270.String(), Rotation(7).String()}
	want := []string{"0°", "90°", "180°", "270°", "Rotation(7)"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("String() difference (-got +want):\n%s", diff)
	}
}
