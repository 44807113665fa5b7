// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// renderScene draws the demo picture: a rounded frame around text and two
// rows of dots and squares. Black on white.
func renderScene(w, h int, text string) (image.Image, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	size := float64(h) / 10
	if size < 8 {
		size = 8
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size})
	defer face.Close()

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(face)
	dc.SetLineWidth(2)

	padding := float64(h) / 30
	tw, th := dc.MeasureString(text)
	dc.DrawRoundedRectangle(padding*2, padding*2, tw+padding*2, th+padding*2, padding)
	dc.Stroke()
	dc.DrawString(text, padding*3, padding*3+th)

	y := padding*6 + th*2
	step := float64(w) / 12
	for i := 1; i < 11; i++ {
		dc.DrawCircle(step*float64(i), y, step/4)
	}
	for i := 1; i < 11; i++ {
		dc.DrawRectangle(step*float64(i)-step/4, y+step, step/2, step/2)
	}
	dc.Fill()
	return dc.Image(), nil
}
