// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sharpmem draws a demo picture on a Sharp memory LCD.
//
// With -term, no hardware is used: the frames are decoded by an emulated
// panel and shown in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/memlcd/screen2d"
	"github.com/GermanBionicSystems/memlcd/sharpmem"
	"github.com/GermanBionicSystems/memlcd/sharpmem/sharpmemtest"
)

func pinByName(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("invalid pin %q", name)
	}
	return p, nil
}

// openTerm returns an emulated panel that mirrors every frame to the
// terminal.
func openTerm(w, h, scale int) (spi.PortCloser, gpio.PinOut, func() error, error) {
	scr, err := screen2d.New(&screen2d.Opts{W: w, H: h, Scale: scale})
	if err != nil {
		return nil, nil, nil, err
	}
	panel := sharpmemtest.NewPanel(w, h)
	panel.OnUpdate = func(img *image.Gray) {
		if err := scr.Draw(scr.Bounds(), img, image.Point{}); err != nil {
			log.Printf("screen2d: %v", err)
		}
	}
	done := func() error {
		if err := panel.Err(); err != nil {
			return err
		}
		log.Printf("%s: %d frames, %d transactions", panel, panel.Frames(), len(panel.Transactions()))
		return scr.Halt()
	}
	return panel, panel.CS(), done, nil
}

func mainImpl() error {
	spiID := flag.String("spi", "", "SPI port to use")
	csName := flag.String("cs", "GPIO8", "SCS pin (active High); empty to use the port's chip select")
	dispName := flag.String("disp", "", "DISP pin; empty when tied High")
	w := flag.Int("w", sharpmem.DefaultOpts.W, "panel width in pixels")
	h := flag.Int("h", sharpmem.DefaultOpts.H, "panel height in pixels")
	rot := flag.Int("rotation", 0, "rotation, in quarter turns clockwise")
	var freq physic.Frequency
	flag.Var(&freq, "freq", "SPI clock, defaults to 4MHz")
	streaming := flag.Bool("streaming", false, "send one transfer per line instead of one per frame")
	term := flag.Bool("term", false, "emulate the panel in the terminal instead of using hardware")
	scale := flag.Int("scale", 4, "with -term, keep one pixel out of scale")
	text := flag.String("text", "Hello from periph!", "text to draw")
	hold := flag.Duration("hold", 5*time.Second, "how long to keep the picture before halting")
	period := flag.Duration("period", 500*time.Millisecond, "VCOM toggle period while holding")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	opts := sharpmem.Opts{W: *w, H: *h, Rotation: sharpmem.Rotation(*rot), Freq: freq}
	if *streaming {
		opts.Strategy = sharpmem.Streaming
	}

	var p spi.PortCloser
	var cs, disp gpio.PinOut
	done := func() error { return nil }
	if *term {
		var err error
		if p, cs, done, err = openTerm(*w, *h, *scale); err != nil {
			return err
		}
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		var err error
		if p, err = spireg.Open(*spiID); err != nil {
			return err
		}
		if cs, err = pinByName(*csName); err != nil {
			return err
		}
		if disp, err = pinByName(*dispName); err != nil {
			return err
		}
	}
	defer p.Close()

	dev, err := sharpmem.New(p, cs, disp, &opts)
	if err != nil {
		return err
	}
	log.Printf("%s", dev)

	b := dev.Bounds()
	img, err := renderScene(b.Dx(), b.Dy(), *text)
	if err != nil {
		return err
	}
	dev.ClearBuffer()
	draw1bit(dev, img)
	status := font.Drawer{
		Dst:  dev,
		Src:  &image.Uniform{image1bit.Off},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, b.Dy()-4),
	}
	status.DrawString(fmt.Sprintf("%dx%d %s", b.Dx(), b.Dy(), dev.Rotation()))
	if err := dev.Refresh(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancel2 := context.WithTimeout(ctx, *hold)
	defer cancel2()
	if err := dev.Maintain(ctx, *period); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := dev.Halt(); err != nil {
		return err
	}
	return done()
}

// draw1bit copies img into the device buffer without sending it.
func draw1bit(dev *sharpmem.Dev, img image.Image) {
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dev.Set(x-r.Min.X, y-r.Min.Y, img.At(x, y))
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "sharpmem: %s.\n", err)
		os.Exit(1)
	}
}
