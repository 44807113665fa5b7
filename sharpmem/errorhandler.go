// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"periph.io/x/conn/v3/gpio"
)

// errorHandler sequences pin and bus operations, skipping every step after
// the first failure.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) csOut(l gpio.Level) {
	if eh.err != nil || eh.d.cs == nil {
		return
	}
	eh.err = eh.d.cs.Out(l)
}

func (eh *errorHandler) dispOut(l gpio.Level) {
	if eh.err != nil || eh.d.disp == nil {
		return
	}
	eh.err = eh.d.disp.Out(l)
}

// send implements sender.
func (eh *errorHandler) send(p []byte) error {
	if eh.err != nil {
		return eh.err
	}
	eh.err = eh.d.c.Tx(p, nil)
	return eh.err
}

// release deasserts chip select regardless of earlier failures.
func (eh *errorHandler) release() {
	if eh.d.cs == nil {
		return
	}
	if err := eh.d.cs.Out(gpio.Low); err != nil && eh.err == nil {
		eh.err = err
	}
}
