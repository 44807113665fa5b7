// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import "math/bits"

// lineAddr maps a 1-based gate line number to the byte put on the wire.
//
// The controller samples the address LSB first while the bus shifts MSB
// first, so the table holds the bit-reversed index. Line i of the buffer is
// sent as lineAddr[i+1].
var lineAddr = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = bits.Reverse8(uint8(i))
	}
	return t
}()

// maxLines is the tallest panel addressable with a one byte line address.
const maxLines = len(lineAddr) - 1
