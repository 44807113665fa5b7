// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sharpmem

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLineAddrInvolution(t *testing.T) {
	for i := range lineAddr {
		if got := lineAddr[lineAddr[i]]; got != byte(i) {
			t.Errorf("lineAddr[lineAddr[%d]] = %d, want %d", i, got, i)
		}
	}
}

func TestLineAddrValues(t *testing.T) {
	// Leading entries of the table as published for these panels.
	want := []byte{
		0, 128, 64, 192, 32, 160, 96, 224, 16, 144, 80, 208, 48, 176, 112,
		240, 8, 136, 72, 200, 40, 168, 104, 232, 24, 152, 88, 216, 56, 184,
		120, 248, 4, 132,
	}
	if diff := cmp.Diff(lineAddr[:len(want)], want); diff != "" {
		t.Errorf("lineAddr difference (-got +want):\n%s", diff)
	}
	if lineAddr[1] != 128 || lineAddr[128] != 1 {
		t.Errorf("lineAddr[1] = %d, lineAddr[128] = %d", lineAddr[1], lineAddr[128])
	}
	if lineAddr[255] != 255 {
		t.Errorf("lineAddr[255] = %d", lineAddr[255])
	}
}
