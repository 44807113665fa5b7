// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package memlcd is a container for the Sharp memory LCD driver and its
// tooling.
//
// See package sharpmem for the driver, sharpmem/sharpmemtest for a panel
// emulator and screen2d for a terminal preview.
package memlcd
