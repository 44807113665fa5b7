// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sharpmem drives the monochrome Sharp memory LCDs (LS0xxB7 family)
// over SPI.
//
// The panel keeps its image without refresh, but it must see its VCOM level
// alternate regularly. Every transfer carries the current level and flips it
// once the transfer succeeded; use Dev.Hold or Dev.Maintain while the image
// is static.
//
// A full update is a single transaction:
//
//	0x80|VCOM, then for each line: address, W/8 pixel bytes, then 0x00
//
// Line addresses are 1-based and bit-reversed because the controller reads
// them LSB first. Pixel x of a line is bit x%8 of byte x/8, a set bit is
// white.
//
// Two delivery strategies exist, see Strategy. Both put the same bytes on
// the wire.
//
// The SCS line is active High, contrary to usual SPI devices, so the driver
// toggles it through a GPIO.
//
// # Datasheets
//
// LS027B7DH01: https://www.sharpsde.com/fileadmin/products/Displays/Specs/LS027B7DH01A_Rev1-0_Spec.pdf
//
// Application note: https://www.sharpsde.com/fileadmin/products/Displays/2016_SDE_App_Note_for_Memory_LCD_programming_V1.3.pdf
package sharpmem
