/*
NAME
  bitcursor.go

DESCRIPTION
  bitcursor.go provides a seekable bit cursor over a fixed byte slice.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package bits provides a bit cursor that reads unsigned integers MSB-first
// from a fixed byte slice, with a movable bit position.
package bits

import "errors"

// ErrNotEnoughBits is returned when a read or skip would advance the cursor
// past the end of the underlying slice.
var ErrNotEnoughBits = errors.New("bits: not enough bits remaining")

// BitCursor reads N-bit unsigned integers from a byte slice with a movable
// bit position. All reads are MSB-first. A BitCursor does no allocation
// after construction and is safe to reuse via SetPosition.
type BitCursor struct {
	buf []byte
	pos int // Current bit position from the start of buf.
}

// NewBitCursor returns a BitCursor over buf, positioned at bit 0.
func NewBitCursor(buf []byte) *BitCursor {
	return &BitCursor{buf: buf}
}

// BitsLeft returns the number of unread bits remaining in the underlying
// slice.
func (c *BitCursor) BitsLeft() int {
	return len(c.buf)*8 - c.pos
}

// Position returns the current bit position from the start of the
// underlying slice.
func (c *BitCursor) Position() int {
	return c.pos
}

// SetPosition moves the cursor to bit position p, measured from the start
// of the underlying slice. p is not range-checked here; an out-of-range
// position will surface as ErrNotEnoughBits on the next Read or Skip.
func (c *BitCursor) SetPosition(p int) {
	c.pos = p
}

// Skip advances the cursor by n bits without reading them. It fails with
// ErrNotEnoughBits if that would move the cursor past the end of buf,
// leaving the position unchanged.
func (c *BitCursor) Skip(n int) error {
	if n < 0 || n > c.BitsLeft() {
		return ErrNotEnoughBits
	}
	c.pos += n
	return nil
}

// Read returns the next n bits (1 <= n <= 32) MSB-first as an unsigned
// integer, and advances the cursor by n bits. Reads that would run past the
// end of buf fail with ErrNotEnoughBits and leave the position unchanged.
func (c *BitCursor) Read(n int) (uint32, error) {
	if n < 1 || n > 32 {
		return 0, errors.New("bits: n must be between 1 and 32")
	}
	if n > c.BitsLeft() {
		return 0, ErrNotEnoughBits
	}

	var result uint32
	remaining := n
	pos := c.pos
	for remaining > 0 {
		byteIdx := pos / 8
		bitOff := pos % 8 // Offset from the MSB of the byte.
		avail := 8 - bitOff
		take := avail
		if take > remaining {
			take = remaining
		}

		b := c.buf[byteIdx]
		// Shift so that the "take" bits we want sit in the low bits, masked.
		shift := avail - take
		chunk := (b >> uint(shift)) & ((1 << uint(take)) - 1)

		result = (result << uint(take)) | uint32(chunk)
		pos += take
		remaining -= take
	}

	c.pos += n
	return result, nil
}
