/*
NAME
  normalize.go

DESCRIPTION
  normalize.go implements the HeaderNormalizer: it takes a byte window
  whose first four bytes match one of the six DTS sync constants and
  returns a canonical 16-bit big-endian view suitable for direct bit
  extraction (spec.md §4.2).

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package dts

// normalize returns buf in canonical 16-bit big-endian layout. It performs
// up to two transforms (a byte swap, then a 14-bit repack), applied in the
// order spec.md §4.2 prescribes:
//
//  1. If buf's first byte already matches the 16-bit big-endian Core sync,
//     buf is canonical already and is returned unchanged.
//  2. If buf's first byte matches a little-endian marker (16-bit Core LE,
//     14-bit Core LE, or ExSS 16-bit LE), every adjacent pair of bytes is
//     byte-swapped.
//  3. After the possible swap, if the (possibly new) first byte matches the
//     14-bit big-endian Core sync, the buffer is re-packed: each 16-bit
//     word's top two bits are discarded and the remaining 14-bit groups
//     are concatenated into a dense bit stream, re-materialized as bytes.
//
// normalize allocates at most one scratch copy, the size of buf.
func normalize(buf []byte) []byte {
	if len(buf) == 0 {
		return buf
	}

	if buf[0] == byte(syncWordCoreBE16>>24) {
		return buf
	}

	out := buf
	if isLittleEndianMarker(buf[0]) {
		if len(buf) > 1 && buf[1] == byte(syncWordCoreBE14>>24) {
			// Little-endian 14-bit: read each word byte-swapped while
			// repacking, so only the repacked output is allocated.
			nWords := len(buf) / 2
			packed := make([]byte, (nWords*14+7)/8)
			for w := 0; w < nWords; w++ {
				word := uint32(buf[2*w+1])<<8 | uint32(buf[2*w])
				writeBits(packed, w*14, word&0x3FFF, 14)
			}
			return packed
		}
		out = swapPairs(buf)
	}

	if len(out) > 0 && out[0] == byte(syncWordCoreBE14>>24) {
		out = repack14(out)
	}

	return out
}

// isLittleEndianMarker reports whether b is the first byte of one of the
// three little-endian sync words.
func isLittleEndianMarker(b byte) bool {
	switch b {
	case byte(syncWordCoreLE16 >> 24), byte(syncWordCoreLE14 >> 24), byte(syncWordExssLE16 >> 24):
		return true
	default:
		return false
	}
}

// swapPairs returns a copy of buf with every adjacent pair of bytes
// swapped. If buf has an odd length the final byte is left in place.
func swapPairs(buf []byte) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	for i := 0; i+1 < len(out); i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}

// repack14 treats buf as a sequence of 16-bit big-endian words whose top
// two bits are padding, discards those two bits from each word, and
// concatenates the remaining 14-bit groups into a dense, byte-aligned
// stream. Any trailing bits that don't fill a whole output byte are
// zero-padded. A trailing odd byte (if buf has odd length) is dropped, as
// it cannot form a complete 16-bit word.
func repack14(buf []byte) []byte {
	nWords := len(buf) / 2
	totalBits := nWords * 14
	out := make([]byte, (totalBits+7)/8)

	var bitPos int
	for w := 0; w < nWords; w++ {
		word := uint32(buf[2*w])<<8 | uint32(buf[2*w+1])
		bits14 := word & 0x3FFF
		writeBits(out, bitPos, bits14, 14)
		bitPos += 14
	}
	return out
}

// writeBits writes the low n bits of v into dst MSB-first, starting at bit
// offset pos from the start of dst.
func writeBits(dst []byte, pos int, v uint32, n int) {
	for i := 0; i < n; i++ {
		bit := (v >> uint(n-1-i)) & 1
		bytePos := (pos + i) / 8
		bitOff := (pos + i) % 8
		if bit == 1 {
			dst[bytePos] |= 1 << uint(7-bitOff)
		}
	}
}
