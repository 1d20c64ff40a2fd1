/*
NAME
  normalize_test.go

DESCRIPTION
  normalize_test.go tests the byte-swap and 14-bit repack transforms that
  normalize applies (spec.md §4.2).

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

import (
	"bytes"
	"testing"
)

func TestSwapPairs(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"even length", []byte{0xFE, 0x7F, 0x01, 0x80}, []byte{0x7F, 0xFE, 0x80, 0x01}},
		{"odd length leaves last byte", []byte{0xFE, 0x7F, 0x01}, []byte{0x7F, 0xFE, 0x01}},
		{"empty", []byte{}, []byte{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := swapPairs(c.in)
			if !bytes.Equal(got, c.want) {
				t.Fatalf("swapPairs(%x) = %x, want %x", c.in, got, c.want)
			}
		})
	}
}

// packAs14 is the test-only inverse of repack14: it chops data's bits
// (MSB-first, zero-padded past the end) into 14-bit groups and stores each
// group as the low 14 bits of a big-endian 16-bit word, simulating how a
// real 14-bit-packed DTS substream widens a dense bitstream into 16-bit
// wire containers.
func packAs14(data []byte) []byte {
	totalBits := len(data) * 8
	nWords := (totalBits + 13) / 14
	out := make([]byte, nWords*2)
	for w := 0; w < nWords; w++ {
		v := readBitsAt(data, w*14, 14)
		out[2*w] = byte(v >> 8)
		out[2*w+1] = byte(v)
	}
	return out
}

// readBitsAt reads n bits (MSB-first) from data starting at bit offset pos,
// treating any bit past the end of data as 0.
func readBitsAt(data []byte, pos, n int) uint32 {
	var result uint32
	for i := 0; i < n; i++ {
		bitIndex := pos + i
		var bit uint32
		if bitIndex < len(data)*8 {
			byteIdx := bitIndex / 8
			bitOff := bitIndex % 8
			bit = uint32((data[byteIdx] >> uint(7-bitOff)) & 1)
		}
		result = result<<1 | bit
	}
	return result
}

func TestRepack14RoundTrip(t *testing.T) {
	original := []byte{0x7F, 0xFE, 0x80, 0x01, 0xAB, 0xCD, 0xEF, 0x12}
	wire := packAs14(original)

	got := repack14(wire)

	if len(got) < len(original) {
		t.Fatalf("repack14 output too short: got %d bytes, want at least %d", len(got), len(original))
	}
	if !bytes.Equal(got[:len(original)], original) {
		t.Fatalf("repack14 round trip = %x, want %x", got[:len(original)], original)
	}
}

func TestNormalizeBE16Unchanged(t *testing.T) {
	buf := []byte{0x7F, 0xFE, 0x80, 0x01, 0x12, 0x34}
	got := normalize(buf)
	if !bytes.Equal(got, buf) {
		t.Fatalf("normalize(BE16) = %x, want unchanged %x", got, buf)
	}
}

func TestNormalizeLE16SwapsPairs(t *testing.T) {
	buf := []byte{0xFE, 0x7F, 0x01, 0x80, 0x34, 0x12}
	want := []byte{0x7F, 0xFE, 0x80, 0x01, 0x12, 0x34}
	got := normalize(buf)
	if !bytes.Equal(got, want) {
		t.Fatalf("normalize(LE16) = %x, want %x", got, want)
	}
}

func TestNormalizeBE14Repacks(t *testing.T) {
	original := []byte{0x7F, 0xFE, 0x80, 0x01, 0xAB, 0xCD}
	wire := packAs14(original)
	wire[0] = byte(syncWordCoreBE14 >> 24) // Force the BE14 marker byte normalize() dispatches on.

	got := normalize(wire)
	if len(got) < len(original) {
		t.Fatalf("normalize(BE14) output too short: got %d bytes, want at least %d", len(got), len(original))
	}
	if !bytes.Equal(got[:len(original)], original) {
		t.Fatalf("normalize(BE14) = %x, want %x", got[:len(original)], original)
	}
}

func TestNormalizeLE14SwapsThenRepacks(t *testing.T) {
	original := []byte{0x7F, 0xFE, 0x80, 0x01, 0xAB, 0xCD}
	wire := swapPairs(packAs14(original)) // Little-endian 14-bit wire order.
	wire[0] = byte(syncWordCoreLE14 >> 24)

	swappedFirst := normalize(wire)
	directFirst := repack14(swapPairs(wire))
	if !bytes.Equal(swappedFirst, directFirst) {
		t.Fatalf("normalize(LE14) = %x, want %x", swappedFirst, directFirst)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	got := normalize(nil)
	if len(got) != 0 {
		t.Fatalf("normalize(nil) = %x, want empty", got)
	}
}
