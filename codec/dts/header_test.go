/*
NAME
  header_test.go

DESCRIPTION
  header_test.go tests Core and ExSS header decoding against hand-built
  bitstreams covering the worked scenarios of spec.md §8.

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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// bitWriter accumulates MSB-first bits into a growable byte buffer, for
// building test bitstreams without hand-assembling hex literals.
type bitWriter struct {
	buf    []byte
	nbits  int
}

func (w *bitWriter) write(v uint32, n int) {
	for i := 0; i < n; i++ {
		bit := (v >> uint(n-1-i)) & 1
		byteIdx := w.nbits / 8
		for byteIdx >= len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		if bit == 1 {
			w.buf[byteIdx] |= 1 << uint(7-(w.nbits%8))
		}
		w.nbits++
	}
}

func (w *bitWriter) bytes() []byte { return w.buf }

// stereoCoreHeaderBits builds a minimal, well-formed Core header bitstream
// describing 48kHz stereo audio with nblks=7 (256 samples per frame).
func stereoCoreHeaderBits() []byte {
	w := &bitWriter{}
	w.write(syncWordCoreBE16, 32)
	w.write(1, 1) // ftype
	w.write(0, 5) // short
	w.write(0, 1) // crc
	w.write(7, 7) // nblks -> samples = (7+1)*32 = 256
	w.write(100, 14) // fsize, informational
	w.write(2, 6)  // amode -> channelTable[2] = 2
	w.write(13, 4) // sfreq -> 48000
	w.write(0, 5+1+1+1+1+1+3+1+1) // rate/flags, arbitrary
	w.write(0, 2)  // lff
	return w.bytes()
}

func TestDecodeCoreHeaderStereo48kHz(t *testing.T) {
	format, samples, duration, err := DecodeCoreHeader(stereoCoreHeaderBits(), "eng")
	if err != nil {
		t.Fatalf("DecodeCoreHeader: %v", err)
	}
	want := StreamFormat{
		SampleRateHz:        48000,
		ChannelCount:        2,
		SampleCountPerFrame: 256,
		CodecTag:            CodecTag,
		MaxFrameSize:        MaxFrameSize,
		Language:            "eng",
	}
	if diff := cmp.Diff(want, format); diff != "" {
		t.Errorf("DecodeCoreHeader format mismatch (-want +got):\n%s", diff)
	}
	if samples != 256 {
		t.Errorf("samples = %d, want 256", samples)
	}
	wantDuration := int64(256) * 1_000_000 / 48000
	if duration != wantDuration {
		t.Errorf("duration = %d, want %d", duration, wantDuration)
	}
}

func TestDecodeCoreHeaderNotEnoughBits(t *testing.T) {
	_, _, _, err := DecodeCoreHeader([]byte{0x7F, 0xFE, 0x80, 0x01, 0x00}, "")
	if err == nil {
		t.Fatal("expected error for truncated core header, got nil")
	}
}

// TestDecodeExssHeaderNotEnoughBits checks that a truncated ExSS header
// surfaces ErrNotEnoughBits, the soft-failure kind the assembler falls
// back on rather than dropping the frame (spec.md §4.3).
func TestDecodeExssHeaderNotEnoughBits(t *testing.T) {
	truncated := exssHeaderBits()[:8]
	_, _, _, err := DecodeExssHeader(truncated, "")
	if !errors.Is(err, ErrNotEnoughBits) {
		t.Fatalf("DecodeExssHeader(truncated) error = %v, want ErrNotEnoughBits", err)
	}
}

// exssHeaderBits builds a minimal, well-formed standalone ExSS header
// bitstream: one audio-present mask entry with no active asset byte, one
// asset descriptor at 48kHz/6-channel, ext_ss_index 0 (spec.md §8
// scenario 2).
func exssHeaderBits() []byte {
	w := &bitWriter{}
	w.write(syncWordExssBE16, 32)
	w.write(0, 8) // user-defined
	w.write(0, 2) // ext_ss_index
	w.write(0, 1) // header_size_type = 0 -> header 8 bits, frame-size 16 bits
	w.write(10, 8)
	w.write(500, 16)
	w.write(1, 1) // static_fields_present
	w.write(2, 2) // ref_clock_code -> 48000
	w.write(3, 3) // frame_duration_code
	w.write(0, 1) // no timestamp
	w.write(0, 3) // num_audio_present - 1 -> 1
	w.write(0, 3) // num_assets - 1 -> 1
	w.write(0, 1) // active-substream mask (1 bit, since ext_ss_index+1=1), no active asset
	w.write(0, 1) // mix_metadata_enabled
	w.write(500, 16) // asset-fsize table entry
	w.write(100, 9)  // asset descriptor size
	w.write(0, 3)    // asset index
	w.write(0, 1)    // hasTypeDescr
	w.write(0, 1)    // hasLanguageDescr
	w.write(0, 1)    // hasInfoText
	w.write(15, 5)   // bit resolution
	w.write(12, 4)   // sample-rate index -> 48000
	w.write(5, 8)    // channel count field -> channels = 6
	return w.bytes()
}

func TestDecodeExssHeaderScenario(t *testing.T) {
	format, samples, duration, err := DecodeExssHeader(exssHeaderBits(), "")
	if err != nil {
		t.Fatalf("DecodeExssHeader: %v", err)
	}
	if format.SampleRateHz != 48000 {
		t.Errorf("SampleRateHz = %d, want 48000", format.SampleRateHz)
	}
	if format.ChannelCount != 6 {
		t.Errorf("ChannelCount = %d, want 6", format.ChannelCount)
	}
	if samples != 2048 {
		t.Errorf("samples = %d, want 2048", samples)
	}
	if duration != 42666 {
		t.Errorf("duration = %d, want 42666", duration)
	}
}

func TestNormalizeFormatFieldsClampsChannels(t *testing.T) {
	sr, ch := normalizeFormatFields(0, 0)
	if sr != 48000 || ch != 6 {
		t.Errorf("normalizeFormatFields(0,0) = (%d,%d), want (48000,6)", sr, ch)
	}
	sr, ch = normalizeFormatFields(44100, 3)
	if ch != 6 {
		t.Errorf("normalizeFormatFields(_,3) channels = %d, want 6", ch)
	}
	sr, ch = normalizeFormatFields(44100, 7)
	if ch != 8 {
		t.Errorf("normalizeFormatFields(_,7) channels = %d, want 8", ch)
	}
}
