/*
NAME
  dts.go

DESCRIPTION
  dts.go provides the package documentation and the StreamFormat value type
  for the DTS elementary stream parser.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package dts provides a streaming parser for a DTS (Digital Theater
// Systems) elementary audio bitstream. It recognizes the legacy Core
// substream (16-bit big/little-endian and 14-bit big/little-endian packed)
// and the Extension Substream (ExSS), reassembles frames that may span
// arbitrary input chunks, decodes each frame's header to derive an audio
// format, and dispatches frame payloads with presentation timestamps to an
// Output collaborator.
//
// Decoding DTS audio to PCM is out of scope; this package only parses the
// elementary stream's framing and header metadata.
package dts

// CodecTag is the private codec tag carried on an announced StreamFormat.
const CodecTag = "dtsc"

// MIMEType is the MIME type associated with a DTS elementary stream.
const MIMEType = "audio/vnd.dts"

// MaxFrameSize is the largest frame this parser will accumulate before
// treating the input as malformed and resynchronizing.
const MaxFrameSize = 32768

// StreamFormat is an immutable description of a DTS elementary stream,
// derived from the first successfully parsed frame. Once announced to an
// Output it is never mutated; this package announces it at most once per
// FrameAssembler lifetime, matching the source behaviour described in
// spec.md §9 ("cross-frame sample-rate changes are not reflected in a new
// format announcement").
type StreamFormat struct {
	// SampleRateHz is the audio sample rate in Hz, typically 8000-192000.
	SampleRateHz uint32

	// ChannelCount is the number of audio channels, 1-8.
	ChannelCount uint32

	// SampleCountPerFrame is the number of PCM samples per channel that one
	// frame of this format represents.
	SampleCountPerFrame uint32

	// CodecTag is always CodecTag ("dtsc").
	CodecTag string

	// MaxFrameSize is always MaxFrameSize.
	MaxFrameSize uint32

	// Language is an opaque language tag carried through from the
	// FrameAssembler's construction; it is not derived from the bitstream.
	Language string
}

// newStreamFormat builds the announced StreamFormat from decoded fields,
// applying the normalization rules of spec.md §4.3.
func newStreamFormat(sampleRateHz, channelCount, samples uint32, language string) StreamFormat {
	sampleRateHz, channelCount = normalizeFormatFields(sampleRateHz, channelCount)
	return StreamFormat{
		SampleRateHz:        sampleRateHz,
		ChannelCount:        channelCount,
		SampleCountPerFrame: samples,
		CodecTag:            CodecTag,
		MaxFrameSize:        MaxFrameSize,
		Language:            language,
	}
}

// normalizeFormatFields applies the clamp/normalize rules from spec.md
// §4.3 "Normalization of derived values".
func normalizeFormatFields(sampleRateHz, channelCount uint32) (uint32, uint32) {
	switch {
	case channelCount == 0, channelCount > 2 && channelCount < 6:
		channelCount = 6
	case channelCount > 6 && channelCount != 8:
		channelCount = 8
	}
	if sampleRateHz == 0 {
		sampleRateHz = 48000
	}
	return sampleRateHz, channelCount
}

// frameDurationMicros returns the duration of a frame of samples samples at
// sampleRateHz Hz, in microseconds, using integer arithmetic with no
// rounding per spec.md §4.3.
func frameDurationMicros(samples, sampleRateHz uint32) int64 {
	if sampleRateHz == 0 {
		return 0
	}
	return int64(samples) * 1_000_000 / int64(sampleRateHz)
}
