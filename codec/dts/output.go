/*
NAME
  output.go

DESCRIPTION
  output.go defines the narrow Output interface that FrameAssembler
  dispatches format announcements and frame data to, and the Source
  interface FrameAssembler exposes to its upstream caller (spec.md §4.5).

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

// SyncFlag marks sample_metadata calls that correspond to a sync frame.
// Every frame this package emits is a sync frame, so this is always set,
// but it's carried as a named type to keep the Output contract explicit
// about what flags mean.
type SyncFlag uint32

// SyncFrame is the only flag value FrameAssembler ever emits.
const SyncFrame SyncFlag = 1

// Output is the narrow capability set FrameAssembler dispatches to. It
// mirrors the one-method-per-concern shape of codec/pcm's AudioFilter
// interface, widened to three methods because a format announcement is
// distinct from payload and metadata delivery.
type Output interface {
	// AnnounceFormat is called at most once per FrameAssembler lifetime,
	// with the StreamFormat derived from the first successfully parsed
	// frame.
	AnnounceFormat(format StreamFormat)

	// SampleData appends payload bytes for the frame currently being
	// emitted.
	SampleData(data []byte)

	// SampleMetadata finalizes the frame currently being emitted. ptsMicros
	// is the frame's presentation timestamp in microseconds; size is the
	// number of bytes passed to the preceding SampleData call(s); offset is
	// always 0 for this parser, which emits each frame as a single
	// SampleData/SampleMetadata pair.
	SampleMetadata(ptsMicros int64, flags SyncFlag, size int, offset int)
}

// Source is the upstream interface a container demuxer drives a
// FrameAssembler through (spec.md §4.5). PacketStarted and Consume are
// called for every packet the demuxer hands off; PacketFinished is a
// no-op hook retained for symmetry with the upstream contract; Seek resets
// assembler state between packets.
type Source interface {
	// PacketStarted sets the current presentation timestamp (microseconds)
	// and ignores flags, which are accepted only for interface symmetry
	// with typical demuxer packet callbacks.
	PacketStarted(ptsMicros int64, flags int)

	// Consume drives the frame-assembly state machine with the next chunk
	// of input bytes. It returns once chunk is exhausted.
	Consume(chunk []byte)

	// PacketFinished is a no-op.
	PacketFinished()

	// Seek resets assembler state and the frame buffer, preserving the
	// Output binding and configured language (spec.md §3).
	Seek()
}
