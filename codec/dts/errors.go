/*
NAME
  errors.go

DESCRIPTION
  errors.go provides the recoverable error kinds for DTS header decoding
  and frame assembly (spec.md §7).

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

import "errors"

// ErrNotEnoughBits is returned by header decoding when fewer bits than
// required remain in the normalized window. It is recoverable: for a Core
// header the assembler drops the frame and resumes sync-word search
// (spec.md §7); for an ExSS header it falls back to the 48000Hz/8ch default
// format and still emits the frame (spec.md §4.3).
var ErrNotEnoughBits = errors.New("dts: not enough bits to decode header")

// ErrBufferOverflow is the recoverable error raised when the frame buffer
// exceeds MaxFrameSize without a closing sync word (spec.md §7).
var ErrBufferOverflow = errors.New("dts: frame buffer overflow")

// ErrExssAccumulatorOverflow is the recoverable error raised when more than
// four ext_ss_index values have accumulated without resolving a standalone
// ExSS frame boundary (spec.md §7).
var ErrExssAccumulatorOverflow = errors.New("dts: exss accumulator overflow")

// ErrUnexpectedSyncTransition is the recoverable error raised when a Core
// sync word appears while the assembler is reading a standalone ExSS
// stream, or when subsequent-sync search finds a Core sync that differs
// from first_sync (spec.md §7).
var ErrUnexpectedSyncTransition = errors.New("dts: unexpected sync transition")
