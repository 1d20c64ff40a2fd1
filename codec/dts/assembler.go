/*
NAME
  assembler.go

DESCRIPTION
  assembler.go implements FrameAssembler, the chunked state machine that
  ingests byte chunks from a container demuxer, locates DTS sync words,
  accumulates a full frame in a bounded buffer, decodes the first frame's
  header to announce a StreamFormat, and dispatches (payload, timestamp)
  pairs to an Output (spec.md §4.4).

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

	"github.com/ausocean/utils/logging"
)

// assemblerState is the FrameAssembler's state machine position
// (spec.md §3 "AssemblerState").
type assemblerState int

const (
	stateFindingFirstSync assemblerState = iota
	stateFindingSubsequentSync
	stateCheckingExssHeader
	stateReadingExss
	stateCopyingFrame
)

// frameKind classifies the frame currently being assembled, derived from
// the pair of consecutive syncs that bound it (spec.md §3 "FrameKind").
type frameKind int

const (
	kindUndetermined frameKind = iota
	kindStandaloneCore
	kindStandaloneExss
	kindCorePlusExss
)

// maxExssCount is the accumulated ext_ss_index count above which the
// stream is considered malformed (spec.md §6 "Limits").
const maxExssCount = 4

// FrameAssembler is a streaming state machine that ingests chunks,
// locates sync words, accumulates a full frame in a bounded buffer, and
// emits (payload, timestamp) pairs to an Output. One FrameAssembler is
// owned by a single caller; it keeps no state shared with any other
// instance (spec.md §5 "Shared decoder results between separate readers
// is not a requirement").
type FrameAssembler struct {
	out      Output
	log      logging.Logger
	language string

	state    assemblerState
	shiftReg uint32

	buf    [MaxFrameSize]byte
	bufPos int

	firstSync syncKind
	lastSync  syncKind
	kind      frameKind

	exssIDs  [maxExssCount]uint8
	exssCount int

	exssScratch    [6]byte
	exssScratchPos int

	currentPTS int64

	formatAnnounced  bool
	cachedDurationUs int64
}

// NewFrameAssembler returns a FrameAssembler that dispatches to out and
// logs recoverable errors via log. language is carried through unmodified
// into the StreamFormat announced on the first successfully parsed frame.
func NewFrameAssembler(out Output, log logging.Logger, language string) *FrameAssembler {
	return &FrameAssembler{out: out, log: log, language: language}
}

// PacketStarted sets the current presentation timestamp. flags is accepted
// only for interface symmetry with a typical demuxer packet callback and
// is otherwise unused.
func (a *FrameAssembler) PacketStarted(ptsMicros int64, flags int) {
	a.currentPTS = ptsMicros
}

// PacketFinished is a no-op (spec.md §4.5).
func (a *FrameAssembler) PacketFinished() {}

// Seek resets assembler state and the frame buffer, preserving the Output
// binding and configured language (spec.md §3). Whether the format has been
// announced, and the frame duration derived with it, are also kept, so the
// format is still announced at most once.
func (a *FrameAssembler) Seek() {
	out, log, language := a.out, a.log, a.language
	announced, durationUs := a.formatAnnounced, a.cachedDurationUs
	*a = FrameAssembler{out: out, log: log, language: language, formatAnnounced: announced, cachedDurationUs: durationUs}
}

// Consume drives the state machine with the next chunk of input bytes.
// It returns once chunk is exhausted; Consume never blocks, and apart from
// decoding the first frame's header (and logging) it performs no allocation
// (spec.md §5).
func (a *FrameAssembler) Consume(chunk []byte) {
	for _, b := range chunk {
		a.consumeByte(b)
	}
	// A sync word detected on the chunk's final byte leaves CopyingFrame
	// pending with nothing left to retry it against; flush it now rather
	// than deferring the already-fully-determined frame boundary to the
	// next chunk.
	if a.state == stateCopyingFrame {
		a.completeFrame()
		a.state = stateFindingSubsequentSync
	}
}

// consumeByte drives one input byte through the state machine, retrying
// against the new state whenever a transition resolves without using the
// byte (e.g. the ExSS-boundary short-circuit in ReadingExss, or the
// instantaneous CopyingFrame action).
func (a *FrameAssembler) consumeByte(b byte) {
	for {
		if a.step(b) {
			return
		}
	}
}

// step processes b against the current state. It returns true if b was
// consumed (the caller should move on to the next input byte), or false if
// the state transitioned without using b (the caller should retry the same
// byte against the new state).
func (a *FrameAssembler) step(b byte) bool {
	switch a.state {
	case stateFindingFirstSync:
		return a.stepFindingFirstSync(b)
	case stateFindingSubsequentSync:
		return a.stepFindingSubsequentSync(b)
	case stateCheckingExssHeader:
		return a.stepCheckingExssHeader(b)
	case stateReadingExss:
		return a.stepReadingExss(b)
	case stateCopyingFrame:
		a.completeFrame()
		a.state = stateFindingSubsequentSync
		return false
	default:
		return true
	}
}

func (a *FrameAssembler) stepFindingFirstSync(b byte) bool {
	a.shiftReg = a.shiftReg<<8 | uint32(b)
	k := classifySync(a.shiftReg)
	if k == syncNone {
		return true
	}

	a.firstSync = k
	a.lastSync = k
	a.resetBuffer()
	a.appendSyncWord()
	a.exssCount = 0
	a.exssScratchPos = 0

	if k.isExss() {
		a.kind = kindStandaloneExss
		a.state = stateCheckingExssHeader
	} else {
		a.kind = kindUndetermined
		a.state = stateFindingSubsequentSync
	}
	if a.log != nil {
		a.log.Debug("dts: sync found", "kind", int(k))
	}
	return true
}

func (a *FrameAssembler) stepFindingSubsequentSync(b byte) bool {
	if !a.appendByte(b) {
		return true // Overflow handled and state reset inside appendByte.
	}
	a.shiftReg = a.shiftReg<<8 | uint32(b)
	k := classifySync(a.shiftReg)
	if k == syncNone {
		return true
	}
	a.lastSync = k

	switch {
	case k.isExss() && a.firstSync.isCore() && a.firstSync.sameEndianness(k):
		a.kind = kindCorePlusExss
		a.exssScratchPos = 0
		a.state = stateCheckingExssHeader
	case k.isExss():
		// An ExSS sync with no matching-endianness Core first_sync: this is
		// a standalone-ExSS stream re-entering subsequent-sync search after
		// its previous frame closed (spec.md §4.4 reseed), not a
		// Core-plus-extension pair.
		a.kind = kindStandaloneExss
		a.exssScratchPos = 0
		a.state = stateCheckingExssHeader
	case k == a.firstSync:
		a.kind = kindStandaloneCore
		a.state = stateCopyingFrame
	default:
		if a.log != nil {
			a.log.Warning("dts: unexpected sync transition", "err", ErrUnexpectedSyncTransition.Error())
		}
		a.recoverWithNewFirstSync(k)
	}
	return true
}

func (a *FrameAssembler) stepCheckingExssHeader(b byte) bool {
	if !a.appendByte(b) {
		return true
	}
	a.exssScratch[a.exssScratchPos] = b
	a.exssScratchPos++
	if a.exssScratchPos < len(a.exssScratch) {
		return true
	}

	if a.lastSync == syncExssBE16 {
		idx := extSSIndexFromScratch(a.exssScratch)
		if a.exssCount < maxExssCount {
			a.exssIDs[a.exssCount] = idx
		}
		a.exssCount++
		if a.exssCount > maxExssCount {
			if a.log != nil {
				a.log.Warning("dts: exss accumulator overflow", "err", ErrExssAccumulatorOverflow.Error())
			}
			a.resetFully()
			return true
		}
	}

	a.state = stateReadingExss
	return true
}

func (a *FrameAssembler) stepReadingExss(b byte) bool {
	if a.kind == kindStandaloneExss && a.exssCount >= 2 && a.exssIDs[a.exssCount-1] == a.exssIDs[0] {
		lastIdx := a.exssIDs[a.exssCount-1]
		a.exssCount = 1
		a.exssIDs[0] = lastIdx
		a.state = stateCopyingFrame
		return false // b not yet consumed; retry under CopyingFrame.
	}

	if !a.appendByte(b) {
		return true
	}
	a.shiftReg = a.shiftReg<<8 | uint32(b)
	k := classifySync(a.shiftReg)
	if k == syncNone {
		return true
	}
	a.lastSync = k

	switch a.kind {
	case kindCorePlusExss:
		if k.isCore() {
			a.exssCount = 0
			a.state = stateCopyingFrame
		} else {
			a.state = stateCheckingExssHeader
			a.exssScratchPos = 0
		}
	case kindStandaloneExss:
		if k.isExss() {
			a.state = stateCheckingExssHeader
			a.exssScratchPos = 0
		} else {
			if a.log != nil {
				a.log.Warning("dts: unexpected sync transition", "err", ErrUnexpectedSyncTransition.Error())
			}
			a.recoverWithNewFirstSync(k)
		}
	}
	return true
}

// extSSIndexFromScratch extracts the ext_ss_index field (bits [8..10] of
// the six-byte ExSS header scratch window, i.e. the first two bits after
// the 8-bit user-defined field) from a big-endian ExSS header window.
func extSSIndexFromScratch(window [6]byte) uint8 {
	return (window[1] >> 6) & 0x3
}

// appendByte appends b to the frame buffer, enforcing MaxFrameSize. It
// returns false (and resets the assembler fully, logging a warning) if the
// buffer would overflow; the byte that triggered the overflow is dropped.
func (a *FrameAssembler) appendByte(b byte) bool {
	if a.bufPos >= MaxFrameSize {
		if a.log != nil {
			a.log.Warning("dts: frame buffer overflow", "err", ErrBufferOverflow.Error())
		}
		a.resetFully()
		return false
	}
	a.buf[a.bufPos] = b
	a.bufPos++
	return true
}

// appendSyncWord writes the four bytes of the current shift register
// (the just-detected sync word, oldest byte first) into a freshly cleared
// frame buffer.
func (a *FrameAssembler) appendSyncWord() {
	a.buf[0] = byte(a.shiftReg >> 24)
	a.buf[1] = byte(a.shiftReg >> 16)
	a.buf[2] = byte(a.shiftReg >> 8)
	a.buf[3] = byte(a.shiftReg)
	a.bufPos = 4
}

// resetBuffer clears the frame buffer's append position without touching
// its contents.
func (a *FrameAssembler) resetBuffer() {
	a.bufPos = 0
}

// resetFully resets all assembler state back to FindingFirstSync,
// discarding any partially-accumulated frame (spec.md §7: BufferOverflow
// and ExssAccumulatorOverflow are recovered this way).
func (a *FrameAssembler) resetFully() {
	a.state = stateFindingFirstSync
	a.shiftReg = 0
	a.bufPos = 0
	a.firstSync = syncNone
	a.lastSync = syncNone
	a.kind = kindUndetermined
	a.exssCount = 0
	a.exssScratchPos = 0
}

// recoverWithNewFirstSync handles UnexpectedSyncTransition recovery: the
// buffer is reseeded with just the newly matched sync's bytes and the
// assembler resumes subsequent-sync search, recording first_sync as the
// sync that caused the error - faithfully reproducing the source behaviour
// noted in spec.md §9.
func (a *FrameAssembler) recoverWithNewFirstSync(k syncKind) {
	a.appendSyncWord()
	a.firstSync = k
	a.lastSync = k
	a.kind = kindUndetermined
	a.exssCount = 0
	a.exssScratchPos = 0
	a.state = stateFindingSubsequentSync
}

// completeFrame computes the just-closed frame's size, decodes its header
// on the first successful frame only (caching the derived sample duration
// for every later frame, matching the source's single header-parse
// behaviour noted in spec.md §9), emits the frame to Output, and reseeds
// the buffer with the bytes of the sync that closed it.
func (a *FrameAssembler) completeFrame() {
	var frameSize int
	if a.kind == kindStandaloneExss {
		frameSize = a.bufPos - (4 + 6)
	} else {
		frameSize = a.bufPos - 4
	}
	if frameSize <= 0 {
		a.reseedAfterFrame(0)
		return
	}

	if !a.formatAnnounced {
		var (
			format   StreamFormat
			duration int64
			err      error
		)
		if a.kind == kindStandaloneExss {
			format, _, duration, err = DecodeExssHeader(a.buf[:frameSize], a.language)
			if err != nil && errors.Is(err, ErrNotEnoughBits) {
				// ExSS NotEnoughBits is a soft failure (spec.md §4.3): fall
				// back to the default 48000Hz/8ch asset rather than
				// dropping the frame.
				if a.log != nil {
					a.log.Warning("dts: exss header short, falling back to defaults", "err", err.Error())
				}
				format = newStreamFormat(48000, 8, 0, a.language)
				duration = 0
				err = nil
			}
		} else {
			format, _, duration, err = DecodeCoreHeader(a.buf[:frameSize], a.language)
		}
		if err != nil {
			if a.log != nil {
				a.log.Warning("dts: dropping frame, header decode failed", "err", err.Error())
			}
			a.recoverFromDecodeFailure(frameSize)
			return
		}
		a.formatAnnounced = true
		a.cachedDurationUs = duration
		a.out.AnnounceFormat(format)
	}

	a.out.SampleData(a.buf[:frameSize])
	a.out.SampleMetadata(a.currentPTS, SyncFrame, frameSize, 0)
	a.currentPTS += a.cachedDurationUs

	a.reseedAfterFrame(frameSize)
}

// recoverFromDecodeFailure handles the CopyingFrame decoder-failure
// recovery path of spec.md §4.4: reposition the buffer to hold just the
// already-captured next sync (and, for StandaloneExss, its six header
// bytes), record first_sync as that next sync, and resume subsequent-sync
// search without emitting a frame.
func (a *FrameAssembler) recoverFromDecodeFailure(frameSize int) {
	a.reseedAfterFrame(frameSize)
}

// reseedAfterFrame moves the bytes of the next sync (and, for
// StandaloneExss, its six captured header bytes) from the end of the frame
// buffer to the start, ready for subsequent-sync search to resume.
func (a *FrameAssembler) reseedAfterFrame(frameSize int) {
	tail := a.buf[frameSize:a.bufPos]
	var scratch [4 + 6]byte
	n := copy(scratch[:], tail)
	a.resetBuffer()
	for i := 0; i < n; i++ {
		a.buf[i] = scratch[i]
	}
	a.bufPos = n
	a.firstSync = a.lastSync
	a.state = stateFindingSubsequentSync
}
