/*
NAME
  tables.go

DESCRIPTION
  tables.go provides the sync-word constants and fixed lookup tables used
  by the DTS header decoder and frame assembler.

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

// syncKind identifies which of the six DTS sync-word variants a 32-bit
// window matched.
type syncKind int

// The six recognized sync-word variants (spec.md §3 "SyncKind" and §6).
const (
	syncNone syncKind = iota
	syncCoreBE16
	syncCoreLE16
	syncCoreBE14
	syncCoreLE14
	syncExssBE16
	syncExssLE16
)

// Sync-word constants, 32-bit big-endian integer form (spec.md §6).
const (
	syncWordCoreBE16 uint32 = 0x7FFE8001
	syncWordCoreBE14 uint32 = 0x1FFFE800
	syncWordCoreLE16 uint32 = 0xFE7F0180
	syncWordCoreLE14 uint32 = 0xFF1F00E8
	syncWordExssBE16 uint32 = 0x64582025
	syncWordExssLE16 uint32 = 0x58642520
)

// classifySync returns the syncKind matching w, or syncNone if w matches
// none of the six sync words.
func classifySync(w uint32) syncKind {
	switch w {
	case syncWordCoreBE16:
		return syncCoreBE16
	case syncWordCoreLE16:
		return syncCoreLE16
	case syncWordCoreBE14:
		return syncCoreBE14
	case syncWordCoreLE14:
		return syncCoreLE14
	case syncWordExssBE16:
		return syncExssBE16
	case syncWordExssLE16:
		return syncExssLE16
	default:
		return syncNone
	}
}

// isCore reports whether k is one of the four Core sync kinds.
func (k syncKind) isCore() bool {
	switch k {
	case syncCoreBE16, syncCoreLE16, syncCoreBE14, syncCoreLE14:
		return true
	default:
		return false
	}
}

// isExss reports whether k is one of the two ExSS sync kinds.
func (k syncKind) isExss() bool {
	return k == syncExssBE16 || k == syncExssLE16
}

// sameEndianness reports whether k and other share the same byte order,
// used to decide whether a Core sync followed by an
// ExSS sync forms a CorePlusExss frame (spec.md §4.4).
func (k syncKind) sameEndianness(other syncKind) bool {
	be := func(s syncKind) bool { return s == syncCoreBE16 || s == syncCoreBE14 || s == syncExssBE16 }
	le := func(s syncKind) bool { return s == syncCoreLE16 || s == syncCoreLE14 || s == syncExssLE16 }
	return (be(k) && be(other)) || (le(k) && le(other))
}

// channelTable maps the Core amode field (0-9) to a channel count
// (spec.md §4.3).
var channelTable = [10]uint32{1, 2, 2, 2, 2, 3, 3, 4, 4, 5}

// coreSampleRateTable maps the Core sfreq field (0-15) to a sample rate in
// Hz, with 0 meaning "reserved/unused" (spec.md §4.3).
var coreSampleRateTable = [16]uint32{
	0, 8000, 16000, 32000, 0, 0, 11025, 22050,
	44100, 0, 0, 12000, 24000, 48000, 0, 0,
}

// exssSampleRateTable maps the ExSS asset sample-rate index (0-15) to a
// sample rate in Hz (spec.md §4.3 "ExSS header decoding").
var exssSampleRateTable = [16]uint32{
	8000, 16000, 32000, 64000, 128000, 22050, 44100, 88200,
	176400, 352800, 12000, 24000, 48000, 96000, 192000, 384000,
}

// refClockTable maps the ExSS ref_clock_code field (0-3) to a reference
// clock rate in Hz; index 3 is a sentinel "unused" value (spec.md §4.3).
var refClockTable = [4]uint32{32000, 44100, 48000, 1<<31 - 1}
