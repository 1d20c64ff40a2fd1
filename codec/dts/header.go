/*
NAME
  header.go

DESCRIPTION
  header.go implements the FrameHeaderDecoder: pure functions that decode
  Core and ExSS header fields from a normalized window to produce a
  StreamFormat together with the per-frame sample count and duration
  (spec.md §4.3). Per spec.md §9's design note on global mutable state,
  these functions hold no state of their own - everything they need comes
  in as an argument, and everything they produce comes back as a return
  value.

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
	"github.com/ausocean/dts/codec/dts/bits"
	"github.com/pkg/errors"
)

// minCoreHeaderBits is the minimum number of bits, after the 32-bit sync,
// required to decode a Core header (spec.md §4.3: "Require at least 55
// unread bits after the sync to parse").
const minCoreHeaderBits = 55

// DecodeCoreHeader normalizes a frame window (sync word included, in any of
// the recognized sync layouts), decodes its Core header fields, and returns the implied StreamFormat along
// with the frame's sample count and duration. language is carried through
// unmodified into the returned StreamFormat.
func DecodeCoreHeader(window []byte, language string) (StreamFormat, uint32, int64, error) {
	norm := normalize(window)
	c := bits.NewBitCursor(norm)

	if err := c.Skip(32); err != nil { // Sync word.
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: sync")
	}
	if c.BitsLeft() < minCoreHeaderBits {
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: insufficient bits")
	}

	if err := c.Skip(1 + 5 + 1); err != nil { // ftype, short, crc.
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: ftype/short/crc")
	}
	nblks, err := c.Read(7)
	if err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: nblks")
	}
	if _, err := c.Read(14); err != nil { // fsize, informational only.
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: fsize")
	}
	amode, err := c.Read(6)
	if err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: amode")
	}
	sfreq, err := c.Read(4)
	if err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: sfreq")
	}
	if err := c.Skip(5 + 1 + 1 + 1 + 1 + 1 + 3 + 1 + 1); err != nil { // rate/flags.
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: rate/flags")
	}
	lff, err := c.Read(2)
	if err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "core header: lff")
	}

	var channels uint32
	if int(amode) < len(channelTable) {
		channels = channelTable[amode]
	}
	if lff != 0 {
		channels++
	}

	sampleRate := coreSampleRateTable[sfreq]
	samples := (nblks + 1) * 32
	duration := frameDurationMicros(samples, sampleRate)

	return newStreamFormat(sampleRate, channels, samples, language), samples, duration, nil
}

// DecodeExssHeader normalizes a frame window (sync word included, in any of
// the recognized sync layouts), decodes its ExSS header fields, and returns the implied StreamFormat along
// with the frame's sample count and duration. language is carried through
// unmodified into the returned StreamFormat.
func DecodeExssHeader(window []byte, language string) (StreamFormat, uint32, int64, error) {
	norm := normalize(window)
	c := bits.NewBitCursor(norm)

	need := func(n int) error {
		if c.BitsLeft() < n {
			return ErrNotEnoughBits
		}
		return nil
	}

	if err := need(32); err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: sync")
	}
	c.Skip(32) // Sync word.

	if err := need(8 + 2 + 1); err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: index/size-type")
	}
	c.Skip(8) // user-defined
	extSSIndex, err := c.Read(2)
	if err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: ext_ss_index")
	}
	headerSizeType, err := c.Read(1)
	if err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: header_size_type")
	}

	var headerLenBits, frameSizeBits int
	if headerSizeType == 0 {
		headerLenBits, frameSizeBits = 8, 16
	} else {
		headerLenBits, frameSizeBits = 12, 20
	}

	if err := need(headerLenBits + frameSizeBits + 1); err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: header-length/frame-size/static-fields")
	}
	if _, err := c.Read(headerLenBits); err != nil { // header-length (+1), unused beyond parsing.
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: header-length")
	}
	if _, err := c.Read(frameSizeBits); err != nil { // frame-size (+1), unused beyond parsing.
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: frame-size")
	}
	staticFieldsPresent, err := c.Read(1)
	if err != nil {
		return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: static_fields_present")
	}

	var (
		samples           uint32
		sampleRate        uint32 = 48000
		channels          uint32 = 8
		numAssets         uint32
		effectiveDuration uint32
		refRate           uint32
	)

	if staticFieldsPresent == 1 {
		if err := need(2 + 3); err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: ref_clock/frame_duration")
		}
		refClockCode, err := c.Read(2)
		if err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: ref_clock_code")
		}
		frameDurationCode, err := c.Read(3)
		if err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: frame_duration_code")
		}
		if err := need(1); err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: timestamp flag")
		}
		hasTimestamp, err := c.Read(1)
		if err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: timestamp flag")
		}
		if hasTimestamp == 1 {
			if err := need(36); err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: timestamp")
			}
			c.Skip(36)
		}

		if err := need(3 + 3); err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: num_audio_present/num_assets")
		}
		numAudioPresent, err := c.Read(3)
		if err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: num_audio_present")
		}
		numAudioPresent++
		numAssetsField, err := c.Read(3)
		if err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: num_assets")
		}
		numAssets = numAssetsField + 1

		activeMaskBits := int(extSSIndex) + 1
		for i := uint32(0); i < numAudioPresent; i++ {
			if err := need(activeMaskBits); err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: active-substream mask")
			}
			mask, err := c.Read(activeMaskBits)
			if err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: active-substream mask")
			}
			for s := 0; s < activeMaskBits; s++ {
				if mask&(1<<uint(s)) == 0 {
					continue
				}
				if err := need(8); err != nil {
					return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: active-asset mask")
				}
				if _, err := c.Read(8); err != nil {
					return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: active-asset mask")
				}
			}
		}

		if err := need(1); err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: mix-metadata flag")
		}
		mixMetadataEnabled, err := c.Read(1)
		if err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: mix-metadata flag")
		}
		if mixMetadataEnabled == 1 {
			if err := need(2 + 2 + 2); err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: mix-metadata")
			}
			c.Skip(2)
			n, err := c.Read(2)
			if err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: mix-metadata n")
			}
			bitsPerOutMask := (n + 1) * 4
			k, err := c.Read(2)
			if err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: mix-metadata k")
			}
			numMixOutConfigs := k + 1
			for i := uint32(0); i < numMixOutConfigs; i++ {
				if err := need(int(bitsPerOutMask)); err != nil {
					return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: mix-out-mask")
				}
				c.Skip(int(bitsPerOutMask))
			}
		}

		// effective duration = 512 * (frame_duration_code + 1) samples at the
		// reference clock rate; this is scaled to the asset's actual sample
		// rate once that's decoded below (spec.md §4.3 "ExSS header decoding").
		effectiveDuration = 512 * (frameDurationCode + 1)
		refRate = refClockTable[refClockCode]

		if err := need(int(numAssets) * frameSizeBits); err != nil {
			return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: asset-fsize table")
		}
		c.Skip(int(numAssets) * frameSizeBits)

		for i := uint32(0); i < numAssets; i++ {
			if err := need(9 + 3); err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: asset descriptor size/index")
			}
			if _, err := c.Read(9); err != nil { // asset descriptor size (+1)
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: asset descriptor size")
			}
			if _, err := c.Read(3); err != nil { // asset index
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: asset index")
			}

			if err := need(1); err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: type_descr flag")
			}
			hasTypeDescr, err := c.Read(1)
			if err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: type_descr flag")
			}
			if hasTypeDescr == 1 {
				if err := need(4); err != nil {
					return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: type_descr")
				}
				c.Skip(4)
			}

			if err := need(1); err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: language_descr flag")
			}
			hasLanguageDescr, err := c.Read(1)
			if err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: language_descr flag")
			}
			if hasLanguageDescr == 1 {
				if err := need(24); err != nil {
					return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: language_descr")
				}
				c.Skip(24)
			}

			if err := need(1); err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: info_text flag")
			}
			hasInfoText, err := c.Read(1)
			if err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: info_text flag")
			}
			if hasInfoText == 1 {
				if err := need(10); err != nil {
					return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: info_text length")
				}
				textLen, err := c.Read(10)
				if err != nil {
					return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: info_text length")
				}
				textLen++
				nBits := int(textLen) * 8
				if err := need(nBits); err != nil {
					return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: info_text")
				}
				c.Skip(nBits)
			}

			if err := need(5 + 4 + 8); err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(err, "exss header: bit-resolution/sample-rate/channels")
			}
			c.Skip(5) // bit resolution
			srIdx, err := c.Read(4)
			if err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: sample-rate index")
			}
			sampleRate = exssSampleRateTable[srIdx]
			chField, err := c.Read(8)
			if err != nil {
				return StreamFormat{}, 0, 0, errors.Wrap(ErrNotEnoughBits, "exss header: channel count")
			}
			channels = chField + 1

			if refRate != 0 {
				samples = uint32(uint64(effectiveDuration) * uint64(sampleRate) / uint64(refRate))
			}

			// One active asset is assumed (spec.md §1 Non-goals); stop after
			// the first asset's fields have been decoded.
			break
		}
	}

	duration := frameDurationMicros(samples, sampleRate)
	return newStreamFormat(sampleRate, channels, samples, language), samples, duration, nil
}
