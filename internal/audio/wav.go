// Package audio validates rendered waveforms and plays them back.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Supported bit depths.
const (
	BIT_DEPTH_8  = 8
	BIT_DEPTH_16 = 16
	BIT_DEPTH_24 = 24
	BIT_DEPTH_32 = 32
)

// Validation limits.
const (
	MAX_SAMPLE_RATE = 192000
	MAX_CHANNELS    = 8
)

// RIFF layout.
const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	fmtChunkMinSize = 16
	pcmFormatTag    = 1
)

// Error formats.
const (
	ERR_FMT_SAMPLE_RATE_RANGE = "%w: sample rate must be between 1 and %d Hz, got %d"
	ERR_FMT_BIT_DEPTH_VALUES  = "%w: bit depth must be 8, 16, 24, or 32, got %d"
	ERR_FMT_CHANNELS_RANGE    = "%w: channels must be between 1 and %d, got %d"
)

var (
	// ErrInvalidFormat is returned for WAV parameters outside the supported range.
	ErrInvalidFormat = errors.New("invalid audio format")
	// ErrNotWAV is returned when data is not a RIFF/WAVE stream.
	ErrNotWAV = errors.New("not a valid WAV stream")
	// ErrMissingChunk is returned when the fmt or data chunk is absent.
	ErrMissingChunk = errors.New("missing required WAV chunks")
	// ErrUnsupportedEncoding is returned for non-PCM WAV data.
	ErrUnsupportedEncoding = errors.New("unsupported WAV encoding")
)

// Format describes the PCM layout of a waveform.
type Format struct {
	SampleRate int
	BitDepth   int
	Channels   int
}

// Validate checks that the format is within supported bounds.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.SampleRate > MAX_SAMPLE_RATE {
		return fmt.Errorf(ERR_FMT_SAMPLE_RATE_RANGE, ErrInvalidFormat, MAX_SAMPLE_RATE, f.SampleRate)
	}

	switch f.BitDepth {
	case BIT_DEPTH_8, BIT_DEPTH_16, BIT_DEPTH_24, BIT_DEPTH_32:
	default:
		return fmt.Errorf(ERR_FMT_BIT_DEPTH_VALUES, ErrInvalidFormat, f.BitDepth)
	}

	if f.Channels <= 0 || f.Channels > MAX_CHANNELS {
		return fmt.Errorf(ERR_FMT_CHANNELS_RANGE, ErrInvalidFormat, MAX_CHANNELS, f.Channels)
	}

	return nil
}

// ParseWAV reads the fmt and data chunks of a PCM WAV stream.
// The returned PCM slice aliases data.
func ParseWAV(data []byte) (Format, []byte, error) {
	if len(data) < riffHeaderSize+chunkHeaderSize {
		return Format{}, nil, fmt.Errorf("%w: %d bytes", ErrNotWAV, len(data))
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Format{}, nil, ErrNotWAV
	}

	var (
		format   Format
		haveFmt  bool
		pcm      []byte
		haveData bool
	)

	pos := riffHeaderSize
	for pos+chunkHeaderSize <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + chunkHeaderSize
		end := min(body+chunkSize, len(data))

		switch chunkID {
		case "fmt ":
			if end-body < fmtChunkMinSize {
				return Format{}, nil, fmt.Errorf("%w: fmt chunk too small", ErrNotWAV)
			}

			if tag := binary.LittleEndian.Uint16(data[body : body+2]); tag != pcmFormatTag {
				return Format{}, nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedEncoding, tag)
			}

			format.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			format.BitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body:end]
			haveData = true
		}

		pos = body + chunkSize
		if chunkSize%2 != 0 {
			pos++
		}
	}

	if !haveFmt || !haveData {
		return Format{}, nil, ErrMissingChunk
	}

	err := format.Validate()
	if err != nil {
		return Format{}, nil, err
	}

	return format, pcm, nil
}
