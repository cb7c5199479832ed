package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

var (
	// ErrAlreadyPlaying is returned when Play is called during another playback.
	ErrAlreadyPlaying = errors.New("already playing")
	// ErrUnsupportedBitDepth is returned for PCM the player cannot convert.
	ErrUnsupportedBitDepth = errors.New("playback supports 16-bit PCM only")
)

// Player plays a complete WAV stream and blocks until playback ends.
type Player interface {
	Play(ctx context.Context, wav []byte) error
}

// PortAudioPlayer plays audio through the default output device.
type PortAudioPlayer struct {
	mu      sync.Mutex
	playing bool
}

// NewPortAudioPlayer creates a player for the default output device.
func NewPortAudioPlayer() *PortAudioPlayer {
	return &PortAudioPlayer{}
}

// Play decodes wav and writes it to the output device. Cancelling ctx stops playback
// at the next buffer boundary.
func (p *PortAudioPlayer) Play(ctx context.Context, wav []byte) error {
	format, pcm, err := ParseWAV(wav)
	if err != nil {
		return fmt.Errorf("failed to parse WAV: %w", err)
	}

	samples, err := pcm16ToFloat32(format, pcm)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()

		return ErrAlreadyPlaying
	}

	p.playing = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
	}()

	return p.stream(ctx, samples, format)
}

func (p *PortAudioPlayer) stream(ctx context.Context, samples []float32, format Format) error {
	err := portaudio.Initialize()
	if err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	buffer := make([]float32, framesPerBuffer*format.Channels)

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), framesPerBuffer, &buffer)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	err = stream.Start()
	if err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for position := 0; position < len(samples); position += len(buffer) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("playback interrupted: %w", ctxErr)
		}

		copied := copy(buffer, samples[position:])
		clear(buffer[copied:])

		err = stream.Write()
		if err != nil {
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}

	return nil
}

// pcm16ToFloat32 converts interleaved little-endian 16-bit samples to [-1, 1).
func pcm16ToFloat32(format Format, pcm []byte) ([]float32, error) {
	if format.BitDepth != BIT_DEPTH_16 {
		return nil, fmt.Errorf("%w: got %d-bit", ErrUnsupportedBitDepth, format.BitDepth)
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}

	return samples, nil
}
