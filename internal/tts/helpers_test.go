package tts_test

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/require"
)

// buildWAV creates a mono 16-bit PCM WAV stream.
func buildWAV(pcm []byte) []byte {
	const sampleRate = 22050

	data := make([]byte, 0, 44+len(pcm))
	data = append(data, "RIFF"...)
	data = binary.LittleEndian.AppendUint32(data, uint32(36+len(pcm)))
	data = append(data, "WAVEfmt "...)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint32(data, sampleRate)
	data = binary.LittleEndian.AppendUint32(data, sampleRate*2)
	data = binary.LittleEndian.AppendUint16(data, 2)
	data = binary.LittleEndian.AppendUint16(data, 16)
	data = append(data, "data"...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(pcm)))

	return append(data, pcm...)
}

// writeFile creates a file with content inside dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// writeExecutable creates a script the engine can run as its renderer binary.
func writeExecutable(path, script string) error {
	// #nosec G306 -- test renderer must be executable
	return os.WriteFile(path, []byte(script), 0o700)
}

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "tts-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	return log
}

// fakePlayer records the audio handed to it.
type fakePlayer struct {
	played []byte
	err    error
}

func (p *fakePlayer) Play(_ context.Context, wav []byte) error {
	p.played = wav

	return p.err
}
