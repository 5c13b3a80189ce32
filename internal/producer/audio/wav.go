package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// Format describes interleaved little-endian PCM.
type Format struct {
	SampleRate  int
	Channels    int
	SampleWidth int
}

// FrameSize is the number of bytes in one sample across all channels.
func (f Format) FrameSize() int {
	return f.Channels * f.SampleWidth
}

// ByteRate is the number of PCM bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.FrameSize()
}

// TargetBytes returns the PCM size for seconds of audio, rounded to whole
// frames.
func (f Format) TargetBytes(seconds float64) int {
	frames := int(seconds*float64(f.SampleRate) + 0.5)
	return frames * f.FrameSize()
}

func (f Format) validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.SampleWidth <= 0 {
		return fmt.Errorf("invalid pcm format %d Hz, %d channels, %d bytes", f.SampleRate, f.Channels, f.SampleWidth)
	}
	return nil
}

// EncodeWAV wraps raw PCM in a canonical RIFF/WAVE container.
func EncodeWAV(pcm []byte, format Format) ([]byte, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	if len(pcm)%format.FrameSize() != 0 {
		return nil, fmt.Errorf("pcm length %d is not a multiple of frame size %d", len(pcm), format.FrameSize())
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + len(pcm)),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1), // PCM
		uint16(format.Channels),
		uint32(format.SampleRate),
		uint32(format.ByteRate()),
		uint16(format.FrameSize()),
		uint16(format.SampleWidth * 8),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(len(pcm)),
	}
	for _, field := range header {
		if err := binary.Write(buf, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("encode wav header: %w", err)
		}
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}
