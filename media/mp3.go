package media

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always yields 16-bit little-endian stereo.
const mp3BytesPerFrame = 4

type mp3Streamer struct {
	d   *mp3.Decoder
	buf []byte
	eof bool
	err error
}

func openMP3(f *os.File) (*Clip, error) {
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	length := 0
	if n := d.Length(); n > 0 {
		length = int(n / mp3BytesPerFrame)
	}
	return &Clip{
		Streamer: &mp3Streamer{d: d},
		Format: beep.Format{
			SampleRate:  beep.SampleRate(d.SampleRate()),
			NumChannels: 2,
			Precision:   2,
		},
		Length: length,
		closer: f,
	}, nil
}

func (m *mp3Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	if m.eof || m.err != nil {
		return 0, false
	}

	need := len(samples) * mp3BytesPerFrame
	if cap(m.buf) < need {
		m.buf = make([]byte, need)
	}
	buf := m.buf[:need]

	read, err := io.ReadFull(m.d, buf)
	frames := read / mp3BytesPerFrame
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(buf[i*mp3BytesPerFrame:]))
		right := int16(binary.LittleEndian.Uint16(buf[i*mp3BytesPerFrame+2:]))
		samples[i][0] = float64(left) / 32768
		samples[i][1] = float64(right) / 32768
	}

	if err != nil {
		m.eof = true
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			m.err = err
		}
	}
	return frames, frames > 0
}

func (m *mp3Streamer) Err() error {
	return m.err
}
