package audio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/gopxl/beep"
)

// pcmReader renders a beep stream as interleaved signed 16-bit little-endian
// samples for oto
type pcmReader struct {
	s        beep.Streamer
	channels int
	buf      [][2]float64
	pending  []byte
	done     bool
}

func newPCMReader(s beep.Streamer, channels int) *pcmReader {
	return &pcmReader{
		s:        s,
		channels: channels,
		buf:      make([][2]float64, 512),
	}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}
		n, ok := r.s.Stream(r.buf)
		if !ok {
			r.done = true
		}
		r.pending = r.encode(r.buf[:n])
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *pcmReader) encode(samples [][2]float64) []byte {
	out := make([]byte, 0, len(samples)*r.channels*2)
	for _, s := range samples {
		for c := 0; c < r.channels; c++ {
			out = binary.LittleEndian.AppendUint16(out, uint16(toInt16(s[c])))
		}
	}
	return out
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(v * math.MaxInt16)
}
