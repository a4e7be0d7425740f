// Package buzzer generates the tone played while the sound timer is running.
package buzzer

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// Tone.
const (
	SampleRate = 44100
	Frequency  = 440
	Volume     = 0.25
)

// SquareWave is a phase continuous square wave generator.
type SquareWave struct {
	phaseInc float64
	phase    float64
	volume   float64
}

func NewSquareWave(sampleRate int) *SquareWave {
	return &SquareWave{
		phaseInc: Frequency / float64(sampleRate),
		volume:   Volume,
	}
}

// Next returns the next sample, in [-1, 1].
func (w *SquareWave) Next() float64 {
	v := w.volume
	if w.phase > 0.5 {
		v = -v
	}
	w.phase = math.Mod(w.phase+w.phaseInc, 1)
	return v
}

// Fill writes the next len(out) samples.
func (w *SquareWave) Fill(out []float64) {
	for i := range out {
		out[i] = w.Next()
	}
}

// Stream is an endless signed 16 bits little endian stereo PCM stream,
// silent unless on. It is safe to toggle from another goroutine than the reader's.
type Stream struct {
	wave *SquareWave
	on   atomic.Bool
}

// Bytes per stereo frame.
const frameSize = 4

func NewStream(sampleRate int) *Stream {
	return &Stream{wave: NewSquareWave(sampleRate)}
}

func (s *Stream) SetOn(on bool) { s.on.Store(on) }

func (s *Stream) On() bool { return s.on.Load() }

// Read implements io.Reader. It never ends and only fills whole frames.
func (s *Stream) Read(p []byte) (int, error) {
	n := len(p) / frameSize * frameSize
	on := s.on.Load()
	for i := 0; i < n; i += frameSize {
		var v int16
		if on {
			v = int16(s.wave.Next() * math.MaxInt16)
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(v))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(v))
	}
	return n, nil
}
