package buzzer

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder accumulates the tone timeline of a run and writes it as a mono 16 bits WAV.
// Audio data is buffered in memory in its entirety.
type Recorder struct {
	sampleRate int
	wave       *SquareWave
	data       []int
	pending    int64 // Sub sample remainder, in ns*samples/s.
}

func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{
		sampleRate: sampleRate,
		wave:       NewSquareWave(sampleRate),
	}
}

// Record appends d worth of samples, the tone when on, silence otherwise.
func (r *Recorder) Record(d time.Duration, on bool) {
	if d <= 0 {
		return
	}
	r.pending += int64(d) * int64(r.sampleRate)
	n := r.pending / int64(time.Second)
	r.pending -= n * int64(time.Second)
	for range n {
		v := 0
		if on {
			v = int(r.wave.Next() * math.MaxInt16)
		}
		r.data = append(r.data, v)
	}
}

// Samples returns the number of recorded samples.
func (r *Recorder) Samples() int { return len(r.data) }

// Duration returns the recorded time.
func (r *Recorder) Duration() time.Duration {
	return time.Duration(len(r.data)) * time.Second / time.Duration(r.sampleRate)
}

// WriteTo encodes the recording.
func (r *Recorder) WriteTo(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, r.sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: r.sampleRate},
		Data:           r.data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav close: %w", err)
	}
	return nil
}

// WriteFile encodes the recording to the named file.
func (r *Recorder) WriteFile(name string) (rerr error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("close wav: %w", err)
		}
	}()
	return r.WriteTo(f)
}
