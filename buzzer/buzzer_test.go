package buzzer

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/go-cmp/cmp"
)

func TestSquareWave(t *testing.T) {
	t.Parallel()

	// 4 samples per period.
	w := NewSquareWave(4 * Frequency)
	out := make([]float64, 8)
	w.Fill(out)

	want := []float64{Volume, Volume, Volume, -Volume, Volume, Volume, Volume, -Volume}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("Unexpected samples (-want +got):\n%s", diff)
	}
}

func TestSquareWaveFrequency(t *testing.T) {
	t.Parallel()

	// Count the rising edges over one second.
	w := NewSquareWave(SampleRate)
	prev := w.Next()
	edges := 0
	for range SampleRate - 1 {
		v := w.Next()
		if prev < 0 && v > 0 {
			edges++
		}
		prev = v
	}
	if edges < Frequency-1 || edges > Frequency {
		t.Fatalf("Unexpected frequency: %d edges.", edges)
	}
}

func TestStream(t *testing.T) {
	t.Parallel()

	s := NewStream(SampleRate)

	buf := make([]byte, 4*16+3)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read: %s.", err)
	}
	if n != 4*16 {
		t.Fatalf("Unexpected read size: %d.", n)
	}
	for i, b := range buf[:n] {
		if b != 0 {
			t.Fatalf("Expected silence, got 0x%02X at %d.", b, i)
		}
	}

	s.SetOn(true)
	if !s.On() {
		t.Fatal("Expected stream on.")
	}
	if _, err := s.Read(buf); err != nil {
		t.Fatalf("Read: %s.", err)
	}
	vol := Volume
	want := int16(vol * math.MaxInt16)
	for i := 0; i < n; i += 4 {
		l := int16(binary.LittleEndian.Uint16(buf[i:]))
		r := int16(binary.LittleEndian.Uint16(buf[i+2:]))
		if l != r {
			t.Fatalf("Channels differ at frame %d: %d != %d.", i/4, l, r)
		}
		if l != want && l != -want {
			t.Fatalf("Unexpected sample at frame %d: %d.", i/4, l)
		}
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder(SampleRate)
	for range 4 {
		r.Record(time.Second/4, true)
	}
	r.Record(time.Second/2, false)
	r.Record(0, true)

	if got, want := r.Samples(), SampleRate+SampleRate/2; got != want {
		t.Fatalf("Unexpected sample count.\nGot:\t%d\nWant:\t%d", got, want)
	}
	if got := r.Duration(); got != 1500*time.Millisecond {
		t.Fatalf("Unexpected duration: %s.", got)
	}

	p := filepath.Join(t.TempDir(), "tone.wav")
	if err := r.WriteFile(p); err != nil {
		t.Fatalf("WriteFile: %s.", err)
	}

	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("Invalid wav file.")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %s.", err)
	}
	if dec.SampleRate != SampleRate || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Fatalf("Unexpected format: %d Hz, %d channels, %d bits.", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != r.Samples() {
		t.Fatalf("Unexpected decoded length: %d.", len(buf.Data))
	}
	if buf.Data[0] == 0 {
		t.Error("Expected tone at the start.")
	}
	if buf.Data[len(buf.Data)-1] != 0 {
		t.Error("Expected silence at the end.")
	}
}
