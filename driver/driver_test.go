package driver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.creack.net/chip8/vm"
)

type fakeMachine struct {
	steps   int
	elapsed []time.Duration
	haltAt  int // Step returns false on this step, 0 never halts.
}

func (m *fakeMachine) Step(elapsed time.Duration) bool {
	m.steps++
	m.elapsed = append(m.elapsed, elapsed)
	return m.haltAt == 0 || m.steps < m.haltAt
}

func (m *fakeMachine) total() time.Duration {
	var out time.Duration
	for _, e := range m.elapsed {
		out += e
	}
	return out
}

func TestFixedFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		freq   int
		frames []time.Duration
		steps  int
		total  time.Duration
	}{
		{name: "one_second", freq: 540, frames: []time.Duration{time.Second}, steps: 540, total: time.Second},
		{name: "split_second", freq: 540, frames: []time.Duration{time.Second / 4, time.Second / 4, time.Second / 2}, steps: 540, total: time.Second},
		{name: "sub_cycle_frames", freq: 10, frames: []time.Duration{60 * time.Millisecond, 60 * time.Millisecond}, steps: 1, total: 100 * time.Millisecond},
		{name: "two_seconds_odd_freq", freq: 7, frames: []time.Duration{time.Second, time.Second}, steps: 14, total: 2 * time.Second},
		{name: "zero_frame", freq: 540, frames: []time.Duration{0, -time.Second}, steps: 0, total: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &fakeMachine{}
			f, err := NewFixed(m, tt.freq)
			if err != nil {
				t.Fatalf("NewFixed: %s.", err)
			}
			for _, frame := range tt.frames {
				if !f.Frame(frame) {
					t.Fatal("Unexpected halt.")
				}
			}
			if m.steps != tt.steps {
				t.Errorf("Unexpected step count.\nGot:\t%d\nWant:\t%d", m.steps, tt.steps)
			}
			if got := f.Cycles(); got != uint64(tt.steps) {
				t.Errorf("Unexpected cycles: %d.", got)
			}
			if got := m.total(); got != tt.total {
				t.Errorf("Unexpected emulated time.\nGot:\t%s\nWant:\t%s", got, tt.total)
			}
		})
	}
}

func TestFixedHalt(t *testing.T) {
	t.Parallel()

	m := &fakeMachine{haltAt: 3}
	f, err := NewFixed(m, 540)
	if err != nil {
		t.Fatal(err)
	}
	if f.Frame(time.Second) {
		t.Fatal("Expected halt.")
	}
	if !f.Halted() {
		t.Fatal("Expected halted state.")
	}
	if f.Frame(time.Second) {
		t.Fatal("Expected halt to stick.")
	}
	if m.steps != 3 {
		t.Fatalf("Unexpected steps after halt: %d.", m.steps)
	}
}

func TestFixedFrequency(t *testing.T) {
	t.Parallel()

	for _, freq := range []int{0, -1} {
		if _, err := NewFixed(&fakeMachine{}, freq); !errors.Is(err, ErrFrequency) {
			t.Errorf("Unexpected error for %d: %v.", freq, err)
		}
	}
	if err := (&RealTime{Machine: &fakeMachine{}}).Run(context.Background()); !errors.Is(err, ErrFrequency) {
		t.Errorf("Unexpected error: %v.", err)
	}
}

// Timers must decay at 60Hz of emulated time whatever the frequency.
func TestFixedTimers(t *testing.T) {
	t.Parallel()

	rom := []byte{
		0x60, 0xFF, // ld v0, 0xFF
		0xF0, 0x15, // ld dt, v0
		0x12, 0x04, // jp 0x204
	}
	for _, freq := range []int{540, 1000, 2000} {
		c, err := vm.NewFromROM(rom, 0x200, nil)
		if err != nil {
			t.Fatal(err)
		}
		f, err := NewFixed(c, freq)
		if err != nil {
			t.Fatal(err)
		}
		for range 60 {
			f.Frame(time.Second / 60)
		}
		// Frames of 1/60s sum to slightly less than a second.
		f.Frame(time.Second - 60*(time.Second/60))

		// 60 ticks, all after the load.
		if got := c.DT(); got != 0xC3 {
			t.Errorf("[%d] Unexpected delay timer.\nGot:\t0x%02X\nWant:\t0xC3", freq, got)
		}
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return ctx.Err()
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

func TestRealTimeRun(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	m := &fakeMachine{haltAt: 5}
	locker := &countingLocker{}
	r := &RealTime{
		Machine:   m,
		Frequency: 100,
		Locker:    locker,
		Now:       clock.Now,
		Sleep:     clock.Sleep,
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %s.", err)
	}

	period := 10 * time.Millisecond
	want := []time.Duration{0, period, period, period, period}
	if diff := cmp.Diff(want, m.elapsed); diff != "" {
		t.Errorf("Unexpected elapsed times (-want +got):\n%s", diff)
	}
	if r.Cycles() != 5 {
		t.Errorf("Unexpected cycles: %d.", r.Cycles())
	}
	if locker.locks != 5 {
		t.Errorf("Unexpected lock count: %d.", locker.locks)
	}
}

func TestRealTimeCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeMachine{}
	r := &RealTime{Machine: m, Frequency: 100}
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Unexpected error: %v.", err)
	}
	if m.steps != 0 {
		t.Fatalf("Unexpected steps: %d.", m.steps)
	}
}

func TestRealTimeTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	m := &fakeMachine{}
	r := &RealTime{Machine: m, Frequency: 1000}
	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Unexpected error: %v.", err)
	}
	if m.steps == 0 {
		t.Fatal("Expected some steps before the deadline.")
	}
}
