// Package driver paces a machine from the host side.
//
// Two disciplines are available: Fixed runs a fixed number of instructions
// per second of emulated time, fed frame by frame by the caller, and
// RealTime runs its own loop against the wall clock.
package driver

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrFrequency = errors.New("invalid frequency")

// Machine is what the drivers step. *vm.Chip8 implements it.
type Machine interface {
	Step(elapsed time.Duration) bool
}

// Fixed runs the machine at a fixed frequency. Not safe for concurrent use.
type Fixed struct {
	m    Machine
	freq int64

	budget int64 // Frame time not yet executed, in ns*cycles/s. One cycle costs one second.
	n      int64 // Cycle index within the current emulated second.
	cycles uint64
	halted bool
}

func NewFixed(m Machine, frequency int) (*Fixed, error) {
	if frequency <= 0 {
		return nil, ErrFrequency
	}
	return &Fixed{m: m, freq: int64(frequency)}, nil
}

// Frame runs the cycles due for a host frame of the given duration.
// Each cycle is given an exact share of the second so the timers decay
// at 60Hz of emulated time whatever the frequency.
// Returns false once the machine halted.
func (f *Fixed) Frame(frame time.Duration) bool {
	if f.halted {
		return false
	}
	if frame <= 0 {
		return true
	}
	sec := int64(time.Second)
	f.budget += int64(frame) * f.freq
	for f.budget >= sec {
		f.budget -= sec
		elapsed := time.Duration((f.n+1)*sec/f.freq - f.n*sec/f.freq)
		if f.n++; f.n == f.freq {
			f.n = 0
		}
		f.cycles++
		if !f.m.Step(elapsed) {
			f.halted = true
			return false
		}
	}
	return true
}

// Cycles returns the number of steps executed so far.
func (f *Fixed) Cycles() uint64 { return f.cycles }

func (f *Fixed) Halted() bool { return f.halted }

// RealTime runs the machine against the wall clock, one step per period,
// each step given the measured time since the previous one.
type RealTime struct {
	Machine   Machine
	Frequency int

	// Locker, when set, is held around each step so other goroutines can
	// inspect the machine between steps.
	Locker sync.Locker

	// Clock, defaults to the time package.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	cycles uint64
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *RealTime) step(elapsed time.Duration) bool {
	if r.Locker != nil {
		r.Locker.Lock()
		defer r.Locker.Unlock()
	}
	r.cycles++
	return r.Machine.Step(elapsed)
}

// Run loops until the machine halts, returning nil, or the context is done,
// returning its error.
func (r *RealTime) Run(ctx context.Context) error {
	if r.Frequency <= 0 {
		return ErrFrequency
	}
	now, sleepFn := r.Now, r.Sleep
	if now == nil {
		now = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleep
	}
	period := time.Second / time.Duration(r.Frequency)

	last := now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := now()
		elapsed := start.Sub(last)
		last = start
		if !r.step(elapsed) {
			return nil
		}
		if err := sleepFn(ctx, period-now().Sub(start)); err != nil {
			return err
		}
	}
}

// Cycles returns the number of steps executed so far.
// Only meaningful once Run returned, or under Locker.
func (r *RealTime) Cycles() uint64 { return r.cycles }
