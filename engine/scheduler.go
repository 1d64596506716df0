package engine

import (
	"time"

	"github.com/pthm-cable/slime/systems"
)

// State is the lifecycle state of a FrameScheduler.
type State uint8

const (
	StateUninitialized State = iota
	StateReady
	StateRunning
	// StateHalted is entered after a dispatch failure; it is terminal.
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	}
	return "uninitialized"
}

// FrameScheduler owns the step counter and elapsed-time accumulator, and
// from them the buffer roles for each tick.
type FrameScheduler struct {
	state      State
	step       uint64
	elapsed    time.Duration
	lastTick   time.Duration
	hostMillis float32
}

// Roles returns the source and destination buffers for the next tick.
// They alternate with the parity of the step counter.
func (s *FrameScheduler) Roles() (src, dst systems.BufferID) {
	src = systems.BufferID(s.step % 2)
	return src, src.Other()
}

// Front returns the authoritative buffer: the one the last committed tick
// wrote, which is also the source of the next tick.
func (s *FrameScheduler) Front() systems.BufferID {
	src, _ := s.Roles()
	return src
}

// Step returns the number of committed ticks.
func (s *FrameScheduler) Step() uint64 { return s.step }

// Elapsed returns the accumulated wall-clock duration of committed ticks.
func (s *FrameScheduler) Elapsed() time.Duration { return s.elapsed }

// LastTick returns the wall-clock duration of the most recent tick.
func (s *FrameScheduler) LastTick() time.Duration { return s.lastTick }

// HostMillis returns the timestamp the host passed with the last tick.
func (s *FrameScheduler) HostMillis() float32 { return s.hostMillis }

// State returns the lifecycle state.
func (s *FrameScheduler) State() State { return s.state }

func (s *FrameScheduler) reset() {
	*s = FrameScheduler{state: StateReady}
}

// begin checks that a tick may run and moves to Running.
func (s *FrameScheduler) begin() error {
	switch s.state {
	case StateReady, StateRunning:
		s.state = StateRunning
		return nil
	case StateHalted:
		return ErrHalted
	}
	return ErrNotReady
}

// commit records a completed tick, which flips the buffer roles.
func (s *FrameScheduler) commit(d time.Duration, hostMillis float32) {
	s.step++
	s.elapsed += d
	s.lastTick = d
	s.hostMillis = hostMillis
}

func (s *FrameScheduler) halt() { s.state = StateHalted }

// close returns the scheduler to Uninitialized, keeping its counters for
// the final stats.
func (s *FrameScheduler) close() { s.state = StateUninitialized }
