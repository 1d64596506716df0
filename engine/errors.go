package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInit is matched by every error returned from Initialize.
	ErrInit = errors.New("engine: initialization failed")
	// ErrDispatch is matched when a parallel pass could not complete.
	ErrDispatch = errors.New("engine: dispatch failed")
	// ErrNotReady is returned when ticking an engine that is not initialised
	// or has been closed.
	ErrNotReady = errors.New("engine: not ready")
	// ErrHalted is returned by every tick after a dispatch failure.
	ErrHalted = errors.New("engine: halted after dispatch failure")
)

// InitError reports why an engine could not be started.
type InitError struct {
	Err error
}

func (e *InitError) Error() string { return fmt.Sprintf("engine: init: %v", e.Err) }

func (e *InitError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInit) match.
func (e *InitError) Is(target error) bool { return target == ErrInit }

// DispatchError reports a parallel pass that failed during a tick. The tick
// is not committed and the engine halts.
type DispatchError struct {
	Phase string
	Step  uint64
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("engine: dispatch %s at step %d: %v", e.Phase, e.Step, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDispatch) match.
func (e *DispatchError) Is(target error) bool { return target == ErrDispatch }

var errPoolStopped = errors.New("worker pool stopped")
