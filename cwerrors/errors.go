// Package cwerrors defines the sentinel errors shared by the tonequeue,
// generator, key, and receiver packages.
//
// Errors returned by the tonequeue, morse, generator and receiver
// packages, and by config.Validate, are (or wrap, with
// fmt.Errorf("...: %w", ...)) one of these sentinels, so callers should
// compare with errors.Is rather than switching on error strings. Errors
// from package sink, from config.Load and from the hardware adapter
// packages under key/ do not wrap them.
package cwerrors

import "errors"

var (
	// ErrInvalidArgument is returned when a parameter is outside its
	// documented range, or a representation/character is malformed.
	ErrInvalidArgument = errors.New("cw: invalid argument")

	// ErrWouldBlock is returned when an operation cannot complete without
	// waiting: enqueuing into a full tone queue, or polling the receiver
	// mid-character. It is a control-flow signal, not a failure — the
	// caller should retry after waiting or polling again later.
	ErrWouldBlock = errors.New("cw: would block")

	// ErrBufferFull is returned when the receiver's representation buffer
	// is exhausted (more than 256 marks without an intervening gap).
	ErrBufferFull = errors.New("cw: representation buffer full")

	// ErrNotFound is returned when a representation does not map to any
	// known character, or an unknown character is passed to Enqueue.
	ErrNotFound = errors.New("cw: not found")

	// ErrNoise is returned when a mark is shorter than the noise-spike
	// threshold. It is silently absorbed by the receiver state machine;
	// it is surfaced here only so callers that want to count noise can.
	ErrNoise = errors.New("cw: noise spike")

	// ErrInvalidState is returned when an operation is called while the
	// receiver is in a state that does not support it.
	ErrInvalidState = errors.New("cw: invalid receiver state")

	// ErrSinkFailure is returned by generator.New when the audio sink
	// accepts none of the candidate sample rates on Open.
	ErrSinkFailure = errors.New("cw: audio sink failure")
)
