// Copyright 2024 The Asteria-Go Authors
// This file is part of Asteria.
//
// Asteria is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Asteria is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Asteria. If not, see <http://www.gnu.org/licenses/>.

package base

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-stack/stack"
)

// Sentinel errors for conditions with a fixed abstract kind (see the error
// taxonomy). Contextual detail is layered on with fmt.Errorf("%w: ...").
var (
	ErrStackOverflow    = errors.New("asteria: averted stack overflow")
	ErrRecursiveImport  = errors.New("asteria: recursive import denied")
	ErrQueueSealed      = errors.New("asteria: AVMC queue is finalized")
	ErrInvalidSparam    = errors.New("asteria: invalid AVMC node size")
	ErrAssertionFailed  = errors.New("asteria: assertion failure")
	ErrCancelled        = errors.New("asteria: execution cancelled by trap")
)

// BacktraceFrame is one entry of a Runtime_Error's backtrace, appended as
// execution unwinds. Innermost frame first.
type BacktraceFrame struct {
	Type  FrameType
	Sloc  SourceLocation
	Value interface{}
}

func (f BacktraceFrame) String() string {
	return fmt.Sprintf("%s @ %s", f.Type, f.Sloc)
}

// RuntimeError is the script-visible error value the executor loop
// synthesizes around any native error, and the carrier for script-thrown
// values. It is always constructed by wrapping first (NewRuntimeError),
// then annotated with frames as it propagates outward through nodes that
// carry a source location — this is the literal resolution of the
// "wrap first, then annotate iff a source location is available" rule.
type RuntimeError struct {
	Value   interface{} // the thrown script value, or nil for native errors
	cause   error
	frames  []BacktraceFrame
	hostTrc stack.CallStack // optional host-side (Go) diagnostic trace
}

// NewRuntimeError wraps a native Go error as a Runtime_Error. If err is
// already a *RuntimeError it is returned unchanged (no double wrapping).
func NewRuntimeError(err error) *RuntimeError {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re
	}
	return &RuntimeError{cause: err}
}

// NewScriptThrow constructs a Runtime_Error carrying a script-thrown value.
func NewScriptThrow(value interface{}, sloc SourceLocation) *RuntimeError {
	re := &RuntimeError{Value: value}
	re.frames = append(re.frames, BacktraceFrame{Type: FrameThrow, Sloc: sloc, Value: value})
	return re
}

// CaptureHostStack records the current Go call stack for embedder-side
// diagnostics. Strictly additive: it never substitutes for the script-level
// backtrace frames mandated by the spec, and Error() never prints it.
func (e *RuntimeError) CaptureHostStack() *RuntimeError {
	e.hostTrc = stack.Trace().TrimRuntime()
	return e
}

// HostStack returns the captured Go call stack, or nil if none was taken.
func (e *RuntimeError) HostStack() stack.CallStack { return e.hostTrc }

// PushFramePlain appends a "plain" frame at sloc. This is what the queue's
// Execute does when a native error escapes a node that carries a source
// location (meta_ver >= 2).
func (e *RuntimeError) PushFramePlain(sloc SourceLocation) *RuntimeError {
	return e.PushFrame(BacktraceFrame{Type: FramePlain, Sloc: sloc})
}

// PushFrame appends a frame to the backtrace, innermost-first order
// preserved by always appending (the first-pushed frame is the innermost).
func (e *RuntimeError) PushFrame(f BacktraceFrame) *RuntimeError {
	e.frames = append(e.frames, f)
	return e
}

// Frames returns the backtrace, innermost frame first.
func (e *RuntimeError) Frames() []BacktraceFrame {
	out := make([]BacktraceFrame, len(e.frames))
	copy(out, e.frames)
	return out
}

// Unwrap exposes the wrapped native cause, if any, for errors.Is/As.
func (e *RuntimeError) Unwrap() error { return e.cause }

// Error renders "message line followed by a list of frames type @
// file:line:col in innermost-first order", per the error handling design.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	switch {
	case e.Value != nil:
		fmt.Fprintf(&b, "%v", e.Value)
	case e.cause != nil:
		b.WriteString(e.cause.Error())
	default:
		b.WriteString("asteria: unspecified runtime error")
	}
	for _, f := range e.frames {
		b.WriteString("\n  ")
		b.WriteString(f.String())
	}
	return b.String()
}
