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

package runtime

import (
	"fmt"
	"testing"

	"github.com/asteria-lang/asteria/air"
	"github.com/asteria-lang/asteria/avmc"
	"github.com/asteria-lang/asteria/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHooks captures call/return events in order, for hook-ordering
// property tests; each return is attributed to the innermost call that has
// not yet returned. Every other event is a no-op.
type recordingHooks struct {
	base.NoopHooks
	trace []string
	open  []string
}

func (h *recordingHooks) OnCall(_ base.SourceLocation, target base.FunctionIdentity) {
	h.trace = append(h.trace, "call("+target.Name+")")
	h.open = append(h.open, target.Name)
}

func (h *recordingHooks) OnReturn(_ base.SourceLocation, _ base.PTCAware) {
	if n := len(h.open); n > 0 {
		h.trace = append(h.trace, "return("+h.open[n-1]+")")
		h.open = h.open[:n-1]
	}
}

// makeConstFunction builds a function that unconditionally returns a
// literal integer: "func f() { return v; }".
func makeConstFunction(name string, v int64) *air.CompiledFunction {
	fn := &air.CompiledFunction{Identity: base.FunctionIdentity{Name: name}}
	body := air.Block{
		&air.PushConstant{Value: base.Int(v)},
		&air.ReturnStatement{},
	}
	q := avmc.NewQueue()
	body.Solidify(q)
	fn.Body = q
	return fn
}

// makeForwardingFunction builds "func name() { return target(); }", with
// the call lowered either as a tail call (ptc != PTCAwareNone) or as an
// ordinary call (ptc == PTCAwareNone) followed by an explicit return.
func makeForwardingFunction(name string, target *air.CompiledFunction, ptc base.PTCAware) *air.CompiledFunction {
	fn := &air.CompiledFunction{Identity: base.FunctionIdentity{Name: name}}
	call := &air.FunctionCall{Target: target, Nargs: 0, PTC: ptc}
	var body air.Block
	if ptc != base.PTCAwareNone {
		body = air.Block{call}
	} else {
		body = air.Block{call, &air.ReturnStatement{}}
	}
	q := avmc.NewQueue()
	body.Solidify(q)
	fn.Body = q
	return fn
}

// makeCountdownFunction builds:
//
//	func loop(n) { if (n <= 0) { return 0; } else { return loop(n - 1); } }
//
// with the recursive call lowered as a proper tail call.
func makeCountdownFunction() *air.CompiledFunction {
	fn := &air.CompiledFunction{Identity: base.FunctionIdentity{Name: "loop"}, Params: []string{"n"}}
	cond := air.Block{
		&air.PushLocalReference{Depth: 0, Name: "n"},
		&air.PushConstant{Value: base.Int(0)},
		&air.ApplyOperator{Op: base.XopCmpLte, Binary: true},
	}
	then := air.Block{
		&air.PushConstant{Value: base.Int(0)},
		&air.ReturnStatement{},
	}
	els := air.Block{
		&air.PushLocalReference{Depth: 0, Name: "n"},
		&air.ApplyOperatorBi32{Op: base.XopSub, Rhs: 1},
		&air.FunctionCall{Target: fn, Nargs: 1, PTC: base.PTCAwareByVal},
	}
	body := air.Block{&air.IfStatement{Cond: cond, Then: then, Else: els}}
	q := avmc.NewQueue()
	body.Solidify(q)
	fn.Body = q
	return fn
}

func TestInvokeConstantReturn(t *testing.T) {
	fn := makeConstFunction("answer", 42)
	hooks := &recordingHooks{}
	result, err := Invoke(hooks, 0, 0, fn, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Read().I)
}

func TestInvokePTCDepthIsBounded(t *testing.T) {
	for _, n := range []int64{1, 10, 1000, 100000} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			fn := makeCountdownFunction()
			result, err := Invoke(base.NoopHooks{}, 0, 0, fn, []base.Reference{base.RefToValue(base.Int(n))})
			require.NoError(t, err)
			assert.Equal(t, int64(0), result.Read().I)
		})
	}
}

func TestInvokeHookOrderPTC(t *testing.T) {
	a := makeConstFunction("a", 7)
	b := makeForwardingFunction("b", a, base.PTCAwareByVal)
	hooks := &recordingHooks{}
	hooks.OnCall(base.UnknownLocation, b.Identity)
	result, err := Invoke(hooks, 0, 0, b, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.Read().I)
	assert.Equal(t, []string{"call(b)", "call(a)", "return(a)", "return(b)"}, hooks.trace)
}

func TestInvokeHookOrderNonPTC(t *testing.T) {
	a := makeConstFunction("a", 7)
	b := makeForwardingFunction("b", a, base.PTCAwareNone)
	hooks := &recordingHooks{}
	hooks.OnCall(base.UnknownLocation, b.Identity)
	result, err := Invoke(hooks, 0, 0, b, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.Read().I)
	assert.Equal(t, []string{"call(b)", "call(a)", "return(a)", "return(b)"}, hooks.trace)
}

func TestInvokeThrowProducesBacktrace(t *testing.T) {
	fn := &air.CompiledFunction{Identity: base.FunctionIdentity{Name: "boom"}}
	sloc := base.NewSourceLocation("boom.ast", 5, 1)
	body := air.Block{
		&air.PushConstant{Value: base.Str("boom")},
		&air.ThrowStatement{Sloc: sloc},
	}
	q := avmc.NewQueue()
	body.Solidify(q)
	fn.Body = q

	_, err := Invoke(base.NoopHooks{}, 0, 0, fn, nil)
	require.Error(t, err)
	re := base.NewRuntimeError(err)
	require.NotEmpty(t, re.Frames())
	assert.Equal(t, base.FrameThrow, re.Frames()[0].Type)
	assert.Equal(t, sloc, re.Frames()[0].Sloc)
}
