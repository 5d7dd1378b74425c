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

package air

import (
	"github.com/asteria-lang/asteria/avmc"
	"github.com/asteria-lang/asteria/base"
)

// ThrowStatement pops the top of the stack and raises it as a script
// exception, synthesizing the innermost "throw" backtrace frame.
type ThrowStatement struct {
	Sloc base.SourceLocation
}

func (n *ThrowStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ThrowStatement) IsTerminator() bool              { return true }
func (n *ThrowStatement) Rebind(*RebindContext) Node      { return n }
func (n *ThrowStatement) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *ThrowStatement) Solidify(q *avmc.Queue) {
	sloc := n.Sloc
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		v := refs[0].Read()
		ctx.HooksHandle().OnThrow(sloc, v)
		return base.StatusNext, base.NewScriptThrow(v, sloc)
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// AssertStatement pops the top of the stack; if it is falsy it raises an
// assertion-failure error carrying Msg, otherwise it falls through.
type AssertStatement struct {
	Sloc base.SourceLocation
	Msg  string
}

func (n *AssertStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *AssertStatement) IsTerminator() bool              { return false }
func (n *AssertStatement) Rebind(*RebindContext) Node      { return n }
func (n *AssertStatement) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *AssertStatement) Solidify(q *avmc.Queue) {
	sloc, msg := n.Sloc, n.Msg
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		if refs[0].Read().IsTruthy() {
			return base.StatusNext, nil
		}
		re := base.NewRuntimeError(base.ErrAssertionFailed)
		re.PushFrame(base.BacktraceFrame{Type: base.FrameAssert, Sloc: sloc, Value: msg})
		return base.StatusNext, re
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// PushConstant pushes a literal value onto the reference stack. It is the
// only alternative that ever answers true from IsConstant.
type PushConstant struct {
	Value base.Value
}

func (n *PushConstant) IsConstant() (base.Value, bool) { return n.Value, true }
func (n *PushConstant) IsTerminator() bool              { return false }
func (n *PushConstant) Rebind(*RebindContext) Node      { return n }
func (n *PushConstant) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *PushConstant) Solidify(q *avmc.Queue) {
	v := n.Value
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		ctx.PushRef(base.RefToValue(v))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// ReturnStatement leaves the reference stack as it is (the caller reads
// the top as the returned reference, unless void) and reports
// StatusReturnRef/StatusReturnVal/StatusReturnVoid. It fires its
// own on_return hook with its own source location and ptc_aware "none" —
// deferred (tail-call) returns are instead reported by the trampoline
// using the call site's own recorded source location.
type ReturnStatement struct {
	Sloc  base.SourceLocation
	ByRef bool
	Void  bool
}

func (n *ReturnStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ReturnStatement) IsTerminator() bool              { return true }
func (n *ReturnStatement) Rebind(*RebindContext) Node      { return n }
func (n *ReturnStatement) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *ReturnStatement) Solidify(q *avmc.Queue) {
	sloc := n.Sloc
	byRef, isVoid := n.ByRef, n.Void
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		ctx.HooksHandle().OnReturn(sloc, base.PTCAwareNone)
		if isVoid {
			return base.StatusReturnVoid, nil
		}
		if byRef {
			return base.StatusReturnRef, nil
		}
		return base.StatusReturnVal, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// ReturnStatementBi32 is the fast path for `return` of a small integer or
// boolean literal folded directly into the node's Uparam payload, avoiding
// a separate push_constant/return_statement pair for the common case.
type ReturnStatementBi32 struct {
	Sloc    base.SourceLocation
	IsBool  bool
	BoolVal bool
	IntVal  int32
}

func (n *ReturnStatementBi32) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ReturnStatementBi32) IsTerminator() bool              { return true }
func (n *ReturnStatementBi32) Rebind(*RebindContext) Node      { return n }
func (n *ReturnStatementBi32) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *ReturnStatementBi32) Solidify(q *avmc.Queue) {
	sloc := n.Sloc
	isBool, boolVal, intVal := n.IsBool, n.BoolVal, n.IntVal
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		var v base.Value
		if isBool {
			v = base.Bool(boolVal)
		} else {
			v = base.Int(int64(intVal))
		}
		ctx.PushRef(base.RefToValue(v))
		ctx.HooksHandle().OnReturn(sloc, base.PTCAwareNone)
		return base.StatusReturnVal, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}
