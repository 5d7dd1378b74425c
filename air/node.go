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

// Package air implements the 43 AIR_Node alternatives: the intermediate
// representation a lowering pass (out of this module's scope) produces,
// and which solidifies into an avmc.Queue for execution. Each alternative
// is a small Go struct grouped by category into its own file
// (control.go, decl.go, structured.go, expr.go, call.go, terminal.go),
// mirroring the category breakdown the language's own design follows.
package air

import (
	"github.com/asteria-lang/asteria/avmc"
	"github.com/asteria-lang/asteria/base"
)

// Node is the contract every AIR alternative satisfies: constant-folding
// and terminator analysis for dead-code elimination, rebinding for
// closure capture, variable collection for the cycle collector, and
// solidification into an AVMC queue.
type Node interface {
	// IsConstant reports whether the node reduces to a literal value at
	// bind time. Only PushConstant answers true.
	IsConstant() (base.Value, bool)

	// IsTerminator reports whether this node unconditionally transfers
	// control out of the enclosing block.
	IsTerminator() bool

	// Rebind resolves name references against an enclosing scope map,
	// returning either the node unchanged or a rewritten node (e.g. a
	// PushLocalReference whose depth is already bound rewrites to a
	// PushBoundReference).
	Rebind(ctx *RebindContext) Node

	// CollectVariables recursively walks any nested sub-sequences and
	// reports live variable references into staged/temp.
	CollectVariables(staged, temp avmc.VariableMap)

	// Solidify emits one (or occasionally several) records into q.
	Solidify(q *avmc.Queue)
}

// RebindContext carries the scope information Rebind needs: which names
// are already bound at which depth, and what reference they resolved to.
type RebindContext struct {
	Bound map[string]base.Reference
}

// NewRebindContext constructs an empty rebind context.
func NewRebindContext() *RebindContext {
	return &RebindContext{Bound: make(map[string]base.Reference)}
}

// Block is a sequence of AIR nodes: a function body, a loop body, a
// branch arm, a try or catch clause. It is not itself one of the 43
// alternatives; it is the sub-sequence several of them (ExecuteBlock,
// IfStatement, WhileStatement, TryStatement, DefineFunction, …) hold.
type Block []Node

// IsTerminator reports whether every path through the block terminates:
// the block is non-empty and its last node is a terminator. This is the
// "terminator closure" property: if every branch of a conditional is
// itself built from terminator-closed blocks, the whole composite is a
// terminator.
func (b Block) IsTerminator() bool {
	if len(b) == 0 {
		return false
	}
	return b[len(b)-1].IsTerminator()
}

// CollectVariables walks every node in the block.
func (b Block) CollectVariables(staged, temp avmc.VariableMap) {
	for _, n := range b {
		n.CollectVariables(staged, temp)
	}
}

// Rebind rebinds every node in the block, returning a new block only if
// any node actually changed (idempotence: rebinding twice with the same
// context yields an equal block both times).
func (b Block) Rebind(ctx *RebindContext) Block {
	out := make(Block, len(b))
	changed := false
	for i, n := range b {
		r := n.Rebind(ctx)
		out[i] = r
		if r != n {
			changed = true
		}
	}
	if !changed {
		return b
	}
	return out
}

// Solidify emits every node in the block into q, in order.
func (b Block) Solidify(q *avmc.Queue) {
	for _, n := range b {
		n.Solidify(q)
	}
}

// CompiledFunction is the callee side of a function_call: the minimal
// slice of Asteria's (out of scope) function-value model the execution
// core actually needs — an identity for backtraces/hooks, formal
// parameter names for argument binding, and a solidified body queue.
type CompiledFunction struct {
	Identity base.FunctionIdentity
	Params   []string
	Body     *avmc.Queue
}

// TailCallInfo is the payload a PTC-aware function_call node stashes on
// the executive context instead of invoking its target directly; the
// trampoline in package runtime consumes it. It is also what a
// non-tail-call function_call passes to ExecutiveContext.CallFunction for
// a synchronous (natively recursive) invocation.
type TailCallInfo struct {
	Target *CompiledFunction
	Args   []base.Reference
	PTC    base.PTCAware
	Sloc   base.SourceLocation
}
