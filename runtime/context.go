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

// Package runtime wires package air's node set to a concrete executive
// context: the reference stack, the lexical scope chain, the recursion
// sentry, the attached hooks, and the proper-tail-call trampoline that
// turns a chain of PTCAware function_call nodes into a loop instead of
// native recursion.
package runtime

import (
	"github.com/asteria-lang/asteria/air"
	"github.com/asteria-lang/asteria/base"
)

// scope is one lexical frame: a set of name-to-reference bindings. The
// last element of scopes is the innermost (depth 0); scopes[0] is the
// outermost.
type scope map[string]base.Reference

// ExecutiveContext is the concrete implementation of base.ExecutiveContext
// that Invoke drives. Each Invoke call creates one, and it is threaded
// through every tail hop of that call's trampoline; a nested (non-tail)
// call goes through CallFunction, which calls Invoke and so runs on a
// new ExecutiveContext of its own.
type ExecutiveContext struct {
	stack   []base.Reference
	scopes  []scope
	fn      base.FunctionIdentity
	hooks   base.Hooks
	sentry  *base.RecursionSentry
	pending interface{}
	defers  []func(base.ExecutiveContext)
	maxDepth int
}

// NewExecutiveContext constructs a context with fresh stack/scope state,
// ready for a top-level Invoke. maxDepth is forwarded to the recursion
// sentry as the portable secondary bound (0 means address-delta only).
func NewExecutiveContext(hooks base.Hooks, maxDepth int) *ExecutiveContext {
	if hooks == nil {
		hooks = base.NoopHooks{}
	}
	return &ExecutiveContext{
		hooks:    hooks,
		sentry:   base.NewRecursionSentry(maxDepth),
		maxDepth: maxDepth,
	}
}

func (c *ExecutiveContext) PushRef(r base.Reference) { c.stack = append(c.stack, r) }

func (c *ExecutiveContext) PopRefs(n int) []base.Reference {
	if n > len(c.stack) {
		n = len(c.stack)
	}
	start := len(c.stack) - n
	out := make([]base.Reference, n)
	copy(out, c.stack[start:])
	c.stack = c.stack[:start]
	return out
}

func (c *ExecutiveContext) TopRef() (base.Reference, bool) {
	if len(c.stack) == 0 {
		return base.Reference{}, false
	}
	return c.stack[len(c.stack)-1], true
}

func (c *ExecutiveContext) ClearStack() { c.stack = c.stack[:0] }

func (c *ExecutiveContext) DeclareRef(name string, ref base.Reference) {
	if len(c.scopes) == 0 {
		c.pushScope()
	}
	c.scopes[len(c.scopes)-1][name] = ref
}

func (c *ExecutiveContext) LookupRef(depth int, name string) (base.Reference, bool) {
	if depth < 0 {
		if len(c.scopes) == 0 {
			return base.Reference{}, false
		}
		ref, ok := c.scopes[0][name]
		return ref, ok
	}
	idx := len(c.scopes) - 1 - depth
	if idx < 0 || idx >= len(c.scopes) {
		return base.Reference{}, false
	}
	ref, ok := c.scopes[idx][name]
	return ref, ok
}

func (c *ExecutiveContext) CurrentFunction() base.FunctionIdentity { return c.fn }

func (c *ExecutiveContext) HooksHandle() base.Hooks { return c.hooks }

func (c *ExecutiveContext) CheckTrap(sloc base.SourceLocation) error {
	return c.hooks.OnTrap(sloc, c)
}

// CallFunction synchronously invokes a non-tail-call target: a new
// ExecutiveContext-level activation (fresh stack/scope) nested inside the
// same Go call, so a deep chain of non-PTC calls does grow the native
// stack, as it must.
func (c *ExecutiveContext) CallFunction(info interface{}) (base.Reference, error) {
	tci := info.(*air.TailCallInfo)
	return Invoke(c.hooks, c.sentry.Base(), c.maxDepth, tci.Target, tci.Args)
}

func (c *ExecutiveContext) SetPendingTailCall(info interface{}) { c.pending = info }

func (c *ExecutiveContext) TakePendingTailCall() (interface{}, bool) {
	info := c.pending
	c.pending = nil
	return info, info != nil
}

// Defer registers a thunk to run when the current activation unwinds,
// regardless of how. Invoke drains registered thunks in LIFO order once
// the activation's outcome (status or error) is known. Exposed as a
// concrete method (rather than part of base.ExecutiveContext) since only
// package air's DeferExpression node needs it, via an interface type
// assertion, keeping the shared context contract minimal.
func (c *ExecutiveContext) Defer(thunk func(base.ExecutiveContext)) {
	c.defers = append(c.defers, thunk)
}

func (c *ExecutiveContext) pushScope() { c.scopes = append(c.scopes, scope{}) }
func (c *ExecutiveContext) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *ExecutiveContext) enterFunction(fn *air.CompiledFunction, args []base.Reference) error {
	c.fn = fn.Identity
	c.pushScope()
	for i, name := range fn.Params {
		var ref base.Reference
		if i < len(args) {
			ref = args[i]
		} else {
			ref = base.RefToValue(base.Null())
		}
		c.DeclareRef(name, ref)
	}
	c.hooks.OnFunctionEnter(fn.Identity, c)
	return c.sentry.Check()
}

func (c *ExecutiveContext) leaveFunction(fn *air.CompiledFunction) {
	c.hooks.OnFunctionLeave(fn.Identity, c)
	c.sentry.Leave()
	c.popScope()

	defers := c.defers
	c.defers = nil
	for i := len(defers) - 1; i >= 0; i-- {
		defers[i](c)
	}
}

var _ base.ExecutiveContext = (*ExecutiveContext)(nil)
