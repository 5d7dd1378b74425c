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
	"github.com/asteria-lang/asteria/air"
	"github.com/asteria-lang/asteria/base"
)

// pendingReturn is one entry of the trampoline's LIFO pending-tail-return
// stack: a tail hop that has already fired its own on_call but must still
// have on_return fired for it, once a genuine (non-deferred) return is
// reached somewhere further down the chain.
type pendingReturn struct {
	sloc base.SourceLocation
	ptc  base.PTCAware
}

// Run executes fn against args on this context. It is the proper-tail-call
// trampoline: while the function body's own queue yields the internal
// deferred-tail-call status, Run re-enters the tail target in place
// instead of recursing natively, so a PTC chain of arbitrary length
// consumes O(1) native stack. The function_call node fires no hook for a
// tail call; Run fires on_call for each hop just before looping into it,
// and — once a
// genuine return is reached — fires on_return for every pending hop in
// LIFO order, using each hop's own recorded call-site source location.
func (c *ExecutiveContext) Run(fn *air.CompiledFunction, args []base.Reference) (base.Reference, error) {
	var pending []pendingReturn
	cur, curArgs := fn, args

	for {
		if err := c.enterFunction(cur, curArgs); err != nil {
			c.leaveFunction(cur)
			return base.Reference{}, err
		}

		status, err := cur.Body.Execute(c)
		c.leaveFunction(cur)
		if err != nil {
			return base.Reference{}, err
		}

		if status.IsDeferredTailCall() {
			raw, _ := c.TakePendingTailCall()
			info := raw.(*air.TailCallInfo)
			pending = append(pending, pendingReturn{sloc: info.Sloc, ptc: info.PTC})
			c.hooks.OnCall(info.Sloc, info.Target.Identity)
			cur, curArgs = info.Target, info.Args
			continue
		}

		result, _ := c.TopRef()
		for i := len(pending) - 1; i >= 0; i-- {
			c.hooks.OnReturn(pending[i].sloc, pending[i].ptc)
		}
		return result, nil
	}
}

// Invoke constructs a fresh ExecutiveContext inheriting inheritedBase (0
// means "capture a new base here") and runs fn against args on it. This is
// the entry point ExecutiveContext.CallFunction uses for a non-tail call:
// each nested call gets its own stack/scope state but the recursion
// sentry's base address threads through, so native recursion depth is
// measured across the whole chain rather than reset at each level.
func Invoke(hooks base.Hooks, inheritedBase uintptr, maxDepth int, fn *air.CompiledFunction, args []base.Reference) (base.Reference, error) {
	if hooks == nil {
		hooks = base.NoopHooks{}
	}
	ctx := &ExecutiveContext{hooks: hooks, maxDepth: maxDepth}
	if inheritedBase == 0 {
		ctx.sentry = base.NewRecursionSentry(maxDepth)
	} else {
		ctx.sentry = base.NewRecursionSentryWithBase(inheritedBase, maxDepth)
	}
	return ctx.Run(fn, args)
}
