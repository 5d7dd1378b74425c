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

// ExecutiveContext is the contract surface a node executor is handed. It
// is an interface (rather than a concrete struct) here so that package
// avmc's Executor type, and the 43 AIR node executors in package air, can
// be defined without importing package runtime, which holds the concrete
// implementation and the PTC trampoline. This mirrors the original
// source's Executive_Context but exposes only what a node executor
// actually calls.
type ExecutiveContext interface {
	// PushRef pushes a reference onto the per-activation reference stack.
	PushRef(Reference)
	// PopRefs pops and returns the top n references, innermost (most
	// recently pushed) last.
	PopRefs(n int) []Reference
	// TopRef returns the top of the reference stack without popping.
	TopRef() (Reference, bool)
	// ClearStack empties the reference stack, e.g. for clear_stack nodes.
	ClearStack()

	// DeclareRef introduces a new name into the innermost scope.
	DeclareRef(name string, ref Reference)
	// LookupRef resolves a name, searching outward from depth frames up
	// the scope chain; depth 0 is the innermost scope.
	LookupRef(depth int, name string) (Reference, bool)

	// CurrentFunction identifies the function owning this activation, for
	// backtrace framing and the on_function_enter/leave hooks.
	CurrentFunction() FunctionIdentity

	// HooksHandle returns the attached hooks object, or NoopHooks{} if none
	// was attached.
	HooksHandle() Hooks

	// CheckTrap is invoked by single_step_trap nodes; it delegates to the
	// hooks' OnTrap and returns any cancellation error it raises.
	CheckTrap(sloc SourceLocation) error

	// CallFunction synchronously invokes a non-tail-call target and
	// returns its result. info is opaque to base — packages air and
	// runtime agree on its concrete shape (*air.TailCallInfo) — so that
	// base need not import air to declare this method.
	CallFunction(info interface{}) (Reference, error)

	// SetPendingTailCall stashes a PTC-aware call's target/args/sloc for
	// the trampoline in package runtime to pick up once the current
	// node's queue yields DeferredTailCall(). info is opaque for the same
	// reason as CallFunction's argument.
	SetPendingTailCall(info interface{})

	// TakePendingTailCall retrieves and clears the pending tail call set
	// by the most recent SetPendingTailCall.
	TakePendingTailCall() (interface{}, bool)
}
