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

// FunctionIdentity is the minimal description of a user-defined function
// an executive context needs for backtrace framing and the
// on_function_enter/on_function_leave hooks. The full Instantiated_Function
// type belongs to the (out of scope) value model; this is the slice of it
// the execution core actually touches.
type FunctionIdentity struct {
	Name string
	Sloc SourceLocation
}

// Hooks is the observer interface invoked at defined execution points. All
// methods have a no-op default (see NoopHooks); only OnTrap may return an
// error — every other method is an infallible observer, matching the
// Design Notes' "on-trap is the only one that may throw" rule.
type Hooks interface {
	OnTrap(sloc SourceLocation, ctx ExecutiveContext) error
	OnDeclare(sloc SourceLocation, name string)
	OnCall(sloc SourceLocation, target FunctionIdentity)
	OnReturn(sloc SourceLocation, ptc PTCAware)
	OnThrow(sloc SourceLocation, value interface{})
	OnFunctionEnter(fn FunctionIdentity, ctx ExecutiveContext)
	OnFunctionLeave(fn FunctionIdentity, ctx ExecutiveContext)
}

// NoopHooks is the null implementation: every method is a no-op and OnTrap
// never fires. Embed it to implement Hooks while overriding only the
// methods of interest.
type NoopHooks struct{}

func (NoopHooks) OnTrap(SourceLocation, ExecutiveContext) error   { return nil }
func (NoopHooks) OnDeclare(SourceLocation, string)                {}
func (NoopHooks) OnCall(SourceLocation, FunctionIdentity)         {}
func (NoopHooks) OnReturn(SourceLocation, PTCAware)               {}
func (NoopHooks) OnThrow(SourceLocation, interface{})             {}
func (NoopHooks) OnFunctionEnter(FunctionIdentity, ExecutiveContext) {}
func (NoopHooks) OnFunctionLeave(FunctionIdentity, ExecutiveContext) {}

var _ Hooks = NoopHooks{}
