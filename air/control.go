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

// ClearStack discards every reference currently on the stack, used between
// statements so that the expression-statement's leftover temporary never
// leaks into the next statement's view of the stack.
type ClearStack struct{}

func (n *ClearStack) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ClearStack) IsTerminator() bool              { return false }
func (n *ClearStack) Rebind(*RebindContext) Node      { return n }
func (n *ClearStack) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *ClearStack) Solidify(q *avmc.Queue) {
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		ctx.ClearStack()
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// AltClearStack is clear_stack's alternate encoding used when the lowering
// pass already knows the stack holds exactly one reference (the common
// case after a single expression statement); functionally identical to
// ClearStack, kept distinct so the disassembler can show which lowering
// path produced it.
type AltClearStack struct{}

func (n *AltClearStack) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *AltClearStack) IsTerminator() bool              { return false }
func (n *AltClearStack) Rebind(*RebindContext) Node      { return n }
func (n *AltClearStack) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *AltClearStack) Solidify(q *avmc.Queue) {
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		ctx.PopRefs(1)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// SimpleStatus unconditionally returns a fixed Status, with no stack effect
// of its own. It is the only alternative lowering ever emits for a bare
// `break`, `continue`, or void `return`: Status holds whichever of
// StatusBreakUnspec/StatusBreakWhile/StatusBreakFor/StatusBreakSwitch,
// StatusContinueUnspec/StatusContinueWhile/StatusContinueFor, or
// StatusReturnVoid the lowering pass determined for the jump's target —
// the unspecified variants are for a `break`/`continue` whose enclosing
// loop or switch kind isn't known (or doesn't matter) at the jump site.
type SimpleStatus struct {
	Status base.Status
}

func (n *SimpleStatus) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *SimpleStatus) IsTerminator() bool              { return true }
func (n *SimpleStatus) Rebind(*RebindContext) Node      { return n }
func (n *SimpleStatus) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *SimpleStatus) Solidify(q *avmc.Queue) {
	status := n.Status
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		return status, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// ExecuteBlock runs a nested sequence in the current scope (no new scope
// is pushed): any status other than Next returned by the block propagates
// unchanged.
type ExecuteBlock struct {
	Body Block
}

func (n *ExecuteBlock) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ExecuteBlock) IsTerminator() bool              { return n.Body.IsTerminator() }
func (n *ExecuteBlock) CollectVariables(staged, temp avmc.VariableMap) {
	n.Body.CollectVariables(staged, temp)
}

func (n *ExecuteBlock) Rebind(ctx *RebindContext) Node {
	return &ExecuteBlock{Body: n.Body.Rebind(ctx)}
}

func (n *ExecuteBlock) Solidify(q *avmc.Queue) {
	inner := avmc.NewQueue()
	n.Body.Solidify(inner)
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		return inner.Execute(ctx)
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		inner.CollectVariables(staged, temp)
	}, nil)
}

// SingleStepTrap calls out to the attached hooks' debugger trap before
// falling through; a non-nil result cancels execution.
type SingleStepTrap struct {
	Sloc base.SourceLocation
}

func (n *SingleStepTrap) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *SingleStepTrap) IsTerminator() bool              { return false }
func (n *SingleStepTrap) Rebind(*RebindContext) Node      { return n }
func (n *SingleStepTrap) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *SingleStepTrap) Solidify(q *avmc.Queue) {
	sloc := n.Sloc
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if err := ctx.CheckTrap(sloc); err != nil {
			return base.StatusNext, err
		}
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}
