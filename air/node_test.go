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
	"testing"

	"github.com/asteria-lang/asteria/base"
	"github.com/stretchr/testify/assert"
)

// TestBlockRebindIdempotent exercises rebind(rebind(T,C),C) == rebind(T,C):
// a PushLocalReference captured by a closure rewrites to a
// PushBoundReference on the first rebind, and a second rebind against the
// same context must leave that result unchanged.
func TestBlockRebindIdempotent(t *testing.T) {
	ctx := NewRebindContext()
	ctx.Bound["x"] = base.RefToValue(base.Int(7))

	block := Block{
		&PushLocalReference{Name: "x"},
		&PushConstant{Value: base.Int(1)},
	}

	once := block.Rebind(ctx)
	twice := once.Rebind(ctx)

	assert.Equal(t, once, twice)
	if _, ok := once[0].(*PushBoundReference); !ok {
		t.Fatalf("expected PushLocalReference to rewrite to PushBoundReference, got %T", once[0])
	}
	// Rebinding the already-bound result a second time must return the
	// identical node, not merely an equal one.
	assert.Same(t, once[0], twice[0])
}

// TestBlockRebindIdempotentNoCapture covers the case where nothing in the
// block resolves against ctx.Bound: Rebind must be a true no-op, returning
// the same underlying slice both times.
func TestBlockRebindIdempotentNoCapture(t *testing.T) {
	ctx := NewRebindContext()
	block := Block{&PushConstant{Value: base.Int(1)}, &ClearStack{}}

	once := block.Rebind(ctx)
	twice := once.Rebind(ctx)

	assert.Same(t, block[0], once[0], "unchanged block must rebind to the same nodes")
	assert.Equal(t, once, twice)
}

// TestIfStatementTerminatorClosure: an if/else is a terminator only when
// both arms are.
func TestIfStatementTerminatorClosure(t *testing.T) {
	terminating := Block{&SimpleStatus{Status: base.StatusReturnVoid}}
	falling := Block{&PushConstant{Value: base.Int(1)}}

	assert.True(t, (&IfStatement{Then: terminating, Else: terminating}).IsTerminator())
	assert.False(t, (&IfStatement{Then: terminating, Else: falling}).IsTerminator())
	assert.False(t, (&IfStatement{Then: falling, Else: falling}).IsTerminator())
}

// TestSwitchStatementTerminatorRequiresExhaustiveness is the switch
// analogue of the if/else closure property: a switch is a terminator only
// when it is exhaustive (has a default clause) and every clause body
// terminates.
func TestSwitchStatementTerminatorRequiresExhaustiveness(t *testing.T) {
	terminating := Block{&SimpleStatus{Status: base.StatusBreakSwitch}}
	falling := Block{&PushConstant{Value: base.Int(1)}}
	label := base.Int(1)

	exhaustiveAndTerminating := &SwitchStatement{Clauses: []SwitchClause{
		{Label: &label, Body: terminating},
		{Label: nil, Body: terminating}, // default
	}}
	assert.True(t, exhaustiveAndTerminating.IsTerminator())

	missingDefault := &SwitchStatement{Clauses: []SwitchClause{
		{Label: &label, Body: terminating},
	}}
	assert.False(t, missingDefault.IsTerminator())

	defaultDoesNotTerminate := &SwitchStatement{Clauses: []SwitchClause{
		{Label: &label, Body: terminating},
		{Label: nil, Body: falling},
	}}
	assert.False(t, defaultDoesNotTerminate.IsTerminator())
}
