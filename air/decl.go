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

// DeclareVariable introduces name as an uninitialized variable in the
// current scope and reports the declaration to the hooks' on_declare.
type DeclareVariable struct {
	Sloc base.SourceLocation
	Name string
}

func (n *DeclareVariable) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *DeclareVariable) IsTerminator() bool              { return false }
func (n *DeclareVariable) Rebind(*RebindContext) Node      { return n }
func (n *DeclareVariable) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *DeclareVariable) Solidify(q *avmc.Queue) {
	sloc, name := n.Sloc, n.Name
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		v := &base.Variable{Value: base.Null()}
		ctx.DeclareRef(name, base.RefToVariable(v))
		ctx.HooksHandle().OnDeclare(sloc, name)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// DefineNullVariable is declare_variable's fast path for a variable whose
// initializer is the literal `null`: declaration and initialization fold
// into a single node.
type DefineNullVariable struct {
	Sloc     base.SourceLocation
	Name     string
	Constant bool
}

func (n *DefineNullVariable) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *DefineNullVariable) IsTerminator() bool              { return false }
func (n *DefineNullVariable) Rebind(*RebindContext) Node      { return n }
func (n *DefineNullVariable) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *DefineNullVariable) Solidify(q *avmc.Queue) {
	sloc, name, constant := n.Sloc, n.Name, n.Constant
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		v := &base.Variable{Value: base.Null(), Constant: constant}
		ctx.DeclareRef(name, base.RefToVariable(v))
		ctx.HooksHandle().OnDeclare(sloc, name)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// InitializeVariable pops the top of the reference stack and binds Name in
// the innermost scope to a new variable holding its value (constant if
// Constant is set), replacing any earlier binding of Name in that scope.
type InitializeVariable struct {
	Name     string
	Constant bool
}

func (n *InitializeVariable) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *InitializeVariable) IsTerminator() bool              { return false }
func (n *InitializeVariable) Rebind(*RebindContext) Node      { return n }
func (n *InitializeVariable) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *InitializeVariable) Solidify(q *avmc.Queue) {
	name, constant := n.Name, n.Constant
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		v := &base.Variable{Value: refs[0].Read(), Constant: constant}
		ctx.DeclareRef(name, base.RefToVariable(v))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// DeclareReference introduces name bound to whatever reference currently
// sits on top of the stack, without copying its value (a reference
// alias, as opposed to DeclareVariable's fresh storage cell).
type DeclareReference struct {
	Name string
}

func (n *DeclareReference) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *DeclareReference) IsTerminator() bool              { return false }
func (n *DeclareReference) Rebind(*RebindContext) Node      { return n }
func (n *DeclareReference) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *DeclareReference) Solidify(q *avmc.Queue) {
	name := n.Name
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		top, ok := ctx.TopRef()
		if !ok {
			top = base.RefToValue(base.Null())
		}
		ctx.DeclareRef(name, top)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// InitializeReference is declare_reference's two-step sibling, used where
// the lowering pass already popped the aliased reference off the stack
// (e.g. a destructuring bind) rather than merely peeking it.
type InitializeReference struct {
	Name string
}

func (n *InitializeReference) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *InitializeReference) IsTerminator() bool              { return false }
func (n *InitializeReference) Rebind(*RebindContext) Node      { return n }
func (n *InitializeReference) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *InitializeReference) Solidify(q *avmc.Queue) {
	name := n.Name
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		ctx.DeclareRef(name, refs[0])
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// PushGlobalReference pushes the reference bound to Name in the outermost
// (global) scope.
type PushGlobalReference struct {
	Sloc base.SourceLocation
	Name string
}

func (n *PushGlobalReference) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *PushGlobalReference) IsTerminator() bool              { return false }
func (n *PushGlobalReference) Rebind(*RebindContext) Node      { return n }
func (n *PushGlobalReference) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *PushGlobalReference) Solidify(q *avmc.Queue) {
	sloc, name := n.Sloc, n.Name
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		ref, ok := ctx.LookupRef(-1, name)
		if !ok {
			return base.StatusNext, errUndeclared(name)
		}
		ctx.PushRef(ref)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// PushLocalReference pushes the reference bound to Name at lexical scope
// Depth frames up from the current activation. When Rebind is able to
// resolve Name to an already-bound outer reference (a closure capture),
// it rewrites itself into a PushBoundReference that carries the resolved
// reference by value instead of a depth/name pair, matching the spec's
// "closure capture rewrites a local-reference push into a bound-reference
// push" Open Question resolution.
type PushLocalReference struct {
	Sloc  base.SourceLocation
	Depth int
	Name  string
}

func (n *PushLocalReference) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *PushLocalReference) IsTerminator() bool              { return false }
func (n *PushLocalReference) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *PushLocalReference) Rebind(ctx *RebindContext) Node {
	if ref, ok := ctx.Bound[n.Name]; ok {
		return &PushBoundReference{Sloc: n.Sloc, Ref: ref}
	}
	return n
}

func (n *PushLocalReference) Solidify(q *avmc.Queue) {
	sloc, depth, name := n.Sloc, n.Depth, n.Name
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		ref, ok := ctx.LookupRef(depth, name)
		if !ok {
			return base.StatusNext, errUndeclared(name)
		}
		ctx.PushRef(ref)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// PushBoundReference pushes a reference captured at closure-creation time
// rather than resolved afresh against the current scope chain; it is what
// PushLocalReference.Rebind produces for a name already bound outside the
// function being closed over.
type PushBoundReference struct {
	Sloc base.SourceLocation
	Ref  base.Reference
}

func (n *PushBoundReference) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *PushBoundReference) IsTerminator() bool              { return false }
func (n *PushBoundReference) Rebind(*RebindContext) Node      { return n }
func (n *PushBoundReference) CollectVariables(staged, temp avmc.VariableMap) {
	if n.Ref.Var != nil {
		staged[n.Ref.Var] = struct{}{}
	}
}

func (n *PushBoundReference) Solidify(q *avmc.Queue) {
	ref := n.Ref
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		ctx.PushRef(ref)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, func(staged, _ avmc.VariableMap, _ *avmc.Node) {
		if ref.Var != nil {
			staged[ref.Var] = struct{}{}
		}
	}, &n.Sloc)
}

func errUndeclared(name string) error {
	return base.NewRuntimeError(undeclaredIdentifierError{name})
}

type undeclaredIdentifierError struct{ name string }

func (e undeclaredIdentifierError) Error() string {
	return "asteria: undeclared identifier `" + e.name + "`"
}
