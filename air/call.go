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

// FunctionCall pops Nargs argument references (in call order) and invokes
// Target. When PTC is not PTCAwareNone, the call is in tail position: the
// node fires no hook itself; it stashes a TailCallInfo on the executive
// context and returns the internal deferred-tail-call status for the
// trampoline in package runtime to consume instead of recursing natively,
// and the trampoline fires on_call for the hop. Otherwise the node fires
// on_call and the call runs synchronously through
// ExecutiveContext.CallFunction (ordinary, stack-growing recursion at the
// Go level), and its result is pushed for the caller's own remaining
// nodes to consume.
type FunctionCall struct {
	Sloc   base.SourceLocation
	Target *CompiledFunction
	Nargs  int
	PTC    base.PTCAware
}

func (n *FunctionCall) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *FunctionCall) IsTerminator() bool              { return n.PTC != base.PTCAwareNone }
func (n *FunctionCall) Rebind(*RebindContext) Node      { return n }
func (n *FunctionCall) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *FunctionCall) Solidify(q *avmc.Queue) {
	sloc, target, nargs, ptc := n.Sloc, n.Target, n.Nargs, n.PTC
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		args := ctx.PopRefs(nargs)
		info := &TailCallInfo{Target: target, Args: args, PTC: ptc, Sloc: sloc}
		if ptc != base.PTCAwareNone {
			ctx.SetPendingTailCall(info)
			return base.DeferredTailCall(), nil
		}
		ctx.HooksHandle().OnCall(sloc, target.Identity)
		result, err := ctx.CallFunction(info)
		if err != nil {
			return base.StatusNext, err
		}
		ctx.PushRef(result)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// AltFunctionCall is function_call's encoding for a call whose argument
// count is known not to require spreading a variadic tail — functionally
// identical to FunctionCall, kept distinct purely so the disassembler can
// report which lowering path a call site took.
type AltFunctionCall struct {
	FunctionCall
}

// VariadicCall pops a single array reference off the stack and spreads
// its elements as Target's arguments, for call sites using the `...`
// spread syntax. Unlike FunctionCall it is never PTC-aware: a spread
// call's argument count isn't known until runtime, and the trampoline
// only flattens statically-shaped tail hops.
type VariadicCall struct {
	Sloc   base.SourceLocation
	Target *CompiledFunction
}

func (n *VariadicCall) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *VariadicCall) IsTerminator() bool              { return false }
func (n *VariadicCall) Rebind(*RebindContext) Node      { return n }
func (n *VariadicCall) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *VariadicCall) Solidify(q *avmc.Queue) {
	sloc, target := n.Sloc, n.Target
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		arr := refs[0].Read().Arr
		args := make([]base.Reference, len(arr))
		for i, v := range arr {
			args[i] = base.RefToValue(v)
		}
		ctx.HooksHandle().OnCall(sloc, target.Identity)
		result, err := ctx.CallFunction(&TailCallInfo{Target: target, Args: args, Sloc: sloc})
		if err != nil {
			return base.StatusNext, err
		}
		ctx.PushRef(result)
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// ImportCall invokes the module loader (C8) for Path and pushes the
// resulting module's exported value (or propagates a load/recursive-import
// error). The actual filesystem/registry work lives in package loader;
// this node only calls out to whatever the attached context wires in.
type ImportCall struct {
	Sloc    base.SourceLocation
	Path    string
	Resolve func(ctx base.ExecutiveContext, path string, sloc base.SourceLocation) (base.Value, error)
}

func (n *ImportCall) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ImportCall) IsTerminator() bool              { return false }
func (n *ImportCall) Rebind(*RebindContext) Node      { return n }
func (n *ImportCall) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *ImportCall) Solidify(q *avmc.Queue) {
	sloc, path, resolve := n.Sloc, n.Path, n.Resolve
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if resolve == nil {
			return base.StatusNext, base.ErrRecursiveImport
		}
		v, err := resolve(ctx, path, sloc)
		if err != nil {
			return base.StatusNext, err
		}
		ctx.PushRef(base.RefToValue(v))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// PushUnnamedArray pops Count references off the stack (in source order)
// and pushes a single array value aggregating their read values.
type PushUnnamedArray struct {
	Count int
}

func (n *PushUnnamedArray) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *PushUnnamedArray) IsTerminator() bool              { return false }
func (n *PushUnnamedArray) Rebind(*RebindContext) Node      { return n }
func (n *PushUnnamedArray) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *PushUnnamedArray) Solidify(q *avmc.Queue) {
	count := n.Count
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(count)
		elems := make([]base.Value, len(refs))
		for i, r := range refs {
			elems[i] = r.Read()
		}
		ctx.PushRef(base.RefToValue(base.Array(elems...)))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// PushUnnamedObject pops len(Keys) references off the stack (in the same
// order as Keys) and pushes a single object value aggregating them.
type PushUnnamedObject struct {
	Keys []string
}

func (n *PushUnnamedObject) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *PushUnnamedObject) IsTerminator() bool              { return false }
func (n *PushUnnamedObject) Rebind(*RebindContext) Node      { return n }
func (n *PushUnnamedObject) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *PushUnnamedObject) Solidify(q *avmc.Queue) {
	keys := n.Keys
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(len(keys))
		obj := make(map[string]base.Value, len(keys))
		for i, k := range keys {
			obj[k] = refs[i].Read()
		}
		ctx.PushRef(base.RefToValue(base.Value{Kind: base.KindObject, Obj: obj}))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// UnpackArray pops a single array value and declares Names[i] bound to its
// i-th element (or `null` past the array's length), implementing
// `var [a, b, c] = ...;` destructuring.
type UnpackArray struct {
	Names []string
}

func (n *UnpackArray) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *UnpackArray) IsTerminator() bool              { return false }
func (n *UnpackArray) Rebind(*RebindContext) Node      { return n }
func (n *UnpackArray) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *UnpackArray) Solidify(q *avmc.Queue) {
	names := n.Names
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		arr := refs[0].Read().Arr
		for i, name := range names {
			var v base.Value
			if i < len(arr) {
				v = arr[i]
			}
			ctx.DeclareRef(name, base.RefToVariable(&base.Variable{Value: v}))
		}
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// UnpackObject pops a single object value and declares Names[i] bound to
// the member of the same name (or `null` if absent), implementing
// `var {a, b, c} = ...;` destructuring.
type UnpackObject struct {
	Names []string
}

func (n *UnpackObject) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *UnpackObject) IsTerminator() bool              { return false }
func (n *UnpackObject) Rebind(*RebindContext) Node      { return n }
func (n *UnpackObject) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *UnpackObject) Solidify(q *avmc.Queue) {
	names := n.Names
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		obj := refs[0].Read().Obj
		for _, name := range names {
			ctx.DeclareRef(name, base.RefToVariable(&base.Variable{Value: obj[name]}))
		}
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, nil)
}

// DefineFunction solidifies Body into its own queue up front and pushes an
// object value whose "__function__" member holds the function's name; the
// pushed value does not carry the *CompiledFunction itself (Compile returns
// it). It implements function literals (closures capture their environment
// through prior
// PushBoundReference rewrites baked into Body by Rebind, not through
// anything this node does at execution time).
type DefineFunction struct {
	Identity base.FunctionIdentity
	Params   []string
	Body     Block
}

func (n *DefineFunction) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *DefineFunction) IsTerminator() bool              { return false }
func (n *DefineFunction) CollectVariables(staged, temp avmc.VariableMap) {
	n.Body.CollectVariables(staged, temp)
}
func (n *DefineFunction) Rebind(ctx *RebindContext) Node {
	return &DefineFunction{Identity: n.Identity, Params: n.Params, Body: n.Body.Rebind(ctx)}
}

// Compile solidifies Body into a standalone *CompiledFunction, for use by
// callers (package engine, tests) that need the callee independently of
// pushing it as a first-class value.
func (n *DefineFunction) Compile() *CompiledFunction {
	bodyQ := avmc.NewQueue()
	n.Body.Solidify(bodyQ)
	return &CompiledFunction{Identity: n.Identity, Params: n.Params, Body: bodyQ}
}

func (n *DefineFunction) Solidify(q *avmc.Queue) {
	fn := n.Compile()
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		ctx.PushRef(base.RefToValue(base.Value{Kind: base.KindObject, Obj: map[string]base.Value{
			"__function__": base.Str(fn.Identity.Name),
		}}))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		fn.Body.CollectVariables(staged, temp)
	}, nil)
}

// DeferExpression schedules Body to run when the enclosing activation
// returns, regardless of whether it returns normally or by exception —
// Asteria's `defer` statement. The execution core models this as
// registering a thunk with the executive context rather than unwinding
// the call stack itself; package runtime's Invoke drains the registered
// thunks (innermost-registered first) once the activation's status (or
// error) is known.
type DeferExpression struct {
	Sloc base.SourceLocation
	Body Block
}

func (n *DeferExpression) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *DeferExpression) IsTerminator() bool              { return false }
func (n *DeferExpression) CollectVariables(staged, temp avmc.VariableMap) {
	n.Body.CollectVariables(staged, temp)
}
func (n *DeferExpression) Rebind(ctx *RebindContext) Node {
	return &DeferExpression{Sloc: n.Sloc, Body: n.Body.Rebind(ctx)}
}

func (n *DeferExpression) Solidify(q *avmc.Queue) {
	bodyQ := avmc.NewQueue()
	n.Body.Solidify(bodyQ)
	sloc := n.Sloc
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if d, ok := ctx.(interface{ Defer(func(base.ExecutiveContext)) }); ok {
			d.Defer(func(inner base.ExecutiveContext) { _, _ = bodyQ.Execute(inner) })
		}
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		bodyQ.CollectVariables(staged, temp)
	}, &sloc)
}
