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
	"fmt"

	"github.com/asteria-lang/asteria/avmc"
	"github.com/asteria-lang/asteria/base"
)

// applyBinary implements the small subset of Xop this execution core needs
// to exercise arithmetic/comparison against base.Value directly; the full
// operator set (string/array/object overloads, fma, bitwise shifts, …)
// belongs to the value model and is out of scope here.
func applyBinary(op base.Xop, a, b base.Value) (base.Value, error) {
	switch op {
	case base.XopAdd:
		return base.Int(a.I + b.I), nil
	case base.XopSub:
		return base.Int(a.I - b.I), nil
	case base.XopMul:
		return base.Int(a.I * b.I), nil
	case base.XopDiv:
		if b.I == 0 {
			return base.Value{}, fmt.Errorf("asteria: division by zero")
		}
		return base.Int(a.I / b.I), nil
	case base.XopMod:
		if b.I == 0 {
			return base.Value{}, fmt.Errorf("asteria: division by zero")
		}
		return base.Int(a.I % b.I), nil
	case base.XopCmpEq:
		return base.Bool(a.Equal(b)), nil
	case base.XopCmpNe:
		return base.Bool(!a.Equal(b)), nil
	case base.XopCmpLt:
		return base.Bool(a.I < b.I), nil
	case base.XopCmpGt:
		return base.Bool(a.I > b.I), nil
	case base.XopCmpLte:
		return base.Bool(a.I <= b.I), nil
	case base.XopCmpGte:
		return base.Bool(a.I >= b.I), nil
	default:
		return base.Value{}, fmt.Errorf("asteria: operator %s not implemented by this execution core", op)
	}
}

func applyUnary(op base.Xop, a base.Value) (base.Value, error) {
	switch op {
	case base.XopNeg:
		return base.Int(-a.I), nil
	case base.XopNotl:
		return base.Bool(!a.IsTruthy()), nil
	case base.XopNotb:
		return base.Int(^a.I), nil
	case base.XopPos:
		return a, nil
	default:
		return base.Value{}, fmt.Errorf("asteria: unary operator %s not implemented by this execution core", op)
	}
}

// ApplyOperator pops one or two operands off the reference stack, applies
// Op, and pushes the (unbound) result. Binary is false for the unary
// operator family (neg, notl, …).
type ApplyOperator struct {
	Sloc   base.SourceLocation
	Op     base.Xop
	Binary bool
}

func (n *ApplyOperator) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ApplyOperator) IsTerminator() bool              { return false }
func (n *ApplyOperator) Rebind(*RebindContext) Node      { return n }
func (n *ApplyOperator) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *ApplyOperator) Solidify(q *avmc.Queue) {
	sloc, op, binary := n.Sloc, n.Op, n.Binary
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if binary {
			refs := ctx.PopRefs(2)
			result, err := applyBinary(op, refs[0].Read(), refs[1].Read())
			if err != nil {
				return base.StatusNext, err
			}
			ctx.PushRef(base.RefToValue(result))
			return base.StatusNext, nil
		}
		refs := ctx.PopRefs(1)
		result, err := applyUnary(op, refs[0].Read())
		if err != nil {
			return base.StatusNext, err
		}
		ctx.PushRef(base.RefToValue(result))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// ApplyOperatorBi32 is apply_operator's fast path against a literal int32
// right-hand operand folded into the node itself, skipping a push_constant
// for the common "variable op literal" shape.
type ApplyOperatorBi32 struct {
	Sloc base.SourceLocation
	Op   base.Xop
	Rhs  int32
}

func (n *ApplyOperatorBi32) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ApplyOperatorBi32) IsTerminator() bool              { return false }
func (n *ApplyOperatorBi32) Rebind(*RebindContext) Node      { return n }
func (n *ApplyOperatorBi32) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *ApplyOperatorBi32) Solidify(q *avmc.Queue) {
	sloc, op, rhs := n.Sloc, n.Op, n.Rhs
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		result, err := applyBinary(op, refs[0].Read(), base.Int(int64(rhs)))
		if err != nil {
			return base.StatusNext, err
		}
		ctx.PushRef(base.RefToValue(result))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// BranchExpression is the ternary/`if`-as-expression form: pop the
// condition, then solidify and run exactly one of TrueBranch/FalseBranch.
type BranchExpression struct {
	Cond        Block
	TrueBranch  Block
	FalseBranch Block
}

func (n *BranchExpression) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *BranchExpression) IsTerminator() bool              { return false }
func (n *BranchExpression) CollectVariables(staged, temp avmc.VariableMap) {
	n.Cond.CollectVariables(staged, temp)
	n.TrueBranch.CollectVariables(staged, temp)
	n.FalseBranch.CollectVariables(staged, temp)
}

func (n *BranchExpression) Rebind(ctx *RebindContext) Node {
	return &BranchExpression{
		Cond:        n.Cond.Rebind(ctx),
		TrueBranch:  n.TrueBranch.Rebind(ctx),
		FalseBranch: n.FalseBranch.Rebind(ctx),
	}
}

func (n *BranchExpression) Solidify(q *avmc.Queue) {
	condQ := avmc.NewQueue()
	n.Cond.Solidify(condQ)
	trueQ := avmc.NewQueue()
	n.TrueBranch.Solidify(trueQ)
	falseQ := avmc.NewQueue()
	n.FalseBranch.Solidify(falseQ)

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if status, err := condQ.Execute(ctx); err != nil || status != base.StatusNext {
			return status, err
		}
		refs := ctx.PopRefs(1)
		if refs[0].Read().IsTruthy() {
			return trueQ.Execute(ctx)
		}
		return falseQ.Execute(ctx)
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		condQ.CollectVariables(staged, temp)
		trueQ.CollectVariables(staged, temp)
		falseQ.CollectVariables(staged, temp)
	}, nil)
}

// CoalesceExpression evaluates Lhs; if the result is non-null it is kept,
// otherwise Rhs is evaluated in its place.
type CoalesceExpression struct {
	Lhs Block
	Rhs Block
}

func (n *CoalesceExpression) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *CoalesceExpression) IsTerminator() bool              { return false }
func (n *CoalesceExpression) CollectVariables(staged, temp avmc.VariableMap) {
	n.Lhs.CollectVariables(staged, temp)
	n.Rhs.CollectVariables(staged, temp)
}

func (n *CoalesceExpression) Rebind(ctx *RebindContext) Node {
	return &CoalesceExpression{Lhs: n.Lhs.Rebind(ctx), Rhs: n.Rhs.Rebind(ctx)}
}

func (n *CoalesceExpression) Solidify(q *avmc.Queue) {
	lhsQ := avmc.NewQueue()
	n.Lhs.Solidify(lhsQ)
	rhsQ := avmc.NewQueue()
	n.Rhs.Solidify(rhsQ)

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if status, err := lhsQ.Execute(ctx); err != nil || status != base.StatusNext {
			return status, err
		}
		top, _ := ctx.TopRef()
		if top.Read().Kind != base.KindNull {
			return base.StatusNext, nil
		}
		ctx.PopRefs(1)
		return rhsQ.Execute(ctx)
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		lhsQ.CollectVariables(staged, temp)
		rhsQ.CollectVariables(staged, temp)
	}, nil)
}

// CatchExpression runs Body; on error it pushes the error's text as a
// string (the same form of value TryStatement binds for its catch clause)
// instead of propagating, implementing the `catch` expression form used
// inline in expressions rather than as a statement.
type CatchExpression struct {
	Body Block
}

func (n *CatchExpression) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *CatchExpression) IsTerminator() bool              { return false }
func (n *CatchExpression) CollectVariables(staged, temp avmc.VariableMap) {
	n.Body.CollectVariables(staged, temp)
}
func (n *CatchExpression) Rebind(ctx *RebindContext) Node {
	return &CatchExpression{Body: n.Body.Rebind(ctx)}
}

func (n *CatchExpression) Solidify(q *avmc.Queue) {
	bodyQ := avmc.NewQueue()
	n.Body.Solidify(bodyQ)
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		status, err := bodyQ.Execute(ctx)
		if err != nil {
			re := base.NewRuntimeError(err)
			ctx.PushRef(base.RefToValue(base.Str(re.Error())))
			return base.StatusNext, nil
		}
		return status, nil
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		bodyQ.CollectVariables(staged, temp)
	}, nil)
}

// CheckArgument validates that the Index-th argument of the current
// activation was actually supplied (as opposed to defaulted), throwing if
// required arguments are missing.
type CheckArgument struct {
	Sloc     base.SourceLocation
	Index    int
	Required bool
}

func (n *CheckArgument) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *CheckArgument) IsTerminator() bool              { return false }
func (n *CheckArgument) Rebind(*RebindContext) Node      { return n }
func (n *CheckArgument) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *CheckArgument) Solidify(q *avmc.Queue) {
	sloc, index, required := n.Sloc, n.Index, n.Required
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		top, ok := ctx.TopRef()
		if required && (!ok || top.Read().Kind == base.KindNull) {
			return base.StatusNext, fmt.Errorf("asteria: argument %d is required", index)
		}
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// CheckNull throws unless the top of the stack holds `null`, the inverse
// guard of check_argument's required case; used to enforce preconditions
// like "this optional parameter must have been omitted".
type CheckNull struct {
	Sloc base.SourceLocation
}

func (n *CheckNull) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *CheckNull) IsTerminator() bool              { return false }
func (n *CheckNull) Rebind(*RebindContext) Node      { return n }
func (n *CheckNull) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *CheckNull) Solidify(q *avmc.Queue) {
	sloc := n.Sloc
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		top, ok := ctx.TopRef()
		if !ok || top.Read().Kind != base.KindNull {
			return base.StatusNext, fmt.Errorf("asteria: expected null")
		}
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}

// MemberAccess pops a container reference and indexes it by the node's own
// Key, pushing a temporary reference to a copy of the member's value; it
// throws if the container is not an object.
type MemberAccess struct {
	Sloc base.SourceLocation
	Key  string
}

func (n *MemberAccess) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *MemberAccess) IsTerminator() bool              { return false }
func (n *MemberAccess) Rebind(*RebindContext) Node      { return n }
func (n *MemberAccess) CollectVariables(avmc.VariableMap, avmc.VariableMap) {}

func (n *MemberAccess) Solidify(q *avmc.Queue) {
	sloc, key := n.Sloc, n.Key
	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		refs := ctx.PopRefs(1)
		obj := refs[0].Read()
		if obj.Kind != base.KindObject {
			return base.StatusNext, fmt.Errorf("asteria: member access on non-object value")
		}
		ctx.PushRef(base.RefToValue(obj.Obj[key]))
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, nil, &sloc)
}
