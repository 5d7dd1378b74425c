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

// IfStatement evaluates Cond then runs exactly one of Then/Else. It is a
// terminator only if both arms are (an empty Else never is).
type IfStatement struct {
	Cond Block
	Then Block
	Else Block
}

func (n *IfStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *IfStatement) IsTerminator() bool {
	return n.Then.IsTerminator() && n.Else.IsTerminator()
}
func (n *IfStatement) CollectVariables(staged, temp avmc.VariableMap) {
	n.Cond.CollectVariables(staged, temp)
	n.Then.CollectVariables(staged, temp)
	n.Else.CollectVariables(staged, temp)
}
func (n *IfStatement) Rebind(ctx *RebindContext) Node {
	return &IfStatement{Cond: n.Cond.Rebind(ctx), Then: n.Then.Rebind(ctx), Else: n.Else.Rebind(ctx)}
}

func (n *IfStatement) Solidify(q *avmc.Queue) {
	condQ := avmc.NewQueue()
	n.Cond.Solidify(condQ)
	thenQ := avmc.NewQueue()
	n.Then.Solidify(thenQ)
	elseQ := avmc.NewQueue()
	n.Else.Solidify(elseQ)

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if status, err := condQ.Execute(ctx); err != nil || status != base.StatusNext {
			return status, err
		}
		refs := ctx.PopRefs(1)
		if refs[0].Read().IsTruthy() {
			return thenQ.Execute(ctx)
		}
		return elseQ.Execute(ctx)
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		condQ.CollectVariables(staged, temp)
		thenQ.CollectVariables(staged, temp)
		elseQ.CollectVariables(staged, temp)
	}, nil)
}

// SwitchClause is one `case`/`default` arm of a switch_statement.
type SwitchClause struct {
	// Label is nil for the `default` clause.
	Label *base.Value
	Body  Block
}

// SwitchStatement evaluates Cond, then runs clauses from the first
// matching label (falling through, as Asteria's switch does, until a
// break_switch status is produced or the clause list ends).
type SwitchStatement struct {
	Cond    Block
	Clauses []SwitchClause
}

func (n *SwitchStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }

// IsTerminator reports true only when the switch is exhaustive (some clause
// is the `default`, i.e. has a nil Label) and every clause's body is itself
// a terminator, so no path through the switch can fall off the end.
func (n *SwitchStatement) IsTerminator() bool {
	hasDefault := false
	for _, c := range n.Clauses {
		if !c.Body.IsTerminator() {
			return false
		}
		if c.Label == nil {
			hasDefault = true
		}
	}
	return hasDefault
}
func (n *SwitchStatement) CollectVariables(staged, temp avmc.VariableMap) {
	n.Cond.CollectVariables(staged, temp)
	for _, c := range n.Clauses {
		c.Body.CollectVariables(staged, temp)
	}
}
func (n *SwitchStatement) Rebind(ctx *RebindContext) Node {
	clauses := make([]SwitchClause, len(n.Clauses))
	for i, c := range n.Clauses {
		clauses[i] = SwitchClause{Label: c.Label, Body: c.Body.Rebind(ctx)}
	}
	return &SwitchStatement{Cond: n.Cond.Rebind(ctx), Clauses: clauses}
}

func (n *SwitchStatement) Solidify(q *avmc.Queue) {
	condQ := avmc.NewQueue()
	n.Cond.Solidify(condQ)
	clauseQs := make([]*avmc.Queue, len(n.Clauses))
	labels := make([]*base.Value, len(n.Clauses))
	for i, c := range n.Clauses {
		cq := avmc.NewQueue()
		c.Body.Solidify(cq)
		clauseQs[i] = cq
		labels[i] = c.Label
	}

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if status, err := condQ.Execute(ctx); err != nil || status != base.StatusNext {
			return status, err
		}
		refs := ctx.PopRefs(1)
		v := refs[0].Read()

		start := -1
		for i, label := range labels {
			if label == nil {
				continue
			}
			if label.Equal(v) {
				start = i
				break
			}
		}
		if start < 0 {
			for i, label := range labels {
				if label == nil {
					start = i
					break
				}
			}
		}
		if start < 0 {
			return base.StatusNext, nil
		}
		for i := start; i < len(clauseQs); i++ {
			status, err := clauseQs[i].Execute(ctx)
			if err != nil {
				return status, err
			}
			switch status {
			case base.StatusBreakSwitch, base.StatusBreakUnspec:
				return base.StatusNext, nil
			case base.StatusNext:
				continue
			default:
				return status, nil
			}
		}
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		condQ.CollectVariables(staged, temp)
		for _, cq := range clauseQs {
			cq.CollectVariables(staged, temp)
		}
	}, nil)
}

// WhileStatement repeats Body while Cond is truthy; continue_while is
// absorbed (the loop just re-tests the condition), break_while and
// break_unspec terminate the loop, any other non-Next status propagates.
type WhileStatement struct {
	Cond Block
	Body Block
}

func (n *WhileStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *WhileStatement) IsTerminator() bool              { return false }
func (n *WhileStatement) CollectVariables(staged, temp avmc.VariableMap) {
	n.Cond.CollectVariables(staged, temp)
	n.Body.CollectVariables(staged, temp)
}
func (n *WhileStatement) Rebind(ctx *RebindContext) Node {
	return &WhileStatement{Cond: n.Cond.Rebind(ctx), Body: n.Body.Rebind(ctx)}
}

func (n *WhileStatement) Solidify(q *avmc.Queue) {
	condQ := avmc.NewQueue()
	n.Cond.Solidify(condQ)
	bodyQ := avmc.NewQueue()
	n.Body.Solidify(bodyQ)

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		for {
			if status, err := condQ.Execute(ctx); err != nil || status != base.StatusNext {
				return status, err
			}
			refs := ctx.PopRefs(1)
			if !refs[0].Read().IsTruthy() {
				return base.StatusNext, nil
			}
			status, err := bodyQ.Execute(ctx)
			if err != nil {
				return status, err
			}
			switch status {
			case base.StatusNext, base.StatusContinueWhile, base.StatusContinueUnspec:
				continue
			case base.StatusBreakWhile, base.StatusBreakUnspec:
				return base.StatusNext, nil
			default:
				return status, nil
			}
		}
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		condQ.CollectVariables(staged, temp)
		bodyQ.CollectVariables(staged, temp)
	}, nil)
}

// DoWhileStatement runs Body at least once, then repeats while Cond holds.
type DoWhileStatement struct {
	Body Block
	Cond Block
}

func (n *DoWhileStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *DoWhileStatement) IsTerminator() bool              { return false }
func (n *DoWhileStatement) CollectVariables(staged, temp avmc.VariableMap) {
	n.Body.CollectVariables(staged, temp)
	n.Cond.CollectVariables(staged, temp)
}
func (n *DoWhileStatement) Rebind(ctx *RebindContext) Node {
	return &DoWhileStatement{Body: n.Body.Rebind(ctx), Cond: n.Cond.Rebind(ctx)}
}

func (n *DoWhileStatement) Solidify(q *avmc.Queue) {
	bodyQ := avmc.NewQueue()
	n.Body.Solidify(bodyQ)
	condQ := avmc.NewQueue()
	n.Cond.Solidify(condQ)

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		for {
			status, err := bodyQ.Execute(ctx)
			if err != nil {
				return status, err
			}
			switch status {
			case base.StatusNext, base.StatusContinueWhile, base.StatusContinueUnspec:
				// fall through to re-test Cond
			case base.StatusBreakWhile, base.StatusBreakUnspec:
				return base.StatusNext, nil
			default:
				return status, nil
			}
			if status, err := condQ.Execute(ctx); err != nil || status != base.StatusNext {
				return status, err
			}
			refs := ctx.PopRefs(1)
			if !refs[0].Read().IsTruthy() {
				return base.StatusNext, nil
			}
		}
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		bodyQ.CollectVariables(staged, temp)
		condQ.CollectVariables(staged, temp)
	}, nil)
}

// ForStatement is the C-style `for (Init; Cond; Step) Body` loop.
type ForStatement struct {
	Init Block
	Cond Block
	Step Block
	Body Block
}

func (n *ForStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ForStatement) IsTerminator() bool              { return false }
func (n *ForStatement) CollectVariables(staged, temp avmc.VariableMap) {
	n.Init.CollectVariables(staged, temp)
	n.Cond.CollectVariables(staged, temp)
	n.Step.CollectVariables(staged, temp)
	n.Body.CollectVariables(staged, temp)
}
func (n *ForStatement) Rebind(ctx *RebindContext) Node {
	return &ForStatement{
		Init: n.Init.Rebind(ctx), Cond: n.Cond.Rebind(ctx),
		Step: n.Step.Rebind(ctx), Body: n.Body.Rebind(ctx),
	}
}

func (n *ForStatement) Solidify(q *avmc.Queue) {
	initQ := avmc.NewQueue()
	n.Init.Solidify(initQ)
	condQ := avmc.NewQueue()
	n.Cond.Solidify(condQ)
	stepQ := avmc.NewQueue()
	n.Step.Solidify(stepQ)
	bodyQ := avmc.NewQueue()
	n.Body.Solidify(bodyQ)

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if status, err := initQ.Execute(ctx); err != nil || status != base.StatusNext {
			return status, err
		}
		for {
			if len(condQ.Nodes()) > 0 {
				if status, err := condQ.Execute(ctx); err != nil || status != base.StatusNext {
					return status, err
				}
				refs := ctx.PopRefs(1)
				if !refs[0].Read().IsTruthy() {
					return base.StatusNext, nil
				}
			}
			status, err := bodyQ.Execute(ctx)
			if err != nil {
				return status, err
			}
			switch status {
			case base.StatusNext, base.StatusContinueFor, base.StatusContinueUnspec:
				// fall through to Step
			case base.StatusBreakFor, base.StatusBreakUnspec:
				return base.StatusNext, nil
			default:
				return status, nil
			}
			if status, err := stepQ.Execute(ctx); err != nil || status != base.StatusNext {
				return status, err
			}
		}
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		initQ.CollectVariables(staged, temp)
		condQ.CollectVariables(staged, temp)
		stepQ.CollectVariables(staged, temp)
		bodyQ.CollectVariables(staged, temp)
	}, nil)
}

// ForEachStatement iterates the array popped from the top of the stack,
// declaring KeyName (index, as an integer) and ValueName in Body's scope
// for each element.
type ForEachStatement struct {
	KeyName   string
	ValueName string
	Range     Block
	Body      Block
}

func (n *ForEachStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *ForEachStatement) IsTerminator() bool              { return false }
func (n *ForEachStatement) CollectVariables(staged, temp avmc.VariableMap) {
	n.Range.CollectVariables(staged, temp)
	n.Body.CollectVariables(staged, temp)
}
func (n *ForEachStatement) Rebind(ctx *RebindContext) Node {
	return &ForEachStatement{
		KeyName: n.KeyName, ValueName: n.ValueName,
		Range: n.Range.Rebind(ctx), Body: n.Body.Rebind(ctx),
	}
}

func (n *ForEachStatement) Solidify(q *avmc.Queue) {
	rangeQ := avmc.NewQueue()
	n.Range.Solidify(rangeQ)
	bodyQ := avmc.NewQueue()
	n.Body.Solidify(bodyQ)
	keyName, valueName := n.KeyName, n.ValueName

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		if status, err := rangeQ.Execute(ctx); err != nil || status != base.StatusNext {
			return status, err
		}
		refs := ctx.PopRefs(1)
		arr := refs[0].Read().Arr
		for i, elem := range arr {
			if keyName != "" {
				ctx.DeclareRef(keyName, base.RefToValue(base.Int(int64(i))))
			}
			ctx.DeclareRef(valueName, base.RefToValue(elem))
			status, err := bodyQ.Execute(ctx)
			if err != nil {
				return status, err
			}
			switch status {
			case base.StatusNext, base.StatusContinueFor, base.StatusContinueUnspec:
				continue
			case base.StatusBreakFor, base.StatusBreakUnspec:
				return base.StatusNext, nil
			default:
				return status, nil
			}
		}
		return base.StatusNext, nil
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		rangeQ.CollectVariables(staged, temp)
		bodyQ.CollectVariables(staged, temp)
	}, nil)
}

// TryStatement runs Body; if it raises an error, the error is converted
// to a script value bound to CatchName and Catch runs against it instead
// of letting the error propagate. The bound value is the error's text,
// taken after a "try" backtrace frame is appended to the caught error, so
// it includes that frame; errors raised by Catch itself propagate without
// one.
type TryStatement struct {
	Sloc      base.SourceLocation
	Body      Block
	CatchName string
	Catch     Block
}

func (n *TryStatement) IsConstant() (base.Value, bool) { return base.Value{}, false }
func (n *TryStatement) IsTerminator() bool              { return false }
func (n *TryStatement) CollectVariables(staged, temp avmc.VariableMap) {
	n.Body.CollectVariables(staged, temp)
	n.Catch.CollectVariables(staged, temp)
}
func (n *TryStatement) Rebind(ctx *RebindContext) Node {
	return &TryStatement{
		Sloc: n.Sloc, Body: n.Body.Rebind(ctx),
		CatchName: n.CatchName, Catch: n.Catch.Rebind(ctx),
	}
}

func (n *TryStatement) Solidify(q *avmc.Queue) {
	bodyQ := avmc.NewQueue()
	n.Body.Solidify(bodyQ)
	catchQ := avmc.NewQueue()
	n.Catch.Solidify(catchQ)
	sloc, catchName := n.Sloc, n.CatchName

	_, _ = q.Append(func(ctx base.ExecutiveContext, _ *avmc.Node) (base.Status, error) {
		status, err := bodyQ.Execute(ctx)
		if err == nil {
			return status, nil
		}
		re := base.NewRuntimeError(err)
		re.PushFrame(base.BacktraceFrame{Type: base.FrameTry, Sloc: sloc})
		caught := &base.Variable{Value: base.Str(re.Error())}
		ctx.DeclareRef(catchName, base.RefToVariable(caught))
		return catchQ.Execute(ctx)
	}, avmc.Uparam{}, 0, nil, nil, func(staged, temp avmc.VariableMap, _ *avmc.Node) {
		bodyQ.CollectVariables(staged, temp)
		catchQ.CollectVariables(staged, temp)
	}, &sloc)
}
