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

import "fmt"

// ValueKind tags the dynamic type of a Value. The full value model (with
// opaque host handles, function objects backed by closures over queues,
// etc.) is out of this core's scope; Value is deliberately the minimal
// tagged union the executor needs to read and write in order to exercise
// push_constant, apply_operator, return_statement, and the other node
// contracts against something concrete.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBoolean
	KindInteger
	KindReal
	KindString
	KindArray
	KindObject
)

// Value is Asteria's dynamically-typed runtime value, reduced to the shape
// the execution core actually touches.
type Value struct {
	Kind ValueKind
	B    bool
	I    int64
	R    float64
	S    string
	Arr  []Value
	Obj  map[string]Value
}

func Null() Value             { return Value{Kind: KindNull} }
func Bool(b bool) Value       { return Value{Kind: KindBoolean, B: b} }
func Int(i int64) Value       { return Value{Kind: KindInteger, I: i} }
func Real(r float64) Value    { return Value{Kind: KindReal, R: r} }
func Str(s string) Value      { return Value{Kind: KindString, S: s} }
func Array(v ...Value) Value  { return Value{Kind: KindArray, Arr: v} }

// IsTruthy implements Asteria's boolean-coercion rule for conditional nodes.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBoolean:
		return v.B
	case KindInteger:
		return v.I != 0
	case KindReal:
		return v.R != 0
	case KindString:
		return v.S != ""
	case KindArray:
		return len(v.Arr) != 0
	case KindObject:
		return len(v.Obj) != 0
	default:
		return false
	}
}

// Equal implements value equality for cmp_eq/cmp_ne.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBoolean:
		return v.B == o.B
	case KindInteger:
		return v.I == o.I
	case KindReal:
		return v.R == o.R
	case KindString:
		return v.S == o.S
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBoolean:
		return fmt.Sprintf("%t", v.B)
	case KindInteger:
		return fmt.Sprintf("%d", v.I)
	case KindReal:
		return fmt.Sprintf("%g", v.R)
	case KindString:
		return v.S
	case KindArray:
		return fmt.Sprintf("%v", v.Arr)
	case KindObject:
		return fmt.Sprintf("%v", v.Obj)
	default:
		return "<?>"
	}
}

// Variable is a named storage cell, the unit the reference-cycle collector
// walks (C9) and declare_variable/initialize_variable operate on.
type Variable struct {
	Value    Value
	Constant bool
}

// Reference is an entry on the executive context's reference stack: either
// bound to a Variable (an lvalue) or holding a materialized temporary.
type Reference struct {
	Var *Variable
	Val Value
}

// RefToValue makes an unbound temporary reference.
func RefToValue(v Value) Reference { return Reference{Val: v} }

// RefToVariable makes a reference bound to a variable (an lvalue).
func RefToVariable(v *Variable) Reference { return Reference{Var: v} }

// Read dereferences, yielding the value whether bound or not.
func (r Reference) Read() Value {
	if r.Var != nil {
		return r.Var.Value
	}
	return r.Val
}

// Write stores through the reference; on an unbound reference it just
// rewrites the held temporary.
func (r *Reference) Write(v Value) {
	if r.Var != nil {
		r.Var.Value = v
		return
	}
	r.Val = v
}

// IsLValue reports whether the reference is bound to a variable.
func (r Reference) IsLValue() bool { return r.Var != nil }
