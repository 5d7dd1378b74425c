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

// Package base holds the small shared vocabulary that the AVMC queue, the
// AIR node set, and the executive context all need to agree on: the AIR
// status alphabet, source locations and backtraces, the abstract hooks
// interface, and the minimal executive-context contract a node executor
// is handed. It has no dependencies on the rest of the module so that
// avmc, air, runtime, and loader can all import it without cycles.
package base

// Status is the AIR executor's return alphabet (see AIR status enum).
type Status uint8

const (
	// StatusNext means "fall through to the next node".
	StatusNext Status = iota
	StatusReturnVoid
	StatusReturnRef
	StatusReturnVal
	StatusBreakUnspec
	StatusBreakSwitch
	StatusBreakWhile
	StatusBreakFor
	StatusContinueUnspec
	StatusContinueWhile
	StatusContinueFor

	// statusDeferredTailCall is internal: it is never observed outside the
	// trampoline in package runtime. A node whose call is PTC-aware returns
	// this status instead of invoking its target directly; Invoke consumes
	// it and re-enters the target in place of a native call.
	statusDeferredTailCall
)

// IsDeferredTailCall reports whether s is the internal PTC trampoline
// signal. The constant itself is unexported; other packages obtain the
// status through DeferredTailCall below and test for it with this
// predicate.
func (s Status) IsDeferredTailCall() bool { return s == statusDeferredTailCall }

// DeferredTailCall is the status a call-emitting executor returns when its
// node's PTCAware tag is not PTCAwareNone. The trampoline in package
// runtime is the only caller expected to special-case it.
func DeferredTailCall() Status { return statusDeferredTailCall }

func (s Status) String() string {
	switch s {
	case StatusNext:
		return "next"
	case StatusReturnVoid:
		return "return_void"
	case StatusReturnRef:
		return "return_ref"
	case StatusReturnVal:
		return "return_val"
	case StatusBreakUnspec:
		return "break_unspec"
	case StatusBreakSwitch:
		return "break_switch"
	case StatusBreakWhile:
		return "break_while"
	case StatusBreakFor:
		return "break_for"
	case StatusContinueUnspec:
		return "continue_unspec"
	case StatusContinueWhile:
		return "continue_while"
	case StatusContinueFor:
		return "continue_for"
	case statusDeferredTailCall:
		return "deferred_tail_call"
	default:
		return "status(?)"
	}
}

// IsReturn reports whether s terminates the enclosing function activation.
func (s Status) IsReturn() bool {
	switch s {
	case StatusReturnVoid, StatusReturnRef, StatusReturnVal:
		return true
	default:
		return false
	}
}

// PTCAware tags a call-emitting AIR node with how it participates in a
// proper tail call.
type PTCAware uint8

const (
	PTCAwareNone PTCAware = iota
	PTCAwareByRef
	PTCAwareByVal
	PTCAwareVoid
)

func (p PTCAware) String() string {
	switch p {
	case PTCAwareNone:
		return "none"
	case PTCAwareByRef:
		return "by_ref"
	case PTCAwareByVal:
		return "by_val"
	case PTCAwareVoid:
		return "void"
	default:
		return "ptc(?)"
	}
}

// FrameType tags one entry of a Runtime_Error's backtrace.
type FrameType uint8

const (
	FrameNative FrameType = iota
	FrameThrow
	FrameCatch
	FrameCall
	FrameFunc
	FrameTry
	FrameAssert
	FramePlain
)

func (t FrameType) String() string {
	switch t {
	case FrameNative:
		return "native"
	case FrameThrow:
		return "throw"
	case FrameCatch:
		return "catch"
	case FrameCall:
		return "call"
	case FrameFunc:
		return "func"
	case FrameTry:
		return "try"
	case FrameAssert:
		return "assert"
	case FramePlain:
		return "plain"
	default:
		return "frame(?)"
	}
}

// Xop enumerates the unary/binary/ternary operators apply_operator and
// apply_operator_bi32 may carry. Lowering and execution must agree on this
// encoding.
type Xop uint8

const (
	XopPos Xop = iota
	XopNeg
	XopNotb
	XopNotl
	XopInc
	XopDec
	XopUnset
	XopCountof
	XopTypeof
	XopSqrt
	XopIsnan
	XopIsinf
	XopAbs
	XopSign
	XopRound
	XopFloor
	XopCeil
	XopTrunc
	XopIround
	XopIfloor
	XopIceil
	XopItrunc
	XopRandom
	XopAdd
	XopSub
	XopMul
	XopDiv
	XopMod
	XopAndb
	XopOrb
	XopXorb
	XopSll
	XopSla
	XopSrl
	XopSra
	XopCmpEq
	XopCmpNe
	XopCmpLt
	XopCmpGt
	XopCmpLte
	XopCmpGte
	XopCmp3way
	XopAssign
	XopFma
)

var xopNames = [...]string{
	"pos", "neg", "notb", "notl", "inc", "dec", "unset", "countof", "typeof",
	"sqrt", "isnan", "isinf", "abs", "sign", "round", "floor", "ceil", "trunc",
	"iround", "ifloor", "iceil", "itrunc", "random", "add", "sub", "mul",
	"div", "mod", "andb", "orb", "xorb", "sll", "sla", "srl", "sra",
	"cmp_eq", "cmp_ne", "cmp_lt", "cmp_gt", "cmp_lte", "cmp_gte", "cmp_3way",
	"assign", "fma",
}

func (x Xop) String() string {
	if int(x) < len(xopNames) {
		return xopNames[x]
	}
	return "xop(?)"
}
