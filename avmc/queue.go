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

package avmc

import (
	"fmt"

	"github.com/asteria-lang/asteria/base"
)

// HeaderSize is the size in bytes of a node's fixed prefix (1 byte
// nheaders + 1 byte metaVer + the 6-byte Uparam payload), used purely for
// the nheaders/capacity bookkeeping arithmetic the data model specifies;
// Go's GC-managed Node values are not literally packed at this width.
const HeaderSize = 8

// maxCapacitySlots bounds capacity so that capacity*HeaderSize < 2 GiB.
const maxCapacitySlots = (2 * 1024 * 1024 * 1024) / HeaderSize - 1

// maxSparamBytes is the largest declared sparam size: 255*HeaderSize - 1.
const maxSparamBytes = 255*HeaderSize - 1

// Executor interprets one node against an executive context and returns
// an AIR status.
type Executor func(ctx base.ExecutiveContext, n *Node) (base.Status, error)

// Destructor releases any resources a node's sparam payload owns.
type Destructor func(n *Node)

// VariableMap is the staged/temp hash-map pair collect_variables walks
// live references into.
type VariableMap map[*base.Variable]struct{}

// VarGetter reports a node's live variable references into staged/temp.
type VarGetter func(staged, temp VariableMap, n *Node)

// Metadata is the side record a node owns when it needs more than a bare
// executor pointer: present iff metaVer > 0.
type Metadata struct {
	Exec    Executor
	Dtor    Destructor
	Vget    VarGetter
	Sloc    base.SourceLocation
	HasSloc bool
}

// Node is one record in the queue: the fixed prefix (nheaders, metaVer),
// the inline Uparam payload, and the node's sparam — realized here as an
// arbitrary owned Go value rather than a raw byte region, since Go values
// are already GC-owned and there is nothing an sparam byte buffer would
// buy a managed runtime that a typed field does not (see DESIGN.md).
type Node struct {
	nheaders uint8
	metaVer  uint8
	Uparam   Uparam
	exec     Executor // valid iff metaVer == 0
	meta     *Metadata
	Sparam   interface{}
}

// NHeaders is the number of additional header-sized slots this node's
// sparam declares consuming.
func (n *Node) NHeaders() uint8 { return n.nheaders }

// MetaVer reports the node's metadata version (0, 1, or 2).
func (n *Node) MetaVer() uint8 { return n.metaVer }

// HasMetadata reports whether the node allocated a Metadata record.
func (n *Node) HasMetadata() bool { return n.metaVer != 0 }

// SourceLocation returns the node's carried source location, if any.
func (n *Node) SourceLocation() (base.SourceLocation, bool) {
	if n.meta != nil && n.meta.HasSloc {
		return n.meta.Sloc, true
	}
	return base.SourceLocation{}, false
}

// Executor returns the node's executor function, read directly when
// metaVer == 0 or via metadata otherwise.
func (n *Node) Executor() Executor {
	if n.metaVer == 0 {
		return n.exec
	}
	return n.meta.Exec
}

// Queue is the append-only (until Finalize), contiguous, variable-record
// buffer of executable nodes a solidified AIR program runs against.
type Queue struct {
	nodes    []*Node
	used     uint32 // valid length in header-sized slots
	capacity uint32 // allocation in header-sized slots
	sealed   bool
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Len returns the number of nodes appended so far.
func (q *Queue) Len() int { return len(q.nodes) }

// Used returns the queue's valid length in header-sized slots; this is
// the quantity the "sum of (1+nheaders) equals used" invariant covers.
func (q *Queue) Used() uint32 { return q.used }

// Capacity returns the queue's current allocation in header-sized slots.
func (q *Queue) Capacity() uint32 { return q.capacity }

// Sealed reports whether Finalize has been called.
func (q *Queue) Sealed() bool { return q.sealed }

// Nodes returns the queue's nodes in insertion order, for disassembly and
// tests. The returned slice must not be mutated.
func (q *Queue) Nodes() []*Node { return q.nodes }

func (q *Queue) ensureCapacity(need uint32) error {
	if q.capacity-q.used >= need {
		return nil
	}
	want := q.used + need
	newCap := want
	if grown := q.capacity * 2; grown > newCap {
		newCap = grown
	}
	if newCap > maxCapacitySlots {
		if want > maxCapacitySlots {
			return fmt.Errorf("asteria: AVMC queue capacity would exceed 2 GiB bound (want %d slots)", want)
		}
		newCap = maxCapacitySlots
	}
	q.capacity = newCap
	return nil
}

// Append adds a new node to the queue.
//
// exec is the node's executor. uparam is its packed inline payload.
// sparamSize is the *declared* size in bytes of the node's side
// parameter, used only for the nheaders/capacity bookkeeping; init, if
// non-nil, is called on the freshly appended node to populate Sparam
// (the Go realization of the original's ctor/ctor_arg pair — a closure
// captures whatever the original passed as ctor_arg). dtor and vget are
// optional; sloc, if non-nil, attaches a source location.
//
// Field write order mirrors the original: Uparam is written before
// nheaders, because in the C++ source the two alias the same header
// bytes and must be written in that order for the aliasing to resolve
// correctly; nothing aliases in this Go port, but the order is preserved
// so the contract reads identically against the original.
func (q *Queue) Append(exec Executor, uparam Uparam, sparamSize int, init func(*Node),
	dtor Destructor, vget VarGetter, sloc *base.SourceLocation) (*Node, error) {
	if q.sealed {
		panic(fmt.Errorf("%w: Append called after Finalize", base.ErrQueueSealed))
	}
	if sparamSize < 0 || sparamSize > maxSparamBytes {
		return nil, fmt.Errorf("%w (`%d` > `%d`)", base.ErrInvalidSparam, sparamSize, maxSparamBytes)
	}

	// nheaders_p1 = ceil((sparam_bytes + header_size) / header_size).
	nheadersP1 := (uint32(sparamSize) + 2*HeaderSize - 1) / HeaderSize
	if err := q.ensureCapacity(nheadersP1); err != nil {
		return nil, err
	}

	n := &Node{}
	n.Uparam = uparam
	n.nheaders = uint8(nheadersP1 - 1)

	if init != nil {
		init(n)
	}

	hasMeta := dtor != nil || vget != nil || sloc != nil
	switch {
	case !hasMeta:
		n.exec = exec
		n.metaVer = 0
	default:
		meta := &Metadata{Exec: exec, Dtor: dtor, Vget: vget}
		metaVer := uint8(1)
		if sloc != nil {
			meta.Sloc = *sloc
			meta.HasSloc = true
			metaVer = 2
		}
		n.meta = meta
		n.metaVer = metaVer
	}

	q.nodes = append(q.nodes, n)
	q.used += nheadersP1
	return n, nil
}

// Finalize seals the queue: a true no-op beyond that, exactly mirroring
// the original's "TODO: Add JIT support" — Execute's behavior is
// unaffected by whether Finalize was ever called. The one new, enforced
// structure is that Append after Finalize panics, treating the sealed
// state as a programmer invariant rather than a silently-accepted no-op.
func (q *Queue) Finalize() {
	q.sealed = true
}

// Execute walks the queue from the first node to the end, dispatching
// each node's executor and translating the returned status. On a native
// error escaping a node, the error is wrapped into a *base.RuntimeError
// (if it is not one already) and, iff the node carries a source location,
// annotated with a "plain" frame before being returned — the literal
// resolution of "wrap first, then annotate iff sloc is available".
//
// meta_ver values above 2 can only arise from a bug in this package's own
// Append (the public API gives no way to construct one directly), so
// Execute treats one as an invariant violation and panics rather than
// silently diverging.
func (q *Queue) Execute(ctx base.ExecutiveContext) (base.Status, error) {
	for _, n := range q.nodes {
		if n.metaVer > 2 {
			panic(fmt.Sprintf("asteria: invalid meta_ver %d (invariant violation)", n.metaVer))
		}

		status, err := n.Executor()(ctx, n)
		if err != nil {
			re := base.NewRuntimeError(err)
			if sloc, ok := n.SourceLocation(); ok {
				re.PushFramePlain(sloc)
			}
			return base.StatusNext, re
		}
		if status != base.StatusNext {
			return status, nil
		}
	}
	return base.StatusNext, nil
}

// CollectVariables iterates every node; nodes with metadata and a
// variable-getter report their live references into staged/temp. Used by
// the reference-cycle collector.
func (q *Queue) CollectVariables(staged, temp VariableMap) {
	for _, n := range q.nodes {
		if n.metaVer == 0 || n.meta.Vget == nil {
			continue
		}
		n.meta.Vget(staged, temp, n)
	}
}

// Clear runs each node's destructor (if any) exactly once, then empties
// the queue. Clearing leaves an empty, unsealed-state-preserving queue
// (Sealed() is untouched — clearing a finalized queue is legal and keeps
// it sealed, matching "destroying a queue" semantics without literally
// deallocating anything a Go GC will reclaim on its own).
func (q *Queue) Clear() {
	for _, n := range q.nodes {
		if n.metaVer != 0 && n.meta.Dtor != nil {
			n.meta.Dtor(n)
		}
	}
	q.nodes = q.nodes[:0]
	q.used = 0
}
