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

// Package avmc implements the append-only, variable-record bytecode queue
// (AVMC: "append, variable-length, metadata, contiguous") that the
// solidified AIR program executes against. A queue is a contiguous run of
// Nodes, each a fixed Uparam payload plus an optional sparam value,
// executed in insertion order.
//
// This is a Go realization, not a byte-for-byte port: the original C++
// AVMC_Queue overlays a 6-byte payload directly onto the high bytes of a
// node header via a union, and stores the header array as raw bytes.
// Here the "header" is a Go struct (Node) holding a typed Uparam view and
// an interface{} sparam, and the queue is a []*Node slice; the
// append/execute/collect/clear contracts
// — including the exact field-write ordering in Append and the exact
// three-way meta_ver dispatch in Execute — are preserved verbatim.
package avmc

// Uparam is the 6-byte inline payload a node carries, overlaid (in the
// original) atop the node header's high bytes. The first 2 bytes of every
// node record are reserved for bookkeeping (nheaders, metaVer) and must
// never be aliased through any payload view; Uparam itself holds only the
// 6 payload bytes; the 2 bookkeeping bytes live in Node, not here.
type Uparam [6]byte

// Bools reads the payload as six independent booleans.
func (u Uparam) Bools() [6]bool {
	var out [6]bool
	for i, b := range u {
		out[i] = b != 0
	}
	return out
}

// U8 reads byte i (0..5) as an unsigned 8-bit integer.
func (u Uparam) U8(i int) uint8 { return u[i] }

// I8 reads byte i (0..5) as a signed 8-bit integer.
func (u Uparam) I8(i int) int8 { return int8(u[i]) }

// U16 reads 16-bit word w (0..2) as an unsigned integer, little-endian.
func (u Uparam) U16(w int) uint16 {
	return uint16(u[w*2]) | uint16(u[w*2+1])<<8
}

// I16 reads 16-bit word w (0..2) as a signed integer.
func (u Uparam) I16(w int) int16 { return int16(u.U16(w)) }

// U32 reads the payload as one unsigned 32-bit integer, aligned at offset
// 4 per the data model (the low two bytes at offset 0..1 are left unused
// by this view, matching the original's "aligned at offset 4").
func (u Uparam) U32() uint32 {
	return uint32(u[2]) | uint32(u[3])<<8 | uint32(u[4])<<16 | uint32(u[5])<<24
}

// I32 reads the payload as one signed 32-bit integer, same layout as U32.
func (u Uparam) I32() int32 { return int32(u.U32()) }

// SetU8 writes byte i.
func (u *Uparam) SetU8(i int, v uint8) { u[i] = v }

// SetBool writes byte i as 0 or 1.
func (u *Uparam) SetBool(i int, v bool) {
	if v {
		u[i] = 1
	} else {
		u[i] = 0
	}
}

// SetU16 writes 16-bit word w, little-endian.
func (u *Uparam) SetU16(w int, v uint16) {
	u[w*2] = byte(v)
	u[w*2+1] = byte(v >> 8)
}

// SetU32 writes the payload as one unsigned 32-bit integer at offset 4,
// matching U32's read layout.
func (u *Uparam) SetU32(v uint32) {
	u[2] = byte(v)
	u[3] = byte(v >> 8)
	u[4] = byte(v >> 16)
	u[5] = byte(v >> 24)
}
