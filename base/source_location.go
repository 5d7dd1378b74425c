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

// SourceLocation is an immutable (file, line, column) triple. The zero
// value is not meaningful; use UnknownLocation or NewSourceLocation.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// UnknownLocation is the default source location, matching the original
// source's "[unknown]", -1, -1 default.
var UnknownLocation = SourceLocation{File: "[unknown]", Line: -1, Column: -1}

// NewSourceLocation constructs a source location triple.
func NewSourceLocation(file string, line, column int) SourceLocation {
	return SourceLocation{File: file, Line: line, Column: column}
}

// IsUnknown reports whether sloc carries no useful location information.
func (s SourceLocation) IsUnknown() bool { return s == UnknownLocation }

func (s SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}
