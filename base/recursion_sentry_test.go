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

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

// TestRecursionSentryMonotonicInAddressDelta exercises the documented
// "monotonic in |a-b|" property: once Check starts failing at some address
// delta from the sentry's base, it must keep failing for every larger
// delta, never flipping back to success.
func TestRecursionSentryMonotonicInAddressDelta(t *testing.T) {
	var local byte
	addr := uintptr(unsafe.Pointer(&local))

	const window = uintptr(1) << defaultWindowBits
	offsets := []uintptr{0, window / 4, window / 2, window - 1, window, window * 2, window * 8}

	var sawFailure bool
	for _, off := range offsets {
		s := NewRecursionSentryWithBase(addr-off, 0)
		err := s.Check()
		failed := err != nil

		if sawFailure {
			assert.Truef(t, failed, "Check succeeded at offset %#x after failing at a smaller offset", off)
		}
		if failed {
			assert.True(t, errors.Is(err, ErrStackOverflow))
			sawFailure = true
		}
	}
	assert.True(t, sawFailure, "expected at least one offset beyond the window to fail")
}

// TestRecursionSentryMaxDepthIndependentOfAddress exercises the explicit
// depth counter: it fails once Check has been called more than MaxDepth
// times, regardless of how small the address delta is, and Leave gives
// back exactly the depth it consumed.
func TestRecursionSentryMaxDepthIndependentOfAddress(t *testing.T) {
	s := NewRecursionSentry(3)

	for i := 0; i < 3; i++ {
		assert.NoError(t, s.Check())
	}
	err := s.Check()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackOverflow))

	s.Leave()
	s.Leave()
	assert.Equal(t, 2, s.Depth())
	assert.NoError(t, s.Check())
}

// TestRecursionSentryBaseInheritance confirms a nested sentry built from
// Base() measures against the same origin as its parent, which is what
// lets a non-tail call chain be treated as one continuous stack-usage
// window rather than resetting at every level.
func TestRecursionSentryBaseInheritance(t *testing.T) {
	parent := NewRecursionSentry(0)
	child := NewRecursionSentryWithBase(parent.Base(), 0)
	assert.Equal(t, parent.Base(), child.Base())
}
