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
	"testing"

	"github.com/asteria-lang/asteria/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextExec is a trivial executor used by tests that don't care what a
// node does, only that it was visited.
func nextExec(base.ExecutiveContext, *Node) (base.Status, error) {
	return base.StatusNext, nil
}

func appendTrivial(t *testing.T, q *Queue) *Node {
	t.Helper()
	n, err := q.Append(nextExec, Uparam{}, 0, nil, nil, nil, nil)
	require.NoError(t, err)
	return n
}

func TestQueueUsedInvariant(t *testing.T) {
	q := NewQueue()
	var wantUsed uint32
	for i := 0; i < 20; i++ {
		n := appendTrivial(t, q)
		wantUsed += uint32(1 + n.NHeaders())
	}
	assert.Equal(t, wantUsed, q.Used(), "sum of (1+nheaders) must equal used")
}

func TestQueueMetaVerMatchesMetadataPresence(t *testing.T) {
	q := NewQueue()
	appendTrivial(t, q)
	sloc := base.NewSourceLocation("test.ast", 1, 1)
	_, err := q.Append(nextExec, Uparam{}, 0, nil, nil, nil, &sloc)
	require.NoError(t, err)
	_, err = q.Append(nextExec, Uparam{}, 0, nil, func(*Node) {}, nil, nil)
	require.NoError(t, err)

	for _, n := range q.Nodes() {
		hasMeta := n.HasMetadata()
		assert.Equal(t, n.MetaVer() != 0, hasMeta)
	}
}

func TestQueueInsertionOrder(t *testing.T) {
	q := NewQueue()
	var trace []int
	for i := 0; i < 5; i++ {
		i := i
		_, err := q.Append(func(base.ExecutiveContext, *Node) (base.Status, error) {
			trace = append(trace, i)
			return base.StatusNext, nil
		}, Uparam{}, 0, nil, nil, nil, nil)
		require.NoError(t, err)
	}
	status, err := q.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, base.StatusNext, status)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, trace)
}

func TestQueueClearRunsDestructorOnce(t *testing.T) {
	q := NewQueue()
	calls := 0
	_, err := q.Append(nextExec, Uparam{}, 0, nil, func(*Node) { calls++ }, nil, nil)
	require.NoError(t, err)
	q.Clear()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint32(0), q.Used())

	// Clearing an already-empty queue must not re-invoke the destructor.
	q.Clear()
	assert.Equal(t, 1, calls)
}

func TestQueueExecuteEmptyReturnsNext(t *testing.T) {
	q := NewQueue()
	status, err := q.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, base.StatusNext, status)
}

func TestQueueExecuteStopsOnNonNextStatus(t *testing.T) {
	q := NewQueue()
	visited := 0
	_, err := q.Append(func(base.ExecutiveContext, *Node) (base.Status, error) {
		visited++
		return base.StatusReturnVoid, nil
	}, Uparam{}, 0, nil, nil, nil, nil)
	require.NoError(t, err)
	_, err = q.Append(func(base.ExecutiveContext, *Node) (base.Status, error) {
		visited++
		return base.StatusNext, nil
	}, Uparam{}, 0, nil, nil, nil, nil)
	require.NoError(t, err)

	status, err := q.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, base.StatusReturnVoid, status)
	assert.Equal(t, 1, visited)
}

func TestQueueExecuteAnnotatesFrameWhenSlocAvailable(t *testing.T) {
	q := NewQueue()
	sloc := base.NewSourceLocation("boom.ast", 3, 7)
	boom := func(base.ExecutiveContext, *Node) (base.Status, error) {
		return base.StatusNext, assertFailure()
	}
	_, err := q.Append(boom, Uparam{}, 0, nil, nil, nil, &sloc)
	require.NoError(t, err)

	_, err = q.Execute(nil)
	require.Error(t, err)
	re := base.NewRuntimeError(err)
	frames := re.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, sloc, frames[0].Sloc)
	assert.Equal(t, base.FramePlain, frames[0].Type)
}

func TestQueueExecuteDoesNotAnnotateWithoutSloc(t *testing.T) {
	q := NewQueue()
	boom := func(base.ExecutiveContext, *Node) (base.Status, error) {
		return base.StatusNext, assertFailure()
	}
	_, err := q.Append(boom, Uparam{}, 0, nil, nil, nil, nil)
	require.NoError(t, err)

	_, err = q.Execute(nil)
	require.Error(t, err)
	re := base.NewRuntimeError(err)
	assert.Empty(t, re.Frames())
}

func TestQueueRejectsOversizedSparam(t *testing.T) {
	q := NewQueue()
	_, err := q.Append(nextExec, Uparam{}, maxSparamBytes+1, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestQueueAppendAfterFinalizePanics(t *testing.T) {
	q := NewQueue()
	q.Finalize()
	assert.Panics(t, func() {
		_, _ = q.Append(nextExec, Uparam{}, 0, nil, nil, nil, nil)
	})
}

func TestQueueFinalizeDoesNotAffectExecute(t *testing.T) {
	q := NewQueue()
	appendTrivial(t, q)
	before, err := q.Execute(nil)
	require.NoError(t, err)
	q.Finalize()
	after, err := q.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestQueueCollectVariables(t *testing.T) {
	q := NewQueue()
	v := &base.Variable{Value: base.Int(42)}
	_, err := q.Append(nextExec, Uparam{}, 0, nil, nil, func(staged, temp VariableMap, n *Node) {
		staged[v] = struct{}{}
	}, nil)
	require.NoError(t, err)

	staged, temp := VariableMap{}, VariableMap{}
	q.CollectVariables(staged, temp)
	_, ok := staged[v]
	assert.True(t, ok)
}

func assertFailure() error {
	return base.ErrAssertionFailed
}
