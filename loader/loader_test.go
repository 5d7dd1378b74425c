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

package loader

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempScript(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoaderLoadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := writeTempScript(t, dir, "a.ast", "42")

	l, err := New(8)
	require.NoError(t, err)

	var parseCalls int32
	parse := func(f *os.File, p string) (interface{}, error) {
		atomic.AddInt32(&parseCalls, 1)
		return p, nil
	}

	mod1, err := l.Load(path, parse)
	require.NoError(t, err)
	mod2, err := l.Load(path, parse)
	require.NoError(t, err)

	assert.Same(t, mod1, mod2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&parseCalls), "second Load must not re-parse")
	assert.Equal(t, 1, l.Len())
}

func TestLoaderRejectsRecursiveImport(t *testing.T) {
	dir := t.TempDir()
	path := writeTempScript(t, dir, "self.ast", "import self.ast;")

	l, err := New(8)
	require.NoError(t, err)

	parse := func(f *os.File, p string) (interface{}, error) {
		// Simulate the script importing itself mid-parse.
		_, innerErr := l.Load(p, func(*os.File, string) (interface{}, error) {
			t.Fatal("inner parse must not run for a recursive import")
			return nil, nil
		})
		return nil, innerErr
	}

	_, err = l.Load(path, parse)
	require.Error(t, err)
}

func TestLoaderConcurrentLoadsCollapse(t *testing.T) {
	dir := t.TempDir()
	path := writeTempScript(t, dir, "b.ast", "1")

	l, err := New(8)
	require.NoError(t, err)

	var parseCalls int32
	parse := func(f *os.File, p string) (interface{}, error) {
		atomic.AddInt32(&parseCalls, 1)
		return p, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Load(path, parse)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&parseCalls), int32(1))
}

func TestLoaderEvictThenReloadReparses(t *testing.T) {
	dir := t.TempDir()
	path := writeTempScript(t, dir, "c.ast", "3")

	l, err := New(8)
	require.NoError(t, err)

	var parseCalls int32
	parse := func(f *os.File, p string) (interface{}, error) {
		atomic.AddInt32(&parseCalls, 1)
		return p, nil
	}

	_, err = l.Load(path, parse)
	require.NoError(t, err)
	l.Evict(path)
	assert.Equal(t, 0, l.Len())

	_, err = l.Load(path, parse)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&parseCalls))
}
