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

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/asteria-lang/asteria/air"
	"github.com/asteria-lang/asteria/avmc"
	"github.com/asteria-lang/asteria/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cancellingHooks cancels execution via OnTrap the first time it fires.
type cancellingHooks struct {
	base.NoopHooks
	fired bool
}

func (h *cancellingHooks) OnTrap(sloc base.SourceLocation, _ base.ExecutiveContext) error {
	h.fired = true
	return base.ErrCancelled
}

func TestEngineSingleStepTrapCancels(t *testing.T) {
	hooks := &cancellingHooks{}
	e, err := New(Options{Hooks: hooks})
	require.NoError(t, err)

	sloc := base.NewSourceLocation("trap.ast", 1, 1)
	body := air.Block{
		&air.SingleStepTrap{Sloc: sloc},
		&air.PushConstant{Value: base.Int(1)},
		&air.ReturnStatement{},
	}
	q := avmc.NewQueue()
	body.Solidify(q)
	fn := &air.CompiledFunction{Identity: base.FunctionIdentity{Name: "trapped"}, Body: q}

	_, err = e.Call(base.UnknownLocation, fn, nil)
	require.Error(t, err)
	assert.True(t, hooks.fired)
	re := base.NewRuntimeError(err)
	assert.ErrorIs(t, re, base.ErrCancelled)
}

// TestEngineRecursiveImportDenied models a module system (like a naive
// recursive-descent one) that resolves `import` statements eagerly during
// parsing rather than at execution time: the parse callback for self.ast
// itself calls back into the resolver for the same path before it has
// finished registering, which must surface as a denied recursive import
// rather than deadlock.
func TestEngineRecursiveImportDenied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "self.ast")
	require.NoError(t, os.WriteFile(path, []byte("import self;"), 0o644))

	var eng *Engine
	var err error
	eng, err = New(Options{Parse: func(f *os.File, p string) (*air.CompiledFunction, error) {
		_, innerErr := eng.ImportResolver()(nil, p, base.UnknownLocation)
		if innerErr == nil {
			t.Fatal("expected the nested self-import to fail")
		}
		return nil, innerErr
	}})
	require.NoError(t, err)

	_, err = eng.ImportResolver()(nil, path, base.UnknownLocation)
	require.Error(t, err)
	assert.ErrorIs(t, err, base.ErrRecursiveImport)
}
