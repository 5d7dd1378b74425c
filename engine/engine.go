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

// Package engine wires the module loader (C8), the AIR node set, and the
// executive context/trampoline (C3/C6) into a single driver: a caller
// hands it a compiled top-level function and an import resolver, and gets
// back the execution core's standard (result, error) shape.
package engine

import (
	"os"

	"github.com/asteria-lang/asteria/air"
	"github.com/asteria-lang/asteria/base"
	"github.com/asteria-lang/asteria/loader"
	"github.com/asteria-lang/asteria/runtime"
)

// Engine is the top-level driver. Parsing source text into AIR is not
// this core's concern (C8's loader only resolves and locks files); a
// caller supplies a ParseFunc translating an opened file straight into a
// *air.CompiledFunction representing that module's top-level code.
type Engine struct {
	Hooks    base.Hooks
	MaxDepth int
	loader   *loader.Loader
	parse    func(f *os.File, path string) (*air.CompiledFunction, error)
}

// Options configures a new Engine.
type Options struct {
	Hooks           base.Hooks
	MaxDepth        int
	ModuleCacheSize int
	Parse           func(f *os.File, path string) (*air.CompiledFunction, error)
}

// New constructs an Engine with its own module registry.
func New(opts Options) (*Engine, error) {
	l, err := loader.New(opts.ModuleCacheSize)
	if err != nil {
		return nil, err
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = base.NoopHooks{}
	}
	return &Engine{Hooks: hooks, MaxDepth: opts.MaxDepth, loader: l, parse: opts.Parse}, nil
}

// Call invokes fn as a fresh top-level activation, firing its entry
// on_call itself (the call site here is the embedder, not a node within
// some other activation).
func (e *Engine) Call(sloc base.SourceLocation, fn *air.CompiledFunction, args []base.Reference) (base.Reference, error) {
	e.Hooks.OnCall(sloc, fn.Identity)
	return runtime.Invoke(e.Hooks, 0, e.MaxDepth, fn, args)
}

// ImportResolver returns the ImportCall.Resolve callback bound to this
// engine's loader and parser: it loads path through the C8 registry
// (deduplicating concurrent/duplicate imports and denying recursive
// self-imports), then invokes that module's top-level function with no
// arguments and returns its result as the import expression's value.
func (e *Engine) ImportResolver() func(ctx base.ExecutiveContext, path string, sloc base.SourceLocation) (base.Value, error) {
	return func(ctx base.ExecutiveContext, path string, sloc base.SourceLocation) (base.Value, error) {
		mod, err := e.loader.Load(path, func(f *os.File, p string) (interface{}, error) {
			return e.parse(f, p)
		})
		if err != nil {
			return base.Value{}, err
		}
		fn := mod.Value.(*air.CompiledFunction)
		result, err := e.Call(sloc, fn, nil)
		if err != nil {
			return base.Value{}, err
		}
		return result.Read(), nil
	}
}
