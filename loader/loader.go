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

// Package loader implements the module loader (C8): resolving an import
// path to a file, keying the in-process module registry by (device,
// inode) rather than by path string so hard links and relative-path
// aliasing can't fool it into loading the same file twice, taking an
// exclusive advisory lock for the duration of a load, and rejecting any
// import of a file whose load is still in progress with ErrRecursiveImport.
//
// Only this loader is in scope for the execution core; parsing the loaded
// source into AIR and running it is the caller's job (package engine).
package loader

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/unix"

	"github.com/asteria-lang/asteria/base"
)

// fileKey identifies a file by device and inode rather than by path, so
// that `import "./a.ast"` and `import "a.ast"` resolving to the same file
// collide in the registry even when their path strings differ.
type fileKey struct {
	dev uint64
	ino uint64
}

// Module is the loaded, parsed unit a registry entry holds. Parsing
// itself is supplied by the caller via the Parse callback passed to Load;
// package loader only owns identity, locking, and caching.
type Module struct {
	Path  string
	Value interface{}
}

// entry is the registry's per-file bookkeeping: the loaded module once
// available, and the file descriptor Load opened the file through. The
// advisory lock on that descriptor is held only while Load parses the
// file.
type entry struct {
	module *Module
	fd     int
}

// ParseFunc parses an opened file's contents into whatever value the
// caller's module system wants; it is handed the absolute path mostly for
// diagnostics in the returned error.
type ParseFunc func(f *os.File, path string) (interface{}, error)

// Loader is the module registry: safe for concurrent use.
type Loader struct {
	mu       sync.Mutex
	byKey    map[fileKey]*entry
	inFlight singleflight.Group
	cache    *lru.Cache // recently evicted modules kept warm, keyed by fileKey
}

// New constructs a loader whose bounded secondary cache holds up to
// cacheSize recently-evicted modules (0 disables the secondary cache).
func New(cacheSize int) (*Loader, error) {
	l := &Loader{byKey: make(map[fileKey]*entry)}
	if cacheSize > 0 {
		c, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("asteria: constructing module cache: %w", err)
		}
		l.cache = c
	}
	return l, nil
}

func statKey(f *os.File) (fileKey, error) {
	var st syscall.Stat_t
	if err := syscall.Fstat(int(f.Fd()), &st); err != nil {
		return fileKey{}, err
	}
	return fileKey{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

// Load resolves path to a file, locks it exclusively for the duration of
// the load, and parses it with parse. A second Load for a file whose load
// is still in progress, whether a self-import cycle on the same call chain
// or an overlapping call from another goroutine, is rejected with
// ErrRecursiveImport rather than deadlocking on the lock, because the
// registry entry is inserted strictly before the flock call below. The
// singleflight group therefore never sees two callers for one file.
func (l *Loader) Load(path string, parse ParseFunc) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asteria: opening module %q: %w", path, err)
	}

	key, err := statKey(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("asteria: statting module %q: %w", path, err)
	}

	l.mu.Lock()
	if existing, ok := l.byKey[key]; ok {
		l.mu.Unlock()
		f.Close()
		if existing.module == nil {
			// The registry slot exists but has no module yet: some other
			// Load of this exact file is still in progress — a recursive
			// (self-)import, or an overlapping call from another goroutine.
			return nil, fmt.Errorf("%w: %q", base.ErrRecursiveImport, path)
		}
		return existing.module, nil
	}
	// Insert the placeholder before taking the flock, so a recursive
	// import that re-enters Load for the same key (even from a different
	// goroutine racing the singleflight key) sees ok==true above instead
	// of blocking forever on the lock this same call is about to take.
	l.byKey[key] = &entry{fd: int(f.Fd())}
	l.mu.Unlock()

	v, err, _ := l.inFlight.Do(fmt.Sprintf("%d:%d", key.dev, key.ino), func() (interface{}, error) {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
			return nil, fmt.Errorf("asteria: locking module %q: %w", path, err)
		}
		defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

		parsed, err := parse(f, path)
		if err != nil {
			return nil, fmt.Errorf("asteria: parsing module %q: %w", path, err)
		}
		return &Module{Path: path, Value: parsed}, nil
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		delete(l.byKey, key)
		f.Close()
		return nil, err
	}
	mod := v.(*Module)
	l.byKey[key].module = mod
	return mod, nil
}

// Evict removes path's module from the registry and, if a secondary cache
// was configured, adds it to that cache. Load does not consult the cache,
// so a subsequent re-import opens and parses the file again.
func (l *Loader) Evict(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	key, err := statKey(f)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.byKey[key]
	if !ok {
		return
	}
	delete(l.byKey, key)
	if l.cache != nil && e.module != nil {
		l.cache.Add(key, e.module)
	}
}

// Len reports the number of modules currently registered.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}
