// SPDX-License-Identifier: GPL-2.0-or-later

// Package filesystem resolves game relative paths against the search path:
// the mod directory first, the base game directory last.
package filesystem

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gohl/pack"

	"github.com/pkg/errors"
)

const baseGame = "valve"

var (
	mutex   sync.RWMutex
	baseDir string
	gameDir string
	search  SearchPath
	packs   []*pack.Pack
)

// SearchPath is an ordered list of file systems. Earlier entries shadow later
// ones.
type SearchPath struct {
	layers []fs.FS
}

// Prepend adds fsys in front of the existing layers.
func (s *SearchPath) Prepend(fsys fs.FS) {
	s.layers = append([]fs.FS{fsys}, s.layers...)
}

func clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

func (s *SearchPath) Open(name string) (fs.File, error) {
	name = clean(name)
	for _, l := range s.layers {
		f, err := l.Open(name)
		if err == nil {
			return f, nil
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (s *SearchPath) ReadFile(name string) ([]byte, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *SearchPath) Stat(name string) (fs.FileInfo, error) {
	name = clean(name)
	for _, l := range s.layers {
		if fi, err := fs.Stat(l, name); err == nil {
			return fi, nil
		}
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// Files returns every regular file below dir in all layers, sorted and
// without duplicates.
func (s *SearchPath) Files(dir string) []string {
	dir = clean(dir)
	seen := make(map[string]struct{})
	for _, l := range s.layers {
		fs.WalkDir(l, dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				// missing dir in this layer
				return fs.SkipDir
			}
			if !d.IsDir() {
				seen[p] = struct{}{}
			}
			return nil
		})
	}
	r := make([]string, 0, len(seen))
	for p := range seen {
		r = append(r, p)
	}
	sort.Strings(r)
	return r
}

func GameDir() string {
	mutex.RLock()
	defer mutex.RUnlock()
	return gameDir
}

func UseBaseDir(dir string) {
	mutex.Lock()
	defer mutex.Unlock()
	baseDir = dir
	gameDir = filepath.Join(baseDir, baseGame)
	reset()
	addGameDirectory(gameDir)
}

func UseGameDir(dir string) {
	mutex.Lock()
	defer mutex.Unlock()
	reset()
	gameDir = filepath.Join(baseDir, baseGame)
	addGameDirectory(gameDir)
	if dir == "" || dir == baseGame {
		return
	}
	gameDir = filepath.Join(baseDir, dir)
	addGameDirectory(gameDir)
}

func reset() {
	for _, p := range packs {
		p.Close()
	}
	packs = nil
	search = SearchPath{}
}

// addGameDirectory adds dir and then its pak0.pak, pak1.pak, ... in front of
// the search path. Packs shadow the loose files.
func addGameDirectory(dir string) {
	search.Prepend(os.DirFS(dir))
	for i := 0; ; i++ {
		p, err := pack.NewPackReader(filepath.Join(dir, fmt.Sprintf("pak%d.pak", i)))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("filesystem: %v", err)
			}
			return
		}
		packs = append(packs, p)
		search.Prepend(p)
	}
}

// Current returns the active search path.
func Current() *SearchPath {
	mutex.RLock()
	defer mutex.RUnlock()
	s := search
	return &s
}

func ReadFile(name string) ([]byte, error) {
	return Current().ReadFile(name)
}

func isSep(c uint8) bool {
	return c == '/' || c == '\\'
}

func Ext(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}


