// SPDX-License-Identifier: GPL-2.0-or-later

// Package pack reads PACK archives and serves them as an fs.FS.
package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type header struct {
	ID     [4]byte
	Offset int32
	Size   int32
}

type entry struct {
	Name   [56]byte
	Offset int32
	Size   int32
}

const entrySize = 64

type Pack struct {
	r     io.ReaderAt
	c     io.Closer
	files map[string]*qfile
	dirs  map[string][]string
	name  string
}

type qfile struct {
	offset int64
	size   int64
}

var (
	_ fs.FS        = (*Pack)(nil)
	_ fs.ReadDirFS = (*Pack)(nil)
)

// Open implements fs.FS. Files are io.ReadSeekers.
func (p *Pack) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if q, ok := p.files[name]; ok {
		return &file{
			SectionReader: io.NewSectionReader(p.r, q.offset, q.size),
			info:          fileInfo{name: path.Base(name), size: q.size},
		}, nil
	}
	if _, ok := p.dirs[name]; ok {
		es, _ := p.ReadDir(name)
		return &dir{info: fileInfo{name: path.Base(name), dir: true}, entries: es}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// ReadDir implements fs.ReadDirFS.
func (p *Pack) ReadDir(name string) ([]fs.DirEntry, error) {
	children, ok := p.dirs[name]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	r := make([]fs.DirEntry, 0, len(children))
	for _, c := range children {
		full := c
		if name != "." {
			full = name + "/" + c
		}
		fi := fileInfo{name: c, dir: true}
		if q, ok := p.files[full]; ok {
			fi = fileInfo{name: c, size: q.size}
		}
		r = append(r, fs.FileInfoToDirEntry(fi))
	}
	return r, nil
}

func (p *Pack) String() string {
	return p.name
}

func (p *Pack) Close() error {
	if p.c == nil {
		return nil
	}
	return p.c.Close()
}

func (p *Pack) init() error {
	var h header
	if err := binary.Read(io.NewSectionReader(p.r, 0, 12), binary.LittleEndian, &h); err != nil {
		return errors.Wrap(err, "reading header")
	}
	if !bytes.Equal([]byte("PACK"), h.ID[:]) {
		return errors.New("Not a pack")
	}
	if h.Offset < 0 || h.Size < 0 {
		return errors.New("Not long enough")
	}
	filenum := h.Size / entrySize
	dr := io.NewSectionReader(p.r, int64(h.Offset), int64(h.Size))
	p.files = make(map[string]*qfile, filenum)
	p.dirs = map[string][]string{".": nil}
	for i := int32(0); i < filenum; i++ {
		var e entry
		if err := binary.Read(dr, binary.LittleEndian, &e); err != nil {
			return errors.Wrap(err, "reading directory")
		}
		n := bytes.IndexByte(e.Name[:], 0)
		if n < 0 {
			n = len(e.Name)
		}
		name := strings.ReplaceAll(string(e.Name[:n]), "\\", "/")
		if !fs.ValidPath(name) || name == "." {
			return errors.Errorf("invalid file name %q", name)
		}
		if p.files[name] != nil {
			return errors.New("files in pack are not unique")
		}
		p.files[name] = &qfile{
			offset: int64(e.Offset),
			size:   int64(e.Size),
		}
		p.addParents(name)
	}
	for d := range p.dirs {
		slices.Sort(p.dirs[d])
	}
	return nil
}

func (p *Pack) addParents(name string) {
	for {
		parent, base := path.Split(name)
		parent = strings.TrimSuffix(parent, "/")
		if parent == "" {
			parent = "."
		}
		_, known := p.dirs[parent]
		if !slices.Contains(p.dirs[parent], base) {
			p.dirs[parent] = append(p.dirs[parent], base)
		}
		if known || parent == "." {
			return
		}
		name = parent
	}
}

// NewReader reads a pack of the given name from r.
func NewReader(name string, r io.ReaderAt) (*Pack, error) {
	p := &Pack{r: r, name: name}
	if err := p.init(); err != nil {
		return nil, errors.Wrap(err, name)
	}
	return p, nil
}

// NewPackReader opens the pack file at name. It stays open until Close.
func NewPackReader(name string) (*Pack, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	p, err := NewReader(name, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.c = f
	return p, nil
}

type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return fi.dir }
func (fi fileInfo) Sys() any           { return nil }

func (fi fileInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0555
	}
	return 0444
}

type file struct {
	*io.SectionReader
	info fileInfo
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *file) Close() error               { return nil }

type dir struct {
	info    fileInfo
	entries []fs.DirEntry
	off     int
}

func (d *dir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dir) Close() error               { return nil }

func (d *dir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: fs.ErrInvalid}
}

func (d *dir) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.off:]
	if n <= 0 {
		d.off = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(rest))
	d.off += n
	return rest[:n], nil
}
