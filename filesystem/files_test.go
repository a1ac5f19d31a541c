// SPDX-License-Identifier: GPL-2.0-or-later

package filesystem

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func testPath() *SearchPath {
	base := fstest.MapFS{
		"sound/doc1.wav":         {Data: []byte("base 1")},
		"sound/weapons/shot.wav": {Data: []byte("base shot")},
	}
	mod := fstest.MapFS{
		"sound/doc1.wav":       {Data: []byte("mod 1")},
		"sound/hgrunt/yes.wav": {Data: []byte("mod yes")},
	}
	s := &SearchPath{}
	s.Prepend(base)
	s.Prepend(mod)
	return s
}

func TestSearchOrder(t *testing.T) {
	s := testPath()
	b, err := s.ReadFile("sound/doc1.wav")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "mod 1" {
		t.Errorf("contents: %q, want %q", b, "mod 1")
	}
	b, err = s.ReadFile("/sound\\weapons/shot.wav")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "base shot" {
		t.Errorf("contents: %q", b)
	}
	if _, err := s.ReadFile("sound/missing.wav"); err == nil {
		t.Errorf("missing file was found")
	}
}

func TestFiles(t *testing.T) {
	got := testPath().Files("sound")
	want := []string{"sound/doc1.wav", "sound/hgrunt/yes.wav", "sound/weapons/shot.wav"}
	if len(got) != len(want) {
		t.Fatalf("Files()=%v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("Files()[%d]=%q, want %q", i, got[i], want[i])
		}
	}
	if got := testPath().Files("music"); len(got) != 0 {
		t.Errorf("Files(music)=%v", got)
	}
}

func TestExt(t *testing.T) {
	for _, tc := range []struct{ in, ext string }{
		{"weapons/shot.wav", ".wav"},
		{"media/track.ogg", ".ogg"},
		{"dir.d/noext", ""},
	} {
		if got := Ext(tc.in); got != tc.ext {
			t.Errorf("Ext(%q)=%q, want %q", tc.in, got, tc.ext)
		}
	}
}

// writePack stores a pack with a single file.
func writePack(t *testing.T, dst, name, contents string) {
	t.Helper()
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, struct {
		ID     [4]byte
		Offset int32
		Size   int32
	}{[4]byte{'P', 'A', 'C', 'K'}, int32(12 + len(contents)), 64})
	b.WriteString(contents)
	var n [56]byte
	copy(n[:], name)
	b.Write(n[:])
	binary.Write(&b, binary.LittleEndian, [2]int32{12, int32(len(contents))})
	if err := os.WriteFile(dst, b.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGameDirectories(t *testing.T) {
	base := t.TempDir()
	valve := filepath.Join(base, "valve")
	mod := filepath.Join(base, "mod")
	for _, d := range []string{filepath.Join(valve, "sound"), filepath.Join(mod, "sound")} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(valve, "sound", "a.wav"), []byte("loose"), 0644)
	os.WriteFile(filepath.Join(valve, "sound", "b.wav"), []byte("loose b"), 0644)
	writePack(t, filepath.Join(valve, "pak0.pak"), "sound/a.wav", "packed")
	os.WriteFile(filepath.Join(mod, "sound", "b.wav"), []byte("mod b"), 0644)

	UseBaseDir(base)
	if b, err := ReadFile("sound/a.wav"); err != nil || string(b) != "packed" {
		t.Errorf("sound/a.wav = %q, %v, want the packed file", b, err)
	}
	UseGameDir("mod")
	defer UseBaseDir(".")
	if GameDir() != mod {
		t.Errorf("GameDir() = %q, want %q", GameDir(), mod)
	}
	if b, err := ReadFile("sound/b.wav"); err != nil || string(b) != "mod b" {
		t.Errorf("sound/b.wav = %q, %v, want the mod file", b, err)
	}
	if got := Current().Files("sound"); len(got) != 2 {
		t.Errorf("Files(sound) = %v", got)
	}
	f, err := Current().Open("sound/a.wav")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	if _, ok := f.(io.Seeker); !ok {
		t.Errorf("sound/a.wav from a pack is not seekable")
	}
}
