// SPDX-License-Identifier: GPL-2.0-or-later

// Package catalog knows which sound files exist and which sentences are
// defined. Sound names are relative to the sound/ directory of the game.
package catalog

import (
	"bytes"
	"io/fs"
	"log"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var ErrNotFound = errors.New("not found")

const (
	soundDir      = "sound"
	sentencesFile = "sound/sentences.txt"
)

// Source is the asset search path the catalog is built from.
type Source interface {
	ReadFile(name string) ([]byte, error)
	Files(dir string) []string
}

type Catalog struct {
	src       Source
	sounds    map[string]string // name to file path
	names     []string
	sentences []Sentence
	byName    map[string]int
}

// Load indexes the sound files of src and parses its sentence table. A missing
// sentence table is not an error. Broken sentences are logged and skipped,
// the sound index is returned in any case.
func Load(src Source) (*Catalog, error) {
	c := &Catalog{
		src:    src,
		sounds: make(map[string]string),
		byName: make(map[string]int),
	}
	prefix := soundDir + "/"
	for _, f := range src.Files(soundDir) {
		if !isAudio(f) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(f, prefix))
		if _, ok := c.sounds[name]; ok {
			continue
		}
		c.sounds[name] = f
		c.names = append(c.names, name)
	}
	data, err := src.ReadFile(sentencesFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c, nil
	case err != nil:
		return c, errors.Wrap(err, "reading sentences")
	}
	sentences, err := ParseSentences(bytes.NewReader(data))
	var bad LineErrors
	if errors.As(err, &bad) {
		logLineErrors(bad)
		err = nil
	}
	c.addSentences(sentences)
	return c, errors.Wrap(err, sentencesFile)
}

// logLineErrors logs the broken lines of the sentence table without flooding
// the log when the whole file is garbage.
func logLineErrors(bad LineErrors) {
	limit := rate.NewLimiter(rate.Every(time.Second), 4)
	dropped := 0
	for _, e := range bad {
		if !limit.Allow() {
			dropped++
			continue
		}
		log.Printf("%s: %v, sentence skipped", sentencesFile, e)
	}
	if dropped > 0 {
		log.Printf("%s: %d more broken sentences skipped", sentencesFile, dropped)
	}
}

// New builds a catalog from explicit lists, used where no asset tree exists.
func New(src Source, sounds []string, sentences []Sentence) *Catalog {
	c := &Catalog{
		src:    src,
		sounds: make(map[string]string),
		byName: make(map[string]int),
	}
	for _, s := range sounds {
		s = normalize(s)
		if _, ok := c.sounds[s]; !ok {
			c.sounds[s] = path.Join(soundDir, s)
			c.names = append(c.names, s)
		}
	}
	c.addSentences(sentences)
	return c
}

func (c *Catalog) addSentences(ss []Sentence) {
	for _, s := range ss {
		key := strings.ToUpper(s.Name)
		if _, ok := c.byName[key]; ok {
			log.Printf("duplicate sentence %s", s.Name)
			continue
		}
		c.byName[key] = len(c.sentences)
		c.sentences = append(c.sentences, s)
	}
}

func isAudio(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".wav", ".ogg", ".flac", ".mp3":
		return true
	}
	return false
}

func normalize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.ToLower(path.Clean(strings.TrimPrefix(name, "/")))
}

// HasSound reports whether a sound file for name exists.
func (c *Catalog) HasSound(name string) bool {
	_, ok := c.sounds[normalize(name)]
	return ok
}

// Sounds returns all known sound names, sorted for an indexed catalog.
func (c *Catalog) Sounds() []string {
	return c.names
}

// ResolveSoundFile returns the raw file content of a sound.
func (c *Catalog) ResolveSoundFile(name string) ([]byte, error) {
	name = normalize(name)
	file, ok := c.sounds[name]
	if !ok || c.src == nil {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	data, err := c.src.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(ErrNotFound, name)
		}
		return nil, err
	}
	return data, nil
}

// FindSentence returns the index of a sentence, names are case insensitive.
func (c *Catalog) FindSentence(name string) (int, bool) {
	i, ok := c.byName[strings.ToUpper(name)]
	return i, ok
}

// Words returns the words of sentence i.
func (c *Catalog) Words(i int) []Word {
	if i < 0 || i >= len(c.sentences) {
		return nil
	}
	return c.sentences[i].Words
}

func (c *Catalog) Sentence(i int) (Sentence, bool) {
	if i < 0 || i >= len(c.sentences) {
		return Sentence{}, false
	}
	return c.sentences[i], true
}

func (c *Catalog) NumSentences() int {
	return len(c.sentences)
}
