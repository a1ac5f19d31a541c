// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MouthKey opens the mouth to Open (0..1) at Time seconds into a word.
type MouthKey struct {
	Time float32
	Open float32
}

type Word struct {
	Sound string
	Mouth []MouthKey
}

type Sentence struct {
	Name  string
	Words []Word
}

// DefaultMouth is how far the mouth is open during a word without timing table.
const DefaultMouth = 0.5

// MouthAt returns the mouth opening t seconds into the word. The keys are
// linearly interpolated and the last key is held.
func (w Word) MouthAt(t float32) float32 {
	if len(w.Mouth) == 0 {
		return DefaultMouth
	}
	if t <= w.Mouth[0].Time {
		return w.Mouth[0].Open
	}
	for i := 1; i < len(w.Mouth); i++ {
		a, b := w.Mouth[i-1], w.Mouth[i]
		if t < b.Time {
			if b.Time == a.Time {
				return b.Open
			}
			f := (t - a.Time) / (b.Time - a.Time)
			return a.Open + (b.Open-a.Open)*f
		}
	}
	return w.Mouth[len(w.Mouth)-1].Open
}

// LineErrors collects the lines of a sentence table that could not be parsed.
type LineErrors []error

func (e LineErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%v (and %d more errors)", e[0], len(e)-1)
}

// ParseSentences reads a sentence table. Each line holds a sentence name
// followed by its words:
//
//	HG_ALERT0 hgrunt/alert{0:0.2,0.15:0.9,0.3:0} clik go
//
// The directory of the first word applies to the following words without
// one, words without directory default to vox/. "//" starts a comment.
//
// Broken lines are skipped. The sentences of the other lines are returned
// together with a LineErrors describing the skipped ones.
func ParseSentences(r io.Reader) ([]Sentence, error) {
	var sentences []Sentence
	var bad LineErrors
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		s, err := parseSentence(fields)
		if err != nil {
			bad = append(bad, errors.Wrapf(err, "line %d", line))
			continue
		}
		sentences = append(sentences, s)
	}
	if err := sc.Err(); err != nil {
		return sentences, err
	}
	if len(bad) > 0 {
		return sentences, bad
	}
	return sentences, nil
}

func parseSentence(fields []string) (Sentence, error) {
	s := Sentence{Name: fields[0]}
	if len(fields) == 1 {
		return s, errors.Errorf("sentence %s has no words", s.Name)
	}
	dir := "vox"
	for _, f := range fields[1:] {
		w, err := parseWord(f, &dir)
		if err != nil {
			return s, err
		}
		s.Words = append(s.Words, w)
	}
	return s, nil
}

func parseWord(f string, dir *string) (Word, error) {
	var w Word
	if i := strings.IndexByte(f, '{'); i >= 0 {
		if !strings.HasSuffix(f, "}") {
			return w, errors.Errorf("unterminated mouth table in %q", f)
		}
		keys, err := parseMouth(f[i+1 : len(f)-1])
		if err != nil {
			return w, errors.Wrapf(err, "word %q", f)
		}
		w.Mouth = keys
		f = f[:i]
	}
	f = strings.TrimRight(f, ",.")
	if f == "" {
		return w, errors.New("empty word")
	}
	if d, name := path.Split(f); d != "" {
		*dir = strings.TrimSuffix(d, "/")
		f = name
	}
	if path.Ext(f) == "" {
		f += ".wav"
	}
	w.Sound = strings.ToLower(path.Join(*dir, f))
	return w, nil
}

func parseMouth(s string) ([]MouthKey, error) {
	if s == "" {
		return nil, nil
	}
	var keys []MouthKey
	for _, kv := range strings.Split(s, ",") {
		t, o, ok := strings.Cut(kv, ":")
		if !ok {
			return nil, errors.Errorf("bad mouth key %q", kv)
		}
		tv, err := strconv.ParseFloat(t, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "mouth key %q", kv)
		}
		ov, err := strconv.ParseFloat(o, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "mouth key %q", kv)
		}
		if n := len(keys); n > 0 && float32(tv) < keys[n-1].Time {
			return nil, errors.Errorf("mouth keys out of order at %q", kv)
		}
		keys = append(keys, MouthKey{Time: float32(tv), Open: float32(ov)})
	}
	return keys, nil
}
