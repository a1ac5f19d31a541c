// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"gohl/snd/catalog"
)

type mouthKey struct {
	entity  int
	channel EntityChannel
}

// mouths holds how far the mouth of a speaking entity is open, per channel.
type mouths map[mouthKey]float32

func (m mouths) init(ent int, ch EntityChannel) {
	m[mouthKey{ent, ch}] = 0
}

func (m mouths) close(ent int, ch EntityChannel) {
	delete(m, mouthKey{ent, ch})
}

func (m mouths) set(ent int, ch EntityChannel, open float32) {
	k := mouthKey{ent, ch}
	if _, ok := m[k]; ok {
		m[k] = open
	}
}

func (m mouths) get(ent int, ch EntityChannel) (float32, bool) {
	o, ok := m[mouthKey{ent, ch}]
	return o, ok
}

func (m mouths) reset() {
	clear(m)
}

func (s *SndSys) findSentence(name string) (int, bool) {
	if s.catalog == nil {
		return 0, false
	}
	i, ok := s.catalog.FindSentence(name)
	if !ok || len(s.catalog.Words(i)) == 0 {
		return 0, false
	}
	return i, true
}

func (s *SndSys) words(c *channel) []catalog.Word {
	return s.catalog.Words(c.payload.sentence)
}

// startWord plays word i of the sentence on c, skipping words that cannot be
// loaded. It returns false once the sentence is exhausted.
func (s *SndSys) startWord(c *channel, i int) bool {
	s.releaseSample(c.payload.sample)
	c.payload.sample = -1
	words := s.words(c)
	for ; i < len(words); i++ {
		h := s.find(words[i].Sound)
		if h < 0 {
			s.missing(words[i].Sound)
			continue
		}
		if !s.ensureLoaded(h) {
			continue
		}
		s.acquire(h)
		c.payload.sample = h
		c.payload.word = i
		c.wordStart = s.cfg.Clock()
		s.playSample(c, h, false)
		s.advanceMouth(c)
		return true
	}
	return false
}

// advanceMouth samples the timing table of the audible word.
func (s *SndSys) advanceMouth(c *channel) {
	words := s.words(c)
	if c.payload.word < 0 || c.payload.word >= len(words) {
		return
	}
	now := s.cfg.Clock()
	if s.paused {
		now = s.pausedAt
	}
	t := float32((now - c.wordStart).Seconds()) * c.pitchRatio()
	s.mouths.set(c.entity, c.entChan, words[c.payload.word].MouthAt(t))
}
