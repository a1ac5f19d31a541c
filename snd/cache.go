// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"log"
	"strings"

	"gohl/snd/decode"
	"gohl/snd/device"
)

// sample is a sound file known to the catalog. It is decoded and uploaded on
// first use and stays loaded until a registration sequence ends without it.
type sample struct {
	name   string
	pcm    *decode.PCM
	buffer *device.Buffer
	failed bool
	refs   int // channels playing it
	seq    int // last registration sequence that used it
}

func (s *sample) loaded() bool {
	return s.buffer != nil
}

func (s *sample) unload() {
	s.buffer.Release()
	s.buffer = nil
	s.pcm = nil
	s.failed = false
}

// cache hands out stable handles for sound names. Handles are indices and are
// never reused.
type cache struct {
	samples []*sample
	byName  map[string]int
	seq     int
}

func newCache() cache {
	return cache{byName: make(map[string]int)}
}

func cacheKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}

func (c *cache) Get(i int) *sample {
	if i < 0 || i >= len(c.samples) {
		return nil
	}
	return c.samples[i]
}

func (c *cache) Has(n string) (int, bool) {
	i, ok := c.byName[cacheKey(n)]
	return i, ok
}

func (c *cache) Add(n string) int {
	r := len(c.samples)
	c.samples = append(c.samples, &sample{name: cacheKey(n), seq: c.seq})
	c.byName[cacheKey(n)] = r
	return r
}

// find returns the handle of a sound name or -1 if no such file exists. It
// never decodes.
func (s *SndSys) find(name string) int {
	if i, ok := s.cache.Has(name); ok {
		s.cache.samples[i].seq = s.cache.seq
		return i
	}
	if s.catalog == nil || !s.catalog.HasSound(name) {
		return -1
	}
	return s.cache.Add(name)
}

// ensureLoaded decodes and uploads a sample once. A sample that failed to load
// is not tried again until it was unloaded by a registration sequence.
func (s *SndSys) ensureLoaded(h int) bool {
	smp := s.cache.Get(h)
	if smp == nil || smp.failed {
		return false
	}
	if smp.loaded() {
		return true
	}
	if err := s.load(smp); err != nil {
		smp.failed = true
		log.Printf("sound %s: %v", smp.name, err)
		return false
	}
	return true
}

func (s *SndSys) load(smp *sample) error {
	data, err := s.catalog.ResolveSoundFile(smp.name)
	if err != nil {
		return err
	}
	pcm, err := decode.Decode(smp.name, data)
	if err != nil {
		return err
	}
	buf, err := device.NewBuffer(s.backend)
	if err != nil {
		s.deviceFailure(err)
		return err
	}
	if err := buf.Submit(pcm.Samples, pcm.Channels, pcm.SampleRate); err != nil {
		buf.Release()
		return err
	}
	if pcm.Looping() {
		buf.SetLoopPoints(pcm.LoopStart, pcm.LoopLength)
	}
	smp.pcm = pcm
	smp.buffer = buf
	return nil
}

func (s *SndSys) acquire(h int) {
	if smp := s.cache.Get(h); smp != nil {
		smp.refs++
	}
}

func (s *SndSys) releaseSample(h int) {
	if smp := s.cache.Get(h); smp != nil && smp.refs > 0 {
		smp.refs--
	}
}

func (s *SndSys) beginRegistration() {
	s.cache.seq++
}

func (s *SndSys) precacheSound(name string) int {
	h := s.find(name)
	if h < 0 {
		s.missing(name)
		return -1
	}
	s.ensureLoaded(h)
	return h
}

// endRegistration frees every sample the finished sequence did not touch and
// nothing plays.
func (s *SndSys) endRegistration() {
	for _, smp := range s.cache.samples {
		if smp.seq != s.cache.seq && smp.refs == 0 && (smp.loaded() || smp.failed) {
			smp.unload()
		}
	}
}

// unloadAll releases every hardware buffer.
func (s *SndSys) unloadAll() {
	for _, smp := range s.cache.samples {
		smp.unload()
	}
}
