// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"log"
	"time"

	"gohl/math/vec"
	"gohl/snd/device"
)

func (s *SndSys) startSound(ent int, ch EntityChannel, name string, origin vec.Vec3, volume, attenuation float32, pitch int, flags Flags) {
	if s.dummy || name == "" {
		return
	}
	if pitch == 0 {
		log.Printf("sound %s started with pitch 0", name)
		return
	}
	if flags&(FlagStop|FlagChangeVolume|FlagChangePitch) != 0 {
		if c := s.playing(ent, ch, name); c != nil {
			if flags&FlagStop != 0 {
				s.clearChannel(c)
				return
			}
			if flags&FlagChangeVolume != 0 {
				c.volume = volume
				c.voice.SetGain(volume)
			}
			if flags&FlagChangePitch != 0 {
				c.pitch = pitch
				c.voice.SetPitch(c.pitchRatio())
			}
			return
		}
		if flags&FlagStop != 0 {
			return
		}
	}

	p := payload{kind: payloadSample, sample: -1, word: -1}
	if name[0] == SentenceMarker {
		i, ok := s.findSentence(name[1:])
		if !ok {
			s.missing(name)
			return
		}
		p.kind = payloadSentence
		p.sentence = i
	} else {
		h := s.find(name)
		if h < 0 {
			s.missing(name)
			return
		}
		if !s.ensureLoaded(h) {
			return
		}
		p.sample = h
	}

	c := s.pickChannel(ent, ch)
	if c == nil {
		return
	}
	s.starts++
	c.payload = p
	c.name = name
	c.entity = ent
	c.entChan = ch
	c.origin = origin
	c.volume = volume
	c.attenuation = attenuation
	c.pitch = pitch
	c.started = s.starts

	if p.kind == payloadSentence {
		s.mouths.init(ent, ch)
		if !s.startWord(c, 0) {
			s.clearChannel(c)
		}
		return
	}
	s.acquire(p.sample)
	s.playSample(c, p.sample, true)
}

// playSample starts the sample h on the voice of c. Duplicates of a one shot
// sample that is already audible start at a random offset.
func (s *SndSys) playSample(c *channel, h int, dedup bool) {
	smp := s.cache.Get(h)
	v := c.voice
	v.Stop()
	v.Attach(smp.buffer)
	c.looping = c.payload.kind == payloadSample && smp.pcm.Looping()
	v.SetLooping(c.looping)
	v.SetGain(c.volume)
	v.SetPitch(c.pitchRatio())
	v.SetRolloff(c.attenuation)
	v.SetFilter(s.filter)
	s.place(c, c.origin)
	if dedup && !c.looping && s.audible(h, c) {
		skip := int(s.cfg.DedupSkip * float32(smp.pcm.Frames()))
		v.SetOffset(s.rand.Intn(skip + 1))
	}
	v.Play()
}

// audible reports whether another channel plays sample h.
func (s *SndSys) audible(h int, self *channel) bool {
	for _, c := range s.channels {
		if c != self && c.payload.kind == payloadSample && c.payload.sample == h {
			return true
		}
	}
	return false
}

func (s *SndSys) place(c *channel, origin vec.Vec3) {
	if s.listenerOwned(c) {
		c.voice.SetRelative(true)
		c.voice.SetPosition(vec.Vec3{})
		return
	}
	c.origin = origin
	c.voice.SetRelative(false)
	c.voice.SetPosition(origin)
}

func (s *SndSys) update(f Frame) {
	if s.dummy {
		return
	}
	s.listener = f.ViewEntity
	s.backend.SetListener(device.Listener{
		Origin:  f.Origin,
		Forward: f.Forward,
		Right:   f.Right,
		Up:      f.Up,
	})
	for _, c := range s.channels {
		switch c.payload.kind {
		case payloadNone:
			continue
		case payloadSample:
			if c.voice.State() == device.Stopped {
				s.clearChannel(c)
				continue
			}
		case payloadSentence:
			if c.voice.State() == device.Stopped {
				if !s.startWord(c, c.payload.word+1) {
					s.clearChannel(c)
					continue
				}
			} else {
				s.advanceMouth(c)
			}
		}
		s.reposition(c, f)
	}
	s.updateGain()
	s.updateRoom(f)
	s.shrink()
}

// reposition moves a channel to its entity. Sounds of the world stay where
// they were started, entities not updated in this network frame keep their
// last position.
func (s *SndSys) reposition(c *channel, f Frame) {
	if s.listenerOwned(c) {
		s.place(c, c.origin)
		return
	}
	if c.entity == 0 || s.entities == nil {
		return
	}
	e, ok := s.entities.Entity(c.entity)
	if !ok || e.MsgNum != f.MsgNum {
		return
	}
	origin := e.Origin
	if e.Brush {
		origin = vec.Add(e.Origin, vec.Center(e.Mins, e.Maxs))
	}
	s.place(c, origin)
}

func (s *SndSys) updateGain() {
	g := s.volume * s.fade.level(s.cfg.Clock())
	if s.blocked {
		g = 0
	}
	if g == s.gain {
		return
	}
	s.gain = g
	s.backend.SetMasterGain(g)
}

func (s *SndSys) updateRoom(f Frame) {
	rt := f.RoomType
	if s.cfg.RoomType >= 0 {
		rt = s.cfg.RoomType
	}
	filter := device.NormalFilter
	if f.Underwater {
		rt = device.UnderwaterRoom
		filter = device.UnderwaterFilter
	}
	if s.cfg.RoomOff {
		rt = 0
	}
	if rt != s.room {
		s.room = rt
		s.backend.SetRoom(device.RoomByType(rt))
	}
	if filter == s.filter {
		return
	}
	s.filter = filter
	for _, c := range s.channels {
		if !c.free() {
			c.voice.SetFilter(filter)
		}
	}
}

type clientFade struct {
	start   time.Duration
	percent float32
	out     time.Duration
	hold    time.Duration
	in      time.Duration
}

// level is the gain multiplier of the fade at now.
func (f clientFade) level(now time.Duration) float32 {
	if f.percent == 0 {
		return 1
	}
	t := now - f.start
	var amount float32
	switch {
	case t < 0:
		return 1
	case t < f.out:
		amount = float32(t) / float32(f.out)
	case t < f.out+f.hold:
		amount = 1
	case t < f.out+f.hold+f.in:
		amount = 1 - float32(t-f.out-f.hold)/float32(f.in)
	default:
		return 1
	}
	return 1 - f.percent/100*amount
}
