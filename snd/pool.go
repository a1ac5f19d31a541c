// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"strings"

	"gohl/snd/device"
)

func (s *SndSys) live() int {
	n := 0
	for _, c := range s.channels {
		if !c.free() {
			n++
		}
	}
	return n
}

func (s *SndSys) listenerOwned(c *channel) bool {
	return c.entity == s.listener || c.entity == LocalEntity
}

// playing returns the live channel on (ent,ch) playing name.
func (s *SndSys) playing(ent int, ch EntityChannel, name string) *channel {
	for _, c := range s.channels {
		if !c.free() && c.entity == ent && c.entChan == ch && strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

// pickChannel returns a cleared channel with a voice for a new sound on
// (ent,ch) or nil if there is none to spare. Sounds on a non static channel
// replace what plays on the same pair.
func (s *SndSys) pickChannel(ent int, ch EntityChannel) *channel {
	if ch != ChanStatic {
		for _, c := range s.channels {
			if !c.free() && c.entity == ent && c.entChan == ch {
				s.clearChannel(c)
				return s.withVoice(c)
			}
		}
	}
	for _, c := range s.channels {
		if c.free() {
			return s.withVoice(c)
		}
	}
	if len(s.channels) >= s.cfg.MaxChannels {
		c := s.victim()
		if c == nil {
			return nil
		}
		s.clearChannel(c)
		return s.withVoice(c)
	}
	c := &channel{}
	s.channels = append(s.channels, c)
	return s.withVoice(c)
}

// victim is the oldest one shot channel the listener does not own.
func (s *SndSys) victim() *channel {
	var v *channel
	for _, c := range s.channels {
		if c.free() || c.looping || s.listenerOwned(c) {
			continue
		}
		if v == nil || c.started < v.started {
			v = c
		}
	}
	return v
}

func (s *SndSys) withVoice(c *channel) *channel {
	if c.voice != nil {
		return c
	}
	v, err := device.NewVoice(s.backend)
	if err != nil {
		s.deviceFailure(err)
		return nil
	}
	c.voice = v
	return c
}

// clearChannel stops the voice and keeps it for the next sound.
func (s *SndSys) clearChannel(c *channel) {
	switch c.payload.kind {
	case payloadNone:
		return
	case payloadSample:
		s.releaseSample(c.payload.sample)
	case payloadSentence:
		s.releaseSample(c.payload.sample)
		s.mouths.close(c.entity, c.entChan)
	}
	if c.voice != nil {
		c.voice.Stop()
		c.voice.Attach(nil)
	}
	*c = channel{voice: c.voice}
}

func (s *SndSys) stopSound(ent int, ch EntityChannel) {
	for _, c := range s.channels {
		if !c.free() && c.entity == ent && c.entChan == ch {
			s.clearChannel(c)
		}
	}
}

// stopAll releases every channel including its voice.
func (s *SndSys) stopAll() {
	for _, c := range s.channels {
		s.clearChannel(c)
		c.voice.Release()
	}
	s.channels = nil
	s.mouths.reset()
}

// shrink releases trailing free channels beyond the spare reserve.
func (s *SndSys) shrink() {
	free := len(s.channels) - s.live()
	n := len(s.channels)
	for n > 0 && free > s.cfg.SpareChannels && s.channels[n-1].free() {
		n--
		free--
		s.channels[n].voice.Release()
		s.channels[n] = nil
	}
	s.channels = s.channels[:n]
}

func (s *SndSys) channelInfo() []ChannelInfo {
	var r []ChannelInfo
	for _, c := range s.channels {
		if c.free() {
			continue
		}
		info := ChannelInfo{
			Entity:  c.entity,
			Channel: c.entChan,
			Volume:  c.volume,
			Pitch:   c.pitch,
			Looping: c.looping,
			Origin:  c.origin,
			Word:    -1,
		}
		if smp := s.cache.Get(c.payload.sample); smp != nil {
			info.Sound = smp.name
		}
		if c.payload.kind == payloadSentence {
			info.Sentence = c.name
			info.Word = c.payload.word
		}
		r = append(r, info)
	}
	return r
}
