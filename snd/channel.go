// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"time"

	"gohl/math/vec"
	"gohl/snd/device"
)

// EntityChannel is the logical channel of an entity a sound is started on.
type EntityChannel int

const (
	ChanAuto EntityChannel = iota
	ChanWeapon
	ChanVoice
	ChanItem
	ChanBody
	ChanStream
	// ChanStatic sounds never replace each other.
	ChanStatic
)

func (c EntityChannel) String() string {
	switch c {
	case ChanAuto:
		return "auto"
	case ChanWeapon:
		return "weapon"
	case ChanVoice:
		return "voice"
	case ChanItem:
		return "item"
	case ChanBody:
		return "body"
	case ChanStream:
		return "stream"
	case ChanStatic:
		return "static"
	}
	return "unknown"
}

type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadSample
	payloadSentence
)

// payload is what a channel plays: a sample, or a sentence with the index of
// the word that is audible. sample is the current word for sentences.
type payload struct {
	kind     payloadKind
	sample   int
	sentence int
	word     int
}

type channel struct {
	voice       *device.Voice
	payload     payload
	name        string
	entity      int
	entChan     EntityChannel
	origin      vec.Vec3
	volume      float32
	attenuation float32
	pitch       int
	looping     bool
	started     uint64
	wordStart   time.Duration
}

func (c *channel) free() bool {
	return c.payload.kind == payloadNone
}

func (c *channel) pitchRatio() float32 {
	return float32(c.pitch) / PitchNorm
}

// ChannelInfo describes a live channel.
type ChannelInfo struct {
	Entity   int
	Channel  EntityChannel
	Sound    string // sample, for sentences the current word
	Sentence string
	Word     int
	Volume   float32
	Pitch    int
	Looping  bool
	Origin   vec.Vec3
}
