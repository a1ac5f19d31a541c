// SPDX-License-Identifier: GPL-2.0-or-later

// Package device is the boundary to the audio hardware. A Backend hands out
// voices (playback sources) and sample buffers by handle; the Voice and Buffer
// wrappers own those handles so they are destroyed exactly once.
package device

import (
	"gohl/math/vec"

	"github.com/pkg/errors"
)

var ErrNoDevice = errors.New("no audio device")

type VoiceID uint32
type BufferID uint32

type State int

const (
	Initial State = iota
	Playing
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

type Listener struct {
	Origin  vec.Vec3
	Forward vec.Vec3
	Right   vec.Vec3
	Up      vec.Vec3
}

// LowPass is the per voice filter on the direct and the effect path. GainHF 1
// passes everything.
type LowPass struct {
	Gain   float32
	GainHF float32
}

// Backend is the capability set of an audio device. All methods ignore
// unknown handles. Implementations must be safe for use by one caller
// goroutine concurrent with their own output goroutine.
type Backend interface {
	CreateVoice() (VoiceID, error)
	DestroyVoice(v VoiceID)
	CreateBuffer() (BufferID, error)
	DestroyBuffer(b BufferID)
	// SubmitSamples replaces the content of b with interleaved samples.
	SubmitSamples(b BufferID, samples []float32, channels, rate int) error
	// SetLoopPoints limits looping voices to [start,start+length) frames.
	// length 0 loops to the end.
	SetLoopPoints(b BufferID, start, length int)

	SetGain(v VoiceID, gain float32)
	SetPitch(v VoiceID, pitch float32)
	SetPosition(v VoiceID, pos vec.Vec3)
	// SetRelative makes the position relative to the listener.
	SetRelative(v VoiceID, relative bool)
	SetLooping(v VoiceID, loop bool)
	SetRolloff(v VoiceID, rolloff float32)
	SetOffset(v VoiceID, frame int)
	SetFilter(v VoiceID, f LowPass)

	// AttachBuffer sets the static buffer of v, 0 detaches.
	AttachBuffer(v VoiceID, b BufferID)
	QueueBuffers(v VoiceID, bs ...BufferID)
	// UnqueueBuffers removes up to n processed buffers from the front of the
	// queue.
	UnqueueBuffers(v VoiceID, n int) []BufferID
	ProcessedBuffers(v VoiceID) int
	QueuedBuffers(v VoiceID) int

	Play(v VoiceID)
	Pause(v VoiceID)
	Stop(v VoiceID)
	State(v VoiceID) State

	SetListener(l Listener)
	SetMasterGain(gain float32)
	SetRoom(r Room)
	Close() error
}

// Opener creates a device context.
type Opener func() (Backend, error)
