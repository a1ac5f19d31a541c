// SPDX-License-Identifier: GPL-2.0-or-later

package device

import (
	"sync"

	"gohl/math/vec"
	"gohl/snd/speaker"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
)

const resampleQuality = 4

var (
	openMu sync.Mutex
	opened int
)

func chunkSize(rate int) int {
	if rate <= 11025 {
		return 256
	} else if rate <= 22050 {
		return 512
	} else if rate <= 44100 {
		return 1024
	} else if rate <= 56000 {
		return 2048 /* for 48 kHz */
	}
	return 4096 /* for 96 kHz */
}

type buffer struct {
	id         BufferID
	samples    [][2]float64
	rate       int
	loopStart  int
	loopLength int
}

// loopRange returns the looped frames, always non empty for a non empty buffer.
func (b *buffer) loopRange() (int, int) {
	n := len(b.samples)
	start := b.loopStart
	if start < 0 || start >= n {
		// no usable loop point, loop the whole buffer
		return 0, n
	}
	end := n
	if b.loopLength > 0 && start+b.loopLength < n {
		end = start + b.loopLength
	}
	return start, end
}

// Software mixes its voices in software and feeds the result to the speaker.
// Every Software is one stream in the speaker mixer, so several of them play
// side by side without sharing any voice state.
type Software struct {
	mu       sync.Mutex
	rate     int
	next     uint32
	voices   map[VoiceID]*voice
	buffers  map[BufferID]*buffer
	listener Listener
	gain     float32
	reverb   reverb
	scratch  [][2]float64
	wet      [][2]float64
	closed   bool
	onClose  func()
}

// Open starts the output device at sampleRate and returns a new context on it.
func Open(sampleRate int) (*Software, error) {
	openMu.Lock()
	defer openMu.Unlock()
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, chunkSize(sampleRate)); err != nil {
		return nil, errors.Wrapf(ErrNoDevice, "%v", err)
	}
	s := newSoftware(int(speaker.SampleRate()))
	s.onClose = release
	opened++
	speaker.Play(s)
	return s, nil
}

func release() {
	openMu.Lock()
	defer openMu.Unlock()
	opened--
	if opened == 0 {
		speaker.Close()
	}
}

func newSoftware(rate int) *Software {
	return &Software{
		rate:    rate,
		voices:  make(map[VoiceID]*voice),
		buffers: make(map[BufferID]*buffer),
		gain:    1,
	}
}

func (s *Software) SampleRate() int { return s.rate }

// Stream implements beep.Streamer. It is called from the speaker goroutine.
func (s *Software) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false
	}
	if cap(s.scratch) < len(samples) {
		s.scratch = make([][2]float64, len(samples))
		s.wet = make([][2]float64, len(samples))
	}
	scratch := s.scratch[:len(samples)]
	wet := s.wet[:len(samples)]
	clear(samples)
	clear(wet)
	room := s.reverb.enabled()
	for _, v := range s.voices {
		if v.state == Playing {
			v.mix(samples, scratch, wet, s.listener, room)
		}
	}
	if room {
		s.reverb.process(wet, samples)
	}
	g := float64(s.gain)
	for i := range samples {
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return len(samples), true
}

func (s *Software) Err() error { return nil }

func (s *Software) CreateVoice() (VoiceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrNoDevice
	}
	s.next++
	id := VoiceID(s.next)
	s.voices[id] = newVoice()
	return id, nil
}

func (s *Software) DestroyVoice(id VoiceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.voices, id)
}

func (s *Software) CreateBuffer() (BufferID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrNoDevice
	}
	s.next++
	id := BufferID(s.next)
	s.buffers[id] = &buffer{id: id, loopStart: -1}
	return id, nil
}

func (s *Software) DestroyBuffer(id BufferID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[id]
	if !ok {
		return
	}
	delete(s.buffers, id)
	for _, v := range s.voices {
		v.forget(b)
	}
}

func (s *Software) SubmitSamples(id BufferID, samples []float32, channels, rate int) error {
	if channels != 1 && channels != 2 {
		return errors.Errorf("unsupported channel count %d", channels)
	}
	if rate <= 0 {
		return errors.Errorf("invalid sample rate %d", rate)
	}
	frames := make([][2]float64, len(samples)/channels)
	for i := range frames {
		if channels == 1 {
			frames[i][0] = float64(samples[i])
			frames[i][1] = frames[i][0]
		} else {
			frames[i][0] = float64(samples[2*i])
			frames[i][1] = float64(samples[2*i+1])
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[id]
	if !ok {
		return errors.Errorf("unknown buffer %d", id)
	}
	b.samples = frames
	b.rate = rate
	return nil
}

func (s *Software) SetLoopPoints(id BufferID, start, length int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buffers[id]; ok {
		b.loopStart = start
		b.loopLength = length
	}
}

// with runs f on the voice if it exists.
func (s *Software) with(id VoiceID, f func(v *voice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[id]; ok {
		f(v)
	}
}

func (s *Software) SetGain(id VoiceID, gain float32) {
	s.with(id, func(v *voice) { v.gain = gain })
}

func (s *Software) SetPitch(id VoiceID, pitch float32) {
	s.with(id, func(v *voice) {
		v.pitch = pitch
		if v.stream != nil {
			v.stream.SetRatio(v.ratio(s.rate))
		}
	})
}

func (s *Software) SetPosition(id VoiceID, pos vec.Vec3) {
	s.with(id, func(v *voice) { v.origin = pos })
}

func (s *Software) SetRelative(id VoiceID, relative bool) {
	s.with(id, func(v *voice) { v.relative = relative })
}

func (s *Software) SetLooping(id VoiceID, loop bool) {
	s.with(id, func(v *voice) { v.looping = loop })
}

func (s *Software) SetRolloff(id VoiceID, rolloff float32) {
	s.with(id, func(v *voice) { v.rolloff = rolloff })
}

func (s *Software) SetOffset(id VoiceID, frame int) {
	s.with(id, func(v *voice) {
		if frame < 0 {
			frame = 0
		}
		v.offset = frame
		if v.state == Playing || v.state == Paused {
			v.pos = frame
			v.offset = 0
			v.restart(s.rate)
		}
	})
}

func (s *Software) SetFilter(id VoiceID, f LowPass) {
	s.with(id, func(v *voice) { v.filter = f })
}

func (s *Software) AttachBuffer(id VoiceID, bid BufferID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voices[id]
	if !ok {
		return
	}
	v.reset()
	v.static = s.buffers[bid]
}

func (s *Software) QueueBuffers(id VoiceID, bs ...BufferID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voices[id]
	if !ok {
		return
	}
	if v.static != nil {
		v.reset()
	}
	for _, bid := range bs {
		if b, ok := s.buffers[bid]; ok {
			v.queue = append(v.queue, b)
		}
	}
}

func (s *Software) UnqueueBuffers(id VoiceID, n int) []BufferID {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voices[id]
	if !ok {
		return nil
	}
	n = min(n, v.processed)
	if n <= 0 {
		return nil
	}
	r := make([]BufferID, n)
	for i, b := range v.queue[:n] {
		r[i] = b.id
	}
	v.queue = append(v.queue[:0:0], v.queue[n:]...)
	v.processed -= n
	return r
}

func (s *Software) ProcessedBuffers(id VoiceID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[id]; ok {
		return v.processed
	}
	return 0
}

func (s *Software) QueuedBuffers(id VoiceID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[id]; ok {
		return len(v.queue)
	}
	return 0
}

func (s *Software) Play(id VoiceID) {
	s.with(id, func(v *voice) {
		switch v.state {
		case Playing:
			return
		case Paused:
			v.state = Playing
			return
		}
		if v.static != nil {
			v.pos = v.offset
		} else {
			v.pos = 0
		}
		v.offset = 0
		v.restart(s.rate)
		v.state = Playing
	})
}

func (s *Software) Pause(id VoiceID) {
	s.with(id, func(v *voice) {
		if v.state == Playing {
			v.state = Paused
		}
	})
}

func (s *Software) Stop(id VoiceID) {
	s.with(id, func(v *voice) { v.stop() })
}

func (s *Software) State(id VoiceID) State {
	st := Stopped
	s.with(id, func(v *voice) { st = v.state })
	return st
}

func (s *Software) SetListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

func (s *Software) SetMasterGain(gain float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = gain
}

func (s *Software) SetRoom(r Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reverb.set(r, s.rate)
}

// Close stops the context. The output device is closed with the last context.
func (s *Software) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clear(s.voices)
	clear(s.buffers)
	onClose := s.onClose
	s.mu.Unlock()
	if onClose != nil {
		onClose()
	}
	return nil
}
