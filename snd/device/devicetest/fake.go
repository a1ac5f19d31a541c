// SPDX-License-Identifier: GPL-2.0-or-later

// Package devicetest provides an in memory device.Backend that records what
// is done to it and lets tests decide when voices finish.
package devicetest

import (
	"slices"
	"sync"

	"gohl/math/vec"
	"gohl/snd/device"

	"github.com/pkg/errors"
)

type Voice struct {
	Buffer    device.BufferID
	Queue     []device.BufferID
	Processed int
	State     device.State
	Gain      float32
	Pitch     float32
	Rolloff   float32
	Position  vec.Vec3
	Relative  bool
	Looping   bool
	Offset    int
	Filter    device.LowPass
	Plays     int
}

type Buffer struct {
	Samples    []float32
	Channels   int
	Rate       int
	LoopStart  int
	LoopLength int
}

type Fake struct {
	mu         sync.Mutex
	next       uint32
	voices     map[device.VoiceID]*Voice
	buffers    map[device.BufferID]*Buffer
	calls      map[string]int
	listener   device.Listener
	masterGain float32
	room       device.Room
	closed     bool

	// MaxVoices limits the number of live voices, 0 is unlimited.
	MaxVoices   int
	FailBuffers bool
	FailSubmit  bool
}

func New() *Fake {
	return &Fake{
		voices:     make(map[device.VoiceID]*Voice),
		buffers:    make(map[device.BufferID]*Buffer),
		calls:      make(map[string]int),
		masterGain: 1,
	}
}

// Opener returns a device.Opener that always hands out f.
func (f *Fake) Opener() device.Opener {
	return func() (device.Backend, error) { return f, nil }
}

func (f *Fake) lock(call string) func() {
	f.mu.Lock()
	f.calls[call]++
	return f.mu.Unlock
}

func (f *Fake) voice(id device.VoiceID) *Voice {
	if v, ok := f.voices[id]; ok {
		return v
	}
	return &Voice{}
}

func (f *Fake) CreateVoice() (device.VoiceID, error) {
	defer f.lock("CreateVoice")()
	if f.closed {
		return 0, device.ErrNoDevice
	}
	if f.MaxVoices > 0 && len(f.voices) >= f.MaxVoices {
		return 0, errors.New("out of voices")
	}
	f.next++
	id := device.VoiceID(f.next)
	f.voices[id] = &Voice{State: device.Initial, Gain: 1, Pitch: 1, Rolloff: 1, Filter: device.NormalFilter}
	return id, nil
}

func (f *Fake) DestroyVoice(id device.VoiceID) {
	defer f.lock("DestroyVoice")()
	delete(f.voices, id)
}

func (f *Fake) CreateBuffer() (device.BufferID, error) {
	defer f.lock("CreateBuffer")()
	if f.closed {
		return 0, device.ErrNoDevice
	}
	if f.FailBuffers {
		return 0, errors.New("out of memory")
	}
	f.next++
	id := device.BufferID(f.next)
	f.buffers[id] = &Buffer{LoopStart: -1}
	return id, nil
}

func (f *Fake) DestroyBuffer(id device.BufferID) {
	defer f.lock("DestroyBuffer")()
	delete(f.buffers, id)
}

func (f *Fake) SubmitSamples(id device.BufferID, samples []float32, channels, rate int) error {
	defer f.lock("SubmitSamples")()
	b, ok := f.buffers[id]
	if !ok {
		return errors.Errorf("unknown buffer %d", id)
	}
	if f.FailSubmit {
		return errors.New("unsupported format")
	}
	b.Samples = slices.Clone(samples)
	b.Channels = channels
	b.Rate = rate
	return nil
}

func (f *Fake) SetLoopPoints(id device.BufferID, start, length int) {
	defer f.lock("SetLoopPoints")()
	if b, ok := f.buffers[id]; ok {
		b.LoopStart = start
		b.LoopLength = length
	}
}

func (f *Fake) SetGain(id device.VoiceID, gain float32) {
	defer f.lock("SetGain")()
	f.voice(id).Gain = gain
}

func (f *Fake) SetPitch(id device.VoiceID, pitch float32) {
	defer f.lock("SetPitch")()
	f.voice(id).Pitch = pitch
}

func (f *Fake) SetPosition(id device.VoiceID, pos vec.Vec3) {
	defer f.lock("SetPosition")()
	f.voice(id).Position = pos
}

func (f *Fake) SetRelative(id device.VoiceID, relative bool) {
	defer f.lock("SetRelative")()
	f.voice(id).Relative = relative
}

func (f *Fake) SetLooping(id device.VoiceID, loop bool) {
	defer f.lock("SetLooping")()
	f.voice(id).Looping = loop
}

func (f *Fake) SetRolloff(id device.VoiceID, rolloff float32) {
	defer f.lock("SetRolloff")()
	f.voice(id).Rolloff = rolloff
}

func (f *Fake) SetOffset(id device.VoiceID, frame int) {
	defer f.lock("SetOffset")()
	f.voice(id).Offset = frame
}

func (f *Fake) SetFilter(id device.VoiceID, lp device.LowPass) {
	defer f.lock("SetFilter")()
	f.voice(id).Filter = lp
}

func (f *Fake) AttachBuffer(id device.VoiceID, b device.BufferID) {
	defer f.lock("AttachBuffer")()
	v := f.voice(id)
	v.Buffer = b
	v.Queue = nil
	v.Processed = 0
}

func (f *Fake) QueueBuffers(id device.VoiceID, bs ...device.BufferID) {
	defer f.lock("QueueBuffers")()
	v := f.voice(id)
	v.Buffer = 0
	v.Queue = append(v.Queue, bs...)
}

func (f *Fake) UnqueueBuffers(id device.VoiceID, n int) []device.BufferID {
	defer f.lock("UnqueueBuffers")()
	v := f.voice(id)
	n = min(n, v.Processed)
	if n <= 0 {
		return nil
	}
	r := slices.Clone(v.Queue[:n])
	v.Queue = slices.Delete(v.Queue, 0, n)
	v.Processed -= n
	return r
}

func (f *Fake) ProcessedBuffers(id device.VoiceID) int {
	defer f.lock("ProcessedBuffers")()
	return f.voice(id).Processed
}

func (f *Fake) QueuedBuffers(id device.VoiceID) int {
	defer f.lock("QueuedBuffers")()
	return len(f.voice(id).Queue)
}

func (f *Fake) Play(id device.VoiceID) {
	defer f.lock("Play")()
	v := f.voice(id)
	if v.State != device.Playing {
		v.Plays++
	}
	v.State = device.Playing
}

func (f *Fake) Pause(id device.VoiceID) {
	defer f.lock("Pause")()
	v := f.voice(id)
	if v.State == device.Playing {
		v.State = device.Paused
	}
}

func (f *Fake) Stop(id device.VoiceID) {
	defer f.lock("Stop")()
	v := f.voice(id)
	v.State = device.Stopped
	v.Processed = len(v.Queue)
}

func (f *Fake) State(id device.VoiceID) device.State {
	defer f.lock("State")()
	if v, ok := f.voices[id]; ok {
		return v.State
	}
	return device.Stopped
}

func (f *Fake) SetListener(l device.Listener) {
	defer f.lock("SetListener")()
	f.listener = l
}

func (f *Fake) SetMasterGain(gain float32) {
	defer f.lock("SetMasterGain")()
	f.masterGain = gain
}

func (f *Fake) SetRoom(r device.Room) {
	defer f.lock("SetRoom")()
	f.room = r
}

func (f *Fake) Close() error {
	defer f.lock("Close")()
	f.closed = true
	return nil
}

// Calls returns how often the named Backend method was called.
func (f *Fake) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *Fake) Voice(id device.VoiceID) (Voice, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.voices[id]
	if !ok {
		return Voice{}, false
	}
	c := *v
	c.Queue = slices.Clone(v.Queue)
	return c, true
}

func (f *Fake) Buffer(id device.BufferID) (Buffer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buffers[id]
	if !ok {
		return Buffer{}, false
	}
	return *b, true
}

// Voices returns the ids of all live voices in creation order.
func (f *Fake) Voices() []device.VoiceID {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]device.VoiceID, 0, len(f.voices))
	for id := range f.voices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Playing returns the ids of the voices currently playing in creation order.
func (f *Fake) Playing() []device.VoiceID {
	var r []device.VoiceID
	for _, id := range f.Voices() {
		if f.State(id) == device.Playing {
			r = append(r, id)
		}
	}
	return r
}

func (f *Fake) LiveVoices() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.voices)
}

func (f *Fake) LiveBuffers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buffers)
}

func (f *Fake) Listener() device.Listener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listener
}

func (f *Fake) MasterGain() float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.masterGain
}

func (f *Fake) Room() device.Room {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.room
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Finish stops a voice as if its sound had played to the end.
func (f *Fake) Finish(id device.VoiceID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.voices[id]; ok {
		v.State = device.Stopped
		v.Processed = len(v.Queue)
	}
}

// FinishAll finishes every playing voice.
func (f *Fake) FinishAll() {
	for _, id := range f.Playing() {
		f.Finish(id)
	}
}

// Process marks up to n more queued buffers of a voice as played.
func (f *Fake) Process(id device.VoiceID, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.voices[id]; ok {
		v.Processed = min(v.Processed+n, len(v.Queue))
	}
}

// Starve plays every queued buffer and stops the voice, like a stream that
// was not refilled in time.
func (f *Fake) Starve(id device.VoiceID) {
	f.Finish(id)
}

var _ device.Backend = (*Fake)(nil)
