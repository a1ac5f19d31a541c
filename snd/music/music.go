// SPDX-License-Identifier: GPL-2.0-or-later

// Package music streams one background track at a time on its own device
// context. The public methods only queue jobs for the streaming goroutine and
// never block on file access or decoding.
package music

import (
	"log"
	stdmath "math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"gohl/filesystem"
	"gohl/math"
	"gohl/qtime"
	"gohl/snd/decode"
	"gohl/snd/device"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// minSleep keeps the streaming loop from spinning.
const minSleep = 100 * time.Microsecond

type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "unknown"
}

type Config struct {
	// Buffers is the number of device buffers in the ring.
	Buffers int
	// Ring is the amount of audio the ring holds.
	Ring time.Duration
	// Sleep is the pause between two iterations of the streaming loop.
	Sleep  time.Duration
	Volume float32
	Clock  qtime.Clock
}

func DefaultConfig() Config {
	return Config{
		Buffers: 4,
		Ring:    time.Second,
		Sleep:   time.Millisecond,
		Volume:  1,
		Clock:   qtime.QTime,
	}
}

// Loader reads and decodes a track.
type Loader func(path string) (*decode.PCM, error)

// LoadFile loads a track from the game search path.
func LoadFile(path string) (*decode.PCM, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode.Decode(path, data)
}

type TrackInfo struct {
	ID       uuid.UUID
	Path     string
	Loop     bool
	Duration time.Duration
	Rate     int
	Channels int
	Size     int
}

type track struct {
	id        uuid.UUID
	path      string
	pcm       *decode.PCM
	loop      bool
	cursor    int // next frame to queue
	ended     bool
	fading    bool
	fadeStart time.Duration
	fadeEnd   time.Duration
	fade      float32
}

type Streamer struct {
	cfg     Config
	load    Loader
	backend device.Backend

	mu   sync.Mutex
	jobs []func()

	quit    atomic.Bool
	enabled atomic.Bool
	done    chan struct{}
	state   atomic.Int32
	gain    atomic.Uint32
	info    atomic.Pointer[TrackInfo]

	// owned by the streaming goroutine
	voice   *device.Voice
	buffers []*device.Buffer
	spare   *device.Buffer // takes the start of the next track
	track   *track
	volume  float32
	blocked bool
}

// New opens a device context for music and starts the streaming goroutine.
// Without a device the streamer drops every command.
func New(cfg Config, open device.Opener, load Loader) *Streamer {
	s := newStreamer(cfg, open, load)
	if s.enabled.Load() {
		s.done = make(chan struct{})
		go s.run()
	}
	return s
}

func newStreamer(cfg Config, open device.Opener, load Loader) *Streamer {
	if cfg.Buffers < 1 {
		cfg.Buffers = 1
	}
	if cfg.Ring <= 0 {
		cfg.Ring = time.Second
	}
	cfg.Sleep = max(cfg.Sleep, minSleep)
	if cfg.Clock == nil {
		cfg.Clock = qtime.QTime
	}
	if load == nil {
		load = LoadFile
	}
	s := &Streamer{
		cfg:    cfg,
		load:   load,
		volume: math.Clamp(0, cfg.Volume, 1),
	}
	if err := s.open(open); err != nil {
		log.Printf("music: %v, music disabled", err)
		s.release()
		return s
	}
	s.enabled.Store(true)
	return s
}

func (s *Streamer) open(open device.Opener) error {
	if open == nil {
		return device.ErrNoDevice
	}
	b, err := open()
	if err != nil {
		return err
	}
	s.backend = b
	s.voice, err = device.NewVoice(b)
	if err != nil {
		return errors.Wrap(err, "creating voice")
	}
	s.voice.SetRelative(true)
	s.voice.SetRolloff(0)
	s.voice.SetGain(s.volume)
	for range s.cfg.Buffers {
		buf, err := device.NewBuffer(b)
		if err != nil {
			return errors.Wrap(err, "creating buffer")
		}
		s.buffers = append(s.buffers, buf)
	}
	s.spare, err = device.NewBuffer(b)
	return errors.Wrap(err, "creating buffer")
}

func (s *Streamer) release() {
	s.voice.Release()
	for _, b := range s.buffers {
		b.Release()
	}
	s.buffers = nil
	s.spare.Release()
	s.spare = nil
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			log.Printf("music: %v", err)
		}
		s.backend = nil
	}
}

func (s *Streamer) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)
	for !s.quit.Load() {
		s.runJobs()
		s.safe(s.tick)
		time.Sleep(s.cfg.Sleep)
	}
}

func (s *Streamer) enqueue(job func()) {
	if !s.enabled.Load() {
		return
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
}

// runJobs executes the queued jobs in submission order.
func (s *Streamer) runJobs() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = nil
	s.mu.Unlock()
	for _, job := range jobs {
		s.safe(job)
	}
}

// safe runs f and stops the track if f panics.
func (s *Streamer) safe(f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("music: %v", r)
			s.stop()
		}
	}()
	f()
}

func (s *Streamer) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Streamer) setGain(g float32) {
	s.gain.Store(stdmath.Float32bits(g))
}

func (s *Streamer) applyGain() {
	g := float32(0)
	if s.track != nil {
		g = s.volume * s.track.fade
	}
	s.setGain(g)
	if s.blocked {
		g = 0
	}
	s.voice.SetGain(g)
}

// loadTrack loads a track and turns a panicking decoder into an error.
func (s *Streamer) loadTrack(path string) (pcm *decode.PCM, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("decoder panic: %v", r)
		}
	}()
	return s.load(path)
}

func (s *Streamer) play(path string, loop bool) {
	pcm, err := s.loadTrack(path)
	if err == nil && pcm.Frames() == 0 {
		err = errors.New("empty track")
	}
	if err != nil {
		log.Printf("music %s: %v", path, err)
		return
	}
	t := &track{
		id:   uuid.New(),
		path: path,
		pcm:  pcm,
		loop: loop,
		fade: 1,
	}
	// a track the device rejects leaves the current one playing
	if !s.fill(t, s.spare) {
		return
	}
	s.stop()
	s.track = t
	first := s.spare
	n := len(s.buffers)
	s.spare = s.buffers[n-1]
	s.buffers = append([]*device.Buffer{first}, s.buffers[:n-1]...)
	s.voice.Queue(first)
	for _, b := range s.buffers[1:] {
		if !s.fill(t, b) {
			break
		}
		s.voice.Queue(b)
	}
	s.info.Store(&TrackInfo{
		ID:       t.id,
		Path:     path,
		Loop:     loop,
		Duration: pcm.Duration(),
		Rate:     pcm.SampleRate,
		Channels: pcm.Channels,
		Size:     pcm.Size(),
	})
	s.applyGain()
	s.voice.Play()
	s.setState(Playing)
}

// stop drops the track and takes all buffers back from the voice.
func (s *Streamer) stop() {
	if s.track == nil {
		return
	}
	s.voice.Stop()
	s.voice.Unqueue(len(s.buffers))
	s.track = nil
	s.info.Store(nil)
	s.setState(Stopped)
	s.setGain(0)
}

func (s *Streamer) pause() {
	if State(s.state.Load()) != Playing {
		return
	}
	s.voice.Pause()
	s.setState(Paused)
}

func (s *Streamer) resume() {
	if State(s.state.Load()) != Paused {
		return
	}
	s.voice.Play()
	s.setState(Playing)
}

func (s *Streamer) fadeOut(d time.Duration) {
	t := s.track
	if t == nil {
		return
	}
	now := s.cfg.Clock()
	t.fading = true
	t.fadeStart = now
	t.fadeEnd = now + d
	s.updateFade()
}

// bufferFrames is the size of one ring buffer for the track.
func (s *Streamer) bufferFrames(t *track) int {
	n := int(s.cfg.Ring.Seconds()*float64(t.pcm.SampleRate)) / len(s.buffers)
	return max(n, 1)
}

// fill puts the next part of t into b. It returns false once the whole track
// was queued.
func (s *Streamer) fill(t *track, b *device.Buffer) bool {
	if t == nil || t.ended {
		return false
	}
	p := t.pcm
	end := min(t.cursor+s.bufferFrames(t), p.Frames())
	chunk := p.Samples[t.cursor*p.Channels : end*p.Channels]
	t.cursor = end
	if t.cursor >= p.Frames() {
		if t.loop {
			t.cursor = 0
		} else {
			t.ended = true
		}
	}
	if err := b.Submit(chunk, p.Channels, p.SampleRate); err != nil {
		log.Printf("music %s: %v", t.path, err)
		t.ended = true
		return false
	}
	return true
}

// tick refills played buffers, advances the fade and restarts a starved
// voice.
func (s *Streamer) tick() {
	if s.track == nil {
		return
	}
	if s.updateFade() {
		return
	}
	for _, b := range s.voice.Unqueue(s.voice.ProcessedBuffers()) {
		if s.fill(s.track, b) {
			s.voice.Queue(b)
		}
	}
	if s.voice.QueuedBuffers() == 0 {
		// end of track
		s.stop()
		return
	}
	if State(s.state.Load()) == Playing && s.voice.State() == device.Stopped {
		log.Printf("music %s: stream starved, restarting", s.track.path)
		s.voice.Play()
	}
}

// updateFade applies the fade gain and reports whether the fade stopped the
// track.
func (s *Streamer) updateFade() bool {
	t := s.track
	if !t.fading {
		return false
	}
	now := s.cfg.Clock()
	if now >= t.fadeEnd {
		s.stop()
		return true
	}
	t.fade = float32(t.fadeEnd-now) / float32(t.fadeEnd-t.fadeStart)
	s.applyGain()
	return false
}

// The API

// Play replaces the current track with the file at path. If the file can not
// be loaded the current track keeps playing.
func (s *Streamer) Play(path string, loop bool) {
	s.enqueue(func() { s.play(path, loop) })
}

func (s *Streamer) Stop() {
	s.enqueue(s.stop)
}

func (s *Streamer) Pause() {
	s.enqueue(s.pause)
}

func (s *Streamer) Resume() {
	s.enqueue(s.resume)
}

// Block mutes the music, used while the window has no focus.
func (s *Streamer) Block() {
	s.enqueue(func() {
		s.blocked = true
		s.applyGain()
	})
}

func (s *Streamer) Unblock() {
	s.enqueue(func() {
		s.blocked = false
		s.applyGain()
	})
}

// FadeOut fades the track out linearly and stops it after d.
func (s *Streamer) FadeOut(d time.Duration) {
	s.enqueue(func() { s.fadeOut(d) })
}

func (s *Streamer) SetVolume(v float32) {
	s.enqueue(func() {
		s.volume = math.Clamp(0, v, 1)
		s.applyGain()
	})
}

func (s *Streamer) State() State {
	return State(s.state.Load())
}

func (s *Streamer) IsPlaying() bool {
	return s.State() == Playing
}

func (s *Streamer) IsPaused() bool {
	return s.State() == Paused
}

// Gain is the current track gain, volume times fade.
func (s *Streamer) Gain() float32 {
	return stdmath.Float32frombits(s.gain.Load())
}

// Track describes the current track, nil if there is none.
func (s *Streamer) Track() *TrackInfo {
	return s.info.Load()
}

func (s *Streamer) Enabled() bool {
	return s.enabled.Load()
}

// Close stops the streaming goroutine and waits for it before the device is
// released.
func (s *Streamer) Close() {
	if !s.enabled.Swap(false) {
		return
	}
	s.quit.Store(true)
	if s.done != nil {
		<-s.done
	}
	s.stop()
	s.release()
}
