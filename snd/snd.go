// SPDX-License-Identifier: GPL-2.0-or-later

// Package snd plays sound effects and spoken sentences on a small pool of
// device voices. All methods must be called from the same goroutine. A nil
// *SndSys is a valid sound system that does nothing.
package snd

import (
	"log"
	"time"

	"gohl/math"
	"gohl/math/vec"
	"gohl/qtime"
	"gohl/rand"
	"gohl/snd/catalog"
	"gohl/snd/device"

	"golang.org/x/time/rate"
)

const (
	// PitchNorm is the pitch percentage of unchanged playback.
	PitchNorm = 100
	// SentenceMarker starts the name of a sentence.
	SentenceMarker = '!'
	// LocalEntity owns sounds played relative to the listener.
	LocalEntity = -1
)

type Flags int

const (
	FlagStop Flags = 1 << iota
	FlagChangeVolume
	FlagChangePitch
)

type Config struct {
	MaxChannels int
	// SpareChannels free channels keep their voice when the pool shrinks.
	SpareChannels int
	// DedupSkip bounds the random start offset of a duplicated one shot
	// sound, as a fraction of its length.
	DedupSkip float32
	Volume    float32
	// RoomType overrides the room type of the frame when >= 0.
	RoomType int
	RoomOff  bool
	Clock    qtime.Clock
	Seed     uint32
}

func DefaultConfig() Config {
	return Config{
		MaxChannels:   128,
		SpareChannels: 16,
		DedupSkip:     0.1,
		Volume:        0.7,
		RoomType:      -1,
		Clock:         qtime.QTime,
		Seed:          1,
	}
}

// Entity is the part of a client entity sounds follow. Mins and Maxs are the
// bounds relative to Origin.
type Entity struct {
	Origin vec.Vec3
	Mins   vec.Vec3
	Maxs   vec.Vec3
	Brush  bool
	// MsgNum is the network frame the entity was last updated in.
	MsgNum int
}

type Entities interface {
	Entity(num int) (Entity, bool)
}

// Frame is the listener state passed to Update.
type Frame struct {
	ViewEntity int
	Origin     vec.Vec3
	Forward    vec.Vec3
	Right      vec.Vec3
	Up         vec.Vec3
	MsgNum     int
	Underwater bool
	RoomType   int
}

type SndSys struct {
	cfg       Config
	backend   device.Backend
	dummy     bool
	devFailed bool
	catalog   *catalog.Catalog
	entities  Entities
	cache     cache
	channels  []*channel
	mouths    mouths
	rand      *rand.Generator
	limit     *rate.Limiter
	listener  int
	starts    uint64
	volume    float32
	gain      float32
	fade      clientFade
	blocked   bool
	paused    bool
	pausedAt  time.Duration
	room      int
	filter    device.LowPass
}

// Init opens the device and returns the sound system. If the device can not
// be opened the sound system stays silent.
func Init(cfg Config, cat *catalog.Catalog, ents Entities, open device.Opener) *SndSys {
	if cfg.Clock == nil {
		cfg.Clock = qtime.QTime
	}
	if cfg.MaxChannels <= 0 {
		cfg.MaxChannels = 1
	}
	s := &SndSys{
		cfg:      cfg,
		catalog:  cat,
		entities: ents,
		cache:    newCache(),
		mouths:   make(mouths),
		rand:     rand.New(cfg.Seed),
		limit:    rate.NewLimiter(rate.Every(time.Second), 4),
		volume:   math.Clamp(0, cfg.Volume, 1),
		gain:     -1,
		room:     -1,
		filter:   device.NormalFilter,
	}
	var err error
	if open == nil {
		err = device.ErrNoDevice
	} else {
		s.backend, err = open()
	}
	if err != nil {
		log.Printf("sound: %v, sound disabled", err)
		s.backend = device.Dummy{}
		s.dummy = true
		s.devFailed = true
		return s
	}
	s.updateGain()
	return s
}

// deviceFailure logs the first failed device call.
func (s *SndSys) deviceFailure(err error) {
	if s.devFailed {
		return
	}
	s.devFailed = true
	log.Printf("sound device: %v", err)
}

// missing logs names that do not resolve, at a limited rate.
func (s *SndSys) missing(name string) {
	if s.limit.Allow() {
		log.Printf("sound %s not found", name)
	}
}

func (s *SndSys) shutdown() {
	s.stopAll()
	s.unloadAll()
	if err := s.backend.Close(); err != nil {
		log.Printf("sound shutdown: %v", err)
	}
	s.backend = device.Dummy{}
	s.dummy = true
}

func (s *SndSys) block() {
	s.blocked = true
	s.updateGain()
}

func (s *SndSys) unblock() {
	s.blocked = false
	s.updateGain()
}

func (s *SndSys) pause() {
	if s.paused {
		return
	}
	s.paused = true
	s.pausedAt = s.cfg.Clock()
	for _, c := range s.channels {
		if !c.free() {
			c.voice.Pause()
		}
	}
}

func (s *SndSys) resume() {
	if !s.paused {
		return
	}
	s.paused = false
	// words continue where they were paused
	d := s.cfg.Clock() - s.pausedAt
	for _, c := range s.channels {
		if c.free() {
			continue
		}
		c.wordStart += d
		if c.voice.State() == device.Paused {
			c.voice.Play()
		}
	}
}

func (s *SndSys) setVolume(v float32) {
	s.volume = math.Clamp(0, v, 1)
	s.updateGain()
}

// The API

func (s *SndSys) StartSound(ent int, ch EntityChannel, name string, origin vec.Vec3, volume, attenuation float32, pitch int, flags Flags) {
	if s == nil {
		return
	}
	s.startSound(ent, ch, name, origin, volume, attenuation, pitch, flags)
}

// LocalSound plays a sound without spatialization, used for menus and the
// console. Local sounds do not replace each other.
func (s *SndSys) LocalSound(name string) {
	if s == nil {
		return
	}
	s.startSound(LocalEntity, ChanStatic, name, vec.Vec3{}, 1, 0, PitchNorm, 0)
}

// StaticSound starts an ambient sound on the world. It loops if the sample
// has a loop marker.
func (s *SndSys) StaticSound(name string, origin vec.Vec3, volume, attenuation float32) {
	if s == nil {
		return
	}
	s.startSound(0, ChanStatic, name, origin, volume, attenuation, PitchNorm, 0)
}

func (s *SndSys) StopSound(ent int, ch EntityChannel) {
	if s == nil {
		return
	}
	s.stopSound(ent, ch)
}

func (s *SndSys) StopAll() {
	if s == nil {
		return
	}
	s.stopAll()
}

func (s *SndSys) Update(f Frame) {
	if s == nil {
		return
	}
	s.update(f)
}

// Block mutes all sound, used while the window has no focus.
func (s *SndSys) Block() {
	if s == nil {
		return
	}
	s.block()
}

func (s *SndSys) Unblock() {
	if s == nil {
		return
	}
	s.unblock()
}

func (s *SndSys) Pause() {
	if s == nil {
		return
	}
	s.pause()
}

func (s *SndSys) Resume() {
	if s == nil {
		return
	}
	s.resume()
}

func (s *SndSys) SetVolume(v float32) {
	if s == nil {
		return
	}
	s.setVolume(v)
}

// FadeClientVolume lowers the volume by percent over fadeOut, holds it and
// restores it over fadeIn.
func (s *SndSys) FadeClientVolume(percent float32, fadeOut, hold, fadeIn time.Duration) {
	if s == nil {
		return
	}
	s.fade = clientFade{
		start:   s.cfg.Clock(),
		percent: math.Clamp(0, percent, 100),
		out:     fadeOut,
		hold:    hold,
		in:      fadeIn,
	}
	s.updateGain()
}

func (s *SndSys) SetRoomType(t int) {
	if s == nil {
		return
	}
	s.cfg.RoomType = t
}

func (s *SndSys) SetRoomOff(off bool) {
	if s == nil {
		return
	}
	s.cfg.RoomOff = off
}

func (s *SndSys) SetDedupSkip(f float32) {
	if s == nil {
		return
	}
	s.cfg.DedupSkip = math.Clamp(0, f, 1)
}

func (s *SndSys) SetMaxChannels(n int) {
	if s == nil || n <= 0 {
		return
	}
	s.cfg.MaxChannels = n
}

func (s *SndSys) BeginRegistration() {
	if s == nil {
		return
	}
	s.beginRegistration()
}

// PrecacheSound loads a sound ahead of its first use. It returns the handle or
// -1 if the sound does not exist.
func (s *SndSys) PrecacheSound(name string) int {
	if s == nil || s.dummy {
		return -1
	}
	return s.precacheSound(name)
}

func (s *SndSys) EndRegistration() {
	if s == nil {
		return
	}
	s.endRegistration()
}

func (s *SndSys) Channels() []ChannelInfo {
	if s == nil {
		return nil
	}
	return s.channelInfo()
}

// Mouth reports how far the mouth of a speaking entity is open.
func (s *SndSys) Mouth(ent int, ch EntityChannel) (float32, bool) {
	if s == nil {
		return 0, false
	}
	return s.mouths.get(ent, ch)
}

// Samples describes the loaded samples.
func (s *SndSys) Samples() []SampleInfo {
	if s == nil {
		return nil
	}
	var r []SampleInfo
	for _, smp := range s.cache.samples {
		i := SampleInfo{Name: smp.name, Failed: smp.failed, Refs: smp.refs}
		if smp.pcm != nil {
			i.Size = smp.pcm.Size()
			i.Rate = smp.pcm.SampleRate
			i.Channels = smp.pcm.Channels
			i.Duration = smp.pcm.Duration()
			i.Looping = smp.pcm.Looping()
		}
		r = append(r, i)
	}
	return r
}

type SampleInfo struct {
	Name     string
	Size     int
	Rate     int
	Channels int
	Duration time.Duration
	Looping  bool
	Failed   bool
	Refs     int
}

// Silent reports whether there is no working device.
func (s *SndSys) Silent() bool {
	return s == nil || s.dummy
}

func (s *SndSys) Shutdown() {
	if s == nil {
		return
	}
	s.shutdown()
}
