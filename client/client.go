// SPDX-License-Identifier: GPL-2.0-or-later

// Package client owns the sound system and the music streamer of the running
// client and connects them to the console.
package client

import (
	"log"
	"time"

	"gohl/commandline"
	"gohl/conlog"
	"gohl/cvars"
	"gohl/filesystem"
	"gohl/math/vec"
	"gohl/snd"
	"gohl/snd/catalog"
	"gohl/snd/device"
	"gohl/snd/music"
)

type Options struct {
	Sound      bool
	Music      bool
	SampleRate int
	BaseDir    string
	Game       string
}

// OptionsFromCommandline reads the options from the parsed flags.
func OptionsFromCommandline() Options {
	return Options{
		Sound:      commandline.Sound(),
		Music:      commandline.Music(),
		SampleRate: commandline.SoundSpeed(),
		BaseDir:    commandline.BaseDirectory(),
		Game:       commandline.Game(),
	}
}

type Client struct {
	sound    *snd.SndSys
	music    *music.Streamer
	entities *EntityTable
	frame    snd.Frame
	focused  bool
}

// active receives the console commands and cvar changes.
var active *Client

// softwareOpener opens a software mixing context on the shared speaker.
func softwareOpener(rate int) device.Opener {
	return func() (device.Backend, error) {
		s, err := device.Open(rate)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func soundConfig() snd.Config {
	cfg := snd.DefaultConfig()
	cfg.MaxChannels = int(cvars.SoundMaxChannels.Value())
	cfg.DedupSkip = cvars.SoundDedupSkip.Value()
	cfg.Volume = cvars.Volume.Value()
	cfg.RoomType = int(cvars.RoomType.Value())
	cfg.RoomOff = cvars.RoomOff.Bool()
	cfg.Seed = uint32(time.Now().UnixNano())
	return cfg
}

func musicConfig() music.Config {
	cfg := music.DefaultConfig()
	cfg.Buffers = int(cvars.MusicBuffers.Value())
	cfg.Ring = time.Duration(cvars.MusicRing.Value() * float32(time.Second))
	cfg.Sleep = time.Duration(cvars.MusicSleep.Value() * float32(time.Millisecond))
	cfg.Volume = cvars.BackgroundVolume.Value()
	return cfg
}

// Init sets up the game directories, indexes the sounds and opens the
// devices. A missing device leaves the client silent.
func Init(o Options) *Client {
	filesystem.UseBaseDir(o.BaseDir)
	filesystem.UseGameDir(o.Game)
	// the catalog keeps its sound index even when the sentences are broken
	cat, err := catalog.Load(filesystem.Current())
	if err != nil {
		log.Printf("sound catalog: %v", err)
	}
	var sndOpen, musicOpen device.Opener
	if o.Sound && !cvars.NoSound.Bool() {
		sndOpen = softwareOpener(o.SampleRate)
		if o.Music {
			musicOpen = softwareOpener(o.SampleRate)
		}
	}
	ents := NewEntityTable()
	s := snd.Init(soundConfig(), cat, ents, sndOpen)
	m := music.New(musicConfig(), musicOpen, music.LoadFile)
	c := newClient(s, m, ents)
	conlog.Printf("Sound: %d sounds, %d sentences\n", len(cat.Sounds()), cat.NumSentences())
	return c
}

func newClient(s *snd.SndSys, m *music.Streamer, ents *EntityTable) *Client {
	c := &Client{
		sound:    s,
		music:    m,
		entities: ents,
		focused:  true,
		frame: snd.Frame{
			RoomType: -1,
		},
	}
	c.SetView(snd.LocalEntity, vec.Vec3{}, vec.Vec3{}, 0)
	active = c
	return c
}

func (c *Client) Sound() *snd.SndSys      { return c.sound }
func (c *Client) Music() *music.Streamer  { return c.music }
func (c *Client) Entities() *EntityTable  { return c.entities }
func (c *Client) Listener() snd.Frame     { return c.frame }
func (c *Client) SetListener(f snd.Frame) { c.frame = f }

// SetView moves the listener to the view of entity. angles are pitch, yaw
// and roll in degrees.
func (c *Client) SetView(entity int, origin, angles vec.Vec3, msgNum int) {
	c.frame.ViewEntity = entity
	c.frame.Origin = origin
	c.frame.Forward, c.frame.Right, c.frame.Up = vec.AngleVectors(angles)
	c.frame.MsgNum = msgNum
}

// Frame updates the sound system for the current listener.
func (c *Client) Frame() {
	c.sound.Update(c.frame)
	if cvars.SoundShow.Bool() {
		showChannels(c.sound.Channels())
	}
}

// Focus mutes sound and music while the window is in the background.
func (c *Client) Focus(focused bool) {
	if c.focused == focused {
		return
	}
	c.focused = focused
	if focused {
		c.sound.Unblock()
		c.music.Unblock()
	} else {
		c.sound.Block()
		c.music.Block()
	}
}

// Shutdown stops the music loop before the sound system releases its device.
func (c *Client) Shutdown() {
	c.music.Close()
	c.sound.Shutdown()
	if active == c {
		active = nil
	}
}
