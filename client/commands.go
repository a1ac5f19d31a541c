// SPDX-License-Identifier: GPL-2.0-or-later

package client

import (
	"slices"
	"strings"
	"time"

	"gohl/cmd"
	"gohl/conlog"
	"gohl/cvar"
	"gohl/cvars"
	"gohl/filesystem"
	"gohl/math/vec"
	"gohl/snd"
	"gohl/snd/music"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const defaultMusicFade = 2 * time.Second

func init() {
	cvars.Volume.SetCallback(onVolumeChange)
	cvars.BackgroundVolume.SetCallback(onBackgroundVolumeChange)
	cvars.RoomType.SetCallback(func(cv *cvar.Cvar) {
		if active != nil {
			active.sound.SetRoomType(int(cv.Value()))
		}
	})
	cvars.RoomOff.SetCallback(func(cv *cvar.Cvar) {
		if active != nil {
			active.sound.SetRoomOff(cv.Bool())
		}
	})
	cvars.SoundDedupSkip.SetCallback(func(cv *cvar.Cvar) {
		if active != nil {
			active.sound.SetDedupSkip(cv.Value())
		}
	})
	cvars.SoundMaxChannels.SetCallback(func(cv *cvar.Cvar) {
		if cv.Value() < 1 {
			cv.SetByString("1")
			return
		}
		if active != nil {
			active.sound.SetMaxChannels(int(cv.Value()))
		}
	})

	cmd.Must(cmd.AddCommand("play", playCmd))
	cmd.Must(cmd.AddCommand("playvol", playVolCmd))
	cmd.Must(cmd.AddCommand("speak", speakCmd))
	cmd.Must(cmd.AddCommand("stopsound", stopSoundCmd))
	cmd.Must(cmd.AddCommand("soundlist", soundListCmd))
	cmd.Must(cmd.AddCommand("soundinfo", soundInfoCmd))
	cmd.Must(cmd.AddCommand("music", musicCmd))
	cmd.Must(cmd.AddCommand("musicinfo", musicInfoCmd))
}

func onVolumeChange(cv *cvar.Cvar) {
	v := cv.Value()
	if v > 1 {
		cv.SetByString("1")
		// recursion so exit early
		return
	}
	if v < 0 {
		cv.SetByString("0")
		// recursion so exit early
		return
	}
	if active != nil {
		active.sound.SetVolume(v)
	}
}

func onBackgroundVolumeChange(cv *cvar.Cvar) {
	v := cv.Value()
	if v > 1 {
		cv.SetByString("1")
		return
	}
	if v < 0 {
		cv.SetByString("0")
		return
	}
	if active != nil {
		active.music.SetVolume(v)
	}
}

// soundName adds the default extension to names typed at the console.
func soundName(n string) string {
	if filesystem.Ext(n) == "" {
		return n + ".wav"
	}
	return n
}

func playCmd(a cmd.Arguments) error {
	if active == nil {
		return nil
	}
	for _, arg := range a.Args()[1:] {
		active.sound.LocalSound(soundName(arg.String()))
	}
	return nil
}

func playVolCmd(a cmd.Arguments) error {
	if active == nil {
		return nil
	}
	args := a.Args()[1:]
	if len(args)%2 != 0 {
		return errors.New("playvol <sound> <volume> [<sound> <volume> ...]")
	}
	for i := 0; i < len(args); i += 2 {
		active.sound.StartSound(snd.LocalEntity, snd.ChanStatic, soundName(args[i].String()),
			vec.Vec3{}, args[i+1].Float32(), 0, snd.PitchNorm, 0)
	}
	return nil
}

func speakCmd(a cmd.Arguments) error {
	if active == nil {
		return nil
	}
	for _, arg := range a.Args()[1:] {
		n := arg.String()
		if n == "" {
			continue
		}
		if n[0] != snd.SentenceMarker {
			n = string(snd.SentenceMarker) + n
		}
		active.sound.LocalSound(n)
	}
	return nil
}

func stopSoundCmd(_ cmd.Arguments) error {
	if active != nil {
		active.sound.StopAll()
	}
	return nil
}

func soundListCmd(_ cmd.Arguments) error {
	if active == nil {
		return nil
	}
	samples := active.sound.Samples()
	slices.SortFunc(samples, func(a, b snd.SampleInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	total := 0
	for _, s := range samples {
		if s.Failed {
			conlog.SafePrintf("  failed %s\n", s.Name)
			continue
		}
		loop := ' '
		if s.Looping {
			loop = 'L'
		}
		conlog.SafePrintf("%c(%d ch) %8s %5dHz %6s : %s\n", loop, s.Channels,
			humanize.IBytes(uint64(s.Size)), s.Rate, s.Duration.Round(time.Millisecond), s.Name)
		total += s.Size
	}
	conlog.SafePrintf("%d sounds, %s resident\n", len(samples), humanize.IBytes(uint64(total)))
	return nil
}

func soundInfoCmd(_ cmd.Arguments) error {
	if active == nil || active.sound.Silent() {
		conlog.Printf("sound system not started\n")
		return nil
	}
	conlog.Printf("%d channels playing\n", len(active.sound.Channels()))
	conlog.Printf("%d sounds cached\n", len(active.sound.Samples()))
	conlog.Printf("volume %.2f, room %d\n", cvars.Volume.Value(), int(cvars.RoomType.Value()))
	return nil
}

func musicCmd(a cmd.Arguments) error {
	if active == nil {
		return nil
	}
	m := active.music
	switch strings.ToLower(a.Argv(1).String()) {
	case "play", "loop":
		p := a.Argv(2).String()
		if p == "" {
			return errors.Errorf("music %s <file>", a.Argv(1).String())
		}
		m.Play(p, strings.EqualFold(a.Argv(1).String(), "loop"))
	case "stop":
		m.Stop()
	case "pause":
		m.Pause()
	case "resume":
		m.Resume()
	case "fade":
		d := defaultMusicFade
		if len(a.Args()) > 2 {
			d = time.Duration(a.Argv(2).Float32() * float32(time.Second))
		}
		m.FadeOut(d)
	default:
		conlog.Printf("music play|loop <file>, music stop|pause|resume, music fade [seconds]\n")
	}
	return nil
}

func musicInfoCmd(_ cmd.Arguments) error {
	if active == nil || !active.music.Enabled() {
		conlog.Printf("music not started\n")
		return nil
	}
	m := active.music
	t := m.Track()
	if t == nil || m.State() == music.Stopped {
		conlog.Printf("no track\n")
		return nil
	}
	loop := ""
	if t.Loop {
		loop = ", looping"
	}
	conlog.Printf("%s (%s%s)\n", t.Path, m.State(), loop)
	conlog.Printf("%s, %d Hz, %d ch, %s decoded\n", t.Duration.Round(time.Second),
		t.Rate, t.Channels, humanize.IBytes(uint64(t.Size)))
	conlog.Printf("gain %.2f, started %s\n", m.Gain(), t.ID)
	return nil
}

func showChannels(cs []snd.ChannelInfo) {
	for _, c := range cs {
		name := c.Sound
		if c.Sentence != "" {
			name = c.Sentence + "/" + c.Sound
		}
		conlog.SafePrintf("%4d %-6s %3.0f%% %3d %s\n", c.Entity, c.Channel, c.Volume*100, c.Pitch, name)
	}
	conlog.SafePrintf("----(%d)----\n", len(cs))
}
