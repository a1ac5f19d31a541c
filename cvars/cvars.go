// SPDX-License-Identifier: GPL-2.0-or-later

package cvars

import (
	"gohl/cvar"
)

var (
	BackgroundVolume *cvar.Cvar
	MusicBuffers     *cvar.Cvar
	MusicRing        *cvar.Cvar
	MusicSleep       *cvar.Cvar
	NoSound          *cvar.Cvar
	RoomOff          *cvar.Cvar
	RoomType         *cvar.Cvar
	SoundDedupSkip   *cvar.Cvar
	SoundMaxChannels *cvar.Cvar
	SoundShow        *cvar.Cvar
	Volume           *cvar.Cvar
)

func init() {
	BackgroundVolume = cvar.MustRegister("bgmvolume", "1", cvar.ARCHIVE)
	MusicBuffers = cvar.MustRegister("snd_musicbuffers", "4", cvar.NONE)
	MusicRing = cvar.MustRegister("snd_musicring", "1", cvar.NONE)
	MusicSleep = cvar.MustRegister("snd_musicsleep", "1", cvar.NONE)
	NoSound = cvar.MustRegister("nosound", "0", cvar.NONE)
	RoomOff = cvar.MustRegister("room_off", "0", cvar.NONE)
	RoomType = cvar.MustRegister("snd_roomtype", "-1", cvar.NONE)
	SoundDedupSkip = cvar.MustRegister("snd_dedupskip", "0.1", cvar.NONE)
	SoundMaxChannels = cvar.MustRegister("snd_maxchannels", "128", cvar.NONE)
	SoundShow = cvar.MustRegister("snd_show", "0", cvar.NONE)
	Volume = cvar.MustRegister("volume", "0.7", cvar.ARCHIVE)
}
