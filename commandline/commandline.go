// SPDX-License-Identifier: GPL-2.0-or-later

package commandline

import (
	"flag"
)

var (
	noMusic bool
	noSound bool

	sndSpeed int

	basedir string
	game    string
)

func init() {
	flag.BoolVar(&noMusic, "nomusic", false, "Disable the music streamer")
	flag.BoolVar(&noSound, "nosound", false, "Disable sound output")

	flag.IntVar(&sndSpeed, "sndspeed", 44100, "output sample rate")

	flag.StringVar(&basedir, "basedir", ".", "directory holding the game directories")
	flag.StringVar(&game, "game", "", "mod directory searched before valve")
}

func BaseDirectory() string {
	return basedir
}

func Game() string {
	return game
}

func Sound() bool {
	return !noSound
}

func Music() bool {
	return !noMusic
}

func SoundSpeed() int {
	return sndSpeed
}
