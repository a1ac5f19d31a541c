// SPDX-License-Identifier: GPL-2.0-or-later

package device

// Room is a reverb preset. A zero Gain disables the effect.
type Room struct {
	Name  string
	Gain  float32 // wet level
	Delay float32 // seconds
	Decay float32 // feedback per echo
}

func (r Room) Enabled() bool { return r.Gain > 0 && r.Delay > 0 }

// Rooms is indexed by the room type a level assigns to its areas.
var Rooms = [...]Room{
	{Name: "off"},
	{"generic", 0.25, 0.045, 0.3},
	{"metal small", 0.35, 0.012, 0.45},
	{"metal medium", 0.4, 0.025, 0.55},
	{"metal large", 0.45, 0.05, 0.65},
	{"tunnel small", 0.4, 0.02, 0.5},
	{"tunnel medium", 0.45, 0.04, 0.6},
	{"tunnel large", 0.5, 0.07, 0.7},
	{"chamber small", 0.3, 0.01, 0.35},
	{"chamber medium", 0.35, 0.02, 0.45},
	{"chamber large", 0.4, 0.04, 0.55},
	{"bright small", 0.35, 0.008, 0.5},
	{"bright medium", 0.4, 0.018, 0.6},
	{"bright large", 0.45, 0.035, 0.7},
	{"water 1", 0.4, 0.02, 0.4},
	{"water 2", 0.45, 0.03, 0.5},
	{"water 3", 0.5, 0.05, 0.6},
	{"concrete small", 0.3, 0.01, 0.4},
	{"concrete medium", 0.35, 0.022, 0.5},
	{"concrete large", 0.4, 0.045, 0.6},
	{"outside 1", 0.15, 0.12, 0.2},
	{"outside 2", 0.2, 0.18, 0.25},
	{"outside 3", 0.25, 0.25, 0.3},
	{"cavern small", 0.4, 0.03, 0.55},
	{"cavern medium", 0.45, 0.06, 0.65},
	{"cavern large", 0.5, 0.1, 0.75},
	{"weirdo 1", 0.5, 0.005, 0.8},
	{"weirdo 2", 0.55, 0.09, 0.8},
	{"weirdo 3", 0.6, 0.15, 0.85},
}

// UnderwaterRoom is used whenever the listener is submerged.
const UnderwaterRoom = 14

// RoomByType returns the preset for a room type, out of range types map to off.
func RoomByType(t int) Room {
	if t < 0 || t >= len(Rooms) {
		return Rooms[0]
	}
	return Rooms[t]
}

var (
	NormalFilter     = LowPass{Gain: 1, GainHF: 1}
	UnderwaterFilter = LowPass{Gain: 1, GainHF: 0.25}
)
