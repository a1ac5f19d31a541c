// SPDX-License-Identifier: GPL-2.0-or-later

package device

// reverb is a feedback comb filter over the summed effect sends.
type reverb struct {
	room Room
	line [][2]float64
	idx  int
}

func (r *reverb) set(room Room, rate int) {
	r.room = room
	n := int(room.Delay * float32(rate))
	if !room.Enabled() || n < 1 {
		r.line = nil
		r.idx = 0
		return
	}
	if n != len(r.line) {
		r.line = make([][2]float64, n)
		r.idx = 0
	}
}

func (r *reverb) enabled() bool { return len(r.line) > 0 }

func (r *reverb) process(wet, out [][2]float64) {
	g := float64(r.room.Gain)
	fb := float64(r.room.Decay)
	for i := range wet {
		d := r.line[r.idx]
		for c := range 2 {
			r.line[r.idx][c] = wet[i][c] + d[c]*fb
			out[i][c] += d[c] * g
		}
		r.idx = (r.idx + 1) % len(r.line)
	}
}
