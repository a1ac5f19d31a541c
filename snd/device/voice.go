// SPDX-License-Identifier: GPL-2.0-or-later

package device

import (
	"gohl/math"
	"gohl/math/vec"

	"github.com/gopxl/beep/v2"
)

const clipDistance = 1000

type voice struct {
	static    *buffer
	queue     []*buffer
	processed int
	pos       int // frame within the current buffer
	offset    int // start frame of the next play
	drained   bool
	state     State
	gain      float32
	pitch     float32
	origin    vec.Vec3
	relative  bool
	looping   bool
	rolloff   float32
	filter    LowPass
	lp        [2]float64
	stream    *beep.Resampler
}

func newVoice() *voice {
	return &voice{
		state:   Initial,
		gain:    1,
		pitch:   1,
		rolloff: 1,
		filter:  NormalFilter,
	}
}

func (v *voice) reset() {
	v.static = nil
	v.queue = nil
	v.processed = 0
	v.pos = 0
	v.offset = 0
	v.stream = nil
	v.state = Initial
}

func (v *voice) stop() {
	v.state = Stopped
	v.stream = nil
	v.processed = len(v.queue)
}

// forget drops every reference to a destroyed buffer.
func (v *voice) forget(b *buffer) {
	if v.static == b {
		v.static = nil
		v.stop()
	}
	for i, q := range v.queue {
		if q == b {
			v.queue = append(v.queue[:i:i], v.queue[i+1:]...)
			if i < v.processed {
				v.processed--
			}
			break
		}
	}
}

func (v *voice) current() *buffer {
	if v.static != nil {
		return v.static
	}
	if v.processed < len(v.queue) {
		return v.queue[v.processed]
	}
	return nil
}

func (v *voice) ratio(deviceRate int) float64 {
	rate := deviceRate
	if b := v.current(); b != nil && b.rate > 0 {
		rate = b.rate
	}
	p := math.Clamp(0.01, float64(v.pitch), 100)
	return float64(rate) / float64(deviceRate) * p
}

func (v *voice) restart(deviceRate int) {
	v.drained = false
	v.lp = [2]float64{}
	v.stream = beep.ResampleRatio(resampleQuality, v.ratio(deviceRate), v)
}

// Stream feeds the resampler with the raw frames of the attached or queued
// buffers.
func (v *voice) Stream(out [][2]float64) (int, bool) {
	n := 0
	for n < len(out) {
		b := v.current()
		if b == nil {
			break
		}
		end := len(b.samples)
		if v.static != nil && v.looping {
			_, end = b.loopRange()
		}
		if v.pos >= end {
			if v.static == nil {
				v.processed++
				v.pos = 0
				continue
			}
			if !v.looping || end == 0 {
				break
			}
			v.pos, _ = b.loopRange()
			continue
		}
		c := copy(out[n:], b.samples[v.pos:end])
		n += c
		v.pos += c
	}
	if n < len(out) {
		v.drained = true
		clear(out[n:])
	}
	return n, n > 0
}

func (v *voice) Err() error { return nil }

func (v *voice) spatialize(l Listener) (left, right float64) {
	g := float64(v.gain)
	d := vec.Sub(v.origin, l.Origin)
	axis := l.Right
	if v.relative {
		d = v.origin
		axis = vec.Vec3{X: 1}
	}
	dist := 1 - d.Length()*v.rolloff/clipDistance
	d = d.Normalize()
	dot := vec.Dot(axis, d)
	left = math.Clamp(0, float64((1-dot)*dist), 1) * g
	right = math.Clamp(0, float64((1+dot)*dist), 1) * g
	return left, right
}

// mix adds the voice output to out, and to wet when the room effect is on.
func (v *voice) mix(out, scratch, wet [][2]float64, l Listener, room bool) {
	if v.stream == nil {
		v.state = Stopped
		return
	}
	buf := scratch[:len(out)]
	n, _ := v.stream.Stream(buf)
	left, right := v.spatialize(l)
	a := math.Clamp(0, float64(v.filter.GainHF), 1)
	fg := float64(v.filter.Gain)
	for i := range buf[:n] {
		v.lp[0] += a * (buf[i][0] - v.lp[0])
		v.lp[1] += a * (buf[i][1] - v.lp[1])
		sl := v.lp[0] * fg * left
		sr := v.lp[1] * fg * right
		out[i][0] += sl
		out[i][1] += sr
		if room {
			wet[i][0] += sl
			wet[i][1] += sr
		}
	}
	if v.drained {
		v.stop()
	}
}
