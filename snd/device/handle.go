// SPDX-License-Identifier: GPL-2.0-or-later

package device

import (
	"log"
	"runtime"

	"gohl/math/vec"
)

type leak struct {
	kind string
	id   uint32
}

func reportLeak(l leak) {
	log.Printf("%s %d was garbage collected without Release", l.kind, l.id)
}

// Voice owns one hardware voice. It must not be copied.
type Voice struct {
	b       Backend
	id      VoiceID
	queue   []*Buffer
	cleanup runtime.Cleanup
}

func NewVoice(b Backend) (*Voice, error) {
	id, err := b.CreateVoice()
	if err != nil {
		return nil, err
	}
	v := &Voice{b: b, id: id}
	v.cleanup = runtime.AddCleanup(v, reportLeak, leak{"voice", uint32(id)})
	return v, nil
}

// Release stops and destroys the voice. Further calls are no-ops.
func (v *Voice) Release() {
	if v == nil || v.id == 0 {
		return
	}
	v.cleanup.Stop()
	v.b.Stop(v.id)
	v.b.AttachBuffer(v.id, 0)
	v.b.DestroyVoice(v.id)
	v.id = 0
	v.queue = nil
}

func (v *Voice) Released() bool { return v.id == 0 }

func (v *Voice) SetGain(g float32)      { v.b.SetGain(v.id, g) }
func (v *Voice) SetPitch(p float32)     { v.b.SetPitch(v.id, p) }
func (v *Voice) SetPosition(p vec.Vec3) { v.b.SetPosition(v.id, p) }
func (v *Voice) SetRelative(r bool)     { v.b.SetRelative(v.id, r) }
func (v *Voice) SetLooping(l bool)      { v.b.SetLooping(v.id, l) }
func (v *Voice) SetRolloff(r float32)   { v.b.SetRolloff(v.id, r) }
func (v *Voice) SetOffset(frame int)    { v.b.SetOffset(v.id, frame) }
func (v *Voice) SetFilter(f LowPass)    { v.b.SetFilter(v.id, f) }
func (v *Voice) Play()                  { v.b.Play(v.id) }
func (v *Voice) Pause()                 { v.b.Pause(v.id) }
func (v *Voice) Stop()                  { v.b.Stop(v.id) }
func (v *Voice) State() State           { return v.b.State(v.id) }
func (v *Voice) ProcessedBuffers() int  { return v.b.ProcessedBuffers(v.id) }
func (v *Voice) QueuedBuffers() int     { return v.b.QueuedBuffers(v.id) }

// Attach makes b the static buffer of the voice, nil detaches.
func (v *Voice) Attach(b *Buffer) {
	var id BufferID
	if b != nil {
		id = b.id
	}
	v.b.AttachBuffer(v.id, id)
}

func (v *Voice) Queue(bs ...*Buffer) {
	ids := make([]BufferID, len(bs))
	for i, b := range bs {
		ids[i] = b.id
	}
	v.b.QueueBuffers(v.id, ids...)
	v.queue = append(v.queue, bs...)
}

// Unqueue removes up to n processed buffers and returns them for refilling.
func (v *Voice) Unqueue(n int) []*Buffer {
	ids := v.b.UnqueueBuffers(v.id, n)
	r := make([]*Buffer, 0, len(ids))
	for _, id := range ids {
		for i, b := range v.queue {
			if b.id == id {
				r = append(r, b)
				v.queue = append(v.queue[:i], v.queue[i+1:]...)
				break
			}
		}
	}
	return r
}

// Buffer owns one hardware sample buffer. It must not be copied.
type Buffer struct {
	b       Backend
	id      BufferID
	cleanup runtime.Cleanup
}

func NewBuffer(b Backend) (*Buffer, error) {
	id, err := b.CreateBuffer()
	if err != nil {
		return nil, err
	}
	buf := &Buffer{b: b, id: id}
	buf.cleanup = runtime.AddCleanup(buf, reportLeak, leak{"buffer", uint32(id)})
	return buf, nil
}

func (b *Buffer) Submit(samples []float32, channels, rate int) error {
	return b.b.SubmitSamples(b.id, samples, channels, rate)
}

func (b *Buffer) SetLoopPoints(start, length int) {
	b.b.SetLoopPoints(b.id, start, length)
}

// Release destroys the buffer. It must be detached from every voice first.
// Further calls are no-ops.
func (b *Buffer) Release() {
	if b == nil || b.id == 0 {
		return
	}
	b.cleanup.Stop()
	b.b.DestroyBuffer(b.id)
	b.id = 0
}
