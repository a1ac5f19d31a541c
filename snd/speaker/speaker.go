// SPDX-License-Identifier: GPL-2.0-or-later

// Package speaker is the single audio output of the process. Every device
// context adds its own streamer and all of them are mixed into one oto player.
package speaker

import (
	"encoding/binary"
	"log"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
)

const bytesPerFrame = 8 // stereo float32

var (
	mu         sync.Mutex
	mixer      beep.Mixer
	otoCtx     *oto.Context
	player     *oto.Player
	sampleRate beep.SampleRate
	closed     bool
	mixBuf     [][2]float64
)

type reader struct{}

func (reader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	mu.Lock()
	defer mu.Unlock()
	if cap(mixBuf) < frames {
		mixBuf = make([][2]float64, frames)
	}
	buf := mixBuf[:frames]
	n := 0
	if !closed {
		n, _ = mixer.Stream(buf)
	}
	clear(buf[n:])
	fill(p, buf, 1)
	return frames * bytesPerFrame, nil
}

// fill writes the frames as float32 LE stereo into p.
func fill(p []byte, frames [][2]float64, vol float64) {
	for i, f := range frames {
		for c := 0; c < 2; c++ {
			v := float32(math.Max(-1, math.Min(1, f[c]*vol)))
			binary.LittleEndian.PutUint32(p[i*bytesPerFrame+c*4:], math.Float32bits(v))
		}
	}
}

// Init opens the output device. oto allows only one context per process, so
// a second Init with the same rate resumes the existing one.
func Init(sr beep.SampleRate, bufferSize int) error {
	mu.Lock()
	defer mu.Unlock()
	if otoCtx != nil {
		if sr != sampleRate {
			return errors.Errorf("speaker already running at %d Hz", sampleRate)
		}
		if closed {
			closed = false
			if err := otoCtx.Resume(); err != nil {
				return errors.Wrap(err, "failed to resume speaker")
			}
			player.Play()
		}
		return nil
	}
	op := &oto.NewContextOptions{
		SampleRate:   int(sr),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   sr.D(bufferSize),
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return errors.Wrap(err, "failed to initialize speaker")
	}
	<-ready
	otoCtx = ctx
	sampleRate = sr
	closed = false
	player = ctx.NewPlayer(reader{})
	player.Play()
	return nil
}

// Close removes all streamers and stops the output.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if otoCtx == nil || closed {
		return
	}
	closed = true
	mixer.Clear()
	player.Pause()
	if err := otoCtx.Suspend(); err != nil {
		log.Printf("speaker suspend: %v", err)
	}
}

// Play adds streamers to the output mix.
func Play(s ...beep.Streamer) {
	mu.Lock()
	defer mu.Unlock()
	mixer.Add(s...)
}

func SampleRate() beep.SampleRate {
	mu.Lock()
	defer mu.Unlock()
	return sampleRate
}
