// SPDX-License-Identifier: GPL-2.0-or-later

// Package decode turns raw sound file bytes into interleaved float samples.
package decode

import (
	"bytes"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrUnknownFormat = errors.New("unknown audio format")

// PCM is a fully decoded sound. Samples are interleaved, one float per channel
// per frame, in the range [-1,1].
type PCM struct {
	Channels   int
	SampleRate int
	Samples    []float32
	// LoopStart is the first frame of the loop, -1 if the sound does not loop.
	LoopStart int
	// LoopLength is the number of frames in the loop, 0 loops to the end.
	LoopLength int
}

// Frames returns the number of sample frames.
func (p *PCM) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

func (p *PCM) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}

func (p *PCM) Looping() bool {
	return p.LoopStart >= 0
}

// Size returns the memory used by the samples in bytes.
func (p *PCM) Size() int {
	return len(p.Samples) * 4
}

func (p *PCM) validate(name string) error {
	if p.Channels != 1 && p.Channels != 2 {
		return errors.Errorf("%s: unsupported channel count %d", name, p.Channels)
	}
	if p.SampleRate <= 0 {
		return errors.Errorf("%s: invalid sample rate %d", name, p.SampleRate)
	}
	if p.LoopStart >= p.Frames() {
		// a loop point past the end loops the whole sample
		p.LoopStart = 0
		p.LoopLength = 0
	}
	if p.LoopStart >= 0 && p.LoopStart+p.LoopLength > p.Frames() {
		p.LoopLength = 0
	}
	return nil
}

type decoderFunc func(name string, data []byte) (*PCM, error)

var decoders = map[string]decoderFunc{
	"wav":  decodeWAV,
	"ogg":  decodeOGG,
	"flac": decodeFLAC,
	"mp3":  decodeMP3,
}

// format names the container of data, judged by content first and by the
// extension of name second.
func format(name string, data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return "wav"
	case bytes.HasPrefix(data, []byte("OggS")):
		return "ogg"
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "flac"
	case bytes.HasPrefix(data, []byte("ID3")),
		len(data) > 1 && data[0] == 0xff && data[1]&0xe0 == 0xe0:
		return "mp3"
	}
	e := strings.TrimPrefix(strings.ToLower(ext(name)), ".")
	if _, ok := decoders[e]; ok {
		return e
	}
	return ""
}

func ext(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && !strings.ContainsAny(name[i:], "/\\") {
		return name[i:]
	}
	return ""
}

// Decode detects the format of data and decodes it completely.
func Decode(name string, data []byte) (*PCM, error) {
	d, ok := decoders[format(name, data)]
	if !ok {
		return nil, errors.Wrap(ErrUnknownFormat, name)
	}
	p, err := d(name, data)
	if err != nil {
		return nil, err
	}
	if err := p.validate(name); err != nil {
		return nil, err
	}
	return p, nil
}
