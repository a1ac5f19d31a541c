// SPDX-License-Identifier: GPL-2.0-or-later

package decode

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/gopxl/beep/v2/flac"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/pkg/errors"
)

func decodeOGG(name string, data []byte) (*PCM, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: ogg decode", name)
	}
	return &PCM{
		Channels:   format.Channels,
		SampleRate: format.SampleRate,
		Samples:    samples,
		LoopStart:  -1,
	}, nil
}

// go-mp3 always produces 16bit little endian stereo.
func decodeMP3(name string, data []byte) (*PCM, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to create mp3 decoder", name)
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: mp3 decode", name)
	}
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / (1 << 15)
	}
	return &PCM{
		Channels:   stereo,
		SampleRate: d.SampleRate(),
		Samples:    samples,
		LoopStart:  -1,
	}, nil
}

func decodeFLAC(name string, data []byte) (*PCM, error) {
	s, format, err := flac.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: flac decode", name)
	}
	defer s.Close()
	channels := format.NumChannels
	if channels > stereo {
		return nil, errors.Errorf("%s: unsupported channel count %d", name, channels)
	}
	out := &PCM{
		Channels:   channels,
		SampleRate: int(format.SampleRate),
		Samples:    make([]float32, 0, s.Len()*channels),
		LoopStart:  -1,
	}
	buf := make([][2]float64, 1024)
	for {
		n, ok := s.Stream(buf)
		for _, f := range buf[:n] {
			out.Samples = append(out.Samples, float32(f[0]))
			if channels == stereo {
				out.Samples = append(out.Samples, float32(f[1]))
			}
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s: flac decode", name)
	}
	return out, nil
}
