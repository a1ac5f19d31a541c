// SPDX-License-Identifier: GPL-2.0-or-later

package decode

import (
	"bytes"
	"encoding/binary"
	"io"
	"log"
	"math"

	"github.com/pkg/errors"
)

const (
	stereo = 2
	mono   = 1

	formatPCM   = 0x0001
	formatFloat = 0x0003
)

type header struct {
	ID   [4]byte
	Size uint32
}

type waveHeader struct {
	ID       [4]byte // better be RIFF
	Size     uint32  // file size - 8
	RiffType [4]byte // better be WAVE
}

type chunk struct {
	header
	Data *io.SectionReader
}

type waveFmt struct {
	// The chunk ID and size are already read as part of the chunk header.
	CompressionCode uint16 // PCM (0x0001) or IEEE float (0x0003)
	ChannelNum      uint16 // expect 1 or 2
	SampleRate      uint32
	ByteRate        uint32
	BytesPerFrame   uint16
	BitsPerSample   uint16
}

// http://www.piclist.com/techref/io/serial/midi/wave.html

func decodeWAV(name string, data []byte) (*PCM, error) {
	r := bytes.NewReader(data)

	wh := waveHeader{} // 12 byte
	if err := binary.Read(r, binary.LittleEndian, &wh); err != nil {
		return nil, errors.Wrapf(err, "%s: failed to read header", name)
	}
	if wh.ID != [4]byte{'R', 'I', 'F', 'F'} ||
		wh.RiffType != [4]byte{'W', 'A', 'V', 'E'} {
		return nil, errors.Errorf("%s: not a RIFF wave file", name)
	}

	chunks := []*chunk{}
	nextChunkStart := int64(12)
	for {
		c := &chunk{}
		if err := binary.Read(r, binary.LittleEndian, &c.header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				// trailing padding is no chunk
				break
			}
			return nil, errors.Wrapf(err, "%s: failed to read chunk header", name)
		}
		nextChunkStart += 8
		size := int64(c.Size)
		c.Data = io.NewSectionReader(r, nextChunkStart, size)
		if size%2 != 0 {
			// chunks are WORD aligned with 0 padding but 'size' does not
			// include the padding.
			size++
		}
		var err error
		nextChunkStart, err = r.Seek(size, io.SeekCurrent)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: seek error", name)
		}
		chunks = append(chunks, c)
	}

	var f *waveFmt
	for _, c := range chunks {
		if c.ID != [4]byte{'f', 'm', 't', ' '} {
			continue
		}
		if f != nil {
			return nil, errors.Errorf("%s: more than one fmt chunk", name)
		}
		if c.Size < 16 {
			return nil, errors.Errorf("%s: got broken fmt chunk", name)
		}
		f = &waveFmt{}
		if err := binary.Read(c.Data, binary.LittleEndian, f); err != nil {
			return nil, errors.Wrapf(err, "%s: could not read fmt chunk", name)
		}
	}
	if f == nil {
		return nil, errors.Errorf("%s: missing fmt chunk", name)
	}
	switch {
	case f.CompressionCode == formatPCM && (f.BitsPerSample == 8 || f.BitsPerSample == 16):
	case f.CompressionCode == formatFloat && f.BitsPerSample == 32:
	default:
		return nil, errors.Errorf("%s: unsupported sound format %v with %v bits",
			name, f.CompressionCode, f.BitsPerSample)
	}
	if f.ChannelNum != mono && f.ChannelNum != stereo {
		return nil, errors.Errorf("%s: invalid number of sound channels: %v", name, f.ChannelNum)
	}

	output := &PCM{
		Channels:   int(f.ChannelNum),
		SampleRate: int(f.SampleRate),
		LoopStart:  -1,
	}

	gotData := false
	cueIdx := -1
	for idx, c := range chunks {
		switch string(c.ID[:]) {
		default:
			log.Printf("%s: unknown chunk: %q", name, string(c.ID[:]))
		case "fmt ", "fact", "PEAK":
		case "data":
			raw, err := io.ReadAll(c.Data)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: could not read data", name)
			}
			output.Samples = toFloat(raw, f)
			gotData = true
		case "cue ":
			// off 0x00: 4byte num cue points
			// off 0x04: list of points
			// each cue points:
			// off 0x00: 4byte ID
			// off 0x04: 4byte Position
			// off 0x08: 4byte Data chunk ID
			// off 0x0c: 4byte Chunk start
			// off 0x10: 4byte Block start
			// off 0x14: 4byte Sample Offset
			cueIdx = idx
			var numCuePoints uint32
			if err := binary.Read(c.Data, binary.LittleEndian, &numCuePoints); err != nil {
				return nil, errors.Wrapf(err, "%s: invalid cue points", name)
			}
			var cuePoint struct {
				ID           uint32
				Pos          uint32
				DataChunkID  [4]byte
				ChunkStart   uint32
				BlockStart   uint32
				SampleOffset uint32
			}
			if numCuePoints > 0 {
				// only the first cue point marks the loop
				if err := binary.Read(c.Data, binary.LittleEndian, &cuePoint); err != nil {
					return nil, errors.Wrapf(err, "%s: invalid cue point", name)
				}
				output.LoopStart = int(cuePoint.SampleOffset)
			}
		case "LIST":
			if cueIdx < 0 || cueIdx+1 != idx {
				// only a 'LIST' directly after the 'cue ' carries the loop length
				continue
			}
			loopLength(name, c, output)
		}
	}
	if !gotData {
		return nil, errors.Errorf("%s: missing data chunk", name)
	}
	return output, nil
}

// loopLength reads an adtl list:
// off 0x00: 4byte list type id, 'adtl'
// off 0x04: 4byte sub chunk id, 'ltxt'
// off 0x08: 4byte size
// off 0x0c: 4byte id of the relevant cue point
// off 0x10: 4byte sample length
// off 0x14: 4byte purpose id, 'mark'
func loopLength(name string, c *chunk, output *PCM) {
	var listType [4]byte
	if err := binary.Read(c.Data, binary.LittleEndian, &listType); err != nil {
		return
	}
	if string(listType[:]) != "adtl" {
		log.Printf("%s: wave file with LIST type %q", name, string(listType[:]))
		return
	}
	var adtlHeader header
	if err := binary.Read(c.Data, binary.LittleEndian, &adtlHeader); err != nil {
		return
	}
	if string(adtlHeader.ID[:]) != "ltxt" {
		return
	}
	var adtl struct {
		CuePointID   [4]byte
		SampleLength uint32
		PurposeID    [4]byte
	}
	if err := binary.Read(c.Data, binary.LittleEndian, &adtl); err != nil {
		return
	}
	if string(adtl.PurposeID[:]) == "mark" {
		output.LoopLength = int(adtl.SampleLength)
	}
}

func toFloat(raw []byte, f *waveFmt) []float32 {
	switch {
	case f.BitsPerSample == 8:
		s := make([]float32, len(raw))
		for i, b := range raw {
			s[i] = (float32(b) - 128) / 128
		}
		return s
	case f.CompressionCode == formatFloat:
		s := make([]float32, len(raw)/4)
		for i := range s {
			s[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return s
	default:
		s := make([]float32, len(raw)/2)
		for i := range s {
			s[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / (1 << 15)
		}
		return s
	}
}
