// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/eluv-io/errors-go"
)

// AudioFrame is a block of interleaved little endian signed PCM samples.
// Like VideoFrame its buffer is reused by every Load.
type AudioFrame struct {
	sampleCount int
	channels    int
	bitDepth    int
	data        []byte
	complete    bool
}

// NewAudioFrame allocates a frame of sampleCount samples per channel. The bit
// depth is 16, 24 or 32.
func NewAudioFrame(sampleCount, channels, bitDepth int) (*AudioFrame, error) {
	if sampleCount <= 0 || channels <= 0 || !validBitDepth(bitDepth) ||
		channels > math.MaxInt/(bitDepth/8)/sampleCount {
		return nil, errors.E("media.NewAudioFrame", errors.K.Invalid, ErrInvalidInput,
			"reason", "invalid frame shape",
			"samples", sampleCount,
			"channels", channels,
			"bit_depth", bitDepth)
	}
	return &AudioFrame{
		sampleCount: sampleCount,
		channels:    channels,
		bitDepth:    bitDepth,
		data:        make([]byte, sampleCount*channels*bitDepth/8),
	}, nil
}

func validBitDepth(bitDepth int) bool {
	return bitDepth == 16 || bitDepth == 24 || bitDepth == 32
}

// sampleFormat is the FFmpeg name of the raw sample format for bitDepth
func sampleFormat(bitDepth int) string {
	switch bitDepth {
	case 24:
		return "s24le"
	case 32:
		return "s32le"
	default:
		return "s16le"
	}
}

func (f *AudioFrame) SampleCount() int { return f.sampleCount }
func (f *AudioFrame) Channels() int    { return f.channels }
func (f *AudioFrame) BitDepth() int    { return f.bitDepth }

// Size is the length of the frame in bytes
func (f *AudioFrame) Size() int { return f.sampleCount * f.blockAlign() }

// Bytes returns the whole backing buffer, or nil after Release
func (f *AudioFrame) Bytes() []byte { return f.data }

// Complete reports whether the last Load filled the frame
func (f *AudioFrame) Complete() bool { return f.complete }

func (f *AudioFrame) blockAlign() int {
	return f.channels * f.bitDepth / 8
}

// Load fills the frame from r. It returns false without error when r ends
// before the frame is full.
func (f *AudioFrame) Load(r io.Reader) (bool, error) {
	if f.data == nil {
		return false, errors.E("media.AudioFrame.Load", errors.K.Invalid, ErrInvalidState, "reason", "frame released")
	}
	if r == nil {
		return false, errors.E("media.AudioFrame.Load", errors.K.Invalid, ErrInvalidInput, "reason", "no reader given")
	}

	n, err := readFull(r, f.data)
	f.complete = n == len(f.data)
	if err != nil {
		f.complete = false
		return false, errors.E("media.AudioFrame.Load", errors.K.IO, err, "read", n)
	}
	return f.complete, nil
}

// GetSamples returns a view of length samples (all channels) starting at
// sample index.
func (f *AudioFrame) GetSamples(index, length int) ([]byte, error) {
	if f.data == nil {
		return nil, errors.E("media.AudioFrame.GetSamples", errors.K.Invalid, ErrInvalidState, "reason", "frame released")
	}
	if index < 0 || length < 0 || length > f.sampleCount-index {
		return nil, errors.E("media.AudioFrame.GetSamples", errors.K.Invalid, ErrOutOfRange,
			"index", index,
			"length", length,
			"samples", f.sampleCount)
	}
	start := index * f.blockAlign()
	end := start + length*f.blockAlign()
	return f.data[start:end:end], nil
}

// Sample returns the value of one channel at sample index
func (f *AudioFrame) Sample(index, channel int) (int32, error) {
	if channel < 0 || channel >= f.channels {
		return 0, errors.E("media.AudioFrame.Sample", errors.K.Invalid, ErrOutOfRange,
			"channel", channel,
			"channels", f.channels)
	}
	s, err := f.GetSamples(index, 1)
	if err != nil {
		return 0, err
	}

	width := f.bitDepth / 8
	b := s[channel*width : (channel+1)*width]
	switch f.bitDepth {
	case 16:
		return int32(int16(binary.LittleEndian.Uint16(b))), nil
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xffffff
		}
		return v, nil
	default:
		return int32(binary.LittleEndian.Uint32(b)), nil
	}
}

// Release drops the backing buffer. The frame can't be used afterwards.
func (f *AudioFrame) Release() {
	f.data = nil
	f.complete = false
}
