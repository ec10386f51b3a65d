// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"context"
	"io"
	"strconv"

	"github.com/eluv-io/errors-go"
)

// AudioReader decodes the first audio stream of a source into interleaved
// PCM samples with the source's channel count and sample rate
type AudioReader struct {
	reader
	bitDepth int
	frame    *AudioFrame
}

// NewAudioReader reads the file or URL at path
func NewAudioReader(path string, opts ...Option) (*AudioReader, error) {
	if path == "" {
		return nil, errors.E("media.NewAudioReader", errors.K.Invalid, ErrInvalidInput, "reason", "empty path")
	}
	return newAudioReader(path, nil, opts)
}

// NewAudioReaderFromStream reads the encoded media in src
func NewAudioReaderFromStream(src io.Reader, opts ...Option) (*AudioReader, error) {
	if src == nil {
		return nil, errors.E("media.NewAudioReaderFromStream", errors.K.Invalid, ErrInvalidInput, "reason", "nil stream")
	}
	return newAudioReader("", src, opts)
}

func newAudioReader(path string, src io.Reader, opts []Option) (*AudioReader, error) {
	r, err := newReader("media.AudioReader", StreamAudio, path, src, opts)
	if err != nil {
		return nil, err
	}
	if !validBitDepth(r.opts.bitDepth) {
		return nil, errors.E("media.NewAudioReader", errors.K.Invalid, ErrInvalidInput,
			"reason", "unsupported bit depth",
			"bit_depth", r.opts.bitDepth)
	}
	return &AudioReader{reader: r, bitDepth: r.opts.bitDepth}, nil
}

// BitDepth of the decoded samples
func (r *AudioReader) BitDepth() int {
	return r.bitDepth
}

// Load starts decoding. The metadata must be loaded first.
func (r *AudioReader) Load(ctx context.Context) error {
	return r.open(ctx, func(m *Metadata, input string) ([]string, int, int, error) {
		if !m.HasStream(StreamAudio) || m.Channels <= 0 || m.SampleRate <= 0 {
			return nil, 0, 0, errors.E(r.op+".Load", errors.K.Invalid, ErrInvalidInput,
				"reason", "source has no audio stream")
		}
		align := m.Channels * r.bitDepth / 8
		return audioDecodeArgs(input, m, r.bitDepth), DefaultFrameSamples * align, align, nil
	})
}

// audioDecodeArgs decodes the first audio stream, the one the metadata
// describes
func audioDecodeArgs(input string, m *Metadata, bitDepth int) []string {
	format := sampleFormat(bitDepth)
	return []string{
		"-hide_banner",
		"-i", input,
		"-map", "0:a:0",
		"-vn",
		"-f", format,
		"-acodec", "pcm_" + format,
		"-ac", strconv.Itoa(m.Channels),
		"-ar", strconv.Itoa(m.SampleRate),
		"-",
	}
}

// OpenRead is Load
func (r *AudioReader) OpenRead(ctx context.Context) error {
	return r.Load(ctx)
}

// NextFrame returns the next DefaultFrameSamples samples, or nil at the end
// of the stream. A short final frame is not returned. The frame is reused by
// the following call.
func (r *AudioReader) NextFrame() (*AudioFrame, error) {
	if err := r.checkOpened(r.op + ".NextFrame"); err != nil {
		return nil, err
	}
	if r.frame == nil {
		f, err := NewAudioFrame(DefaultFrameSamples, r.metadata.Channels, r.bitDepth)
		if err != nil {
			return nil, err
		}
		r.frame = f
	}

	ok, err := r.frame.Load(r.stdout)
	if err != nil || !ok {
		return nil, err
	}
	return r.frame, nil
}

// ReadFrame fills f with the next samples. f may have any sample count but
// its channels and bit depth must match the reader. It returns false at the
// end of the stream.
func (r *AudioReader) ReadFrame(f *AudioFrame) (bool, error) {
	op := r.op + ".ReadFrame"
	if err := r.checkOpened(op); err != nil {
		return false, err
	}
	if f == nil || f.Channels() != r.metadata.Channels || f.BitDepth() != r.bitDepth {
		return false, errors.E(op, errors.K.Invalid, ErrInvalidInput,
			"reason", "frame doesn't match the audio format",
			"channels", r.metadata.Channels,
			"bit_depth", r.bitDepth)
	}
	return f.Load(r.stdout)
}
