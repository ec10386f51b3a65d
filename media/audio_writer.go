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

// AudioWriter encodes interleaved PCM samples into an audio file or stream
type AudioWriter struct {
	writer
	channels   int
	sampleRate int
	bitDepth   int
	encoder    AudioEncoderOptions
}

// NewAudioWriter encodes into the file at path. A nil encoder selects
// DefaultAudioEncoderOptions.
func NewAudioWriter(path string, channels, sampleRate, bitDepth int, encoder *AudioEncoderOptions, opts ...Option) (*AudioWriter, error) {
	if path == "" {
		return nil, errors.E("media.NewAudioWriter", errors.K.Invalid, ErrInvalidInput, "reason", "empty path")
	}
	return newAudioWriter(path, nil, channels, sampleRate, bitDepth, encoder, opts)
}

// NewAudioWriterToStream encodes into dst. The container format must be
// streamable, e.g. flv, adts or ogg; this is not checked.
func NewAudioWriterToStream(dst io.Writer, channels, sampleRate, bitDepth int, encoder *AudioEncoderOptions, opts ...Option) (*AudioWriter, error) {
	if dst == nil {
		return nil, errors.E("media.NewAudioWriterToStream", errors.K.Invalid, ErrInvalidInput, "reason", "nil stream")
	}
	return newAudioWriter("", dst, channels, sampleRate, bitDepth, encoder, opts)
}

func newAudioWriter(path string, dst io.Writer, channels, sampleRate, bitDepth int, encoder *AudioEncoderOptions, opts []Option) (*AudioWriter, error) {
	if channels <= 0 || sampleRate <= 0 || !validBitDepth(bitDepth) {
		return nil, errors.E("media.NewAudioWriter", errors.K.Invalid, ErrInvalidInput,
			"reason", "invalid sample format",
			"channels", channels,
			"sample_rate", sampleRate,
			"bit_depth", bitDepth)
	}

	enc := DefaultAudioEncoderOptions()
	if encoder != nil {
		enc = *encoder
		enc.Format = withDefault(enc.Format, "mp3")
		enc.EncoderName = withDefault(enc.EncoderName, "libmp3lame")
	}

	return &AudioWriter{
		writer:     newWriter("media.AudioWriter", path, dst, opts),
		channels:   channels,
		sampleRate: sampleRate,
		bitDepth:   bitDepth,
		encoder:    enc,
	}, nil
}

func (w *AudioWriter) Channels() int                       { return w.channels }
func (w *AudioWriter) SampleRate() int                     { return w.sampleRate }
func (w *AudioWriter) BitDepth() int                       { return w.bitDepth }
func (w *AudioWriter) EncoderOptions() AudioEncoderOptions { return w.encoder }

// OpenWrite starts the encoder
func (w *AudioWriter) OpenWrite(ctx context.Context) error {
	args := []string{
		"-hide_banner",
		"-f", sampleFormat(w.bitDepth),
		"-ar", strconv.Itoa(w.sampleRate),
		"-ac", strconv.Itoa(w.channels),
		"-i", "-",
		"-c:a", w.encoder.EncoderName,
	}
	args = append(args, w.encoder.EncoderArguments...)
	args = append(args, "-f", w.encoder.Format)

	return w.open(ctx, args)
}

// WriteFrame sends the samples of f to the encoder
func (w *AudioWriter) WriteFrame(f *AudioFrame) error {
	op := w.op + ".WriteFrame"
	if f == nil || f.Channels() != w.channels || f.BitDepth() != w.bitDepth {
		return errors.E(op, errors.K.Invalid, ErrInvalidInput,
			"reason", "frame doesn't match the sample format",
			"channels", w.channels,
			"bit_depth", w.bitDepth)
	}
	if f.Bytes() == nil {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "frame released")
	}
	_, err := w.Write(f.Bytes())
	return err
}
