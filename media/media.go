// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

// Package media reads and writes audio and video through FFmpeg pipes.
//
// Readers probe a source with FFprobe and decode it into raw rgb24 frames or
// raw PCM samples. Writers feed raw frames or samples into an FFmpeg encoder
// writing a file or a stream. Every reader and writer owns exactly one FFmpeg
// process and must not be used by more than one goroutine at a time, except
// for Close which may be called to abort a blocked operation.
package media

import (
	"sync"
	"time"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/internal/logger"
)

const (
	// DefaultCloseTimeout is how long CloseWrite waits for the encoder to
	// finish before killing it
	DefaultCloseTimeout = time.Minute
	// DefaultBitDepth of raw audio samples
	DefaultBitDepth = 16
	// DefaultFrameSamples is the number of samples per channel in the frames
	// returned by AudioReader.NextFrame
	DefaultFrameSamples = 1024
)

// Option configures a reader or writer
type Option func(*options)

type options struct {
	ffmpeg       ffmpeg.FFmpeg
	binary       string
	probeBinary  string
	logger       ffmpeg.Logger
	verbose      bool
	closeTimeout time.Duration
	bitDepth     int

	once sync.Once
	err  error
}

// WithFFmpeg uses ff for all processes. Sharing one instance between readers
// and writers avoids resolving the binaries again.
func WithFFmpeg(ff ffmpeg.FFmpeg) Option {
	return func(o *options) {
		o.ffmpeg = ff
	}
}

// WithBinaries sets the FFmpeg and FFprobe executables. Empty names keep the
// defaults "ffmpeg" and "ffprobe".
func WithBinaries(ffmpegBinary, ffprobeBinary string) Option {
	return func(o *options) {
		o.binary = ffmpegBinary
		o.probeBinary = ffprobeBinary
	}
}

// WithLogger sets the logger
func WithLogger(l ffmpeg.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithVerbose logs FFmpeg's output at debug level
func WithVerbose(verbose bool) Option {
	return func(o *options) {
		o.verbose = verbose
	}
}

// WithCloseTimeout bounds how long a writer waits for its encoder on close
func WithCloseTimeout(d time.Duration) Option {
	return func(o *options) {
		o.closeTimeout = d
	}
}

// WithBitDepth sets the sample bit depth (16, 24 or 32) an AudioReader
// decodes to
func WithBitDepth(bitDepth int) Option {
	return func(o *options) {
		o.bitDepth = bitDepth
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		closeTimeout: DefaultCloseTimeout,
		bitDepth:     DefaultBitDepth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = logger.New("media")
	}
	if o.closeTimeout <= 0 {
		o.closeTimeout = DefaultCloseTimeout
	}
	return o
}

// instance returns the FFmpeg to spawn processes with, resolving the
// binaries on first use
func (o *options) instance() (ffmpeg.FFmpeg, error) {
	o.once.Do(func() {
		if o.ffmpeg != nil {
			return
		}
		o.ffmpeg, o.err = ffmpeg.New(ffmpeg.Config{
			Binary:      o.binary,
			ProbeBinary: o.probeBinary,
			Logger:      o.logger,
			Verbose:     o.verbose,
		})
	})
	return o.ffmpeg, o.err
}
