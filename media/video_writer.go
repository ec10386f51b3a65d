// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/eluv-io/errors-go"
)

// VideoWriter encodes rgb24 frames into a video file or stream
type VideoWriter struct {
	writer
	width     int
	height    int
	frameRate float64
	encoder   VideoEncoderOptions
}

// NewVideoWriter encodes into the file at path. A nil encoder selects
// DefaultVideoEncoderOptions.
func NewVideoWriter(path string, width, height int, frameRate float64, encoder *VideoEncoderOptions, opts ...Option) (*VideoWriter, error) {
	if path == "" {
		return nil, errors.E("media.NewVideoWriter", errors.K.Invalid, ErrInvalidInput, "reason", "empty path")
	}
	return newVideoWriter(path, nil, width, height, frameRate, encoder, opts)
}

// NewVideoWriterToStream encodes into dst. The container format must be
// streamable, e.g. flv or mpegts; this is not checked.
func NewVideoWriterToStream(dst io.Writer, width, height int, frameRate float64, encoder *VideoEncoderOptions, opts ...Option) (*VideoWriter, error) {
	if dst == nil {
		return nil, errors.E("media.NewVideoWriterToStream", errors.K.Invalid, ErrInvalidInput, "reason", "nil stream")
	}
	return newVideoWriter("", dst, width, height, frameRate, encoder, opts)
}

func newVideoWriter(path string, dst io.Writer, width, height int, frameRate float64, encoder *VideoEncoderOptions, opts []Option) (*VideoWriter, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.E("media.NewVideoWriter", errors.K.Invalid, ErrInvalidInput,
			"reason", "frame dimensions must be positive",
			"width", width,
			"height", height)
	}
	if !(frameRate > 0) {
		return nil, errors.E("media.NewVideoWriter", errors.K.Invalid, ErrInvalidInput,
			"reason", "frame rate must be positive",
			"frame_rate", frameRate)
	}

	enc := DefaultVideoEncoderOptions()
	if encoder != nil {
		enc = *encoder
		enc.Format = withDefault(enc.Format, "mp4")
		enc.EncoderName = withDefault(enc.EncoderName, "libx264")
	}

	return &VideoWriter{
		writer:    newWriter("media.VideoWriter", path, dst, opts),
		width:     width,
		height:    height,
		frameRate: frameRate,
		encoder:   enc,
	}, nil
}

func (w *VideoWriter) Width() int                          { return w.width }
func (w *VideoWriter) Height() int                         { return w.height }
func (w *VideoWriter) FrameRate() float64                  { return w.frameRate }
func (w *VideoWriter) EncoderOptions() VideoEncoderOptions { return w.encoder }

// OpenWrite starts the encoder
func (w *VideoWriter) OpenWrite(ctx context.Context) error {
	args := []string{
		"-hide_banner",
		"-f", "rawvideo",
		"-video_size", fmt.Sprintf("%dx%d", w.width, w.height),
		"-r", strconv.FormatFloat(w.frameRate, 'f', -1, 64),
		"-pixel_format", "rgb24",
		"-i", "-",
		"-c:v", w.encoder.EncoderName,
	}
	args = append(args, w.encoder.EncoderArguments...)
	args = append(args, "-f", w.encoder.Format)

	return w.open(ctx, args)
}

// WriteFrame sends one frame to the encoder
func (w *VideoWriter) WriteFrame(f *VideoFrame) error {
	op := w.op + ".WriteFrame"
	if f == nil || f.Width() != w.width || f.Height() != w.height {
		return errors.E(op, errors.K.Invalid, ErrInvalidInput,
			"reason", "frame doesn't match the video dimensions",
			"width", w.width,
			"height", w.height)
	}
	if f.Bytes() == nil {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "frame released")
	}
	_, err := w.Write(f.Bytes())
	return err
}
