// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"context"
	"io"

	"github.com/eluv-io/errors-go"
)

// VideoReader decodes the first video stream of a source into rgb24 frames
type VideoReader struct {
	reader
	frame *VideoFrame
}

// NewVideoReader reads the file or URL at path
func NewVideoReader(path string, opts ...Option) (*VideoReader, error) {
	if path == "" {
		return nil, errors.E("media.NewVideoReader", errors.K.Invalid, ErrInvalidInput, "reason", "empty path")
	}
	r, err := newReader("media.VideoReader", StreamVideo, path, nil, opts)
	if err != nil {
		return nil, err
	}
	return &VideoReader{reader: r}, nil
}

// NewVideoReaderFromStream reads the encoded media in src
func NewVideoReaderFromStream(src io.Reader, opts ...Option) (*VideoReader, error) {
	if src == nil {
		return nil, errors.E("media.NewVideoReaderFromStream", errors.K.Invalid, ErrInvalidInput, "reason", "nil stream")
	}
	r, err := newReader("media.VideoReader", StreamVideo, "", src, opts)
	if err != nil {
		return nil, err
	}
	return &VideoReader{reader: r}, nil
}

// Load starts decoding. The metadata must be loaded first.
func (r *VideoReader) Load(ctx context.Context) error {
	return r.open(ctx, func(m *Metadata, input string) ([]string, int, int, error) {
		if !m.HasStream(StreamVideo) || m.Width <= 0 || m.Height <= 0 {
			return nil, 0, 0, errors.E(r.op+".Load", errors.K.Invalid, ErrInvalidInput,
				"reason", "source has no video stream")
		}
		size := m.Width * m.Height * BytesPerPixel
		return videoDecodeArgs(input), size, size, nil
	})
}

// videoDecodeArgs decodes the first video stream, the one the metadata
// describes, without rotating it so frames keep the probed dimensions
func videoDecodeArgs(input string) []string {
	return []string{
		"-hide_banner",
		"-noautorotate",
		"-i", input,
		"-map", "0:v:0",
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}
}

// OpenRead is Load
func (r *VideoReader) OpenRead(ctx context.Context) error {
	return r.Load(ctx)
}

// NextFrame returns the next frame, or nil at the end of the stream. The
// frame is reused by the following call.
func (r *VideoReader) NextFrame() (*VideoFrame, error) {
	if err := r.checkOpened(r.op + ".NextFrame"); err != nil {
		return nil, err
	}
	if r.frame == nil {
		f, err := NewVideoFrame(r.metadata.Width, r.metadata.Height)
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

// ReadFrame fills f with the next frame. It returns false at the end of the
// stream.
func (r *VideoReader) ReadFrame(f *VideoFrame) (bool, error) {
	op := r.op + ".ReadFrame"
	if err := r.checkOpened(op); err != nil {
		return false, err
	}
	if f == nil || f.Width() != r.metadata.Width || f.Height() != r.metadata.Height {
		return false, errors.E(op, errors.K.Invalid, ErrInvalidInput,
			"reason", "frame doesn't match the video dimensions",
			"width", r.metadata.Width,
			"height", r.metadata.Height)
	}
	return f.Load(r.stdout)
}
