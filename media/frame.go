// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"io"
	"math"

	"github.com/eluv-io/errors-go"
)

// BytesPerPixel of the rgb24 pixel format exchanged with FFmpeg
const BytesPerPixel = 3

// VideoFrame is one raw rgb24 frame. Its buffer is allocated once and
// overwritten by every Load, so slices obtained from it are only valid until
// the next Load.
type VideoFrame struct {
	width    int
	height   int
	data     []byte
	complete bool
}

// NewVideoFrame allocates a frame of width x height pixels
func NewVideoFrame(width, height int) (*VideoFrame, error) {
	if width <= 0 || height <= 0 || width > math.MaxInt/BytesPerPixel/height {
		return nil, errors.E("media.NewVideoFrame", errors.K.Invalid, ErrInvalidInput,
			"reason", "frame dimensions must be positive and fit in memory",
			"width", width,
			"height", height)
	}
	return &VideoFrame{
		width:  width,
		height: height,
		data:   make([]byte, width*height*BytesPerPixel),
	}, nil
}

func (f *VideoFrame) Width() int  { return f.width }
func (f *VideoFrame) Height() int { return f.height }

// Size is the length of the frame in bytes
func (f *VideoFrame) Size() int { return f.width * f.height * BytesPerPixel }

// Bytes returns the whole backing buffer, or nil after Release
func (f *VideoFrame) Bytes() []byte { return f.data }

// Complete reports whether the last Load filled the frame
func (f *VideoFrame) Complete() bool { return f.complete }

// Load fills the frame from r. It returns false without error when r ends
// before the frame is full; the frame content is undefined then.
func (f *VideoFrame) Load(r io.Reader) (bool, error) {
	e := errors.Template("media.VideoFrame.Load", errors.K.IO)

	if f.data == nil {
		return false, errors.E("media.VideoFrame.Load", errors.K.Invalid, ErrInvalidState, "reason", "frame released")
	}
	if r == nil {
		return false, errors.E("media.VideoFrame.Load", errors.K.Invalid, ErrInvalidInput, "reason", "no reader given")
	}

	n, err := readFull(r, f.data)
	f.complete = n == len(f.data)
	if err != nil {
		f.complete = false
		return false, e(err, "read", n)
	}
	return f.complete, nil
}

// GetPixels returns a view of length pixels starting at pixel (x, y), rows
// wrapping into the following ones.
func (f *VideoFrame) GetPixels(x, y, length int) ([]byte, error) {
	if f.data == nil {
		return nil, errors.E("media.VideoFrame.GetPixels", errors.K.Invalid, ErrInvalidState, "reason", "frame released")
	}
	outside := x < 0 || y < 0 || length < 0 || x >= f.width || y >= f.height
	start := 0
	if !outside {
		start = (x + y*f.width) * BytesPerPixel
		outside = length > (len(f.data)-start)/BytesPerPixel
	}
	if outside {
		return nil, errors.E("media.VideoFrame.GetPixels", errors.K.Invalid, ErrOutOfRange,
			"x", x,
			"y", y,
			"length", length,
			"width", f.width,
			"height", f.height)
	}
	end := start + length*BytesPerPixel
	return f.data[start:end:end], nil
}

// Pixel returns the red, green and blue values at (x, y)
func (f *VideoFrame) Pixel(x, y int) (r, g, b byte, err error) {
	p, err := f.GetPixels(x, y, 1)
	if err != nil {
		return 0, 0, 0, err
	}
	return p[0], p[1], p[2], nil
}

// SetPixel sets the color at (x, y)
func (f *VideoFrame) SetPixel(x, y int, r, g, b byte) error {
	p, err := f.GetPixels(x, y, 1)
	if err != nil {
		return err
	}
	p[0], p[1], p[2] = r, g, b
	return nil
}

// Release drops the backing buffer. The frame can't be used afterwards.
func (f *VideoFrame) Release() {
	f.data = nil
	f.complete = false
}
