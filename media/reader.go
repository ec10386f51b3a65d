// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"bytes"
	"context"
	"io"

	"github.com/eluv-io/errors-go"
	"go.uber.org/atomic"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/ffmpeg/parse"
)

// reader is the part shared by VideoReader and AudioReader: the source, its
// metadata and the decoder process.
type reader struct {
	op     string
	kind   string
	path   string
	stream io.Reader
	// input is what the decoder reads when the source is a stream. After
	// probing a non-seekable stream it replays the bytes ffprobe consumed.
	input io.Reader

	opts   *options
	logger ffmpeg.Logger

	metadata *Metadata

	proc       *ffmpeg.Process
	stdout     io.Reader
	tracker    *ffmpeg.ProgressTracker
	onProgress []ffmpeg.ProgressFunc
	stop       func() bool

	// chunk is the size of one frame in bytes, align the size of the
	// smallest unit CopyTo forwards from a short tail
	chunk int
	align int

	opened *atomic.Bool
	closed *atomic.Bool
	// lost is set when a cancelled probe may still hold the stream source
	lost bool
}

func newReader(op, kind, path string, stream io.Reader, opts []Option) (reader, error) {
	if path == "" && stream == nil {
		return reader{}, errors.E(op, errors.K.Invalid, ErrInvalidInput, "reason", "no source given")
	}

	o := newOptions(opts)
	source := path
	if path == "" {
		source = "stream"
	}

	return reader{
		op:     op,
		kind:   kind,
		path:   path,
		stream: stream,
		input:  stream,
		opts:   o,
		logger: o.logger.With("reader", kind, "source", source),
		opened: atomic.NewBool(false),
		closed: atomic.NewBool(false),
	}, nil
}

// Path returns the source path, empty for stream sources
func (r *reader) Path() string {
	return r.path
}

// Metadata returns the metadata of the source, nil before LoadMetadata
func (r *reader) Metadata() *Metadata {
	return r.metadata
}

// LoadMetadata probes the source. It does nothing when the metadata is
// already loaded.
func (r *reader) LoadMetadata(ctx context.Context) error {
	e := errors.Template(r.op+".LoadMetadata", errors.K.IO)

	if r.closed.Load() {
		return errors.E(r.op+".LoadMetadata", errors.K.Invalid, ErrInvalidState, "reason", "reader closed")
	}
	if r.metadata != nil {
		return nil
	}
	if r.lost {
		return errors.E(r.op+".LoadMetadata", errors.K.Invalid, ErrInvalidState,
			"reason", "stream source lost to a cancelled probe")
	}

	ff, err := r.opts.instance()
	if err != nil {
		return e(err)
	}

	var res *ffmpeg.ProbeResult
	if r.path != "" {
		if !ff.ValidateInput(r.path) {
			return errors.E(r.op+".LoadMetadata", errors.K.Invalid, ErrInvalidInput,
				"reason", "input address not allowed",
				"path", r.path)
		}
		res, err = ff.Probe(ctx, r.path, nil)
	} else {
		res, err = r.probeStream(ctx, ff)
		if ctx.Err() != nil {
			r.lost = true
		}
	}
	if err != nil {
		return e(err)
	}

	r.metadata = NewMetadata(res, r.kind)
	r.logger.Debug("metadata loaded",
		"format", r.metadata.Format.FormatName,
		"duration", r.metadata.Duration,
		"streams", len(r.metadata.Streams))

	return nil
}

// probeStream probes a stream source so that it can still be decoded
// afterwards: seekable streams are rewound, others keep what ffprobe read.
func (r *reader) probeStream(ctx context.Context, ff ffmpeg.FFmpeg) (*ffmpeg.ProbeResult, error) {
	if s, ok := r.input.(io.Seeker); ok {
		if pos, err := s.Seek(0, io.SeekCurrent); err == nil {
			res, err := ff.Probe(ctx, "", r.input)
			if _, serr := s.Seek(pos, io.SeekStart); serr != nil && err == nil {
				err = serr
			}
			return res, err
		}
	}

	consumed := &bytes.Buffer{}
	res, err := ff.Probe(ctx, "", io.TeeReader(r.input, consumed))
	r.input = io.MultiReader(consumed, r.input)
	return res, err
}

// OnProgress registers fn to receive the decoding progress in percent of
// the source duration
func (r *reader) OnProgress(fn ffmpeg.ProgressFunc) {
	if fn == nil {
		return
	}
	if r.tracker != nil {
		r.tracker.OnChange(fn)
		return
	}
	r.onProgress = append(r.onProgress, fn)
}

// Progress returns the decoder's latest stats
func (r *reader) Progress() parse.Progress {
	if r.proc == nil {
		return parse.Progress{}
	}
	return r.proc.Progress()
}

// open starts the decoder with the arguments build returns. build gets the
// loaded metadata and the input address and returns the arguments with the
// frame size and alignment in bytes.
func (r *reader) open(ctx context.Context, build func(m *Metadata, input string) ([]string, int, int, error)) error {
	op := r.op + ".Load"
	e := errors.Template(op, errors.K.IO)

	if r.closed.Load() {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "reader closed")
	}
	if r.metadata == nil {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "metadata not loaded")
	}
	if r.opened.Load() {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "already opened for reading")
	}

	input := r.path
	var src io.Reader
	if r.path == "" {
		input = "-"
		src = r.input
	}

	args, chunk, align, err := build(r.metadata, input)
	if err != nil {
		return err
	}

	ff, err := r.opts.instance()
	if err != nil {
		return e(err)
	}

	p, stdout, err := ff.OpenOutput(args, src)
	if err != nil {
		return e(err)
	}

	r.proc = p
	r.stdout = stdout
	r.chunk = chunk
	r.align = align

	if r.metadata.Duration > 0 {
		if t, err := ffmpeg.RegisterProgressTracker(p, r.metadata.Duration); err == nil {
			for _, fn := range r.onProgress {
				t.OnChange(fn)
			}
			r.tracker = t
		}
	}
	r.onProgress = nil

	r.stop = context.AfterFunc(ctx, p.Kill)
	r.opened.Store(true)

	r.logger.Debug("decoder started", "process", p.ID(), "args", args)

	return nil
}

func (r *reader) checkOpened(op string) error {
	if r.closed.Load() {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "reader closed")
	}
	if !r.opened.Load() {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "not opened for reading")
	}
	return nil
}

// CopyTo decodes the rest of the source into w one frame at a time, in
// order. A slow writer stalls the decoder. Whole samples of a short final
// audio frame are forwarded, a short final video frame is dropped. ctx is
// checked between frames. CopyTo returns the decoder's exit error, if any.
func (r *reader) CopyTo(ctx context.Context, w io.Writer) error {
	op := r.op + ".CopyTo"
	e := errors.Template(op, errors.K.IO)

	if w == nil {
		return errors.E(op, errors.K.Invalid, ErrInvalidInput, "reason", "no writer given")
	}
	if err := r.checkOpened(op); err != nil {
		return err
	}

	buf := make([]byte, r.chunk)
	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return e(err, "frames", frames)
		}

		n, err := readFull(r.stdout, buf)
		if err != nil {
			return e(err, "frames", frames, "last_line", r.proc.LastLine())
		}

		full := n == len(buf)
		if !full {
			n -= n % r.align
		}
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return e(err, "frames", frames)
			}
		}
		if !full {
			break
		}
		frames++
	}

	if err := r.proc.Wait(); err != nil {
		return e(err, "frames", frames)
	}

	r.logger.Debug("copy finished", "frames", frames)

	return nil
}

// Close stops the decoder and releases its pipes. It is safe to call Close
// more than once and from another goroutine to abort a pending read.
func (r *reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.stop != nil {
		r.stop()
	}
	if r.proc != nil {
		_ = r.proc.Close()
		r.logger.Debug("decoder closed", "process", r.proc.ID())
	}
	return nil
}
