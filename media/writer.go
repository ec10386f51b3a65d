// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/eluv-io/errors-go"
	"go.uber.org/atomic"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/ffmpeg/parse"
)

const forwardChunk = 32 * 1024

// writer is the part shared by VideoWriter and AudioWriter: the destination
// and the encoder process.
type writer struct {
	op   string
	path string
	dst  io.Writer

	opts   *options
	logger ffmpeg.Logger

	proc  *ffmpeg.Process
	stdin io.WriteCloser
	stop  func() bool

	forward struct {
		cancel context.CancelFunc
		done   chan struct{}
		err    *atomic.Error
	}

	opened *atomic.Bool
}

func newWriter(op, path string, dst io.Writer, opts []Option) writer {
	o := newOptions(opts)
	target := path
	if path == "" {
		target = "stream"
	}
	return writer{
		op:     op,
		path:   path,
		dst:    dst,
		opts:   o,
		logger: o.logger.With("writer", op, "destination", target),
		opened: atomic.NewBool(false),
	}
}

// Path returns the destination path, empty in stream mode
func (w *writer) Path() string {
	return w.path
}

// IsOpen reports whether the writer is opened for writing
func (w *writer) IsOpen() bool {
	return w.opened.Load()
}

// Progress returns the encoder's latest stats
func (w *writer) Progress() parse.Progress {
	if w.proc == nil {
		return parse.Progress{}
	}
	return w.proc.Progress()
}

// open starts the encoder with args, which lack only the output. Cancelling
// ctx kills the encoder and stops forwarding its output.
func (w *writer) open(ctx context.Context, args []string) error {
	op := w.op + ".OpenWrite"
	e := errors.Template(op, errors.K.IO)

	if w.opened.Load() {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "already opened for writing")
	}

	ff, err := w.opts.instance()
	if err != nil {
		return e(err)
	}

	if w.path != "" {
		if !ff.ValidateOutput(w.path) {
			return errors.E(op, errors.K.Invalid, ErrInvalidInput,
				"reason", "output address not allowed",
				"path", w.path)
		}
		if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
			return e(err, "path", w.path)
		}

		args = append(args, "-y", w.path)
		p, stdin, err := ff.OpenInput(args)
		if err != nil {
			return e(err)
		}
		w.proc, w.stdin = p, stdin
		w.forward.done = nil
	} else {
		args = append(args, "-")
		p, stdin, stdout, err := ff.Open(args)
		if err != nil {
			return e(err)
		}
		w.proc, w.stdin = p, stdin

		fctx, cancel := context.WithCancel(ctx)
		w.forward.cancel = cancel
		w.forward.done = make(chan struct{})
		w.forward.err = atomic.NewError(nil)
		go w.forwardOutput(fctx, stdout)
	}

	w.stop = context.AfterFunc(ctx, w.proc.Kill)
	w.opened.Store(true)

	w.logger.Debug("encoder started", "process", w.proc.ID(), "args", args)

	return nil
}

// forwardOutput copies the encoder's output into the destination until the
// output ends or ctx is done
func (w *writer) forwardOutput(ctx context.Context, src io.Reader) {
	defer close(w.forward.done)

	buf := make([]byte, forwardChunk)
	for ctx.Err() == nil {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.dst.Write(buf[:n]); werr != nil {
				w.forward.err.Store(werr)
				// keep the encoder from blocking on a full pipe
				_, _ = io.Copy(io.Discard, src)
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			w.forward.err.Store(err)
			return
		}
	}
	w.forward.err.Store(ctx.Err())
}

// Write sends raw frame or sample bytes to the encoder
func (w *writer) Write(p []byte) (int, error) {
	op := w.op + ".Write"
	if !w.opened.Load() {
		return 0, errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "not opened for writing")
	}
	n, err := w.stdin.Write(p)
	if err != nil {
		return n, errors.E(op, errors.K.IO, err, "last_line", w.proc.LastLine())
	}
	return n, nil
}

// CloseWrite ends the input of the encoder and waits for it to finish. An
// encoder still running after the close timeout is killed. In stream mode
// the remaining output is forwarded before the forwarding stops. CloseWrite
// fails if the writer is not open.
func (w *writer) CloseWrite() error {
	op := w.op + ".CloseWrite"
	e := errors.Template(op, errors.K.IO)

	if !w.opened.Swap(false) {
		return errors.E(op, errors.K.Invalid, ErrInvalidState, "reason", "not opened for writing")
	}

	p := w.proc
	if w.stop != nil {
		w.stop()
	}

	_ = p.CloseStdin()

	killed := false
	select {
	case <-p.Done():
	case <-time.After(w.opts.closeTimeout):
		killed = true
		w.logger.Error("encoder did not finish in time, killing it",
			"process", p.ID(),
			"timeout", w.opts.closeTimeout.String())
		p.Kill()
		<-p.Done()
	}

	var forwardErr error
	if w.forward.done != nil {
		select {
		case <-w.forward.done:
			forwardErr = w.forward.err.Load()
		case <-time.After(w.opts.closeTimeout):
			forwardErr = errors.E(op, errors.K.IO, "reason", "output forwarding did not finish")
		}
		w.forward.cancel()
	}

	_ = p.Close()

	w.logger.Debug("encoder closed", "process", p.ID())

	if forwardErr != nil {
		return e(forwardErr)
	}
	if err := p.Wait(); err != nil && !killed {
		return e(err)
	}
	return nil
}

// Close closes the writer if it is open. It is safe to call more than once.
func (w *writer) Close() error {
	if !w.opened.Load() {
		return nil
	}
	return w.CloseWrite()
}
