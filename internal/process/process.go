// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库
//
// Package process wraps exec.Cmd for driving a single FFmpeg/FFprobe process
// whose standard input and output are used as raw data pipes.

package process

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/eluv-io/errors-go"
	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/atomic"

	"github.com/ZSC714725/mediapipe/internal/logger"
)

// Config for a process
type Config struct {
	Binary string
	Args   []string

	// Stdin exposes a writable pipe bound to the child's standard input.
	Stdin bool
	// StdinFrom is copied into the child's standard input in the background.
	// The pipe is closed when the reader is exhausted.
	StdinFrom io.Reader
	// Stdout exposes a readable pipe bound to the child's standard output.
	// Without it the output is discarded.
	Stdout bool

	Parser        Parser
	Sampler       Sampler
	OnExit        func(err error)
	OnStateChange func(from, to string)
	Logger        logger.Logger
	// Verbose logs every stderr line at debug level.
	Verbose bool
}

// Status of a process
type Status struct {
	ID       string
	Pid      int
	State    string
	Duration time.Duration
	Time     time.Time
	CPU      float64
	Memory   uint64
}

type stateType string

const (
	stateStarting stateType = "starting"
	stateRunning  stateType = "running"
	stateFinished stateType = "finished"
	stateFailed   stateType = "failed"
	stateKilled   stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarting || s == stateRunning
}

// Handle is one spawned process together with its pipes. A handle is started
// once and cannot be restarted.
type Handle struct {
	id     string
	binary string
	args   []string
	cmd    *exec.Cmd
	pid    int

	stdin  *os.File
	stdout *os.File
	stderr io.ReadCloser

	state struct {
		state stateType
		time  time.Time
		lock  sync.Mutex
	}
	parsers struct {
		list []Parser
		lock sync.Mutex
	}
	callbacks struct {
		onExit        func(err error)
		onStateChange func(from, to string)
	}

	lastLine *atomic.String
	killed   *atomic.Bool
	sampler  Sampler
	logger   logger.Logger
	verbose  bool

	done      chan struct{}
	exitErr   error
	fed       chan struct{}
	closeOnce sync.Once
}

// Start spawns the process described by config
func Start(config Config) (*Handle, error) {
	e := errors.Template("process.Start", errors.K.IO, "binary", config.Binary)

	if len(config.Binary) == 0 {
		return nil, e(ErrSpawn, "reason", "no valid binary given")
	}

	h := &Handle{
		id:       shortuuid.New(),
		binary:   config.Binary,
		args:     config.Args,
		sampler:  config.Sampler,
		logger:   config.Logger,
		verbose:  config.Verbose,
		lastLine: atomic.NewString(""),
		killed:   atomic.NewBool(false),
		done:     make(chan struct{}),
		fed:      make(chan struct{}),
	}
	if config.Parser != nil {
		h.parsers.list = append(h.parsers.list, config.Parser)
	}
	if h.sampler == nil {
		h.sampler = NewSysSampler()
	}
	if h.logger == nil {
		h.logger = logger.Nop()
	}
	h.logger = h.logger.With("process", h.id)
	h.callbacks.onExit = config.OnExit
	h.callbacks.onStateChange = config.OnStateChange
	h.initState(stateStarting)

	h.cmd = exec.Command(h.binary, h.args...)

	// The child's ends are closed right after start. Our ends are plain
	// files so that cmd.Wait never closes them under a pending read.
	var childEnds []*os.File
	closeAll := func() {
		for _, f := range childEnds {
			_ = f.Close()
		}
		if h.stdin != nil {
			_ = h.stdin.Close()
		}
		if h.stdout != nil {
			_ = h.stdout.Close()
		}
	}

	if config.Stdin || config.StdinFrom != nil {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, e(ErrSpawn, "reason", "stdin pipe", "error", err)
		}
		h.cmd.Stdin = r
		childEnds = append(childEnds, r)
		h.stdin = w
	}

	if config.Stdout {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll()
			return nil, e(ErrSpawn, "reason", "stdout pipe", "error", err)
		}
		h.cmd.Stdout = w
		childEnds = append(childEnds, w)
		h.stdout = r
	}

	var err error
	h.stderr, err = h.cmd.StderrPipe()
	if err != nil {
		closeAll()
		return nil, e(ErrSpawn, "reason", "stderr pipe", "error", err)
	}

	if err := h.cmd.Start(); err != nil {
		closeAll()
		h.setState(stateFailed)
		return nil, e(ErrSpawn, "error", err)
	}

	for _, f := range childEnds {
		_ = f.Close()
	}

	h.pid = h.cmd.Process.Pid
	if err := h.sampler.Start(h.pid); err != nil {
		h.logger.Debug("sampler start failed", "pid", h.pid, "error", err)
	}

	h.setState(stateRunning)
	h.logger.Debug("process started", "pid", h.pid, "binary", h.binary, "args", h.args)

	if config.StdinFrom != nil {
		go h.feed(config.StdinFrom)
	} else {
		close(h.fed)
	}

	go h.reader()

	return h, nil
}

func (h *Handle) initState(state stateType) {
	h.state.lock.Lock()
	defer h.state.lock.Unlock()
	h.state.state = state
	h.state.time = time.Now()
}

func (h *Handle) setState(state stateType) {
	h.state.lock.Lock()
	defer h.state.lock.Unlock()

	prev := h.state.state
	if prev == state || !prev.IsRunning() {
		return
	}

	h.state.state = state
	h.state.time = time.Now()
	if h.callbacks.onStateChange != nil {
		go h.callbacks.onStateChange(prev.String(), state.String())
	}
}

func (h *Handle) getState() stateType {
	h.state.lock.Lock()
	defer h.state.lock.Unlock()
	return h.state.state
}

// ID returns the unique handle id
func (h *Handle) ID() string { return h.id }

// Pid returns the OS process id
func (h *Handle) Pid() int { return h.pid }

// Binary returns the executable path
func (h *Handle) Binary() string { return h.binary }

// Args returns the command line arguments
func (h *Handle) Args() []string { return h.args }

// Stdin returns the writable end of the child's standard input, or nil if
// it was not redirected.
func (h *Handle) Stdin() io.WriteCloser {
	if h.stdin == nil {
		return nil
	}
	return h.stdin
}

// Stdout returns the readable end of the child's standard output, or nil if
// it was not redirected.
func (h *Handle) Stdout() io.ReadCloser {
	if h.stdout == nil {
		return nil
	}
	return h.stdout
}

// AddParser attaches a parser receiving every following stderr line
func (h *Handle) AddParser(p Parser) {
	if p == nil {
		return
	}
	h.parsers.lock.Lock()
	h.parsers.list = append(h.parsers.list, p)
	h.parsers.lock.Unlock()
}

// LastLine returns the most recent stderr line
func (h *Handle) LastLine() string {
	return h.lastLine.Load()
}

// IsRunning returns whether the process has not exited yet
func (h *Handle) IsRunning() bool {
	return h.getState().IsRunning()
}

// Status returns state and resource usage
func (h *Handle) Status() Status {
	cpu, memory := h.sampler.Current()

	h.state.lock.Lock()
	stateTime := h.state.time
	state := h.state.state.String()
	h.state.lock.Unlock()

	return Status{
		ID:       h.id,
		Pid:      h.pid,
		State:    state,
		Duration: time.Since(stateTime),
		Time:     stateTime,
		CPU:      cpu,
		Memory:   memory,
	}
}

// Done is closed once the process has exited and stderr is drained
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Fed is closed once the background stdin copy has finished. It is closed
// immediately when Config.StdinFrom was not set.
func (h *Handle) Fed() <-chan struct{} {
	return h.fed
}

// Wait blocks until the process exits and returns its exit error
func (h *Handle) Wait() error {
	<-h.done
	return h.exitErr
}

// WaitContext is Wait, killing the process when ctx is done first
func (h *Handle) WaitContext(ctx context.Context) error {
	select {
	case <-h.done:
		return h.exitErr
	case <-ctx.Done():
		h.Kill()
		<-h.done
		return errors.E("process.Wait", errors.K.IO, ctx.Err(), "process", h.id)
	}
}

// Kill terminates the process if it is still running. Errors are ignored.
func (h *Handle) Kill() {
	if !h.IsRunning() {
		return
	}
	h.killed.Store(true)
	if err := h.cmd.Process.Kill(); err != nil {
		h.logger.Debug("kill failed", "pid", h.pid, "error", err)
	}
}

// CloseStdin signals end of input to the process
func (h *Handle) CloseStdin() error {
	if h.stdin == nil {
		return nil
	}
	if err := h.stdin.Close(); err != nil && !isClosed(err) {
		return err
	}
	return nil
}

// Close releases the process: stdin is closed, the process is killed if it
// is still alive and stdout is closed once it has exited. Close never fails
// and is safe to call multiple times.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		_ = h.CloseStdin()
		h.Kill()
		<-h.done
		if h.stdout != nil {
			_ = h.stdout.Close()
		}
	})
	return nil
}

func (h *Handle) feed(src io.Reader) {
	defer close(h.fed)
	n, err := io.Copy(h.stdin, src)
	if err != nil {
		// the process may stop reading early (ffprobe does)
		h.logger.Debug("stdin copy stopped", "bytes", n, "error", err)
	}
	_ = h.CloseStdin()
}

func (h *Handle) reader() {
	scanner := bufio.NewScanner(h.stderr)
	scanner.Split(scanLine)

	for scanner.Scan() {
		line := scanner.Text()
		h.lastLine.Store(line)
		if h.verbose {
			h.logger.Debug("stderr", "line", line)
		}

		h.parsers.lock.Lock()
		parsers := h.parsers.list
		h.parsers.lock.Unlock()

		for _, p := range parsers {
			p.Parse(line)
		}
	}

	// keep draining so that a very long line can't block the process
	_, _ = io.Copy(io.Discard, h.stderr)

	h.waiter()
}

func (h *Handle) waiter() {
	err := h.cmd.Wait()
	killed := h.killed.Load()

	switch {
	case err == nil:
		h.setState(stateFinished)
	case killed:
		h.setState(stateKilled)
		h.exitErr = errors.E("process.Wait", errors.K.IO, ErrKilled, "process", h.id)
	default:
		state := stateKilled
		if exiterr, ok := err.(*exec.ExitError); ok {
			if status, ok := exiterr.Sys().(syscall.WaitStatus); ok && status.Exited() {
				state = stateFailed
			}
		}
		h.setState(state)
		h.exitErr = errors.E("process.Wait", errors.K.IO, ErrExit,
			"process", h.id,
			"error", err,
			"last_line", h.lastLine.Load())
	}

	h.sampler.Stop()
	h.logger.Debug("process exited", "pid", h.pid, "state", h.getState().String())

	close(h.done)

	if h.callbacks.onExit != nil {
		go h.callbacks.onExit(h.exitErr)
	}
}

// scanLine splits on both \n and \r, since FFmpeg rewrites its status line
// with carriage returns.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
