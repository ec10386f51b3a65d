// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

// Package task runs FFmpeg conversion jobs and keeps track of them in memory.
package task

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/eluv-io/errors-go"
	"github.com/lithammer/shortuuid/v4"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/ffmpeg/parse"
	"github.com/ZSC714725/mediapipe/internal/logger"
	"github.com/ZSC714725/mediapipe/internal/process"
)

// Job states
const (
	StateRunning   = "running"
	StateFinished  = "finished"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// Task is one conversion job
type Task struct {
	ID        string
	Reference string
	Config    *Config
	CreatedAt int64
	// Duration of the first input in seconds, the base of Percent
	Duration float64

	lock      sync.RWMutex
	updatedAt int64
	state     string
	err       error
	cancelled bool
	proc      *ffmpeg.Process
	tracker   *ffmpeg.ProgressTracker
	done      chan struct{}
}

// State returns the job state
func (t *Task) State() string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.state
}

// Err returns why the job failed
func (t *Task) Err() error {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.err
}

// UpdatedAt returns when the job was last started or ended
func (t *Task) UpdatedAt() int64 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.updatedAt
}

// Percent returns the completion in percent
func (t *Task) Percent() float64 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.state == StateFinished {
		return 100
	}
	if t.tracker == nil {
		return 0
	}
	return t.tracker.Percent()
}

// Status returns process status
func (t *Task) Status() process.Status {
	p := t.process()
	if p == nil {
		return process.Status{}
	}
	return p.Status()
}

// Progress returns parsed FFmpeg progress
func (t *Task) Progress() parse.Progress {
	p := t.process()
	if p == nil {
		return parse.Progress{}
	}
	return p.Progress()
}

// Log returns process log lines
func (t *Task) Log() []process.Line {
	p := t.process()
	if p == nil {
		return nil
	}
	return p.Log()
}

// IsRunning returns whether the process is running
func (t *Task) IsRunning() bool {
	return t.State() == StateRunning
}

// Wait blocks until the job ended or ctx is done
func (t *Task) Wait(ctx context.Context) error {
	t.lock.RLock()
	done := t.done
	t.lock.RUnlock()

	select {
	case <-done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) process() *ffmpeg.Process {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.proc
}

// Store manages jobs in memory
type Store interface {
	// Add validates the config, probes the first input and starts the job
	Add(ctx context.Context, config *Config) (*Task, error)
	Get(id string) (*Task, error)
	List(ids []string, reference string) []*Task
	// Cancel kills a running job
	Cancel(id string) error
	// Restart runs an ended job again
	Restart(id string) error
	// Delete cancels and removes a job
	Delete(id string) error
}

type store struct {
	ffmpeg ffmpeg.FFmpeg
	logger logger.Logger
	tasks  map[string]*Task
	mu     sync.RWMutex
}

// NewStore creates a job store
func NewStore(ff ffmpeg.FFmpeg, log logger.Logger) Store {
	if log == nil {
		log = logger.New("task")
	}
	return &store{
		ffmpeg: ff,
		logger: log,
		tasks:  make(map[string]*Task),
	}
}

func (s *store) Add(ctx context.Context, config *Config) (*Task, error) {
	e := errors.Template("task.Add", errors.K.Invalid)

	if config == nil || len(config.Input) == 0 || len(config.Output) == 0 {
		return nil, e(ErrInvalidConfig)
	}
	for _, in := range config.Input {
		if in.Address == "" || !s.ffmpeg.ValidateInput(in.Address) {
			return nil, e(ErrInvalidInputAddress, "address", in.Address)
		}
	}
	for _, out := range config.Output {
		if out.Address == "" || !s.ffmpeg.ValidateOutput(out.Address) {
			return nil, e(ErrInvalidOutputAddress, "address", out.Address)
		}
	}

	if len(config.ID) == 0 {
		config.ID = shortuuid.New()
	}

	s.mu.RLock()
	_, exists := s.tasks[config.ID]
	s.mu.RUnlock()
	if exists {
		return nil, e(ErrJobExists, "id", config.ID)
	}

	res, err := s.ffmpeg.Probe(ctx, config.Input[0].Address, nil)
	if err != nil {
		return nil, errors.E("task.Add", errors.K.IO, err, "id", config.ID)
	}
	duration, _ := strconv.ParseFloat(res.Format.Duration, 64)

	now := time.Now().Unix()
	t := &Task{
		ID:        config.ID,
		Reference: config.Reference,
		Config:    config,
		CreatedAt: now,
		Duration:  duration,
	}

	s.mu.Lock()
	if _, exists := s.tasks[config.ID]; exists {
		s.mu.Unlock()
		return nil, e(ErrJobExists, "id", config.ID)
	}
	s.tasks[config.ID] = t
	s.mu.Unlock()

	if err := s.start(t); err != nil {
		s.mu.Lock()
		delete(s.tasks, config.ID)
		s.mu.Unlock()
		return nil, err
	}

	return t, nil
}

func (s *store) start(t *Task) error {
	p, err := s.ffmpeg.ExecuteCommand(t.Config.CreateCommand())
	if err != nil {
		return errors.E("task.start", errors.K.IO, err, "id", t.ID)
	}

	var tracker *ffmpeg.ProgressTracker
	if t.Duration > 0 {
		tracker, _ = ffmpeg.RegisterProgressTracker(p, t.Duration)
	}

	done := make(chan struct{})

	t.lock.Lock()
	t.proc = p
	t.tracker = tracker
	t.state = StateRunning
	t.err = nil
	t.cancelled = false
	t.updatedAt = time.Now().Unix()
	t.done = done
	t.lock.Unlock()

	s.logger.Info("job started", "id", t.ID, "reference", t.Reference, "args", t.Config.CreateCommand())

	go func() {
		err := p.Wait()

		t.lock.Lock()
		switch {
		case t.cancelled:
			t.state = StateCancelled
		case err != nil:
			t.state = StateFailed
			t.err = err
		default:
			t.state = StateFinished
		}
		t.updatedAt = time.Now().Unix()
		state := t.state
		t.lock.Unlock()

		close(done)

		if err != nil && state == StateFailed {
			s.logger.Error("job failed", "id", t.ID, "error", err)
		} else {
			s.logger.Info("job ended", "id", t.ID, "state", state)
		}
	}()

	return nil
}

func (s *store) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, errors.E("task.Get", errors.K.Invalid, ErrNotFound, "id", id)
	}
	return t, nil
}

func (s *store) List(ids []string, reference string) []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Task{}
	for _, t := range s.tasks {
		if len(reference) > 0 && t.Reference != reference {
			continue
		}
		if len(ids) > 0 {
			found := false
			for _, id := range ids {
				if t.ID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *store) Cancel(id string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}

	t.lock.Lock()
	if t.state != StateRunning {
		t.lock.Unlock()
		return nil
	}
	t.cancelled = true
	p := t.proc
	t.lock.Unlock()

	p.Kill()
	return nil
}

func (s *store) Restart(id string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	if t.IsRunning() {
		return errors.E("task.Restart", errors.K.Invalid, ErrJobRunning, "id", id)
	}
	return s.start(t)
}

func (s *store) Delete(id string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.Cancel(id); err != nil {
		return err
	}
	if p := t.process(); p != nil {
		_ = p.Close()
	}

	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()

	s.logger.Info("job deleted", "id", id)
	return nil
}
