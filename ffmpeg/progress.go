// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package ffmpeg

import (
	"sync"

	"github.com/eluv-io/errors-go"
	"go.uber.org/atomic"

	"github.com/ZSC714725/mediapipe/ffmpeg/parse"
)

// ProgressFunc receives a completion percentage in [0, 100]
type ProgressFunc func(percent float64)

// ProgressTracker turns the time markers of FFmpeg's stats lines into a
// completion percentage relative to a known total duration. The reported
// percentage never decreases.
type ProgressTracker struct {
	total   float64
	current *atomic.Float64
	percent *atomic.Float64

	lock        sync.Mutex
	notified    bool
	subscribers []ProgressFunc
	// notifyLock keeps notifications in order without holding lock, so
	// callbacks may register more callbacks
	notifyLock sync.Mutex
}

// NewProgressTracker returns a tracker for a job of totalDuration seconds
func NewProgressTracker(totalDuration float64) (*ProgressTracker, error) {
	if !(totalDuration > 0) {
		return nil, errors.E("ffmpeg.NewProgressTracker", errors.K.Invalid, ErrInvalidInput,
			"reason", "total duration must be positive",
			"duration", totalDuration)
	}
	return &ProgressTracker{
		total:   totalDuration,
		current: atomic.NewFloat64(0),
		percent: atomic.NewFloat64(0),
	}, nil
}

// RegisterProgressTracker attaches a tracker to the stderr output of p
func RegisterProgressTracker(p *Process, totalDuration float64) (*ProgressTracker, error) {
	if p == nil {
		return nil, errors.E("ffmpeg.RegisterProgressTracker", errors.K.Invalid, ErrInvalidInput,
			"reason", "no process given")
	}
	t, err := NewProgressTracker(totalDuration)
	if err != nil {
		return nil, err
	}
	p.AddParser(t)
	return t, nil
}

// OnChange registers fn to be called with every new percentage. Callbacks run
// on the goroutine reading the process output, in order.
func (t *ProgressTracker) OnChange(fn ProgressFunc) {
	if fn == nil {
		return
	}
	t.lock.Lock()
	t.subscribers = append(t.subscribers, fn)
	t.lock.Unlock()
}

// Percent returns the latest percentage
func (t *ProgressTracker) Percent() float64 {
	return t.percent.Load()
}

// CurrentTime returns the latest position in seconds reported by FFmpeg
func (t *ProgressTracker) CurrentTime() float64 {
	return t.current.Load()
}

// TotalDuration returns the duration the percentage is relative to
func (t *ProgressTracker) TotalDuration() float64 {
	return t.total
}

// Parse implements the process parser interface. Lines without a time
// marker are ignored.
func (t *ProgressTracker) Parse(line string) uint64 {
	current, ok := parse.ParseTime(line)
	if !ok || current < 0 {
		return 0
	}

	percent := min(100, current/t.total*100)

	t.notifyLock.Lock()
	defer t.notifyLock.Unlock()

	t.lock.Lock()
	if t.notified && percent <= t.percent.Load() {
		t.lock.Unlock()
		return 1
	}
	t.notified = true
	t.current.Store(current)
	t.percent.Store(percent)
	subscribers := t.subscribers[:len(t.subscribers):len(t.subscribers)]
	t.lock.Unlock()

	for _, fn := range subscribers {
		fn(percent)
	}
	return 1
}
