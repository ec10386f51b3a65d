// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package task

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/internal/logger"
)

// validatingFFmpeg only implements address validation
type validatingFFmpeg struct {
	ffmpeg.FFmpeg
	blocked string
}

func (f validatingFFmpeg) ValidateInput(address string) bool {
	return !strings.Contains(address, f.blocked)
}

func (f validatingFFmpeg) ValidateOutput(address string) bool {
	return !strings.Contains(address, f.blocked)
}

func TestCreateCommand(t *testing.T) {
	c := &Config{
		Options: []string{"-loglevel", "info"},
		Input: []ConfigIO{
			{Address: "in.wav", Options: []string{"-ss", "1"}},
		},
		Output: []ConfigIO{
			{Address: "out.flac", Options: []string{"-c:a", "flac"}},
			{Address: "out.mp3"},
		},
	}

	assert.Equal(t, []string{
		"-hide_banner", "-n", "-loglevel", "info",
		"-ss", "1", "-i", "in.wav",
		"-c:a", "flac", "out.flac",
		"out.mp3",
	}, c.CreateCommand())

	c.Overwrite = true
	assert.Equal(t, "-y", c.CreateCommand()[1])
}

func TestAddValidation(t *testing.T) {
	s := NewStore(validatingFFmpeg{blocked: "secret"}, logger.Nop())
	ctx := context.Background()

	_, err := s.Add(ctx, &Config{Output: []ConfigIO{{Address: "out.mp3"}}})
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = s.Add(ctx, &Config{Input: []ConfigIO{{Address: "in.wav"}}})
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = s.Add(ctx, &Config{
		Input:  []ConfigIO{{Address: "/secret/in.wav"}},
		Output: []ConfigIO{{Address: "out.mp3"}},
	})
	assert.True(t, errors.Is(err, ErrInvalidInputAddress))

	_, err = s.Add(ctx, &Config{
		Input:  []ConfigIO{{Address: "in.wav"}},
		Output: []ConfigIO{{Address: ""}},
	})
	assert.True(t, errors.Is(err, ErrInvalidOutputAddress))

	_, err = s.Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Cancel("nope"), ErrNotFound))
	assert.True(t, errors.Is(s.Delete("nope"), ErrNotFound))
	assert.True(t, errors.Is(s.Restart("nope"), ErrNotFound))
	assert.Empty(t, s.List(nil, ""))
}

func newFFmpeg(t *testing.T) ffmpeg.FFmpeg {
	t.Helper()
	ff, err := ffmpeg.New(ffmpeg.Config{Logger: logger.Nop()})
	if errors.Is(err, ffmpeg.ErrProcessSpawn) {
		t.Skip("ffmpeg/ffprobe not installed")
	}
	require.NoError(t, err)
	return ff
}

func sineWav(t *testing.T, ff ffmpeg.FFmpeg, seconds string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sine.wav")
	out, err := exec.Command(ff.Binary(), "-v", "error", "-y",
		"-f", "lavfi", "-i", "sine=frequency=440:sample_rate=44100:duration="+seconds,
		"-c:a", "pcm_s16le", path).CombinedOutput()
	require.NoError(t, err, string(out))
	return path
}

func TestJobLifecycle(t *testing.T) {
	ff := newFFmpeg(t)
	s := NewStore(ff, logger.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	src := sineWav(t, ff, "1.5")
	dst := filepath.Join(t.TempDir(), "out.flac")

	job, err := s.Add(ctx, &Config{
		Reference: "test",
		Input:     []ConfigIO{{Address: src}},
		Output:    []ConfigIO{{Address: dst}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.InDelta(t, 1.5, job.Duration, 0.01)

	_, err = s.Add(ctx, &Config{
		ID:     job.ID,
		Input:  []ConfigIO{{Address: src}},
		Output: []ConfigIO{{Address: dst}},
	})
	assert.True(t, errors.Is(err, ErrJobExists))

	require.NoError(t, job.Wait(ctx))
	assert.Equal(t, StateFinished, job.State())
	assert.Equal(t, 100.0, job.Percent())
	assert.NotEmpty(t, job.Log())
	assert.Greater(t, job.Progress().Time, 1.0)

	// the output exists now and overwriting is off
	require.NoError(t, s.Restart(job.ID))
	err = job.Wait(ctx)
	require.Error(t, err)
	assert.Equal(t, StateFailed, job.State())
	assert.True(t, errors.Is(job.Err(), ffmpeg.ErrProcessExit))

	job.Config.Overwrite = true
	require.NoError(t, s.Restart(job.ID))
	require.NoError(t, job.Wait(ctx))
	assert.Equal(t, StateFinished, job.State())

	list := s.List(nil, "test")
	require.Len(t, list, 1)
	assert.Equal(t, job.ID, list[0].ID)
	assert.Empty(t, s.List([]string{"other"}, ""))

	require.NoError(t, s.Delete(job.ID))
	_, err = s.Get(job.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestJobCancel(t *testing.T) {
	ff := newFFmpeg(t)
	s := NewStore(ff, logger.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	job, err := s.Add(ctx, &Config{
		// -re paces the input in real time
		Input:  []ConfigIO{{Address: sineWav(t, ff, "30"), Options: []string{"-re"}}},
		Output: []ConfigIO{{Address: filepath.Join(t.TempDir(), "out.flac")}},
	})
	require.NoError(t, err)
	assert.True(t, job.IsRunning())

	err = s.Restart(job.ID)
	assert.True(t, errors.Is(err, ErrJobRunning))

	require.NoError(t, s.Cancel(job.ID))
	require.NoError(t, job.Wait(ctx))
	assert.Equal(t, StateCancelled, job.State())
	assert.Less(t, job.Percent(), 100.0)
}

func TestAddProbeFailure(t *testing.T) {
	ff := newFFmpeg(t)
	s := NewStore(ff, logger.Nop())

	_, err := s.Add(context.Background(), &Config{
		Input:  []ConfigIO{{Address: filepath.Join(t.TempDir(), "missing.wav")}},
		Output: []ConfigIO{{Address: filepath.Join(t.TempDir(), "out.flac")}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ffmpeg.ErrProbe))
	assert.Empty(t, s.List(nil, ""))
}
