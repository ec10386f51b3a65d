// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) Parse(line string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	return 1
}

func (c *lineCollector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func shell(t *testing.T) string {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestScanLine(t *testing.T) {
	data := "first\rsecond\n\r\nthird"
	scanner := bufio.NewScanner(strings.NewReader(data))
	scanner.Split(scanLine)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"first", "second", "third"}, lines)
}

func TestStartWithoutBinary(t *testing.T) {
	_, err := Start(Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawn))
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start(Config{Binary: "/nonexistent/ffmpeg-binary"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawn))
}

func TestStderrLinesReachParsers(t *testing.T) {
	collector := &lineCollector{}
	h, err := Start(Config{
		Binary:  shell(t),
		Args:    []string{"-c", `printf 'frame=1 time=00:00:01.00\rframe=2 time=00:00:02.00\ndone\n' >&2`},
		Parser:  collector,
		Sampler: NewNullSampler(),
	})
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Wait())
	assert.Equal(t, []string{
		"frame=1 time=00:00:01.00",
		"frame=2 time=00:00:02.00",
		"done",
	}, collector.Lines())
	assert.Equal(t, "done", h.LastLine())
	assert.False(t, h.IsRunning())
	assert.Equal(t, "finished", h.Status().State)
}

func TestOpenPipesRoundTrip(t *testing.T) {
	h, err := Start(Config{
		Binary:  shell(t),
		Args:    []string{"-c", "cat"},
		Stdin:   true,
		Stdout:  true,
		Sampler: NewNullSampler(),
	})
	require.NoError(t, err)
	defer h.Close()

	payload := bytes.Repeat([]byte("rgb"), 64*1024)
	go func() {
		_, _ = h.Stdin().Write(payload)
		_ = h.CloseStdin()
	}()

	out, err := io.ReadAll(h.Stdout())
	require.NoError(t, err)
	assert.Equal(t, payload, out)
	require.NoError(t, h.Wait())
}

func TestStdinFrom(t *testing.T) {
	h, err := Start(Config{
		Binary:    shell(t),
		Args:      []string{"-c", "cat"},
		StdinFrom: strings.NewReader("hello pipe"),
		Stdout:    true,
		Sampler:   NewNullSampler(),
	})
	require.NoError(t, err)
	defer h.Close()

	out, err := io.ReadAll(h.Stdout())
	require.NoError(t, err)
	assert.Equal(t, "hello pipe", string(out))
	<-h.Fed()
	require.NoError(t, h.Wait())
}

func TestExitErrorCarriesLastLine(t *testing.T) {
	h, err := Start(Config{
		Binary:  shell(t),
		Args:    []string{"-c", "echo 'Invalid data found' >&2; exit 1"},
		Sampler: NewNullSampler(),
	})
	require.NoError(t, err)
	defer h.Close()

	err = h.Wait()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExit))
	assert.Contains(t, err.Error(), "Invalid data found")
	assert.Equal(t, "failed", h.Status().State)
}

func TestCloseKillsRunningProcess(t *testing.T) {
	exited := make(chan error, 1)
	h, err := Start(Config{
		Binary:  shell(t),
		Args:    []string{"-c", "exec sleep 30"},
		Stdin:   true,
		Stdout:  true,
		Sampler: NewNullSampler(),
		OnExit:  func(err error) { exited <- err },
	})
	require.NoError(t, err)
	assert.True(t, h.IsRunning())

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	err = h.Wait()
	assert.True(t, errors.Is(err, ErrKilled))
	assert.Equal(t, "killed", h.Status().State)

	select {
	case err := <-exited:
		assert.True(t, errors.Is(err, ErrKilled))
	case <-time.After(5 * time.Second):
		t.Fatal("OnExit not called")
	}

	// killing an exited process is silently ignored
	h.Kill()
}

func TestWaitContextCancel(t *testing.T) {
	h, err := Start(Config{
		Binary:  shell(t),
		Args:    []string{"-c", "exec sleep 30"},
		Sampler: NewNullSampler(),
	})
	require.NoError(t, err)
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = h.WaitContext(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, h.IsRunning())
}

func TestStatusWithSysSampler(t *testing.T) {
	h, err := Start(Config{
		Binary: shell(t),
		Args:   []string{"-c", "exec sleep 30"},
	})
	require.NoError(t, err)
	defer h.Close()

	status := h.Status()
	assert.Equal(t, h.ID(), status.ID)
	assert.Equal(t, h.Pid(), status.Pid)
	assert.Equal(t, "running", status.State)
	assert.NotEmpty(t, h.ID())
}
