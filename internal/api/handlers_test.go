// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/ffmpeg/skills"
	"github.com/ZSC714725/mediapipe/internal/logger"
	"github.com/ZSC714725/mediapipe/internal/task"
	"github.com/ZSC714725/mediapipe/media"
)

const probeReport = `{
  "streams": [
    {"index": 0, "codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "48000",
     "channels": 2, "sample_fmt": "s16", "duration": "2.000000", "bit_rate": "1536000"}
  ],
  "format": {"filename": "in.wav", "nb_streams": 1, "format_name": "wav",
    "duration": "2.000000", "size": "384078", "bit_rate": "1536312"}
}`

// stubFFmpeg answers validation, probing and skills without a binary
type stubFFmpeg struct {
	ffmpeg.FFmpeg
	blocked  string
	probeErr error
	reloads  int
}

func (f *stubFFmpeg) ValidateInput(address string) bool {
	return f.blocked == "" || !strings.Contains(address, f.blocked)
}

func (f *stubFFmpeg) ValidateOutput(address string) bool {
	return f.ValidateInput(address)
}

func (f *stubFFmpeg) Probe(_ context.Context, _ string, _ io.Reader) (*ffmpeg.ProbeResult, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return ffmpeg.ParseProbeResult([]byte(probeReport))
}

func (f *stubFFmpeg) Skills() (skills.Skills, error) {
	s := skills.Skills{}
	s.FFmpeg.Version = "7.0.0"
	s.Encoders.Audio = []skills.Encoder{{Id: "flac", Name: "FLAC"}}
	return s, nil
}

func (f *stubFFmpeg) ReloadSkills() error {
	f.reloads++
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(h *Handler) *gin.Engine {
	r := gin.New()
	h.Register(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestSkills(t *testing.T) {
	ff := &stubFFmpeg{}
	r := newRouter(NewHandler(task.NewStore(ff, logger.Nop()), ff))

	w := do(t, r, http.MethodGet, "/api/v1/skills", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SkillsResponse
	decode(t, w, &resp)
	assert.Equal(t, "7.0.0", resp.FFmpeg.Version)
	assert.Equal(t, []SkillsEntry{{ID: "flac", Name: "FLAC"}}, resp.Encoders.Audio)
	assert.Empty(t, resp.Encoders.Video)

	w = do(t, r, http.MethodPost, "/api/v1/skills/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ff.reloads)
}

func TestProbe(t *testing.T) {
	ff := &stubFFmpeg{blocked: "/etc/"}
	r := newRouter(NewHandler(task.NewStore(ff, logger.Nop()), ff))

	w := do(t, r, http.MethodGet, "/api/v1/probe?input=in.wav", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var m media.Metadata
	decode(t, w, &m)
	assert.Equal(t, 2.0, m.Duration)
	assert.Equal(t, 2, m.Channels)
	assert.Equal(t, 48000, m.SampleRate)
	assert.Equal(t, "pcm_s16le", m.Codec)

	w = do(t, r, http.MethodGet, "/api/v1/probe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/probe?input=/etc/passwd", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ff.probeErr = ffmpeg.ErrProbe
	w = do(t, r, http.MethodGet, "/api/v1/probe?input=in.wav", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddJobRejected(t *testing.T) {
	ff := &stubFFmpeg{blocked: "secret", probeErr: ffmpeg.ErrProbe}
	r := newRouter(NewHandler(task.NewStore(ff, logger.Nop()), ff))

	w := do(t, r, http.MethodPost, "/api/v1/jobs", JobRequest{
		Input: []JobIO{{Address: "in.wav"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/jobs", JobRequest{
		Input:  []JobIO{{Address: "secret.wav"}},
		Output: []JobIO{{Address: "out.flac"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var e ErrorResponse
	decode(t, w, &e)
	assert.Equal(t, "Invalid address", e.Message)

	w = do(t, r, http.MethodPost, "/api/v1/jobs", JobRequest{
		Input:  []JobIO{{Address: "in.wav"}},
		Output: []JobIO{{Address: "out.flac"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs []Job
	decode(t, w, &jobs)
	assert.Empty(t, jobs)
}

func TestUnknownJob(t *testing.T) {
	ff := &stubFFmpeg{}
	r := newRouter(NewHandler(task.NewStore(ff, logger.Nop()), ff))

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/v1/jobs/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/v1/jobs/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, r, http.MethodPut, "/api/v1/jobs/nope/command", CommandRequest{Command: "cancel"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, r, http.MethodPut, "/api/v1/jobs/nope/command", CommandRequest{Command: "pause"}).Code)
}

func TestJobLifecycle(t *testing.T) {
	ff, err := ffmpeg.New(ffmpeg.Config{Logger: logger.Nop()})
	if errors.Is(err, ffmpeg.ErrProcessSpawn) {
		t.Skip("ffmpeg/ffprobe not installed")
	}
	require.NoError(t, err)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out, err := exec.Command(ff.Binary(), "-v", "error", "-y",
		"-f", "lavfi", "-i", "sine=frequency=440:sample_rate=44100:duration=1",
		"-c:a", "pcm_s16le", in).CombinedOutput()
	require.NoError(t, err, string(out))

	r := newRouter(NewHandler(task.NewStore(ff, logger.Nop()), ff))

	w := do(t, r, http.MethodPost, "/api/v1/jobs", JobRequest{
		ID:        "job1",
		Reference: "ref",
		Input:     []JobIO{{Address: in}},
		Output:    []JobIO{{Address: filepath.Join(dir, "out.flac"), Options: []string{"-c:a", "flac"}}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var job Job
	decode(t, w, &job)
	assert.Equal(t, "job1", job.ID)
	require.NotNil(t, job.Config)
	require.NotNil(t, job.State)
	assert.InDelta(t, 1.0, job.State.Duration, 0.01)

	w = do(t, r, http.MethodPost, "/api/v1/jobs", JobRequest{
		ID:     "job1",
		Input:  []JobIO{{Address: in}},
		Output: []JobIO{{Address: filepath.Join(dir, "other.flac")}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Eventually(t, func() bool {
		w := do(t, r, http.MethodGet, "/api/v1/jobs/job1?filter=state", nil)
		var j Job
		if json.Unmarshal(w.Body.Bytes(), &j) != nil || j.State == nil {
			return false
		}
		return j.State.State == task.StateFinished
	}, 10*time.Second, 50*time.Millisecond)

	w = do(t, r, http.MethodGet, "/api/v1/jobs/job1?filter=state,report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	job = Job{}
	decode(t, w, &job)
	assert.Nil(t, job.Config)
	require.NotNil(t, job.State)
	assert.Equal(t, 100.0, job.State.Percent)
	require.NotNil(t, job.Report)

	w = do(t, r, http.MethodGet, "/api/v1/jobs?reference=ref", nil)
	var jobs []Job
	decode(t, w, &jobs)
	require.Len(t, jobs, 1)

	w = do(t, r, http.MethodGet, "/api/v1/jobs?reference=other", nil)
	jobs = nil
	decode(t, w, &jobs)
	assert.Empty(t, jobs)

	require.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, "/api/v1/jobs/job1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/v1/jobs/job1", nil).Code)
}
