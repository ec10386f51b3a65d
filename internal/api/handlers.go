// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

// Package api exposes probing and conversion jobs over HTTP.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/internal/task"
	"github.com/ZSC714725/mediapipe/media"
)

// Handler holds dependencies
type Handler struct {
	store  task.Store
	ffmpeg ffmpeg.FFmpeg
}

// NewHandler creates API handler
func NewHandler(store task.Store, ff ffmpeg.FFmpeg) *Handler {
	return &Handler{store: store, ffmpeg: ff}
}

// Register adds the routes to r
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/skills", h.Skills)
		v1.POST("/skills/reload", h.ReloadSkills)

		v1.GET("/probe", h.Probe)

		v1.GET("/jobs", h.ListJobs)
		v1.POST("/jobs", h.AddJob)
		v1.GET("/jobs/:id", h.GetJob)
		v1.DELETE("/jobs/:id", h.DeleteJob)
		v1.PUT("/jobs/:id/command", h.Command)
	}
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// Probe GET /api/v1/probe?input=
func (h *Handler) Probe(c *gin.Context) {
	input := c.Query("input")
	if input == "" {
		errResp(c, http.StatusBadRequest, "Missing input", "")
		return
	}
	if !h.ffmpeg.ValidateInput(input) {
		errResp(c, http.StatusForbidden, "Invalid address", task.ErrInvalidInputAddress.Error())
		return
	}

	res, err := h.ffmpeg.Probe(c.Request.Context(), input, nil)
	if err != nil {
		errResp(c, http.StatusUnprocessableEntity, "Probe failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, media.NewMetadata(res, ""))
}

// AddJob POST /api/v1/jobs
func (h *Handler) AddJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	if len(req.Input) == 0 || len(req.Output) == 0 {
		errResp(c, http.StatusBadRequest, "At least one input and one output required", "")
		return
	}

	t, err := h.store.Add(c.Request.Context(), requestToConfig(&req))
	if err != nil {
		switch {
		case errors.Is(err, task.ErrJobExists):
			errResp(c, http.StatusConflict, "Job exists", err.Error())
		case errors.Is(err, task.ErrInvalidInputAddress), errors.Is(err, task.ErrInvalidOutputAddress):
			errResp(c, http.StatusBadRequest, "Invalid address", err.Error())
		case errors.Is(err, ffmpeg.ErrProbe):
			errResp(c, http.StatusUnprocessableEntity, "Probe failed", err.Error())
		case errors.Is(err, ffmpeg.ErrProcessSpawn):
			errResp(c, http.StatusInternalServerError, "Start failed", err.Error())
		default:
			errResp(c, http.StatusBadRequest, "Invalid config", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, taskToJob(t, "config,state"))
}

// ListJobs GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	filter := c.DefaultQuery("filter", "")
	reference := c.DefaultQuery("reference", "")
	idStr := c.DefaultQuery("id", "")

	var ids []string
	if idStr != "" {
		ids = strings.FieldsFunc(idStr, func(r rune) bool { return r == ',' })
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
	}

	tasks := h.store.List(ids, reference)
	jobs := make([]Job, 0, len(tasks))
	for _, t := range tasks {
		jobs = append(jobs, taskToJob(t, filter))
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJob GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	t, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, taskToJob(t, c.DefaultQuery("filter", "")))
}

// DeleteJob DELETE /api/v1/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, "Delete failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// Command PUT /api/v1/jobs/:id/command
func (h *Handler) Command(c *gin.Context) {
	id := c.Param("id")

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	var err error
	switch req.Command {
	case "cancel":
		err = h.store.Cancel(id)
	case "restart":
		err = h.store.Restart(id)
	default:
		errResp(c, http.StatusBadRequest, "Unknown command", "Known: cancel, restart")
		return
	}

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
			return
		}
		errResp(c, http.StatusBadRequest, "Command failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// Skills GET /api/v1/skills
func (h *Handler) Skills(c *gin.Context) {
	sk, err := h.ffmpeg.Skills()
	if err != nil {
		errResp(c, http.StatusInternalServerError, "Skills unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, skillsToAPI(sk))
}

// ReloadSkills POST /api/v1/skills/reload
func (h *Handler) ReloadSkills(c *gin.Context) {
	if err := h.ffmpeg.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	h.Skills(c)
}

func requestToConfig(req *JobRequest) *task.Config {
	cfg := &task.Config{
		ID:        req.ID,
		Reference: req.Reference,
		Options:   req.Options,
		Overwrite: req.Overwrite,
	}
	for _, io := range req.Input {
		cfg.Input = append(cfg.Input, task.ConfigIO{ID: io.ID, Address: io.Address, Options: io.Options})
	}
	for _, io := range req.Output {
		cfg.Output = append(cfg.Output, task.ConfigIO{ID: io.ID, Address: io.Address, Options: io.Options})
	}
	return cfg
}

func taskToJobConfig(t *task.Task) *JobConfig {
	cfg := &JobConfig{
		ID:        t.ID,
		Reference: t.Reference,
		Options:   t.Config.Options,
		Overwrite: t.Config.Overwrite,
	}
	for _, io := range t.Config.Input {
		cfg.Input = append(cfg.Input, JobIO{ID: io.ID, Address: io.Address, Options: io.Options})
	}
	for _, io := range t.Config.Output {
		cfg.Output = append(cfg.Output, JobIO{ID: io.ID, Address: io.Address, Options: io.Options})
	}
	return cfg
}

func taskToJob(t *task.Task, filter string) Job {
	j := Job{
		ID:        t.ID,
		Type:      "ffmpeg",
		Reference: t.Reference,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt(),
	}

	includeAll := filter == ""

	if includeAll || strings.Contains(filter, "config") {
		j.Config = taskToJobConfig(t)
	}

	if includeAll || strings.Contains(filter, "state") {
		status := t.Status()
		j.State = &JobState{
			State:    t.State(),
			Runtime:  int64(status.Duration.Seconds()),
			Duration: t.Duration,
			Percent:  t.Percent(),
			Memory:   status.Memory,
			CPU:      status.CPU,
			Command:  t.Config.CreateCommand(),
		}
		if err := t.Err(); err != nil {
			j.State.Error = err.Error()
		}
		if lines := t.Log(); len(lines) > 0 {
			j.State.LastLog = lines[len(lines)-1].Data
		}
		prog := t.Progress()
		j.State.Progress = &Progress{
			Frame: prog.Frame, Size: prog.Size, Time: prog.Time, Speed: prog.Speed,
			Drop: prog.Drop, Dup: prog.Dup, Quantizer: prog.Quantizer,
		}
	}

	if includeAll || strings.Contains(filter, "report") {
		lines := t.Log()
		report := JobReport{Log: make([][2]string, len(lines))}
		for i, line := range lines {
			report.Log[i] = [2]string{
				line.Timestamp.Format("2006-01-02 15:04:05.000"),
				line.Data,
			}
		}
		j.Report = &report
	}

	return j
}
