// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package api

// JobIO is API input/output
type JobIO struct {
	ID      string   `json:"id"`
	Address string   `json:"address" binding:"required"`
	Options []string `json:"options"`
}

// JobRequest for Add
type JobRequest struct {
	ID        string   `json:"id"`
	Reference string   `json:"reference"`
	Input     []JobIO  `json:"input" binding:"required"`
	Output    []JobIO  `json:"output" binding:"required"`
	Options   []string `json:"options"`
	Overwrite bool     `json:"overwrite"`
}

// Job represents a job in API responses
type Job struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Reference string     `json:"reference"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
	Config    *JobConfig `json:"config,omitempty"`
	State     *JobState  `json:"state,omitempty"`
	Report    *JobReport `json:"report,omitempty"`
}

// JobConfig in API format
type JobConfig struct {
	ID        string   `json:"id"`
	Reference string   `json:"reference"`
	Input     []JobIO  `json:"input"`
	Output    []JobIO  `json:"output"`
	Options   []string `json:"options"`
	Overwrite bool     `json:"overwrite"`
}

// JobState for API
type JobState struct {
	State    string    `json:"exec"`
	Error    string    `json:"error,omitempty"`
	Runtime  int64     `json:"runtime_seconds"`
	Duration float64   `json:"duration_seconds"`
	Percent  float64   `json:"percent"`
	LastLog  string    `json:"last_logline"`
	Progress *Progress `json:"progress"`
	Memory   uint64    `json:"memory_bytes"`
	CPU      float64   `json:"cpu_usage"`
	Command  []string  `json:"command"`
}

// Progress from FFmpeg parser
type Progress struct {
	Frame     uint64  `json:"frame"`
	Size      uint64  `json:"size_bytes"`
	Time      float64 `json:"time_seconds"`
	Speed     float64 `json:"speed"`
	Drop      uint64  `json:"drop"`
	Dup       uint64  `json:"dup"`
	Quantizer float64 `json:"q"`
}

// JobReport for logs
type JobReport struct {
	Log [][2]string `json:"log"`
}

// CommandRequest for cancel/restart
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
