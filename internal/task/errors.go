// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package task

import "errors"

var (
	ErrNotFound             = errors.New("job not found")
	ErrJobExists            = errors.New("job already exists")
	ErrJobRunning           = errors.New("job is running")
	ErrInvalidConfig        = errors.New("invalid config: need at least one input and one output")
	ErrInvalidInputAddress  = errors.New("invalid input address")
	ErrInvalidOutputAddress = errors.New("invalid output address")
)
