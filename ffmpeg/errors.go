// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package ffmpeg

import (
	"errors"

	"github.com/ZSC714725/mediapipe/internal/process"
)

var (
	// ErrInvalidInput is the cause of errors for bad arguments
	ErrInvalidInput = errors.New("invalid input")
	// ErrProbe is the cause of errors when ffprobe fails or its report can't be parsed
	ErrProbe = errors.New("probe failed")
	// ErrProcessSpawn is the cause of errors when an executable can't be found or started
	ErrProcessSpawn = process.ErrSpawn
	// ErrProcessExit is the cause of errors when a process exits with a non-zero status
	ErrProcessExit = process.ErrExit
	// ErrProcessKilled is the cause of errors when a process was killed
	ErrProcessKilled = process.ErrKilled
)
