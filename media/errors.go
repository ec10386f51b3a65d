// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"errors"

	"github.com/ZSC714725/mediapipe/ffmpeg"
)

var (
	// ErrInvalidInput is the cause of errors for bad arguments: non-positive
	// dimensions, empty paths, nil streams or frames of the wrong shape
	ErrInvalidInput = ffmpeg.ErrInvalidInput
	// ErrInvalidState is the cause of errors for calls out of lifecycle order
	ErrInvalidState = errors.New("invalid state")
	// ErrProbe is the cause of errors when the metadata of a source can't be read
	ErrProbe = ffmpeg.ErrProbe
	// ErrProcessSpawn is the cause of errors when FFmpeg can't be found or started
	ErrProcessSpawn = ffmpeg.ErrProcessSpawn
	// ErrOutOfRange is the cause of errors when addressing outside a frame
	ErrOutOfRange = errors.New("out of range")
)
