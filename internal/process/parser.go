// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package process

import "time"

// Parser parses process output (e.g. FFmpeg stderr). The return value is
// non-zero when the line carried progress information.
type Parser interface {
	Parse(line string) uint64
}

// Line is a timestamped log line
type Line struct {
	Timestamp time.Time
	Data      string
}
