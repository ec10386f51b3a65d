// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package skills

import "errors"

// ErrDetect is the cause of errors when the capabilities can't be detected
var ErrDetect = errors.New("ffmpeg skills detection failed")
