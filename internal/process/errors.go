// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package process

import (
	"errors"
	"os"
)

var (
	ErrSpawn  = errors.New("process spawn failed")
	ErrKilled = errors.New("process killed")
	ErrExit   = errors.New("process exited with error")
)

func isClosed(err error) bool {
	return errors.Is(err, os.ErrClosed)
}
