// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package task

// ConfigIO is one input or output of a job
type ConfigIO struct {
	ID      string   `json:"id"`
	Address string   `json:"address"`
	Options []string `json:"options"`
}

// Config of a conversion job
type Config struct {
	ID        string     `json:"id"`
	Reference string     `json:"reference"`
	Input     []ConfigIO `json:"input"`
	Output    []ConfigIO `json:"output"`
	// Options are global FFmpeg options placed before the inputs
	Options []string `json:"options"`
	// Overwrite lets FFmpeg replace existing outputs
	Overwrite bool `json:"overwrite"`
}

// CreateCommand builds the FFmpeg arguments of the job
func (c *Config) CreateCommand() []string {
	cmd := []string{"-hide_banner"}
	if c.Overwrite {
		cmd = append(cmd, "-y")
	} else {
		cmd = append(cmd, "-n")
	}
	cmd = append(cmd, c.Options...)
	for _, in := range c.Input {
		cmd = append(cmd, in.Options...)
		cmd = append(cmd, "-i", in.Address)
	}
	for _, out := range c.Output {
		cmd = append(cmd, out.Options...)
		cmd = append(cmd, out.Address)
	}
	return cmd
}
