// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

// Package cmd holds the subcommands of the mediapipe binary.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/internal/config"
	"github.com/ZSC714725/mediapipe/internal/logger"
)

var cfg = config.Default()

// Setup loads the config file and configures logging. It runs before every
// subcommand.
func Setup(cmd *cobra.Command, args []string) error {
	if path := cmd.Flag("config").Value.String(); path != "" {
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = c
	}

	logger.Setup(logger.Config{
		Level:   cfg.Log.Level,
		Handler: cfg.Log.Handler,
		File:    cfg.Log.File,
	})
	return nil
}

func newFFmpeg(log logger.Logger) (ffmpeg.FFmpeg, error) {
	in, err := ffmpeg.NewValidator(cfg.FFmpeg.Access.Input.Allow, cfg.FFmpeg.Access.Input.Block)
	if err != nil {
		return nil, fmt.Errorf("input access rules: %w", err)
	}
	out, err := ffmpeg.NewValidator(cfg.FFmpeg.Access.Output.Allow, cfg.FFmpeg.Access.Output.Block)
	if err != nil {
		return nil, fmt.Errorf("output access rules: %w", err)
	}

	return ffmpeg.New(ffmpeg.Config{
		Binary:          cfg.FFmpeg.Path,
		ProbeBinary:     cfg.FFmpeg.ProbePath,
		MaxLogLines:     cfg.FFmpeg.LogLines,
		ValidatorInput:  in,
		ValidatorOutput: out,
		Logger:          log,
	})
}
