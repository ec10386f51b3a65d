// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package cmd

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ZSC714725/mediapipe/internal/api"
	"github.com/ZSC714725/mediapipe/internal/logger"
	"github.com/ZSC714725/mediapipe/internal/task"
)

func Serve(cmdRoot *cobra.Command) error {
	cmdServe := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve probing and conversion jobs over HTTP",
		RunE:  doServe,
	}

	cmdRoot.AddCommand(cmdServe)

	cmdServe.PersistentFlags().StringP("bind", "b", "", "(optional) bind address, overrides the config")
	cmdServe.PersistentFlags().StringP("ffmpeg", "", "", "(optional) FFmpeg binary, overrides the config")

	return nil
}

func doServe(cmd *cobra.Command, args []string) error {
	if bind := cmd.Flag("bind").Value.String(); bind != "" {
		cfg.Server.Bind = bind
	}
	if bin := cmd.Flag("ffmpeg").Value.String(); bin != "" {
		cfg.FFmpeg.Path = bin
	}

	log := logger.New("server")

	ff, err := newFFmpeg(logger.New("ffmpeg"))
	if err != nil {
		return fmt.Errorf("ffmpeg init: %w", err)
	}

	store := task.NewStore(ff, logger.New("task"))
	handler := api.NewHandler(store, ff)

	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())
	handler.Register(r)

	log.Info("mediapipe listening", "bind", cfg.Server.Bind, "ffmpeg", ff.Binary())
	return r.Run(cfg.Server.Bind)
}
