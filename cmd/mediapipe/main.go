// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZSC714725/mediapipe/cmd/mediapipe/cmd"
)

func main() {
	cmdRoot := &cobra.Command{
		Use:          "mediapipe",
		Short:        "FFmpeg pipe tool",
		Long:         "Probe, convert and serve FFmpeg jobs",
		SilenceUsage: true,
	}

	cmdRoot.PersistentFlags().StringP("config", "c", "", "(optional) path to YAML config file")
	cmdRoot.PersistentPreRunE = cmd.Setup

	for _, add := range []func(*cobra.Command) error{cmd.Serve, cmd.Probe, cmd.Convert} {
		if err := add(cmdRoot); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmdRoot.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
