// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZSC714725/mediapipe/internal/logger"
	"github.com/ZSC714725/mediapipe/media"
)

func Probe(cmdRoot *cobra.Command) error {
	cmdProbe := &cobra.Command{
		Use:   "probe",
		Short: "Probe a media file",
		Long:  "Probe a media file and print its metadata as JSON",
		RunE:  doProbe,
	}

	cmdRoot.AddCommand(cmdProbe)

	cmdProbe.PersistentFlags().StringP("input", "i", "", "(mandatory) file to be probed")
	cmdProbe.PersistentFlags().StringP("stream", "s", "", "(optional) primary stream kind: video or audio")

	return nil
}

func doProbe(cmd *cobra.Command, args []string) error {
	input := cmd.Flag("input").Value.String()
	if len(input) == 0 {
		return fmt.Errorf("input is needed after -i")
	}
	kind := cmd.Flag("stream").Value.String()
	if kind != "" && kind != media.StreamVideo && kind != media.StreamAudio {
		return fmt.Errorf("invalid stream kind %q", kind)
	}

	ff, err := newFFmpeg(logger.New("ffmpeg"))
	if err != nil {
		return err
	}
	if !ff.ValidateInput(input) {
		return fmt.Errorf("input %s is not allowed", input)
	}

	res, err := ff.Probe(cmd.Context(), input, nil)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(media.NewMetadata(res, kind))
}
