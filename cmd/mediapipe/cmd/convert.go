// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/internal/logger"
)

func Convert(cmdRoot *cobra.Command) error {
	cmdConvert := &cobra.Command{
		Use:   "convert -i IN -o OUT [-- output options]",
		Short: "Convert a media file",
		Long:  "Convert a media file with FFmpeg and print the progress in percent",
		RunE:  doConvert,
	}

	cmdRoot.AddCommand(cmdConvert)

	cmdConvert.PersistentFlags().StringP("input", "i", "", "(mandatory) input file")
	cmdConvert.PersistentFlags().StringP("output", "o", "", "(mandatory) output file")
	cmdConvert.PersistentFlags().BoolP("overwrite", "y", false, "(optional) overwrite the output")

	return nil
}

func doConvert(cmd *cobra.Command, args []string) error {
	input := cmd.Flag("input").Value.String()
	output := cmd.Flag("output").Value.String()
	if len(input) == 0 || len(output) == 0 {
		return fmt.Errorf("input and output are needed after -i and -o")
	}
	overwrite, err := cmd.Flags().GetBool("overwrite")
	if err != nil {
		return fmt.Errorf("invalid overwrite flag")
	}

	log := logger.New("convert")

	ff, err := newFFmpeg(logger.New("ffmpeg"))
	if err != nil {
		return err
	}
	if !ff.ValidateInput(input) {
		return fmt.Errorf("input %s is not allowed", input)
	}
	if !ff.ValidateOutput(output) {
		return fmt.Errorf("output %s is not allowed", output)
	}

	res, err := ff.Probe(cmd.Context(), input, nil)
	if err != nil {
		return err
	}
	duration, _ := strconv.ParseFloat(res.Format.Duration, 64)

	argv := []string{"-hide_banner", "-n"}
	if overwrite {
		argv[1] = "-y"
	}
	argv = append(argv, "-i", input)
	argv = append(argv, args...)
	argv = append(argv, output)

	log.Debug("convert", "args", argv)

	p, err := ff.ExecuteCommand(argv)
	if err != nil {
		return err
	}
	defer p.Close()

	if duration > 0 {
		tracker, err := ffmpeg.RegisterProgressTracker(p, duration)
		if err != nil {
			return err
		}
		last := -1
		tracker.OnChange(func(percent float64) {
			if n := int(percent); n != last {
				last = n
				fmt.Printf("\r%3d%%", n)
			}
		})
	}

	if err := p.WaitContext(cmd.Context()); err != nil {
		fmt.Println()
		return fmt.Errorf("convert %s: %w\n%s", input, err, p.LastLine())
	}

	fmt.Printf("\r100%%\n")
	log.Info("converted", "input", input, "output", output, "duration", duration)
	return nil
}
