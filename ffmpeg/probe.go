// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package ffmpeg

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/eluv-io/errors-go"
)

// ProbeResult is the JSON report of `ffprobe -show_format -show_streams`
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes one stream of the probed input
type ProbeStream struct {
	Index         int               `json:"index"`
	CodecName     string            `json:"codec_name"`
	CodecLongName string            `json:"codec_long_name"`
	CodecType     string            `json:"codec_type"`
	Profile       string            `json:"profile,omitempty"`
	Width         int               `json:"width,omitempty"`
	Height        int               `json:"height,omitempty"`
	PixFmt        string            `json:"pix_fmt,omitempty"`
	RFrameRate    string            `json:"r_frame_rate,omitempty"`
	AvgFrameRate  string            `json:"avg_frame_rate,omitempty"`
	NbFrames      string            `json:"nb_frames,omitempty"`
	SampleFmt     string            `json:"sample_fmt,omitempty"`
	SampleRate    string            `json:"sample_rate,omitempty"`
	Channels      int               `json:"channels,omitempty"`
	ChannelLayout string            `json:"channel_layout,omitempty"`
	BitsPerSample int               `json:"bits_per_sample,omitempty"`
	StartTime     string            `json:"start_time,omitempty"`
	Duration      string            `json:"duration,omitempty"`
	BitRate       string            `json:"bit_rate,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// ProbeFormat describes the container of the probed input
type ProbeFormat struct {
	Filename       string            `json:"filename"`
	NbStreams      int               `json:"nb_streams"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	StartTime      string            `json:"start_time,omitempty"`
	Duration       string            `json:"duration,omitempty"`
	Size           string            `json:"size,omitempty"`
	BitRate        string            `json:"bit_rate,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// ParseProbeResult decodes an ffprobe JSON report
func ParseProbeResult(data []byte) (*ProbeResult, error) {
	e := errors.Template("ffmpeg.ParseProbeResult", errors.K.Invalid)

	var res ProbeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, e(ErrProbe, "reason", "unparsable report", "error", err)
	}
	if res.Format.FormatName == "" && len(res.Streams) == 0 {
		return nil, e(ErrProbe, "reason", "empty report")
	}
	return &res, nil
}

func (f *ffmpeg) Probe(ctx context.Context, input string, src io.Reader) (*ProbeResult, error) {
	e := errors.Template("ffmpeg.Probe", errors.K.IO, "input", input)

	if src != nil {
		input = "pipe:0"
	}
	if input == "" {
		return nil, e(ErrInvalidInput, "reason", "no input given")
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	}

	p, err := f.start(startConfig{binary: f.probeBinary, args: args, stdinFrom: src, stdout: true})
	if err != nil {
		return nil, err
	}
	defer p.Close()

	stop := context.AfterFunc(ctx, p.Kill)
	data, readErr := io.ReadAll(p.Stdout())
	stop()

	waitErr := p.Wait()
	// src may be reused by the caller once the feeder has let go of it
	select {
	case <-p.Fed():
	case <-ctx.Done():
	}
	if ctx.Err() != nil {
		return nil, e(ErrProbe, "error", ctx.Err())
	}
	if waitErr != nil {
		return nil, e(ErrProbe, "error", waitErr, "log", lastLines(p.Log(), 5))
	}
	if readErr != nil {
		return nil, e(ErrProbe, "error", readErr)
	}

	res, err := ParseProbeResult(data)
	if err != nil {
		return nil, e(err)
	}
	return res, nil
}

func lastLines(lines []LogLine, n int) string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Data)
	}
	return strings.Join(out, "\n")
}
