// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"strconv"
)

// VideoEncoderOptions select the encoder and container of a VideoWriter
type VideoEncoderOptions struct {
	// Format is the container, e.g. "mp4", "flv", "webm"
	Format string
	// EncoderName is the FFmpeg encoder, e.g. "libx264", "libvpx-vp9"
	EncoderName string
	// EncoderArguments are passed to FFmpeg after the encoder selection
	EncoderArguments []string
}

// DefaultVideoEncoderOptions encode H.264 into mp4
func DefaultVideoEncoderOptions() VideoEncoderOptions {
	return VideoEncoderOptions{
		Format:           "mp4",
		EncoderName:      "libx264",
		EncoderArguments: []string{"-preset", "veryfast", "-crf", "23", "-pix_fmt", "yuv420p"},
	}
}

// AudioEncoderOptions select the encoder and container of an AudioWriter
type AudioEncoderOptions struct {
	// Format is the container, e.g. "mp3", "flv", "ogg"
	Format string
	// EncoderName is the FFmpeg encoder, e.g. "libmp3lame", "aac"
	EncoderName string
	// EncoderArguments are passed to FFmpeg after the encoder selection
	EncoderArguments []string
}

// DefaultAudioEncoderOptions encode MP3
func DefaultAudioEncoderOptions() AudioEncoderOptions {
	return AudioEncoderOptions{
		Format:           "mp3",
		EncoderName:      "libmp3lame",
		EncoderArguments: []string{"-q:a", "2"},
	}
}

func withDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// H264Encoder builds libx264 options
type H264Encoder struct {
	Format string // mp4
	Preset string // veryfast
	// CRF is the constant rate factor. 0 selects 23.
	CRF int
	// Lossless encodes with crf 0, CRF is ignored then
	Lossless    bool
	Tune        string
	Profile     string
	PixelFormat string // yuv420p
}

func (e H264Encoder) Create() VideoEncoderOptions {
	crf := e.CRF
	switch {
	case e.Lossless:
		crf = 0
	case crf == 0:
		crf = 23
	}
	args := []string{"-preset", withDefault(e.Preset, "veryfast"), "-crf", strconv.Itoa(crf)}
	if e.Tune != "" {
		args = append(args, "-tune", e.Tune)
	}
	if e.Profile != "" {
		args = append(args, "-profile:v", e.Profile)
	}
	args = append(args, "-pix_fmt", withDefault(e.PixelFormat, "yuv420p"))

	return VideoEncoderOptions{
		Format:           withDefault(e.Format, "mp4"),
		EncoderName:      "libx264",
		EncoderArguments: args,
	}
}

// H265Encoder builds libx265 options
type H265Encoder struct {
	Format string // mp4
	Preset string // veryfast
	// CRF is the constant rate factor. 0 selects 28.
	CRF int
	// Lossless switches x265 to lossless mode, CRF is ignored then
	Lossless    bool
	PixelFormat string // yuv420p
}

func (e H265Encoder) Create() VideoEncoderOptions {
	crf := e.CRF
	if crf == 0 {
		crf = 28
	}
	args := []string{"-preset", withDefault(e.Preset, "veryfast")}
	if e.Lossless {
		args = append(args, "-x265-params", "lossless=1")
	} else {
		args = append(args, "-crf", strconv.Itoa(crf))
	}
	args = append(args, "-tag:v", "hvc1", "-pix_fmt", withDefault(e.PixelFormat, "yuv420p"))

	return VideoEncoderOptions{
		Format:           withDefault(e.Format, "mp4"),
		EncoderName:      "libx265",
		EncoderArguments: args,
	}
}

// VP9Encoder builds libvpx-vp9 options in constant quality mode
type VP9Encoder struct {
	Format string // webm
	// CRF is the constant quality level. 0 selects 31.
	CRF         int
	Deadline    string // good
	PixelFormat string // yuv420p
}

func (e VP9Encoder) Create() VideoEncoderOptions {
	crf := e.CRF
	if crf == 0 {
		crf = 31
	}
	return VideoEncoderOptions{
		Format:      withDefault(e.Format, "webm"),
		EncoderName: "libvpx-vp9",
		EncoderArguments: []string{
			"-crf", strconv.Itoa(crf),
			"-b:v", "0",
			"-deadline", withDefault(e.Deadline, "good"),
			"-row-mt", "1",
			"-pix_fmt", withDefault(e.PixelFormat, "yuv420p"),
		},
	}
}

// MPEG4Encoder builds options for FFmpeg's native MPEG-4 part 2 encoder
type MPEG4Encoder struct {
	Format string // mp4
	// Quality is the -q:v scale from 1 (best) to 31. 0 selects 5.
	Quality int
}

func (e MPEG4Encoder) Create() VideoEncoderOptions {
	q := e.Quality
	if q == 0 {
		q = 5
	}
	return VideoEncoderOptions{
		Format:           withDefault(e.Format, "mp4"),
		EncoderName:      "mpeg4",
		EncoderArguments: []string{"-q:v", strconv.Itoa(q), "-pix_fmt", "yuv420p"},
	}
}

// MP3Encoder builds libmp3lame options. A bitrate selects CBR, otherwise VBR
// quality is used.
type MP3Encoder struct {
	Format  string // mp3
	Bitrate string
	// Quality is the VBR quality from 0 (best) to 9. 0 selects 2.
	Quality int
}

func (e MP3Encoder) Create() AudioEncoderOptions {
	var args []string
	if e.Bitrate != "" {
		args = []string{"-b:a", e.Bitrate}
	} else {
		q := e.Quality
		if q == 0 {
			q = 2
		}
		args = []string{"-q:a", strconv.Itoa(q)}
	}
	return AudioEncoderOptions{
		Format:           withDefault(e.Format, "mp3"),
		EncoderName:      "libmp3lame",
		EncoderArguments: args,
	}
}

// AACEncoder builds options for FFmpeg's native AAC encoder
type AACEncoder struct {
	Format  string // adts
	Bitrate string // 192k
}

func (e AACEncoder) Create() AudioEncoderOptions {
	return AudioEncoderOptions{
		Format:           withDefault(e.Format, "adts"),
		EncoderName:      "aac",
		EncoderArguments: []string{"-b:a", withDefault(e.Bitrate, "192k")},
	}
}

// OpusEncoder builds libopus options
type OpusEncoder struct {
	Format      string // ogg
	Bitrate     string // 128k
	Application string // audio
}

func (e OpusEncoder) Create() AudioEncoderOptions {
	return AudioEncoderOptions{
		Format:      withDefault(e.Format, "ogg"),
		EncoderName: "libopus",
		EncoderArguments: []string{
			"-b:a", withDefault(e.Bitrate, "128k"),
			"-application", withDefault(e.Application, "audio"),
		},
	}
}

// FLACEncoder builds options for FFmpeg's native FLAC encoder
type FLACEncoder struct {
	Format string // flac
	// CompressionLevel from 0 to 12. 0 selects 5.
	CompressionLevel int
}

func (e FLACEncoder) Create() AudioEncoderOptions {
	level := e.CompressionLevel
	if level == 0 {
		level = 5
	}
	return AudioEncoderOptions{
		Format:           withDefault(e.Format, "flac"),
		EncoderName:      "flac",
		EncoderArguments: []string{"-compression_level", strconv.Itoa(level)},
	}
}
