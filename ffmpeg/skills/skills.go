// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

// Package skills detects which encoders and container formats an FFmpeg
// binary supports.
package skills

import (
	"bufio"
	"bytes"
	"os/exec"
	"regexp"
	"strings"

	"github.com/eluv-io/errors-go"
)

// Encoder is an encoder listed by `ffmpeg -encoders`
type Encoder struct {
	Id   string
	Name string
}

// Format is a container format listed by `ffmpeg -formats`
type Format struct {
	Id   string
	Name string
}

// Library is a linked av library
type Library struct {
	Name     string
	Compiled string
	Linked   string
}

// Info describes the FFmpeg build
type Info struct {
	Version       string
	Configuration string
	Libraries     []Library
}

// Skills are the detected capabilities of FFmpeg
type Skills struct {
	FFmpeg   Info
	Encoders struct {
		Audio []Encoder
		Video []Encoder
	}
	Formats struct {
		Demuxers []Format
		Muxers   []Format
	}
}

// New returns all skills that FFmpeg provides
func New(binary string) (Skills, error) {
	e := errors.Template("skills.New", errors.K.IO, "binary", binary)
	s := Skills{}

	data, err := run(binary, "-version")
	if err != nil {
		return Skills{}, e(ErrDetect, "reason", "can't run ffmpeg", "error", err)
	}
	s.FFmpeg = parseVersion(data)
	if s.FFmpeg.Version == "" {
		return Skills{}, e(ErrDetect, "reason", "can't parse ffmpeg version")
	}

	if data, err := run(binary, "-hide_banner", "-encoders"); err == nil {
		s.Encoders.Audio, s.Encoders.Video = parseEncoders(data)
	}
	if data, err := run(binary, "-hide_banner", "-formats"); err == nil {
		s.Formats.Demuxers, s.Formats.Muxers = parseFormats(data)
	}

	return s, nil
}

// HasEncoder reports whether an audio or video encoder with id exists
func (s Skills) HasEncoder(id string) bool {
	for _, list := range [][]Encoder{s.Encoders.Audio, s.Encoders.Video} {
		for _, e := range list {
			if e.Id == id {
				return true
			}
		}
	}
	return false
}

// HasMuxer reports whether the container format id can be written
func (s Skills) HasMuxer(id string) bool {
	for _, f := range s.Formats.Muxers {
		if f.Id == id {
			return true
		}
	}
	return false
}

func run(binary string, args ...string) ([]byte, error) {
	cmd := exec.Command(binary, args...)
	return cmd.Output()
}

var (
	reVersion       = regexp.MustCompile(`^ffmpeg version (?:n)?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reVersionAny    = regexp.MustCompile(`^ffmpeg version (\S+)`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)
	reEncoder       = regexp.MustCompile(`^\s([VAS])[F.][S.][X.][B.][D.] ([0-9A-Za-z_\-]+)\s+(.*)$`)
	reFormat        = regexp.MustCompile(`^\s([D ])([E ])[d ]?\s+([0-9A-Za-z_,]+)\s+(.*?)$`)
)

func parseVersion(data []byte) Info {
	f := Info{}
	if m := reVersion.FindSubmatch(data); m != nil {
		f.Version = string(m[1])
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	} else if m := reVersionAny.FindSubmatch(data); m != nil {
		// git builds, e.g. "N-113012-g8b9a2f1c"
		f.Version = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		f.Configuration = string(m[1])
	}
	for _, m := range reLibrary.FindAllSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     string(m[1]),
			Compiled: string(m[2]),
			Linked:   string(m[3]),
		})
	}
	return f
}

func parseEncoders(data []byte) (audio, video []Encoder) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reEncoder.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		e := Encoder{Id: m[2], Name: strings.TrimSpace(m[3])}
		switch m[1] {
		case "A":
			audio = append(audio, e)
		case "V":
			video = append(video, e)
		}
	}
	return audio, video
}

func parseFormats(data []byte) (demuxers, muxers []Format) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reFormat.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		name := m[4]
		for _, id := range strings.Split(m[3], ",") {
			format := Format{Id: id, Name: name}
			if m[1] == "D" {
				demuxers = append(demuxers, format)
			}
			if m[2] == "E" {
				muxers = append(muxers, format)
			}
		}
	}
	return demuxers, muxers
}
