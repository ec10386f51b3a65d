// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package api

import (
	"github.com/ZSC714725/mediapipe/ffmpeg/skills"
)

// SkillsEntry is one encoder or format
type SkillsEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SkillsLibrary is a linked av library
type SkillsLibrary struct {
	Name     string `json:"name"`
	Compiled string `json:"compiled"`
	Linked   string `json:"linked"`
}

// SkillsResponse for API
type SkillsResponse struct {
	FFmpeg struct {
		Version       string          `json:"version"`
		Configuration string          `json:"configuration"`
		Libraries     []SkillsLibrary `json:"libraries"`
	} `json:"ffmpeg"`

	Encoders struct {
		Audio []SkillsEntry `json:"audio"`
		Video []SkillsEntry `json:"video"`
	} `json:"encoders"`

	Formats struct {
		Demuxers []SkillsEntry `json:"demuxers"`
		Muxers   []SkillsEntry `json:"muxers"`
	} `json:"formats"`
}

func skillsToAPI(s skills.Skills) SkillsResponse {
	resp := SkillsResponse{}

	resp.FFmpeg.Version = s.FFmpeg.Version
	resp.FFmpeg.Configuration = s.FFmpeg.Configuration
	resp.FFmpeg.Libraries = make([]SkillsLibrary, len(s.FFmpeg.Libraries))
	for i, lib := range s.FFmpeg.Libraries {
		resp.FFmpeg.Libraries[i] = SkillsLibrary{Name: lib.Name, Compiled: lib.Compiled, Linked: lib.Linked}
	}

	resp.Encoders.Audio = encodersToAPI(s.Encoders.Audio)
	resp.Encoders.Video = encodersToAPI(s.Encoders.Video)
	resp.Formats.Demuxers = formatsToAPI(s.Formats.Demuxers)
	resp.Formats.Muxers = formatsToAPI(s.Formats.Muxers)

	return resp
}

func encodersToAPI(list []skills.Encoder) []SkillsEntry {
	out := make([]SkillsEntry, len(list))
	for i, e := range list {
		out[i] = SkillsEntry{ID: e.Id, Name: e.Name}
	}
	return out
}

func formatsToAPI(list []skills.Format) []SkillsEntry {
	out := make([]SkillsEntry, len(list))
	for i, f := range list {
		out[i] = SkillsEntry{ID: f.Id, Name: f.Name}
	}
	return out
}
