// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"math"
	"strconv"
	"strings"

	"github.com/ZSC714725/mediapipe/ffmpeg"
)

// Stream kinds as reported by ffprobe
const (
	StreamVideo = "video"
	StreamAudio = "audio"
)

// StreamInfo describes one stream of a source
type StreamInfo struct {
	Index         int               `json:"index"`
	CodecType     string            `json:"codec_type"`
	Codec         string            `json:"codec"`
	CodecLongName string            `json:"codec_long_name,omitempty"`
	Profile       string            `json:"profile,omitempty"`
	Width         int               `json:"width,omitempty"`
	Height        int               `json:"height,omitempty"`
	PixelFormat   string            `json:"pixel_format,omitempty"`
	FrameRate     float64           `json:"frame_rate,omitempty"`
	AvgFrameRate  float64           `json:"avg_frame_rate,omitempty"`
	FrameCount    int64             `json:"frame_count,omitempty"`
	SampleRate    int               `json:"sample_rate,omitempty"`
	SampleFormat  string            `json:"sample_format,omitempty"`
	Channels      int               `json:"channels,omitempty"`
	ChannelLayout string            `json:"channel_layout,omitempty"`
	BitsPerSample int               `json:"bits_per_sample,omitempty"`
	Duration      float64           `json:"duration,omitempty"`
	BitRate       int64             `json:"bit_rate,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// FormatInfo describes the container of a source
type FormatInfo struct {
	Filename       string            `json:"filename,omitempty"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name,omitempty"`
	StreamCount    int               `json:"stream_count"`
	Duration       float64           `json:"duration"`
	Size           int64             `json:"size,omitempty"`
	BitRate        int64             `json:"bit_rate,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// Metadata is a snapshot of a probed source. The stream specific fields are
// taken from its primary stream, the first one of the kind the reader
// decodes. A Metadata is never changed after creation and must not be
// modified by callers.
type Metadata struct {
	Duration            float64      `json:"duration"`
	BitRate             int64        `json:"bit_rate,omitempty"`
	Codec               string       `json:"codec,omitempty"`
	Width               int          `json:"width,omitempty"`
	Height              int          `json:"height,omitempty"`
	FrameRate           float64      `json:"frame_rate,omitempty"`
	AvgFrameRate        float64      `json:"avg_frame_rate,omitempty"`
	PredictedFrameCount int64        `json:"predicted_frame_count,omitempty"`
	PixelFormat         string       `json:"pixel_format,omitempty"`
	Channels            int          `json:"channels,omitempty"`
	SampleRate          int          `json:"sample_rate,omitempty"`
	SampleFormat        string       `json:"sample_format,omitempty"`
	Streams             []StreamInfo `json:"streams"`
	Format              FormatInfo   `json:"format"`
}

// NewMetadata builds Metadata from an ffprobe report. kind selects the
// primary stream; with an empty kind the first video stream is used, or the
// first audio stream if there is no video.
func NewMetadata(res *ffmpeg.ProbeResult, kind string) *Metadata {
	m := &Metadata{}
	if res == nil {
		return m
	}

	m.Format = FormatInfo{
		Filename:       res.Format.Filename,
		FormatName:     res.Format.FormatName,
		FormatLongName: res.Format.FormatLongName,
		StreamCount:    res.Format.NbStreams,
		Duration:       parseFloat(res.Format.Duration),
		Size:           parseInt(res.Format.Size),
		BitRate:        parseInt(res.Format.BitRate),
		Tags:           res.Format.Tags,
	}
	if m.Format.StreamCount == 0 {
		m.Format.StreamCount = len(res.Streams)
	}

	m.Streams = make([]StreamInfo, 0, len(res.Streams))
	for _, s := range res.Streams {
		m.Streams = append(m.Streams, StreamInfo{
			Index:         s.Index,
			CodecType:     s.CodecType,
			Codec:         s.CodecName,
			CodecLongName: s.CodecLongName,
			Profile:       s.Profile,
			Width:         s.Width,
			Height:        s.Height,
			PixelFormat:   s.PixFmt,
			FrameRate:     parseRate(s.RFrameRate),
			AvgFrameRate:  parseRate(s.AvgFrameRate),
			FrameCount:    parseInt(s.NbFrames),
			SampleRate:    int(parseInt(s.SampleRate)),
			SampleFormat:  s.SampleFmt,
			Channels:      s.Channels,
			ChannelLayout: s.ChannelLayout,
			BitsPerSample: s.BitsPerSample,
			Duration:      parseFloat(s.Duration),
			BitRate:       parseInt(s.BitRate),
			Tags:          s.Tags,
		})
	}

	m.Duration = m.Format.Duration
	m.BitRate = m.Format.BitRate

	primary := m.stream(kind)
	if kind == "" && primary == nil {
		primary = m.stream(StreamAudio)
	}
	if primary == nil {
		return m
	}

	if m.Duration == 0 {
		m.Duration = primary.Duration
	}
	if m.BitRate == 0 {
		m.BitRate = primary.BitRate
	}
	m.Codec = primary.Codec

	switch primary.CodecType {
	case StreamVideo:
		m.Width = primary.Width
		m.Height = primary.Height
		m.PixelFormat = primary.PixelFormat
		m.FrameRate = primary.FrameRate
		m.AvgFrameRate = primary.AvgFrameRate
		m.PredictedFrameCount = primary.FrameCount
		if m.PredictedFrameCount == 0 {
			rate := m.AvgFrameRate
			if rate == 0 {
				rate = m.FrameRate
			}
			m.PredictedFrameCount = int64(math.Round(m.Duration * rate))
		}
	case StreamAudio:
		m.Channels = primary.Channels
		m.SampleRate = primary.SampleRate
		m.SampleFormat = primary.SampleFormat
	}

	return m
}

func (m *Metadata) stream(kind string) *StreamInfo {
	if kind == "" {
		kind = StreamVideo
	}
	for i := range m.Streams {
		if m.Streams[i].CodecType == kind {
			return &m.Streams[i]
		}
	}
	return nil
}

// HasStream reports whether the source has a stream of kind
func (m *Metadata) HasStream(kind string) bool {
	for _, s := range m.Streams {
		if s.CodecType == kind {
			return true
		}
	}
	return false
}

// parseRate parses ffprobe rationals like "30000/1001". "0/0" yields 0.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return i
}
