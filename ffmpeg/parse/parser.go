// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

// Package parse extracts progress information from FFmpeg's stderr output.
package parse

import (
	"container/ring"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/mediapipe/internal/process"
)

// Progress holds FFmpeg progress info parsed from stderr
type Progress struct {
	Frame     uint64  `json:"frame"`
	Size      uint64  `json:"size_bytes"`
	Time      float64 `json:"time_seconds"`
	Speed     float64 `json:"speed"`
	Drop      uint64  `json:"drop"`
	Dup       uint64  `json:"dup"`
	Quantizer float64 `json:"q"`
}

var (
	reFrame     = regexp.MustCompile(`frame=\s*([0-9]+)`)
	reQuantizer = regexp.MustCompile(`q=\s*(-?[0-9\.]+)`)
	reSize      = regexp.MustCompile(`size=\s*([0-9]+)(?:kB|KiB)`)
	reSizeBytes = regexp.MustCompile(`total_size=\s*([0-9]+)`)
	reTime      = regexp.MustCompile(`(?:^|\s)time=\s*([0-9]+):([0-9]{2}):([0-9]{2})(?:\.([0-9]+))?`)
	reTimeUs    = regexp.MustCompile(`out_time_(?:ms|us)=\s*([0-9]+)`) // -progress 输出, 单位实为微秒
	reSpeed     = regexp.MustCompile(`speed=\s*([0-9\.]+)x`)
	reDrop      = regexp.MustCompile(`drop=\s*([0-9]+)|drop_frames=\s*([0-9]+)`)
	reDup       = regexp.MustCompile(`dup=\s*([0-9]+)|dup_frames=\s*([0-9]+)`)
)

// ParseTime extracts the current position in seconds from a stats line such
// as "size=  24kB time=00:00:01.23 bitrate=..." or a -progress line
// "out_time_us=1230000". ok is false when the line carries no time.
func ParseTime(line string) (seconds float64, ok bool) {
	if m := reTime.FindStringSubmatch(line); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		frac := 0.0
		if len(m[4]) > 0 {
			if x, err := strconv.ParseUint(m[4], 10, 64); err == nil {
				div := 1.0
				for range m[4] {
					div *= 10
				}
				frac = float64(x) / div
			}
		}
		return float64(h*3600+mm*60+s) + frac, true
	}
	if m := reTimeUs.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			return float64(x) / 1000000.0, true
		}
	}
	return 0, false
}

// IsProgressLine reports whether line is an FFmpeg stats line
func IsProgressLine(line string) bool {
	return strings.Contains(line, "time=") || strings.Contains(line, "out_time")
}

// Parser implements process.Parser and parses FFmpeg stderr
type Parser interface {
	process.Parser
	Progress() Progress
	Log() []process.Line
	ResetStats()
	ResetLog()
}

type parser struct {
	log      *ring.Ring
	logLines int
	logStart time.Time

	progress Progress
	lock     sync.RWMutex
}

// Config for the parser
type Config struct {
	LogLines int
}

// New creates a Parser
func New(config Config) Parser {
	p := &parser{
		logLines: config.LogLines,
	}
	if p.logLines <= 0 {
		p.logLines = 100
	}
	p.log = ring.New(p.logLines)
	p.logStart = time.Now()
	return p
}

func (p *parser) Parse(line string) uint64 {
	now := time.Now()

	p.lock.Lock()
	defer p.lock.Unlock()

	// progress 行也计入日志，便于查看 frame/speed 等信息
	p.log.Value = process.Line{Timestamp: now, Data: line}
	p.log = p.log.Next()

	if !IsProgressLine(line) {
		return 0
	}

	if m := reFrame.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Frame = x
		}
	}
	if m := reQuantizer.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Quantizer = x
		}
	}
	if m := reSize.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Size = x * 1024
		}
	}
	if m := reSizeBytes.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Size = x
		}
	}
	if t, ok := ParseTime(line); ok {
		p.progress.Time = t
	}
	if m := reSpeed.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Speed = x
		}
	}
	if x, ok := firstUint(reDrop.FindStringSubmatch(line)); ok {
		p.progress.Drop = x
	}
	if x, ok := firstUint(reDup.FindStringSubmatch(line)); ok {
		p.progress.Dup = x
	}

	return 1
}

func firstUint(m []string) (uint64, bool) {
	for i := 1; i < len(m); i++ {
		if m[i] == "" {
			continue
		}
		if x, err := strconv.ParseUint(m[i], 10, 64); err == nil {
			return x, true
		}
	}
	return 0, false
}

func (p *parser) ResetStats() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.progress = Progress{}
}

func (p *parser) ResetLog() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.log = ring.New(p.logLines)
	p.logStart = time.Now()
}

func (p *parser) Log() []process.Line {
	var out []process.Line
	p.lock.RLock()
	p.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	p.lock.RUnlock()
	return out
}

func (p *parser) Progress() Progress {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.progress
}
