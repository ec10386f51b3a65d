// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package parse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"size=      24kB time=00:00:01.51 bitrate= 130.2kbits/s speed=45.3x", 1.51, true},
		{"frame=  120 fps=0.0 q=28.0 size=     256kB time=00:01:02.5 bitrate=N/A", 62.5, true},
		{"frame=    1 fps=0.0 q=0.0 size=       0kB time=01:00:00 bitrate=N/A", 3600, true},
		{"out_time_us=1500000", 1.5, true},
		{"out_time_ms=250000", 0.25, true},
		{"size=N/A time=N/A bitrate=N/A speed=N/A", 0, false},
		{"Stream #0:0: Audio: vorbis, 44100 Hz, stereo, fltp", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseTime(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParserProgress(t *testing.T) {
	p := New(Config{LogLines: 10})

	assert.Zero(t, p.Parse("Input #0, ogg, from 'in.ogg':"))
	assert.NotZero(t, p.Parse("frame=  240 fps=120 q=-1.0 size=    1024kB time=00:00:08.00 bitrate=1048.6kbits/s dup=2 drop=3 speed=4.01x"))

	prog := p.Progress()
	assert.Equal(t, uint64(240), prog.Frame)
	assert.Equal(t, uint64(1024*1024), prog.Size)
	assert.InDelta(t, 8.0, prog.Time, 1e-9)
	assert.InDelta(t, 4.01, prog.Speed, 1e-9)
	assert.InDelta(t, -1.0, prog.Quantizer, 1e-9)
	assert.Equal(t, uint64(2), prog.Dup)
	assert.Equal(t, uint64(3), prog.Drop)

	p.ResetStats()
	assert.Equal(t, Progress{}, p.Progress())
}

func TestParserLogRing(t *testing.T) {
	p := New(Config{LogLines: 3})
	for i := 0; i < 5; i++ {
		p.Parse(fmt.Sprintf("line %d", i))
	}

	lines := p.Log()
	require.Len(t, lines, 3)
	assert.Equal(t, "line 2", lines[0].Data)
	assert.Equal(t, "line 4", lines[2].Data)

	p.ResetLog()
	assert.Empty(t, p.Log())
}
