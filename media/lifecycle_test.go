// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/mediapipe/ffmpeg"
	"github.com/ZSC714725/mediapipe/internal/logger"
)

func TestReaderConstructors(t *testing.T) {
	_, err := NewVideoReader("")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewVideoReaderFromStream(nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewAudioReader("")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewAudioReaderFromStream(nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewAudioReader("in.wav", WithBitDepth(8))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	r, err := NewAudioReader("in.wav", WithBitDepth(24))
	require.NoError(t, err)
	assert.Equal(t, 24, r.BitDepth())
	assert.Equal(t, "in.wav", r.Path())
	assert.Nil(t, r.Metadata())
}

func TestReaderLifecycle(t *testing.T) {
	ctx := context.Background()

	r, err := NewVideoReader("in.mp4", WithLogger(logger.Nop()))
	require.NoError(t, err)

	err = r.Load(ctx)
	assert.True(t, errors.Is(err, ErrInvalidState), "load before metadata")

	_, err = r.NextFrame()
	assert.True(t, errors.Is(err, ErrInvalidState))

	_, err = r.ReadFrame(nil)
	assert.True(t, errors.Is(err, ErrInvalidState))

	err = r.CopyTo(ctx, io.Discard)
	assert.True(t, errors.Is(err, ErrInvalidState))

	err = r.CopyTo(ctx, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())

	err = r.LoadMetadata(ctx)
	assert.True(t, errors.Is(err, ErrInvalidState), "metadata after close")
	err = r.Load(ctx)
	assert.True(t, errors.Is(err, ErrInvalidState), "load after close")
}

func TestReaderMissingStream(t *testing.T) {
	r, err := NewVideoReader("in.wav")
	require.NoError(t, err)

	// an audio only source
	r.metadata = NewMetadata(parseReport(t, `{
		"streams": [{"index": 0, "codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "8000", "channels": 1}],
		"format": {"format_name": "wav", "duration": "1.0"}
	}`), StreamVideo)

	err = r.Load(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidInput))

	a, err := NewAudioReader("in.mp4")
	require.NoError(t, err)
	a.metadata = NewMetadata(parseReport(t, `{
		"streams": [{"index": 0, "codec_name": "h264", "codec_type": "video", "width": 16, "height": 16}],
		"format": {"format_name": "mp4", "duration": "1.0"}
	}`), StreamAudio)

	err = a.Load(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestWriterConstructors(t *testing.T) {
	_, err := NewVideoWriter("", 16, 16, 25, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewVideoWriterToStream(nil, 16, 16, 25, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewVideoWriter("out.mp4", 0, 16, 25, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewVideoWriter("out.mp4", 16, -2, 25, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewVideoWriter("out.mp4", 16, 16, 0, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewAudioWriter("", 2, 44100, 16, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewAudioWriterToStream(nil, 2, 44100, 16, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewAudioWriter("out.mp3", 0, 44100, 16, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewAudioWriter("out.mp3", 2, 0, 16, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewAudioWriter("out.mp3", 2, 44100, 12, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	w, err := NewVideoWriter("out.mp4", 16, 8, 29.97, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultVideoEncoderOptions(), w.EncoderOptions())
	assert.Equal(t, 29.97, w.FrameRate())

	a, err := NewAudioWriter("out.ogg", 2, 48000, 16, &AudioEncoderOptions{EncoderName: "libopus"})
	require.NoError(t, err)
	assert.Equal(t, "mp3", a.EncoderOptions().Format)
	assert.Equal(t, "libopus", a.EncoderOptions().EncoderName)
}

func TestWriterLifecycle(t *testing.T) {
	w, err := NewAudioWriterToStream(&bytes.Buffer{}, 2, 44100, 16, nil)
	require.NoError(t, err)

	_, err = w.Write([]byte{0, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrInvalidState), "write before open")

	f, err := NewAudioFrame(16, 2, 16)
	require.NoError(t, err)
	err = w.WriteFrame(f)
	assert.True(t, errors.Is(err, ErrInvalidState))

	mono, err := NewAudioFrame(16, 1, 16)
	require.NoError(t, err)
	err = w.WriteFrame(mono)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	err = w.CloseWrite()
	assert.True(t, errors.Is(err, ErrInvalidState), "close before open")

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.False(t, w.IsOpen())

	v, err := NewVideoWriter("out.mp4", 4, 4, 25, nil)
	require.NoError(t, err)
	small, err := NewVideoFrame(2, 2)
	require.NoError(t, err)
	err = v.WriteFrame(small)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestWriterMissingBinary(t *testing.T) {
	w, err := NewAudioWriter("out.mp3", 2, 44100, 16, nil,
		WithBinaries("/nonexistent/ffmpeg", "/nonexistent/ffprobe"))
	require.NoError(t, err)

	err = w.OpenWrite(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProcessSpawn))
	assert.False(t, w.IsOpen())
	assert.NoError(t, w.Close())

	r, err := NewAudioReader("in.wav", WithBinaries("/nonexistent/ffmpeg", ""))
	require.NoError(t, err)
	err = r.LoadMetadata(context.Background())
	assert.True(t, errors.Is(err, ErrProcessSpawn))
}

func TestEncoderPresets(t *testing.T) {
	h264 := H264Encoder{}.Create()
	assert.Equal(t, "mp4", h264.Format)
	assert.Equal(t, "libx264", h264.EncoderName)
	assert.Equal(t, []string{"-preset", "veryfast", "-crf", "23", "-pix_fmt", "yuv420p"}, h264.EncoderArguments)

	h264 = H264Encoder{Format: "flv", CRF: 18, Tune: "film"}.Create()
	assert.Equal(t, "flv", h264.Format)
	assert.Contains(t, h264.EncoderArguments, "film")
	assert.Contains(t, h264.EncoderArguments, "18")

	h264 = H264Encoder{CRF: 30, Lossless: true}.Create()
	assert.Equal(t, []string{"-preset", "veryfast", "-crf", "0", "-pix_fmt", "yuv420p"}, h264.EncoderArguments)

	assert.Equal(t, "libx265", H265Encoder{}.Create().EncoderName)
	h265 := H265Encoder{Lossless: true}.Create()
	assert.Contains(t, h265.EncoderArguments, "lossless=1")
	assert.NotContains(t, h265.EncoderArguments, "-crf")
	assert.Equal(t, "webm", VP9Encoder{}.Create().Format)
	assert.Equal(t, "mpeg4", MPEG4Encoder{}.Create().EncoderName)

	mp3 := MP3Encoder{Bitrate: "320k"}.Create()
	assert.Equal(t, []string{"-b:a", "320k"}, mp3.EncoderArguments)
	assert.Equal(t, []string{"-q:a", "2"}, MP3Encoder{}.Create().EncoderArguments)

	aac := AACEncoder{Format: "flv"}.Create()
	assert.Equal(t, "flv", aac.Format)
	assert.Equal(t, "aac", aac.EncoderName)

	assert.Equal(t, "libopus", OpusEncoder{}.Create().EncoderName)
	assert.Equal(t, "flac", FLACEncoder{}.Create().Format)
}

// cancelledProbe blocks every probe until its context is done
type cancelledProbe struct {
	ffmpeg.FFmpeg
	calls int
}

func (f *cancelledProbe) Probe(ctx context.Context, _ string, _ io.Reader) (*ffmpeg.ProbeResult, error) {
	f.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStreamReaderUnusableAfterCancelledProbe(t *testing.T) {
	src, _ := io.Pipe()
	ff := &cancelledProbe{}

	r, err := NewAudioReaderFromStream(src, WithFFmpeg(ff))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, r.LoadMetadata(ctx))

	err = r.LoadMetadata(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, 1, ff.calls)

	err = r.Load(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidState))
	require.NoError(t, r.Close())
}
