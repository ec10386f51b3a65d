// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

// Package ffmpeg spawns FFmpeg and FFprobe processes with redirected pipes
// and exposes their progress and metadata reports.
package ffmpeg

import (
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/eluv-io/errors-go"

	"github.com/ZSC714725/mediapipe/ffmpeg/parse"
	"github.com/ZSC714725/mediapipe/ffmpeg/skills"
	"github.com/ZSC714725/mediapipe/internal/logger"
	"github.com/ZSC714725/mediapipe/internal/process"
)

// Logger is the structured logger used for process diagnostics
type Logger = logger.Logger

// LogLine is a timestamped stderr line of a process
type LogLine = process.Line

// FFmpeg spawns processes of one FFmpeg/FFprobe installation
type FFmpeg interface {
	// ExecuteCommand starts ffmpeg with args. Standard output is discarded and
	// standard error is parsed for progress.
	ExecuteCommand(args []string) (*Process, error)
	// Open starts ffmpeg with both standard input and output redirected.
	Open(args []string) (p *Process, stdin io.WriteCloser, stdout io.ReadCloser, err error)
	// OpenInput starts ffmpeg with only standard input redirected. The output
	// is written by ffmpeg itself.
	OpenInput(args []string) (*Process, io.WriteCloser, error)
	// OpenOutput starts ffmpeg with standard output redirected. If src is not
	// nil it is copied into standard input in the background.
	OpenOutput(args []string, src io.Reader) (*Process, io.ReadCloser, error)
	// Probe runs ffprobe against input, or against src when src is not nil.
	// Whatever ffprobe consumed of src is gone; src is not read anymore
	// once Probe returns without ctx being done.
	Probe(ctx context.Context, input string, src io.Reader) (*ProbeResult, error)

	NewParser() parse.Parser
	ValidateInput(address string) bool
	ValidateOutput(address string) bool
	Binary() string
	ProbeBinary() string
	Skills() (skills.Skills, error)
	ReloadSkills() error
}

// Config for FFmpeg
type Config struct {
	Binary          string
	ProbeBinary     string
	MaxLogLines     int
	ValidatorInput  Validator
	ValidatorOutput Validator
	Logger          Logger
	// Verbose logs the stderr output of every process at debug level.
	Verbose bool
}

// Process is a running FFmpeg or FFprobe process
type Process struct {
	*process.Handle
	parser parse.Parser
}

// Progress returns the latest progress parsed from stderr
func (p *Process) Progress() parse.Progress {
	return p.parser.Progress()
}

// Log returns the most recent stderr lines
func (p *Process) Log() []LogLine {
	return p.parser.Log()
}

type ffmpeg struct {
	binary       string
	probeBinary  string
	validatorIn  Validator
	validatorOut Validator
	logLines     int
	logger       Logger
	verbose      bool

	skills     *skills.Skills
	skillsLock sync.Mutex
}

// New resolves the FFmpeg and FFprobe binaries and returns an FFmpeg. Empty
// binary names default to "ffmpeg" and "ffprobe".
func New(config Config) (FFmpeg, error) {
	e := errors.Template("ffmpeg.New", errors.K.IO)

	if config.Binary == "" {
		config.Binary = "ffmpeg"
	}
	if config.ProbeBinary == "" {
		config.ProbeBinary = "ffprobe"
	}

	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, e(ErrProcessSpawn, "binary", config.Binary, "error", err)
	}
	probeBinary, err := exec.LookPath(config.ProbeBinary)
	if err != nil {
		return nil, e(ErrProcessSpawn, "binary", config.ProbeBinary, "error", err)
	}

	f := &ffmpeg{
		binary:      binary,
		probeBinary: probeBinary,
		logLines:    config.MaxLogLines,
		logger:      config.Logger,
		verbose:     config.Verbose,
	}

	if f.logLines <= 0 {
		f.logLines = 100
	}
	if f.logger == nil {
		f.logger = logger.New("ffmpeg")
	}

	if config.ValidatorInput != nil {
		f.validatorIn = config.ValidatorInput
	} else {
		f.validatorIn, _ = NewValidator(nil, nil)
	}
	if config.ValidatorOutput != nil {
		f.validatorOut = config.ValidatorOutput
	} else {
		f.validatorOut, _ = NewValidator(nil, nil)
	}

	return f, nil
}

type startConfig struct {
	binary    string
	args      []string
	stdin     bool
	stdinFrom io.Reader
	stdout    bool
}

func (f *ffmpeg) start(c startConfig) (*Process, error) {
	parser := f.NewParser()
	h, err := process.Start(process.Config{
		Binary:    c.binary,
		Args:      c.args,
		Stdin:     c.stdin,
		StdinFrom: c.stdinFrom,
		Stdout:    c.stdout,
		Parser:    parser,
		Logger:    f.logger,
		Verbose:   f.verbose,
	})
	if err != nil {
		return nil, err
	}
	return &Process{Handle: h, parser: parser}, nil
}

func (f *ffmpeg) ExecuteCommand(args []string) (*Process, error) {
	return f.start(startConfig{binary: f.binary, args: args})
}

func (f *ffmpeg) Open(args []string) (*Process, io.WriteCloser, io.ReadCloser, error) {
	p, err := f.start(startConfig{binary: f.binary, args: args, stdin: true, stdout: true})
	if err != nil {
		return nil, nil, nil, err
	}
	return p, p.Stdin(), p.Stdout(), nil
}

func (f *ffmpeg) OpenInput(args []string) (*Process, io.WriteCloser, error) {
	p, err := f.start(startConfig{binary: f.binary, args: args, stdin: true})
	if err != nil {
		return nil, nil, err
	}
	return p, p.Stdin(), nil
}

func (f *ffmpeg) OpenOutput(args []string, src io.Reader) (*Process, io.ReadCloser, error) {
	p, err := f.start(startConfig{binary: f.binary, args: args, stdinFrom: src, stdout: true})
	if err != nil {
		return nil, nil, err
	}
	return p, p.Stdout(), nil
}

func (f *ffmpeg) NewParser() parse.Parser {
	return parse.New(parse.Config{LogLines: f.logLines})
}

func (f *ffmpeg) ValidateInput(address string) bool {
	return f.validatorIn.IsValid(address)
}

func (f *ffmpeg) ValidateOutput(address string) bool {
	return f.validatorOut.IsValid(address)
}

func (f *ffmpeg) Binary() string {
	return f.binary
}

func (f *ffmpeg) ProbeBinary() string {
	return f.probeBinary
}

// Skills detects the capabilities on first use and caches them
func (f *ffmpeg) Skills() (skills.Skills, error) {
	f.skillsLock.Lock()
	defer f.skillsLock.Unlock()

	if f.skills == nil {
		s, err := skills.New(f.binary)
		if err != nil {
			return skills.Skills{}, errors.E("ffmpeg.Skills", errors.K.IO, err)
		}
		f.skills = &s
	}
	return *f.skills, nil
}

func (f *ffmpeg) ReloadSkills() error {
	s, err := skills.New(f.binary)
	if err != nil {
		return errors.E("ffmpeg.ReloadSkills", errors.K.IO, err)
	}
	f.skillsLock.Lock()
	f.skills = &s
	f.skillsLock.Unlock()
	return nil
}
