// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package logger

import (
	elog "github.com/eluv-io/log-go"
)

// Logger provides a structured logging interface. Fields are alternating
// key/value pairs.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// Config for the global log-go backend
type Config struct {
	Level   string
	Handler string
	File    string
}

// Setup configures the log-go default logger. An empty file logs to stdout.
func Setup(c Config) {
	cfg := &elog.Config{
		Level:   c.Level,
		Handler: c.Handler,
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Handler == "" {
		cfg.Handler = "text"
	}
	if c.File != "" {
		cfg.File = &elog.LumberjackConfig{
			Filename:  c.File,
			LocalTime: true,
		}
	}
	elog.SetDefault(cfg)
}

type elogLogger struct {
	log    *elog.Log
	fields []interface{}
}

// New returns a logger named /mediapipe/<name>
func New(name string) Logger {
	path := "/mediapipe"
	if name != "" {
		path += "/" + name
	}
	return &elogLogger{log: elog.Get(path)}
}

func (l *elogLogger) Info(msg string, fields ...interface{}) {
	l.log.Info(msg, l.merge(fields)...)
}

func (l *elogLogger) Error(msg string, fields ...interface{}) {
	l.log.Error(msg, l.merge(fields)...)
}

func (l *elogLogger) Debug(msg string, fields ...interface{}) {
	l.log.Debug(msg, l.merge(fields)...)
}

func (l *elogLogger) With(fields ...interface{}) Logger {
	return &elogLogger{log: l.log, fields: l.merge(fields)}
}

func (l *elogLogger) merge(fields []interface{}) []interface{} {
	if len(l.fields) == 0 {
		return fields
	}
	out := make([]interface{}, 0, len(l.fields)+len(fields))
	out = append(out, l.fields...)
	return append(out, fields...)
}

// Nop returns a logger that discards everything
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...interface{})  {}
func (nopLogger) Error(msg string, fields ...interface{}) {}
func (nopLogger) Debug(msg string, fields ...interface{}) {}
func (nopLogger) With(fields ...interface{}) Logger       { return nopLogger{} }
