// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path      string       `yaml:"path"`
	ProbePath string       `yaml:"probe_path"`
	LogLines  int          `yaml:"log_lines"`
	Access    AccessConfig `yaml:"access"`
}

// AccessConfig 输入输出地址的白名单/黑名单
type AccessConfig struct {
	Input  AccessRules `yaml:"input"`
	Output AccessRules `yaml:"output"`
}

// AccessRules 正则表达式列表
type AccessRules struct {
	Allow []string `yaml:"allow"`
	Block []string `yaml:"block"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string `yaml:"level"`
	Handler string `yaml:"handler"`
	File    string `yaml:"file"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":8080"},
		FFmpeg: FFmpegConfig{Path: "ffmpeg", ProbePath: "ffprobe", LogLines: 100},
		Log:    LogConfig{Level: "info", Handler: "text"},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 填充空值
	def := Default()
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = def.Server.Bind
	}
	if cfg.FFmpeg.Path == "" {
		cfg.FFmpeg.Path = def.FFmpeg.Path
	}
	if cfg.FFmpeg.ProbePath == "" {
		cfg.FFmpeg.ProbePath = def.FFmpeg.ProbePath
	}
	if cfg.FFmpeg.LogLines <= 0 {
		cfg.FFmpeg.LogLines = def.FFmpeg.LogLines
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Handler == "" {
		cfg.Log.Handler = def.Log.Handler
	}

	return cfg, nil
}
