// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaPipe - FFmpeg 音视频管道读写库

package ffmpeg

import (
	"regexp"
	"strings"

	"github.com/eluv-io/errors-go"
)

// Validator validates if an address (file path or URL) is eligible as input
// or output for FFmpeg
type Validator interface {
	IsValid(address string) bool
}

type validator struct {
	allow []*regexp.Regexp
	block []*regexp.Regexp
}

// NewValidator creates a new Validator. Empty expressions are ignored. An
// address is valid if it matches no block expression and, when allow
// expressions are given, at least one of them.
func NewValidator(allow, block []string) (Validator, error) {
	v := &validator{}

	var err error
	if v.allow, err = compileAll("allow", allow); err != nil {
		return nil, err
	}
	if v.block, err = compileAll("block", block); err != nil {
		return nil, err
	}

	return v, nil
}

func compileAll(kind string, exps []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, exp := range exps {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, errors.E("ffmpeg.NewValidator", errors.K.Invalid, ErrInvalidInput,
				"reason", "invalid "+kind+" expression",
				"expression", exp,
				"error", err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (v *validator) IsValid(address string) bool {
	for _, e := range v.block {
		if e.MatchString(address) {
			return false
		}
	}
	if len(v.allow) == 0 {
		return true
	}
	for _, e := range v.allow {
		if e.MatchString(address) {
			return true
		}
	}
	return false
}
