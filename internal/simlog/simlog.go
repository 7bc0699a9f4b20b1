// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package simlog provides the structured logger used for operator-facing
// diagnostics: parameter clamps, unknown-mode recovery, and end-of-run
// summaries. Per-event trace logging stays on the cheap standard-library
// log path (see the root-level logf helper in the teacher's log.go) since
// it runs on the simulator's hot path and shouldn't pay for structured
// fields when disabled.
package simlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger and adds this project's diagnostic
// helpers.
type Logger struct {
	*zap.SugaredLogger
}

// New returns a Logger writing human-readable output to stderr.
func New() *Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(os.Stderr), zapcore.InfoLevel)
	return &Logger{zap.New(core).Sugar()}
}

// Discard returns a Logger that drops everything, for use in tests.
func Discard() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// ParamClamped reports that an invalid configuration parameter was clamped
// into range rather than left to corrupt controller state (spec: "Invalid
// parameter" error kind).
func (l *Logger) ParamClamped(name string, got, used any) {
	l.Warnw("parameter out of range, clamped", "param", name, "value", got, "used", used)
}

// UnknownMode reports that the controller observed a mode it doesn't
// recognize and is recovering by forcing DRAIN (spec: "State corruption"
// error kind).
func (l *Logger) UnknownMode(mode any) {
	l.Errorw("unknown controller mode, forcing drain", "mode", mode)
}
