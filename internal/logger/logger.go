// Copyright 2021 NetEase Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger is the client's structured logging surface: a small
// slog-backed Logger, injected into the components that need it (the
// volume data path, mount lifecycle) rather than reached for as a global
// singleton, mirroring the teacher's dependency-injected collaborator
// style. Logging destinations are stderr or a lumberjack-rotated file, in
// text or JSON format.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity level constants, one step finer than slog's builtin levels so
// that a TRACE severity below DEBUG is representable.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(16)
)

// Severity name constants accepted by FileConfig.Severity.
const (
	SeverityTrace = "TRACE"
	SeverityDebug = "DEBUG"
	SeverityInfo  = "INFO"
	SeverityWarn  = "WARNING"
	SeverityError = "ERROR"
	SeverityOff   = "OFF"
)

// RotateConfig configures lumberjack-backed rotation of the log file.
type RotateConfig struct {
	MaxFileSizeMB   int
	BackupFileCount int
	Compress        bool
}

// FileConfig configures where and how a Logger writes.
type FileConfig struct {
	FilePath string
	Severity string
	Format   string // "text" or "json"
	Rotate   RotateConfig
}

// Logger is a small leveled, structured logger. The zero value is not
// usable; construct one with New or Default.
type Logger struct {
	slog *slog.Logger
	lv   *slog.LevelVar
	file *lumberjack.Logger
}

// Default returns a Logger writing JSON at INFO to stderr, suitable before
// a mount's configuration has been parsed.
func Default() *Logger {
	lv := new(slog.LevelVar)
	lv.Set(LevelInfo)
	return &Logger{slog: slog.New(newHandler(os.Stderr, lv, "json")), lv: lv}
}

// New returns a Logger configured per cfg: a lumberjack-rotated file if
// FilePath is set, otherwise stderr.
func New(cfg FileConfig) *Logger {
	format := cfg.Format
	if format == "" {
		format = "json"
	}
	lv := new(slog.LevelVar)
	setLoggingLevel(cfg.Severity, lv)

	var w io.Writer = os.Stderr
	var lj *lumberjack.Logger
	if cfg.FilePath != "" {
		lj = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.Rotate.MaxFileSizeMB, 100),
			MaxBackups: cfg.Rotate.BackupFileCount,
			Compress:   cfg.Rotate.Compress,
		}
		w = lj
	}
	return &Logger{slog: slog.New(newHandler(w, lv, format)), lv: lv, file: lj}
}

// SetLevel adjusts the logger's minimum severity in place.
func (l *Logger) SetLevel(severity string) { setLoggingLevel(severity, l.lv) }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func setLoggingLevel(severity string, lv *slog.LevelVar) {
	switch severity {
	case SeverityTrace:
		lv.Set(LevelTrace)
	case SeverityDebug:
		lv.Set(LevelDebug)
	case SeverityInfo:
		lv.Set(LevelInfo)
	case SeverityWarn:
		lv.Set(LevelWarn)
	case SeverityError:
		lv.Set(LevelError)
	case SeverityOff:
		lv.Set(LevelOff)
	default:
		lv.Set(LevelInfo)
	}
}

func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level slog.Level, format string, args ...any) {
	l.slog.Log(context.Background(), level, fmt.Sprintf(format, args...))
}
