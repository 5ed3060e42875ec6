package logx

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultLevel      = "info"
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
)

// Options 描述 logger 的输出目标。
//
// - Console：人类可读输出（通常是 stderr；nil 表示不输出到终端）
// - File：非空时额外写一份 JSON 日志，由 lumberjack 负责滚动
type Options struct {
	Level      string
	Console    io.Writer
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New 按 Options 构造 *zap.Logger。
// 两个目标都没有时返回 zap.NewNop()，调用方无需判空。
func New(opts Options) (*zap.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	cores := make([]zapcore.Core, 0, 2)

	if opts.Console != nil {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(zapcore.AddSync(opts.Console)),
			lvl,
		))
	}

	if f := strings.TrimSpace(opts.File); f != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = DefaultMaxSizeMB
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = DefaultMaxBackups
		}
		rotator := &lumberjack.Logger{
			Filename:   f,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator),
			lvl,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

// Stderr 是 CLI 的默认构造：只输出到 stderr。
func Stderr(level string) (*zap.Logger, error) {
	return New(Options{Level: level, Console: os.Stderr})
}

// ParseLevel 解析日志级别；空串视为 DefaultLevel。
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		s = DefaultLevel
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return lvl, fmt.Errorf("日志级别无效：%q", s)
	}
	return lvl, nil
}
