// Package logger 基于 zerolog 构造结构化日志器。
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options 日志选项
type Options struct {
	Level  string    // trace|debug|info|warn|error
	Format string    // console|json
	Output io.Writer // 默认 stderr
}

// New 创建日志器。进度与诊断信息写到 stderr，最终汇总由命令自己打印到 stdout
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component 返回带 component 字段的子日志器
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
