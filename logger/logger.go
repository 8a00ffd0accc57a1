// Package logger 是基于 log/slog 的全局日志封装，提供 printf 风格的分级函数。
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

var (
	mu            sync.RWMutex
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	logLevel      = new(slog.LevelVar)
)

// Init 以给定级别与输出重新配置全局日志。output 为 nil 时丢弃所有日志。
func Init(level slog.Level, output io.Writer) {
	InitWithConfig(level, output, nil)
}

// InitWithConfig 与 Init 相同，但会按 cfg 中的包过滤规则丢弃记录。
func InitWithConfig(level slog.Level, output io.Writer, cfg *Config) {
	if output == nil {
		output = io.Discard
	}
	logLevel.Set(level)
	opts := slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok && source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.TimeOnly))
			}
			return a
		},
	}
	var handler slog.Handler = slog.NewTextHandler(output, &opts)
	if cfg != nil {
		cfg.process()
		handler = newFilteringHandler(handler, cfg)
	}

	mu.Lock()
	defaultLogger = slog.New(handler)
	mu.Unlock()
}

// SetLevel 在运行时调整日志级别。
func SetLevel(level slog.Level) { logLevel.Set(level) }

// logAtLevel 记录一条日志，并把来源定位到 Debugf 等包装函数的调用方。
func logAtLevel(level slog.Level, format string, args ...any) {
	l := Get()
	if !l.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	// 跳过 runtime.Callers、logAtLevel 与包装函数自身
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, fmt.Sprintf(format, args...), pcs[0])
	_ = l.Handler().Handle(context.Background(), r)
}

// Debugf 输出调试日志。
func Debugf(format string, args ...any) { logAtLevel(slog.LevelDebug, format, args...) }

// Infof 输出普通日志。
func Infof(format string, args ...any) { logAtLevel(slog.LevelInfo, format, args...) }

// Warnf 输出警告日志。
func Warnf(format string, args ...any) { logAtLevel(slog.LevelWarn, format, args...) }

// Errorf 输出错误日志。
func Errorf(format string, args ...any) { logAtLevel(slog.LevelError, format, args...) }

// Get 返回当前配置的 logger。
func Get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}
