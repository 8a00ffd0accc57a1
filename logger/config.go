package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config 是日志配置，通常来自配置文件的 [logger] 段。
type Config struct {
	// LogLevel 为最低输出级别：debug、info、warn、error。
	LogLevel string `toml:"log_level"`
	// LogFilePath 为日志文件路径，空或 "-" 表示 stderr。
	LogFilePath string `toml:"log_file"`
	// DisabledPackages 中列出的包（目录名，如 layout、editor）不输出日志。
	DisabledPackages []string `toml:"disabled_packages"`

	level    slog.Level
	disabled map[string]struct{}
}

// NewConfig 返回默认配置。
func NewConfig() Config {
	return Config{LogLevel: "info"}
}

// Level 解析配置中的日志级别，未知值回退为 info。
func (c *Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) process() {
	c.level = c.Level()
	c.disabled = nil
	for _, p := range c.DisabledPackages {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if c.disabled == nil {
			c.disabled = make(map[string]struct{})
		}
		c.disabled[p] = struct{}{}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup 按配置打开输出并初始化全局日志。返回的 Closer 需要在退出前关闭。
func Setup(cfg Config) (io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if path := strings.TrimSpace(cfg.LogFilePath); path != "" && path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		out, closer = f, f
	}
	InitWithConfig(cfg.Level(), out, &cfg)
	return closer, nil
}

// filteringHandler 按来源包过滤记录。
type filteringHandler struct {
	base slog.Handler
	cfg  *Config
}

func newFilteringHandler(base slog.Handler, cfg *Config) *filteringHandler {
	return &filteringHandler{base: base, cfg: cfg}
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.cfg.disabled) > 0 && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		pkg := strings.ToLower(filepath.Base(filepath.Dir(frame.File)))
		if _, off := h.cfg.disabled[pkg]; off {
			return nil
		}
	}
	return h.base.Handle(ctx, r)
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newFilteringHandler(h.base.WithAttrs(attrs), h.cfg)
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return newFilteringHandler(h.base.WithGroup(name), h.cfg)
}
