package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelWarn, &buf)
	defer Init(slog.LevelInfo, nil)

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info 日志不应输出: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Fatalf("缺少 warn 日志: %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Fatalf("来源应指向调用方文件: %q", out)
	}
}

func TestDisabledPackages(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "debug", DisabledPackages: []string{"logger"}}
	InitWithConfig(cfg.Level(), &buf, &cfg)
	defer Init(slog.LevelInfo, nil)

	Debugf("from logger package")
	if buf.Len() != 0 {
		t.Fatalf("被禁用的包不应输出日志: %q", buf.String())
	}
}

func TestConfigLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"err":     slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		c := Config{LogLevel: in}
		if got := c.Level(); got != want {
			t.Fatalf("Level(%q) = %v, want %v", in, got, want)
		}
	}
}
