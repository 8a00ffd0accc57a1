package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/quire/logger"
)

func TestRealMainWritesErrorToLogFile(t *testing.T) {
	t.Cleanup(func() { logger.Init(slog.LevelInfo, nil) })
	dir := t.TempDir()
	logPath := filepath.Join(dir, "quire.log")

	code := realMain([]string{
		"-config", filepath.Join(dir, "absent.toml"),
		"-logfile", logPath,
		"-in", filepath.Join(dir, "missing.quire"),
		"-out", "-",
	})
	if code != 1 {
		t.Fatalf("期望退出码 1，实际 %d", code)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("读取日志失败: %v", err)
	}
	if !strings.Contains(string(data), "无法打开 DSL 文件") {
		t.Fatalf("日志中缺少失败原因:\n%s", data)
	}
}

func TestRealMainRejectsUnknownFlag(t *testing.T) {
	if code := realMain([]string{"-no-such-flag"}); code != 2 {
		t.Fatalf("期望退出码 2，实际 %d", code)
	}
}
