// Package config 读取 quire 的 TOML 配置。命令行参数覆盖文件中的值。
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/quire/logger"
)

const (
	DefaultConfigFileName = "quire.toml"
	DefaultNorm           = "abnt"
	DefaultMeasurer       = MeasurerCanvas
)

// 可选的文本测量后端。
const (
	MeasurerCanvas = "canvas" // 与 PDF 渲染共用字体
	MeasurerRaster = "raster" // freetype 栅格步进
	MeasurerCells  = "cells"  // 等宽单元格估算，无需字体
)

// Config 汇总所有配置段。
type Config struct {
	Logger logger.Config `toml:"logger"`
	Layout LayoutConfig  `toml:"layout"`
	// Fonts 把字体族名映射到字体文件，优先于系统字体目录。
	Fonts  map[string]string `toml:"fonts"`
	Render RenderConfig      `toml:"render"`
}

// LayoutConfig 控制规范与测量。
type LayoutConfig struct {
	Norm      string  `toml:"norm"`
	NormFile  string  `toml:"norm_file"`
	Scale     float64 `toml:"scale"`
	Measurer  string  `toml:"measurer"`
	CacheSize int     `toml:"cache_size"`
}

// RenderConfig 控制输出。
type RenderConfig struct {
	Out   string `toml:"out"`
	Debug string `toml:"debug"`
}

// NewDefault 返回默认配置。
func NewDefault() *Config {
	return &Config{
		Logger: logger.Config{LogLevel: "info"},
		Layout: LayoutConfig{
			Norm:      DefaultNorm,
			Scale:     1,
			Measurer:  DefaultMeasurer,
			CacheSize: 4096,
		},
		Fonts:  map[string]string{},
		Render: RenderConfig{Out: "output/document.pdf"},
	}
}

// Load 在默认配置之上读取 path。path 为空或文件不存在时直接返回默认配置。
func Load(path string) (*Config, error) {
	cfg := NewDefault()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debugf("配置文件不存在: %s", path)
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("检查配置文件 %s 失败: %w", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return NewDefault(), fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logger.Warnf("配置文件 %s 中有未识别的键: %v", path, undecoded)
	}
	cfg.validate()
	return cfg, nil
}

// validate 把无效值重置为默认值。
func (c *Config) validate() {
	defaults := NewDefault()
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	if c.Layout.Norm == "" {
		c.Layout.Norm = defaults.Layout.Norm
	}
	if c.Layout.Scale <= 0 {
		c.Layout.Scale = defaults.Layout.Scale
	}
	switch strings.ToLower(c.Layout.Measurer) {
	case MeasurerCanvas, MeasurerRaster, MeasurerCells:
		c.Layout.Measurer = strings.ToLower(c.Layout.Measurer)
	default:
		logger.Warnf("未知的测量后端 %q，使用 %s", c.Layout.Measurer, defaults.Layout.Measurer)
		c.Layout.Measurer = defaults.Layout.Measurer
	}
	if c.Layout.CacheSize < 0 {
		c.Layout.CacheSize = defaults.Layout.CacheSize
	}
	if c.Fonts == nil {
		c.Fonts = map[string]string{}
	}
	if c.Render.Out == "" {
		c.Render.Out = defaults.Render.Out
	}
}
