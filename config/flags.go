package config

import (
	"flag"
	"fmt"
)

// Flags 保存命令行参数。只有显式设置的参数才会覆盖配置。
type Flags struct {
	ConfigFilePath string
	Input          string
	Data           string
	Edits          bool

	fs       *flag.FlagSet
	logLevel string
	logFile  string
	norm     string
	normFile string
	scale    float64
	measurer string
	out      string
	debug    string
}

// DefineFlags 在 fs 上注册参数。
func (f *Flags) DefineFlags(fs *flag.FlagSet) {
	f.fs = fs
	fs.StringVar(&f.ConfigFilePath, "config", DefaultConfigFileName, "TOML 配置文件路径")
	fs.StringVar(&f.Input, "in", "examples/thesis.quire", "DSL 文件路径")
	fs.StringVar(&f.Data, "data", "", "绑定到 DSL 的 JSON 数据")
	fs.BoolVar(&f.Edits, "edits", true, "回放 DSL 中的 edits 段")
	fs.StringVar(&f.logLevel, "loglevel", "", "日志级别 (debug, info, warn, error)")
	fs.StringVar(&f.logFile, "logfile", "", "日志文件路径，'-' 表示标准错误")
	fs.StringVar(&f.norm, "norm", "", "内置规范名称")
	fs.StringVar(&f.normFile, "norm-file", "", "TOML 规范文件，优先于 -norm 与 DSL 中的 norm 段")
	fs.Float64Var(&f.scale, "scale", 0, "规范缩放系数")
	fs.StringVar(&f.measurer, "measurer", "", fmt.Sprintf("文本测量后端 (%s, %s, %s)", MeasurerCanvas, MeasurerRaster, MeasurerCells))
	fs.StringVar(&f.out, "out", "", "PDF 输出路径，'-' 表示不输出 PDF")
	fs.StringVar(&f.debug, "debug", "", "布局调试 JSON 输出路径")
}

// Parse 定义并解析参数。
func (f *Flags) Parse(fs *flag.FlagSet, args []string) error {
	f.DefineFlags(fs)
	return fs.Parse(args)
}

// NormSet 报告 -norm 是否被显式设置。
func (f *Flags) NormSet() bool { return f.set("norm") }

// ApplyOverrides 用显式设置的参数覆盖 cfg，然后重新校验。
func (f *Flags) ApplyOverrides(cfg *Config) {
	if f.fs == nil {
		return
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "loglevel":
			cfg.Logger.LogLevel = f.logLevel
		case "logfile":
			cfg.Logger.LogFilePath = f.logFile
		case "norm":
			cfg.Layout.Norm = f.norm
		case "norm-file":
			cfg.Layout.NormFile = f.normFile
		case "scale":
			cfg.Layout.Scale = f.scale
		case "measurer":
			cfg.Layout.Measurer = f.measurer
		case "out":
			cfg.Render.Out = f.out
		case "debug":
			cfg.Render.Debug = f.debug
		}
	})
	cfg.validate()
}

func (f *Flags) set(name string) bool {
	found := false
	if f.fs != nil {
		f.fs.Visit(func(fl *flag.Flag) {
			if fl.Name == name {
				found = true
			}
		})
	}
	return found
}
