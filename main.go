package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/quire/builder"
	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/editor"
	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/logger"
	"github.com/ByLCY/quire/measure"
	"github.com/ByLCY/quire/norm"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain 返回进程退出码。日志文件在返回前关闭，失败信息同时写入日志与标准错误。
func realMain(args []string) int {
	var flags config.Flags
	fs := flag.NewFlagSet("quire", flag.ContinueOnError)
	if err := flags.Parse(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	cfg, err := config.Load(flags.ConfigFilePath)
	if err != nil {
		log.Printf("读取配置失败: %v", err)
		return 1
	}
	flags.ApplyOverrides(cfg)

	closer, err := logger.Setup(cfg.Logger)
	if err != nil {
		log.Printf("初始化日志失败: %v", err)
		return 1
	}
	defer closer.Close()

	fail := func(format string, a ...any) int {
		logger.Errorf(format, a...)
		log.Printf(format, a...)
		return 1
	}

	var inputData any
	if flags.Data != "" {
		if err := json.Unmarshal([]byte(flags.Data), &inputData); err != nil {
			return fail("解析 data JSON 失败: %v", err)
		}
	}

	pages, err := run(cfg, &flags, inputData)
	if err != nil {
		return fail("排版失败: %v", err)
	}
	if cfg.Render.Out != "-" {
		fmt.Printf("已生成 PDF：%s（%d 页）\n", cfg.Render.Out, pages)
	}
	return 0
}

// run 串联解析、构建、首次排版、编辑回放与输出，返回最终页数。
func run(cfg *config.Config, flags *config.Flags, data any) (int, error) {
	file, err := os.Open(flags.Input)
	if err != nil {
		return 0, fmt.Errorf("无法打开 DSL 文件 %s: %w", flags.Input, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return 0, fmt.Errorf("解析 DSL 失败: %w", err)
	}

	opts, err := buildOptions(cfg, flags, doc)
	if err != nil {
		return 0, err
	}
	built, err := builder.Build(doc, data, opts)
	if err != nil {
		return 0, fmt.Errorf("构建文档失败: %w", err)
	}

	reg := fontRegistry(cfg)
	r := canvasrenderer.NewRenderer(built.Resolver, canvasrenderer.Options{Fonts: reg})
	gate, ready := newMeasurer(cfg, reg, r, built.Resolver.Fonts())

	events := editor.NewManager()
	events.Subscribe(editor.TypePaginated, func(e editor.Event) bool {
		d := e.Data.(editor.PaginatedData)
		if d.ScrollTo == nil {
			logger.Infof("分页 (%v): %d 页", d.Triggers, d.Pages)
			return true
		}
		logger.Infof("分页 (%v): %d 页，光标位于第 %d 页", d.Triggers, d.Pages, d.ScrollTo.Page+1)
		return true
	})
	events.Subscribe(editor.TypeMeasurementDeferred, func(e editor.Event) bool {
		d := e.Data.(editor.MeasurementDeferredData)
		logger.Infof("字体加载中，推迟断行 [%d, %d]", d.From, d.To)
		return true
	})

	ed, err := editor.New(built.Document, editor.Options{
		Measurer: gate,
		Styles:   built.Resolver,
		Events:   events,
	})
	if err != nil {
		return 0, fmt.Errorf("首次排版失败: %w", err)
	}
	if err := <-ready; err != nil {
		return 0, fmt.Errorf("加载字体失败: %w", err)
	}
	if ed.Pending() {
		if _, err := ed.Flush(); err != nil {
			return 0, fmt.Errorf("首次排版失败: %w", err)
		}
	}

	if flags.Edits {
		for i, tr := range built.Edits {
			if _, err := ed.Dispatch(tr); err != nil {
				return 0, fmt.Errorf("第 %d 个编辑: %w", i+1, err)
			}
		}
		// 以未结束的输入法组合结尾时补一次断行
		if _, err := ed.Flush(); err != nil {
			return 0, err
		}
	}

	final := ed.Document()
	if cfg.Render.Debug != "" {
		sel := ed.Selection()
		if err := writeDebug(layout.NewDebugDump(final, built.Meta, &sel), cfg.Render.Debug); err != nil {
			return 0, err
		}
	}
	if cfg.Render.Out != "-" {
		if err := writePDF(r, final, built.Meta, cfg.Render.Out); err != nil {
			return 0, err
		}
	}
	return final.PageCount(), nil
}

// buildOptions 决定规范来源：-norm-file 优先，其次是显式的 -norm，
// 再次是 DSL 中的 norm 段，最后是配置中的默认规范。
func buildOptions(cfg *config.Config, flags *config.Flags, doc *dsl.Document) (builder.Options, error) {
	var opts builder.Options
	if cfg.Layout.Scale != 1 {
		opts.Scale = cfg.Layout.Scale
	}
	switch {
	case cfg.Layout.NormFile != "":
		n, err := norm.LoadFile(cfg.Layout.NormFile)
		if err != nil {
			return opts, fmt.Errorf("读取规范文件失败: %w", err)
		}
		opts.Norm = &n
	case flags.NormSet() || !hasNorm(doc):
		n, err := norm.Preset(cfg.Layout.Norm, 1)
		if err != nil {
			return opts, err
		}
		opts.Norm = &n
	}
	return opts, nil
}

func hasNorm(doc *dsl.Document) bool {
	for _, s := range doc.Sections {
		if s.Norm != nil {
			return true
		}
	}
	return false
}

// fontRegistry 在系统字体目录之上注册配置中的字体；键以 " bold" 结尾时注册粗体。
func fontRegistry(cfg *config.Config) *fonts.Registry {
	reg := fonts.NewRegistry()
	for family, path := range cfg.Fonts {
		name, bold := family, false
		if strings.HasSuffix(strings.ToLower(family), " bold") {
			name, bold = strings.TrimSpace(family[:len(family)-len(" bold")]), true
		}
		reg.Register(name, bold, path)
	}
	return reg
}

// newMeasurer 按配置选择测量后端，并在后台预加载字体；加载完成前门控拒绝测量。
func newMeasurer(cfg *config.Config, reg *fonts.Registry, r *canvasrenderer.Renderer, used []layout.Font) (*measure.Gate, <-chan error) {
	var (
		m       layout.Measurer
		preload func() error
	)
	switch cfg.Layout.Measurer {
	case config.MeasurerCells:
		m, preload = measure.NewCells(), func() error { return nil }
	case config.MeasurerRaster:
		raster := measure.NewRaster(reg)
		m, preload = raster, func() error { return raster.Preload(used...) }
	default:
		m, preload = r, func() error {
			for _, f := range used {
				if _, err := r.Measure(" ", f); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if cfg.Layout.CacheSize > 0 {
		m = measure.NewCache(m, cfg.Layout.CacheSize)
	}
	gate := measure.NewGate(m)
	return gate, gate.OpenWhen(preload)
}

func writePDF(r *canvasrenderer.Renderer, doc *layout.Document, meta layout.DocumentMeta, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.Render(doc, meta)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func writeDebug(dump layout.DebugDump, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(dump, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
