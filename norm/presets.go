package norm

import (
	"fmt"
	"sort"
	"strings"
)

// ABNT 返回巴西 ABNT 学术排版规范：A4 纸，左上 3cm、右下 2cm 边距，
// 正文 Times New Roman 12pt、1.5 倍行距、两端对齐。scale 同时缩放所有尺寸。
func ABNT(scale float64) Norm {
	body := Font{Family: "Times New Roman", Weight: "normal", Size: 12}
	n := Norm{
		Name:    "abnt",
		Lang:    "pt-BR",
		Page:    Page{Width: 21, Height: 29.7},
		Margins: Margins{Left: 3, Right: 2, Top: 3, Bottom: 2},
		Styles: map[string]TextStyle{
			"paragraph": {Font: body, LineHeight: "1.5", TextAlign: "justify", Indent: "0cm"},
			"title": {
				Font:       Font{Family: body.Family, Weight: "bold", Size: 12},
				LineHeight: "1.5",
				TextAlign:  "center",
				Spacing:    1,
				Transform:  "uppercase",
			},
			"heading": {
				Font:       Font{Family: body.Family, Weight: "bold", Size: 12},
				LineHeight: "1.5",
				TextAlign:  "left",
				Spacing:    1,
			},
			"citation": {
				Font:       Font{Family: body.Family, Weight: "normal", Size: 10},
				LineHeight: "1.0",
				TextAlign:  "justify",
				Indent:     "4cm",
			},
		},
	}
	n.Scale = scale
	return n
}

// Default 是一个通用的 A4 规范，2.5cm 边距、11pt 无衬线字体。
func Default(scale float64) Norm {
	body := Font{Family: "Inter", Weight: "normal", Size: 11}
	n := Norm{
		Name:    "default",
		Lang:    "en",
		Page:    Page{Width: 21, Height: 29.7},
		Margins: Margins{Left: 2.5, Right: 2.5, Top: 2.5, Bottom: 2.5},
		Styles: map[string]TextStyle{
			"paragraph": {Font: body, LineHeight: "1.4", TextAlign: "left", Spacing: 0.5},
			"title":     {Font: Font{Family: body.Family, Weight: "bold", Size: 20}, LineHeight: "1.2", TextAlign: "left", Spacing: 1},
			"heading":   {Font: Font{Family: body.Family, Weight: "bold", Size: 14}, LineHeight: "1.3", TextAlign: "left", Spacing: 0.5},
			"heading.3": {Font: Font{Family: body.Family, Weight: "bold", Size: 12}, LineHeight: "1.3", TextAlign: "left", Spacing: 0.5},
			"citation":  {Font: Font{Family: body.Family, Weight: "normal", Size: 10}, LineHeight: "1.2", TextAlign: "left", Indent: "2cm", Spacing: 0.5},
		},
	}
	n.Scale = scale
	return n
}

var presets = map[string]func(float64) Norm{
	"abnt":    ABNT,
	"default": Default,
}

// Preset 按名称返回内置规范。
func Preset(name string, scale float64) (Norm, error) {
	fn, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Norm{}, fmt.Errorf("未知规范 %q（可用: %s）", name, strings.Join(Presets(), ", "))
	}
	return fn(scale), nil
}

// Presets 返回内置规范的名称。
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
