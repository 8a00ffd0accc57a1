// Package norm 描述排版规范：页面尺寸、页边距以及各类块的文本样式。
// 规范可以来自内置预设（ABNT、default），也可以从 TOML 文件读取。
package norm

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/quire/logger"
)

// Font 对应规范中的字体设置，Size 以 pt 为单位。
type Font struct {
	Family string  `toml:"family"`
	Weight string  `toml:"weight"`
	Size   float64 `toml:"size"`
}

// TextStyle 是某类块的文本样式。长度字段接受带单位的字符串（"4cm"、"18pt"），
// LineHeight 接受倍数（"1.5"）或绝对长度。
type TextStyle struct {
	Font       Font    `toml:"font"`
	LineHeight string  `toml:"line_height"`
	TextAlign  string  `toml:"text_align"`
	Spacing    float64 `toml:"spacing"`
	Indent     string  `toml:"indent"`
	Transform  string  `toml:"transform,omitempty"`
}

// Page 为页面尺寸（cm）。
type Page struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Margins 为页边距（cm）。
type Margins struct {
	Left   float64 `toml:"left"`
	Right  float64 `toml:"right"`
	Top    float64 `toml:"top"`
	Bottom float64 `toml:"bottom"`
}

// Norm 是一套完整的排版规范。Styles 的键为块类型名，标题级别可用
// "heading.2" 这样的键单独覆盖。
type Norm struct {
	Name    string               `toml:"name"`
	Lang    string               `toml:"lang"`
	// Scale 同时缩放页面、边距、字号与缩进，<= 0 视为 1。
	Scale   float64              `toml:"scale"`
	Page    Page                 `toml:"page"`
	Margins Margins              `toml:"margins"`
	Styles  map[string]TextStyle `toml:"styles"`
}

// file 是 TOML 规范文件的结构。样式以 Primitive 延迟解码，
// 以便只覆盖文件中出现的字段。
type file struct {
	Base    string                    `toml:"base"`
	Name    string                    `toml:"name"`
	Lang    string                    `toml:"lang"`
	Scale   float64                   `toml:"scale"`
	Page    Page                      `toml:"page"`
	Margins Margins                   `toml:"margins"`
	Styles  map[string]toml.Primitive `toml:"styles"`
}

// Decode 从 TOML 读取规范。文件中的 base 指定作为起点的预设（默认为 default），
// 文件只需写出与预设不同的字段。
func Decode(r io.Reader) (Norm, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Norm{}, fmt.Errorf("读取规范失败: %w", err)
	}
	var head struct {
		Base string `toml:"base"`
	}
	if _, err := toml.Decode(string(data), &head); err != nil {
		return Norm{}, fmt.Errorf("解析规范失败: %w", err)
	}
	if head.Base == "" {
		head.Base = "default"
	}
	base, err := Preset(head.Base, 1)
	if err != nil {
		return Norm{}, err
	}

	n := base.clone()
	f := file{Name: n.Name, Lang: n.Lang, Scale: n.Scale, Page: n.Page, Margins: n.Margins}
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return Norm{}, fmt.Errorf("解析规范失败: %w", err)
	}
	n.Name, n.Lang, n.Scale, n.Page, n.Margins = f.Name, f.Lang, f.Scale, f.Page, f.Margins
	for key, prim := range f.Styles {
		st := n.Styles[key]
		if err := md.PrimitiveDecode(prim, &st); err != nil {
			return Norm{}, fmt.Errorf("解析样式 %s 失败: %w", key, err)
		}
		n.Styles[key] = st
	}
	for _, key := range md.Undecoded() {
		logger.Warnf("规范中的未知字段: %s", key.String())
	}
	return n, n.validate()
}

// LoadFile 读取 TOML 规范文件。
func LoadFile(path string) (Norm, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Norm{}, fmt.Errorf("读取规范文件失败: %w", err)
	}
	defer fh.Close()
	n, err := Decode(fh)
	if err != nil {
		return Norm{}, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Encode 以 TOML 写出规范，便于以预设为模板编写自定义规范。
func (n Norm) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(n)
}

func (n Norm) clone() Norm {
	c := n
	c.Styles = make(map[string]TextStyle, len(n.Styles))
	for k, v := range n.Styles {
		c.Styles[k] = v
	}
	return c
}

func (n Norm) validate() error {
	if n.Page.Width <= 0 || n.Page.Height <= 0 {
		return fmt.Errorf("页面尺寸无效: %gx%gcm", n.Page.Width, n.Page.Height)
	}
	if n.Page.Width-n.Margins.Left-n.Margins.Right <= 0 || n.Page.Height-n.Margins.Top-n.Margins.Bottom <= 0 {
		return fmt.Errorf("页边距超出页面: %+v", n.Margins)
	}
	if _, ok := n.Styles["paragraph"]; !ok {
		return fmt.Errorf("规范 %q 缺少 paragraph 样式", n.Name)
	}
	return nil
}
