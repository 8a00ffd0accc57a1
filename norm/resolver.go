package norm

import (
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/language"

	"github.com/ByLCY/quire/layout"
)

// Resolver 是编译后的规范，实现 layout.StyleResolver。
type Resolver struct {
	name     string
	geometry layout.PageGeometry
	styles   map[string]layout.Style
}

// Compile 解析规范中的长度与枚举值，得到可供排版引擎使用的样式表。
func (n Norm) Compile() (*Resolver, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	scale := n.Scale
	if scale <= 0 {
		scale = 1
	}
	lang := language.Und
	if n.Lang != "" {
		tag, err := language.Parse(n.Lang)
		if err != nil {
			return nil, fmt.Errorf("规范 %q 的语言 %q 无效: %w", n.Name, n.Lang, err)
		}
		lang = tag
	}

	r := &Resolver{
		name: n.Name,
		geometry: layout.PageGeometry{
			Width:  layout.Cm(n.Page.Width * scale),
			Height: layout.Cm(n.Page.Height * scale),
			Margin: layout.Margin{
				Top:    layout.Cm(n.Margins.Top * scale),
				Right:  layout.Cm(n.Margins.Right * scale),
				Bottom: layout.Cm(n.Margins.Bottom * scale),
				Left:   layout.Cm(n.Margins.Left * scale),
			},
		},
		styles: make(map[string]layout.Style, len(n.Styles)),
	}
	for key, ts := range n.Styles {
		st, err := ts.compile(scale, lang)
		if err != nil {
			return nil, fmt.Errorf("样式 %s: %w", key, err)
		}
		r.styles[key] = st
	}
	return r, nil
}

func (ts TextStyle) compile(scale float64, lang language.Tag) (layout.Style, error) {
	if ts.Font.Size <= 0 {
		return layout.Style{}, fmt.Errorf("字号必须为正数: %g", ts.Font.Size)
	}
	lh := layout.Factor(1.2)
	if ts.LineHeight != "" {
		spec, err := layout.ParseLineHeight(ts.LineHeight)
		if err != nil {
			return layout.Style{}, err
		}
		if spec.Kind == layout.LineHeightAbsolute {
			spec.Len = spec.Len.Scale(scale)
		}
		lh = spec
	}
	indent, err := layout.ParseRawLengthStr(ts.Indent)
	if err != nil {
		return layout.Style{}, err
	}
	if indent.Unit == layout.UnitNone {
		indent.Unit = layout.UnitCM
	}
	if ts.Spacing < 0 {
		return layout.Style{}, fmt.Errorf("间距不能为负: %g", ts.Spacing)
	}
	return layout.Style{
		Font: layout.Font{
			Family: ts.Font.Family,
			Weight: ts.Font.Weight,
			Size:   layout.Pt(ts.Font.Size * scale),
		},
		LineHeight: lh,
		TextAlign:  layout.ParseAlign(ts.TextAlign),
		Spacing:    ts.Spacing,
		Indent:     indent.Scale(scale),
		Transform:  layout.ParseTransform(ts.Transform),
		Lang:       lang,
	}, nil
}

// Name 返回规范名称。
func (r *Resolver) Name() string { return r.name }

// Geometry 返回页面尺寸与边距。
func (r *Resolver) Geometry() layout.PageGeometry { return r.geometry }

// Resolve 返回块类型对应的样式。标题先查找 "heading.<级别>"，再回退到 "heading"；
// 缺少样式时返回 layout.ErrStyleNotFound。
func (r *Resolver) Resolve(kind layout.Kind, variant int) (layout.Style, error) {
	name := kind.String()
	if variant > 0 {
		if st, ok := r.styles[name+"."+strconv.Itoa(variant)]; ok {
			return st, nil
		}
	}
	if st, ok := r.styles[name]; ok {
		return st, nil
	}
	return layout.Style{}, fmt.Errorf("%w: 规范 %q 没有 %s 样式", layout.ErrStyleNotFound, r.name, name)
}

// Styles 返回已编译的样式键。
func (r *Resolver) Styles() []string {
	keys := make([]string, 0, len(r.styles))
	for k := range r.styles {
		keys = append(keys, k)
	}
	return keys
}

// Fonts 返回所有样式用到的字体（去重），用于预加载。
func (r *Resolver) Fonts() []layout.Font {
	seen := map[string]bool{}
	var out []layout.Font
	for _, k := range r.Styles() {
		f := r.styles[k].Font
		if seen[f.Key()] {
			continue
		}
		seen[f.Key()] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
