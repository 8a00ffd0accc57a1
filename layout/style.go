package layout

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind 是块级节点的类型。取值封闭，样式解析与断行都基于显式的 switch。
type Kind int

const (
	KindParagraph Kind = iota
	KindTitle
	KindHeading
	KindCitation
)

var kindNames = map[Kind]string{
	KindParagraph: "paragraph",
	KindTitle:     "title",
	KindHeading:   "heading",
	KindCitation:  "citation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// TextBearing 报告该类型是否承载文本并参与断行。
func (k Kind) TextBearing() bool {
	switch k {
	case KindParagraph, KindTitle, KindHeading, KindCitation:
		return true
	default:
		return false
	}
}

// MarshalText 让 Kind 在调试 JSON 中以名称输出。
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ParseKind 将名称（paragraph/p、title、heading/h、citation/quote）映射为 Kind。
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "paragraph", "p":
		return KindParagraph, nil
	case "title":
		return KindTitle, nil
	case "heading", "h":
		return KindHeading, nil
	case "citation", "quote":
		return KindCitation, nil
	default:
		return 0, fmt.Errorf("%w: 未知块类型 %q", ErrStyleNotFound, name)
	}
}

// Font 描述测量与渲染所需的字体。Size 通常以 pt 给出。
type Font struct {
	Family string `json:"family"`
	Weight string `json:"weight"`
	Size   Length `json:"size"`
}

// SizePX 返回字号的像素值（pt/72*96）。
func (f Font) SizePX() float64 { return f.Size.ToPX() }

// Key 用作字体缓存键。
func (f Font) Key() string {
	return fmt.Sprintf("%s|%s|%g", f.Family, strings.ToLower(f.Weight), f.SizePX())
}

// Bold 报告字重是否为粗体（bold 或数值 >= 600）。
func (f Font) Bold() bool {
	w := strings.ToLower(strings.TrimSpace(f.Weight))
	switch w {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

// Align 为文本水平对齐方式。
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
	AlignJustify
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return "left"
	}
}

func (a Align) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseAlign 解析对齐方式，start/end 分别映射为 left/right，未知值回退为 left。
func ParseAlign(v string) Align {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center":
		return AlignCenter
	case "right", "end":
		return AlignRight
	case "justify", "justified":
		return AlignJustify
	default:
		return AlignLeft
	}
}

// Transform 对应 CSS text-transform。
type Transform int

const (
	TransformNone Transform = iota
	TransformUppercase
	TransformLowercase
	TransformCapitalize
)

func (t Transform) String() string {
	switch t {
	case TransformUppercase:
		return "uppercase"
	case TransformLowercase:
		return "lowercase"
	case TransformCapitalize:
		return "capitalize"
	default:
		return "none"
	}
}

func (t Transform) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseTransform 解析 text-transform，未知值回退为 none。
func ParseTransform(v string) Transform {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "uppercase", "upper":
		return TransformUppercase
	case "lowercase", "lower":
		return TransformLowercase
	case "capitalize", "title":
		return TransformCapitalize
	default:
		return TransformNone
	}
}

// Apply 按语言规则变换文本。仅用于测量与绘制，偏移量始终指向原文。
func (t Transform) Apply(text string, lang language.Tag) string {
	switch t {
	case TransformUppercase:
		return cases.Upper(lang).String(text)
	case TransformLowercase:
		return cases.Lower(lang).String(text)
	case TransformCapitalize:
		return cases.Title(lang, cases.NoLower).String(text)
	default:
		return text
	}
}

// Style 是某一块类型解析后的排版参数，不可变。
type Style struct {
	Font       Font           `json:"font"`
	LineHeight LineHeightSpec `json:"lineHeight"`
	TextAlign  Align          `json:"textAlign"`
	// Spacing 为块后间距，以行高的倍数表示。
	Spacing   float64      `json:"spacing"`
	Indent    Length       `json:"indent"`
	Transform Transform    `json:"transform"`
	Lang      language.Tag `json:"-"`
}

// LineHeightPX 返回单行高度（px）。
func (s Style) LineHeightPX() float64 { return s.LineHeight.Resolve(s.Font.Size, UnitPX) }

// SpacingPX 返回块后间距（px）。
func (s Style) SpacingPX() float64 { return s.Spacing * s.LineHeightPX() }

// IndentPX 返回左缩进（px）。
func (s Style) IndentPX() float64 { return s.Indent.ToPX() }

// BlockHeight 计算一个有 lines 行的块占用的高度：lineHeight × lines + spacing × lineHeight。
func (s Style) BlockHeight(lines int) float64 {
	return s.LinesHeight(lines) + s.SpacingPX()
}

// LinesHeight 返回 lines 行文本的高度，不含块后间距。
func (s Style) LinesHeight(lines int) float64 {
	return s.LineHeightPX() * float64(max(lines, 1))
}

// StyleResolver 将块类型（及标题级别等变体）映射为样式；未知类型返回 ErrStyleNotFound。
type StyleResolver interface {
	Resolve(kind Kind, variant int) (Style, error)
}

// Margin 为页面四边距。
type Margin struct {
	Top    Length `json:"top"`
	Right  Length `json:"right"`
	Bottom Length `json:"bottom"`
	Left   Length `json:"left"`
}

// PageGeometry 描述页面的物理尺寸与页边距，由外部规范提供。
type PageGeometry struct {
	Width  Length `json:"width"`
	Height Length `json:"height"`
	Margin Margin `json:"margin"`
}

// BodyWidth 返回内容区宽度（px）。
func (g PageGeometry) BodyWidth() float64 {
	return g.Width.ToPX() - g.Margin.Left.ToPX() - g.Margin.Right.ToPX()
}

// BodyHeight 返回内容区高度（px）。
func (g PageGeometry) BodyHeight() float64 {
	return g.Height.ToPX() - g.Margin.Top.ToPX() - g.Margin.Bottom.ToPX()
}
