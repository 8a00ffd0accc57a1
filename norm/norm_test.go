package norm

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/quire/layout"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func compile(t *testing.T, n Norm) *Resolver {
	t.Helper()
	r, err := n.Compile()
	if err != nil {
		t.Fatalf("编译规范失败: %v", err)
	}
	return r
}

func TestABNTGeometryAndStyles(t *testing.T) {
	r := compile(t, ABNT(1))
	g := r.Geometry()
	if want := 16 / 2.54 * 96; !near(g.BodyWidth(), want) {
		t.Fatalf("Body 宽度 %g，期望 %g", g.BodyWidth(), want)
	}
	if want := 24.7 / 2.54 * 96; !near(g.BodyHeight(), want) {
		t.Fatalf("Body 高度 %g，期望 %g", g.BodyHeight(), want)
	}

	p, err := r.Resolve(layout.KindParagraph, 0)
	if err != nil {
		t.Fatalf("解析段落样式失败: %v", err)
	}
	if !near(p.Font.SizePX(), 16) || !near(p.LineHeightPX(), 24) || p.TextAlign != layout.AlignJustify {
		t.Fatalf("段落样式: size=%g lh=%g align=%v", p.Font.SizePX(), p.LineHeightPX(), p.TextAlign)
	}
	if p.Lang.String() != "pt-BR" {
		t.Fatalf("语言 %v", p.Lang)
	}

	title, _ := r.Resolve(layout.KindTitle, 0)
	if title.Transform != layout.TransformUppercase || !title.Font.Bold() {
		t.Fatalf("标题样式: %+v", title)
	}
	cite, _ := r.Resolve(layout.KindCitation, 0)
	if !near(cite.LineHeightPX(), 10.0/72*96) || !near(cite.IndentPX(), 4/2.54*96) {
		t.Fatalf("引文样式: lh=%g indent=%g", cite.LineHeightPX(), cite.IndentPX())
	}
}

func TestScale(t *testing.T) {
	r := compile(t, ABNT(2))
	if want := 32 / 2.54 * 96; !near(r.Geometry().BodyWidth(), want) {
		t.Fatalf("缩放后 Body 宽度 %g，期望 %g", r.Geometry().BodyWidth(), want)
	}
	p, _ := r.Resolve(layout.KindParagraph, 0)
	if !near(p.Font.SizePX(), 32) {
		t.Fatalf("缩放后字号 %g", p.Font.SizePX())
	}
	c, _ := r.Resolve(layout.KindCitation, 0)
	if !near(c.IndentPX(), 8/2.54*96) {
		t.Fatalf("缩放后缩进 %g", c.IndentPX())
	}
}

func TestResolveHeadingVariants(t *testing.T) {
	r := compile(t, Default(1))
	h3, err := r.Resolve(layout.KindHeading, 3)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	h2, err := r.Resolve(layout.KindHeading, 2)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if !near(h3.Font.Size.ToPT(), 12) || !near(h2.Font.Size.ToPT(), 14) {
		t.Fatalf("标题级别: h2=%v h3=%v", h2.Font.Size, h3.Font.Size)
	}
}

func TestResolveMissingStyle(t *testing.T) {
	n := ABNT(1)
	delete(n.Styles, "citation")
	r := compile(t, n)
	if _, err := r.Resolve(layout.KindCitation, 0); !errors.Is(err, layout.ErrStyleNotFound) {
		t.Fatalf("期望 ErrStyleNotFound，实际 %v", err)
	}
}

func TestDecodeOverridesPreset(t *testing.T) {
	src := `
base = "abnt"
name = "abnt-large"

[margins]
left = 2.5

[styles.paragraph.font]
size = 14

[styles."heading.2"]
line_height = "18pt"
text_align = "left"
font = { family = "Times New Roman", weight = "bold", size = 13 }
`
	n, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if n.Name != "abnt-large" || n.Margins.Left != 2.5 || n.Margins.Right != 2 || n.Page.Height != 29.7 {
		t.Fatalf("页面设置: %+v %+v", n.Margins, n.Page)
	}
	p := n.Styles["paragraph"]
	if p.Font.Size != 14 || p.Font.Family != "Times New Roman" || p.LineHeight != "1.5" {
		t.Fatalf("段落样式应只覆盖字号: %+v", p)
	}

	r := compile(t, n)
	h2, _ := r.Resolve(layout.KindHeading, 2)
	if !near(h2.LineHeightPX(), 24) {
		t.Fatalf("heading.2 行高 %g", h2.LineHeightPX())
	}
	if h1, _ := r.Resolve(layout.KindHeading, 1); !near(h1.LineHeightPX(), 24) || h1.TextAlign != layout.AlignLeft {
		t.Fatalf("heading 回退: %+v", h1)
	}
}

func TestDecodeRejectsInvalidNorm(t *testing.T) {
	cases := map[string]string{
		"margins": "[margins]\nleft = 15\nright = 10\n",
		"preset":  "base = \"iso\"\n",
		"syntax":  "[page\n",
	}
	for name, src := range cases {
		if _, err := Decode(strings.NewReader(src)); err == nil {
			t.Fatalf("%s: 应返回错误", name)
		}
	}
	n := Default(1)
	n.Styles["title"] = TextStyle{Font: Font{Size: 0}}
	if _, err := n.Compile(); err == nil {
		t.Fatalf("字号为 0 应编译失败")
	}
}

func TestLoadFileAndEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := ABNT(1).Encode(&buf); err != nil {
		t.Fatalf("写出规范失败: %v", err)
	}
	path := filepath.Join(t.TempDir(), "abnt.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("写文件失败: %v", err)
	}
	n, err := LoadFile(path)
	if err != nil {
		t.Fatalf("读取规范失败: %v", err)
	}
	if n.Name != "abnt" || n.Styles["citation"].Indent != "4cm" || n.Margins.Top != 3 {
		t.Fatalf("读回的规范: %+v", n)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("缺失的文件应返回错误")
	}
}

func TestPreset(t *testing.T) {
	if _, err := Preset("ABNT", 1); err != nil {
		t.Fatalf("预设名应不区分大小写: %v", err)
	}
	if _, err := Preset("iso", 1); err == nil {
		t.Fatalf("未知预设应返回错误")
	}
	if got := strings.Join(Presets(), ","); got != "abnt,default" {
		t.Fatalf("Presets = %s", got)
	}
}

func TestResolverFonts(t *testing.T) {
	r, err := ABNT(1).Compile()
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	fs := r.Fonts()
	// 正文 12pt、粗体 12pt（标题与章节共用）、引文 10pt
	if len(fs) != 3 {
		t.Fatalf("期望 3 种字体，实际 %d: %+v", len(fs), fs)
	}
	for _, f := range fs {
		if f.Family != "Times New Roman" {
			t.Fatalf("意外的字体族 %q", f.Family)
		}
	}
}
