package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/logger"
	"github.com/ByLCY/quire/renderer"
)

// Renderer draws paginated documents via github.com/tdewolff/canvas.
// It also measures text with the same font faces, so line breaks and
// the PDF agree.
type Renderer struct {
	styles   layout.StyleResolver
	fonts    *fonts.Registry
	fallback string
	color    color.Color

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	// Fonts resolves family names to font files. Defaults to the system directories.
	Fonts *fonts.Registry
	// Fallback family used when a style's family cannot be found. Defaults to "sans".
	Fallback string
	// Color of the text, black by default.
	Color color.Color
}

// NewRenderer creates a canvas-based renderer resolving block styles through styles.
func NewRenderer(styles layout.StyleResolver, opts Options) *Renderer {
	r := &Renderer{
		styles:       styles,
		fonts:        opts.Fonts,
		fallback:     opts.Fallback,
		color:        opts.Color,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	if r.fonts == nil {
		r.fonts = fonts.NewRegistry()
	}
	if r.fallback == "" {
		r.fallback = "sans"
	}
	if r.color == nil {
		r.color = canvas.Black
	}
	return r
}

// Measure 实现 layout.Measurer：canvas 以 mm 为单位，这里换算为 px。
// 字体（包括回退字体）都无法加载时返回 layout.ErrMeasurementUnavailable。
func (r *Renderer) Measure(text string, f layout.Font) (float64, error) {
	face, err := r.fontFace(f)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", layout.ErrMeasurementUnavailable, err)
	}
	return face.TextWidth(text) * layout.MmToPx, nil
}

// Render renders every page of doc into a PDF byte slice.
func (r *Renderer) Render(doc *layout.Document, meta layout.DocumentMeta) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := doc.Pages[0].Geometry
	writer := pdf.New(&buf, first.Width.ToMM(), first.Height.ToMM(), nil)
	applyMeta(writer, meta)
	for i, page := range doc.Pages {
		w, h := page.Geometry.Width.ToMM(), page.Geometry.Height.ToMM()
		if i > 0 {
			writer.NewPage(w, h)
		}
		c := canvas.New(w, h)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 按缓存的行信息逐行绘制，行高、缩进与块后间距均与分页计算一致。
func (r *Renderer) drawPage(ctx *canvas.Context, page *layout.Page) error {
	left := page.Geometry.Margin.Left.ToMM()
	cursorY := page.Geometry.Margin.Top.ToMM()
	width := page.Body.Width * layout.PxToMm

	for bi, b := range page.Body.Blocks {
		st, err := r.styles.Resolve(b.Kind, b.Variant)
		if err != nil {
			return fmt.Errorf("第 %d 块: %w", bi, err)
		}
		face, err := r.fontFace(st.Font)
		if err != nil {
			return fmt.Errorf("第 %d 块: %w", bi, err)
		}
		lineHeight := st.LineHeightPX() * layout.PxToMm
		indent := st.IndentPX() * layout.PxToMm
		ascent := face.Metrics().Ascent

		for _, text := range lineTexts(b) {
			text = strings.TrimRight(st.Transform.Apply(text, st.Lang), " ")
			if text != "" {
				x, align := anchor(st.TextAlign, left+indent, width-indent)
				ctx.DrawText(x, cursorY+ascent, canvas.NewTextLine(face, text, align))
			}
			cursorY += lineHeight
		}
		cursorY += st.SpacingPX() * layout.PxToMm
	}
	return nil
}

// lineTexts 按行切分块文本；未测量的块视为一行。
func lineTexts(b *layout.Block) []string {
	r := []rune(b.Text)
	if !b.Measured() {
		return []string{b.Text}
	}
	out := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		end := min(l.End(), len(r))
		start := min(l.Offset, end)
		out = append(out, string(r[start:end]))
	}
	return out
}

// anchor 处理水平对齐：left（默认）/center/right。两端对齐按左对齐绘制。
func anchor(a layout.Align, x, width float64) (float64, canvas.TextAlign) {
	switch a {
	case layout.AlignCenter:
		return x + width/2, canvas.Center
	case layout.AlignRight:
		return x + width, canvas.Right
	default:
		return x, canvas.Left
	}
}

func (r *Renderer) fontFace(f layout.Font) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(f)
	if err != nil {
		return nil, err
	}
	return family.Face(f.Size.ToPT(), r.color, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(f layout.Font) (*canvas.FontFamily, canvas.FontStyle, error) {
	style := parseFontStyle(f.Weight)
	key := fmt.Sprintf("%s|%d", strings.ToLower(f.Family), style)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	family := canvas.NewFontFamily(f.Family)
	if err := r.loadFontIntoFamily(family, f.Family, f.Bold(), style); err != nil {
		logger.Warnf("字体 %s 不可用，使用回退字体 %s: %v", f.Family, r.fallback, err)
		fallback := canvas.NewFontFamily(r.fallback)
		if fbErr := r.loadFontIntoFamily(fallback, r.fallback, f.Bold(), style); fbErr != nil {
			return nil, canvas.FontRegular, errors.Join(err, fbErr)
		}
		family = fallback
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, name string, bold bool, style canvas.FontStyle) error {
	data, err := r.fonts.Load(name, bold)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"), s == "900":
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"), s == "800":
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"), s == "600":
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"), s == "700":
		result = canvas.FontBold
	case strings.Contains(s, "medium"), s == "500":
		result = canvas.FontMedium
	case strings.Contains(s, "light"), s == "300":
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}
