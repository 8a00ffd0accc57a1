package layout

import (
	"errors"
	"fmt"

	"github.com/ByLCY/quire/logger"
)

// EngineOptions 配置排版引擎所需的外部依赖。
type EngineOptions struct {
	Measurer Measurer
	Styles   StyleResolver
}

// Engine 负责断行与分页。它本身不持有文档状态，可被多个编辑器共享。
type Engine struct {
	measurer Measurer
	styles   StyleResolver
}

// NewEngine 创建排版引擎。
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Measurer == nil {
		return nil, errors.New("layout: 未配置文本测量器")
	}
	if opts.Styles == nil {
		return nil, errors.New("layout: 未配置样式解析器")
	}
	return &Engine{measurer: opts.Measurer, styles: opts.Styles}, nil
}

// Style 解析块的样式。
func (e *Engine) Style(b *Block) (Style, error) {
	st, err := e.styles.Resolve(b.Kind, b.Variant)
	if err != nil {
		return Style{}, fmt.Errorf("%s/%d: %w", b.Kind, b.Variant, err)
	}
	return st, nil
}

// Lines 计算块在给定 Body 宽度下的行，可用宽度为 bodyWidth 减去缩进。
func (e *Engine) Lines(b *Block, bodyWidth float64) ([]LineSpan, error) {
	st, err := e.Style(b)
	if err != nil {
		return nil, err
	}
	return BreakLines(b.Text, st, bodyWidth-st.IndentPX(), e.measurer)
}

// Measure 返回带有最新行信息的块副本。
func (e *Engine) Measure(b *Block, bodyWidth float64) (*Block, error) {
	lines, err := e.Lines(b, bodyWidth)
	if err != nil {
		return nil, err
	}
	return b.WithLines(lines), nil
}

// NodeHeight 返回块在页面中占用的高度（含块后间距）。
func (e *Engine) NodeHeight(b *Block) (float64, error) {
	st, err := e.Style(b)
	if err != nil {
		return 0, err
	}
	return st.BlockHeight(b.LineCount()), nil
}

// MeasureRange 重新断行所有文本区间与 [from, to] 相交的块，返回新文档以及
// 行信息发生变化的块位置（以新文档坐标表示）。
func (e *Engine) MeasureRange(doc *Document, from, to int) (*Document, []Location, error) {
	if from > to {
		from, to = to, from
	}
	type target struct {
		loc   Location
		block *Block
		width float64
	}
	var targets []target
	doc.EachBlock(func(page, block int, b *Block, textStart int) bool {
		if textStart > to {
			return false
		}
		if textStart+b.Len() >= from && b.Kind.TextBearing() {
			targets = append(targets, target{
				loc:   Location{Page: page, Block: block},
				block: b,
				width: doc.Pages[page].Body.Width,
			})
		}
		return true
	})

	out := doc
	var changed []Location
	for _, t := range targets {
		lines, err := e.Lines(t.block, t.width)
		if err != nil {
			return nil, nil, fmt.Errorf("测量第 %d 页第 %d 块: %w", t.loc.Page, t.loc.Block, err)
		}
		if sameLines(t.block.Lines, lines) {
			continue
		}
		out = out.WithBlock(t.loc.Page, t.loc.Block, t.block.WithLines(lines))
		changed = append(changed, t.loc)
	}
	return out, changed, nil
}

// MeasureAll 重新断行文档中的每个块。
func (e *Engine) MeasureAll(doc *Document) (*Document, error) {
	out, _, err := e.MeasureRange(doc, 0, doc.Size())
	return out, err
}

func sameLines(a, b []LineSpan) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Paginate 先合并再拆分，直到没有页面溢出，并把选区投影到结果文档。
// 选区头部必须位于块文本内，否则返回 ErrMissingContainer。
func (e *Engine) Paginate(doc *Document, sel Selection) (*Document, Selection, error) {
	cur, err := NewCursor(doc, sel)
	if err != nil {
		return nil, sel, err
	}
	joined, err := e.Join(doc, cur)
	if err != nil {
		return nil, sel, fmt.Errorf("合并页面: %w", err)
	}
	out, err := e.Split(joined, cur)
	if err != nil {
		return nil, sel, fmt.Errorf("拆分页面: %w", err)
	}
	next, err := cur.Selection(out)
	if err != nil {
		return nil, sel, err
	}
	logger.Debugf("分页完成: %d 页 -> %d 页, 选区 %v -> %v", doc.PageCount(), out.PageCount(), sel, next)
	return out, next, nil
}
