package layout

import (
	"fmt"

	"github.com/ByLCY/quire/logger"
)

// Cursor 以块内位置保存选区，使其在合并与拆分改写树之后仍可投影。
type Cursor struct {
	Anchor Location
	Head   Location
}

// NewCursor 将选区解析为块内位置。头部无法解析时返回 ErrMissingContainer；
// 锚点无法解析时退化为头部。
func NewCursor(doc *Document, sel Selection) (*Cursor, error) {
	head, err := doc.Resolve(sel.Head)
	if err != nil {
		return nil, fmt.Errorf("%w: 选区头部 %d: %v", ErrMissingContainer, sel.Head, err)
	}
	anchor, err := doc.Resolve(sel.Anchor)
	if err != nil {
		anchor = head
	}
	return &Cursor{Anchor: anchor, Head: head}, nil
}

// Selection 把块内位置换算回 doc 中的绝对位置。
func (c *Cursor) Selection(doc *Document) (Selection, error) {
	anchor, err := doc.PosOf(c.Anchor)
	if err != nil {
		return Selection{}, fmt.Errorf("投影锚点: %w", err)
	}
	head, err := doc.PosOf(c.Head)
	if err != nil {
		return Selection{}, fmt.Errorf("投影头部: %w", err)
	}
	return Selection{Anchor: anchor, Head: head}, nil
}

func (c *Cursor) each(fn func(*Location)) {
	if c == nil {
		return
	}
	fn(&c.Anchor)
	fn(&c.Head)
}

// Join 把所有页面的块移到第一页并合并 broken 链，得到一个未分页的文档。
// 合并后的块重新断行，未测量的块也会被测量。cur 可以为 nil。
func (e *Engine) Join(doc *Document, cur *Cursor) (*Document, error) {
	if len(doc.Pages) == 0 {
		return doc, nil
	}
	first := doc.Pages[0]
	width := first.Body.Width

	if len(doc.Pages) == 1 && !needsJoin(first.Body.Blocks) {
		return doc, nil
	}

	type origin struct {
		page, block int
	}
	var flat []*Block
	var from []origin
	for pi, p := range doc.Pages {
		for bi, b := range p.Body.Blocks {
			flat = append(flat, b)
			from = append(from, origin{pi, bi})
		}
	}

	// remap[i] 记录扁平序号 i 的块合并后的位置与文本偏移
	type target struct {
		index, shift int
	}
	remap := make([]target, len(flat))
	out := make([]*Block, 0, len(flat))
	for i := 0; i < len(flat); {
		j := i
		shift := 0
		text := flat[i].Text
		remap[i] = target{index: len(out)}
		for flat[j].Broken {
			if j+1 >= len(flat) {
				o := from[j]
				return nil, fmt.Errorf("%w: 第 %d 页第 %d 块没有续块", ErrCorruptBrokenChain, o.page, o.block)
			}
			shift += flat[j].Len()
			j++
			text += flat[j].Text
			remap[j] = target{index: len(out), shift: shift}
		}

		merged := flat[i]
		if j > i {
			merged = flat[i].WithText(text).WithBroken(false)
			logger.Debugf("合并 broken 链: %d 个块 -> %q", j-i+1, abbreviate(text))
		}
		if !merged.Measured() {
			m, err := e.Measure(merged, width)
			if err != nil {
				return nil, err
			}
			merged = m
		}
		out = append(out, merged)
		i = j + 1
	}

	index := make(map[origin]int, len(flat))
	for i, o := range from {
		index[o] = i
	}
	cur.each(func(loc *Location) {
		i, ok := index[origin{loc.Page, loc.Block}]
		if !ok {
			return
		}
		t := remap[i]
		*loc = Location{Page: 0, Block: t.index, Offset: loc.Offset + t.shift}
	})

	return &Document{Pages: []*Page{first.withBody(first.Body.withBlocks(out))}}, nil
}

func needsJoin(blocks []*Block) bool {
	for _, b := range blocks {
		if b.Broken || !b.Measured() {
			return true
		}
	}
	return false
}

// SplitPoint 描述一次拆分。Line 为 0 时在块之前拆分（整块移到新页），
// 否则在块的第 Line 行之前拆分，Offset 为该行在块文本中的起点。
type SplitPoint struct {
	Page   int
	Block  int
	Line   int
	Offset int
}

// BeforeBlock 报告拆分点是否位于块边界。
func (sp SplitPoint) BeforeBlock() bool { return sp.Line == 0 }

// FindSplitPoint 在最后一页中寻找第一个放不下的块或行。
//
// 块高度为 lineHeight×lines + spacing×lineHeight，但 Body 末尾块的块后间距不计，
// 与 GeometricBoxes 一致：块的各行超出（前面各块含间距的高度 + 本块行高）时才算溢出。
// 单行块溢出时在块前拆分；多行块逐行累加，在第一个超出的行前拆分。
// 第一块永远不会整块移走：其首行放不下时在第二行前拆分，单行的首块则接受溢出。
func (e *Engine) FindSplitPoint(doc *Document) (SplitPoint, bool, error) {
	pi := len(doc.Pages) - 1
	if pi < 0 {
		return SplitPoint{}, false, nil
	}
	body := doc.Pages[pi].Body
	if body.Height <= 0 {
		return SplitPoint{}, false, nil
	}
	limit := body.Height + overflowEpsilon

	height := 0.0
	for bi, b := range body.Blocks {
		st, err := e.Style(b)
		if err != nil {
			return SplitPoint{}, false, err
		}
		lines := b.LineCount()
		if height+st.LinesHeight(lines) <= limit {
			height += st.BlockHeight(lines)
			continue
		}
		if lines == 1 {
			if bi > 0 {
				return SplitPoint{Page: pi, Block: bi}, true, nil
			}
			height += st.BlockHeight(lines)
			continue
		}
		lh := st.LineHeightPX()
		running := height
		k := 0
		for ; k < lines; k++ {
			if running += lh; running > limit {
				break
			}
		}
		k = min(k, lines-1)
		if k == 0 {
			if bi > 0 {
				return SplitPoint{Page: pi, Block: bi}, true, nil
			}
			k = 1
		}
		return SplitPoint{Page: pi, Block: bi, Line: k, Offset: b.Lines[k].Offset}, true, nil
	}
	return SplitPoint{}, false, nil
}

// ApplySplit 在拆分点处把页面一分为二，新页紧随原页之后。
// 块内拆分时前半块标记为 broken，续块继承原块的类型、变体与 broken 标记。
// 位于拆分偏移之后（含）的光标移到续块。
func (e *Engine) ApplySplit(doc *Document, sp SplitPoint, cur *Cursor) (*Document, error) {
	if sp.Page < 0 || sp.Page >= len(doc.Pages) {
		return nil, fmt.Errorf("%w: 拆分页 %d", ErrInvalidPosition, sp.Page)
	}
	page := doc.Pages[sp.Page]
	blocks := page.Body.Blocks
	if sp.Block < 0 || sp.Block >= len(blocks) {
		return nil, fmt.Errorf("%w: 拆分块 %d", ErrInvalidPosition, sp.Block)
	}

	var keep, moved []*Block
	if sp.BeforeBlock() {
		keep = append(keep, blocks[:sp.Block]...)
		moved = append(moved, blocks[sp.Block:]...)
	} else {
		b := blocks[sp.Block]
		if sp.Line >= len(b.Lines) {
			return nil, fmt.Errorf("%w: 第 %d 块只有 %d 行", ErrInvalidPosition, sp.Block, len(b.Lines))
		}
		r := []rune(b.Text)
		off := sp.Offset

		headLines := make([]LineSpan, sp.Line)
		copy(headLines, b.Lines[:sp.Line])
		head := &Block{Kind: b.Kind, Variant: b.Variant, Text: string(r[:off]), Lines: headLines, Broken: true}

		tailLines := make([]LineSpan, 0, len(b.Lines)-sp.Line)
		for _, l := range b.Lines[sp.Line:] {
			tailLines = append(tailLines, LineSpan{Offset: l.Offset - off, Length: l.Length})
		}
		cont := &Block{Kind: b.Kind, Variant: b.Variant, Text: string(r[off:]), Lines: tailLines, Broken: b.Broken}

		keep = append(keep, blocks[:sp.Block]...)
		keep = append(keep, head)
		moved = append(moved, cont)
		moved = append(moved, blocks[sp.Block+1:]...)
	}
	logger.Debugf("拆分第 %d 页: 块 %d 行 %d, 移出 %d 块", sp.Page, sp.Block, sp.Line, len(moved))

	next := &Page{Geometry: page.Geometry, Body: page.Body.withBlocks(moved)}
	pages := make([]*Page, 0, len(doc.Pages)+1)
	pages = append(pages, doc.Pages[:sp.Page]...)
	pages = append(pages, page.withBody(page.Body.withBlocks(keep)), next)
	pages = append(pages, doc.Pages[sp.Page+1:]...)

	cur.each(func(loc *Location) {
		switch {
		case loc.Page > sp.Page:
			loc.Page++
		case loc.Page < sp.Page:
		case sp.BeforeBlock():
			if loc.Block >= sp.Block {
				loc.Page++
				loc.Block -= sp.Block
			}
		case loc.Block > sp.Block:
			loc.Page++
			loc.Block -= sp.Block
		case loc.Block == sp.Block && loc.Offset >= sp.Offset:
			loc.Page++
			loc.Block = 0
			loc.Offset -= sp.Offset
		}
	})

	return &Document{Pages: pages}, nil
}

// Split 反复寻找并应用拆分点，直到最后一页不再溢出。
func (e *Engine) Split(doc *Document, cur *Cursor) (*Document, error) {
	for {
		sp, ok, err := e.FindSplitPoint(doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return doc, nil
		}
		if doc, err = e.ApplySplit(doc, sp, cur); err != nil {
			return nil, err
		}
	}
}

func abbreviate(s string) string {
	r := []rune(s)
	if len(r) <= 24 {
		return s
	}
	return string(r[:24]) + "…"
}
