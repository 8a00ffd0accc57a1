package layout

import (
	"fmt"
	"unicode/utf8"
)

// 树变更原语：每个操作返回新版本文档及对应的位置映射，原文档保持不变。

// ReplaceText 用 text 替换 [from, to] 之间的内容。两端必须位于块文本内；
// 跨块时首尾两块合并为一块（保留首块类型与尾块的 broken 标记），
// 中间的块与页面被移除，尾块所在页剩余的块并入首块所在页。
func (d *Document) ReplaceText(from, to int, text string) (*Document, Mapping, error) {
	if from > to {
		from, to = to, from
	}
	start, err := d.Resolve(from)
	if err != nil {
		return nil, Mapping{}, fmt.Errorf("替换起点: %w", err)
	}
	end, err := d.Resolve(to)
	if err != nil {
		return nil, Mapping{}, fmt.Errorf("替换终点: %w", err)
	}
	inserted := utf8.RuneCountInString(text)
	first := d.BlockAt(start.Page, start.Block)

	if start.Page == end.Page && start.Block == end.Block {
		r := []rune(first.Text)
		next := string(r[:start.Offset]) + text + string(r[end.Offset:])
		out := d.WithBlock(start.Page, start.Block, first.WithText(next))
		return out, Mapping{From: from, To: to, Size: inserted}, nil
	}

	last := d.BlockAt(end.Page, end.Block)
	fr, lr := []rune(first.Text), []rune(last.Text)
	merged := first.WithText(string(fr[:start.Offset]) + text + string(lr[end.Offset:]))
	merged.Broken = last.Broken

	head := d.Pages[start.Page]
	tail := d.Pages[end.Page]
	blocks := make([]*Block, 0, start.Block+1+len(tail.Body.Blocks)-end.Block)
	blocks = append(blocks, head.Body.Blocks[:start.Block]...)
	blocks = append(blocks, merged)
	blocks = append(blocks, tail.Body.Blocks[end.Block+1:]...)

	pages := make([]*Page, 0, len(d.Pages)-(end.Page-start.Page))
	pages = append(pages, d.Pages[:start.Page]...)
	pages = append(pages, head.withBody(head.Body.withBlocks(blocks)))
	pages = append(pages, d.Pages[end.Page+1:]...)
	out := &Document{Pages: pages}

	return out, Mapping{From: from, To: to, Size: (to - from) + out.Size() - d.Size()}, nil
}

// InsertText 在 pos 处插入文本。
func (d *Document) InsertText(pos int, text string) (*Document, Mapping, error) {
	return d.ReplaceText(pos, pos, text)
}

// SplitBlock 在 pos 处把块一分为二（回车）。前半块不再是 broken，
// 后半块继承原块的 broken 标记；在标题末尾回车时新块为段落。
func (d *Document) SplitBlock(pos int) (*Document, Mapping, error) {
	loc, err := d.Resolve(pos)
	if err != nil {
		return nil, Mapping{}, fmt.Errorf("拆分块: %w", err)
	}
	b := d.BlockAt(loc.Page, loc.Block)
	r := []rune(b.Text)

	before := b.WithText(string(r[:loc.Offset])).WithBroken(false)
	after := b.WithText(string(r[loc.Offset:]))
	if loc.Offset == len(r) && b.Kind != KindParagraph {
		after = after.WithKind(KindParagraph, 0)
	}

	p := d.Pages[loc.Page]
	blocks := make([]*Block, 0, len(p.Body.Blocks)+1)
	blocks = append(blocks, p.Body.Blocks[:loc.Block]...)
	blocks = append(blocks, before, after)
	blocks = append(blocks, p.Body.Blocks[loc.Block+1:]...)

	out := d.withPage(loc.Page, p.withBody(p.Body.withBlocks(blocks)))
	return out, Mapping{From: pos, To: pos, Size: 2}, nil
}

// SetBlockKind 修改 pos 所在块的类型与变体。
func (d *Document) SetBlockKind(pos int, kind Kind, variant int) (*Document, Mapping, error) {
	loc, err := d.Resolve(pos)
	if err != nil {
		return nil, Mapping{}, fmt.Errorf("设置块类型: %w", err)
	}
	b := d.BlockAt(loc.Page, loc.Block)
	out := d.WithBlock(loc.Page, loc.Block, b.WithKind(kind, variant))
	return out, Mapping{From: pos, To: pos}, nil
}
