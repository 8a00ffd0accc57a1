package layout

import "fmt"

// 位置编号采用先序遍历：每个节点贡献一个开标记与一个闭标记，块文本中的每个
// rune 占一个位置。块大小 = runes+2，Body = Σ块+2，Page = Body+2，
// 文档内容从 0 开始。位置 p 落在某块文本 [textStart, textStart+len] 内时，
// 解析为 Location{Page, Block, p-textStart}；落在结构标记上的位置无法解析。

// Location 是块内相对位置。
type Location struct {
	Page   int `json:"page"`
	Block  int `json:"block"`
	Offset int `json:"offset"`
}

// Selection 是一对绝对位置。
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// Collapsed 返回锚点与头部重合的选区。
func Collapsed(pos int) Selection { return Selection{Anchor: pos, Head: pos} }

// Empty 报告选区是否为空。
func (s Selection) Empty() bool { return s.Anchor == s.Head }

// From 与 To 返回选区的有序端点。
func (s Selection) From() int { return min(s.Anchor, s.Head) }
func (s Selection) To() int   { return max(s.Anchor, s.Head) }

// Size 返回块在先序编号下占用的位置数。
func (b *Block) Size() int { return b.Len() + 2 }

// Size 返回 Body 占用的位置数。
func (b *Body) Size() int {
	n := 2
	for _, blk := range b.Blocks {
		n += blk.Size()
	}
	return n
}

// Size 返回页面占用的位置数。
func (p *Page) Size() int { return p.Body.Size() + 2 }

// Size 返回文档内容大小。
func (d *Document) Size() int {
	n := 0
	for _, p := range d.Pages {
		n += p.Size()
	}
	return n
}

// EachBlock 以文档顺序遍历所有块，textStart 为块内偏移 0 对应的绝对位置。
// fn 返回 false 时停止。
func (d *Document) EachBlock(fn func(page, block int, b *Block, textStart int) bool) {
	pos := 0
	for pi, p := range d.Pages {
		blockPos := pos + 2
		for bi, b := range p.Body.Blocks {
			if !fn(pi, bi, b, blockPos+1) {
				return
			}
			blockPos += b.Size()
		}
		pos += p.Size()
	}
}

// Resolve 将绝对位置解析为块内位置。
func (d *Document) Resolve(pos int) (Location, error) {
	if pos < 0 || pos > d.Size() {
		return Location{}, fmt.Errorf("%w: %d 不在 [0, %d] 内", ErrInvalidPosition, pos, d.Size())
	}
	var (
		loc   Location
		found bool
	)
	d.EachBlock(func(page, block int, b *Block, textStart int) bool {
		if pos >= textStart && pos <= textStart+b.Len() {
			loc = Location{Page: page, Block: block, Offset: pos - textStart}
			found = true
			return false
		}
		return textStart <= pos
	})
	if !found {
		return Location{}, fmt.Errorf("%w: 位置 %d", ErrMissingContainer, pos)
	}
	return loc, nil
}

// PosOf 将块内位置换算为绝对位置。
func (d *Document) PosOf(loc Location) (int, error) {
	var (
		pos   int
		found bool
	)
	d.EachBlock(func(page, block int, b *Block, textStart int) bool {
		if page == loc.Page && block == loc.Block {
			if loc.Offset >= 0 && loc.Offset <= b.Len() {
				pos = textStart + loc.Offset
				found = true
			}
			return false
		}
		return true
	})
	if !found {
		return 0, fmt.Errorf("%w: %+v", ErrInvalidPosition, loc)
	}
	return pos, nil
}

// BlockStart 返回块在文档中的起始位置（块开标记之前）。
func (d *Document) BlockStart(page, block int) (int, error) {
	pos, err := d.PosOf(Location{Page: page, Block: block})
	if err != nil {
		return 0, err
	}
	return pos - 1, nil
}

// Mapping 记录一次替换：旧坐标中的 [From, To) 被替换为 Size 个位置的新内容。
type Mapping struct {
	From int
	To   int
	Size int
}

// Map 将旧版本中的位置映射到新版本。插入点上的位置移到新内容之后，
// 被删除区间内的位置落到新内容末尾。
func (m Mapping) Map(pos int) int {
	if pos < m.From {
		return pos
	}
	if pos >= m.To {
		return pos + m.Size - (m.To - m.From)
	}
	return m.From + m.Size
}

// Mappings 为顺序应用的一组映射。
type Mappings []Mapping

// Map 依次应用所有映射。
func (ms Mappings) Map(pos int) int {
	for _, m := range ms {
		pos = m.Map(pos)
	}
	return pos
}

// MapSelection 映射选区的两个端点。
func (ms Mappings) MapSelection(s Selection) Selection {
	return Selection{Anchor: ms.Map(s.Anchor), Head: ms.Map(s.Head)}
}

// Changed 返回所有映射在最终版本坐标中覆盖的范围。
func (ms Mappings) Changed() (from, to int, ok bool) {
	for i, m := range ms {
		a, b := m.From, m.From+m.Size
		rest := ms[i+1:]
		a, b = rest.Map(a), rest.Map(b)
		if !ok {
			from, to, ok = a, b, true
			continue
		}
		from, to = min(from, a), max(to, b)
	}
	return from, to, ok
}
