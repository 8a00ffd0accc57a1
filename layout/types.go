package layout

// 该文件定义分页树：Document → Page → Body → Block。
// 所有节点构造后不可修改，变更总是返回共享未修改子树的新版本（copy-on-write）。

import "unicode/utf8"

// LineSpan 表示块文本中的一行，Offset/Length 以 rune 为单位。
type LineSpan struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// End 返回该行之后的第一个位置。
func (l LineSpan) End() int { return l.Offset + l.Length }

// Block 是承载文本的块（段落、标题、引文……）。
// Broken 表示该块是跨页拆分的前半部分，续块位于下一页 Body 的开头。
type Block struct {
	Kind    Kind       `json:"kind"`
	Variant int        `json:"variant,omitempty"`
	Text    string     `json:"text"`
	Lines   []LineSpan `json:"lines"`
	Broken  bool       `json:"broken,omitempty"`
}

// NewBlock 创建尚未测量的块。
func NewBlock(kind Kind, variant int, text string) *Block {
	return &Block{Kind: kind, Variant: variant, Text: text}
}

// Len 返回文本长度（rune）。
func (b *Block) Len() int { return utf8.RuneCountInString(b.Text) }

// LineCount 返回行数；未测量的块按一行计。
func (b *Block) LineCount() int {
	if len(b.Lines) == 0 {
		return 1
	}
	return len(b.Lines)
}

// Measured 报告块是否已有缓存的行信息。
func (b *Block) Measured() bool { return len(b.Lines) > 0 }

func (b *Block) clone() *Block {
	c := *b
	return &c
}

// WithText 返回替换文本后的副本；旧的行信息失效。
func (b *Block) WithText(text string) *Block {
	c := b.clone()
	c.Text = text
	c.Lines = nil
	return c
}

// WithLines 返回设置行信息后的副本。
func (b *Block) WithLines(lines []LineSpan) *Block {
	c := b.clone()
	c.Lines = lines
	return c
}

// WithBroken 返回设置 broken 标记后的副本。
func (b *Block) WithBroken(broken bool) *Block {
	c := b.clone()
	c.Broken = broken
	return c
}

// WithKind 返回修改类型后的副本；样式变化后行信息失效。
func (b *Block) WithKind(kind Kind, variant int) *Block {
	c := b.clone()
	c.Kind = kind
	c.Variant = variant
	c.Lines = nil
	return c
}

// Equal 结构化比较两个块（类型、变体、文本与 broken 标记），不比较缓存的行信息。
func (b *Block) Equal(o *Block) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Kind == o.Kind && b.Variant == o.Variant && b.Text == o.Text && b.Broken == o.Broken
}

// Body 是页面的内容区，Width/Height 为像素。
type Body struct {
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Blocks []*Block `json:"blocks"`
}

// withBlocks 返回相同尺寸但内容不同的 Body。
func (b *Body) withBlocks(blocks []*Block) *Body {
	return &Body{Width: b.Width, Height: b.Height, Blocks: blocks}
}

// Page 持有固定尺寸与唯一的 Body。
type Page struct {
	Geometry PageGeometry `json:"geometry"`
	Body     *Body        `json:"body"`
}

// NewPage 根据页面几何创建页面，Body 尺寸由页面尺寸减去边距得到。
func NewPage(geom PageGeometry, blocks ...*Block) *Page {
	return &Page{
		Geometry: geom,
		Body: &Body{
			Width:  geom.BodyWidth(),
			Height: geom.BodyHeight(),
			Blocks: blocks,
		},
	}
}

func (p *Page) withBody(body *Body) *Page {
	return &Page{Geometry: p.Geometry, Body: body}
}

// Document 是页面的有序序列，至少包含一页。
type Document struct {
	Pages []*Page `json:"pages"`
}

// NewDocument 创建只有一页的文档。blocks 为空时放入一个空段落。
func NewDocument(geom PageGeometry, blocks ...*Block) *Document {
	if len(blocks) == 0 {
		blocks = []*Block{NewBlock(KindParagraph, 0, "")}
	}
	return &Document{Pages: []*Page{NewPage(geom, blocks...)}}
}

// PageCount 返回页数。
func (d *Document) PageCount() int { return len(d.Pages) }

// Blocks 按文档顺序返回所有块。
func (d *Document) Blocks() []*Block {
	var out []*Block
	for _, p := range d.Pages {
		out = append(out, p.Body.Blocks...)
	}
	return out
}

// BlockAt 返回给定位置的块，越界时返回 nil。
func (d *Document) BlockAt(page, block int) *Block {
	if page < 0 || page >= len(d.Pages) {
		return nil
	}
	blocks := d.Pages[page].Body.Blocks
	if block < 0 || block >= len(blocks) {
		return nil
	}
	return blocks[block]
}

// Text 返回所有块文本的拼接（块之间以换行分隔），用于内容比较。
func (d *Document) Text() string {
	var out []byte
	for i, b := range d.Blocks() {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, b.Text...)
	}
	return string(out)
}

// WithBlock 返回替换单个块后的新版本，其余页面与块共享。
func (d *Document) WithBlock(page, block int, b *Block) *Document {
	p := d.Pages[page]
	blocks := make([]*Block, len(p.Body.Blocks))
	copy(blocks, p.Body.Blocks)
	blocks[block] = b
	return d.withPage(page, p.withBody(p.Body.withBlocks(blocks)))
}

func (d *Document) withPage(i int, p *Page) *Document {
	pages := make([]*Page, len(d.Pages))
	copy(pages, d.Pages)
	pages[i] = p
	return &Document{Pages: pages}
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
