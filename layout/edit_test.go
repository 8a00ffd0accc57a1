package layout

import (
	"errors"
	"testing"
)

func TestReplaceTextInsideBlock(t *testing.T) {
	doc := twoPages()
	out, m, err := doc.InsertText(14, "XY")
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if got := out.BlockAt(1, 0).Text; got != "deXYf" {
		t.Fatalf("插入结果 %q", got)
	}
	if out.Size() != doc.Size()+2 || m.Map(17) != 19 || m.Map(13) != 13 {
		t.Fatalf("映射错误: %+v", m)
	}
	if out.Pages[0] != doc.Pages[0] {
		t.Fatalf("未修改的页面应共享")
	}
	if doc.BlockAt(1, 0).Text != "def" {
		t.Fatalf("原文档不应被修改")
	}
}

func TestReplaceTextAcrossPages(t *testing.T) {
	doc := twoPages()
	// 从 "abc" 的偏移 1 删除到 "def" 的偏移 1
	out, m, err := doc.ReplaceText(4, 13, "")
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if out.PageCount() != 1 || out.Text() != "aef\ng" {
		t.Fatalf("删除结果: %d 页 %q", out.PageCount(), out.Text())
	}
	if m.Size != 0 {
		t.Fatalf("纯删除的映射大小应为 0: %+v", m)
	}
	for old, want := range map[int]int{3: 3, 14: 5, 17: 8, 18: 9} {
		if got := m.Map(old); got != want {
			t.Fatalf("Map(%d) = %d，期望 %d", old, got, want)
		}
	}
	if out.Size() != doc.Size()-9 {
		t.Fatalf("Size = %d", out.Size())
	}
}

func TestReplaceTextKeepsTailBroken(t *testing.T) {
	geom := testGeometry(100, 60)
	doc := &Document{Pages: []*Page{
		NewPage(geom, NewBlock(KindTitle, 0, "one"), NewBlock(KindParagraph, 0, "two")),
		NewPage(geom, &Block{Kind: KindParagraph, Text: "thr", Broken: true}),
		NewPage(geom, NewBlock(KindParagraph, 0, "ee")),
	}}
	from, _ := doc.PosOf(Location{Page: 0, Block: 0, Offset: 2})
	to, _ := doc.PosOf(Location{Page: 1, Block: 0, Offset: 1})
	out, _, err := doc.ReplaceText(from, to, "-")
	if err != nil {
		t.Fatalf("替换失败: %v", err)
	}
	b := out.BlockAt(0, 0)
	if b.Text != "on-hr" || b.Kind != KindTitle || !b.Broken {
		t.Fatalf("合并块: %+v", b)
	}
	if out.PageCount() != 2 {
		t.Fatalf("期望 2 页，实际 %d", out.PageCount())
	}
}

func TestSplitBlock(t *testing.T) {
	doc := twoPages()
	out, m, err := doc.SplitBlock(13)
	if err != nil {
		t.Fatalf("拆分失败: %v", err)
	}
	if out.Text() != "abc\nd\nef\ng" {
		t.Fatalf("拆分结果 %q", out.Text())
	}
	if m.Map(13) != 15 || out.Size() != doc.Size()+2 {
		t.Fatalf("映射错误: %+v", m)
	}
	if loc, _ := out.Resolve(m.Map(13)); loc != (Location{Page: 1, Block: 1, Offset: 0}) {
		t.Fatalf("光标应位于新块开头: %+v", loc)
	}

	title, _, err := doc.SplitBlock(18)
	if err != nil {
		t.Fatalf("拆分失败: %v", err)
	}
	if k := title.BlockAt(1, 2).Kind; k != KindParagraph {
		t.Fatalf("标题末尾回车应产生段落，实际 %v", k)
	}
}

func TestSplitBlockOfBrokenHead(t *testing.T) {
	geom := testGeometry(100, 60)
	doc := &Document{Pages: []*Page{
		NewPage(geom, &Block{Kind: KindParagraph, Text: "Hel", Broken: true}),
		NewPage(geom, NewBlock(KindParagraph, 0, "lo")),
	}}
	out, _, err := doc.SplitBlock(4)
	if err != nil {
		t.Fatalf("拆分失败: %v", err)
	}
	if out.BlockAt(0, 0).Broken || !out.BlockAt(0, 1).Broken {
		t.Fatalf("broken 标记应留在后半块")
	}
}

func TestSetBlockKind(t *testing.T) {
	doc := twoPages()
	out, m, err := doc.SetBlockKind(4, KindHeading, 2)
	if err != nil {
		t.Fatalf("设置类型失败: %v", err)
	}
	b := out.BlockAt(0, 0)
	if b.Kind != KindHeading || b.Variant != 2 || b.Measured() {
		t.Fatalf("设置类型结果: %+v", b)
	}
	if m.Map(10) != 10 {
		t.Fatalf("设置类型不应移动位置")
	}
	if _, _, err := doc.SetBlockKind(0, KindTitle, 0); !errors.Is(err, ErrMissingContainer) {
		t.Fatalf("期望 ErrMissingContainer，实际 %v", err)
	}
}
