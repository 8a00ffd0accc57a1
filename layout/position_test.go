package layout

import (
	"errors"
	"testing"
)

// twoPages: 第一页 "abc"，第二页 "def" 与 "g"。
func twoPages() *Document {
	geom := testGeometry(100, 60)
	return &Document{Pages: []*Page{
		NewPage(geom, NewBlock(KindParagraph, 0, "abc")),
		NewPage(geom, NewBlock(KindParagraph, 0, "def"), NewBlock(KindTitle, 0, "g")),
	}}
}

func TestDocumentSize(t *testing.T) {
	doc := twoPages()
	// 页 = 页标记 2 + Body 标记 2 + 块
	if got, want := doc.Size(), (4+5)+(4+5+3); got != want {
		t.Fatalf("Size = %d，期望 %d", got, want)
	}
}

func TestResolveAndPosOf(t *testing.T) {
	doc := twoPages()
	cases := []struct {
		pos int
		loc Location
	}{
		{3, Location{0, 0, 0}},
		{6, Location{0, 0, 3}},
		{12, Location{1, 0, 0}},
		{14, Location{1, 0, 2}},
		{17, Location{1, 1, 0}},
		{18, Location{1, 1, 1}},
	}
	for _, c := range cases {
		loc, err := doc.Resolve(c.pos)
		if err != nil {
			t.Fatalf("Resolve(%d) 失败: %v", c.pos, err)
		}
		if loc != c.loc {
			t.Fatalf("Resolve(%d) = %+v，期望 %+v", c.pos, loc, c.loc)
		}
		pos, err := doc.PosOf(c.loc)
		if err != nil || pos != c.pos {
			t.Fatalf("PosOf(%+v) = %d, %v，期望 %d", c.loc, pos, err, c.pos)
		}
	}
}

func TestResolveStructuralPositions(t *testing.T) {
	doc := twoPages()
	for _, pos := range []int{0, 1, 2, 7, 8, 9, 10, 11, 16, 19, 20, 21} {
		if _, err := doc.Resolve(pos); !errors.Is(err, ErrMissingContainer) {
			t.Fatalf("Resolve(%d) 期望 ErrMissingContainer，实际 %v", pos, err)
		}
	}
	for _, pos := range []int{-1, doc.Size() + 1} {
		if _, err := doc.Resolve(pos); !errors.Is(err, ErrInvalidPosition) {
			t.Fatalf("Resolve(%d) 期望 ErrInvalidPosition，实际 %v", pos, err)
		}
	}
	if _, err := doc.PosOf(Location{Page: 0, Block: 0, Offset: 4}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("越界偏移应返回 ErrInvalidPosition，实际 %v", err)
	}
	if start, err := doc.BlockStart(1, 1); err != nil || start != 16 {
		t.Fatalf("BlockStart(1,1) = %d, %v", start, err)
	}
}

func TestMapping(t *testing.T) {
	insert := Mapping{From: 5, To: 5, Size: 3}
	del := Mapping{From: 5, To: 9, Size: 0}
	cases := []struct {
		m         Mapping
		pos, want int
	}{
		{insert, 4, 4},
		{insert, 5, 8},
		{insert, 10, 13},
		{del, 4, 4},
		{del, 7, 5},
		{del, 9, 5},
		{del, 12, 8},
	}
	for _, c := range cases {
		if got := c.m.Map(c.pos); got != c.want {
			t.Fatalf("%+v.Map(%d) = %d，期望 %d", c.m, c.pos, got, c.want)
		}
	}

	ms := Mappings{insert, {From: 20, To: 22, Size: 0}}
	if got := ms.MapSelection(Selection{Anchor: 2, Head: 30}); got != (Selection{Anchor: 2, Head: 31}) {
		t.Fatalf("MapSelection = %+v", got)
	}
	from, to, ok := ms.Changed()
	if !ok || from != 5 || to != 20 {
		t.Fatalf("Changed = %d..%d %v", from, to, ok)
	}
	if _, _, ok := (Mappings{}).Changed(); ok {
		t.Fatalf("空映射不应报告变化")
	}
}
