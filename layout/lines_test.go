package layout

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestBreakLines(t *testing.T) {
	style := testStyles()[KindParagraph]
	cases := []struct {
		name  string
		text  string
		width float64
		want  []LineSpan
	}{
		{"empty", "", 100, []LineSpan{{0, 0}}},
		{"single line", "hello", 100, []LineSpan{{0, 5}}},
		{"exact fit", "aaaa bbbb cccc dddd", 100, []LineSpan{{0, 10}, {10, 9}}},
		{"overlong first word", "abcdefghijklmnop xy", 50, []LineSpan{{0, 17}, {17, 2}}},
		{"repeated spaces", "a  b", 10, []LineSpan{{0, 2}, {2, 1}, {3, 1}}},
		{"wide", "a  b", 1000, []LineSpan{{0, 4}}},
		{"trailing space", "ab ", 1000, []LineSpan{{0, 3}}},
		{"no width", "aa bb cc", 0, []LineSpan{{0, 3}, {3, 3}, {6, 2}}},
		{"multibyte", "ção é já", 40, []LineSpan{{0, 4}, {4, 4}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := BreakLines(c.text, style, c.width, &stubMeasurer{perRune: 10})
			if err != nil {
				t.Fatalf("断行失败: %v", err)
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("BreakLines(%q, %g) = %v，期望 %v", c.text, c.width, got, c.want)
			}
			checkPartition(t, c.text, got)
		})
	}
}

func TestBreakLinesPartition(t *testing.T) {
	style := testStyles()[KindParagraph]
	texts := []string{"x", " ", "   ", "a b c d e f g", tenWords(), "lorem ipsum dolor sit amet consectetur adipiscing elit"}
	for _, text := range texts {
		for _, width := range []float64{-5, 0, 15, 60, 100, 333} {
			lines, err := BreakLines(text, style, width, &stubMeasurer{perRune: 10})
			if err != nil {
				t.Fatalf("断行失败: %v", err)
			}
			checkPartition(t, text, lines)
		}
	}
}

func TestBreakLinesMeasuresTransformedWords(t *testing.T) {
	m := &stubMeasurer{perRune: 10}
	style := testStyles()[KindTitle]
	lines, err := BreakLines("resumo geral", style, 1000, m)
	if err != nil {
		t.Fatalf("断行失败: %v", err)
	}
	if !reflect.DeepEqual(m.seen, []string{"RESUMO ", "GERAL"}) {
		t.Fatalf("应测量变换后的词，实际 %q", m.seen)
	}
	if !reflect.DeepEqual(lines, []LineSpan{{0, 12}}) {
		t.Fatalf("偏移应指向原文: %v", lines)
	}
}

func TestBreakLinesPropagatesMeasurerError(t *testing.T) {
	m := &stubMeasurer{err: fmt.Errorf("字体加载中: %w", ErrMeasurementUnavailable)}
	_, err := BreakLines("hello world", testStyles()[KindParagraph], 100, m)
	if !errors.Is(err, ErrMeasurementUnavailable) {
		t.Fatalf("期望 ErrMeasurementUnavailable，实际 %v", err)
	}
}

func TestEngineLinesSubtractsIndent(t *testing.T) {
	e := testEngine(t, testStyles())
	text := "aaaa bbbb cccc"
	para, err := e.Lines(NewBlock(KindParagraph, 0, text), 150)
	if err != nil {
		t.Fatalf("断行失败: %v", err)
	}
	cite, err := e.Lines(NewBlock(KindCitation, 0, text), 150)
	if err != nil {
		t.Fatalf("断行失败: %v", err)
	}
	if len(para) != 1 || len(cite) != 2 {
		t.Fatalf("缩进应减少可用宽度: 段落 %v，引文 %v", para, cite)
	}
}

func TestEngineStyleNotFound(t *testing.T) {
	e := testEngine(t, testStyles())
	_, err := e.Measure(NewBlock(KindHeading, 2, "x"), 100)
	if !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("期望 ErrStyleNotFound，实际 %v", err)
	}
}

func TestMeasureRangeOnlyTouchesIntersectingBlocks(t *testing.T) {
	e := testEngine(t, testStyles())
	doc := NewDocument(testGeometry(100, 1000),
		NewBlock(KindParagraph, 0, "first"),
		NewBlock(KindParagraph, 0, tenWords()),
		NewBlock(KindParagraph, 0, "last"),
	)
	start, _ := doc.PosOf(Location{Page: 0, Block: 1, Offset: 3})
	out, changed, err := e.MeasureRange(doc, start, start)
	if err != nil {
		t.Fatalf("测量失败: %v", err)
	}
	if len(changed) != 1 || changed[0] != (Location{Page: 0, Block: 1}) {
		t.Fatalf("只应重新测量第二块，实际 %v", changed)
	}
	if out.BlockAt(0, 0).Measured() || out.BlockAt(0, 2).Measured() {
		t.Fatalf("范围外的块不应被测量")
	}
	if got := out.BlockAt(0, 1).LineCount(); got != 5 {
		t.Fatalf("期望 5 行，实际 %d", got)
	}
	if doc.BlockAt(0, 1).Measured() {
		t.Fatalf("原文档不应被修改")
	}

	_, changed, err = e.MeasureRange(out, start, start)
	if err != nil || len(changed) != 0 {
		t.Fatalf("行信息未变时不应报告变化: %v %v", changed, err)
	}
}
