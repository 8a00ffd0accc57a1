package layout

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

// stubMeasurer 每个 rune 固定宽度，便于手算断行结果。
type stubMeasurer struct {
	perRune float64
	err     error
	seen    []string
}

func (m *stubMeasurer) Measure(text string, font Font) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.seen = append(m.seen, text)
	return float64(utf8.RuneCountInString(text)) * m.perRune, nil
}

type stubStyles map[Kind]Style

func (s stubStyles) Resolve(kind Kind, variant int) (Style, error) {
	st, ok := s[kind]
	if !ok {
		return Style{}, fmt.Errorf("%w: %s", ErrStyleNotFound, kind)
	}
	return st, nil
}

// testStyles: 段落行高 20px、无间距；标题大写；引文缩进 50px。
func testStyles() stubStyles {
	base := Style{Font: Font{Family: "Test", Size: Px(20)}, LineHeight: Factor(1)}
	title := base
	title.Transform = TransformUppercase
	citation := base
	citation.Indent = Px(50)
	return stubStyles{
		KindParagraph: base,
		KindTitle:     title,
		KindCitation:  citation,
	}
}

func testEngine(t *testing.T, styles StyleResolver) *Engine {
	t.Helper()
	e, err := NewEngine(EngineOptions{Measurer: &stubMeasurer{perRune: 10}, Styles: styles})
	if err != nil {
		t.Fatalf("创建引擎失败: %v", err)
	}
	return e
}

func testGeometry(width, height float64) PageGeometry {
	return PageGeometry{Width: Px(width), Height: Px(height)}
}

// tenWords 在宽 100px 下断为 5 行，每行两个词。
func tenWords() string {
	return strings.Join([]string{"alfa", "brav", "char", "delt", "echo", "foxt", "golf", "hote", "indi", "juli"}, " ")
}

// measured 返回已断行的文档。
func measured(t *testing.T, e *Engine, doc *Document) *Document {
	t.Helper()
	out, err := e.MeasureAll(doc)
	if err != nil {
		t.Fatalf("测量失败: %v", err)
	}
	return out
}

func checkPartition(t *testing.T, text string, lines []LineSpan) {
	t.Helper()
	n := utf8.RuneCountInString(text)
	if n == 0 {
		if len(lines) != 1 || lines[0] != (LineSpan{}) {
			t.Fatalf("空文本应只有 {0,0}，实际 %v", lines)
		}
		return
	}
	next := 0
	for i, l := range lines {
		if l.Offset != next {
			t.Fatalf("第 %d 行偏移 %d，期望 %d（%v）", i, l.Offset, next, lines)
		}
		if l.Length <= 0 {
			t.Fatalf("第 %d 行为空（%v）", i, lines)
		}
		next = l.End()
	}
	if next != n {
		t.Fatalf("行总长 %d，文本长 %d（%v）", next, n, lines)
	}
}
