package layout

// Measurer 返回字符串以给定字体渲染后的宽度（px）。
// 后端未就绪时应返回包装了 ErrMeasurementUnavailable 的错误。
type Measurer interface {
	Measure(text string, font Font) (float64, error)
}

// MeasurerFunc 让普通函数满足 Measurer。
type MeasurerFunc func(text string, font Font) (float64, error)

func (f MeasurerFunc) Measure(text string, font Font) (float64, error) { return f(text, font) }

// BreakLines 使用贪心算法按词折行，返回划分 text 的有序行区间。
//
// 词是到空格（含）为止的最长片段，文本末尾的词在到达结尾时收入；连续空格中
// 的单个空格也算一个词。当 lineWidth+width 超过 availableWidth 且当前行非空时
// 结束当前行。单个超长词独占一行而不会被拆开。空文本返回唯一的 {0,0}。
func BreakLines(text string, style Style, availableWidth float64, m Measurer) ([]LineSpan, error) {
	r := []rune(text)
	if len(r) == 0 {
		return []LineSpan{{Offset: 0, Length: 0}}, nil
	}

	blank := -1.0
	measure := func(word string) (float64, error) {
		if word == " " {
			if blank < 0 {
				w, err := m.Measure(" ", style.Font)
				if err != nil {
					return 0, err
				}
				blank = w
			}
			return blank, nil
		}
		return m.Measure(style.Transform.Apply(word, style.Lang), style.Font)
	}

	var (
		lines     []LineSpan
		cursor    int
		prevLine  int
		lineWidth float64
	)
	last := len(r) - 1
	for i, ch := range r {
		if ch != ' ' && i != last {
			continue
		}
		width, err := measure(string(r[cursor : i+1]))
		if err != nil {
			return nil, err
		}
		if lineWidth+width > availableWidth && cursor > prevLine {
			lines = append(lines, LineSpan{Offset: prevLine, Length: cursor - prevLine})
			lineWidth = width
			prevLine = cursor
		} else {
			lineWidth += width
		}
		cursor = i + 1
	}
	lines = append(lines, LineSpan{Offset: prevLine, Length: len(r) - prevLine})
	return lines, nil
}
