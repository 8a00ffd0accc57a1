package layout

import "fmt"

// overflowEpsilon 吸收浮点累加误差，避免恰好填满的页面被判定为溢出。
const overflowEpsilon = 1e-6

// Box 是一个容器的测量结果（px）。
type Box struct {
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	ContentHeight float64 `json:"contentHeight"`
}

// Overflows 报告内容高度是否超过容器高度。
func (b Box) Overflows() bool { return b.ContentHeight > b.Height+overflowEpsilon }

// BoxMeasurer 报告页面 Body 的尺寸与内容高度。
type BoxMeasurer interface {
	Measure(page *Page) (Box, error)
}

// GeometricBoxes 根据缓存的行数与样式计算内容高度。
// 最后一块的块后间距不计入内容高度，FindSplitPoint 采用同样的高度定义。
type GeometricBoxes struct {
	Styles StyleResolver
}

func (g GeometricBoxes) Measure(page *Page) (Box, error) {
	if page == nil || page.Body == nil {
		return Box{}, fmt.Errorf("%w: 页面为空", ErrMissingContainer)
	}
	body := page.Body
	box := Box{Width: body.Width, Height: body.Height}
	for i, b := range body.Blocks {
		st, err := g.Styles.Resolve(b.Kind, b.Variant)
		if err != nil {
			return Box{}, fmt.Errorf("%s/%d: %w", b.Kind, b.Variant, err)
		}
		if i == len(body.Blocks)-1 {
			box.ContentHeight += st.LinesHeight(b.LineCount())
			continue
		}
		box.ContentHeight += st.BlockHeight(b.LineCount())
	}
	return box, nil
}
