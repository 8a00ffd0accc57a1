package layout

import "errors"

var (
	// ErrStyleNotFound 表示块类型或变体没有对应样式，属于致命错误。
	ErrStyleNotFound = errors.New("layout: 未找到样式")
	// ErrCorruptBrokenChain 表示 broken 块之后缺少续块，说明上一次分页留下了不一致的树。
	ErrCorruptBrokenChain = errors.New("layout: broken 链损坏")
	// ErrMissingContainer 表示选区无法解析到预期的祖先节点。
	ErrMissingContainer = errors.New("layout: 选区不在内容块内")
	// ErrMeasurementUnavailable 表示测量后端尚未就绪，调用方应推迟并在下次编辑时重试。
	ErrMeasurementUnavailable = errors.New("layout: 文本测量不可用")
	// ErrInvalidPosition 表示位置超出文档范围。
	ErrInvalidPosition = errors.New("layout: 位置无效")
)
