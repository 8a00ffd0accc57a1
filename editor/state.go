package editor

import (
	"strings"

	"github.com/ByLCY/quire/layout"
)

// State 是调度器在一次编辑周期中的阶段。
type State int

const (
	StateIdle State = iota
	StateMeasuring
	StateMaybePaginating
	StatePaginating
)

func (s State) String() string {
	switch s {
	case StateMeasuring:
		return "measuring"
	case StateMaybePaginating:
		return "maybe-paginating"
	case StatePaginating:
		return "paginating"
	default:
		return "idle"
	}
}

// Trigger 是触发重新分页的条件集合。
type Trigger uint8

const (
	// TriggerOverflow: 选区头部所在页的内容高度超过 Body。
	TriggerOverflow Trigger = 1 << iota
	// TriggerShrink: 文档变小且前后选区都位于块内，内容可能需要回流到前面的页。
	TriggerShrink
	// TriggerTrailingInsert: 在跨页块的前半部分中编辑，尚未溢出也需要重新分页。
	TriggerTrailingInsert
)

func (t Trigger) String() string {
	if t == 0 {
		return "none"
	}
	var names []string
	if t&TriggerOverflow != 0 {
		names = append(names, "overflow")
	}
	if t&TriggerShrink != 0 {
		names = append(names, "shrink")
	}
	if t&TriggerTrailingInsert != 0 {
		names = append(names, "trailing-insert")
	}
	return strings.Join(names, "|")
}

// Result 汇总一次 Dispatch 的结果。
type Result struct {
	// Measured 为重新断行的块（提交后文档中的位置，分页前）。
	Measured  []layout.Location
	Triggers  Trigger
	Paginated bool
	// Deferred 表示测量后端未就绪，范围留待下一次编辑重试。
	Deferred bool
	// Composing 表示事务属于尚未结束的输入法组合。
	Composing bool
}
