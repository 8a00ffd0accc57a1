package editor

import (
	"sync"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/logger"
)

// Type 标识事件类型。
type Type int

const (
	TypeUnknown Type = iota

	TypeLayoutChanged       // 某个块的行信息发生变化
	TypePaginated           // 一次合并+拆分完成
	TypeMeasurementDeferred // 测量后端未就绪，断行被推迟
)

func (t Type) String() string {
	switch t {
	case TypeLayoutChanged:
		return "layout-changed"
	case TypePaginated:
		return "paginated"
	case TypeMeasurementDeferred:
		return "measurement-deferred"
	default:
		return "unknown"
	}
}

// Event 是发给订阅者的事件。
type Event struct {
	Type Type
	Data any
}

// LayoutChangedData 携带重新断行后的块位置与行信息。
type LayoutChangedData struct {
	Location layout.Location
	Lines    []layout.LineSpan
}

// PaginatedData 描述一次分页的结果。ScrollTo 为选区头部所在的块内位置，供界面滚动；
// 头部无法解析时为 nil。
type PaginatedData struct {
	Pages     int
	Selection layout.Selection
	ScrollTo  *layout.Location
	Triggers  Trigger
}

// MeasurementDeferredData 记录被推迟的范围（新文档坐标）。
type MeasurementDeferredData struct {
	From, To int
	Err      error
}

// Handler 处理事件，返回值保留给将来的事件消费语义。
type Handler func(e Event) bool

// Manager 同步分发事件。
type Manager struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewManager 创建事件管理器。
func NewManager() *Manager {
	return &Manager{handlers: make(map[Type][]Handler)}
}

// Subscribe 为事件类型注册处理函数。
func (m *Manager) Subscribe(t Type, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[t] = append(m.handlers[t], h)
	logger.Debugf("订阅事件 %v", t)
}

// Dispatch 依次调用该类型的所有处理函数。处理函数在调用方的 goroutine 中执行。
func (m *Manager) Dispatch(t Type, data any) {
	m.mu.RLock()
	handlers := make([]Handler, len(m.handlers[t]))
	copy(handlers, m.handlers[t])
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}
	e := Event{Type: t, Data: data}
	for _, h := range handlers {
		h(e)
	}
}
