// Package editor 实现增量分页调度器：每次编辑只重新断行受影响的块，
// 并在溢出、收缩或跨页块尾部输入时运行合并+拆分。
package editor

import (
	"errors"
	"fmt"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/logger"
)

// ErrReentrant 表示在调度器非空闲时（例如在事件处理函数中）再次调用 Dispatch。
var ErrReentrant = errors.New("editor: 调度器正忙，不能重入")

// Options 配置编辑器。
type Options struct {
	Measurer layout.Measurer
	Styles   layout.StyleResolver
	// Boxes 为 nil 时按行数与样式计算页面内容高度。
	Boxes  layout.BoxMeasurer
	Events *Manager
}

type span struct{ from, to int }

func (s span) union(o span) span { return span{min(s.from, o.from), max(s.to, o.to)} }

func (s span) mapped(ms layout.Mappings) span { return span{ms.Map(s.from), ms.Map(s.to)} }

func (s span) clamp(size int) span {
	return span{max(0, min(s.from, size)), max(0, min(s.to, size))}
}

// openEdit 是尚未结束的逻辑编辑（输入法组合期间的多个事务）。
type openEdit struct {
	doc  *layout.Document
	sel  layout.Selection
	maps layout.Mappings
}

// Editor 持有当前文档版本、选区与上一版本快照。不可并发使用。
type Editor struct {
	engine *layout.Engine
	boxes  layout.BoxMeasurer
	events *Manager

	state State
	doc   *layout.Document
	sel   layout.Selection
	prev  *layout.Document
	open  *openEdit
	// pending 为推迟断行的范围（当前文档坐标）；retry 保存被推迟编辑之前的
	// 快照，重试时据此判断收缩与尾部输入。
	pending *span
	retry   *openEdit
}

// New 创建编辑器：测量所有块，若有页面溢出则立即分页。选区位于第一个块的开头。
func New(doc *layout.Document, opts Options) (*Editor, error) {
	engine, err := layout.NewEngine(layout.EngineOptions{Measurer: opts.Measurer, Styles: opts.Styles})
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.PageCount() == 0 || len(doc.Blocks()) == 0 {
		return nil, fmt.Errorf("%w: 文档没有内容块", layout.ErrMissingContainer)
	}
	e := &Editor{
		engine: engine,
		boxes:  opts.Boxes,
		events: opts.Events,
		doc:    doc,
	}
	if e.boxes == nil {
		e.boxes = layout.GeometricBoxes{Styles: opts.Styles}
	}
	if e.events == nil {
		e.events = NewManager()
	}
	first, err := doc.PosOf(layout.Location{})
	if err != nil {
		return nil, err
	}
	e.sel = layout.Collapsed(first)
	if err := e.init(); err != nil {
		return nil, err
	}
	e.prev = e.doc
	return e, nil
}

func (e *Editor) init() error {
	defer e.setState(StateIdle)
	e.setState(StateMeasuring)
	doc, err := e.engine.MeasureAll(e.doc)
	if errors.Is(err, layout.ErrMeasurementUnavailable) {
		e.postpone(span{0, e.doc.Size()}, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("初始测量失败: %w", err)
	}
	e.doc = doc

	e.setState(StateMaybePaginating)
	overflow := false
	for i, p := range doc.Pages {
		box, err := e.boxes.Measure(p)
		if err != nil {
			return fmt.Errorf("测量第 %d 页失败: %w", i, err)
		}
		overflow = overflow || box.Overflows()
	}
	if !overflow {
		return nil
	}
	e.setState(StatePaginating)
	out, sel, err := e.engine.Paginate(doc, e.sel)
	if err != nil {
		return fmt.Errorf("初始分页失败: %w", err)
	}
	e.doc, e.sel = out, sel
	e.emitPaginated(TriggerOverflow)
	return nil
}

// Document 返回当前文档版本。
func (e *Editor) Document() *layout.Document { return e.doc }

// Previous 返回上一次提交的逻辑编辑之前的文档版本。
func (e *Editor) Previous() *layout.Document { return e.prev }

// Selection 返回当前选区。
func (e *Editor) Selection() layout.Selection { return e.sel }

// State 返回调度器当前阶段。Dispatch 之外总是 StateIdle。
func (e *Editor) State() State { return e.state }

// Events 返回事件管理器。
func (e *Editor) Events() *Manager { return e.events }

// Engine 返回排版引擎。
func (e *Editor) Engine() *layout.Engine { return e.engine }

// Pending 报告是否有因测量不可用而推迟的范围。
func (e *Editor) Pending() bool { return e.pending != nil }

// Flush 在不修改文档的情况下结束输入法组合并重试被推迟的测量。
func (e *Editor) Flush() (Result, error) { return e.Dispatch(NewTransaction()) }

// Dispatch 应用事务并完成一个编辑周期：断行受影响的块，检查分页条件，必要时
// 合并+拆分，最后原子地提交结果。
//
// 断行时缺少样式会使整个事务作废；分页失败时只提交已断行的编辑并返回错误；
// 选区无法解析时跳过本次分页。
func (e *Editor) Dispatch(tr *Transaction) (Result, error) {
	if e.state != StateIdle {
		return Result{}, fmt.Errorf("%w（当前阶段 %v）", ErrReentrant, e.state)
	}
	if tr == nil {
		tr = NewTransaction()
	}
	defer e.setState(StateIdle)

	doc, maps, err := tr.apply(e.doc)
	if err != nil {
		return Result{}, err
	}
	sel := maps.MapSelection(e.sel)
	if tr.Selection != nil {
		sel = *tr.Selection
	}

	edit := openEdit{doc: e.doc, sel: e.sel}
	switch {
	case e.open != nil:
		edit = *e.open
	case e.retry != nil:
		edit = *e.retry
	}
	edit.maps = append(append(layout.Mappings{}, edit.maps...), maps...)

	var pending *span
	if e.pending != nil {
		p := e.pending.mapped(maps)
		pending = &p
	}

	if tr.Composing {
		e.doc, e.sel, e.open, e.retry, e.pending = doc, sel, &edit, nil, pending
		return Result{Composing: true}, nil
	}
	if len(edit.maps) == 0 && pending == nil {
		e.sel, e.open = sel, nil
		return Result{}, nil
	}
	prev, prevSel := edit.doc, edit.sel

	e.setState(StateMeasuring)
	rng := measuringRange(doc, sel, prev, edit.maps.MapSelection(prevSel), edit.maps, pending)
	measured, changed, err := e.engine.MeasureRange(doc, rng.from, rng.to)
	switch {
	case errors.Is(err, layout.ErrMeasurementUnavailable):
		e.commit(doc, sel, prev)
		e.retry = &edit
		e.postpone(rng, err)
		return Result{Deferred: true}, nil
	case err != nil:
		return Result{}, fmt.Errorf("断行失败: %w", err)
	}
	e.pending = nil
	doc = measured
	res := Result{Measured: changed}
	for _, loc := range changed {
		e.events.Dispatch(TypeLayoutChanged, LayoutChangedData{
			Location: loc,
			Lines:    doc.BlockAt(loc.Page, loc.Block).Lines,
		})
	}

	e.setState(StateMaybePaginating)
	res.Triggers, err = e.triggers(doc, sel, prev, prevSel)
	if err != nil {
		e.commit(doc, sel, prev)
		if errors.Is(err, layout.ErrMissingContainer) {
			logger.Warnf("选区无法解析，跳过本次分页: %v", err)
			return res, nil
		}
		return res, fmt.Errorf("检查分页条件失败: %w", err)
	}
	if res.Triggers == 0 {
		e.commit(doc, sel, prev)
		return res, nil
	}

	e.setState(StatePaginating)
	logger.Debugf("触发分页: %v", res.Triggers)
	out, nsel, err := e.engine.Paginate(doc, sel)
	if err != nil {
		e.commit(doc, sel, prev)
		if errors.Is(err, layout.ErrMissingContainer) {
			logger.Warnf("选区无法解析，跳过本次分页: %v", err)
			return res, nil
		}
		return res, fmt.Errorf("分页失败: %w", err)
	}
	e.commit(out, nsel, prev)
	res.Paginated = true
	e.emitPaginated(res.Triggers)
	return res, nil
}

// measuringRange 计算需要重新断行的范围：锚点取新旧锚点中较前者；文档大小
// 不变时头部沿用旧头部，否则取新头部；再并上步骤实际改动的范围与推迟的范围。
func measuringRange(doc *layout.Document, sel layout.Selection, prev *layout.Document, prevSel layout.Selection, maps layout.Mappings, pending *span) span {
	anchor := min(sel.Anchor, prevSel.Anchor)
	head := sel.Head
	if doc.Size() == prev.Size() {
		head = prevSel.Head
	}
	r := span{min(anchor, head), max(anchor, head)}
	if from, to, ok := maps.Changed(); ok {
		r = r.union(span{from, to})
	}
	if pending != nil {
		r = r.union(*pending)
	}
	return r.clamp(doc.Size())
}

func (e *Editor) triggers(doc *layout.Document, sel layout.Selection, prev *layout.Document, prevSel layout.Selection) (Trigger, error) {
	var t Trigger
	head, err := doc.Resolve(sel.Head)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", layout.ErrMissingContainer, err)
	}
	box, err := e.boxes.Measure(doc.Pages[head.Page])
	if err != nil {
		return 0, err
	}
	if box.Overflows() {
		t |= TriggerOverflow
	}

	if doc.Size() == prev.Size() {
		return t, nil
	}
	anchor, aerr := doc.Resolve(sel.Anchor)
	prevAnchor, perr := prev.Resolve(prevSel.Anchor)
	if aerr != nil || perr != nil {
		return t, nil
	}
	if doc.Size() < prev.Size() {
		t |= TriggerShrink
	}
	b := doc.BlockAt(anchor.Page, anchor.Block)
	if b.Broken && anchor.Block == len(doc.Pages[anchor.Page].Body.Blocks)-1 {
		old := prev.BlockAt(anchor.Page, anchor.Block)
		if old != nil && old.Equal(prev.BlockAt(prevAnchor.Page, prevAnchor.Block)) {
			t |= TriggerTrailingInsert
		}
	}
	return t, nil
}

func (e *Editor) commit(doc *layout.Document, sel layout.Selection, prev *layout.Document) {
	e.doc, e.sel, e.prev, e.open, e.retry = doc, sel, prev, nil, nil
}

// postpone 记录推迟的范围；r 已包含之前推迟且映射到当前文档的范围。
func (e *Editor) postpone(r span, err error) {
	e.pending = &r
	logger.Warnf("测量不可用，推迟断行 [%d, %d]: %v", r.from, r.to, err)
	e.events.Dispatch(TypeMeasurementDeferred, MeasurementDeferredData{From: r.from, To: r.to, Err: err})
}

func (e *Editor) emitPaginated(t Trigger) {
	data := PaginatedData{Pages: e.doc.PageCount(), Selection: e.sel, Triggers: t}
	if loc, err := e.doc.Resolve(e.sel.Head); err != nil {
		logger.Warnf("分页后选区头部无法解析，不提供滚动位置: %v", err)
	} else {
		data.ScrollTo = &loc
	}
	e.events.Dispatch(TypePaginated, data)
}

func (e *Editor) setState(s State) {
	if e.state != s {
		logger.Debugf("调度器: %v -> %v", e.state, s)
	}
	e.state = s
}
