package editor

import (
	"fmt"

	"github.com/ByLCY/quire/layout"
)

// Step 是事务中的一次树变更。
type Step interface {
	Apply(doc *layout.Document) (*layout.Document, layout.Mapping, error)
}

// InsertText 在 Pos 处插入文本。
type InsertText struct {
	Pos  int
	Text string
}

func (s InsertText) Apply(doc *layout.Document) (*layout.Document, layout.Mapping, error) {
	return doc.InsertText(s.Pos, s.Text)
}

func (s InsertText) String() string { return fmt.Sprintf("insert %d %q", s.Pos, s.Text) }

// DeleteRange 删除 [From, To] 之间的内容，可以跨块、跨页。
type DeleteRange struct {
	From, To int
}

func (s DeleteRange) Apply(doc *layout.Document) (*layout.Document, layout.Mapping, error) {
	return doc.ReplaceText(s.From, s.To, "")
}

func (s DeleteRange) String() string { return fmt.Sprintf("delete %d %d", s.From, s.To) }

// SplitBlock 在 Pos 处分块（回车）。
type SplitBlock struct {
	Pos int
}

func (s SplitBlock) Apply(doc *layout.Document) (*layout.Document, layout.Mapping, error) {
	return doc.SplitBlock(s.Pos)
}

func (s SplitBlock) String() string { return fmt.Sprintf("enter %d", s.Pos) }

// SetKind 修改 Pos 所在块的类型。
type SetKind struct {
	Pos     int
	Kind    layout.Kind
	Variant int
}

func (s SetKind) Apply(doc *layout.Document) (*layout.Document, layout.Mapping, error) {
	return doc.SetBlockKind(s.Pos, s.Kind, s.Variant)
}

func (s SetKind) String() string { return fmt.Sprintf("kind %d %s %d", s.Pos, s.Kind, s.Variant) }

// Transaction 是一次原子编辑：按顺序应用的步骤、可选的新选区以及输入法组合状态。
type Transaction struct {
	Steps []Step
	// Selection 为 nil 时，旧选区经步骤映射后作为新选区。
	Selection *layout.Selection
	// Composing 表示输入法组合仍在进行，断行推迟到组合结束的事务。
	Composing bool
}

// NewTransaction 创建空事务。
func NewTransaction() *Transaction { return &Transaction{} }

func (tr *Transaction) Insert(pos int, text string) *Transaction {
	tr.Steps = append(tr.Steps, InsertText{Pos: pos, Text: text})
	return tr
}

func (tr *Transaction) Delete(from, to int) *Transaction {
	tr.Steps = append(tr.Steps, DeleteRange{From: from, To: to})
	return tr
}

func (tr *Transaction) Split(pos int) *Transaction {
	tr.Steps = append(tr.Steps, SplitBlock{Pos: pos})
	return tr
}

func (tr *Transaction) SetKind(pos int, kind layout.Kind, variant int) *Transaction {
	tr.Steps = append(tr.Steps, SetKind{Pos: pos, Kind: kind, Variant: variant})
	return tr
}

func (tr *Transaction) Select(sel layout.Selection) *Transaction {
	tr.Selection = &sel
	return tr
}

func (tr *Transaction) Compose(composing bool) *Transaction {
	tr.Composing = composing
	return tr
}

// DocChanged 报告事务是否修改文档。
func (tr *Transaction) DocChanged() bool { return len(tr.Steps) > 0 }

// apply 依次应用所有步骤，任一步骤失败则整个事务作废。
func (tr *Transaction) apply(doc *layout.Document) (*layout.Document, layout.Mappings, error) {
	maps := make(layout.Mappings, 0, len(tr.Steps))
	for i, step := range tr.Steps {
		next, m, err := step.Apply(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("第 %d 步 (%v): %w", i+1, step, err)
		}
		doc = next
		maps = append(maps, m)
	}
	return doc, maps, nil
}
