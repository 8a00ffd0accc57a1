package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// DebugBlock 在块内容之外附带块在文档中的起始位置，便于对照选区。
type DebugBlock struct {
	*Block
	Start int `json:"start"`
}

// DebugPage 是页面的调试视图。
type DebugPage struct {
	Index      int          `json:"index"`
	BodyWidth  float64      `json:"bodyWidth"`
	BodyHeight float64      `json:"bodyHeight"`
	Blocks     []DebugBlock `json:"blocks"`
}

// DebugDump 是 WriteDebugJSON 输出的顶层结构。
type DebugDump struct {
	Meta      DocumentMeta `json:"meta"`
	Size      int          `json:"size"`
	Selection *Selection   `json:"selection,omitempty"`
	Pages     []DebugPage  `json:"pages"`
}

// NewDebugDump 收集文档的调试视图。
func NewDebugDump(doc *Document, meta DocumentMeta, sel *Selection) DebugDump {
	dump := DebugDump{Meta: meta, Size: doc.Size(), Selection: sel}
	for i, p := range doc.Pages {
		dump.Pages = append(dump.Pages, DebugPage{Index: i, BodyWidth: p.Body.Width, BodyHeight: p.Body.Height})
	}
	doc.EachBlock(func(page, _ int, b *Block, textStart int) bool {
		dump.Pages[page].Blocks = append(dump.Pages[page].Blocks, DebugBlock{Block: b, Start: textStart - 1})
		return true
	})
	return dump
}

// WriteDebugJSON 将分页结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(dump DebugDump, path string) error {
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化调试信息失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
