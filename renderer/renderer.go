package renderer

import "github.com/ByLCY/quire/layout"

// Renderer 将分页后的文档输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(doc *layout.Document, meta layout.DocumentMeta) ([]byte, error)
}
