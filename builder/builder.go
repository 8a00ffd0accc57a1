// Package builder 把解析后的 DSL 文档转换为分页树、排版规范与编辑脚本。
package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/editor"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/logger"
	"github.com/ByLCY/quire/norm"
)

// Options 控制构建过程。
type Options struct {
	// Norm 非空时替代 DSL 中的 norm 段（例如来自 -norm 文件）。
	Norm *norm.Norm
	// Scale 大于 0 时覆盖规范的缩放系数。
	Scale float64
}

// Result 是构建结果。Document 尚未断行，交给 editor.New 完成首次排版。
type Result struct {
	Name     string
	Document *layout.Document
	Norm     norm.Norm
	Resolver *norm.Resolver
	Meta     layout.DocumentMeta
	Data     map[string]any
	Edits    []*editor.Transaction
}

// Build 构建文档。data 与 DSL 中的 data 段合并（data 优先），用于替换文本中的 ${path}。
func Build(doc *dsl.Document, data any, opts Options) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	res := &Result{Name: doc.Name}

	var (
		normSec *dsl.NormSection
		body    *dsl.BodySection
		edits   *dsl.EditsSection
		inline  = map[string]any{}
	)
	for _, sec := range doc.Sections {
		switch {
		case sec.Meta != nil:
			meta, err := buildMeta(sec.Meta.Block)
			if err != nil {
				return nil, fmt.Errorf("meta: %w", err)
			}
			res.Meta = meta
		case sec.Data != nil:
			for _, st := range sec.Data.Block.Statements {
				if st.Assignment == nil {
					return nil, fmt.Errorf("data: 只允许 key: value 形式")
				}
				inline[st.Assignment.Key] = valueAny(st.Assignment.Value)
			}
		case sec.Norm != nil:
			normSec = sec.Norm
		case sec.Body != nil:
			body = sec.Body
		case sec.Edits != nil:
			edits = sec.Edits
		}
	}
	res.Data = binding.Merge(inline, data)
	for _, f := range []*string{&res.Meta.Title, &res.Meta.Author, &res.Meta.Subject} {
		*f = binding.Interpolate(*f, res.Data)
	}

	n, err := buildNorm(normSec, opts)
	if err != nil {
		return nil, fmt.Errorf("norm: %w", err)
	}
	resolver, err := n.Compile()
	if err != nil {
		return nil, fmt.Errorf("norm: %w", err)
	}
	res.Norm, res.Resolver = n, resolver

	var blocks []*layout.Block
	if body != nil {
		if blocks, err = buildBlocks(body.Block, res.Data); err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
	}
	res.Document = layout.NewDocument(resolver.Geometry(), blocks...)

	if edits != nil {
		if res.Edits, err = buildEdits(edits.Block, res.Data); err != nil {
			return nil, fmt.Errorf("edits: %w", err)
		}
	}
	logger.Debugf("构建文档 %s: 规范 %s, %d 块, %d 个编辑", doc.Name, n.Name, len(blocks), len(res.Edits))
	return res, nil
}

func buildMeta(block *dsl.Block) (layout.DocumentMeta, error) {
	var meta layout.DocumentMeta
	for _, st := range block.Statements {
		a := st.Assignment
		if a == nil {
			return meta, fmt.Errorf("只允许 key: value 形式")
		}
		switch strings.ToLower(a.Key) {
		case "title":
			meta.Title = valueString(a.Value)
		case "author":
			meta.Author = valueString(a.Value)
		case "subject":
			meta.Subject = valueString(a.Value)
		case "creator":
			meta.Creator = valueString(a.Value)
		case "keywords":
			meta.Keywords = valueStrings(a.Value)
		default:
			return meta, fmt.Errorf("未知字段 %q", a.Key)
		}
	}
	return meta, nil
}

func buildNorm(sec *dsl.NormSection, opts Options) (norm.Norm, error) {
	var (
		n   norm.Norm
		err error
	)
	switch {
	case opts.Norm != nil:
		n = *opts.Norm
	case sec == nil:
		n = norm.Default(1)
	default:
		scale := 1.0
		if sec.Scale != nil {
			if scale, err = strconv.ParseFloat(*sec.Scale, 64); err != nil {
				return n, fmt.Errorf("缩放系数 %q 无效: %w", *sec.Scale, err)
			}
		}
		if n, err = norm.Preset(sec.Name, scale); err != nil {
			return n, err
		}
		if sec.Block != nil {
			if err := applyNormOverrides(&n, sec.Block); err != nil {
				return n, err
			}
		}
	}
	if opts.Scale > 0 {
		n.Scale = opts.Scale
	}
	return n, nil
}

func applyNormOverrides(n *norm.Norm, block *dsl.Block) error {
	for _, st := range block.Statements {
		switch {
		case st.Assignment != nil:
			a := st.Assignment
			switch strings.ToLower(a.Key) {
			case "lang":
				n.Lang = valueString(a.Value)
			case "name":
				n.Name = valueString(a.Value)
			default:
				return fmt.Errorf("未知字段 %q", a.Key)
			}
		case st.Command != nil:
			if err := applyNormCommand(n, st.Command); err != nil {
				return err
			}
		default:
			return fmt.Errorf("norm 中不允许文本")
		}
	}
	return nil
}

func applyNormCommand(n *norm.Norm, cmd *dsl.Command) error {
	props, err := properties(cmd.Block)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	switch cmd.Name {
	case "page":
		for key, v := range props {
			cm, err := lengthIn(v, layout.UnitCM)
			if err != nil {
				return fmt.Errorf("page.%s: %w", key, err)
			}
			switch key {
			case "width":
				n.Page.Width = cm
			case "height":
				n.Page.Height = cm
			default:
				return fmt.Errorf("page: 未知字段 %q", key)
			}
		}
	case "margins":
		for key, v := range props {
			cm, err := lengthIn(v, layout.UnitCM)
			if err != nil {
				return fmt.Errorf("margins.%s: %w", key, err)
			}
			switch key {
			case "left":
				n.Margins.Left = cm
			case "right":
				n.Margins.Right = cm
			case "top":
				n.Margins.Top = cm
			case "bottom":
				n.Margins.Bottom = cm
			default:
				return fmt.Errorf("margins: 未知字段 %q", key)
			}
		}
	case "style":
		if len(cmd.Args) == 0 {
			return fmt.Errorf("style 需要块类型名")
		}
		key := cmd.Args[0].Value
		if len(cmd.Args) > 1 {
			// style heading 2 → heading.2
			key += "." + cmd.Args[1].Value
		}
		if n.Styles == nil {
			n.Styles = map[string]norm.TextStyle{}
		}
		ts, ok := n.Styles[key]
		if !ok {
			// 新的标题级别从通用样式出发
			base, _, _ := strings.Cut(key, ".")
			ts = n.Styles[base]
		}
		if err := applyStyle(&ts, props); err != nil {
			return fmt.Errorf("style %s: %w", key, err)
		}
		n.Styles[key] = ts
	default:
		return fmt.Errorf("未知指令 %q", cmd.Name)
	}
	return nil
}

func applyStyle(ts *norm.TextStyle, props map[string]string) error {
	for key, v := range props {
		switch key {
		case "font", "family":
			ts.Font.Family = v
		case "weight":
			ts.Font.Weight = v
		case "size":
			pt, err := lengthIn(v, layout.UnitPT)
			if err != nil {
				return fmt.Errorf("size: %w", err)
			}
			ts.Font.Size = pt
		case "line-height":
			ts.LineHeight = v
		case "align", "text-align":
			ts.TextAlign = v
		case "spacing":
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("spacing %q 无效: %w", v, err)
			}
			ts.Spacing = f
		case "indent":
			ts.Indent = v
		case "transform":
			ts.Transform = v
		default:
			return fmt.Errorf("未知样式属性 %q", key)
		}
	}
	return nil
}

func properties(block *dsl.Block) (map[string]string, error) {
	props := map[string]string{}
	if block == nil {
		return props, nil
	}
	for _, st := range block.Statements {
		if st.Assignment == nil {
			return nil, fmt.Errorf("只允许 key: value 形式")
		}
		props[strings.ToLower(st.Assignment.Key)] = valueString(st.Assignment.Value)
	}
	return props, nil
}

// lengthIn 把带单位的长度换算为目标单位，无单位的数字视为目标单位。
func lengthIn(v string, unit layout.Unit) (float64, error) {
	l, err := layout.ParseRawLengthStr(v)
	if err != nil {
		return 0, err
	}
	if l.Unit == layout.UnitNone {
		return l.Value, nil
	}
	return l.To(unit), nil
}

func buildBlocks(block *dsl.Block, data any) ([]*layout.Block, error) {
	var blocks []*layout.Block
	for i, st := range block.Statements {
		cmd := st.Command
		if cmd == nil {
			return nil, fmt.Errorf("第 %d 项: 文本必须位于块内", i+1)
		}
		kind, err := layout.ParseKind(cmd.Name)
		if err != nil {
			return nil, fmt.Errorf("第 %d 项: %w", i+1, err)
		}
		variant := 0
		if len(cmd.Args) > 0 {
			if variant, err = strconv.Atoi(cmd.Args[0].Value); err != nil {
				return nil, fmt.Errorf("第 %d 项: 变体 %q 无效", i+1, cmd.Args[0].Raw)
			}
		}
		text := binding.Interpolate(strings.Join(cmd.Texts(), " "), data)
		blocks = append(blocks, layout.NewBlock(kind, variant, text))
	}
	return blocks, nil
}

func buildEdits(block *dsl.Block, data any) ([]*editor.Transaction, error) {
	var out []*editor.Transaction
	for _, st := range block.Statements {
		cmd := st.Command
		if cmd == nil {
			return nil, fmt.Errorf("第 %d 行: 需要编辑指令", lineOf(st))
		}
		switch cmd.Name {
		case "tx", "compose":
			if cmd.Block == nil {
				return nil, fmt.Errorf("第 %d 行: %s 需要 { ... }", cmd.Pos.Line, cmd.Name)
			}
			tr := editor.NewTransaction().Compose(cmd.Name == "compose")
			for _, inner := range cmd.Block.Statements {
				if inner.Command == nil {
					return nil, fmt.Errorf("第 %d 行: 需要编辑指令", cmd.Pos.Line)
				}
				if err := addStep(tr, inner.Command, data); err != nil {
					return nil, err
				}
			}
			out = append(out, tr)
		default:
			tr := editor.NewTransaction()
			if err := addStep(tr, cmd, data); err != nil {
				return nil, err
			}
			out = append(out, tr)
		}
	}
	return out, nil
}

func addStep(tr *editor.Transaction, cmd *dsl.Command, data any) error {
	args := cmd.Args
	ints := func(n int) ([]int, error) {
		if len(args) < n {
			return nil, fmt.Errorf("第 %d 行: %s 需要 %d 个位置参数", cmd.Pos.Line, cmd.Name, n)
		}
		out := make([]int, n)
		for i := 0; i < n; i++ {
			v, err := strconv.Atoi(args[i].Value)
			if err != nil {
				return nil, fmt.Errorf("第 %d 行: 位置 %q 无效", cmd.Pos.Line, args[i].Raw)
			}
			out[i] = v
		}
		return out, nil
	}

	switch cmd.Name {
	case "select":
		p, err := ints(1)
		if err != nil {
			return err
		}
		sel := layout.Collapsed(p[0])
		if len(args) > 1 {
			if p, err = ints(2); err != nil {
				return err
			}
			sel = layout.Selection{Anchor: p[0], Head: p[1]}
		}
		tr.Select(sel)
	case "insert":
		p, err := ints(1)
		if err != nil {
			return err
		}
		if len(args) != 2 || args[1].Type != "String" {
			return fmt.Errorf("第 %d 行: insert 需要位置与字符串", cmd.Pos.Line)
		}
		tr.Insert(p[0], binding.Interpolate(args[1].Value, data))
	case "delete":
		p, err := ints(2)
		if err != nil {
			return err
		}
		tr.Delete(p[0], p[1])
	case "enter":
		p, err := ints(1)
		if err != nil {
			return err
		}
		tr.Split(p[0])
	case "kind":
		p, err := ints(1)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return fmt.Errorf("第 %d 行: kind 需要块类型", cmd.Pos.Line)
		}
		kind, err := layout.ParseKind(args[1].Value)
		if err != nil {
			return fmt.Errorf("第 %d 行: %w", cmd.Pos.Line, err)
		}
		variant := 0
		if len(args) > 2 {
			if variant, err = strconv.Atoi(args[2].Value); err != nil {
				return fmt.Errorf("第 %d 行: 变体 %q 无效", cmd.Pos.Line, args[2].Raw)
			}
		}
		tr.SetKind(p[0], kind, variant)
	default:
		return fmt.Errorf("第 %d 行: 未知编辑指令 %q", cmd.Pos.Line, cmd.Name)
	}
	return nil
}

func lineOf(st *dsl.Statement) int {
	if st.Command != nil {
		return st.Command.Pos.Line
	}
	return 0
}
