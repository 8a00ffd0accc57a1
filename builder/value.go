package builder

import (
	"strconv"
	"strings"

	"github.com/ByLCY/quire/dsl"
)

// valueString 把属性值转为字符串；表达式按原始记号以空格连接。
func valueString(v *dsl.Value) string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Expr != nil:
		parts := make([]string, 0, len(v.Expr.Parts))
		for _, p := range v.Expr.Parts {
			parts = append(parts, p.Value)
		}
		return strings.Join(parts, " ")
	case v.Array != nil:
		return strings.Join(valueStrings(v), ", ")
	default:
		return ""
	}
}

func valueStrings(v *dsl.Value) []string {
	if v == nil {
		return nil
	}
	if v.Array == nil {
		return []string{valueString(v)}
	}
	out := make([]string, 0, len(v.Array.Values))
	for _, item := range v.Array.Values {
		out = append(out, valueString(item))
	}
	return out
}

// valueAny 把 data 段中的值转为与 JSON 解码结果一致的类型。
func valueAny(v *dsl.Value) any {
	switch {
	case v == nil:
		return nil
	case v.Number != nil:
		if f, err := strconv.ParseFloat(*v.Number, 64); err == nil {
			return f
		}
		return *v.Number
	case v.Array != nil:
		out := make([]any, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			out = append(out, valueAny(item))
		}
		return out
	case v.Object != nil:
		out := make(map[string]any, len(v.Object.Entries))
		for _, a := range v.Object.Entries {
			out[a.Key] = valueAny(a.Value)
		}
		return out
	default:
		return valueString(v)
	}
}
