package binding

import "testing"

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"user":  map[string]any{"name": "Ana", "tags": []any{"a", "b"}},
		"pages": float64(42),
		"empty": nil,
	}
	cases := []struct {
		in, want string
	}{
		{"Olá, ${user.name}!", "Olá, Ana!"},
		{"${user.tags[1]}", "b"},
		{"${pages} páginas", "42 páginas"},
		{"${missing}", "${missing}"},
		{"${missing|sem título}", "sem título"},
		{"${user.name|x}", "Ana"},
		{"[${empty}]", "[]"},
		{"${ }", "${ }"},
		{"${user.tags[9]|-}", "-"},
	}
	for _, c := range cases {
		if got := Interpolate(c.in, data); got != c.want {
			t.Errorf("Interpolate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInterpolateWithoutData(t *testing.T) {
	if got := Interpolate("${a|padrão} ${b}", nil); got != "padrão ${b}" {
		t.Fatalf("got %q", got)
	}
}

func TestMerge(t *testing.T) {
	m := Merge(map[string]any{"a": "1", "b": "2"}, "ignored", map[string]any{"b": "3"})
	if m["a"] != "1" || m["b"] != "3" || len(m) != 2 {
		t.Fatalf("unexpected merge %v", m)
	}
	if v, ok := Lookup(map[string]any{"m": map[string]string{"k": "v"}}, "m.k"); !ok || v != "v" {
		t.Fatalf("lookup through map[string]string failed: %v %v", v, ok)
	}
}
