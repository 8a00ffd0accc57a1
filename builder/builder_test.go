package builder

import (
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/editor"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/norm"
)

const source = `
doc Tcc v1 {
  meta {
    title: "Trabalho"
    author: "${author}"
    keywords: ["abnt", "tcc"]
  }
  data {
    author: "Ana"
    year: 2024
  }
  norm abnt {
    lang: "pt-BR"
    style citation { size: 9pt; indent: 3cm }
    style heading 2 { weight: bold; transform: uppercase }
    margins { left: 2.5cm }
  }
  body {
    title { "Relatório ${year}" }
    heading 2 { "Resultados" }
    paragraph {
      "Primeira frase."
      "Segunda frase."
    }
    citation { "${missing|sem fonte}" }
  }
  edits {
    select 3
    insert 3 "${author}: "
    tx { delete 3 5; enter 4 }
    compose { insert 5 "e" }
    kind 5 heading 3
  }
}
`

func build(t *testing.T, src string, data any, opts Options) *Result {
	t.Helper()
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res, err := Build(doc, data, opts)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return res
}

func TestBuildDocument(t *testing.T) {
	res := build(t, source, map[string]any{"author": "Bia"}, Options{})

	if res.Meta.Title != "Trabalho" || res.Meta.Author != "Bia" || len(res.Meta.Keywords) != 2 || res.Meta.Keywords[1] != "tcc" {
		t.Fatalf("unexpected meta %+v", res.Meta)
	}
	if res.Data["author"] != "Bia" || res.Data["year"] != float64(2024) {
		t.Fatalf("external data should override inline data: %v", res.Data)
	}

	blocks := res.Document.Blocks()
	if len(blocks) != 4 || res.Document.PageCount() != 1 {
		t.Fatalf("expected 4 blocks on one page, got %d", len(blocks))
	}
	want := []struct {
		kind    layout.Kind
		variant int
		text    string
	}{
		{layout.KindTitle, 0, "Relatório 2024"},
		{layout.KindHeading, 2, "Resultados"},
		{layout.KindParagraph, 0, "Primeira frase. Segunda frase."},
		{layout.KindCitation, 0, "sem fonte"},
	}
	for i, w := range want {
		b := blocks[i]
		if b.Kind != w.kind || b.Variant != w.variant || b.Text != w.text || b.Measured() {
			t.Fatalf("block %d = %+v, want %+v", i, b, w)
		}
	}
}

func TestBuildNormOverrides(t *testing.T) {
	res := build(t, source, nil, Options{})
	if res.Norm.Name != "abnt" || res.Norm.Lang != "pt-BR" {
		t.Fatalf("unexpected norm %q", res.Norm.Name)
	}
	if res.Norm.Margins.Left != 2.5 || res.Norm.Margins.Right != 2 {
		t.Fatalf("margins not overridden: %+v", res.Norm.Margins)
	}

	citation, err := res.Resolver.Resolve(layout.KindCitation, 0)
	if err != nil {
		t.Fatalf("resolve citation: %v", err)
	}
	if math.Abs(citation.Font.Size.ToPT()-9) > 1e-9 || math.Abs(citation.Indent.To(layout.UnitCM)-3) > 1e-9 {
		t.Fatalf("citation overrides lost: %+v", citation)
	}
	if citation.Font.Family != "Times New Roman" {
		t.Fatalf("unspecified fields should keep preset values: %q", citation.Font.Family)
	}

	h2, err := res.Resolver.Resolve(layout.KindHeading, 2)
	if err != nil {
		t.Fatalf("resolve heading 2: %v", err)
	}
	h1, _ := res.Resolver.Resolve(layout.KindHeading, 1)
	if h2.Transform != layout.TransformUppercase || h1.Transform == layout.TransformUppercase {
		t.Fatalf("heading.2 override should not leak: h1=%v h2=%v", h1.Transform, h2.Transform)
	}

	geom := res.Document.Pages[0].Geometry
	if math.Abs(geom.Margin.Left.To(layout.UnitCM)-2.5) > 1e-9 {
		t.Fatalf("document geometry should follow the norm: %+v", geom.Margin)
	}
}

func TestBuildEdits(t *testing.T) {
	res := build(t, source, nil, Options{})
	if len(res.Edits) != 5 {
		t.Fatalf("expected 5 transactions, got %d", len(res.Edits))
	}
	if sel := res.Edits[0].Selection; sel == nil || *sel != layout.Collapsed(3) || res.Edits[0].DocChanged() {
		t.Fatalf("select should only move the selection: %+v", res.Edits[0])
	}
	if got := res.Edits[1].Steps[0]; got != (editor.InsertText{Pos: 3, Text: "Ana: "}) {
		t.Fatalf("insert step %+v", got)
	}
	tx := res.Edits[2]
	if len(tx.Steps) != 2 || tx.Steps[0] != (editor.DeleteRange{From: 3, To: 5}) || tx.Steps[1] != (editor.SplitBlock{Pos: 4}) || tx.Composing {
		t.Fatalf("tx should group steps: %+v", tx)
	}
	if !res.Edits[3].Composing {
		t.Fatalf("compose should mark the transaction as composing")
	}
	if got := res.Edits[4].Steps[0]; got != (editor.SetKind{Pos: 5, Kind: layout.KindHeading, Variant: 3}) {
		t.Fatalf("kind step %+v", got)
	}
}

func TestBuildOptions(t *testing.T) {
	custom := norm.Default(1)
	custom.Name = "custom"
	res := build(t, source, nil, Options{Norm: &custom, Scale: 2})
	if res.Norm.Name != "custom" || res.Norm.Scale != 2 {
		t.Fatalf("options should replace the DSL norm: %+v", res.Norm)
	}
	want := custom.Page.Width * 2
	if got := res.Document.Pages[0].Geometry.Width.To(layout.UnitCM); math.Abs(got-want) > 1e-9 {
		t.Fatalf("scaled width %g, want %g", got, want)
	}
}

func TestBuildDefaults(t *testing.T) {
	res := build(t, "doc Empty v1 {\n}\n", nil, Options{})
	if res.Document.PageCount() != 1 || len(res.Document.Blocks()) != 1 || len(res.Edits) != 0 {
		t.Fatalf("empty body should yield a single empty paragraph")
	}
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]string{
		"unknown kind":     `doc X v1 { body { figure { "x" } } }`,
		"unknown property": `doc X v1 { norm abnt { style paragraph { color: red } } }`,
		"unknown preset":   `doc X v1 { norm mla }`,
		"bad position":     `doc X v1 { edits { insert here "x" } }`,
		"missing text":     `doc X v1 { edits { insert 3 } }`,
		"unknown edit":     `doc X v1 { edits { undo } }`,
		"bare text":        `doc X v1 { body { "x" } }`,
	}
	for name, src := range cases {
		doc, err := dsl.ParseString(src)
		if err != nil {
			t.Fatalf("%s: parse failed: %v", name, err)
		}
		if _, err := Build(doc, nil, Options{}); err == nil {
			t.Errorf("%s: expected error", name)
		} else if !strings.Contains(err.Error(), ":") {
			t.Errorf("%s: error should carry context: %v", name, err)
		}
	}
}
