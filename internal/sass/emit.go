package sass

import (
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"github.com/yacobolo/assetpipe/internal/sourcemap"
)

// SourceFunc returns the name recorded in the source map for a compiled
// file together with its content.
type SourceFunc func(file string) (name, content string)

type emitter struct {
	min    *minify.M
	sb     strings.Builder
	col    int
	smap   *sourcemap.Builder
	source SourceFunc
}

// Emit renders the stylesheet as compressed CSS on a single line. When smap
// is non-nil a mapping is recorded for every rule and declaration.
func Emit(sheet *Stylesheet, smap *sourcemap.Builder, source SourceFunc) []byte {
	m := minify.New()
	// exponent notation such as 1e3px is not understood by CSS2 engines
	m.Add("text/css", &css.Minifier{KeepCSS2: true})

	if source == nil {
		source = func(file string) (string, string) { return file, "" }
	}
	e := &emitter{min: m, smap: smap, source: source}
	e.nodes(sheet.Nodes)
	return []byte(e.sb.String())
}

func (e *emitter) write(s string) {
	e.sb.WriteString(s)
	for _, r := range s {
		if r >= 0x10000 {
			e.col += 2
		} else {
			e.col++
		}
	}
}

func (e *emitter) mark(pos Pos) {
	if e.smap == nil || pos.File == "" {
		return
	}
	name, content := e.source(pos.File)
	e.smap.Add(sourcemap.Mapping{
		GenLine: 0,
		GenCol:  e.col,
		Source:  e.smap.AddSource(name, content),
		SrcLine: pos.Line - 1,
		SrcCol:  pos.Column - 1,
	})
}

func (e *emitter) nodes(nodes []Node) {
	for _, n := range nodes {
		if !hasOutput(n) {
			continue
		}
		switch n := n.(type) {
		case *Rule:
			e.rule(n)
		case *AtRule:
			e.atRule(n)
		}
	}
}

func hasOutput(n Node) bool {
	switch n := n.(type) {
	case *Rule:
		return len(n.Selectors) > 0 && len(n.Decls) > 0
	case *AtRule:
		if !n.Block {
			return true
		}
		if len(n.Decls) > 0 {
			return true
		}
		for _, child := range n.Nodes {
			if hasOutput(child) {
				return true
			}
		}
	}
	return false
}

func (e *emitter) rule(r *Rule) {
	e.mark(r.Pos)
	e.write(compressSelectors(r.Selectors))
	e.block(r.Decls)
}

func (e *emitter) block(decls []Decl) {
	e.write("{")
	for i, d := range decls {
		if i > 0 {
			e.write(";")
		}
		e.mark(d.Pos)
		e.write(e.decl(d))
	}
	e.write("}")
}

func (e *emitter) decl(d Decl) string {
	raw := d.Property + ":" + d.Value
	if strings.HasPrefix(d.Property, "--") {
		return raw
	}
	out, err := e.min.String("text/css;inline=1", raw)
	if err != nil || out == "" {
		return raw
	}
	return strings.TrimSuffix(out, ";")
}

func (e *emitter) atRule(a *AtRule) {
	e.mark(a.Pos)
	e.write("@" + a.Name)
	if a.Params != "" {
		params := a.Params
		if a.Name == "media" {
			params = compressMedia(params)
		}
		e.write(" " + params)
	}
	switch {
	case !a.Block:
		e.write(";")
	case len(a.Decls) > 0:
		e.block(a.Decls)
	default:
		e.write("{")
		e.nodes(a.Nodes)
		e.write("}")
	}
}

func compressSelectors(selectors []string) string {
	out := make([]string, len(selectors))
	for i, s := range selectors {
		s = collapseSpaces(s)
		for _, comb := range []string{">", "+", "~"} {
			s = strings.ReplaceAll(s, " "+comb+" ", comb)
			s = strings.ReplaceAll(s, " "+comb, comb)
			s = strings.ReplaceAll(s, comb+" ", comb)
		}
		out[i] = s
	}
	return strings.Join(out, ",")
}

func compressMedia(q string) string {
	q = collapseSpaces(q)
	q = strings.ReplaceAll(q, ": ", ":")
	q = strings.ReplaceAll(q, ", ", ",")
	return q
}
