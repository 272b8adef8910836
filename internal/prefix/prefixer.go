// Package prefix adds vendor-prefixed declarations to compiled stylesheets
// for a browserslist-style set of target browsers.
package prefix

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/yacobolo/assetpipe/internal/sass"
)

// Prefixer rewrites declarations for one set of targets.
type Prefixer struct {
	targets   []Target
	props     map[string][]string
	gradients []string
	oldWebkit bool
	keyframes []string
	flex2009  bool
	flexFinal bool
	flexIE    bool
}

// New resolves the browser query and precomputes the prefixes it needs.
func New(query string) (*Prefixer, error) {
	targets, err := Resolve(query)
	if err != nil {
		return nil, fmt.Errorf("browsers %q: %w", query, err)
	}

	p := &Prefixer{targets: targets, props: make(map[string][]string)}
	for _, f := range append(slices.Clone(propertyFeatures), flexboxIE...) {
		for _, prop := range f.props {
			for _, n := range f.needs {
				if !p.matches(n) {
					continue
				}
				name := prop
				if n.name != "" {
					name = n.name
				}
				if !slices.Contains(p.props[prop], n.prefix+name) {
					p.props[prop] = append(p.props[prop], n.prefix+name)
				}
			}
		}
	}
	for prop := range p.props {
		slices.SortStableFunc(p.props[prop], func(a, b string) int {
			return prefixRank(a) - prefixRank(b)
		})
	}

	p.gradients = p.prefixesFor(gradients)
	p.oldWebkit = len(p.prefixesFor(oldWebkitGradients)) > 0
	p.keyframes = p.prefixesFor(animations)
	p.flex2009 = len(p.prefixesFor(displayFlex2009)) > 0
	p.flexFinal = len(p.prefixesFor(flexbox)) > 0
	p.flexIE = len(p.prefixesFor(displayFlexIE)) > 0
	return p, nil
}

// Targets returns the resolved browser releases.
func (p *Prefixer) Targets() []Target {
	return p.targets
}

// Prefixed returns the prefixed property names emitted for prop, in output
// order.
func (p *Prefixer) Prefixed(prop string) []string {
	return p.props[strings.ToLower(prop)]
}

func (p *Prefixer) matches(n need) bool {
	for _, t := range p.targets {
		if t.Browser != n.browser {
			continue
		}
		if n.from != "" && t.Version.Compare(mustVersion(n.from)) < 0 {
			continue
		}
		if n.to != "" && t.Version.Compare(mustVersion(n.to)) > 0 {
			continue
		}
		return true
	}
	return false
}

func (p *Prefixer) prefixesFor(f feature) []string {
	var out []string
	for _, pre := range prefixOrder {
		for _, n := range f.needs {
			if n.prefix == pre && p.matches(n) {
				out = append(out, pre)
				break
			}
		}
	}
	return out
}

func prefixRank(name string) int {
	for i, pre := range prefixOrder {
		if strings.HasPrefix(name, pre) {
			return i
		}
	}
	return len(prefixOrder)
}

func vendorOf(name string) string {
	for _, pre := range prefixOrder {
		if strings.HasPrefix(name, pre) {
			return pre
		}
	}
	return ""
}

// Process adds prefixed declarations and @keyframes copies in place.
func (p *Prefixer) Process(sheet *sass.Stylesheet) {
	sheet.Nodes = p.nodes(sheet.Nodes, "")
}

// nodes prefixes a node list. When only is set, just that vendor's
// prefixes are added, as inside a prefixed @keyframes block.
func (p *Prefixer) nodes(nodes []sass.Node, only string) []sass.Node {
	out := make([]sass.Node, 0, len(nodes))
	for _, n := range nodes {
		switch n := n.(type) {
		case *sass.Rule:
			n.Decls = p.decls(n.Decls, only)
		case *sass.AtRule:
			inner := only
			if n.IsKeyframes() {
				if v := vendorOf(n.Name); v != "" {
					inner = v
				} else if only == "" {
					for _, pre := range p.keyframes {
						if !hasKeyframes(nodes, pre+"keyframes", n.Params) {
							out = append(out, p.keyframesCopy(n, pre))
						}
					}
				}
			}
			if len(n.Decls) > 0 {
				n.Decls = p.decls(n.Decls, inner)
			}
			n.Nodes = p.nodes(n.Nodes, inner)
		}
		out = append(out, n)
	}
	return out
}

func hasKeyframes(nodes []sass.Node, name, params string) bool {
	for _, n := range nodes {
		if a, ok := n.(*sass.AtRule); ok && a.Name == name && a.Params == params {
			return true
		}
	}
	return false
}

func (p *Prefixer) keyframesCopy(a *sass.AtRule, pre string) *sass.AtRule {
	cp := &sass.AtRule{Name: pre + "keyframes", Params: a.Params, Block: true, Pos: a.Pos}
	for _, n := range a.Nodes {
		if r, ok := n.(*sass.Rule); ok {
			cp.Nodes = append(cp.Nodes, &sass.Rule{
				Selectors: slices.Clone(r.Selectors),
				Decls:     slices.Clone(r.Decls),
				Pos:       r.Pos,
			})
		}
	}
	cp.Nodes = p.nodes(cp.Nodes, pre)
	return cp
}

func (p *Prefixer) decls(decls []sass.Decl, only string) []sass.Decl {
	out := make([]sass.Decl, 0, len(decls))
	for _, d := range decls {
		for _, extra := range p.expand(d, decls, only) {
			if !hasDecl(out, extra) && !hasDecl(decls, extra) {
				out = append(out, extra)
			}
		}
		out = append(out, d)
	}
	return out
}

// hasDecl reports whether d is already present. Prefixed properties match
// by name; value prefixes match by name and value.
func hasDecl(decls []sass.Decl, d sass.Decl) bool {
	for _, o := range decls {
		if !strings.EqualFold(o.Property, d.Property) {
			continue
		}
		if strings.HasPrefix(d.Property, "-") || o.Value == d.Value {
			return true
		}
	}
	return false
}

func allowed(pre, only string) bool {
	return only == "" || pre == only
}

func (p *Prefixer) expand(d sass.Decl, siblings []sass.Decl, only string) []sass.Decl {
	prop := strings.ToLower(d.Property)
	if strings.HasPrefix(prop, "-") {
		return nil
	}

	var out []sass.Decl
	for _, name := range p.props[prop] {
		pre := vendorOf(name)
		if !allowed(pre, only) {
			continue
		}
		value := d.Value
		if strings.HasPrefix(prop, "transition") {
			value = p.prefixTransitionValue(value, pre)
		}
		out = append(out, sass.Decl{Property: name, Value: value, Pos: d.Pos})
	}

	if prop == "display" {
		out = append(out, p.displayValues(d, only)...)
	}

	if gradientProps[prop] && hasGradient(d.Value) {
		if p.oldWebkit && allowed(webkit, only) {
			if v, ok := oldWebkitGradient(d.Value); ok {
				out = append(out, sass.Decl{Property: d.Property, Value: v, Pos: d.Pos})
			}
		}
		for _, pre := range p.gradients {
			if allowed(pre, only) {
				out = append(out, sass.Decl{Property: d.Property, Value: prefixGradients(d.Value, pre), Pos: d.Pos})
			}
		}
	}
	return out
}

func (p *Prefixer) displayValues(d sass.Decl, only string) []sass.Decl {
	var values []string
	switch strings.ToLower(strings.TrimSpace(d.Value)) {
	case "flex":
		if p.flex2009 {
			values = append(values, "-webkit-box")
		}
		if p.flexFinal {
			values = append(values, "-webkit-flex")
		}
		if p.flexIE {
			values = append(values, "-ms-flexbox")
		}
	case "inline-flex":
		if p.flex2009 {
			values = append(values, "-webkit-inline-box")
		}
		if p.flexFinal {
			values = append(values, "-webkit-inline-flex")
		}
		if p.flexIE {
			values = append(values, "-ms-inline-flexbox")
		}
	}

	var out []sass.Decl
	for _, v := range values {
		if allowed(vendorOf(v), only) {
			out = append(out, sass.Decl{Property: d.Property, Value: v, Pos: d.Pos})
		}
	}
	return out
}

type token struct {
	tt   css.TokenType
	text string
}

func lex(s string) []token {
	var toks []token
	l := css.NewLexer(parse.NewInputString(s))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return toks
		}
		toks = append(toks, token{tt: tt, text: string(data)})
	}
}

// prefixTransitionValue prefixes property names inside a transition value
// that need the same vendor prefix, e.g. "transform 1s" becomes
// "-webkit-transform 1s" for -webkit-transition.
func (p *Prefixer) prefixTransitionValue(value, pre string) string {
	var sb strings.Builder
	for _, t := range lex(value) {
		if t.tt == css.IdentToken && slices.Contains(p.props[strings.ToLower(t.text)], pre+strings.ToLower(t.text)) {
			sb.WriteString(pre)
		}
		sb.WriteString(t.text)
	}
	return sb.String()
}

func isGradient(fn string) bool {
	switch fn {
	case "linear-gradient", "radial-gradient", "repeating-linear-gradient", "repeating-radial-gradient":
		return true
	}
	return false
}

func hasGradient(value string) bool {
	for _, t := range lex(value) {
		if t.tt == css.FunctionToken && isGradient(strings.ToLower(strings.TrimSuffix(t.text, "("))) {
			return true
		}
	}
	return false
}

var oppositeSide = map[string]string{
	"top": "bottom", "bottom": "top", "left": "right", "right": "left",
}

// prefixGradients rewrites gradient functions to their prefixed form. The
// prefixed linear syntax names the side the gradient starts from and
// measures angles counterclockwise from east, so directions are converted.
func prefixGradients(value, pre string) string {
	toks := lex(value)
	var sb strings.Builder
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		name := strings.ToLower(strings.TrimSuffix(t.text, "("))
		if t.tt != css.FunctionToken || !isGradient(name) {
			sb.WriteString(t.text)
			continue
		}
		sb.WriteString(pre + t.text)
		if strings.HasSuffix(name, "linear-gradient") {
			i = convertDirection(toks, i+1, &sb) - 1
		}
	}
	return sb.String()
}

// convertDirection writes the converted first argument of a linear
// gradient and returns the index of the first token it did not consume.
func convertDirection(toks []token, start int, sb *strings.Builder) int {
	end := start
	var words []token
	for ; end < len(toks); end++ {
		t := toks[end]
		if t.tt == css.CommaToken || t.tt == css.RightParenthesisToken || t.tt == css.FunctionToken || t.tt == css.LeftParenthesisToken {
			break
		}
		if t.tt != css.WhitespaceToken {
			words = append(words, t)
		}
	}
	if end >= len(toks) || toks[end].tt != css.CommaToken || len(words) == 0 {
		return start
	}

	if words[0].tt == css.IdentToken && strings.EqualFold(words[0].text, "to") && len(words) > 1 {
		sides := make([]string, 0, len(words)-1)
		for _, w := range words[1:] {
			side, ok := oppositeSide[strings.ToLower(w.text)]
			if !ok {
				return start
			}
			sides = append(sides, side)
		}
		sb.WriteString(strings.Join(sides, " "))
		return end
	}

	if len(words) == 1 && words[0].tt == css.DimensionToken && strings.HasSuffix(strings.ToLower(words[0].text), "deg") {
		var deg float64
		if _, err := fmt.Sscanf(words[0].text[:len(words[0].text)-3], "%g", &deg); err != nil {
			return start
		}
		old := 450 - deg
		for old >= 360 {
			old -= 360
		}
		for old < 0 {
			old += 360
		}
		fmt.Fprintf(sb, "%gdeg", old)
		return end
	}
	return start
}
