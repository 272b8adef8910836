package sass

import (
	"slices"
	"strings"
)

// maxExtendedSelectors bounds the selector list of a single rule after
// @extend has been applied.
const maxExtendedSelectors = 1000

// extension records one "@extend target" and the selectors of the rule it
// appeared in.
type extension struct {
	target    string
	extenders []string
	media     string
	optional  bool
	matched   bool
	pos       Pos
}

func (c *compiler) extend(l *line, params string, ctx *context) error {
	if ctx.selectors == nil || ctx.keyframes {
		return errorf(l.pos, "@extend may only be used within style rules")
	}
	params, err := substituteVars(params, ctx.scope, l.pos)
	if err != nil {
		return err
	}
	optional := false
	if strings.HasSuffix(params, "!optional") {
		optional = true
		params = strings.TrimSpace(strings.TrimSuffix(params, "!optional"))
	}

	for _, target := range splitTopLevel(params, ',') {
		target = collapseSpaces(target)
		if target == "" {
			return errorf(l.pos, "expected a selector to extend")
		}
		if compounds, _ := splitCompounds(target); len(compounds) != 1 {
			return errorf(l.pos, "can't extend complex selector %s", target)
		}
		c.extends = append(c.extends, &extension{
			target:    target,
			extenders: slices.Clone(ctx.selectors),
			media:     ctx.media,
			optional:  optional,
			pos:       l.pos,
		})
	}
	return nil
}

// applyExtends adds the extending selectors to every rule that matches an
// extension target. Extensions declared in @media only apply within the
// same query.
func (c *compiler) applyExtends() error {
	if len(c.extends) == 0 {
		return nil
	}
	for _, n := range c.result.Sheet.Nodes {
		switch n := n.(type) {
		case *Rule:
			n.Selectors = c.extendSelectors(n.Selectors, "")
		case *AtRule:
			if n.Name != "media" {
				continue
			}
			for _, child := range n.Nodes {
				if r, ok := child.(*Rule); ok {
					r.Selectors = c.extendSelectors(r.Selectors, n.Params)
				}
			}
		}
	}
	for _, ext := range c.extends {
		if !ext.matched && !ext.optional {
			return errorf(ext.pos, "the target selector %s was not found; use \"@extend %s !optional\" to avoid this error", ext.target, ext.target)
		}
	}
	return nil
}

func (c *compiler) extendSelectors(selectors []string, media string) []string {
	out := slices.Clone(selectors)
	seen := make(map[string]bool, len(out))
	for _, s := range out {
		seen[s] = true
	}
	// selectors added by one extension can match further extensions
	for i := 0; i < len(out) && len(out) < maxExtendedSelectors; i++ {
		for _, ext := range c.extends {
			if ext.media != "" && ext.media != media {
				continue
			}
			generated, found := extendSelector(out[i], ext)
			if found {
				ext.matched = true
			}
			for _, s := range generated {
				if !seen[s] {
					seen[s] = true
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// extendSelector returns the selectors produced by replacing ext.target in
// sel with each extender. An extender's leading compounds are placed
// before the compound that matched.
func extendSelector(sel string, ext *extension) (generated []string, found bool) {
	comps, combs := splitCompounds(sel)
	for j, comp := range comps {
		idx := findSimple(comp, ext.target)
		if idx < 0 {
			continue
		}
		found = true
		for _, e := range ext.extenders {
			eComps, eCombs := splitCompounds(e)
			merged, ok := mergeCompound(comp, idx, ext.target, eComps[len(eComps)-1])
			if !ok {
				continue
			}
			newComps := concatStrings(comps[:j], eComps[:len(eComps)-1], []string{merged}, comps[j+1:])
			newCombs := concatStrings(combs[:j], eCombs, combs[j:])
			generated = append(generated, joinCompounds(newComps, newCombs))
		}
	}
	return generated, found
}

// splitCompounds splits a complex selector into its compound selectors and
// the combinators between them (" ", " > ", " + " or " ~ ").
func splitCompounds(sel string) (compounds, combinators []string) {
	var cur strings.Builder
	var quote byte
	depth := 0
	pending := ""

	for i := 0; i < len(sel); i++ {
		ch := sel[i]
		if quote == 0 && depth == 0 && (ch == ' ' || ch == '>' || ch == '+' || ch == '~') {
			if cur.Len() > 0 {
				compounds = append(compounds, cur.String())
				cur.Reset()
			}
			if ch != ' ' {
				pending = string(ch)
			}
			continue
		}
		if cur.Len() == 0 && (len(compounds) > 0 || pending != "") {
			if len(compounds) == 0 {
				compounds = append(compounds, "")
			}
			combinators = append(combinators, combinatorText(pending))
			pending = ""
		}

		switch {
		case quote != 0:
			if ch == '\\' && i+1 < len(sel) {
				cur.WriteByte(ch)
				i++
				ch = sel[i]
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(' || ch == '[':
			depth++
		case (ch == ')' || ch == ']') && depth > 0:
			depth--
		}
		cur.WriteByte(ch)
	}
	if cur.Len() > 0 || len(compounds) == 0 {
		compounds = append(compounds, cur.String())
	}
	return compounds, combinators
}

func combinatorText(c string) string {
	if c == "" {
		return " "
	}
	return " " + c + " "
}

func joinCompounds(compounds, combinators []string) string {
	var sb strings.Builder
	for i, c := range compounds {
		if i > 0 {
			sb.WriteString(combinators[i-1])
		}
		sb.WriteString(c)
	}
	return sb.String()
}

// findSimple returns the index of target within compound when it appears
// there as a whole simple selector, or -1.
func findSimple(compound, target string) int {
	for from := 0; from < len(compound); {
		i := strings.Index(compound[from:], target)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(target)
		if (end == len(compound) || !isNameChar(compound[end])) && (!isTypeStart(target[0]) || i == 0) {
			return i
		}
		from = i + 1
	}
	return -1
}

// mergeCompound replaces the target at idx in compound with the extender
// compound ext. It fails when both name a different element type.
func mergeCompound(compound string, idx int, target, ext string) (string, bool) {
	extType, extRest := splitType(ext)
	out := compound[:idx] + extRest + compound[idx+len(target):]
	if extType == "" {
		return out, out != ""
	}
	switch outType, _ := splitType(out); outType {
	case "":
		return extType + out, true
	case extType:
		return out, true
	}
	return "", false
}

// splitType splits the leading type selector off a compound selector.
func splitType(compound string) (typ, rest string) {
	if compound == "" {
		return "", ""
	}
	if compound[0] == '*' {
		return "*", compound[1:]
	}
	if !isTypeStart(compound[0]) {
		return "", compound
	}
	i := 0
	for i < len(compound) && isNameChar(compound[i]) {
		i++
	}
	return compound[:i], compound[i:]
}

func isTypeStart(b byte) bool {
	return b == '*' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameChar(b byte) bool {
	return b == '-' || b == '_' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// dropPlaceholders removes placeholder selectors, which are never emitted.
func dropPlaceholders(nodes []Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Rule:
			n.Selectors = visibleSelectors(n.Selectors)
		case *AtRule:
			if n.Name == "media" {
				dropPlaceholders(n.Nodes)
			}
		}
	}
}

// concatStrings returns a new slice holding the elements of all parts in
// order (slices.Concat is unavailable before Go 1.22).
func concatStrings(parts ...[]string) []string {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]string, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
