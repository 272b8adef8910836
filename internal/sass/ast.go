// Package sass compiles the indented Sass syntax into plain CSS.
//
// The supported language covers what hand-written site stylesheets use:
// variables, maps, nesting with parent references, nested properties,
// partial imports, mixins with default arguments and content blocks,
// @function, @extend with placeholders, the control directives @if, @each,
// @for and @while, media query bubbling, interpolation, arithmetic and a set
// of builtin functions. The module system (@use, @forward), @at-root and
// @supports are rejected with a positioned error.
package sass

import "fmt"

// Pos is a position in a source file. Line and Column are 1-based.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Stylesheet is the flattened CSS produced by compilation.
type Stylesheet struct {
	Nodes []Node
}

// Node is a top-level or media-nested CSS statement: *Rule or *AtRule.
type Node interface {
	Position() Pos
}

// Rule is a style rule with its resolved selectors.
type Rule struct {
	Selectors []string
	Decls     []Decl
	Pos       Pos
}

// Position implements Node.
func (r *Rule) Position() Pos { return r.Pos }

// Decl is a single property declaration with its evaluated value.
type Decl struct {
	Property string
	Value    string
	Pos      Pos
}

// AtRule is an at-rule. Rules nested in @media and @keyframes live in Nodes;
// descriptor blocks such as @font-face use Decls. Statements without a block
// (@charset, @import) have Block set to false.
type AtRule struct {
	Name   string
	Params string
	Nodes  []Node
	Decls  []Decl
	Block  bool
	Pos    Pos
}

// Position implements Node.
func (a *AtRule) Position() Pos { return a.Pos }

// IsKeyframes reports whether the at-rule is a (possibly prefixed) @keyframes.
func (a *AtRule) IsKeyframes() bool {
	return a.Name == "keyframes" || (len(a.Name) > 10 && a.Name[len(a.Name)-10:] == "-keyframes")
}

// Walk calls fn for every declaration list in the stylesheet, including
// those nested in at-rules.
func (s *Stylesheet) Walk(fn func(decls []Decl) []Decl) {
	walkNodes(s.Nodes, fn)
}

func walkNodes(nodes []Node, fn func(decls []Decl) []Decl) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Rule:
			n.Decls = fn(n.Decls)
		case *AtRule:
			if len(n.Decls) > 0 {
				n.Decls = fn(n.Decls)
			}
			walkNodes(n.Nodes, fn)
		}
	}
}
