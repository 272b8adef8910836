package sourcemap

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// alignWindow bounds how far ahead in the source a generated token is looked up.
const alignWindow = 256

type scriptToken struct {
	text string
	line int
	col  int
}

// ScriptMappings aligns the tokens of a minified script with the tokens of its
// source and returns one mapping per generated token that could be located.
// Renamed identifiers and rewritten literals have no counterpart and are left
// unmapped.
func ScriptMappings(source, generated []byte, sourceIndex int) []Mapping {
	src := lexScript(source)
	gen := lexScript(generated)

	var out []Mapping
	cursor := 0
	for _, g := range gen {
		limit := min(cursor+alignWindow, len(src))
		for i := cursor; i < limit; i++ {
			if src[i].text != g.text {
				continue
			}
			out = append(out, Mapping{
				GenLine: g.line,
				GenCol:  g.col,
				Source:  sourceIndex,
				SrcLine: src[i].line,
				SrcCol:  src[i].col,
			})
			cursor = i + 1
			break
		}
	}
	return out
}

func lexScript(data []byte) []scriptToken {
	var toks []scriptToken
	l := js.NewLexer(parse.NewInputBytes(data))
	line, col := 0, 0
	prev := ""

	for {
		tt, text := l.Next()
		if tt == js.ErrorToken {
			break
		}
		if (tt == js.DivToken || tt == js.DivEqToken) && regexpAllowed(prev) {
			tt, text = l.RegExp()
			if tt == js.ErrorToken {
				break
			}
		}

		s := string(text)
		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		default:
			toks = append(toks, scriptToken{text: s, line: line, col: col})
			prev = s
		}
		line, col = advance(s, line, col)
	}
	return toks
}

func advance(s string, line, col int) (int, int) {
	for _, r := range s {
		switch r {
		case '\n', '\u2028', '\u2029':
			line++
			col = 0
		case '\r':
		default:
			col++
		}
	}
	return line, col
}

var regexpKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "instanceof": true, "new": true, "delete": true, "void": true,
	"throw": true, "yield": true, "await": true,
}

// regexpAllowed reports whether a slash following prev starts a regular
// expression literal rather than a division.
func regexpAllowed(prev string) bool {
	if prev == "" || regexpKeywords[prev] {
		return true
	}
	last := prev[len(prev)-1]
	return strings.IndexByte("(,=:[!&|?{};+-*%<>~^", last) >= 0
}
