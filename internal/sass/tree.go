package sass

import (
	"strings"
)

// line is one logical statement of the indented syntax together with the
// statements nested below it.
type line struct {
	text        string
	pos         Pos
	indent      int
	childIndent int
	children    []*line
}

// parseTree splits source into logical lines and nests them by indentation.
// Comments (and everything indented below them) are dropped here.
func parseTree(src, file string) ([]*line, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	raw := strings.Split(src, "\n")

	root := &line{indent: -1, childIndent: 0}
	stack := []*line{root}
	var indentChar byte

	for i := 0; i < len(raw); i++ {
		text := raw[i]
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}

		ws := text[:len(text)-len(strings.TrimLeft(text, " \t"))]
		pos := Pos{File: file, Line: i + 1, Column: len(ws) + 1}
		if ws != "" {
			if strings.Contains(ws, " ") && strings.Contains(ws, "\t") {
				return nil, errorf(pos, "indentation mixes tabs and spaces")
			}
			if indentChar == 0 {
				indentChar = ws[0]
			} else if ws[0] != indentChar {
				return nil, errorf(pos, "inconsistent indentation: expected %s", indentName(indentChar))
			}
		}
		indent := len(ws)

		if strings.HasPrefix(trimmed, "//") || (strings.HasPrefix(trimmed, "/*") && !strings.Contains(trimmed, "*/")) {
			i = skipIndentedBlock(raw, i, indent)
			continue
		}

		trimmed = stripInlineComments(trimmed)
		if trimmed == "" {
			continue
		}

		// Selector lists may continue on the following lines after a comma.
		for strings.HasSuffix(trimmed, ",") && i+1 < len(raw) {
			next := strings.TrimSpace(raw[i+1])
			if next == "" || strings.HasPrefix(next, "//") {
				break
			}
			i++
			trimmed += " " + stripInlineComments(next)
		}

		l := &line{text: trimmed, pos: pos, indent: indent, childIndent: -1}

		for len(stack) > 1 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		if parent.childIndent == -1 {
			parent.childIndent = indent
		} else if parent.childIndent != indent {
			return nil, errorf(pos, "inconsistent indentation: expected %d, got %d", parent.childIndent, indent)
		}

		parent.children = append(parent.children, l)
		stack = append(stack, l)
	}

	return root.children, nil
}

// skipIndentedBlock returns the index of the last line belonging to the
// block that starts at i.
func skipIndentedBlock(raw []string, i, indent int) int {
	for i+1 < len(raw) {
		next := raw[i+1]
		if strings.TrimSpace(next) == "" {
			i++
			continue
		}
		if len(next)-len(strings.TrimLeft(next, " \t")) <= indent {
			break
		}
		i++
	}
	return i
}

func indentName(c byte) string {
	if c == '\t' {
		return "tabs"
	}
	return "spaces"
}

// stripInlineComments removes trailing // comments and inline /* */ comments
// that are not inside strings or parentheses.
func stripInlineComments(s string) string {
	var sb strings.Builder
	var quote byte
	depth := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case c == '/' && depth == 0 && i+1 < len(s) && s[i+1] == '/':
			return strings.TrimSpace(sb.String())
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return strings.TrimSpace(sb.String())
			}
			i += end + 3
			continue
		}
		sb.WriteByte(c)
	}
	return strings.TrimSpace(sb.String())
}
