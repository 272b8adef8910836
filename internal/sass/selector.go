package sass

import "strings"

// topLevelIndex returns the index of the first sep outside of quotes,
// parentheses, brackets and interpolation, or -1.
func topLevelIndex(s string, sep byte) int {
	var quote byte
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case (c == ')' || c == ']' || c == '}') && depth > 0:
			depth--
		case c == sep && depth == 0:
			return i
		}
	}
	return -1
}

// splitTopLevel splits s at every top-level sep.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	for {
		i := topLevelIndex(s, sep)
		if i < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:i])
		s = s[i+1:]
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveSelectors combines the parent selector list with a nested one.
// Each child is joined to each parent, parents varying slowest; "&" is
// replaced by the parent instead of using a descendant combinator.
func resolveSelectors(parents []string, text string, pos Pos) ([]string, error) {
	var children []string
	for _, s := range splitTopLevel(text, ',') {
		s = collapseSpaces(s)
		if s == "" {
			return nil, errorf(pos, "empty selector in %q", text)
		}
		children = append(children, s)
	}

	if len(parents) == 0 {
		for _, s := range children {
			if strings.Contains(s, "&") {
				return nil, errorf(pos, "top-level selectors may not contain the parent selector \"&\"")
			}
		}
		return children, nil
	}

	out := make([]string, 0, len(parents)*len(children))
	for _, p := range parents {
		for _, s := range children {
			if strings.Contains(s, "&") {
				out = append(out, strings.ReplaceAll(s, "&", p))
			} else {
				out = append(out, p+" "+s)
			}
		}
	}
	return out, nil
}

// visibleSelectors drops placeholder selectors, which are never emitted.
func visibleSelectors(selectors []string) []string {
	out := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if !strings.Contains(s, "%") {
			out = append(out, s)
		}
	}
	return out
}
