package prefix

import (
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// oldWebkitGradient rewrites every linear-gradient in value to the
// -webkit-gradient(linear, ...) form. It reports false when value holds a
// gradient that form cannot express: radial and repeating gradients, angles
// other than multiples of 90deg and stops positioned in lengths.
func oldWebkitGradient(value string) (string, bool) {
	toks := lex(value)
	var sb strings.Builder
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		name := strings.ToLower(strings.TrimSuffix(t.text, "("))
		if t.tt != css.FunctionToken || !isGradient(name) {
			sb.WriteString(t.text)
			continue
		}
		if name != "linear-gradient" {
			return "", false
		}
		args, end := functionArgs(toks, i+1)
		if end < 0 {
			return "", false
		}
		out, ok := oldLinear(args)
		if !ok {
			return "", false
		}
		sb.WriteString(out)
		i = end
	}
	return sb.String(), true
}

// functionArgs splits the arguments of a function whose body starts at
// start. It returns the index of the closing parenthesis, or -1.
func functionArgs(toks []token, start int) ([][]token, int) {
	var args [][]token
	var cur []token
	depth := 0
	for i := start; i < len(toks); i++ {
		t := toks[i]
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			if depth == 0 {
				return append(args, trimSpace(cur)), i
			}
			depth--
		case css.CommaToken:
			if depth == 0 {
				args = append(args, trimSpace(cur))
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
	return nil, -1
}

func trimSpace(toks []token) []token {
	for len(toks) > 0 && toks[0].tt == css.WhitespaceToken {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].tt == css.WhitespaceToken {
		toks = toks[:len(toks)-1]
	}
	return toks
}

func render(toks []token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.text)
	}
	return sb.String()
}

func oldLinear(args [][]token) (string, bool) {
	from, to := "left top", "left bottom"
	stops := args
	if len(args) > 0 {
		start, end, isDirection, ok := oldPoints(args[0])
		if isDirection {
			if !ok {
				return "", false
			}
			from, to = start, end
			stops = args[1:]
		}
	}
	if len(stops) < 2 {
		return "", false
	}

	parts := []string{"linear", from, to}
	for i, arg := range stops {
		color, pos, hasPos, ok := colorStop(arg)
		if !ok {
			return "", false
		}
		if !hasPos {
			pos = float64(i) / float64(len(stops)-1)
		}
		switch {
		case i == 0 && pos == 0:
			parts = append(parts, "from("+color+")")
		case i == len(stops)-1 && pos == 1:
			parts = append(parts, "to("+color+")")
		default:
			parts = append(parts, "color-stop("+strconv.FormatFloat(pos, 'f', -1, 64)+", "+color+")")
		}
	}
	return "-webkit-gradient(" + strings.Join(parts, ", ") + ")", true
}

var angleSides = map[string]string{
	"0deg": "top", "90deg": "right", "180deg": "bottom", "270deg": "left",
}

// oldPoints converts a direction argument to start and end points.
// isDirection is false when arg is a color stop.
func oldPoints(arg []token) (start, end string, isDirection, ok bool) {
	var words []string
	for _, t := range arg {
		if t.tt != css.WhitespaceToken {
			words = append(words, strings.ToLower(t.text))
		}
	}
	switch {
	case len(words) > 1 && words[0] == "to":
		words = words[1:]
	case len(words) == 1 && arg[0].tt == css.DimensionToken && strings.HasSuffix(words[0], "deg"):
		side, known := angleSides[words[0]]
		if !known {
			return "", "", true, false
		}
		words = []string{side}
	default:
		return "", "", false, false
	}

	var h, v string
	for _, w := range words {
		switch w {
		case "top", "bottom":
			if v != "" {
				return "", "", true, false
			}
			v = w
		case "left", "right":
			if h != "" {
				return "", "", true, false
			}
			h = w
		default:
			return "", "", true, false
		}
	}

	startH, endH, startV, endV := "left", "left", "top", "top"
	if h != "" {
		startH, endH = oppositeSide[h], h
	}
	if v != "" {
		startV, endV = oppositeSide[v], v
	}
	return startH + " " + startV, endH + " " + endV, true, true
}

// colorStop splits a color stop into its color and its position as a
// fraction of the gradient line.
func colorStop(arg []token) (color string, pos float64, hasPos, ok bool) {
	n := len(arg)
	if n >= 3 && arg[n-2].tt == css.WhitespaceToken {
		last := arg[n-1]
		switch {
		case last.tt == css.PercentageToken:
			f, err := strconv.ParseFloat(strings.TrimSuffix(last.text, "%"), 64)
			if err != nil {
				return "", 0, false, false
			}
			pos, hasPos = f/100, true
		case last.tt == css.NumberToken && last.text == "0":
			hasPos = true
		case last.tt == css.NumberToken || last.tt == css.DimensionToken:
			return "", 0, false, false
		}
		if hasPos {
			arg = trimSpace(arg[:n-2])
		}
	}
	color = render(arg)
	return color, pos, hasPos, color != ""
}
