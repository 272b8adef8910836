package sass

import (
	"regexp"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	text string
}

func tokenize(s string) []token {
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

// Functions whose arguments are passed through verbatim apart from variable
// substitution.
var rawFunctions = map[string]bool{
	"calc": true, "url": true, "var": true, "env": true, "expression": true,
	"min": true, "max": true, "clamp": true, "format": true, "local": true,
}

type evaluator struct {
	toks  []token
	i     int
	scope *scope
	pos   Pos
	depth int
	// parens counts open parentheses, inside which a colon starts a map value.
	parens int
}

// evaluate evaluates a property or variable value.
func evaluate(text string, sc *scope, pos Pos) (Value, error) {
	text, err := interpolate(text, sc, pos)
	if err != nil {
		return nil, err
	}
	e := &evaluator{toks: tokenize(text), scope: sc, pos: pos}
	v, err := e.commaList()
	if err != nil {
		return nil, err
	}
	e.skipSpace()
	if !e.eof() {
		return nil, errorf(pos, "unexpected %q in %q", e.peek().text, text)
	}
	return v, nil
}

func (e *evaluator) eof() bool { return e.i >= len(e.toks) }

func (e *evaluator) peek() token {
	if e.eof() {
		return token{tt: css.ErrorToken}
	}
	return e.toks[e.i]
}

func (e *evaluator) next() token {
	t := e.peek()
	e.i++
	return t
}

func (e *evaluator) skipSpace() bool {
	skipped := false
	for !e.eof() && e.toks[e.i].tt == css.WhitespaceToken {
		e.i++
		skipped = true
	}
	return skipped
}

func (e *evaluator) atDelim(s string) bool {
	t := e.peek()
	return t.tt == css.DelimToken && t.text == s
}

func (e *evaluator) atIdent(s string) bool {
	t := e.peek()
	return t.tt == css.IdentToken && strings.EqualFold(t.text, s)
}

func (e *evaluator) commaList() (Value, error) {
	first, err := e.spaceList()
	if err != nil {
		return nil, err
	}
	return e.commaTail(first)
}

func (e *evaluator) commaTail(first Value) (Value, error) {
	items := []Value{first}
	for {
		save := e.i
		e.skipSpace()
		if e.peek().tt != css.CommaToken {
			e.i = save
			break
		}
		e.next()
		v, err := e.spaceList()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if len(items) == 1 {
		return first, nil
	}
	return List{Items: items, Comma: true}, nil
}

func (e *evaluator) spaceList() (Value, error) {
	var items []Value
	var spaced []bool
	for {
		save := e.i
		hadSpace := e.skipSpace()
		t := e.peek()
		if e.eof() || t.tt == css.CommaToken || t.tt == css.RightParenthesisToken ||
			(t.tt == css.ColonToken && e.parens > 0) {
			e.i = save
			break
		}
		v, err := e.or()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		spaced = append(spaced, hadSpace)
	}
	switch len(items) {
	case 0:
		return Str{}, nil
	case 1:
		return items[0], nil
	}
	return List{Items: items, Spaced: spaced}, nil
}

func (e *evaluator) or() (Value, error) {
	left, err := e.and()
	if err != nil {
		return nil, err
	}
	for {
		save := e.i
		if !e.skipSpace() || !e.atIdent("or") {
			e.i = save
			return left, nil
		}
		e.next()
		e.skipSpace()
		right, err := e.and()
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			left = right
		}
	}
}

func (e *evaluator) and() (Value, error) {
	left, err := e.equality()
	if err != nil {
		return nil, err
	}
	for {
		save := e.i
		if !e.skipSpace() || !e.atIdent("and") {
			e.i = save
			return left, nil
		}
		e.next()
		e.skipSpace()
		right, err := e.equality()
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			left = right
		}
	}
}

// operator consumes a two-character operator such as "==" or "<=", or a
// one-character one when second is empty.
func (e *evaluator) operator(first, second string) bool {
	if !e.atDelim(first) {
		return false
	}
	if second == "" {
		e.next()
		return true
	}
	if e.i+1 < len(e.toks) {
		t := e.toks[e.i+1]
		if t.tt == css.DelimToken && t.text == second {
			e.i += 2
			return true
		}
	}
	return false
}

func (e *evaluator) equality() (Value, error) {
	left, err := e.relational()
	if err != nil {
		return nil, err
	}
	for {
		save := e.i
		e.skipSpace()
		var negate bool
		switch {
		case e.operator("=", "="):
		case e.operator("!", "="):
			negate = true
		default:
			e.i = save
			return left, nil
		}
		e.skipSpace()
		right, err := e.relational()
		if err != nil {
			return nil, err
		}
		left = Bool(equalValues(left, right) != negate)
	}
}

func (e *evaluator) relational() (Value, error) {
	left, err := e.additive()
	if err != nil {
		return nil, err
	}
	for {
		save := e.i
		e.skipSpace()
		var op string
		switch {
		case e.operator("<", "="):
			op = "<="
		case e.operator(">", "="):
			op = ">="
		case e.operator("<", ""):
			op = "<"
		case e.operator(">", ""):
			op = ">"
		default:
			e.i = save
			return left, nil
		}
		e.skipSpace()
		right, err := e.additive()
		if err != nil {
			return nil, err
		}
		ln, lok := left.(Number)
		rn, rok := right.(Number)
		if !lok || !rok {
			return nil, errorf(e.pos, "undefined operation %q %s %q", left.CSS(), op, right.CSS())
		}
		if _, err := commonUnit(ln, rn, e.pos); err != nil {
			return nil, err
		}
		switch op {
		case "<":
			left = Bool(ln.Val < rn.Val)
		case "<=":
			left = Bool(ln.Val <= rn.Val)
		case ">":
			left = Bool(ln.Val > rn.Val)
		default:
			left = Bool(ln.Val >= rn.Val)
		}
	}
}

func (e *evaluator) additive() (Value, error) {
	left, err := e.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		save := e.i
		before := e.skipSpace()
		if !e.atDelim("+") && !e.atDelim("-") {
			e.i = save
			return left, nil
		}
		op := e.next().text
		after := e.skipSpace()
		// "a -b" is a list of a and -b, not a subtraction.
		if before && !after {
			e.i = save
			return left, nil
		}
		right, err := e.multiplicative()
		if err != nil {
			return nil, err
		}
		if left, err = e.binary(op, left, right); err != nil {
			return nil, err
		}
	}
}

func (e *evaluator) multiplicative() (Value, error) {
	left, err := e.primary()
	if err != nil {
		return nil, err
	}
	for {
		save := e.i
		e.skipSpace()
		if !e.atDelim("*") && !e.atDelim("/") {
			e.i = save
			return left, nil
		}
		op := e.next().text
		e.skipSpace()
		right, err := e.primary()
		if err != nil {
			return nil, err
		}
		if left, err = e.binary(op, left, right); err != nil {
			return nil, err
		}
	}
}

func (e *evaluator) primary() (Value, error) {
	t := e.next()
	switch t.tt {
	case css.NumberToken, css.DimensionToken, css.PercentageToken:
		if n, ok := parseNumber(t.text); ok {
			return n, nil
		}
		return Str{S: t.text}, nil

	case css.HashToken:
		if c, ok := parseHexColor(t.text); ok {
			return c, nil
		}
		return Str{S: t.text}, nil

	case css.StringToken:
		if len(t.text) < 2 || t.text[len(t.text)-1] != t.text[0] {
			return nil, errorf(e.pos, "unterminated string %s", t.text)
		}
		return Str{S: t.text[1 : len(t.text)-1], Quoted: true, quote: t.text[0]}, nil

	case css.FunctionToken:
		name := strings.TrimSuffix(t.text, "(")
		if rawFunctions[strings.ToLower(name)] {
			return e.rawCall(name)
		}
		return e.call(name)

	case css.LeftParenthesisToken:
		return e.parenthesized()

	case css.IdentToken:
		switch strings.ToLower(t.text) {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		case "not":
			if e.skipSpace() {
				v, err := e.primary()
				if err != nil {
					return nil, err
				}
				return Bool(!truthy(v)), nil
			}
		}
		return Str{S: t.text}, nil

	case css.DelimToken:
		switch t.text {
		case "$":
			return e.variable()
		case "-":
			// Unary minus on a variable or parenthesized expression.
			if nt := e.peek(); (nt.tt == css.DelimToken && nt.text == "$") || nt.tt == css.LeftParenthesisToken {
				v, err := e.primary()
				if err != nil {
					return nil, err
				}
				if n, ok := v.(Number); ok {
					n.Val = -n.Val
					return n, nil
				}
				return Str{S: "-" + v.CSS()}, nil
			}
		}
		return Str{S: t.text}, nil

	case css.RightParenthesisToken:
		return nil, errorf(e.pos, "unexpected \")\"")

	case css.ErrorToken:
		return nil, errorf(e.pos, "expected expression")
	}

	return Str{S: t.text}, nil
}

// parenthesized evaluates a group, an empty list or a map literal after
// the opening parenthesis.
func (e *evaluator) parenthesized() (Value, error) {
	e.depth++
	e.parens++
	defer func() {
		e.depth--
		e.parens--
	}()

	e.skipSpace()
	if e.peek().tt == css.RightParenthesisToken {
		e.next()
		return List{}, nil
	}

	first, err := e.spaceList()
	if err != nil {
		return nil, err
	}
	e.skipSpace()

	var v Value
	if e.peek().tt == css.ColonToken {
		v, err = e.mapLiteral(first)
	} else {
		v, err = e.commaTail(first)
	}
	if err != nil {
		return nil, err
	}
	e.skipSpace()
	if e.next().tt != css.RightParenthesisToken {
		return nil, errorf(e.pos, "expected \")\"")
	}
	if n, ok := v.(Number); ok {
		n.computed = true
		return n, nil
	}
	return v, nil
}

func (e *evaluator) mapLiteral(key Value) (Value, error) {
	var m Map
	for {
		if e.next().tt != css.ColonToken {
			return nil, errorf(e.pos, "expected \":\" in map")
		}
		e.skipSpace()
		val, err := e.spaceList()
		if err != nil {
			return nil, err
		}
		if _, dup := m.get(key); dup {
			return nil, errorf(e.pos, "duplicate key %s in map", key.CSS())
		}
		m.Keys = append(m.Keys, key)
		m.Vals = append(m.Vals, val)

		e.skipSpace()
		if e.peek().tt != css.CommaToken {
			return m, nil
		}
		e.next()
		e.skipSpace()
		if e.peek().tt == css.RightParenthesisToken {
			return m, nil
		}
		if key, err = e.spaceList(); err != nil {
			return nil, err
		}
		e.skipSpace()
	}
}

func (e *evaluator) variable() (Value, error) {
	t := e.next()
	if t.tt != css.IdentToken {
		return nil, errorf(e.pos, "expected variable name after \"$\"")
	}
	v, ok := e.scope.lookup(t.text)
	if !ok {
		return nil, errorf(e.pos, "undefined variable $%s", t.text)
	}
	if n, ok := v.(Number); ok {
		n.computed = true
		return n, nil
	}
	return v, nil
}

// keywordArg consumes "$name:" at the start of an argument.
func (e *evaluator) keywordArg() (string, bool) {
	if !e.atDelim("$") || e.i+1 >= len(e.toks) || e.toks[e.i+1].tt != css.IdentToken {
		return "", false
	}
	j := e.i + 2
	for j < len(e.toks) && e.toks[j].tt == css.WhitespaceToken {
		j++
	}
	if j >= len(e.toks) || e.toks[j].tt != css.ColonToken {
		return "", false
	}
	name := e.toks[e.i+1].text
	e.i = j + 1
	return normalizeName(name), true
}

func (e *evaluator) call(name string) (Value, error) {
	fn, userDefined := e.scope.function(name)

	e.depth++
	parens := e.parens
	e.parens = 0
	var args []Value
	named := make(map[string]Value)
	for {
		e.skipSpace()
		if e.peek().tt == css.RightParenthesisToken {
			e.next()
			break
		}
		keyword, isKeyword := "", false
		if userDefined {
			keyword, isKeyword = e.keywordArg()
			e.skipSpace()
		}
		v, err := e.spaceList()
		if err != nil {
			return nil, err
		}
		switch {
		case isKeyword:
			named[keyword] = v
		case len(named) > 0:
			return nil, errorf(e.pos, "positional arguments must come before keyword arguments")
		default:
			args = append(args, v)
		}
		e.skipSpace()
		switch e.next().tt {
		case css.CommaToken:
			continue
		case css.RightParenthesisToken:
		default:
			return nil, errorf(e.pos, "expected \")\" to close %s(", name)
		}
		break
	}
	e.depth--
	e.parens = parens

	if userDefined {
		return fn.c.callFunction(fn, args, named, e.pos)
	}

	if fn, ok := builtins[strings.ToLower(name)]; ok {
		v, handled, err := fn(args)
		if err != nil {
			return nil, errorf(e.pos, "%s(): %v", name, err)
		}
		if handled {
			return v, nil
		}
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.CSS()
	}
	return Str{S: name + "(" + strings.Join(parts, ", ") + ")"}, nil
}

// rawCall copies tokens up to the matching parenthesis, substituting
// variables along the way.
func (e *evaluator) rawCall(name string) (Value, error) {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	depth := 1
	for depth > 0 {
		t := e.next()
		switch t.tt {
		case css.ErrorToken:
			return nil, errorf(e.pos, "unclosed %s(", name)
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		case css.DelimToken:
			if t.text == "$" && e.peek().tt == css.IdentToken {
				v, err := e.variable()
				if err != nil {
					return nil, err
				}
				sb.WriteString(v.CSS())
				continue
			}
		}
		sb.WriteString(t.text)
	}
	return Str{S: sb.String()}, nil
}

func (e *evaluator) binary(op string, left, right Value) (Value, error) {
	ln, lok := left.(Number)
	rn, rok := right.(Number)

	if op == "/" && (!lok || !rok || (e.depth == 0 && !ln.computed && !rn.computed)) {
		return Str{S: left.CSS() + "/" + right.CSS()}, nil
	}

	if lok && rok {
		return numberOp(op, ln, rn, e.pos)
	}

	if op == "+" {
		if ls, ok := left.(Str); ok {
			return Str{S: ls.S + unquoted(right), Quoted: ls.Quoted, quote: ls.quote}, nil
		}
		if rs, ok := right.(Str); ok {
			return Str{S: left.CSS() + rs.S, Quoted: rs.Quoted, quote: rs.quote}, nil
		}
	}
	if op == "-" {
		return Str{S: left.CSS() + "-" + right.CSS()}, nil
	}
	return nil, errorf(e.pos, "undefined operation %q %s %q", left.CSS(), op, right.CSS())
}

func numberOp(op string, l, r Number, pos Pos) (Value, error) {
	out := Number{computed: true}
	switch op {
	case "+", "-":
		unit, err := commonUnit(l, r, pos)
		if err != nil {
			return nil, err
		}
		out.Unit = unit
		if op == "+" {
			out.Val = l.Val + r.Val
		} else {
			out.Val = l.Val - r.Val
		}
	case "*":
		if l.Unit != "" && r.Unit != "" {
			return nil, errorf(pos, "%s*%s isn't a valid CSS value", l.CSS(), r.CSS())
		}
		out.Val = l.Val * r.Val
		out.Unit = l.Unit + r.Unit
	case "/":
		if r.Val == 0 {
			return nil, errorf(pos, "division by zero")
		}
		out.Val = l.Val / r.Val
		switch {
		case l.Unit == r.Unit:
		case r.Unit == "":
			out.Unit = l.Unit
		default:
			return nil, errorf(pos, "%s/%s isn't a valid CSS value", l.CSS(), r.CSS())
		}
	}
	return out, nil
}

func commonUnit(l, r Number, pos Pos) (string, error) {
	switch {
	case l.Unit == r.Unit:
		return l.Unit, nil
	case l.Unit == "":
		return r.Unit, nil
	case r.Unit == "":
		return l.Unit, nil
	}
	return "", errorf(pos, "incompatible units %s and %s", l.Unit, r.Unit)
}

// interpolate replaces every #{...} with the unquoted value of the
// enclosed expression.
func interpolate(s string, sc *scope, pos Pos) (string, error) {
	if !strings.Contains(s, "#{") {
		return s, nil
	}
	var sb strings.Builder
	for {
		start := strings.Index(s, "#{")
		if start < 0 {
			sb.WriteString(s)
			return sb.String(), nil
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return "", errorf(pos, "unclosed interpolation in %q", s)
		}
		sb.WriteString(s[:start])
		v, err := evaluate(s[start+2:start+end], sc, pos)
		if err != nil {
			return "", err
		}
		sb.WriteString(unquoted(v))
		s = s[start+end+1:]
	}
}

var varRef = regexp.MustCompile(`\$[a-zA-Z_][-a-zA-Z0-9_]*`)

// substituteVars replaces $name references with their values. It is used
// where full expression evaluation does not apply, such as media queries.
func substituteVars(s string, sc *scope, pos Pos) (string, error) {
	s, err := interpolate(s, sc, pos)
	if err != nil {
		return "", err
	}
	var missing string
	out := varRef.ReplaceAllStringFunc(s, func(ref string) string {
		v, ok := sc.lookup(ref[1:])
		if !ok {
			if missing == "" {
				missing = ref
			}
			return ref
		}
		return unquoted(v)
	})
	if missing != "" {
		return "", errorf(pos, "undefined variable %s", missing)
	}
	return out, nil
}
