package sass

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
)

const (
	maxIncludeDepth = 100
	maxIterations   = 10_000
)

// Options configures a compilation.
type Options struct {
	// LoadPaths are searched for imports after the importing file's directory.
	LoadPaths []string
	// ReadFile loads source files; os.ReadFile when nil.
	ReadFile func(path string) ([]byte, error)
	// Logger receives @debug and @warn output.
	Logger *zap.Logger
}

// Result is a compiled stylesheet plus the files it was built from.
type Result struct {
	Sheet *Stylesheet
	// Files lists the entry file first, then imports in load order.
	Files []string
	// Sources maps each file in Files to its content.
	Sources map[string]string
}

// Compile reads and compiles the file at path.
func Compile(path string, opts Options) (*Result, error) {
	c := newCompiler(opts)
	data, err := c.read(path)
	if err != nil {
		return nil, err
	}
	return c.run(string(data), path)
}

// CompileString compiles src as if it were read from file.
func CompileString(src, file string, opts Options) (*Result, error) {
	return newCompiler(opts).run(src, file)
}

type compiler struct {
	opts    Options
	log     *zap.Logger
	result  *Result
	imports []string
	extends []*extension
	calls   int
}

func newCompiler(opts Options) *compiler {
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &compiler{
		opts: opts,
		log:  log.Named("sass"),
		result: &Result{
			Sheet:   &Stylesheet{},
			Sources: make(map[string]string),
		},
	}
}

func (c *compiler) read(path string) ([]byte, error) {
	data, err := c.opts.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (c *compiler) run(src, file string) (*Result, error) {
	lines, err := c.load(src, file)
	if err != nil {
		return nil, err
	}
	c.imports = []string{filepath.Clean(file)}
	ctx := &context{
		scope:     newScope(nil),
		container: &c.result.Sheet.Nodes,
		root:      &c.result.Sheet.Nodes,
	}
	if err := c.exec(lines, ctx); err != nil {
		return nil, err
	}
	if err := c.applyExtends(); err != nil {
		return nil, err
	}
	dropPlaceholders(c.result.Sheet.Nodes)
	return c.result, nil
}

func (c *compiler) load(src, file string) ([]*line, error) {
	c.result.Files = append(c.result.Files, file)
	c.result.Sources[file] = src
	return parseTree(src, file)
}

// contentBlock is the block passed to a mixin include, run by @content.
type contentBlock struct {
	lines  []*line
	scope  *scope
	parent *contentBlock
}

type context struct {
	scope      *scope
	selectors  []string
	decls      *[]Decl
	container  *[]Node
	root       *[]Node
	media      string
	keyframes  bool
	propPrefix string
	content    *contentBlock
	depth      int
	// function is set while running a @function body.
	function bool
}

func (ctx *context) with(fn func(*context)) *context {
	next := *ctx
	fn(&next)
	return &next
}

func (c *compiler) exec(lines []*line, ctx *context) error {
	for i := 0; i < len(lines); i++ {
		if name, _ := splitDirective(lines[i].text); name == "if" && strings.HasPrefix(lines[i].text, "@") {
			end := i + 1
			for end < len(lines) && isElse(lines[end].text) {
				end++
			}
			if err := c.ifChain(lines[i:end], ctx); err != nil {
				return err
			}
			i = end - 1
			continue
		}
		if err := c.execLine(lines[i], ctx); err != nil {
			return err
		}
	}
	return nil
}

func isElse(text string) bool {
	name, _ := splitDirective(text)
	return strings.HasPrefix(text, "@") && name == "else"
}

func (c *compiler) execLine(l *line, ctx *context) error {
	text := l.text

	if ctx.function {
		switch {
		case strings.HasPrefix(text, "$"):
			return c.variable(l, ctx)
		case strings.HasPrefix(text, "@"):
			return c.directive(l, ctx)
		}
		return errorf(l.pos, "functions can only contain variable declarations and control directives")
	}

	if ctx.propPrefix != "" {
		name, value, ok := splitProperty(text, true)
		if !ok {
			return errorf(l.pos, "expected a nested property, got %q", text)
		}
		return c.property(l, name, value, ctx)
	}

	switch {
	case strings.HasPrefix(text, "$"):
		return c.variable(l, ctx)
	case strings.HasPrefix(text, "@"):
		return c.directive(l, ctx)
	case strings.HasPrefix(text, "=") && len(text) > 1:
		return c.defineMixin(l, strings.TrimSpace(text[1:]), ctx)
	case strings.HasPrefix(text, "+") && len(text) > 1 && isNameStart(text[1]):
		return c.include(l, strings.TrimSpace(text[1:]), ctx)
	}

	if name, value, ok := splitProperty(text, len(l.children) == 0); ok && !ctx.keyframes {
		return c.property(l, name, value, ctx)
	}
	return c.rule(l, ctx)
}

func isNameStart(b byte) bool {
	return b == '_' || b == '-' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

var propertyName = regexp.MustCompile(`^[*_]?-{0,2}([a-zA-Z_]|#\{)([-a-zA-Z0-9_]|#\{[^}]*\})*$`)

// splitProperty recognizes "name: value", "name:" and the old ":name value"
// form. A colon not followed by whitespace only starts a declaration when
// loose is set, so that "a:hover" parses as a selector.
func splitProperty(text string, loose bool) (name, value string, ok bool) {
	if strings.HasPrefix(text, ":") && len(text) > 1 && isNameStart(text[1]) {
		rest := text[1:]
		if i := strings.IndexAny(rest, " \t"); i > 0 {
			return rest[:i], strings.TrimSpace(rest[i:]), true
		}
		return "", "", false
	}

	i := topLevelIndex(text, ':')
	if i <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(text[:i])
	if !propertyName.MatchString(name) {
		return "", "", false
	}
	rest := text[i+1:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' && !loose {
		return "", "", false
	}
	return name, strings.TrimSpace(rest), true
}

func (c *compiler) property(l *line, name, value string, ctx *context) error {
	name, err := interpolate(name, ctx.scope, l.pos)
	if err != nil {
		return err
	}
	full := ctx.propPrefix + name

	if value == "" && len(l.children) == 0 {
		return errorf(l.pos, "expected a value for property %q", full)
	}
	if ctx.decls == nil {
		return errorf(l.pos, "properties are only allowed within rules")
	}

	if value != "" {
		var rendered string
		omit := false
		if strings.HasPrefix(full, "--") {
			rendered, err = interpolate(value, ctx.scope, l.pos)
		} else {
			var v Value
			v, err = evaluate(value, ctx.scope, l.pos)
			if v != nil {
				_, omit = v.(Null)
				rendered = v.CSS()
			}
		}
		if err != nil {
			return err
		}
		if !omit {
			*ctx.decls = append(*ctx.decls, Decl{Property: full, Value: rendered, Pos: l.pos})
		}
	}

	if len(l.children) > 0 {
		return c.exec(l.children, ctx.with(func(n *context) {
			n.propPrefix = full + "-"
		}))
	}
	return nil
}

func (c *compiler) variable(l *line, ctx *context) error {
	i := strings.IndexByte(l.text, ':')
	if i < 0 {
		return errorf(l.pos, "expected \":\" after variable name")
	}
	name := strings.TrimSpace(l.text[1:i])
	value := strings.TrimSpace(l.text[i+1:])

	var global, onlyIfUnset bool
	for {
		switch {
		case strings.HasSuffix(value, "!default"):
			onlyIfUnset = true
			value = strings.TrimSpace(strings.TrimSuffix(value, "!default"))
			continue
		case strings.HasSuffix(value, "!global"):
			global = true
			value = strings.TrimSpace(strings.TrimSuffix(value, "!global"))
			continue
		}
		break
	}
	if value == "" {
		return errorf(l.pos, "expected a value for $%s", name)
	}

	v, err := evaluate(value, ctx.scope, l.pos)
	if err != nil {
		return err
	}
	ctx.scope.assign(name, v, global, onlyIfUnset)
	return nil
}

func (c *compiler) rule(l *line, ctx *context) error {
	text, err := interpolate(l.text, ctx.scope, l.pos)
	if err != nil {
		return err
	}

	var selectors []string
	if ctx.keyframes {
		for _, s := range splitTopLevel(text, ',') {
			selectors = append(selectors, collapseSpaces(s))
		}
	} else if selectors, err = resolveSelectors(ctx.selectors, text, l.pos); err != nil {
		return err
	}

	r := &Rule{Selectors: slices.Clone(selectors), Pos: l.pos}
	*ctx.container = append(*ctx.container, r)

	return c.exec(l.children, ctx.with(func(n *context) {
		n.scope = newScope(ctx.scope)
		n.selectors = selectors
		n.decls = &r.Decls
		n.keyframes = false
	}))
}

func (c *compiler) directive(l *line, ctx *context) error {
	name, params := splitDirective(l.text)

	if ctx.function {
		switch name {
		case "return", "if", "else", "each", "for", "while", "debug", "warn", "error":
		default:
			return errorf(l.pos, "@%s is not allowed within a function", name)
		}
	}

	switch name {
	case "import":
		return c.importFiles(l, params, ctx)
	case "mixin":
		return c.defineMixin(l, params, ctx)
	case "include":
		return c.include(l, params, ctx)
	case "content":
		return c.content(l, ctx)
	case "media":
		return c.media(l, params, ctx)
	case "charset":
		if ctx.container != ctx.root {
			return errorf(l.pos, "@charset is only allowed at the top level")
		}
		*ctx.root = append(*ctx.root, &AtRule{Name: name, Params: params, Pos: l.pos})
		return nil
	case "debug", "warn":
		v, err := substituteVars(params, ctx.scope, l.pos)
		if err != nil {
			return err
		}
		if name == "debug" {
			c.log.Debug(v, zap.Stringer("pos", l.pos))
		} else {
			c.log.Warn(v, zap.Stringer("pos", l.pos))
		}
		return nil
	case "error":
		v, err := substituteVars(params, ctx.scope, l.pos)
		if err != nil {
			return err
		}
		return errorf(l.pos, "%s", strings.Trim(v, `"'`))
	case "extend":
		return c.extend(l, params, ctx)
	case "if":
		return c.ifChain([]*line{l}, ctx)
	case "else":
		return errorf(l.pos, "@else must come after @if")
	case "each":
		return c.each(l, params, ctx)
	case "for":
		return c.forLoop(l, params, ctx)
	case "while":
		return c.while(l, params, ctx)
	case "function":
		return c.defineFunction(l, params, ctx)
	case "return":
		if !ctx.function {
			return errorf(l.pos, "@return may only be used within a function")
		}
		v, err := evaluate(params, ctx.scope, l.pos)
		if err != nil {
			return err
		}
		return &returnValue{v: v}
	case "supports", "at-root", "use", "forward":
		return errorf(l.pos, "unsupported directive @%s", name)
	}

	if strings.HasSuffix(name, "keyframes") {
		return c.keyframes(l, name, params, ctx)
	}
	return c.genericAtRule(l, name, params, ctx)
}

func splitDirective(text string) (name, params string) {
	text = strings.TrimPrefix(text, "@")
	i := strings.IndexAny(text, " \t(")
	if i < 0 {
		return strings.ToLower(text), ""
	}
	return strings.ToLower(text[:i]), strings.TrimSpace(text[i:])
}

func (c *compiler) media(l *line, params string, ctx *context) error {
	query, err := substituteVars(params, ctx.scope, l.pos)
	if err != nil {
		return err
	}
	query = collapseSpaces(query)
	if ctx.media != "" {
		query = ctx.media + " and " + query
	}

	node := &AtRule{Name: "media", Params: query, Block: true, Pos: l.pos}
	*ctx.root = append(*ctx.root, node)

	next := ctx.with(func(n *context) {
		n.scope = newScope(ctx.scope)
		n.container = &node.Nodes
		n.media = query
		n.decls = nil
	})
	if ctx.selectors != nil {
		r := &Rule{Selectors: slices.Clone(ctx.selectors), Pos: l.pos}
		node.Nodes = append(node.Nodes, r)
		next.decls = &r.Decls
	}
	return c.exec(l.children, next)
}

func (c *compiler) keyframes(l *line, name, params string, ctx *context) error {
	params, err := interpolate(params, ctx.scope, l.pos)
	if err != nil {
		return err
	}
	node := &AtRule{Name: name, Params: params, Block: true, Pos: l.pos}
	*ctx.container = append(*ctx.container, node)

	return c.exec(l.children, ctx.with(func(n *context) {
		n.scope = newScope(ctx.scope)
		n.container = &node.Nodes
		n.selectors = nil
		n.decls = nil
		n.keyframes = true
	}))
}

// genericAtRule handles descriptor blocks such as @font-face and @page as
// well as unknown block-less statements.
func (c *compiler) genericAtRule(l *line, name, params string, ctx *context) error {
	params, err := substituteVars(params, ctx.scope, l.pos)
	if err != nil {
		return err
	}
	node := &AtRule{Name: name, Params: params, Block: len(l.children) > 0, Pos: l.pos}
	*ctx.container = append(*ctx.container, node)
	if !node.Block {
		return nil
	}
	return c.exec(l.children, ctx.with(func(n *context) {
		n.scope = newScope(ctx.scope)
		n.selectors = nil
		n.decls = &node.Decls
	}))
}

func (c *compiler) importFiles(l *line, params string, ctx *context) error {
	for _, target := range splitTopLevel(params, ',') {
		target = strings.TrimSpace(target)
		name := strings.Trim(target, `"'`)

		if isPlainCSSImport(target, name) {
			*ctx.container = append(*ctx.container, &AtRule{Name: "import", Params: target, Pos: l.pos})
			continue
		}

		path, err := c.resolveImport(name, l.pos)
		if err != nil {
			return err
		}
		for _, active := range c.imports {
			if active == filepath.Clean(path) {
				return errorf(l.pos, "import loop: %s imports itself", path)
			}
		}

		data, err := c.read(path)
		if err != nil {
			return err
		}
		lines, err := c.load(string(data), path)
		if err != nil {
			return err
		}

		c.imports = append(c.imports, filepath.Clean(path))
		err = c.exec(lines, ctx)
		c.imports = c.imports[:len(c.imports)-1]
		if err != nil {
			return err
		}
	}
	return nil
}

func isPlainCSSImport(raw, name string) bool {
	return strings.HasSuffix(name, ".css") ||
		strings.HasPrefix(raw, "url(") ||
		strings.HasPrefix(name, "http://") ||
		strings.HasPrefix(name, "https://") ||
		strings.HasPrefix(name, "//")
}

func (c *compiler) resolveImport(name string, pos Pos) (string, error) {
	dirs := []string{filepath.Dir(pos.File)}
	dirs = append(dirs, c.opts.LoadPaths...)

	base := filepath.Base(name)
	sub := filepath.Dir(name)
	base = strings.TrimSuffix(base, ".sass")

	for _, dir := range dirs {
		for _, candidate := range []string{
			filepath.Join(dir, sub, "_"+base+".sass"),
			filepath.Join(dir, sub, base+".sass"),
			filepath.Join(dir, name, "_index.sass"),
		} {
			if _, err := c.opts.ReadFile(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", errorf(pos, "can't find stylesheet to import: %s", name)
}

// signature parses "name($a, $b: default)" into a callable.
func (c *compiler) signature(l *line, sig, kind string, ctx *context) (*callable, error) {
	name, args := splitCall(sig)
	if name == "" {
		return nil, errorf(l.pos, "expected %s name", kind)
	}
	m := &callable{name: name, body: l.children, scope: ctx.scope, pos: l.pos, c: c}
	for _, p := range splitTopLevel(args, ',') {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "$") {
			return nil, errorf(l.pos, "expected parameter variable, got %q", p)
		}
		pname, def, _ := strings.Cut(p[1:], ":")
		m.params = append(m.params, param{name: normalizeName(strings.TrimSpace(pname)), def: strings.TrimSpace(def)})
	}
	return m, nil
}

func (c *compiler) defineMixin(l *line, sig string, ctx *context) error {
	m, err := c.signature(l, sig, "mixin", ctx)
	if err != nil {
		return err
	}
	ctx.scope.mixins[normalizeName(m.name)] = m
	return nil
}

func (c *compiler) defineFunction(l *line, sig string, ctx *context) error {
	if ctx.function || ctx.content != nil || ctx.selectors != nil {
		return errorf(l.pos, "functions may not be defined within rules, mixins or functions")
	}
	f, err := c.signature(l, sig, "function", ctx)
	if err != nil {
		return err
	}
	ctx.scope.functions[normalizeName(f.name)] = f
	return nil
}

// bind creates the body scope of a mixin or function call.
func bind(m *callable, kind string, positional []Value, named map[string]Value, pos Pos) (*scope, error) {
	if len(positional) > len(m.params) {
		return nil, errorf(pos, "%s %s takes %d arguments but %d were passed", kind, m.name, len(m.params), len(positional))
	}

	body := newScope(m.scope)
	for i, p := range m.params {
		switch v, isNamed := named[p.name]; {
		case i < len(positional):
			body.vars[p.name] = positional[i]
		case isNamed:
			body.vars[p.name] = v
			delete(named, p.name)
		case p.def != "":
			def, err := evaluate(p.def, body, pos)
			if err != nil {
				return nil, err
			}
			body.vars[p.name] = def
		default:
			return nil, errorf(pos, "missing argument $%s for %s %s", p.name, kind, m.name)
		}
	}
	if len(named) > 0 {
		keys := make([]string, 0, len(named))
		for k := range named {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		extra := keys[0]
		return nil, errorf(pos, "%s %s has no parameter $%s", kind, m.name, extra)
	}
	return body, nil
}

func (c *compiler) include(l *line, call string, ctx *context) error {
	if ctx.depth >= maxIncludeDepth {
		return errorf(l.pos, "mixin include nesting is too deep")
	}
	name, args := splitCall(call)
	m, ok := ctx.scope.mixin(name)
	if !ok {
		return errorf(l.pos, "undefined mixin %s", name)
	}

	positional, named, err := c.evalArgs(args, ctx.scope, l.pos)
	if err != nil {
		return err
	}
	body, err := bind(m, "mixin", positional, named, l.pos)
	if err != nil {
		return err
	}

	return c.exec(m.body, ctx.with(func(n *context) {
		n.scope = body
		n.depth = ctx.depth + 1
		n.content = &contentBlock{lines: l.children, scope: ctx.scope, parent: ctx.content}
	}))
}

// returnValue carries the result of @return out of a function body.
type returnValue struct {
	v Value
}

func (r *returnValue) Error() string { return "@return outside of a function" }

func (c *compiler) callFunction(f *callable, positional []Value, named map[string]Value, pos Pos) (Value, error) {
	if c.calls >= maxIncludeDepth {
		return nil, errorf(pos, "function call nesting is too deep")
	}
	body, err := bind(f, "function", positional, named, pos)
	if err != nil {
		return nil, err
	}

	c.calls++
	defer func() { c.calls-- }()

	err = c.exec(f.body, &context{scope: body, function: true, depth: c.calls})
	var ret *returnValue
	if errors.As(err, &ret) {
		return ret.v, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, errorf(f.pos, "function %s finished without @return", f.name)
}

func (c *compiler) evalArgs(args string, sc *scope, pos Pos) ([]Value, map[string]Value, error) {
	var positional []Value
	named := make(map[string]Value)
	for _, a := range splitTopLevel(args, ',') {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if strings.HasPrefix(a, "$") {
			if i := topLevelIndex(a, ':'); i > 0 {
				v, err := evaluate(a[i+1:], sc, pos)
				if err != nil {
					return nil, nil, err
				}
				named[normalizeName(strings.TrimSpace(a[1:i]))] = v
				continue
			}
		}
		if len(named) > 0 {
			return nil, nil, errorf(pos, "positional arguments must come before keyword arguments")
		}
		v, err := evaluate(a, sc, pos)
		if err != nil {
			return nil, nil, err
		}
		positional = append(positional, v)
	}
	return positional, named, nil
}

func (c *compiler) content(l *line, ctx *context) error {
	if ctx.content == nil {
		return errorf(l.pos, "@content is only allowed within mixin declarations")
	}
	block := ctx.content
	return c.exec(block.lines, ctx.with(func(n *context) {
		n.scope = newScope(block.scope)
		n.content = block.parent
	}))
}

// splitCall splits "name(args)" into name and args.
func splitCall(s string) (name, args string) {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, '(')
	if i < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSuffix(strings.TrimSpace(s[i+1:]), ")")
}
