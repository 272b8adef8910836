package sass

// callable is a mixin or a function.
type callable struct {
	name   string
	params []param
	body   []*line
	scope  *scope
	pos    Pos
	c      *compiler
}

type param struct {
	name string
	def  string
}

// scope holds variables, mixins and functions visible in a block.
type scope struct {
	vars      map[string]Value
	mixins    map[string]*callable
	functions map[string]*callable
	parent    *scope
	// flow marks the scope of an @if, @each, @for or @while body.
	flow bool
}

func newScope(parent *scope) *scope {
	return &scope{
		vars:      make(map[string]Value),
		mixins:    make(map[string]*callable),
		functions: make(map[string]*callable),
		parent:    parent,
	}
}

func newFlowScope(parent *scope) *scope {
	s := newScope(parent)
	s.flow = true
	return s
}

func (s *scope) global() *scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *scope) lookup(name string) (Value, bool) {
	name = normalizeName(name)
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// assign sets a variable. Without global, an existing binding in an
// enclosing block is updated; global variables are only updated from the
// top level or from control directives directly below it. Otherwise the
// variable is created in s.
func (s *scope) assign(name string, v Value, global, onlyIfUnset bool) {
	name = normalizeName(name)
	if onlyIfUnset {
		if old, ok := s.lookup(name); ok {
			if _, isNull := old.(Null); !isNull {
				return
			}
		}
	}
	if global {
		s.global().vars[name] = v
		return
	}
	onlyFlow := true
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.vars[name]; ok && (sc.parent != nil || onlyFlow) {
			sc.vars[name] = v
			return
		}
		if !sc.flow {
			onlyFlow = false
		}
	}
	s.vars[name] = v
}

func (s *scope) mixin(name string) (*callable, bool) {
	name = normalizeName(name)
	for sc := s; sc != nil; sc = sc.parent {
		if m, ok := sc.mixins[name]; ok {
			return m, true
		}
	}
	return nil, false
}

func (s *scope) function(name string) (*callable, bool) {
	name = normalizeName(name)
	for sc := s; sc != nil; sc = sc.parent {
		if f, ok := sc.functions[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// normalizeName treats hyphens and underscores as equivalent, as Sass does.
func normalizeName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '_' {
			b := []byte(name)
			for j := i; j < len(b); j++ {
				if b[j] == '_' {
					b[j] = '-'
				}
			}
			return string(b)
		}
	}
	return name
}
