package sass

import (
	"math"
	"regexp"
	"strings"
)

// ifChain runs the first branch of an @if / @else if / @else chain whose
// condition holds.
func (c *compiler) ifChain(branches []*line, ctx *context) error {
	for i, l := range branches {
		name, params := splitDirective(l.text)
		cond := params
		if name == "else" {
			switch {
			case params == "":
				if i != len(branches)-1 {
					return errorf(branches[i+1].pos, "@else must be the last branch of @if")
				}
				return c.flow(l.children, ctx, nil)
			case params == "if" || strings.HasPrefix(params, "if ") || strings.HasPrefix(params, "if("):
				cond = strings.TrimSpace(params[2:])
			default:
				return errorf(l.pos, "expected \"@else\" or \"@else if\"")
			}
		}
		if cond == "" {
			return errorf(l.pos, "expected a condition")
		}
		v, err := evaluate(cond, ctx.scope, l.pos)
		if err != nil {
			return err
		}
		if truthy(v) {
			return c.flow(l.children, ctx, nil)
		}
	}
	return nil
}

// flow runs a control directive body with vars bound in a fresh flow scope.
func (c *compiler) flow(lines []*line, ctx *context, vars map[string]Value) error {
	sc := newFlowScope(ctx.scope)
	for name, v := range vars {
		sc.vars[name] = v
	}
	return c.exec(lines, ctx.with(func(n *context) {
		n.scope = sc
	}))
}

var eachHeader = regexp.MustCompile(`^(\$[-\w]+(?:\s*,\s*\$[-\w]+)*)\s+in\s+(.+)$`)

func (c *compiler) each(l *line, params string, ctx *context) error {
	m := eachHeader.FindStringSubmatch(params)
	if m == nil {
		return errorf(l.pos, "expected \"@each $var in <list>\"")
	}
	var names []string
	for _, n := range strings.Split(m[1], ",") {
		names = append(names, normalizeName(strings.TrimPrefix(strings.TrimSpace(n), "$")))
	}
	list, err := evaluate(m[2], ctx.scope, l.pos)
	if err != nil {
		return err
	}

	for _, item := range items(list) {
		vars := make(map[string]Value, len(names))
		if len(names) == 1 {
			vars[names[0]] = item
		} else {
			parts := items(item)
			for i, n := range names {
				if i < len(parts) {
					vars[n] = parts[i]
				} else {
					vars[n] = Null{}
				}
			}
		}
		if err := c.flow(l.children, ctx, vars); err != nil {
			return err
		}
	}
	return nil
}

var forHeader = regexp.MustCompile(`^\$([-\w]+)\s+from\s+(.+?)\s+(through|to)\s+(.+)$`)

func (c *compiler) forLoop(l *line, params string, ctx *context) error {
	m := forHeader.FindStringSubmatch(params)
	if m == nil {
		return errorf(l.pos, "expected \"@for $var from <start> through|to <end>\"")
	}
	bound := func(expr string) (Number, error) {
		v, err := evaluate(expr, ctx.scope, l.pos)
		if err != nil {
			return Number{}, err
		}
		n, ok := v.(Number)
		if !ok || n.Val != math.Trunc(n.Val) {
			return Number{}, errorf(l.pos, "%q is not an integer", v.CSS())
		}
		return n, nil
	}
	from, err := bound(m[2])
	if err != nil {
		return err
	}
	to, err := bound(m[4])
	if err != nil {
		return err
	}
	unit, err := commonUnit(from, to, l.pos)
	if err != nil {
		return err
	}

	start, end := int(from.Val), int(to.Val)
	step := 1
	if end < start {
		step = -1
	}
	if m[3] == "to" {
		end -= step
	}
	if (end-start)*step+1 > maxIterations {
		return errorf(l.pos, "@for loop runs more than %d times", maxIterations)
	}

	name := normalizeName(m[1])
	for i := start; (step > 0 && i <= end) || (step < 0 && i >= end); i += step {
		vars := map[string]Value{name: Number{Val: float64(i), Unit: unit, computed: true}}
		if err := c.flow(l.children, ctx, vars); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) while(l *line, cond string, ctx *context) error {
	if cond == "" {
		return errorf(l.pos, "expected a condition")
	}
	for n := 0; ; n++ {
		v, err := evaluate(cond, ctx.scope, l.pos)
		if err != nil {
			return err
		}
		if !truthy(v) {
			return nil
		}
		if n == maxIterations {
			return errorf(l.pos, "@while loop runs more than %d times", maxIterations)
		}
		if err := c.flow(l.children, ctx, nil); err != nil {
			return err
		}
	}
}
