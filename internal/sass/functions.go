package sass

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// builtin evaluates a function call. handled is false when the arguments do
// not fit and the call should be emitted as plain CSS instead.
type builtin func(args []Value) (v Value, handled bool, err error)

var builtins = map[string]builtin{
	"rgba":        rgbaFn,
	"rgb":         rgbFn,
	"lighten":     lightnessFn(1),
	"darken":      lightnessFn(-1),
	"percentage":  percentageFn,
	"round":       roundingFn(math.Round),
	"ceil":        roundingFn(math.Ceil),
	"floor":       roundingFn(math.Floor),
	"unquote":     unquoteFn,
	"quote":       quoteFn,
	"abs":         roundingFn(math.Abs),
	"unit":        unitFn,
	"unitless":    unitlessFn,
	"type-of":     typeOfFn,
	"if":          ifFn,
	"length":      lengthFn,
	"nth":         nthFn,
	"index":       indexFn,
	"append":      appendFn,
	"map-get":     mapGetFn,
	"map-has-key": mapHasKeyFn,
	"map-keys":    mapPartFn(func(m Map) []Value { return m.Keys }),
	"map-values":  mapPartFn(func(m Map) []Value { return m.Vals }),
}

func rgbaFn(args []Value) (Value, bool, error) {
	switch len(args) {
	case 2:
		c, ok := args[0].(Color)
		if !ok {
			return nil, false, nil
		}
		a, ok := args[1].(Number)
		if !ok {
			return nil, false, fmt.Errorf("alpha %q is not a number", args[1].CSS())
		}
		c.raw = ""
		c.A = alphaValue(a)
		return c, true, nil
	case 4:
		return rgbComponents(args[:3], args[3])
	}
	return nil, false, nil
}

func rgbFn(args []Value) (Value, bool, error) {
	if len(args) != 3 {
		return nil, false, nil
	}
	return rgbComponents(args, nil)
}

func rgbComponents(channels []Value, alpha Value) (Value, bool, error) {
	var rgb [3]float64
	for i, ch := range channels {
		n, ok := ch.(Number)
		if !ok {
			return nil, false, nil
		}
		switch n.Unit {
		case "":
			rgb[i] = n.Val
		case "%":
			rgb[i] = n.Val * 255 / 100
		default:
			return nil, false, fmt.Errorf("channel %q has unit %s", n.CSS(), n.Unit)
		}
	}
	c := Color{R: rgb[0], G: rgb[1], B: rgb[2], A: 1}
	if alpha != nil {
		a, ok := alpha.(Number)
		if !ok {
			return nil, false, nil
		}
		c.A = alphaValue(a)
	}
	return c, true, nil
}

func alphaValue(n Number) float64 {
	v := n.Val
	if n.Unit == "%" {
		v /= 100
	}
	return math.Max(0, math.Min(1, v))
}

func lightnessFn(sign float64) builtin {
	return func(args []Value) (Value, bool, error) {
		if len(args) != 2 {
			return nil, false, errors.New("expected a color and an amount")
		}
		c, ok := args[0].(Color)
		if !ok {
			return nil, false, fmt.Errorf("%q is not a color", args[0].CSS())
		}
		amount, ok := args[1].(Number)
		if !ok || (amount.Unit != "%" && amount.Unit != "") {
			return nil, false, fmt.Errorf("%q is not a percentage", args[1].CSS())
		}
		h, s, l := c.hsl()
		return colorFromHSL(h, s, l+sign*amount.Val, c.A), true, nil
	}
}

func percentageFn(args []Value) (Value, bool, error) {
	if len(args) != 1 {
		return nil, false, errors.New("expected one argument")
	}
	n, ok := args[0].(Number)
	if !ok || n.Unit != "" {
		return nil, false, fmt.Errorf("%q is not a unitless number", args[0].CSS())
	}
	return Number{Val: n.Val * 100, Unit: "%", computed: true}, true, nil
}

func roundingFn(fn func(float64) float64) builtin {
	return func(args []Value) (Value, bool, error) {
		if len(args) != 1 {
			return nil, false, errors.New("expected one argument")
		}
		n, ok := args[0].(Number)
		if !ok {
			return nil, false, fmt.Errorf("%q is not a number", args[0].CSS())
		}
		n.Val = fn(n.Val)
		n.computed = true
		return n, true, nil
	}
}

func unquoteFn(args []Value) (Value, bool, error) {
	if len(args) != 1 {
		return nil, false, errors.New("expected one argument")
	}
	return Str{S: unquoted(args[0])}, true, nil
}

func quoteFn(args []Value) (Value, bool, error) {
	if len(args) != 1 {
		return nil, false, errors.New("expected one argument")
	}
	return Str{S: unquoted(args[0]), Quoted: true, quote: '"'}, true, nil
}

func unitFn(args []Value) (Value, bool, error) {
	n, err := numberArg(args)
	if err != nil {
		return nil, false, err
	}
	return Str{S: n.Unit, Quoted: true, quote: '"'}, true, nil
}

func unitlessFn(args []Value) (Value, bool, error) {
	n, err := numberArg(args)
	if err != nil {
		return nil, false, err
	}
	return Bool(n.Unit == ""), true, nil
}

func numberArg(args []Value) (Number, error) {
	if len(args) != 1 {
		return Number{}, errors.New("expected one argument")
	}
	n, ok := args[0].(Number)
	if !ok {
		return Number{}, fmt.Errorf("%q is not a number", args[0].CSS())
	}
	return n, nil
}

func typeOfFn(args []Value) (Value, bool, error) {
	if len(args) != 1 {
		return nil, false, errors.New("expected one argument")
	}
	var name string
	switch args[0].(type) {
	case Number:
		name = "number"
	case Color:
		name = "color"
	case Bool:
		name = "bool"
	case Null:
		name = "null"
	case List:
		name = "list"
	case Map:
		name = "map"
	default:
		name = "string"
	}
	return Str{S: name}, true, nil
}

func ifFn(args []Value) (Value, bool, error) {
	if len(args) != 3 {
		return nil, false, errors.New("expected a condition and two values")
	}
	if truthy(args[0]) {
		return args[1], true, nil
	}
	return args[2], true, nil
}

func lengthFn(args []Value) (Value, bool, error) {
	if len(args) != 1 {
		return nil, false, errors.New("expected one argument")
	}
	return Number{Val: float64(len(items(args[0]))), computed: true}, true, nil
}

func nthFn(args []Value) (Value, bool, error) {
	if len(args) != 2 {
		return nil, false, errors.New("expected a list and an index")
	}
	list := items(args[0])
	n, ok := args[1].(Number)
	if !ok || n.Val != math.Trunc(n.Val) || n.Val == 0 {
		return nil, false, fmt.Errorf("%q is not a valid index", args[1].CSS())
	}
	i := int(n.Val)
	if i < 0 {
		i += len(list) + 1
	}
	if i < 1 || i > len(list) {
		return nil, false, fmt.Errorf("index %d is out of bounds for a list of length %d", int(n.Val), len(list))
	}
	return list[i-1], true, nil
}

func indexFn(args []Value) (Value, bool, error) {
	if len(args) != 2 {
		return nil, false, errors.New("expected a list and a value")
	}
	for i, v := range items(args[0]) {
		if equalValues(v, args[1]) {
			return Number{Val: float64(i + 1), computed: true}, true, nil
		}
	}
	return Null{}, true, nil
}

func appendFn(args []Value) (Value, bool, error) {
	if len(args) != 2 {
		return nil, false, errors.New("expected a list and a value")
	}
	out := List{Items: append(slices.Clone(items(args[0])), args[1])}
	if l, ok := args[0].(List); ok {
		out.Comma = l.Comma
	}
	return out, true, nil
}

func mapArg(v Value) (Map, error) {
	switch v := v.(type) {
	case Map:
		return v, nil
	case List:
		if len(v.Items) == 0 {
			return Map{}, nil
		}
	}
	return Map{}, fmt.Errorf("%q is not a map", v.CSS())
}

func mapGetFn(args []Value) (Value, bool, error) {
	if len(args) != 2 {
		return nil, false, errors.New("expected a map and a key")
	}
	m, err := mapArg(args[0])
	if err != nil {
		return nil, false, err
	}
	if v, ok := m.get(args[1]); ok {
		return v, true, nil
	}
	return Null{}, true, nil
}

func mapHasKeyFn(args []Value) (Value, bool, error) {
	if len(args) != 2 {
		return nil, false, errors.New("expected a map and a key")
	}
	m, err := mapArg(args[0])
	if err != nil {
		return nil, false, err
	}
	_, ok := m.get(args[1])
	return Bool(ok), true, nil
}

func mapPartFn(part func(Map) []Value) builtin {
	return func(args []Value) (Value, bool, error) {
		if len(args) != 1 {
			return nil, false, errors.New("expected one argument")
		}
		m, err := mapArg(args[0])
		if err != nil {
			return nil, false, err
		}
		return List{Items: slices.Clone(part(m)), Comma: true}, true, nil
	}
}
