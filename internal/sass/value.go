package sass

import (
	"math"
	"strconv"
	"strings"
)

// Value is an evaluated SassScript value.
type Value interface {
	// CSS renders the value the way it appears in a declaration.
	CSS() string
}

// Number is a numeric value with an optional unit.
type Number struct {
	Val  float64
	Unit string

	// computed marks numbers produced by variables or arithmetic; a slash
	// between two plain literals stays a literal separator.
	computed bool
}

// CSS implements Value.
func (n Number) CSS() string {
	return formatNumber(n.Val) + n.Unit
}

func formatNumber(v float64) string {
	if r := math.Round(v); math.Abs(v-r) < 1e-10 {
		if r == 0 {
			return "0"
		}
		return strconv.FormatFloat(r, 'f', -1, 64)
	}
	return strconv.FormatFloat(math.Round(v*1e5)/1e5, 'f', -1, 64)
}

// Color is an RGBA color. Unmodified colors keep their source spelling.
type Color struct {
	R, G, B float64
	A       float64
	raw     string
}

// CSS implements Value.
func (c Color) CSS() string {
	if c.raw != "" {
		return c.raw
	}
	r, g, b := clampByte(c.R), clampByte(c.G), clampByte(c.B)
	if c.A >= 1 {
		return "#" + hexByte(r) + hexByte(g) + hexByte(b)
	}
	return "rgba(" + strconv.Itoa(r) + ", " + strconv.Itoa(g) + ", " + strconv.Itoa(b) + ", " + formatNumber(c.A) + ")"
}

func clampByte(v float64) int {
	return int(math.Max(0, math.Min(255, math.Round(v))))
}

func hexByte(v int) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4], digits[v&0xf]})
}

func parseHexColor(s string) (Color, bool) {
	h := strings.TrimPrefix(s, "#")
	switch len(h) {
	case 3, 4:
		var expanded strings.Builder
		for i := 0; i < len(h); i++ {
			expanded.WriteByte(h[i])
			expanded.WriteByte(h[i])
		}
		h = expanded.String()
	case 6, 8:
	default:
		return Color{}, false
	}

	v, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return Color{}, false
	}
	c := Color{A: 1, raw: s}
	if len(h) == 8 {
		c.A = float64(v&0xff) / 255
		v >>= 8
	}
	c.R = float64((v >> 16) & 0xff)
	c.G = float64((v >> 8) & 0xff)
	c.B = float64(v & 0xff)
	return c, true
}

// hsl returns hue in degrees and saturation/lightness in percent.
func (c Color) hsl() (h, s, l float64) {
	r, g, b := c.R/255, c.G/255, c.B/255
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	l = (maxC + minC) / 2
	if maxC == minC {
		return 0, 0, l * 100
	}
	d := maxC - minC
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}
	switch maxC {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s * 100, l * 100
}

func colorFromHSL(h, s, l, a float64) Color {
	h = math.Mod(h, 360) / 360
	s = math.Max(0, math.Min(100, s)) / 100
	l = math.Max(0, math.Min(100, l)) / 100

	if s == 0 {
		return Color{R: l * 255, G: l * 255, B: l * 255, A: a}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return Color{
		R: hueToRGB(p, q, h+1.0/3) * 255,
		G: hueToRGB(p, q, h) * 255,
		B: hueToRGB(p, q, h-1.0/3) * 255,
		A: a,
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

// Str is a quoted or unquoted string.
type Str struct {
	S      string
	Quoted bool
	quote  byte
}

// CSS implements Value.
func (s Str) CSS() string {
	if !s.Quoted {
		return s.S
	}
	q := s.quote
	if q == 0 {
		q = '"'
	}
	return string(q) + s.S + string(q)
}

// List is a space- or comma-separated list. For space lists, Spaced[i]
// records whether whitespace preceded item i in the source.
type List struct {
	Items  []Value
	Spaced []bool
	Comma  bool
}

// CSS implements Value.
func (l List) CSS() string {
	var sb strings.Builder
	for i, item := range l.Items {
		if i > 0 {
			switch {
			case l.Comma:
				sb.WriteString(", ")
			case i >= len(l.Spaced) || l.Spaced[i]:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(item.CSS())
	}
	return sb.String()
}

// Bool is true or false.
type Bool bool

// CSS implements Value.
func (b Bool) CSS() string {
	if b {
		return "true"
	}
	return "false"
}

// Null is the absent value. Declarations whose value is null are omitted.
type Null struct{}

// CSS implements Value.
func (Null) CSS() string { return "" }

// Map is an ordered list of key/value pairs.
type Map struct {
	Keys []Value
	Vals []Value
}

// CSS implements Value. Maps are not valid CSS; the Sass form is rendered.
func (m Map) CSS() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := range m.Keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(m.Keys[i].CSS())
		sb.WriteString(": ")
		sb.WriteString(m.Vals[i].CSS())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (m Map) get(key Value) (Value, bool) {
	for i, k := range m.Keys {
		if equalValues(k, key) {
			return m.Vals[i], true
		}
	}
	return nil, false
}

// truthy reports whether v counts as true in a condition: everything but
// false and null does.
func truthy(v Value) bool {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Null:
		return false
	}
	return v != nil
}

// items returns the elements of a list, the key/value pairs of a map or
// the value itself as a one-element list.
func items(v Value) []Value {
	switch v := v.(type) {
	case List:
		return v.Items
	case Map:
		out := make([]Value, len(v.Keys))
		for i := range v.Keys {
			out[i] = List{Items: []Value{v.Keys[i], v.Vals[i]}}
		}
		return out
	case Null:
		return nil
	}
	return []Value{v}
}

func equalValues(a, b Value) bool {
	switch a := a.(type) {
	case Number:
		bn, ok := b.(Number)
		if !ok || math.Abs(a.Val-bn.Val) > 1e-10 {
			return false
		}
		return a.Unit == bn.Unit || a.Unit == "" || bn.Unit == ""
	case Str:
		bs, ok := b.(Str)
		return ok && a.S == bs.S
	case Color:
		bc, ok := b.(Color)
		return ok && clampByte(a.R) == clampByte(bc.R) && clampByte(a.G) == clampByte(bc.G) &&
			clampByte(a.B) == clampByte(bc.B) && math.Abs(a.A-bc.A) < 1e-10
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Null:
		_, ok := b.(Null)
		return ok
	case List:
		bl, ok := b.(List)
		if !ok || len(a.Items) != len(bl.Items) || (len(a.Items) > 1 && a.Comma != bl.Comma) {
			return false
		}
		for i := range a.Items {
			if !equalValues(a.Items[i], bl.Items[i]) {
				return false
			}
		}
		return true
	case Map:
		bm, ok := b.(Map)
		if !ok || len(a.Keys) != len(bm.Keys) {
			return false
		}
		for i, k := range a.Keys {
			if v, found := bm.get(k); !found || !equalValues(a.Vals[i], v) {
				return false
			}
		}
		return true
	}
	return a.CSS() == b.CSS()
}

// unquoted renders a value with the quotes of a top-level string removed,
// the way interpolation does.
func unquoted(v Value) string {
	if s, ok := v.(Str); ok {
		return s.S
	}
	return v.CSS()
}

func parseNumber(text string) (Number, bool) {
	end := 0
	for end < len(text) {
		c := text[end]
		if (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && end == 0) {
			end++
			continue
		}
		if (c == 'e' || c == 'E') && end+1 < len(text) && text[end+1] >= '0' && text[end+1] <= '9' {
			end += 2
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(text[:end], 64)
	if err != nil {
		return Number{}, false
	}
	return Number{Val: v, Unit: text[end:]}, true
}
