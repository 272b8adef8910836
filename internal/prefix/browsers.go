package prefix

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultBrowsers is the target list used when none is configured.
const DefaultBrowsers = "last 3 version, safari 5, ie 8, ie 9"

// Target is one browser release the output must support.
type Target struct {
	Browser string
	Version Version
}

func (t Target) String() string {
	return t.Browser + " " + t.Version.String()
}

// Version is a dotted release number.
type Version []int

// ParseVersion parses "4.4.3" style versions.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	v := make(Version, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q", s)
		}
		v[i] = n
	}
	return v, nil
}

func mustVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1. Missing components count as zero, so 5 and
// 5.0 are equal.
func (v Version) Compare(o Version) int {
	for i := 0; i < max(len(v), len(o)); i++ {
		var a, b int
		if i < len(v) {
			a = v[i]
		}
		if i < len(o) {
			b = o[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

var aliases = map[string]string{
	"explorer":      "ie",
	"ff":            "firefox",
	"ios":           "ios_saf",
	"ios_safari":    "ios_saf",
	"chromium":      "chrome",
	"androidwebkit": "android",
}

func browserName(s string) (string, bool) {
	s = strings.ToLower(s)
	if a, ok := aliases[s]; ok {
		s = a
	}
	_, ok := releases[s]
	return s, ok
}

// Resolve turns a browserslist-style query into the set of target
// releases. Supported forms, joined by commas:
//
//	last 2 versions
//	last 2 chrome versions
//	ie 8
//	firefox >= 20
//	not ie 9
func Resolve(query string) ([]Target, error) {
	selected := make(map[string]Target)

	for _, q := range strings.Split(query, ",") {
		q = strings.Join(strings.Fields(strings.ToLower(q)), " ")
		if q == "" {
			continue
		}
		negate := false
		if rest, ok := strings.CutPrefix(q, "not "); ok {
			negate = true
			q = rest
		}

		targets, err := resolveOne(q)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			key := t.String()
			if negate {
				delete(selected, key)
			} else {
				selected[key] = t
			}
		}
	}

	out := make([]Target, 0, len(selected))
	for _, t := range selected {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Target) int {
		if c := strings.Compare(a.Browser, b.Browser); c != 0 {
			return c
		}
		return a.Version.Compare(b.Version)
	})
	return out, nil
}

func resolveOne(q string) ([]Target, error) {
	f := strings.Fields(q)

	if f[0] == "last" {
		if len(f) < 3 {
			return nil, fmt.Errorf("unknown browser query %q", q)
		}
		n, err := strconv.Atoi(f[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("unknown browser query %q", q)
		}
		switch {
		case len(f) == 3 && (f[2] == "version" || f[2] == "versions"):
			var out []Target
			for _, b := range browserOrder {
				out = append(out, lastN(b, n)...)
			}
			return out, nil
		case len(f) == 4 && (f[3] == "version" || f[3] == "versions"):
			b, ok := browserName(f[2])
			if !ok {
				return nil, fmt.Errorf("unknown browser %q", f[2])
			}
			return lastN(b, n), nil
		}
		return nil, fmt.Errorf("unknown browser query %q", q)
	}

	b, ok := browserName(f[0])
	if !ok {
		return nil, fmt.Errorf("unknown browser query %q", q)
	}

	switch len(f) {
	case 2:
		v, err := ParseVersion(f[1])
		if err != nil {
			return nil, err
		}
		for _, r := range releases[b] {
			if mustVersion(r).Compare(v) == 0 {
				return []Target{{Browser: b, Version: mustVersion(r)}}, nil
			}
		}
		return nil, fmt.Errorf("unknown version %s of %s", f[1], b)
	case 3:
		v, err := ParseVersion(f[2])
		if err != nil {
			return nil, err
		}
		var keep func(int) bool
		switch f[1] {
		case ">=":
			keep = func(c int) bool { return c >= 0 }
		case ">":
			keep = func(c int) bool { return c > 0 }
		case "<=":
			keep = func(c int) bool { return c <= 0 }
		case "<":
			keep = func(c int) bool { return c < 0 }
		default:
			return nil, fmt.Errorf("unknown browser query %q", q)
		}
		var out []Target
		for _, r := range releases[b] {
			rv := mustVersion(r)
			if keep(rv.Compare(v)) {
				out = append(out, Target{Browser: b, Version: rv})
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown browser query %q", q)
}

func lastN(browser string, n int) []Target {
	rs := releases[browser]
	if n > len(rs) {
		n = len(rs)
	}
	out := make([]Target, 0, n)
	for _, r := range rs[len(rs)-n:] {
		out = append(out, Target{Browser: browser, Version: mustVersion(r)})
	}
	return out
}

var browserOrder = []string{"android", "chrome", "edge", "firefox", "ie", "ios_saf", "opera", "safari"}

// releases lists known versions per browser, oldest first.
var releases = map[string][]string{
	"ie":      {"5.5", "6", "7", "8", "9", "10", "11"},
	"edge":    append(span(12, 18), span(79, 130)...),
	"firefox": append([]string{"2", "3", "3.5", "3.6"}, span(4, 132)...),
	"chrome":  span(4, 130),
	"safari": {
		"3.1", "3.2", "4", "5", "5.1", "6", "6.1", "7", "7.1", "8", "9", "9.1",
		"10", "10.1", "11", "11.1", "12", "12.1", "13", "13.1", "14", "14.1",
		"15", "15.1", "15.2", "15.4", "15.5", "15.6", "16", "16.1", "16.2", "16.3",
		"16.4", "16.5", "16.6", "17", "17.1", "17.2", "17.3", "17.4", "17.5", "17.6",
		"18", "18.1",
	},
	"ios_saf": {
		"3.2", "4", "4.2", "5", "6", "6.1", "7", "7.1", "8", "8.1", "8.4", "9", "9.3",
		"10", "10.3", "11", "11.3", "12", "12.2", "13", "13.4", "14", "14.5",
		"15", "15.2", "15.4", "15.5", "15.6", "16", "16.1", "16.2", "16.3",
		"16.4", "16.5", "16.6", "17", "17.1", "17.2", "17.3", "17.4", "17.5", "17.6",
		"18", "18.1",
	},
	"opera": append([]string{"9", "9.5", "10", "10.5", "10.6", "11", "11.1", "11.5", "11.6", "12", "12.1"},
		span(15, 114)...),
	"android": {"2.1", "2.2", "2.3", "3", "4", "4.1", "4.2", "4.3", "4.4", "4.4.3", "130"},
}

func span(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}
