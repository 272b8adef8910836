// Package page implements the interactive behaviors of the site pages: card
// flips, equal-height rows and the transparent navbar. State is computed by
// pure functions from viewport metrics and applied to a DOM through the
// Element and Document interfaces, so the same code drives a browser (see
// jsdom) and static HTML (see htmldom).
package page

// Element is the part of a DOM element the behaviors use.
type Element interface {
	HasClass(name string) bool
	AddClass(name string)
	RemoveClass(name string)
	// Height is the content height in CSS pixels.
	Height() float64
	SetHeight(px float64)
	// Parent returns nil for the root element.
	Parent() Element
	Children() []Element
	Matches(selector string) bool
	// Query returns matching descendants in document order.
	Query(selector string) []Element
}

// Document gives access to elements by CSS selector.
type Document interface {
	Query(selector string) []Element
}

// ToggleClass adds name if it is missing and removes it otherwise.
func ToggleClass(e Element, name string) {
	if e.HasClass(name) {
		e.RemoveClass(name)
	} else {
		e.AddClass(name)
	}
}

// Closest returns e or its nearest ancestor matching selector, or nil.
func Closest(e Element, selector string) Element {
	for ; e != nil; e = e.Parent() {
		if e.Matches(selector) {
			return e
		}
	}
	return nil
}

// ChildrenMatching returns the direct children of e matching selector.
func ChildrenMatching(e Element, selector string) []Element {
	var out []Element
	for _, c := range e.Children() {
		if c.Matches(selector) {
			out = append(out, c)
		}
	}
	return out
}
