package page

const (
	// MobileBreakpoint is the widest viewport, in CSS pixels, treated as mobile.
	MobileBreakpoint = 760
	// ScrollThreshold is the scroll offset at which the navbar turns opaque.
	ScrollThreshold = 80
)

// Selectors and classes of the page contract.
const (
	SelectorFlipTrigger = ".flip-it"
	SelectorCard        = ".card"
	SelectorFlipToggle  = ".flip_toggle"
	SelectorFront       = ".front"
	SelectorBack        = ".back"
	SelectorSameHeight  = ".row-same-height"
	SelectorColumn      = `div[class^="col-"]`
	SelectorBox         = ".box"
	SelectorNavbar      = "header.navbar.navbar-transparent"
	SelectorOverlay     = ".navbar-overlay, .navbar-transparent"

	ClassFlipped = "flipped"
	ClassMobile  = "is-mobile"
	ClassActive  = "is-active"
)

// Viewport holds the window metrics behaviors depend on.
type Viewport struct {
	Width   float64
	Height  float64
	ScrollY float64
}

// MobileState reports whether a viewport of the given width is mobile.
func MobileState(width float64) bool {
	return width <= MobileBreakpoint
}

// ScrollState reports whether the navbar is active at the given scroll offset.
func ScrollState(scrollY float64) bool {
	return scrollY >= ScrollThreshold
}

// ClassChange says whether Class must be present on every element matching
// Selector.
type ClassChange struct {
	Selector string
	Class    string
	On       bool
}

// ClassSet is a list of class changes applied in order.
type ClassSet []ClassChange

// MobileClasses is the navbar state that depends on the viewport width.
func MobileClasses(v Viewport) ClassSet {
	return ClassSet{{Selector: SelectorNavbar, Class: ClassMobile, On: MobileState(v.Width)}}
}

// ScrollClasses is the navbar state that depends on the scroll offset.
func ScrollClasses(v Viewport) ClassSet {
	return ClassSet{{Selector: SelectorOverlay, Class: ClassActive, On: ScrollState(v.ScrollY)}}
}

// NavbarClasses is the complete navbar state for a viewport.
func NavbarClasses(v Viewport) ClassSet {
	return append(MobileClasses(v), ScrollClasses(v)...)
}

// Apply makes doc match set. Applying the same set twice changes nothing.
func Apply(doc Document, set ClassSet) {
	for _, c := range set {
		for _, e := range doc.Query(c.Selector) {
			switch has := e.HasClass(c.Class); {
			case c.On && !has:
				e.AddClass(c.Class)
			case !c.On && has:
				e.RemoveClass(c.Class)
			}
		}
	}
}
