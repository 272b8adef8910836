//go:build js && wasm

// Package jsdom binds the page DOM interfaces to the browser through
// syscall/js.
package jsdom

import (
	"strconv"
	"syscall/js"

	"github.com/yacobolo/assetpipe/internal/page"
)

// Document is the browser document.
type Document struct {
	v js.Value
}

// Global returns the document of the current window.
func Global() *Document {
	return &Document{v: js.Global().Get("document")}
}

// Query implements page.Document.
func (d *Document) Query(selector string) []page.Element {
	return list(d.v.Call("querySelectorAll", selector))
}

// Element wraps a DOM element.
type Element struct {
	v js.Value
}

func list(nodes js.Value) []page.Element {
	n := nodes.Get("length").Int()
	out := make([]page.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &Element{v: nodes.Index(i)})
	}
	return out
}

func wrap(v js.Value) page.Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	return &Element{v: v}
}

func (e *Element) HasClass(name string) bool {
	return e.v.Get("classList").Call("contains", name).Bool()
}

func (e *Element) AddClass(name string)    { e.v.Get("classList").Call("add", name) }
func (e *Element) RemoveClass(name string) { e.v.Get("classList").Call("remove", name) }

func (e *Element) box() box {
	style := js.Global().Call("getComputedStyle", e.v)
	return computedBox(func(prop string) string {
		return style.Call("getPropertyValue", prop).String()
	})
}

// Height is the computed content height, like jQuery's height().
func (e *Element) Height() float64 {
	return e.box().content()
}

// SetHeight sets the content height, adding padding and border back for
// border-box elements.
func (e *Element) SetHeight(px float64) {
	h := e.box().styleHeight(px)
	e.v.Get("style").Set("height", strconv.FormatFloat(h, 'f', -1, 64)+"px")
}

func (e *Element) Parent() page.Element { return wrap(e.v.Get("parentElement")) }
func (e *Element) Children() []page.Element {
	return list(e.v.Get("children"))
}

func (e *Element) Matches(selector string) bool {
	return e.v.Call("matches", selector).Bool()
}

func (e *Element) Query(selector string) []page.Element {
	return list(e.v.Call("querySelectorAll", selector))
}

// CurrentViewport reads the window metrics.
func CurrentViewport() page.Viewport {
	w := js.Global()
	return page.Viewport{
		Width:   w.Get("innerWidth").Float(),
		Height:  w.Get("innerHeight").Float(),
		ScrollY: w.Get("scrollY").Float(),
	}
}

// Listen forwards window resize and scroll events and document clicks to
// events. Events are dropped when the channel is full. The returned function
// removes the listeners.
func Listen(events chan<- page.Event) (release func()) {
	send := func(ev page.Event) {
		select {
		case events <- ev:
		default:
		}
	}
	window := js.Global()
	document := window.Get("document")

	onResize := js.FuncOf(func(js.Value, []js.Value) any {
		send(page.Event{Type: page.EventResize, Viewport: CurrentViewport()})
		return nil
	})
	onScroll := js.FuncOf(func(js.Value, []js.Value) any {
		send(page.Event{Type: page.EventScroll, Viewport: CurrentViewport()})
		return nil
	})
	onClick := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		send(page.Event{Type: page.EventClick, Target: wrap(args[0].Get("target")), Viewport: CurrentViewport()})
		return nil
	})

	window.Call("addEventListener", "resize", onResize)
	window.Call("addEventListener", "scroll", onScroll)
	document.Call("addEventListener", "click", onClick)

	return func() {
		window.Call("removeEventListener", "resize", onResize)
		window.Call("removeEventListener", "scroll", onScroll)
		document.Call("removeEventListener", "click", onClick)
		onResize.Release()
		onScroll.Release()
		onClick.Release()
	}
}

// Export publishes fn as a global function named name.
func Export(name string, fn func()) js.Func {
	f := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})
	js.Global().Set(name, f)
	return f
}
