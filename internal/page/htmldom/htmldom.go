// Package htmldom adapts static HTML parsed by goquery to the page DOM
// interfaces. Heights come from the inline style height declaration in
// pixels; elements without one have height 0.
package htmldom

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yacobolo/assetpipe/internal/page"
)

var heightRe = regexp.MustCompile(`(?i)(?:^|;)\s*height\s*:\s*(-?[0-9.]+)px\s*(?:;|$)`)

// Document is a parsed HTML document.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Query implements page.Document.
func (d *Document) Query(selector string) []page.Element {
	return wrap(d.doc.Find(selector))
}

// Render returns the document as HTML.
func (d *Document) Render() (string, error) {
	return d.doc.Html()
}

// Element is a single element of a Document.
type Element struct {
	s *goquery.Selection
}

func wrap(s *goquery.Selection) []page.Element {
	out := make([]page.Element, 0, s.Length())
	s.Each(func(_ int, e *goquery.Selection) {
		out = append(out, &Element{s: e})
	})
	return out
}

func (e *Element) HasClass(name string) bool { return e.s.HasClass(name) }

func (e *Element) AddClass(name string) {
	e.s.AddClass(name)
	e.tidyClass()
}

func (e *Element) RemoveClass(name string) {
	e.s.RemoveClass(name)
	e.tidyClass()
}

// tidyClass collapses the whitespace goquery leaves in the class attribute.
func (e *Element) tidyClass() {
	if class, ok := e.s.Attr("class"); ok {
		e.s.SetAttr("class", strings.Join(strings.Fields(class), " "))
	}
}

func (e *Element) Height() float64 {
	m := heightRe.FindStringSubmatch(e.s.AttrOr("style", ""))
	if m == nil {
		return 0
	}
	h, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return h
}

// SetHeight replaces the inline height declaration, keeping other styles.
func (e *Element) SetHeight(px float64) {
	var decls []string
	for _, d := range strings.Split(e.s.AttrOr("style", ""), ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if name, _, ok := strings.Cut(d, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "height") {
			continue
		}
		decls = append(decls, d)
	}
	decls = append(decls, "height: "+strconv.FormatFloat(px, 'f', -1, 64)+"px")
	e.s.SetAttr("style", strings.Join(decls, "; "))
}

func (e *Element) Parent() page.Element {
	p := e.s.Parent()
	if p.Length() == 0 {
		return nil
	}
	return &Element{s: p}
}

func (e *Element) Children() []page.Element             { return wrap(e.s.Children()) }
func (e *Element) Matches(selector string) bool         { return e.s.Is(selector) }
func (e *Element) Query(selector string) []page.Element { return wrap(e.s.Find(selector)) }
