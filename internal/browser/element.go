package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// domElement is an Element backed by a parsed DOM snapshot
type domElement struct {
	sel *goquery.Selection
}

// NewElement wraps a goquery selection as an Element
func NewElement(sel *goquery.Selection) Element {
	return domElement{sel: sel}
}

func (e domElement) Text() string {
	return e.sel.Text()
}

func (e domElement) Attribute(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e domElement) Find(selector string) (Element, bool) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return domElement{sel: found}, true
}

// ParseHTML parses a page snapshot into a goquery document
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("HTML parsing error: %w", err)
	}
	return doc, nil
}

// Elements returns the matches of selector inside root in document order
func Elements(root *goquery.Selection, selector string) []Element {
	matches := root.Find(selector)
	elements := make([]Element, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, domElement{sel: s})
	})
	return elements
}
