// Package catalog is the read-only view of a persisted corpus that downstream
// consumers load once at start.
package catalog

import (
	"fmt"
	"strings"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	"github.com/Rezanikmanesh-79/Karamoozi/services/sink"
)

// Table is an immutable product table keyed by list position. It is never
// mutated after Load, so concurrent readers need no locking.
type Table struct {
	products   []crawler.ProductRecord
	byCategory map[string][]int
}

// Load reads the corpus file at path
func Load(path string) (*Table, error) {
	corpus, err := sink.ReadCorpus(path)
	if err != nil {
		return nil, err
	}
	return New(corpus), nil
}

// New builds a table from a copy of corpus
func New(corpus crawler.Corpus) *Table {
	t := &Table{
		products:   append([]crawler.ProductRecord(nil), corpus...),
		byCategory: make(map[string][]int),
	}
	for i, p := range t.products {
		t.byCategory[p.Category] = append(t.byCategory[p.Category], i)
	}
	return t
}

// Len returns the number of products
func (t *Table) Len() int {
	return len(t.products)
}

// At returns the product at position i
func (t *Table) At(i int) (crawler.ProductRecord, bool) {
	if i < 0 || i >= len(t.products) {
		return crawler.ProductRecord{}, false
	}
	return t.products[i], true
}

// Categories returns the category names in first-seen order
func (t *Table) Categories() []string {
	seen := make(map[string]bool, len(t.byCategory))
	names := make([]string, 0, len(t.byCategory))
	for _, p := range t.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			names = append(names, p.Category)
		}
	}
	return names
}

// ByCategory returns the products of one category in corpus order
func (t *Table) ByCategory(category string) []crawler.ProductRecord {
	positions := t.byCategory[category]
	out := make([]crawler.ProductRecord, 0, len(positions))
	for _, i := range positions {
		out = append(out, t.products[i])
	}
	return out
}

// Render formats the first limit products as text lines, one product per line.
// limit <= 0 renders the whole table.
func (t *Table) Render(limit int) string {
	return render(t.products, limit)
}

// RenderCategory renders like Render, restricted to one category
func (t *Table) RenderCategory(category string, limit int) string {
	return render(t.ByCategory(category), limit)
}

func render(products []crawler.ProductRecord, limit int) string {
	if limit <= 0 || limit > len(products) {
		limit = len(products)
	}

	var b strings.Builder
	for i, p := range products[:limit] {
		fmt.Fprintf(&b, "%d. %s", i+1, p.Title)
		if p.Price != "" {
			fmt.Fprintf(&b, " | %s", p.Price)
		}
		if p.Category != "" {
			fmt.Fprintf(&b, " | %s", p.Category)
		}
		fmt.Fprintf(&b, " | %s\n", p.Link)
	}
	return b.String()
}
