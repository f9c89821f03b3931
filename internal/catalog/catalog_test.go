package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
	"github.com/Rezanikmanesh-79/Karamoozi/services/sink"
)

var corpus = crawler.Corpus{
	{Title: "گوشی A55", Link: "https://shop.test/p/a55", Price: "۱۲۰,۰۰۰", Category: "موبایل"},
	{Title: "Laptop", Link: "https://shop.test/p/laptop", Category: "Laptops"},
	{Title: "گوشی A35", Link: "https://shop.test/p/a35", Price: "۹۰,۰۰۰", Category: "موبایل"},
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_products.json")
	require.NoError(t, sink.NewFileSink(path).Write(context.Background(), corpus))

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	p, ok := table.At(0)
	require.True(t, ok)
	assert.Equal(t, corpus[0], p)

	_, ok = table.At(3)
	assert.False(t, ok)
	_, ok = table.At(-1)
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, crawlerrors.IsType(err, crawlerrors.ErrorTypePersistence))
}

func TestTableIsIsolatedFromInput(t *testing.T) {
	input := append(crawler.Corpus{}, corpus...)
	table := New(input)
	input[0].Title = "changed"

	p, _ := table.At(0)
	assert.Equal(t, "گوشی A55", p.Title)
}

func TestByCategory(t *testing.T) {
	table := New(corpus)

	mobiles := table.ByCategory("موبایل")
	require.Len(t, mobiles, 2)
	assert.Equal(t, "گوشی A55", mobiles[0].Title)
	assert.Equal(t, "گوشی A35", mobiles[1].Title)

	assert.Empty(t, table.ByCategory("Unknown"))
	assert.Equal(t, []string{"موبایل", "Laptops"}, table.Categories())
}

func TestRender(t *testing.T) {
	table := New(corpus)

	all := table.Render(0)
	lines := strings.Split(strings.TrimSpace(all), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1. گوشی A55 | ۱۲۰,۰۰۰ | موبایل | https://shop.test/p/a55", lines[0])
	assert.Equal(t, "2. Laptop | Laptops | https://shop.test/p/laptop", lines[1])

	limited := strings.TrimSpace(table.Render(1))
	assert.Equal(t, lines[0], limited)

	byCategory := strings.Split(strings.TrimSpace(table.RenderCategory("موبایل", 10)), "\n")
	require.Len(t, byCategory, 2)
	assert.True(t, strings.HasPrefix(byCategory[1], "2. گوشی A35"))

	assert.Empty(t, New(nil).Render(5))
}
