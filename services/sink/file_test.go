package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

func sampleCorpus() crawler.Corpus {
	return crawler.Corpus{
		{Title: "گوشی سامسونگ Galaxy A55", Link: "https://www.ehadish.com/p/a55", Price: "۱۲۰,۰۰۰", Image: "https://www.ehadish.com/img/a55.jpg", Category: "موبایل"},
		{Title: "Cable <USB-C> & adapter", Link: "https://www.ehadish.com/p/cable?x=1&y=2", Price: "", Image: "", Category: "لوازم جانبی"},
		{Title: "Widget", Link: "https://www.ehadish.com/p/widget", Price: "99", Image: "", Category: "Mobiles"},
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_products.json")
	corpus := sampleCorpus()

	require.NoError(t, NewFileSink(path).Write(context.Background(), corpus))

	read, err := ReadCorpus(path)
	require.NoError(t, err)
	require.Len(t, read, len(corpus))
	for i := range corpus {
		assert.Equal(t, corpus[i], read[i])
	}
}

func TestFileSinkFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_products.json")
	require.NoError(t, NewFileSink(path).Write(context.Background(), sampleCorpus()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "گوشی سامسونگ", "non-ASCII text must not be escaped")
	assert.Contains(t, text, "<USB-C> & adapter")
	assert.NotContains(t, text, `\u`)
	assert.Contains(t, text, `"price": ""`)
	assert.Contains(t, text, `"image": ""`)

	titleAt := strings.Index(text, `"title"`)
	linkAt := strings.Index(text, `"link"`)
	priceAt := strings.Index(text, `"price"`)
	imageAt := strings.Index(text, `"image"`)
	categoryAt := strings.Index(text, `"category"`)
	assert.True(t, titleAt < linkAt && linkAt < priceAt && priceAt < imageAt && imageAt < categoryAt)
}

func TestFileSinkEmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_products.json")

	require.NoError(t, NewFileSink(path).Write(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))

	read, err := ReadCorpus(path)
	require.NoError(t, err)
	assert.NotNil(t, read)
	assert.Empty(t, read)
}

func TestFileSinkOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "all_products.json")
	s := NewFileSink(path)

	require.NoError(t, s.Write(context.Background(), sampleCorpus()))
	require.NoError(t, s.Write(context.Background(), sampleCorpus()[:1]))

	read, err := ReadCorpus(path)
	require.NoError(t, err)
	assert.Len(t, read, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")
}

func TestFileSinkFailureKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "all_products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"old"}]`), 0o644))

	// A directory at the target path makes the final rename fail.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "child"), 0o755))

	err := NewFileSink(blocked).Write(context.Background(), sampleCorpus())
	require.Error(t, err)
	assert.True(t, crawlerrors.IsType(err, crawlerrors.ErrorTypePersistence))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"old"}]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file %s left behind", e.Name())
	}
}

func TestFileSinkMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "all_products.json")

	err := NewFileSink(path).Write(context.Background(), sampleCorpus())
	require.Error(t, err)
	assert.True(t, crawlerrors.IsType(err, crawlerrors.ErrorTypePersistence))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadCorpusErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadCorpus(filepath.Join(dir, "nope.json"))
	assert.True(t, crawlerrors.IsType(err, crawlerrors.ErrorTypePersistence))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"title": "not an array"}`), 0o644))
	_, err = ReadCorpus(bad)
	assert.True(t, crawlerrors.IsType(err, crawlerrors.ErrorTypePersistence))
}
