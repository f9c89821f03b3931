package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	base := "https://www.ehadish.com"

	tests := []struct {
		href string
		want string
	}{
		{"/p/widget", "https://www.ehadish.com/p/widget"},
		{"p/widget", "https://www.ehadish.com/p/widget"},
		{"  /p/widget  ", "https://www.ehadish.com/p/widget"},
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"http://other.example.com/x?y=1", "http://other.example.com/x?y=1"},
		{"//cdn.example.com/b.jpg", "https://cdn.example.com/b.jpg"},
		{"/products/گوشی", "https://www.ehadish.com/products/%DA%AF%D9%88%D8%B4%DB%8C"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got := ResolveURL(base, tt.href)
			assert.Equal(t, tt.want, got)
			// Resolving an already absolute URL is a no-op.
			assert.Equal(t, got, ResolveURL(base, got))
		})
	}
}

func TestHasScheme(t *testing.T) {
	assert.True(t, HasScheme("https://www.ehadish.com/p/1"))
	assert.True(t, HasScheme("http://x"))
	assert.False(t, HasScheme("/p/1"))
	assert.False(t, HasScheme("//cdn.example.com/a.jpg"))
}

func TestPageURL(t *testing.T) {
	assert.Equal(t,
		"https://www.ehadish.com/products/category-mobile/?page=1",
		PageURL("https://www.ehadish.com/products/category-mobile/", "page", 1))
	assert.Equal(t,
		"https://shop.example.com/c?page=3&sort=new",
		PageURL("https://shop.example.com/c?sort=new", "page", 3))
	assert.Equal(t,
		"https://shop.example.com/c?page=4",
		PageURL("https://shop.example.com/c?page=1", "page", 4))
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t,
		NormalizeURL("https://www.ehadish.com/products/category-a/"),
		NormalizeURL("HTTPS://WWW.EHADISH.COM/products/category-a#top"))
	assert.NotEqual(t,
		NormalizeURL("https://www.ehadish.com/products/category-a"),
		NormalizeURL("https://www.ehadish.com/products/category-b"))
	assert.Equal(t, "https://www.ehadish.com/", NormalizeURL("https://www.ehadish.com/"))
}

func TestResolveURLBaseWithPath(t *testing.T) {
	// Hrefs resolve the way the browser resolves them, not by string prefixing.
	assert.Equal(t, "https://shop.test/p/x", ResolveURL("https://shop.test/fa", "/p/x"))
	assert.Equal(t, "https://shop.test/p/x", ResolveURL("https://shop.test/fa", "p/x"))
	assert.Equal(t, "https://shop.test/fa/p/x", ResolveURL("https://shop.test/fa/", "p/x"))
}
