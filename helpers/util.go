package helpers

import (
	"net/url"
	"strconv"
	"strings"
)

// HasScheme reports whether href already carries a URL scheme such as https:
func HasScheme(href string) bool {
	u, err := url.Parse(href)
	return err == nil && u.Scheme != ""
}

// ResolveURL makes href absolute against base. Hrefs that already carry a scheme
// are returned unchanged, so applying it twice yields the same URL as once.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || HasScheme(href) {
		return href
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
	}
	return baseURL.ResolveReference(ref).String()
}

// WithQueryParam returns rawURL with key set to value, keeping any existing query
func WithQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// PageURL builds the URL of the numbered listing page of a category
func PageURL(categoryURL, param string, page int) string {
	return WithQueryParam(categoryURL, param, strconv.Itoa(page))
}

// NormalizeURL canonicalizes a URL for equality checks: lower-case scheme and host,
// no fragment, no trailing slash on the path.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path != "/" {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	u.RawPath = ""
	return u.String()
}
