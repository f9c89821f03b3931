package helpers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check that headers are set
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		assert.NotEmpty(t, r.Header.Get("Referer"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>سلام دنیا</body></html>"))
	}))
	defer server.Close()

	body, err := FetchUTF8(context.Background(), server.Client(), server.URL, "")
	require.NoError(t, err)
	assert.Contains(t, string(body), "سلام دنیا")
}

func TestFetchUTF8UsesGivenUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CatalogCrawler/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	_, err := FetchUTF8(context.Background(), server.Client(), server.URL, "CatalogCrawler/1.0")
	require.NoError(t, err)
}

func TestFetchUTF8NonUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.WriteHeader(http.StatusOK)
		// "café" in ISO-8859-1
		w.Write([]byte("<html><body>caf\xe9</body></html>"))
	}))
	defer server.Close()

	body, err := FetchUTF8(context.Background(), server.Client(), server.URL, "")
	require.NoError(t, err)
	assert.Contains(t, string(body), "café")
}

func TestFetchUTF8Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchUTF8(context.Background(), server.Client(), server.URL, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")

	serverRateLimited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer serverRateLimited.Close()

	_, err = FetchUTF8(context.Background(), serverRateLimited.Client(), serverRateLimited.URL, "")
	var rateErr *ErrRateLimited
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "60", rateErr.RetryAfter)
}

func TestFetchUTF8ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := FetchUTF8(ctx, server.Client(), server.URL, "")
	assert.Error(t, err)
}
