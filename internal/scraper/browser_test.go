package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldUseBrowser(t *testing.T) {
	shell := `<html><head><script>var app = "` + strings.Repeat("x", 2000) + `";</script></head><body><div id="root"></div></body></html>`
	assert.True(t, ShouldUseBrowser(shell))

	rendered := "<html><body><main>" + strings.Repeat("Senior Go Developer at Acme. ", 30) + "</main></body></html>"
	assert.False(t, ShouldUseBrowser(rendered))
}

func TestFallbackFetcher(t *testing.T) {
	const url = "https://careers.example.com/jobs"
	rendered := "<html><body>" + strings.Repeat("Backend Engineer ", 50) + "</body></html>"

	t.Run("uses primary when content is rendered", func(t *testing.T) {
		primary := newFakeFetcher()
		primary.pages[url] = rendered
		fallback := newFakeFetcher()

		html, err := (&FallbackFetcher{Primary: primary, Fallback: fallback}).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, rendered, html)
		assert.Equal(t, 0, fallback.count())
	})

	t.Run("falls back on thin page", func(t *testing.T) {
		primary := newFakeFetcher()
		primary.pages[url] = `<html><body><div id="app"></div></body></html>`
		fallback := newFakeFetcher()
		fallback.pages[url] = rendered

		html, err := (&FallbackFetcher{Primary: primary, Fallback: fallback}).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, rendered, html)
	})

	t.Run("falls back on primary error", func(t *testing.T) {
		primary := newFakeFetcher()
		primary.errs[url] = errors.New("403")
		fallback := newFakeFetcher()
		fallback.pages[url] = rendered

		html, err := (&FallbackFetcher{Primary: primary, Fallback: fallback}).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, rendered, html)
	})

	t.Run("keeps thin page when browser fails", func(t *testing.T) {
		thin := `<html><body>few words</body></html>`
		primary := newFakeFetcher()
		primary.pages[url] = thin
		fallback := newFakeFetcher()
		fallback.errs[url] = errors.New("no chrome")

		html, err := (&FallbackFetcher{Primary: primary, Fallback: fallback}).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, thin, html)
	})

	t.Run("both fail", func(t *testing.T) {
		primary := newFakeFetcher()
		primary.errs[url] = errors.New("403")
		fallback := newFakeFetcher()
		fallback.errs[url] = errors.New("no chrome")

		_, err := (&FallbackFetcher{Primary: primary, Fallback: fallback}).Fetch(context.Background(), url)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no chrome")
	})
}
