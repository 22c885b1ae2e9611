package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum visible text length for a plain HTTP fetch
// to count as rendered. Shorter pages are retried in the browser.
const MinContentLength = 500

// ShouldUseBrowser returns true if the page carries too little visible text,
// which usually means the job list is rendered client-side.
func ShouldUseBrowser(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	doc.Find("script, style, noscript").Remove()
	return len(strings.TrimSpace(doc.Text())) < MinContentLength
}

// BrowserFetcher renders pages in headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
type BrowserFetcher struct {
	Timeout time.Duration
	Verbose bool
}

// Fetch renders url and returns the resulting HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	timeout := f.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if f.Verbose {
		log.Printf("[BROWSER] Starting headless browser for: %s", url)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// job lists load after the shell
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	if f.Verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}

	return html, nil
}

// FallbackFetcher tries Primary first and re-fetches with Fallback when the
// primary fails or returns a page that looks unrendered.
type FallbackFetcher struct {
	Primary  Fetcher
	Fallback Fetcher
	Verbose  bool
}

// Fetch implements Fetcher.
func (f *FallbackFetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, err := f.Primary.Fetch(ctx, url)
	if err == nil && !ShouldUseBrowser(html) {
		return html, nil
	}
	if f.Verbose {
		if err != nil {
			log.Printf("[BROWSER] Primary fetch failed for %s (%v), retrying in browser", url, err)
		} else {
			log.Printf("[BROWSER] Page %s looks client-rendered, retrying in browser", url)
		}
	}
	rendered, ferr := f.Fallback.Fetch(ctx, url)
	if ferr != nil {
		if err == nil {
			// keep the thin page rather than nothing
			return html, nil
		}
		return "", fmt.Errorf("fallback fetch failed: %w", ferr)
	}
	return rendered, nil
}
