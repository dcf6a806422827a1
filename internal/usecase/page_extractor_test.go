package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookboard/backend/internal/domain"
	"github.com/lookboard/backend/internal/domain/domaintesting"
)

const mendraURL = "https://andresotalora.com/products/mendra"

const mendraPage = `<html><head>
<title>Mendra Gala Gown | Andres Otalora</title>
<meta property="og:title" content="Mendra Gala Gown">
<meta property="product:brand" content="Andres Otalora">
<meta property="product:price:amount" content="450.00">
<meta property="product:price:currency" content="USD">
<meta property="og:image" content="/cdn/shop/mendra.jpg">
<meta property="og:description" content="Floor-length silk gown with a sculpted bodice.">
<script>window.analytics = {"secret": true}</script>
</head><body>
<h1 class="product-title">Mendra Gala Gown</h1>
<span class="compare-at-price">$520.00</span>
<select name="size"><option>Select a size</option><option>XS</option><option>S</option><option>M</option></select>
</body></html>`

func newTestExtractor(pages map[string]string, ai domain.ChatCompleter) (*PageExtractor, *fakeFetcher) {
	fetcher := &fakeFetcher{pages: pages}
	e := NewPageExtractor(fetcher, ai, PageExtractorConfig{}, zerolog.Nop())
	e.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return e, fetcher
}

func TestPageExtractor_MetaTags(t *testing.T) {
	e, _ := newTestExtractor(map[string]string{mendraURL: mendraPage}, nil)

	p, err := e.Extract(context.Background(), mendraURL)
	require.NoError(t, err)

	assert.Equal(t, "mendra", p.ID)
	assert.Equal(t, "Mendra Gala Gown", p.Name)
	assert.Equal(t, "Andres Otalora", p.Brand)
	assert.Equal(t, "$450.00", p.Price)
	assert.Equal(t, "$520.00", p.OriginalPrice)
	assert.Equal(t, "https://andresotalora.com/cdn/shop/mendra.jpg", p.ImageURL)
	assert.Equal(t, "Floor-length silk gown with a sculpted bodice.", p.Description)
	assert.Equal(t, "dresses", p.Category)
	assert.Equal(t, "Silk", p.Material)
	assert.Equal(t, []string{"XS", "S", "M"}, p.Sizes)
	assert.Equal(t, mendraURL, p.SourceURL)
}

func TestPageExtractor_FieldsComeFromDifferentStrategies(t *testing.T) {
	pageURL := "https://shop.example.com/women/knitwear/cardigan-123.html"
	page := `<html><head>
<meta property="og:price:amount" content="129">
<meta property="og:price:currency" content="EUR">
</head><body>
<nav aria-label="breadcrumb"><a href="/women">Women</a><a href="/women/knitwear">Knitwear</a></nav>
<div class="product-name">Ribbed Knit Cardigan</div>
<div class="product-brand">Toteme</div>
<img class="product-image" src="images/cardigan.jpg">
</body></html>`
	e, _ := newTestExtractor(map[string]string{pageURL: page}, nil)

	p, err := e.Extract(context.Background(), pageURL)
	require.NoError(t, err)

	assert.Equal(t, "cardigan-123", p.ID)
	assert.Equal(t, "Ribbed Knit Cardigan", p.Name)
	assert.Equal(t, "Toteme", p.Brand)
	assert.Equal(t, "€129", p.Price)
	assert.Equal(t, "https://shop.example.com/women/knitwear/images/cardigan.jpg", p.ImageURL)
	assert.Equal(t, "tops", p.Category)
	assert.Empty(t, p.OriginalPrice)
	assert.Equal(t, []string{}, p.Sizes)
}

func TestPageExtractor_JSONLD(t *testing.T) {
	pageURL := "https://khaite.com/products/danielle-jean"
	page := `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@graph":[
 {"@type":"BreadcrumbList"},
 {"@type":"Product","name":"Danielle Jean","brand":{"@type":"Brand","name":"KHAITE"},
  "image":["https://cdn.khaite.com/danielle-1.jpg","https://cdn.khaite.com/danielle-2.jpg"],
  "description":"High-rise straight-leg jean.",
  "offers":{"@type":"Offer","price":540,"priceCurrency":"USD"}}]}</script>
</head><body></body></html>`
	e, _ := newTestExtractor(map[string]string{pageURL: page}, nil)

	p, err := e.Extract(context.Background(), pageURL)
	require.NoError(t, err)

	assert.Equal(t, "Danielle Jean", p.Name)
	assert.Equal(t, "KHAITE", p.Brand)
	assert.Equal(t, "$540", p.Price)
	assert.Equal(t, "https://cdn.khaite.com/danielle-1.jpg", p.ImageURL)
	assert.Equal(t, "High-rise straight-leg jean.", p.Description)
	assert.Equal(t, domain.DefaultCategory, p.Category)
}

func TestPageExtractor_AIOverridesHeuristics(t *testing.T) {
	ai := &fakeCompleter{response: "```json\n" +
		`{"name":"Mendra Gala Gown in Ivory","brand":"","price":480,"imageUrl":"/cdn/ai.jpg","sizes":["XS","S"],"color":"Ivory"}` +
		"\n```"}
	e, _ := newTestExtractor(map[string]string{mendraURL: mendraPage}, ai)

	p, err := e.Extract(context.Background(), mendraURL)
	require.NoError(t, err)

	assert.Equal(t, "Mendra Gala Gown in Ivory", p.Name)
	assert.Equal(t, "$480.00", p.Price)
	assert.Equal(t, "https://andresotalora.com/cdn/ai.jpg", p.ImageURL)
	assert.Equal(t, []string{"XS", "S"}, p.Sizes)
	assert.Equal(t, "Ivory", p.Color)
	// fields the AI left empty keep their heuristic values
	assert.Equal(t, "Andres Otalora", p.Brand)
	assert.Equal(t, "$520.00", p.OriginalPrice)

	require.Equal(t, 1, ai.calls())
	prompt := ai.prompts[0]
	assert.Contains(t, prompt, "Mendra Gala Gown")
	assert.Contains(t, prompt, "Page text sample")
	assert.NotContains(t, prompt, "window.analytics")
}

func TestPageExtractor_AIFailureKeepsHeuristics(t *testing.T) {
	tests := []struct {
		name string
		ai   *fakeCompleter
	}{
		{"backend error", &fakeCompleter{err: domain.ErrBackendUnavailable}},
		{"malformed json", &fakeCompleter{response: "Sorry, I cannot help with that."}},
		{"wrong shape", &fakeCompleter{response: `{"name": ["not", "a", "string"]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExtractor(map[string]string{mendraURL: mendraPage}, tt.ai)

			p, err := e.Extract(context.Background(), mendraURL)
			require.NoError(t, err)

			assert.Equal(t, "Mendra Gala Gown", p.Name)
			assert.Equal(t, "$450.00", p.Price)
			assert.Equal(t, 1, tt.ai.calls())
		})
	}
}

func TestPageExtractor_DomainFallback(t *testing.T) {
	pageURL := "https://www.andresotalora.com/"
	e, _ := newTestExtractor(map[string]string{pageURL: `<html><head></head><body><div></div></body></html>`}, nil)

	p, err := e.Extract(context.Background(), pageURL)
	require.NoError(t, err)

	assert.Equal(t, "item-1700000000000", p.ID)
	assert.Equal(t, "Product from andresotalora.com", p.Name)
	assert.Equal(t, "Andresotalora", p.Brand)
	assert.Equal(t, FallbackPrice, p.Price)
	assert.Equal(t, domain.DefaultCategory, p.Category)
	assert.Equal(t, PlaceholderImageURL, p.ImageURL)
	assert.Equal(t, pageURL, p.SourceURL)
}

func TestPageExtractor_PartialPageGetsDefaults(t *testing.T) {
	pageURL := "https://example-boutique.com/p/linen-shirt"
	e, _ := newTestExtractor(map[string]string{pageURL: `<html><head><meta name="description" content="Relaxed linen shirt"></head></html>`}, nil)

	p, err := e.Extract(context.Background(), pageURL)
	require.NoError(t, err)

	assert.Equal(t, "Product from example-boutique.com", p.Name)
	assert.Equal(t, FallbackPrice, p.Price)
	assert.Equal(t, "tops", p.Category)
	assert.Equal(t, "Linen", p.Material)
	assert.Empty(t, p.ImageURL)
}

func TestPageExtractor_FetchErrors(t *testing.T) {
	tests := []struct {
		name      string
		fetchErr  error
		wantIs    error
		wantTimer bool
	}{
		{
			name:     "not found",
			fetchErr: fmt.Errorf("%w: %s", domain.ErrPageNotFound, mendraURL),
			wantIs:   domain.ErrPageNotFound,
		},
		{
			name:      "timeout",
			fetchErr:  &domain.FetchError{URL: mendraURL, Timeout: true},
			wantIs:    domain.ErrFetchFailed,
			wantTimer: true,
		},
		{
			name:     "server error",
			fetchErr: &domain.FetchError{URL: mendraURL, StatusCode: 503},
			wantIs:   domain.ErrFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewPageExtractor(&fakeFetcher{err: tt.fetchErr}, nil, PageExtractorConfig{}, zerolog.Nop())

			p, err := e.Extract(context.Background(), mendraURL)

			assert.Nil(t, p)
			assert.True(t, errors.Is(err, tt.wantIs), "error = %v, want %v", err, tt.wantIs)
			assert.Equal(t, tt.wantTimer, domain.IsTimeout(err))
		})
	}
}

func TestPageExtractor_InvalidURL(t *testing.T) {
	for _, pageURL := range []string{"", "not a url", "ftp://files.example.com/x", "/relative/path"} {
		t.Run(pageURL, func(t *testing.T) {
			e, fetcher := newTestExtractor(nil, nil)

			p, err := e.Extract(context.Background(), pageURL)

			assert.Nil(t, p)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Zero(t, fetcher.calls)
		})
	}
}

// Any page that fetches successfully yields a usable record with absolute or empty image URLs.
func TestPageExtractor_FallbackCompleteness(t *testing.T) {
	images := []string{"/img/a.jpg", "//cdn.example.com/b.jpg", "data:image/png;base64,AAAA", "https://cdn.example.com/c.jpg", ""}

	for i := 0; i < 40; i++ {
		fixture := domaintesting.FakeNormalizedProduct()
		pageURL := fmt.Sprintf("https://store%d.example.com/products/%s", i, fixture.ID)

		var head, body strings.Builder
		if i%2 == 0 {
			fmt.Fprintf(&head, `<meta property="og:title" content=%q>`, fixture.Name)
		}
		if i%3 == 0 {
			fmt.Fprintf(&body, `<span class="price">%s</span>`, fixture.Price)
		}
		if img := images[i%len(images)]; img != "" {
			fmt.Fprintf(&head, `<meta property="og:image" content=%q>`, img)
		}
		if i%4 == 0 {
			fmt.Fprintf(&body, `<div class="product-brand">%s</div>`, fixture.Brand)
		}
		page := "<html><head>" + head.String() + "</head><body>" + body.String() + "</body></html>"

		e, _ := newTestExtractor(map[string]string{pageURL: page}, nil)
		p, err := e.Extract(context.Background(), pageURL)
		require.NoError(t, err, "page %d", i)

		assert.NotEmpty(t, p.Name, "page %d", i)
		assert.NotEmpty(t, p.Category, "page %d", i)
		assert.NotEmpty(t, p.Price, "page %d", i)
		assert.NotNil(t, p.Sizes, "page %d", i)
		if p.ImageURL != "" {
			assert.True(t, strings.HasPrefix(p.ImageURL, "http://") || strings.HasPrefix(p.ImageURL, "https://"),
				"page %d image %q", i, p.ImageURL)
		}
	}
}

func TestCleanPriceText(t *testing.T) {
	tests := map[string]string{
		"$99.99":                            "$99.99",
		"  Sale price\n $1,250.00 ":         "$1,250.00",
		"€ 89,95":                           "€ 89,95",
		"Regular price 120 EUR Sale 90 EUR": "120 EUR",
		"129.00":                            "$129.00",
		"Sold out":                          "",
		"":                                  "",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, cleanPriceText(in))
		})
	}
}

func TestFormatMetaPrice(t *testing.T) {
	assert.Equal(t, "$450.00", formatMetaPrice("450.00", "usd"))
	assert.Equal(t, "£95", formatMetaPrice("95", "GBP"))
	assert.Equal(t, "1200 SEK", formatMetaPrice("1200", "SEK"))
	assert.Equal(t, "$450", formatMetaPrice("$450", ""))
	assert.Empty(t, formatMetaPrice("", "USD"))
}

func TestDisplayPrice(t *testing.T) {
	tests := map[string]string{
		"480":      "$480.00",
		"129.5":    "$129.50",
		"129,95":   "$129.95",
		"€129":     "€129",
		"$1,250":   "$1,250",
		"  99.99 ": "$99.99",
		"":         "",
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, displayPrice(input))
		})
	}
}

func TestDetectCategory(t *testing.T) {
	tests := map[string]string{
		"Mendra Gala Gown":          "dresses",
		"Leather Chelsea Boots":     "shoes",
		"Women > Knitwear":          "tops",
		"Oversized Graphic T-Shirt": "tops",
		"Gold Hoop Earrings":        "jewelry",
		"Something Else Entirely":   "",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, detectCategory(in))
		})
	}
}

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("https://shop.example.com/products/gown")
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/img/a.jpg", resolveURL(base, "/img/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/b.jpg", resolveURL(base, "//cdn.example.com/b.jpg"))
	assert.Equal(t, "https://shop.example.com/products/c.jpg", resolveURL(base, "c.jpg"))
	assert.Empty(t, resolveURL(base, "data:image/png;base64,AAAA"))
	assert.Empty(t, resolveURL(base, "javascript:void(0)"))
	assert.Empty(t, resolveURL(base, "  "))
}
