package usecase

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/lookboard/backend/internal/currency"
	"github.com/lookboard/backend/internal/domain"
	"github.com/lookboard/backend/internal/retailers"
)

const (
	// PlaceholderImageURL stands in for pages without any usable image
	PlaceholderImageURL = "https://placehold.co/600x800?text=No+Image"

	// FallbackPrice is reported when no price could be found
	FallbackPrice = "$0.00"

	defaultTextSampleChars = 3000
)

// PageExtractorConfig holds configuration for page extraction
type PageExtractorConfig struct {
	// TextSampleChars caps the page text sent to the AI backend
	TextSampleChars int
}

// PageExtractor turns an arbitrary product URL into a NormalizedProduct
type PageExtractor struct {
	fetcher         domain.PageFetcher
	ai              domain.ChatCompleter
	logger          zerolog.Logger
	textSampleChars int
	now             func() time.Time
}

// NewPageExtractor creates an extractor. ai may be nil when no backend is configured.
func NewPageExtractor(
	fetcher domain.PageFetcher,
	ai domain.ChatCompleter,
	config PageExtractorConfig,
	logger zerolog.Logger,
) *PageExtractor {
	sample := config.TextSampleChars
	if sample <= 0 {
		sample = defaultTextSampleChars
	}

	return &PageExtractor{
		fetcher:         fetcher,
		ai:              ai,
		logger:          logger.With().Str("component", "page_extractor").Logger(),
		textSampleChars: sample,
		now:             time.Now,
	}
}

// Extract fetches rawURL and extracts a product record.
// Only fetch failures are returned: a fetched page always yields a record,
// built from the domain name alone when nothing else could be found.
func (e *PageExtractor) Extract(ctx context.Context, rawURL string) (*domain.NormalizedProduct, error) {
	rawURL = strings.TrimSpace(rawURL)
	source, err := url.Parse(rawURL)
	if err != nil || (source.Scheme != "http" && source.Scheme != "https") || source.Host == "" {
		return nil, fmt.Errorf("%w: url must be an absolute http(s) URL", domain.ErrInvalidRequest)
	}

	page, err := e.fetcher.FetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	base := source
	if page.URL != "" {
		if final, err := url.Parse(page.URL); err == nil && final.Host != "" {
			base = final
		}
	}

	product := &domain.NormalizedProduct{
		ID:        e.productID(source),
		SourceURL: rawURL,
		Sizes:     []string{},
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		e.logger.Warn().Err(err).Str("url", rawURL).Msg("unparseable page, using domain fallback")
		e.applyDomainFallback(product, source)
		return product, nil
	}

	pc := &pageContext{
		doc:   doc,
		base:  base,
		ld:    findJSONLDProduct(doc),
		found: product,
	}
	e.applyHeuristics(pc)

	if e.ai != nil {
		if err := e.applyAIExtraction(ctx, pc); err != nil {
			e.logger.Warn().Err(err).Str("url", rawURL).Msg("AI extraction failed, keeping heuristic values")
		}
	}

	if isEmptyExtraction(product) {
		e.logger.Warn().Err(domain.ErrNoProductSignal).Str("url", rawURL).Msg("using domain fallback")
		e.applyDomainFallback(product, source)
		return product, nil
	}

	e.applyDefaults(product, source)
	return product, nil
}

// applyHeuristics resolves every field through its strategy chain.
// Category and material run last because they read the resolved name and description.
func (e *PageExtractor) applyHeuristics(pc *pageContext) {
	p := pc.found
	fields := []struct {
		field string
		chain fieldChain
		dst   *string
	}{
		{"name", nameChain, &p.Name},
		{"brand", brandChain, &p.Brand},
		{"price", priceChain, &p.Price},
		{"originalPrice", originalPriceChain, &p.OriginalPrice},
		{"imageUrl", imageChain, &p.ImageURL},
		{"description", descriptionChain, &p.Description},
		{"color", colorChain, &p.Color},
		{"material", materialChain, &p.Material},
		{"category", categoryChain, &p.Category},
	}

	for _, f := range fields {
		value, strategy := f.chain.resolve(pc)
		if value == "" {
			continue
		}
		*f.dst = value
		e.logger.Debug().Str("field", f.field).Str("strategy", strategy).Msg("field extracted")
	}

	for _, s := range sizeChain {
		if sizes := s.extract(pc); len(sizes) > 0 {
			p.Sizes = sizes
			e.logger.Debug().Str("field", "sizes").Str("strategy", s.name).Msg("field extracted")
			break
		}
	}

	if p.OriginalPrice == p.Price {
		p.OriginalPrice = ""
	}
}

// aiExtractedProduct is the JSON object requested from the AI backend
type aiExtractedProduct struct {
	Name          string                `json:"name"`
	Brand         string                `json:"brand"`
	Price         domain.FlexibleString `json:"price"`
	OriginalPrice domain.FlexibleString `json:"originalPrice"`
	Description   string                `json:"description"`
	Category      string                `json:"category"`
	ImageURL      string                `json:"imageUrl"`
	Color         string                `json:"color"`
	Material      string                `json:"material"`
	Sizes         []string              `json:"sizes"`
}

// applyAIExtraction asks the backend for a structured record. Every field it
// fills replaces the heuristic value.
func (e *PageExtractor) applyAIExtraction(ctx context.Context, pc *pageContext) error {
	prompt := e.buildExtractionPrompt(pc)

	raw, err := e.ai.ChatComplete(ctx, prompt, domain.ChatOptions{JSONMode: true, MaxTokens: 800, Temperature: 0.1})
	if err != nil {
		return err
	}

	var extracted aiExtractedProduct
	if err := decodeAIJSON(raw, &extracted); err != nil {
		return err
	}

	p := pc.found
	var overridden []string
	set := func(field string, dst *string, value string) {
		if value = collapse(value); value != "" {
			*dst = value
			overridden = append(overridden, field)
		}
	}

	set("name", &p.Name, limitName(extracted.Name))
	set("brand", &p.Brand, limit(extracted.Brand, maxBrandLength))
	set("price", &p.Price, displayPrice(extracted.Price.String()))
	set("originalPrice", &p.OriginalPrice, displayPrice(extracted.OriginalPrice.String()))
	set("description", &p.Description, limit(extracted.Description, maxDescriptionLength))
	set("category", &p.Category, strings.ToLower(extracted.Category))
	set("imageUrl", &p.ImageURL, pc.absolute(extracted.ImageURL))
	set("color", &p.Color, extracted.Color)
	set("material", &p.Material, extracted.Material)

	sizes := make([]string, 0, len(extracted.Sizes))
	for _, s := range extracted.Sizes {
		if s = collapse(s); isSizeLabel(s) {
			sizes = append(sizes, s)
		}
	}
	if len(sizes) > 0 {
		p.Sizes = sizes
		overridden = append(overridden, "sizes")
	}

	if p.OriginalPrice == p.Price {
		p.OriginalPrice = ""
	}

	e.logger.Debug().Strs("fields", overridden).Msg("AI extraction applied")
	return nil
}

func (e *PageExtractor) buildExtractionPrompt(pc *pageContext) string {
	p := pc.found
	title := collapse(pc.doc.Find("title").First().Text())
	metaDescription := pc.meta("og:description", "description")

	// Text sampling strips scripts from the document, so it runs after every strategy
	pc.doc.Find("script, style, noscript, template, svg, iframe").Remove()
	text := truncateRunes(collapse(pc.doc.Find("body").Text()), e.textSampleChars)

	var b strings.Builder
	b.WriteString("Extract the product being sold on this fashion product page.\n")
	fmt.Fprintf(&b, "URL: %s\n", pc.base.String())
	fmt.Fprintf(&b, "Page title: %s\n", title)
	fmt.Fprintf(&b, "Meta description: %s\n", metaDescription)
	b.WriteString("Candidates found by HTML heuristics (may be wrong):\n")
	fmt.Fprintf(&b, "- name: %s\n- brand: %s\n- price: %s\n- imageUrl: %s\n", p.Name, p.Brand, p.Price, p.ImageURL)
	fmt.Fprintf(&b, "Page text sample:\n%s\n\n", text)
	b.WriteString(`Respond with a JSON object with these keys: "name", "brand", ` +
		`"price" (string including the currency symbol), "originalPrice" (only when the item is marked down), ` +
		`"description", "category" (one lowercase word such as dresses, tops, shoes, bags), ` +
		`"imageUrl", "color", "material", "sizes" (array of strings). Use "" or [] for anything unknown.`)
	return b.String()
}

// applyDefaults fills fields every caller relies on
func (e *PageExtractor) applyDefaults(p *domain.NormalizedProduct, source *url.URL) {
	if p.Name == "" {
		p.Name = "Product from " + displayDomain(source)
	}
	if p.Price == "" {
		p.Price = FallbackPrice
	}
	if p.Category == "" {
		p.Category = domain.DefaultCategory
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
}

// applyDomainFallback builds the minimal record used when the page gave nothing
func (e *PageExtractor) applyDomainFallback(p *domain.NormalizedProduct, source *url.URL) {
	label := retailers.FirstLabel(source.Hostname())

	p.Name = "Product from " + displayDomain(source)
	p.Brand = capitalize(label)
	p.Price = FallbackPrice
	p.Category = domain.DefaultCategory
	p.ImageURL = PlaceholderImageURL
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
}

// productID is the last path segment of the URL, or a timestamp token
func (e *PageExtractor) productID(source *url.URL) string {
	segment := path.Base(strings.TrimRight(source.Path, "/"))
	switch ext := path.Ext(segment); ext {
	case ".html", ".htm", ".aspx", ".php":
		segment = strings.TrimSuffix(segment, ext)
	}
	if segment == "" || segment == "." || segment == "/" {
		return "item-" + strconv.FormatInt(e.now().UnixMilli(), 10)
	}
	return segment
}

func isEmptyExtraction(p *domain.NormalizedProduct) bool {
	return p.Name == "" && p.Brand == "" && p.Price == "" && p.ImageURL == "" && p.Description == ""
}

func displayDomain(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// displayPrice keeps AI prices as strings, rendering bare amounts as dollars
func displayPrice(s string) string {
	s = collapse(s)
	if !bareAmountRegex.MatchString(s) {
		return s
	}
	amount, err := currency.Parse(s)
	if err != nil {
		return "$" + s
	}
	return currency.Format(amount.Value, amount.Currency)
}
