package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/lookboard/backend/internal/currency"
	"github.com/lookboard/backend/internal/domain"
	"github.com/lookboard/backend/internal/retailers"
)

const (
	// MaxRetailerResults is the hard cap on listings returned by any call site
	MaxRetailerResults = 8

	// DefaultBasePrice is used when the item's own price is missing or unparseable
	DefaultBasePrice = 200.0

	defaultKnowledgeTTL = 6 * time.Hour

	noteDirect       = "Direct product link"
	noteLikelyDirect = "Likely product page, confirm size and colour"
	noteSearch       = "Search results, find the exact product"
	defaultShipping  = "Shipping calculated at checkout"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)

// RetailerFinderConfig holds configuration for the retailer finder
type RetailerFinderConfig struct {
	MaxResults    int
	DefaultRegion string
	KnowledgeTTL  time.Duration
}

// RetailerFinder discovers where a product can be bought
type RetailerFinder struct {
	ai            domain.ChatCompleter
	cache         domain.CacheRepository
	market        MarketDataProvider
	adjuster      *RegionalPriceAdjuster
	preprocessor  *QueryPreprocessor
	matcher       *NameMatcher
	logger        zerolog.Logger
	maxResults    int
	defaultRegion string
	knowledgeTTL  time.Duration
	now           func() time.Time
}

// NewRetailerFinder creates a finder with dependencies. ai and cache may be nil.
func NewRetailerFinder(
	ai domain.ChatCompleter,
	cache domain.CacheRepository,
	market MarketDataProvider,
	config RetailerFinderConfig,
	logger zerolog.Logger,
) *RetailerFinder {
	region := config.DefaultRegion
	if region == "" {
		region = DomesticRegion
	}

	ttl := config.KnowledgeTTL
	if ttl <= 0 {
		ttl = defaultKnowledgeTTL
	}

	logger = logger.With().Str("component", "retailer_finder").Logger()

	return &RetailerFinder{
		ai:            ai,
		cache:         cache,
		market:        market,
		adjuster:      NewRegionalPriceAdjuster(market),
		preprocessor:  NewQueryPreprocessor(logger, false),
		matcher:       NewNameMatcher(MatchConfig{EnableFuzzyMatching: true}),
		logger:        logger,
		maxResults:    clampResults(config.MaxResults),
		defaultRegion: region,
		knowledgeTTL:  ttl,
		now:           time.Now,
	}
}

// retailerKnowledge is the JSON object requested from the AI backend
type retailerKnowledge struct {
	NameVariants    []string          `json:"nameVariants"`
	ProductCodes    []string          `json:"productCodes"`
	LikelyRetailers []string          `json:"likelyRetailers"`
	PriceRange      knowledgePriceRng `json:"priceRange"`
	DirectURLs      []knowledgeURL    `json:"directUrls"`
}

type knowledgePriceRng struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type knowledgeURL struct {
	Retailer   string            `json:"retailer"`
	URL        string            `json:"url"`
	Confidence domain.Confidence `json:"confidence"`
}

// FindRetailers returns ranked listings for product in region. limit <= 0 uses
// the configured cap. It never fails: backend problems degrade to the static
// retailer directory.
func (f *RetailerFinder) FindRetailers(
	ctx context.Context,
	product domain.ProductQuery,
	region string,
	limit int,
) *domain.RetailerSearchResult {
	if limit <= 0 {
		limit = f.maxResults
	}
	limit = clampResults(limit)

	region = f.normalizeRegion(region)
	query := f.preprocessor.PreprocessQuery(product.Name, product.Brand)
	basePrice := currency.ParseOr(product.Price.String(), DefaultBasePrice)

	var listings []domain.RetailerListing
	aiAssisted := false

	knowledge, err := f.lookupKnowledge(ctx, product, query)
	if err != nil {
		if f.ai != nil {
			f.logger.Warn().Err(err).Str("query", query).Msg("retailer knowledge unavailable, using directory fallback")
		}
		listings = f.fallbackListings(query, basePrice)
	} else {
		aiAssisted = true
		if best, score, ok := f.matcher.BestVariant(product.Name, product.Brand, knowledge.NameVariants); ok {
			f.logger.Debug().Str("variant", best).Float64("score", score).Msg("using AI name variant")
			query = best
		}
		listings = f.knowledgeListings(knowledge, query, basePrice)
	}

	listings = f.adjuster.AdjustForRegion(listings, region)

	source, hasSource := f.sourceListing(product)
	if hasSource {
		sourceDomain := retailers.DomainOf(source.URL)
		listings = lo.Reject(listings, func(l domain.RetailerListing, _ int) bool {
			return l.ID == source.ID || retailers.DomainOf(l.URL) == sourceDomain
		})
	}

	sortListings(listings)
	if hasSource {
		listings = append([]domain.RetailerListing{source}, listings...)
	}

	total := len(listings)
	if len(listings) > limit {
		listings = listings[:limit]
	}

	return &domain.RetailerSearchResult{
		Retailers: listings,
		Metadata: domain.SearchMetadata{
			SearchQuery: query,
			Confidence:  searchConfidence(aiAssisted, listings),
			TotalFound:  total,
			LastUpdated: f.now().UTC(),
			Region:      region,
			AIAssisted:  aiAssisted,
		},
	}
}

// lookupKnowledge checks the cache, then asks the AI backend
func (f *RetailerFinder) lookupKnowledge(ctx context.Context, product domain.ProductQuery, query string) (*retailerKnowledge, error) {
	if f.ai == nil {
		return nil, domain.ErrBackendUnavailable
	}

	cacheKey := generateKnowledgeCacheKey(product)
	if knowledge, ok := f.getFromCache(ctx, cacheKey); ok {
		return knowledge, nil
	}

	raw, err := f.ai.ChatComplete(ctx, f.buildKnowledgePrompt(product, query), domain.ChatOptions{
		JSONMode:    true,
		MaxTokens:   900,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	var knowledge retailerKnowledge
	if err := decodeAIJSON(raw, &knowledge); err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, cacheKey, knowledge, f.knowledgeTTL); err != nil {
			f.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache retailer knowledge")
		}
	}

	return &knowledge, nil
}

func (f *RetailerFinder) getFromCache(ctx context.Context, key string) (*retailerKnowledge, bool) {
	if f.cache == nil {
		return nil, false
	}

	cached, err := f.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			f.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}

	var knowledge retailerKnowledge
	if err := decodeCached(cached, &knowledge); err != nil {
		f.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return nil, false
	}

	f.logger.Debug().Str("key", key).Msg("retailer knowledge cache hit")
	return &knowledge, true
}

func (f *RetailerFinder) buildKnowledgePrompt(product domain.ProductQuery, query string) string {
	names := lo.Map(retailers.Major(), func(r retailers.Retailer, _ int) string { return r.Name })

	var b strings.Builder
	b.WriteString("You help shoppers find where a fashion product is sold.\n")
	fmt.Fprintf(&b, "Product name: %s\n", product.Name)
	fmt.Fprintf(&b, "Brand: %s\n", product.Brand)
	if product.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", product.Category)
	}
	if product.Price != "" {
		fmt.Fprintf(&b, "Known price: %s\n", product.Price)
	}
	if product.SourceURL != "" {
		fmt.Fprintf(&b, "Seen at: %s\n", product.SourceURL)
	}
	fmt.Fprintf(&b, "Search query so far: %s\n\n", query)
	fmt.Fprintf(&b, "For these retailers: %s\n", strings.Join(names, ", "))
	b.WriteString(`Respond with a JSON object: {"nameVariants": [names retailers use for this item], ` +
		`"productCodes": [style or SKU codes], "likelyRetailers": [retailers likely to stock it], ` +
		`"priceRange": {"min": number, "max": number, "currency": "USD"}, ` +
		`"directUrls": [{"retailer": name, "url": product page URL, "confidence": "high"|"medium"|"low"}]}. ` +
		`Only include a direct URL when you are confident it points at this exact product.`)
	return b.String()
}

// knowledgeListings builds direct listings from AI URLs and search listings for
// every directory retailer the AI did not cover
func (f *RetailerFinder) knowledgeListings(k *retailerKnowledge, query string, basePrice float64) []domain.RetailerListing {
	low, high := k.PriceRange.Min, k.PriceRange.Max
	if low <= 0 || high <= 0 || high < low {
		low, high = basePrice*0.9, basePrice*1.1
	}
	cur := strings.ToUpper(strings.TrimSpace(k.PriceRange.Currency))
	if cur == "" {
		cur = domain.DefaultCurrency
	}
	checked := f.now().UTC().Format(time.RFC3339)

	var listings []domain.RetailerListing
	covered := map[string]bool{}

	for _, d := range k.DirectURLs {
		confidence := domain.Confidence(strings.ToLower(strings.TrimSpace(string(d.Confidence))))
		if confidence != domain.ConfidenceHigh && confidence != domain.ConfidenceMedium {
			continue
		}
		link := resolveURL(nil, d.URL)
		if link == "" {
			continue
		}

		r, known := retailers.Lookup(d.Retailer)
		if !known {
			r, known = retailers.LookupHost(hostOf(link))
		}
		if !known {
			name := strings.ToUpper(strings.TrimSpace(d.Retailer))
			if name == "" {
				name = retailers.NameForHost(hostOf(link))
			}
			r = retailers.Retailer{ID: retailers.Slug(name), Name: name, Shipping: defaultShipping}
		}
		if r.ID == "" || covered[r.ID] {
			continue
		}
		covered[r.ID] = true

		quote := f.market.Quote(r.ID, low, high)
		listings = append(listings, domain.RetailerListing{
			ID:            r.ID,
			Name:          r.Name,
			OriginalPrice: lo.ToPtr(quote.OriginalPrice),
			SalePrice:     quote.SalePrice,
			Currency:      cur,
			Availability:  quote.Availability,
			Sizes:         []string{},
			URL:           link,
			Confidence:    confidence,
			Note:          lo.Ternary(confidence == domain.ConfidenceHigh, noteDirect, noteLikelyDirect),
			Shipping:      r.Shipping,
			LastChecked:   checked,
			Simulated:     true,
		})
	}

	likely := map[string]bool{}
	for _, name := range k.LikelyRetailers {
		if r, ok := retailers.Lookup(name); ok {
			likely[r.ID] = true
		}
	}

	for _, r := range retailers.Major() {
		if covered[r.ID] {
			continue
		}
		quote := f.market.Quote(r.ID, low, high)
		listings = append(listings, domain.RetailerListing{
			ID:            r.ID,
			Name:          r.Name,
			OriginalPrice: lo.ToPtr(quote.OriginalPrice),
			SalePrice:     quote.SalePrice,
			Currency:      cur,
			Availability:  quote.Availability,
			Sizes:         []string{},
			URL:           r.SearchURL(query),
			Confidence:    lo.Ternary(likely[r.ID], domain.ConfidenceMedium, domain.ConfidenceLow),
			Note:          noteSearch,
			Shipping:      r.Shipping,
			LastChecked:   checked,
			Simulated:     true,
		})
	}

	return listings
}

// fallbackListings is the deterministic directory list used without AI knowledge.
// Prices are fixed offsets from the base price.
func (f *RetailerFinder) fallbackListings(query string, basePrice float64) []domain.RetailerListing {
	checked := f.now().UTC().Format(time.RFC3339)

	return lo.Map(retailers.Major(), func(r retailers.Retailer, _ int) domain.RetailerListing {
		estimate := math.Round(basePrice*(1+r.FallbackOffset)*100) / 100
		return domain.RetailerListing{
			ID:            r.ID,
			Name:          r.Name,
			OriginalPrice: lo.ToPtr(estimate),
			Currency:      domain.DefaultCurrency,
			Availability:  domain.AvailabilityInStock,
			Sizes:         []string{},
			URL:           r.SearchURL(query),
			Confidence:    domain.ConfidenceLow,
			Note:          noteSearch,
			Shipping:      r.Shipping,
			LastChecked:   checked,
			Simulated:     true,
		}
	})
}

// sourceListing builds the listing for the page the item was saved from
func (f *RetailerFinder) sourceListing(product domain.ProductQuery) (domain.RetailerListing, bool) {
	sourceURL := strings.TrimSpace(product.SourceURL)
	link := resolveURL(nil, sourceURL)
	if link == "" && looksLikeBareDomain(sourceURL) {
		// "andresotalora.com/mendra" as pasted from an address bar
		link = resolveURL(nil, "https://"+sourceURL)
		sourceURL = link
	}
	if link == "" {
		if strings.TrimSpace(product.SourceURL) != "" {
			f.logger.Debug().Str("sourceUrl", product.SourceURL).Msg("ignoring invalid source URL")
		}
		return domain.RetailerListing{}, false
	}

	name, _ := retailers.NameForURL(link)
	listing := domain.RetailerListing{
		ID:           domain.OriginalRetailerID,
		Name:         name,
		Currency:     domain.DefaultCurrency,
		Availability: domain.AvailabilityInStock,
		Sizes:        []string{},
		URL:          sourceURL,
		Confidence:   domain.ConfidenceHigh,
		Note:         noteDirect,
		LastChecked:  f.now().UTC().Format(time.RFC3339),
	}
	if r, ok := retailers.LookupHost(hostOf(link)); ok {
		listing.Shipping = r.Shipping
	}

	if amount, err := currency.Parse(product.Price.String()); err == nil && amount.Value > 0 {
		listing.OriginalPrice = lo.ToPtr(amount.Value)
		listing.Currency = amount.Currency
	}

	return listing, true
}

func (f *RetailerFinder) normalizeRegion(region string) string {
	if r, ok := LookupRegion(region); ok {
		return r.Code
	}
	if strings.TrimSpace(region) != "" {
		f.logger.Debug().Str("region", region).Msg("unknown region, prices left unadjusted")
		return strings.ToUpper(strings.TrimSpace(region))
	}
	return f.defaultRegion
}

// sortListings orders by confidence (desc), availability severity (asc), price (asc).
// Listings without a price sort after priced ones.
func sortListings(listings []domain.RetailerListing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		if a.Confidence.Rank() != b.Confidence.Rank() {
			return a.Confidence.Rank() > b.Confidence.Rank()
		}
		if a.Availability.Severity() != b.Availability.Severity() {
			return a.Availability.Severity() < b.Availability.Severity()
		}
		pa, pb := a.EffectivePrice(), b.EffectivePrice()
		switch {
		case pa == nil && pb == nil:
			return false
		case pa == nil:
			return false
		case pb == nil:
			return true
		default:
			return *pa < *pb
		}
	})
}

// searchConfidence summarizes how trustworthy the returned set is
func searchConfidence(aiAssisted bool, listings []domain.RetailerListing) domain.Confidence {
	if !aiAssisted {
		return domain.ConfidenceLow
	}
	direct := lo.SomeBy(listings, func(l domain.RetailerListing) bool {
		return l.ID != domain.OriginalRetailerID && l.Confidence == domain.ConfidenceHigh
	})
	return lo.Ternary(direct, domain.ConfidenceHigh, domain.ConfidenceMedium)
}

// generateKnowledgeCacheKey creates a normalized cache key.
// Format: "retailers:{normalized_brand}:{normalized_name}"
func generateKnowledgeCacheKey(product domain.ProductQuery) string {
	return fmt.Sprintf("retailers:%s:%s", normalizeForCacheKey(product.Brand), normalizeForCacheKey(product.Name))
}

// normalizeForCacheKey lowercases, strips special characters and collapses whitespace
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := nonAlphanumericRegex.ReplaceAllString(strings.ToLower(s), "")
	result = whitespaceRun.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// looksLikeBareDomain reports whether s is a scheme-less "host.tld/path" reference
func looksLikeBareDomain(s string) bool {
	if s == "" || strings.Contains(s, "://") || strings.HasPrefix(s, "/") || strings.ContainsAny(s, " \t") {
		return false
	}
	host, _, _ := strings.Cut(s, "/")
	host, _, _ = strings.Cut(host, "?")
	dot := strings.LastIndex(host, ".")
	return dot > 0 && dot < len(host)-1
}

func clampResults(n int) int {
	if n <= 0 || n > MaxRetailerResults {
		return MaxRetailerResults
	}
	return n
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
