package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lookboard/backend/internal/domain"
)

// DefaultEnrichRetailerLimit is the retailer cap for the one-shot enrichment call
const DefaultEnrichRetailerLimit = 6

// ProductExtractor extracts a product record from a URL
type ProductExtractor interface {
	Extract(ctx context.Context, url string) (*domain.NormalizedProduct, error)
}

// RetailerSearcher finds purchase locations for a product
type RetailerSearcher interface {
	FindRetailers(ctx context.Context, product domain.ProductQuery, region string, limit int) *domain.RetailerSearchResult
}

// SimilarSuggester proposes look-alike products
type SimilarSuggester interface {
	SuggestSimilar(ctx context.Context, product domain.ProductQuery, limit int) []domain.SimilarProductSuggestion
}

// EnrichmentResult is everything the add-item-from-link flow needs in one response
type EnrichmentResult struct {
	Product   *domain.NormalizedProduct         `json:"product"`
	Retailers []domain.RetailerListing          `json:"retailers"`
	Metadata  domain.SearchMetadata             `json:"metadata"`
	Similar   []domain.SimilarProductSuggestion `json:"similar"`
}

// EnrichmentService runs extraction, then retailer search and similar
// suggestions side by side
type EnrichmentService struct {
	extractor ProductExtractor
	finder    RetailerSearcher
	suggester SimilarSuggester
	limit     int
}

// NewEnrichmentService creates a new enrichment service with dependencies.
// retailerLimit <= 0 uses DefaultEnrichRetailerLimit.
func NewEnrichmentService(extractor ProductExtractor, finder RetailerSearcher, suggester SimilarSuggester, retailerLimit int) *EnrichmentService {
	if retailerLimit <= 0 {
		retailerLimit = DefaultEnrichRetailerLimit
	}
	return &EnrichmentService{
		extractor: extractor,
		finder:    finder,
		suggester: suggester,
		limit:     retailerLimit,
	}
}

// Enrich extracts the product behind url and decorates it with retailers and
// similar products. Only extraction errors are returned.
func (s *EnrichmentService) Enrich(ctx context.Context, url, region string, similarLimit int) (*EnrichmentResult, error) {
	product, err := s.extractor.Extract(ctx, url)
	if err != nil {
		return nil, err
	}

	query := domain.QueryFromProduct(product)
	result := &EnrichmentResult{Product: product}

	// Neither branch returns an error; the group only bounds both calls to ctx
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found := s.finder.FindRetailers(gctx, query, region, s.limit)
		result.Retailers = found.Retailers
		result.Metadata = found.Metadata
		return nil
	})
	g.Go(func() error {
		result.Similar = s.suggester.SuggestSimilar(gctx, query, similarLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}
