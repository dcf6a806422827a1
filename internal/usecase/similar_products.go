package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lookboard/backend/internal/domain"
)

// SimilarProductsConfig holds configuration for similar-product suggestions
type SimilarProductsConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// SimilarProductSuggester asks the AI backend for look-alike products
type SimilarProductSuggester struct {
	ai           domain.ChatCompleter
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// NewSimilarProductSuggester creates a suggester. ai may be nil, in which case
// every call returns an empty list.
func NewSimilarProductSuggester(ai domain.ChatCompleter, config SimilarProductsConfig, logger zerolog.Logger) *SimilarProductSuggester {
	maxLimit := config.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 12
	}
	defaultLimit := config.DefaultLimit
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(6, maxLimit)
	}

	return &SimilarProductSuggester{
		ai:           ai,
		logger:       logger.With().Str("component", "similar_products").Logger(),
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// SuggestSimilar returns at most limit suggestions. It never fails: an
// unconfigured or failing backend yields an empty list.
func (s *SimilarProductSuggester) SuggestSimilar(ctx context.Context, product domain.ProductQuery, limit int) []domain.SimilarProductSuggestion {
	suggestions := []domain.SimilarProductSuggestion{}

	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	if s.ai == nil {
		s.logger.Debug().Msg("AI backend not configured, no suggestions")
		return suggestions
	}

	raw, err := s.ai.ChatComplete(ctx, buildSimilarPrompt(product, limit), domain.ChatOptions{
		JSONMode:    true,
		MaxTokens:   1200,
		Temperature: 0.7,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("product", product.Name).Msg("similar products unavailable")
		return suggestions
	}

	parsed, err := parseSuggestions(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("product", product.Name).Msg("discarding malformed similar products response")
		return suggestions
	}

	if len(parsed) > limit {
		parsed = parsed[:limit]
	}
	return append(suggestions, parsed...)
}

func buildSimilarPrompt(product domain.ProductQuery, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d real fashion products similar in style, category and price to this item.\n", limit)
	fmt.Fprintf(&b, "Name: %s\n", product.Name)
	if product.Brand != "" {
		fmt.Fprintf(&b, "Brand: %s\n", product.Brand)
	}
	if product.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", product.Category)
	}
	if product.Price != "" {
		fmt.Fprintf(&b, "Price: %s\n", product.Price)
	}
	b.WriteString(`Do not suggest the item itself. Respond with a JSON object {"products": [{"name": string, ` +
		`"brand": string, "price": number in USD, "category": string, "description": one sentence}]}.`)
	return b.String()
}

// parseSuggestions accepts either a bare JSON array or an object wrapping it
// under "products". Anything else is malformed.
func parseSuggestions(raw string) ([]domain.SimilarProductSuggestion, error) {
	body := []byte(stripCodeFence(raw))

	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		var list []domain.SimilarProductSuggestion
		if err := decodeAIJSON(string(body), &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped struct {
		Products *[]domain.SimilarProductSuggestion `json:"products"`
	}
	if err := decodeAIJSON(string(body), &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Products == nil {
		return nil, fmt.Errorf("%w: missing products array", domain.ErrMalformedAIResponse)
	}
	return *wrapped.Products, nil
}
