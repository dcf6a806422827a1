package usecase

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// maxQueryRunes caps search queries; retailer search boxes truncate longer input
const maxQueryRunes = 100

// QueryPreprocessor turns scraped product titles into retailer search queries
type QueryPreprocessor struct {
	logger             zerolog.Logger
	enableDebugLogging bool
}

// Compiled regex patterns for query preprocessing
var (
	// Matches size labels like "Size 8", "sz M", "US 6", "EU 38", "(XS-XL)"
	sizeLabelPattern = regexp.MustCompile(`(?i)\b(size|sz)\s*[:.]?\s*\w+\b|\b(US|UK|EU|IT|FR)\s?\d{1,2}(\.5)?\b|\((XXS|XS|S|M|L|XL|XXL)(\s*-\s*(XXS|XS|S|M|L|XL|XXL))?\)`)

	// Matches SKU-like codes such as "SKU 12345", "Style #AB123", "Item No. 5567"
	skuPattern = regexp.MustCompile(`(?i)\b(sku|style|item|art|ref)\s*(no\.?|#|:)?\s*[A-Z-]*\d[A-Z0-9-]{2,}\b`)

	// Matches standalone numbers with no unit at either end (e.g., ", 128", "- 12")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\d+\.?\d*\s*[,\-]`)

	// Matches " | Store" and " - Shop Online" style title suffixes
	titleSuffixPattern = regexp.MustCompile(`\s+[|\x{2013}\x{2014}]\s+.*$`)

	multiSpacePattern = regexp.MustCompile(`\s+`)

	orphanInnerPunct   = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	orphanTrailingPunc = regexp.MustCompile(`[,\-;:]+\s*$`)
	orphanLeadingPunct = regexp.MustCompile(`^\s*[,\-;:]+`)
)

// queryNoiseWords are marketing terms that only make retailer search worse
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"new":         true,
	"arrival":     true,
	"arrivals":    true,
	"exclusive":   true,
	"limited":     true,
	"edition":     true,
	"sale":        true,
	"bestseller":  true,
	"best-seller": true,
	"trending":    true,
	"online":      true,
	"only":        true,
	"official":    true,
	"authentic":   true,
	"free":        true,
	"shipping":    true,

	// Shopping verbs
	"shop": true,
	"buy":  true,

	// Generic terms that don't help narrow down
	"item":    true,
	"product": true,
	"brand":   true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger zerolog.Logger, enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		logger:             logger,
		enableDebugLogging: enableDebugLogging,
	}
}

// PreprocessQuery cleans a product name for retailer search.
// Removes title suffixes, size labels, SKU codes and marketing terms, then
// prepends the brand when the name does not already carry it.
func (p *QueryPreprocessor) PreprocessQuery(productName, brand string) string {
	brand = strings.TrimSpace(brand)
	if strings.TrimSpace(productName) == "" {
		return brand
	}

	original := productName

	// Step 1: Drop "| Store name" suffixes scraped from <title>
	cleaned := titleSuffixPattern.ReplaceAllString(productName, "")

	// Step 2: Remove size labels and SKU codes
	cleaned = sizeLabelPattern.ReplaceAllString(cleaned, " ")
	cleaned = skuPattern.ReplaceAllString(cleaned, " ")

	// Step 3: Remove standalone numbers at boundaries
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")

	// Step 4: Remove noise words, keeping the original casing of everything else
	cleaned = p.removeNoiseWords(cleaned)

	// Step 5: Clean up punctuation that's now orphaned
	cleaned = cleanOrphanedPunctuation(cleaned)

	// Step 6: Normalize whitespace
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	// Step 7: Prepend brand if provided and not already in the cleaned name
	if brand != "" && !strings.Contains(strings.ToLower(cleaned), strings.ToLower(brand)) {
		cleaned = strings.TrimSpace(brand + " " + cleaned)
	}

	// Step 8: Cap the length on a rune boundary, preferring a word break
	if runes := []rune(cleaned); len(runes) > maxQueryRunes {
		cleaned = string(runes[:maxQueryRunes])
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > len(cleaned)/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	if p.enableDebugLogging {
		p.logger.Debug().Str("input", original).Str("output", cleaned).Msg("preprocessed search query")
	}

	return cleaned
}

// removeNoiseWords removes marketing and generic terms from the query
func (p *QueryPreprocessor) removeNoiseWords(s string) string {
	words := strings.Fields(s)
	kept := make([]string, 0, len(words))

	for _, word := range words {
		cleanWord := strings.ToLower(strings.Trim(word, ",.!?;:'\""))
		if !queryNoiseWords[cleanWord] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation that's now alone (e.g., lone commas)
func cleanOrphanedPunctuation(s string) string {
	result := orphanInnerPunct.ReplaceAllString(s, " ")
	result = orphanTrailingPunc.ReplaceAllString(result, "")
	return orphanLeadingPunct.ReplaceAllString(result, "")
}
