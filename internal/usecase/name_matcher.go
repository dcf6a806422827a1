package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Token weight categories for scoring
const (
	weightGarment     = 3.0 // Garment terms (gown, blazer, loafer)
	weightDescriptive = 2.0 // Material and colour terms (silk, black)
	weightDefault     = 1.0 // Everything else, including style names
	fuzzyWeightFactor = 0.8 // Fuzzy matches get 80% of normal weight
)

// Scoring bonuses
const (
	brandMatchBonus     = 20.0 // Brand appears in the candidate
	substringMatchBonus = 10.0 // Product name is a substring of the candidate
	baseScoreMultiplier = 70.0 // Base score max before bonuses
)

// garmentTerms contains high-importance product type keywords (weight 3.0)
var garmentTerms = map[string]bool{
	"dress": true, "gown": true, "skirt": true, "top": true, "blouse": true,
	"shirt": true, "tee": true, "sweater": true, "cardigan": true, "hoodie": true,
	"jacket": true, "coat": true, "blazer": true, "trench": true, "parka": true,
	"pants": true, "trousers": true, "jeans": true, "shorts": true, "jumpsuit": true,
	"bodysuit": true, "corset": true, "vest": true, "suit": true, "kimono": true,
	"boots": true, "boot": true, "heels": true, "pumps": true, "sandals": true,
	"sneakers": true, "loafers": true, "mules": true, "flats": true, "slippers": true,
	"bag": true, "tote": true, "clutch": true, "handbag": true, "backpack": true,
	"necklace": true, "earrings": true, "bracelet": true, "ring": true, "belt": true,
	"scarf": true, "hat": true, "sunglasses": true, "bikini": true, "swimsuit": true,
}

// descriptiveTerms contains medium-importance material and colour keywords (weight 2.0)
var descriptiveTerms = map[string]bool{
	"silk": true, "satin": true, "cotton": true, "linen": true, "wool": true,
	"cashmere": true, "leather": true, "suede": true, "denim": true, "velvet": true,
	"lace": true, "tulle": true, "chiffon": true, "organza": true, "crepe": true,
	"knit": true, "ribbed": true, "sequin": true, "embroidered": true, "pleated": true,
	"black": true, "white": true, "ivory": true, "cream": true, "beige": true,
	"red": true, "blue": true, "navy": true, "green": true, "pink": true,
	"brown": true, "grey": true, "gray": true, "gold": true, "silver": true,
	"midi": true, "maxi": true, "mini": true, "cropped": true, "oversized": true,
}

// extendedStopWords includes basic English stop words plus listing noise
var extendedStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	// Audience terms every retailer phrases differently
	"women": true, "womens": true, "woman": true, "men": true, "mens": true,
	"ladies": true, "unisex": true,
	// Listing noise
	"size": true, "new": true, "sale": true, "shop": true, "online": true,
	"official": true, "product": true, "item": true,
}

// MatchConfig holds configuration for the name matcher
type MatchConfig struct {
	MinScore            float64
	EnableFuzzyMatching bool
	FuzzyEditDistance   int
}

// NameMatcher scores how well a product name variant describes a known product
type NameMatcher struct {
	minScore            float64
	enableFuzzyMatching bool
	fuzzyEditDistance   int
}

// NewNameMatcher creates a new matcher with the given configuration
func NewNameMatcher(config MatchConfig) *NameMatcher {
	minScore := config.MinScore
	if minScore <= 0 {
		minScore = 40.0
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	return &NameMatcher{
		minScore:            minScore,
		enableFuzzyMatching: config.EnableFuzzyMatching,
		fuzzyEditDistance:   fuzzyDist,
	}
}

// BestVariant picks the candidate that best describes the product.
// ok is false when no candidate reaches the minimum score.
func (m *NameMatcher) BestVariant(name, brand string, candidates []string) (best string, score float64, ok bool) {
	score = -1
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		s, _ := m.Score(name, brand, candidate)
		if s > score {
			best, score = candidate, s
		}
	}

	if best == "" || score < m.minScore {
		return "", score, false
	}
	return best, score, true
}

// Score computes similarity between a product name and a candidate name.
// Uses a weighted combination of:
//   - Name coverage: what % of the product tokens appear in the candidate (most important)
//   - Candidate coverage: what % of the candidate tokens appear in the product name
//   - Jaccard overlap of both token sets
//
// plus brand and substring bonuses. Returns the score (0-100) and the matched tokens.
func (m *NameMatcher) Score(name, brand, candidate string) (float64, []string) {
	nameTokens := tokenize(name)
	candidateTokens := tokenize(candidate)

	if len(nameTokens) == 0 || len(candidateTokens) == 0 {
		return 0, nil
	}

	nameCoverage, matchedTokens := m.weightedCoverage(nameTokens, candidateTokens)
	candidateCoverage, _ := m.weightedCoverage(candidateTokens, nameTokens)

	matched, _ := findIntersection(nameTokens, candidateTokens)
	jaccard := float64(matched) / float64(findUnion(nameTokens, candidateTokens))

	score := (nameCoverage*0.60 + candidateCoverage*0.20 + jaccard*0.20) * baseScoreMultiplier

	nameLower := strings.ToLower(strings.TrimSpace(name))
	candidateLower := strings.ToLower(candidate)

	if brand != "" && strings.Contains(candidateLower, strings.ToLower(strings.TrimSpace(brand))) {
		score += brandMatchBonus
	}

	if len(nameLower) > 3 && strings.Contains(candidateLower, nameLower) {
		score += substringMatchBonus
	}

	if score > 100 {
		score = 100
	}

	return score, matchedTokens
}

// weightedCoverage returns the weighted share of tokens found in other.
// Exact hits count fully; fuzzy hits count at fuzzyWeightFactor.
func (m *NameMatcher) weightedCoverage(tokens, other []string) (float64, []string) {
	otherSet := make(map[string]bool, len(other))
	for _, t := range other {
		otherSet[t] = true
	}

	var total, hit float64
	var matched []string
	for _, token := range tokens {
		w := getTokenWeight(token)
		total += w

		if otherSet[token] {
			hit += w
			matched = append(matched, token)
			continue
		}

		if m.enableFuzzyMatching {
			for _, o := range other {
				if fuzzyTokenMatch(token, o, m.fuzzyEditDistance) {
					hit += w * fuzzyWeightFactor
					matched = append(matched, token)
					break
				}
			}
		}
	}

	if total == 0 {
		return 0, nil
	}
	return hit / total, matched
}

// getTokenWeight returns the importance weight of a token
func getTokenWeight(token string) float64 {
	switch {
	case garmentTerms[token]:
		return weightGarment
	case descriptiveTerms[token]:
		return weightDescriptive
	default:
		return weightDefault
	}
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	words := strings.Fields(cleaned)

	var tokens []string
	for _, word := range words {
		if len([]rune(word)) <= 1 {
			continue
		}
		if extendedStopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens >= 4 chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// findIntersection returns the count of common tokens and the list of matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}
