// Package currency turns free-form price strings into numbers.
//
// Page extraction deliberately keeps prices as strings; callers that need a
// numeric value go through Parse and handle ErrPriceUnparseable themselves.
package currency

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lookboard/backend/internal/domain"
)

// Amount is a parsed price
type Amount struct {
	Value    float64
	Currency string
}

var symbols = map[string]string{
	"$":   "USD",
	"US$": "USD",
	"C$":  "CAD",
	"CA$": "CAD",
	"A$":  "AUD",
	"AU$": "AUD",
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"₹":   "INR",
}

var codes = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "CAD": true, "AUD": true,
	"JPY": true, "CHF": true, "INR": true, "AED": true, "SGD": true,
}

var (
	symbolPattern = regexp.MustCompile(`(US\$|C\$|CA\$|A\$|AU\$|\$|€|£|¥|₹)`)
	codePattern   = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|CAD|AUD|JPY|CHF|INR|AED|SGD)\b`)
	numberPattern = regexp.MustCompile(`\d{1,3}(?:[ .,\x{00a0}]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d+)?`)
)

// Parse extracts the first amount from s ("$1,234.56", "€1.234,56", "120 EUR").
// Currency defaults to USD when no symbol or code is present.
func Parse(s string) (Amount, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Amount{}, fmt.Errorf("%w: empty", domain.ErrPriceUnparseable)
	}

	cur := domain.DefaultCurrency
	if m := symbolPattern.FindString(text); m != "" {
		cur = symbols[m]
	} else if m := codePattern.FindString(text); m != "" && codes[strings.ToUpper(m)] {
		cur = strings.ToUpper(m)
	}

	raw := numberPattern.FindString(text)
	if raw == "" {
		return Amount{}, fmt.Errorf("%w: %q", domain.ErrPriceUnparseable, s)
	}

	value, err := strconv.ParseFloat(normalizeNumber(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return Amount{}, fmt.Errorf("%w: %q", domain.ErrPriceUnparseable, s)
	}

	return Amount{Value: value, Currency: cur}, nil
}

// ParseOr returns the parsed value of s, or fallback when s cannot be parsed
func ParseOr(s string, fallback float64) float64 {
	amount, err := Parse(s)
	if err != nil || amount.Value <= 0 {
		return fallback
	}
	return amount.Value
}

// Format renders a value the way extracted prices are shown ("$99.99")
func Format(value float64, code string) string {
	switch strings.ToUpper(code) {
	case "", "USD":
		return fmt.Sprintf("$%.2f", value)
	case "EUR":
		return fmt.Sprintf("€%.2f", value)
	case "GBP":
		return fmt.Sprintf("£%.2f", value)
	default:
		return fmt.Sprintf("%.2f %s", value, strings.ToUpper(code))
	}
}

// normalizeNumber converts US ("1,234.56") and European ("1.234,56", "1 234,56")
// groupings into a plain decimal string
func normalizeNumber(raw string) string {
	n := strings.TrimRight(strings.TrimSpace(raw), ".,")
	n = strings.NewReplacer(" ", "", "\u00a0", "").Replace(n)

	lastDot := strings.LastIndex(n, ".")
	lastComma := strings.LastIndex(n, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// European: dots group thousands, comma is the decimal mark
			n = strings.ReplaceAll(n, ".", "")
			return strings.Replace(n, ",", ".", 1)
		}
		return strings.ReplaceAll(n, ",", "")
	case lastComma >= 0:
		// "1,234" groups thousands; "12,50" is a decimal comma
		if len(n)-lastComma-1 == 3 {
			return strings.ReplaceAll(n, ",", "")
		}
		n = strings.ReplaceAll(n[:lastComma], ",", "") + "." + n[lastComma+1:]
		return n
	case strings.Count(n, ".") > 1:
		// "1.234.567" uses dots as grouping only
		return strings.ReplaceAll(n, ".", "")
	case lastDot >= 0 && len(n)-lastDot-1 == 3 && lastDot > 0 && len(n) > 4 && !strings.HasPrefix(n, "0"):
		// "1.234" reads as a thousands group in European formatting
		return strings.ReplaceAll(n, ".", "")
	default:
		return n
	}
}
