package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultCategory is used whenever a page gives no usable category signal
const DefaultCategory = "clothing"

// NormalizedProduct is the canonical output of page extraction.
// Prices stay strings here: source pages format them too inconsistently to parse reliably.
type NormalizedProduct struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Brand         string   `json:"brand"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"originalPrice,omitempty"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	ImageURL      string   `json:"imageUrl"`
	SourceURL     string   `json:"sourceUrl"`
	Color         string   `json:"color,omitempty"`
	Material      string   `json:"material,omitempty"`
	Sizes         []string `json:"sizes"`
}

// ProductQuery is the partially known item callers hand to RetailerFinder and
// SimilarProductSuggester
type ProductQuery struct {
	Name      string         `json:"name"`
	Brand     string         `json:"brand,omitempty"`
	Category  string         `json:"category,omitempty"`
	Price     FlexibleString `json:"price,omitempty"`
	ImageURL  string         `json:"imageUrl,omitempty"`
	SourceURL string         `json:"sourceUrl,omitempty"`
}

// QueryFromProduct converts an extracted product into a lookup query
func QueryFromProduct(p *NormalizedProduct) ProductQuery {
	return ProductQuery{
		Name:      p.Name,
		Brand:     p.Brand,
		Category:  p.Category,
		Price:     FlexibleString(p.Price),
		ImageURL:  p.ImageURL,
		SourceURL: p.SourceURL,
	}
}

// SimilarProductSuggestion is an AI-proposed look-alike product. It is never persisted.
type SimilarProductSuggestion struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// Page is a fetched HTML document
type Page struct {
	URL         string // final URL after redirects
	StatusCode  int
	ContentType string
	Body        []byte
}

// FlexibleString accepts either a JSON string or a JSON number.
// Clients send prices as 450, "450" or "$450.00" depending on where the item came from.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, err := n.Float64(); err == nil {
		*f = FlexibleString(strconv.FormatFloat(v, 'f', -1, 64))
		return nil
	}
	*f = FlexibleString(n.String())
	return nil
}

// String returns the raw value
func (f FlexibleString) String() string {
	return string(f)
}
