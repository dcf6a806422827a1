package domain

import "time"

// Availability of a listing, ordered by severity
type Availability string

const (
	AvailabilityInStock       Availability = "in_stock"
	AvailabilityLowStock      Availability = "low_stock"
	AvailabilitySoldOut       Availability = "sold_out"
	AvailabilityLimitedRegion Availability = "limited_region"
)

// Severity ranks availability for sorting; lower is better
func (a Availability) Severity() int {
	switch a {
	case AvailabilityInStock:
		return 0
	case AvailabilityLowStock:
		return 1
	case AvailabilitySoldOut:
		return 2
	case AvailabilityLimitedRegion:
		return 3
	default:
		return 4
	}
}

// Confidence that a listing URL points at the exact item
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence levels; higher is better
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// OriginalRetailerID is the reserved listing ID for the item's own source page
const OriginalRetailerID = "original-retailer"

// DefaultCurrency for listings when nothing else is known
const DefaultCurrency = "USD"

// RetailerListing is one candidate purchase location for a product
type RetailerListing struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	OriginalPrice *float64     `json:"originalPrice,omitempty"`
	SalePrice     *float64     `json:"salePrice,omitempty"`
	Currency      string       `json:"currency"`
	Availability  Availability `json:"availability"`
	Sizes         []string     `json:"sizes"`
	URL           string       `json:"url"`
	Confidence    Confidence   `json:"confidence"`
	Note          string       `json:"note"`
	Shipping      string       `json:"shipping,omitempty"`
	LastChecked   string       `json:"lastChecked"`
	// Simulated marks prices and availability that did not come from a live check
	Simulated bool `json:"simulated"`
}

// EffectivePrice is the price a shopper would pay, or nil when unknown
func (l RetailerListing) EffectivePrice() *float64 {
	if l.SalePrice != nil {
		return l.SalePrice
	}
	return l.OriginalPrice
}

// SearchMetadata describes how a retailer search was produced
type SearchMetadata struct {
	SearchQuery string     `json:"searchQuery"`
	Confidence  Confidence `json:"confidence"`
	TotalFound  int        `json:"totalFound"`
	LastUpdated time.Time  `json:"lastUpdated"`
	Region      string     `json:"region"`
	AIAssisted  bool       `json:"aiAssisted"`
}

// RetailerSearchResult is the ranked, capped output of a retailer search
type RetailerSearchResult struct {
	Retailers []RetailerListing `json:"retailers"`
	Metadata  SearchMetadata    `json:"metadata"`
}
