package usecase

import (
	"math"
	"strings"

	"github.com/lookboard/backend/internal/domain"
)

// DomesticRegion is the region whose prices are taken as-is
const DomesticRegion = "USA"

// Region is a shopping region with a fixed price multiplier
type Region struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Multiplier   float64 `json:"multiplier"`
	Domestic     bool    `json:"domestic"`
	ShippingNote string  `json:"shippingNote,omitempty"`
	aliases      []string
}

var regions = []Region{
	{Code: "USA", Name: "United States", Multiplier: 1.0, Domestic: true, aliases: []string{"us", "united states", "america"}},
	{Code: "UK", Name: "United Kingdom", Multiplier: 1.15, ShippingNote: "Ships to the UK in 5-7 business days, duties may apply", aliases: []string{"gb", "united kingdom", "great britain", "england"}},
	{Code: "EU", Name: "European Union", Multiplier: 1.12, ShippingNote: "International shipping to the EU, import VAT collected at checkout", aliases: []string{"europe", "eur"}},
	{Code: "CANADA", Name: "Canada", Multiplier: 1.08, ShippingNote: "Ships to Canada in 4-8 business days, duties may apply", aliases: []string{"ca", "can"}},
	{Code: "AUSTRALIA", Name: "Australia", Multiplier: 1.2, ShippingNote: "Ships to Australia in 7-10 business days", aliases: []string{"au", "aus"}},
	{Code: "JAPAN", Name: "Japan", Multiplier: 1.18, ShippingNote: "Ships to Japan in 6-9 business days, duties may apply", aliases: []string{"jp", "jpn"}},
	{Code: "UAE", Name: "United Arab Emirates", Multiplier: 1.1, ShippingNote: "Express shipping to the UAE in 4-6 business days", aliases: []string{"ae", "dubai"}},
}

// Regions lists the supported shopping regions
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// LookupRegion resolves a region code, name or alias case-insensitively
func LookupRegion(code string) (Region, bool) {
	needle := strings.ToLower(strings.TrimSpace(code))
	if needle == "" {
		return Region{}, false
	}
	for _, r := range regions {
		if strings.ToLower(r.Code) == needle || strings.ToLower(r.Name) == needle {
			return r, true
		}
		for _, alias := range r.aliases {
			if alias == needle {
				return r, true
			}
		}
	}
	return Region{}, false
}

// RegionalPriceAdjuster rewrites listing prices and availability per shopping region.
// It simulates regional pricing; it does not check live inventory.
type RegionalPriceAdjuster struct {
	market MarketDataProvider
}

// NewRegionalPriceAdjuster creates an adjuster drawing availability changes from market
func NewRegionalPriceAdjuster(market MarketDataProvider) *RegionalPriceAdjuster {
	return &RegionalPriceAdjuster{market: market}
}

// AdjustForRegion returns adjusted copies of listings. Unknown regions and the
// domestic region leave every listing untouched.
func (a *RegionalPriceAdjuster) AdjustForRegion(listings []domain.RetailerListing, region string) []domain.RetailerListing {
	out := make([]domain.RetailerListing, len(listings))
	copy(out, listings)

	r, ok := LookupRegion(region)
	if !ok || r.Domestic {
		return out
	}

	for i := range out {
		l := &out[i]
		l.OriginalPrice = scalePrice(l.OriginalPrice, r.Multiplier)
		l.SalePrice = scalePrice(l.SalePrice, r.Multiplier)
		if a.market != nil {
			l.Availability = a.market.RegionalAvailability(l.Availability, r)
		}
		l.Shipping = r.ShippingNote
		l.Simulated = true
	}

	return out
}

// scalePrice returns a new pointer so adjusted listings never alias the input
func scalePrice(price *float64, multiplier float64) *float64 {
	if price == nil {
		return nil
	}
	scaled := math.Round(*price * multiplier)
	return &scaled
}
