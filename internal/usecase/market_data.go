package usecase

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/lookboard/backend/internal/domain"
)

// Quote is a price and availability observation for one retailer
type Quote struct {
	OriginalPrice float64
	SalePrice     *float64
	Availability  domain.Availability
}

// MarketDataProvider supplies per-listing prices and availability.
// SimulatedMarketData is the only implementation; a live price-check service
// would plug in here without changing callers.
type MarketDataProvider interface {
	Quote(retailerID string, low, high float64) Quote
	RegionalAvailability(current domain.Availability, region Region) domain.Availability
}

// SimulatedMarketData produces plausible but invented prices and stock levels.
// Listings built from it are marked Simulated.
type SimulatedMarketData struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedMarketData creates a provider. A zero seed uses the current time.
func NewSimulatedMarketData(seed uint64) *SimulatedMarketData {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &SimulatedMarketData{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Quote samples a price within [low, high] and a stock level.
// About one in five quotes carries a markdown of 10-30%.
func (m *SimulatedMarketData) Quote(retailerID string, low, high float64) Quote {
	if high < low {
		low, high = high, low
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	price := math.Round(low + m.rng.Float64()*(high-low))
	if price <= 0 {
		price = math.Round(high)
	}

	quote := Quote{OriginalPrice: price}
	if m.rng.Float64() < 0.2 {
		sale := math.Round(price * (0.7 + m.rng.Float64()*0.2))
		quote.SalePrice = &sale
	}

	switch roll := m.rng.Float64(); {
	case roll < 0.75:
		quote.Availability = domain.AvailabilityInStock
	case roll < 0.9:
		quote.Availability = domain.AvailabilityLowStock
	default:
		quote.Availability = domain.AvailabilitySoldOut
	}

	return quote
}

// RegionalAvailability downgrades roughly a quarter of non-domestic listings
// to limited_region
func (m *SimulatedMarketData) RegionalAvailability(current domain.Availability, region Region) domain.Availability {
	if region.Domestic || current == domain.AvailabilitySoldOut {
		return current
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rng.Float64() < 0.25 {
		return domain.AvailabilityLimitedRegion
	}
	return current
}
