// Package domaintesting builds randomized domain fixtures for tests.
package domaintesting

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/go-faker/faker/v4"

	"github.com/lookboard/backend/internal/domain"
)

// FakeProductQuery returns a ProductQuery with fake data and a source URL on a random domain.
func FakeProductQuery(ops ...func(q *domain.ProductQuery)) domain.ProductQuery {
	query := domain.ProductQuery{
		Name:      fakeTitle(),
		Brand:     capitalize(faker.Word()),
		Category:  faker.Word(),
		Price:     domain.FlexibleString(fmt.Sprintf("$%d.00", 50+rand.IntN(2000))),
		ImageURL:  "https://cdn." + fakeDomain() + "/" + faker.Word() + ".jpg",
		SourceURL: "https://" + fakeDomain() + "/products/" + faker.Word(),
	}

	for _, op := range ops {
		op(&query)
	}

	return query
}

// FakeNormalizedProduct returns a NormalizedProduct with fake data.
func FakeNormalizedProduct(ops ...func(p *domain.NormalizedProduct)) domain.NormalizedProduct {
	q := FakeProductQuery()
	product := domain.NormalizedProduct{
		ID:          faker.Word(),
		Name:        q.Name,
		Brand:       q.Brand,
		Price:       q.Price.String(),
		Description: faker.Sentence(),
		Category:    domain.DefaultCategory,
		ImageURL:    q.ImageURL,
		SourceURL:   q.SourceURL,
		Color:       faker.Word(),
		Sizes:       fakeSizes(),
	}

	for _, op := range ops {
		op(&product)
	}

	return product
}

// FakeSuggestion returns a SimilarProductSuggestion with fake data.
func FakeSuggestion(ops ...func(s *domain.SimilarProductSuggestion)) domain.SimilarProductSuggestion {
	suggestion := domain.SimilarProductSuggestion{
		Name:        fakeTitle(),
		Brand:       faker.Word(),
		Price:       float64(20 + rand.IntN(1500)),
		Category:    faker.Word(),
		Description: faker.Sentence(),
	}

	for _, op := range ops {
		op(&suggestion)
	}

	return suggestion
}

func fakeTitle() string {
	garments := []string{"Gown", "Blazer", "Slip Dress", "Trench Coat", "Loafers", "Tote"}
	return strings.Join([]string{faker.Word(), faker.Word(), garments[rand.IntN(len(garments))]}, " ")
}

func fakeDomain() string {
	return strings.ToLower(faker.Word()+faker.Word()) + ".com"
}

func fakeSizes() []string {
	all := []string{"XS", "S", "M", "L", "XL"}
	return append([]string{}, all[:1+rand.IntN(len(all))]...)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
