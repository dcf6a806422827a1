package retailers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameForHost(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "searched retailer with www", host: "www.farfetch.com", want: "FARFETCH"},
		{name: "searched retailer subdomain", host: "shop.net-a-porter.com", want: "NET-A-PORTER"},
		{name: "known non-searched retailer", host: "www2.hm.com", want: "H&M"},
		{name: "unknown domain falls back to first label", host: "andresotalora.com", want: "ANDRESOTALORA"},
		{name: "unknown domain with www", host: "www.andresotalora.com", want: "ANDRESOTALORA"},
		{name: "uppercase host", host: "WWW.SSENSE.COM", want: "SSENSE"},
		{name: "empty host", host: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameForHost(tt.host))
		})
	}
}

func TestNameForURL(t *testing.T) {
	name, ok := NameForURL("https://andresotalora.com/mendra")
	assert.True(t, ok)
	assert.Equal(t, "ANDRESOTALORA", name)

	_, ok = NameForURL("not a url")
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		input  string
		wantID string
		found  bool
	}{
		{input: "Net-a-Porter", wantID: "net-a-porter", found: true},
		{input: "NET A PORTER", wantID: "net-a-porter", found: true},
		{input: "netaporter", wantID: "net-a-porter", found: true},
		{input: "Saks Fifth Avenue", wantID: "saks-fifth-avenue", found: true},
		{input: "ssense.com", wantID: "ssense", found: true},
		{input: "Unknown Boutique", found: false},
		{input: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, ok := Lookup(tt.input)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.wantID, r.ID)
			}
		})
	}
}

func TestSearchURL(t *testing.T) {
	r, ok := Lookup("farfetch")
	if !ok {
		t.Fatal("farfetch missing from directory")
	}

	got := r.SearchURL("Andres Otalora Mendra Gown")
	assert.Equal(t, "https://www.farfetch.com/shopping/search/items.aspx?q=Andres+Otalora+Mendra+Gown", got)
}

func TestMajorDirectoryIsConsistent(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Major() {
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
		assert.Equal(t, Slug(r.Name), r.ID)
		assert.Equal(t, strings.ToUpper(r.Name), r.Name)
		assert.True(t, strings.HasSuffix(r.Host, r.Domain))
		assert.True(t, strings.HasPrefix(r.SearchURL("x"), "https://"))
		assert.NotEmpty(t, r.Shipping)
	}
	assert.GreaterOrEqual(t, len(seen), 8)
}

func TestMajorReturnsCopy(t *testing.T) {
	list := Major()
	list[0].Name = "CHANGED"
	assert.NotEqual(t, "CHANGED", Major()[0].Name)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "net-a-porter", Slug("NET-A-PORTER"))
	assert.Equal(t, "h-m", Slug("H&M"))
	assert.Equal(t, "bloomingdale-s", Slug("BLOOMINGDALE'S"))
	assert.Equal(t, "", Slug("  "))
}

func TestKnownName(t *testing.T) {
	name, ok := KnownName("www2.zara.com")
	assert.True(t, ok)
	assert.Equal(t, "ZARA", name)

	name, ok = KnownName("www.ssense.com")
	assert.True(t, ok)
	assert.Equal(t, "SSENSE", name)

	_, ok = KnownName("andresotalora.com")
	assert.False(t, ok)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "farfetch.com", DomainOf("https://www.farfetch.com/shopping/women/item-1.aspx"))
	assert.Equal(t, "andresotalora.com", DomainOf("https://andresotalora.com/mendra"))
	assert.Equal(t, "", DomainOf("not a url"))
	assert.Equal(t, "", DomainOf(""))
}
