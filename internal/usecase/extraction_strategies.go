package usecase

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"github.com/lookboard/backend/internal/domain"
	"github.com/lookboard/backend/internal/retailers"
)

const (
	maxNameLength        = 200
	maxBrandLength       = 80
	maxPriceTextLength   = 40
	maxDescriptionLength = 1000
	maxSizeLabelLength   = 20
)

var (
	whitespaceRun    = regexp.MustCompile(`\s+`)
	priceTokenRegex  = regexp.MustCompile(`(?:US\$|C\$|CA\$|A\$|AU\$|[$€£¥₹])\s?\d[\d.,]*|\d[\d.,]*\s?(?:USD|EUR|GBP|CAD|AUD|JPY|CHF)\b`)
	bareAmountRegex  = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	sizePlaceholders = []string{"select", "choose", "pick", "size guide", "size chart", "find your size"}
)

// pageContext is what every field strategy reads from
type pageContext struct {
	doc   *goquery.Document
	base  *url.URL
	ld    jsonLDProduct
	found *domain.NormalizedProduct
}

// fieldStrategy is one named way of finding a single field
type fieldStrategy struct {
	name    string
	extract func(pc *pageContext) string
}

// fieldChain is tried in order; the first non-empty result wins
type fieldChain []fieldStrategy

func (c fieldChain) resolve(pc *pageContext) (value, strategy string) {
	for _, s := range c {
		if v := strings.TrimSpace(s.extract(pc)); v != "" {
			return v, s.name
		}
	}
	return "", ""
}

type sizeStrategy struct {
	name    string
	extract func(pc *pageContext) []string
}

var nameChain = fieldChain{
	{"og:title", func(pc *pageContext) string { return limitName(pc.meta("og:title")) }},
	{"title", func(pc *pageContext) string { return limitName(pc.doc.Find("title").First().Text()) }},
	{"json-ld", func(pc *pageContext) string { return limitName(pc.ld.Name) }},
	{"selector", func(pc *pageContext) string {
		return pc.firstText(maxNameLength, "h1[itemprop='name']", "[itemprop='name']", "h1.product-title",
			"h1.product__title", ".product-name", ".product-title", ".product_title", ".pdp-title",
			"[data-testid='product-name']", "[data-testid='product-title']", "h1")
	}},
}

var brandChain = fieldChain{
	{"meta", func(pc *pageContext) string {
		return limit(pc.meta("product:brand", "og:brand", "brand"), maxBrandLength)
	}},
	{"json-ld", func(pc *pageContext) string { return limit(pc.ld.Brand, maxBrandLength) }},
	{"selector", func(pc *pageContext) string {
		return pc.firstText(maxBrandLength, "[itemprop='brand'] [itemprop='name']", "[itemprop='brand']",
			".product-brand", ".product__vendor", ".product-vendor", ".brand-name", ".designer-name",
			"[data-testid='product-brand']", ".product-designer", ".brand")
	}},
	{"retailer-directory", func(pc *pageContext) string {
		name, _ := retailers.KnownName(pc.base.Hostname())
		return name
	}},
}

var priceChain = fieldChain{
	{"meta", func(pc *pageContext) string {
		amount := pc.meta("product:price:amount", "og:price:amount", "price")
		return formatMetaPrice(amount, pc.meta("product:price:currency", "og:price:currency", "priceCurrency"))
	}},
	{"json-ld", func(pc *pageContext) string { return formatMetaPrice(pc.ld.Price, pc.ld.Currency) }},
	{"selector", func(pc *pageContext) string {
		return firstMatch(pc, cleanPriceText, "[itemprop='price']", ".price__sale .price-item--sale",
			".price-item--sale", ".sale-price", ".product-price", ".product__price", ".price__current",
			".current-price", ".price--current", ".pdp-price", "[data-testid='product-price']",
			".price-item--regular", ".money", "span.price", ".price")
	}},
}

var originalPriceChain = fieldChain{
	{"meta", func(pc *pageContext) string {
		return formatMetaPrice(pc.meta("product:original_price:amount", "og:price:standard_amount"),
			pc.meta("product:original_price:currency", "product:price:currency"))
	}},
	{"compare-at", func(pc *pageContext) string {
		return firstMatch(pc, cleanPriceText, ".price__compare .price-item", ".compare-at-price",
			".price--compare", ".price-compare", ".was-price", ".original-price", ".price-old",
			".price__was", "s .money", "del .money", "s.price", "del")
	}},
}

var imageChain = fieldChain{
	{"og:image", func(pc *pageContext) string {
		return pc.absolute(pc.meta("og:image:secure_url", "og:image", "twitter:image"))
	}},
	{"json-ld", func(pc *pageContext) string { return pc.absolute(pc.ld.Image) }},
	{"selector", func(pc *pageContext) string {
		return firstMatch(pc, pc.absolute, "[itemprop='image']", ".product-image img", ".product__media img",
			"img.product-image", ".product-gallery img", ".pdp-image img", "#product-image",
			"[data-testid='product-image'] img", "main img")
	}},
}

var descriptionChain = fieldChain{
	{"og:description", func(pc *pageContext) string { return limit(pc.meta("og:description"), maxDescriptionLength) }},
	{"meta", func(pc *pageContext) string { return limit(pc.meta("description"), maxDescriptionLength) }},
	{"json-ld", func(pc *pageContext) string { return limit(pc.ld.Description, maxDescriptionLength) }},
}

var colorChain = fieldChain{
	{"meta", func(pc *pageContext) string { return limit(pc.meta("product:color", "color"), 40) }},
	{"json-ld", func(pc *pageContext) string { return limit(pc.ld.Color, 40) }},
	{"selector", func(pc *pageContext) string {
		return pc.firstText(40, "[itemprop='color']", ".selected-color", ".color-name", ".product-color",
			".swatch-color.selected", "[data-testid='product-color']")
	}},
}

var materialChain = fieldChain{
	{"meta", func(pc *pageContext) string { return limit(pc.meta("product:material", "material"), 60) }},
	{"json-ld", func(pc *pageContext) string { return limit(pc.ld.Material, 60) }},
	{"keyword", func(pc *pageContext) string {
		text := pc.found.Description + " " + joinedText(pc.doc.Find(".product-details, .product-description, "+
			"[itemprop='description'], .composition, .product__description"))
		return detectMaterial(text)
	}},
}

var categoryChain = fieldChain{
	{"json-ld", func(pc *pageContext) string { return detectCategory(pc.ld.Category) }},
	{"meta", func(pc *pageContext) string {
		return detectCategory(pc.meta("product:category", "og:product:category"))
	}},
	{"breadcrumb", func(pc *pageContext) string {
		return detectCategory(joinedText(pc.doc.Find(".breadcrumb a, .breadcrumbs a, nav[aria-label='breadcrumb'] a, " +
			"[itemtype*='BreadcrumbList'] [itemprop='name']")))
	}},
	{"keyword", func(pc *pageContext) string { return detectCategory(pc.found.Name + " " + pc.found.Description) }},
}

var sizeChain = []sizeStrategy{
	{"select", func(pc *pageContext) []string {
		return pc.collectSizes("select[name*='size'] option", "select[name*='Size'] option",
			"select[id*='size'] option", "select[data-option='size'] option")
	}},
	{"swatch", func(pc *pageContext) []string {
		return pc.collectSizes("[data-option-name='size'] input", "[data-option-name='Size'] input",
			"fieldset[name='Size'] input", ".size-selector button", ".size-selector li", ".swatch-size",
			".product-sizes li", ".sizes li", "[data-size]")
	}},
}

// meta returns the content of the first meta tag whose property, name or itemprop is one of keys
func (pc *pageContext) meta(keys ...string) string {
	for _, key := range keys {
		for _, attr := range []string{"property", "name", "itemprop"} {
			sel := pc.doc.Find("meta[" + attr + "='" + key + "']").First()
			if content := strings.TrimSpace(sel.AttrOr("content", "")); content != "" {
				return collapse(content)
			}
		}
	}
	return ""
}

// firstText returns the text of the first selector match that is non-empty and shorter than maxLen
func (pc *pageContext) firstText(maxLen int, selectors ...string) string {
	return firstMatch(pc, func(s string) string { return limit(s, maxLen) }, selectors...)
}

// firstMatch runs clean over the content of each match in selector order and
// returns the first non-empty result. Content is an attribute for meta, img and
// source elements and the element text otherwise.
func firstMatch(pc *pageContext, clean func(string) string, selectors ...string) string {
	for _, selector := range selectors {
		var found string
		pc.doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = clean(selectionValue(s))
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func selectionValue(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "img", "source":
		for _, attr := range []string{"src", "data-src", "data-original", "data-zoom-image"} {
			if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
				return v
			}
		}
		if srcset := strings.TrimSpace(s.AttrOr("srcset", "")); srcset != "" {
			first, _, _ := strings.Cut(srcset, ",")
			src, _, _ := strings.Cut(strings.TrimSpace(first), " ")
			return src
		}
		return ""
	case "meta", "link":
		return lo.Ternary(s.AttrOr("content", "") != "", s.AttrOr("content", ""), s.AttrOr("href", ""))
	}
	if content := strings.TrimSpace(s.AttrOr("content", "")); content != "" {
		return content
	}
	return s.Text()
}

// absolute resolves ref against the page URL. Empty, data: and
// non-http(s) references resolve to "".
func (pc *pageContext) absolute(ref string) string {
	return resolveURL(pc.base, ref)
}

func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

func (pc *pageContext) collectSizes(selectors ...string) []string {
	var sizes []string
	seen := map[string]bool{}
	for _, selector := range selectors {
		pc.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			label := collapse(s.Text())
			if label == "" {
				label = collapse(lo.Ternary(s.AttrOr("data-size", "") != "", s.AttrOr("data-size", ""), s.AttrOr("value", "")))
			}
			if !isSizeLabel(label) || seen[strings.ToLower(label)] {
				return
			}
			seen[strings.ToLower(label)] = true
			sizes = append(sizes, label)
		})
		if len(sizes) > 0 {
			return sizes
		}
	}
	return sizes
}

func isSizeLabel(label string) bool {
	if label == "" || utf8.RuneCountInString(label) > maxSizeLabelLength {
		return false
	}
	lower := strings.ToLower(label)
	if lower == "size" || lower == "sizes" {
		return false
	}
	return !lo.SomeBy(sizePlaceholders, func(p string) bool { return strings.Contains(lower, p) })
}

// cleanPriceText pulls the first price-looking token out of element text
func cleanPriceText(text string) string {
	text = collapse(text)
	if text == "" || !strings.ContainsAny(text, "0123456789") {
		return ""
	}
	if token := priceTokenRegex.FindString(text); token != "" {
		return strings.TrimSpace(token)
	}
	if bareAmountRegex.MatchString(text) {
		return "$" + text
	}
	return ""
}

// formatMetaPrice renders a bare meta amount with its currency ("450.00", "EUR" -> "€450.00")
func formatMetaPrice(amount, currencyCode string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" || !strings.ContainsAny(amount, "0123456789") {
		return ""
	}
	if !bareAmountRegex.MatchString(amount) {
		return cleanPriceText(amount)
	}
	switch strings.ToUpper(strings.TrimSpace(currencyCode)) {
	case "", "USD":
		return "$" + amount
	case "EUR":
		return "€" + amount
	case "GBP":
		return "£" + amount
	case "JPY":
		return "¥" + amount
	default:
		return amount + " " + strings.ToUpper(strings.TrimSpace(currencyCode))
	}
}

func limitName(s string) string {
	return limit(s, maxNameLength)
}

// limit rejects (rather than truncates) values that are too long to be a real field
func limit(s string, maxLen int) string {
	s = collapse(s)
	if utf8.RuneCountInString(s) >= maxLen {
		return ""
	}
	return s
}

// joinedText is Selection.Text with a space between elements, so adjacent
// breadcrumb links do not run together
func joinedText(sel *goquery.Selection) string {
	return strings.Join(sel.Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	}), " ")
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"dresses", []string{"dress", "dresses", "gown", "gowns", "sundress"}},
	{"shoes", []string{"shoe", "shoes", "sneaker", "sneakers", "boot", "boots", "heels", "pumps", "sandal", "sandals", "loafer", "loafers", "mules", "flats"}},
	{"bags", []string{"bag", "bags", "tote", "clutch", "handbag", "backpack", "purse", "crossbody"}},
	{"jewelry", []string{"necklace", "earrings", "earring", "bracelet", "ring", "rings", "jewelry", "jewellery"}},
	{"outerwear", []string{"coat", "coats", "jacket", "jackets", "blazer", "parka", "trench", "puffer", "outerwear"}},
	{"swimwear", []string{"bikini", "swimsuit", "swimwear"}},
	{"bottoms", []string{"pants", "trousers", "jeans", "skirt", "skirts", "shorts", "leggings"}},
	{"tops", []string{"top", "tops", "shirt", "blouse", "tee", "t-shirt", "sweater", "cardigan", "hoodie", "knitwear", "tank"}},
	{"accessories", []string{"belt", "scarf", "hat", "cap", "sunglasses", "wallet", "gloves", "accessories"}},
}

// detectCategory maps free text onto a category by keyword, or "" when nothing matches
func detectCategory(text string) string {
	words := strings.Fields(punctuationRegex.ReplaceAllString(strings.ToLower(text), " "))
	if len(words) == 0 {
		return ""
	}
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}
	// "t-shirt" loses its hyphen to the punctuation filter
	if present["t"] && present["shirt"] {
		present["t-shirt"] = true
	}
	for _, c := range categoryKeywords {
		if lo.SomeBy(c.words, func(w string) bool { return present[w] }) {
			return c.category
		}
	}
	return ""
}

var materialKeywords = []string{
	"cashmere", "silk", "satin", "linen", "wool", "cotton", "leather", "suede", "denim",
	"velvet", "organza", "chiffon", "tulle", "lace", "viscose", "polyester", "nylon", "crepe",
}

// detectMaterial returns the first known material mentioned in text
func detectMaterial(text string) string {
	words := strings.Fields(punctuationRegex.ReplaceAllString(strings.ToLower(text), " "))
	for _, m := range materialKeywords {
		if lo.Contains(words, m) {
			return strings.ToUpper(m[:1]) + m[1:]
		}
	}
	return ""
}

// jsonLDProduct holds the Product fields read from application/ld+json blocks
type jsonLDProduct struct {
	Name        string
	Brand       string
	Description string
	Image       string
	Price       string
	Currency    string
	Color       string
	Material    string
	Category    string
}

// findJSONLDProduct returns the first schema.org Product found in the page
func findJSONLDProduct(doc *goquery.Document) jsonLDProduct {
	var product jsonLDProduct
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return true
		}
		node := findProductNode(data)
		if node == nil {
			return true
		}
		product = jsonLDProduct{
			Name:        ldString(node["name"]),
			Brand:       ldString(node["brand"]),
			Description: ldString(node["description"]),
			Image:       ldString(node["image"]),
			Color:       ldString(node["color"]),
			Material:    ldString(node["material"]),
			Category:    ldString(node["category"]),
		}
		if offer := firstOffer(node["offers"]); offer != nil {
			product.Price = ldString(lo.Ternary(offer["price"] != nil, offer["price"], offer["lowPrice"]))
			product.Currency = ldString(offer["priceCurrency"])
		}
		return false
	})
	return product
}

func findProductNode(data interface{}) map[string]interface{} {
	switch v := data.(type) {
	case []interface{}:
		for _, item := range v {
			if node := findProductNode(item); node != nil {
				return node
			}
		}
	case map[string]interface{}:
		if isProductType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findProductNode(graph)
		}
	}
	return nil
}

func isProductType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Product") || strings.EqualFold(v, "ProductGroup")
	case []interface{}:
		return lo.SomeBy(v, isProductType)
	}
	return false
}

func firstOffer(offers interface{}) map[string]interface{} {
	switch v := offers.(type) {
	case map[string]interface{}:
		if nested, ok := v["offers"]; ok && v["price"] == nil && v["lowPrice"] == nil {
			return firstOffer(nested)
		}
		return v
	case []interface{}:
		for _, item := range v {
			if offer := firstOffer(item); offer != nil {
				return offer
			}
		}
	}
	return nil
}

// ldString flattens the shapes schema.org values come in: plain strings,
// numbers, {"name": ...} / {"url": ...} objects and arrays of those
func ldString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return collapse(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]interface{}:
		for _, key := range []string{"name", "url", "contentUrl", "@id"} {
			if s := ldString(val[key]); s != "" {
				return s
			}
		}
	case []interface{}:
		for _, item := range val {
			if s := ldString(item); s != "" {
				return s
			}
		}
	}
	return ""
}
