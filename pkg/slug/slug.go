package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug. Accented letters are folded to ASCII.
//
//   - "Café Crème" → "cafe-creme"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}

	s := strings.ToLower(strings.TrimSpace(folded))
	s = strings.NewReplacer("ı", "i", "ø", "o", "ß", "ss", "æ", "ae", "ł", "l").Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithKey appends a slugged key (e.g. a SKU) so slugs stay unique per product.
func WithKey(name, key string) string {
	base, k := Generate(name), Generate(key)
	switch {
	case base == "":
		return k
	case k == "":
		return base
	default:
		return base + "-" + k
	}
}
