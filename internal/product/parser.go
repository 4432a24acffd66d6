package product

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/entity"
)

// Parser decomposes raw OCR product strings into structured components and
// rebuilds canonical display names. Stateless once constructed; safe for
// concurrent use.
type Parser struct {
	dict *Dictionary
}

func NewParser(dict *Dictionary) *Parser {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Parser{dict: dict}
}

var (
	reDashes     = regexp.MustCompile("[–—―]")
	reQuotes     = regexp.MustCompile("[\"'`„“”«»]")
	reCommaLeft  = regexp.MustCompile(`([^\d])[,;]`)
	reCommaRight = regexp.MustCompile(`[,;]([^\d])`)
	reSpaces     = regexp.MustCompile(`\s+`)

	// size with optional multi-pack prefix: "6x330мл", "1.5 л", "500г", "2 бр"
	reSize = regexp.MustCompile(`(?i)(?:(\d+)\s*[x×х*]\s*)?(\d+(?:[.,]\d+)?)\s*(мл|кг|гр|бр|ml|kg|gr|pcs|br|л|г|l|g)([^\p{L}\d]|$)`)

	rePercent = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
)

var unitShortForm = map[string]string{
	"л": "л", "l": "л",
	"мл": "мл", "ml": "мл",
	"г": "г", "гр": "г", "g": "г", "gr": "г",
	"кг": "кг", "kg": "кг",
	"бр": "бр", "br": "бр", "pcs": "бр",
}

// Normalize is the pure raw-string -> canonical display string function.
// Unknown or empty input returns the trimmed original rather than failing.
func (p *Parser) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	c := p.Parse(raw)
	if c.BaseProduct == "" {
		return trimmed
	}
	return Assemble(c)
}

// Parse runs the fixed stage pipeline. Each stage consumes matched text and
// hands the residual to the next; size and percent tokens go first so their
// digits cannot be mis-read as brand or type keywords.
func (p *Parser) Parse(raw string) entity.ProductComponents {
	c, _, _ := p.parse(raw)
	return c
}

// ParseWithCategory additionally reports the category implied by the matched
// base-product group (or, failing that, the matched brand's category).
func (p *Parser) ParseWithCategory(raw string) (entity.ProductComponents, constants.CategoryID, bool) {
	return p.parse(raw)
}

func (p *Parser) parse(raw string) (entity.ProductComponents, constants.CategoryID, bool) {
	var c entity.ProductComponents

	residual := cleanText(raw)
	residual = p.extractSize(residual, &c)
	residual = p.extractPercent(residual, &c)

	tokens := strings.Fields(residual)
	var brandCategory constants.CategoryID
	tokens, brandCategory = p.extractBrand(tokens, &c)
	tokens, productCategory, matched := p.extractBase(tokens, &c)
	tokens = p.extractAttributes(tokens, &c)

	if c.BaseProduct == "" {
		c.BaseProduct = fallbackBase(tokens)
	}

	switch {
	case matched:
		return c, productCategory, true
	case brandCategory != "" && brandCategory != "general":
		return c, brandCategory, true
	default:
		return c, "", false
	}
}

// Assemble rebuilds the canonical display string: base, brand, type,
// attributes, size+unit, space-joined. Size uses a comma decimal separator
// per Bulgarian convention when non-integral.
func Assemble(c entity.ProductComponents) string {
	parts := make([]string, 0, 4+len(c.KeyAttributes))
	parts = append(parts, c.BaseProduct)
	if c.Brand != "" {
		parts = append(parts, c.Brand)
	}
	if c.Type != "" {
		parts = append(parts, c.Type)
	}
	parts = append(parts, c.KeyAttributes...)
	if c.HasSize() {
		parts = append(parts, FormatSize(c.Size, c.Unit))
	}
	return strings.Join(parts, " ")
}

// FormatSize renders "1980мл", "1,5л", "2бр".
func FormatSize(size decimal.Decimal, unit string) string {
	s := size.String()
	if !size.IsInteger() {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s + unit
}

func cleanText(raw string) string {
	s := strings.TrimSpace(raw)
	s = reDashes.ReplaceAllString(s, "-")
	s = reQuotes.ReplaceAllString(s, " ")
	s = reCommaLeft.ReplaceAllString(s, "$1 ")
	s = reCommaRight.ReplaceAllString(s, " $1")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func (p *Parser) extractSize(residual string, c *entity.ProductComponents) string {
	m := reSize.FindStringSubmatchIndex(residual)
	if m == nil {
		return residual
	}
	get := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return residual[m[2*i]:m[2*i+1]]
	}
	size, err := decimal.NewFromString(strings.ReplaceAll(get(2), ",", "."))
	if err != nil {
		return residual
	}
	if packCount := get(1); packCount != "" {
		if n, err := decimal.NewFromString(packCount); err == nil && n.IsPositive() {
			// multi-pack notation: total size = N × size
			size = size.Mul(n)
		}
	}
	c.Size = size
	c.Unit = unitShortForm[strings.ToLower(get(3))]

	// keep the trailing boundary character, drop the size token itself
	return strings.TrimSpace(residual[:m[0]] + " " + get(4) + " " + residual[m[1]:])
}

func (p *Parser) extractPercent(residual string, c *entity.ProductComponents) string {
	m := rePercent.FindStringSubmatchIndex(residual)
	if m == nil {
		return residual
	}
	value := strings.ReplaceAll(residual[m[2]:m[3]], ",", ".")
	c.KeyAttributes = append(c.KeyAttributes, value+"%")
	return strings.TrimSpace(residual[:m[0]] + " " + residual[m[1]:])
}

func (p *Parser) extractBrand(tokens []string, c *entity.ProductComponents) ([]string, constants.CategoryID) {
	for _, brand := range p.dict.Brands {
		names := append([]string{brand.Canonical}, brand.Aliases...)
		for _, name := range names {
			if rest, ok := removePhrase(tokens, name); ok {
				c.Brand = brand.Canonical
				return rest, brand.Category
			}
		}
	}
	return tokens, ""
}

func (p *Parser) extractBase(tokens []string, c *entity.ProductComponents) ([]string, constants.CategoryID, bool) {
	for _, group := range p.dict.Products {
		for _, kw := range group.Keywords {
			names := append([]string{kw.Canonical}, kw.Aliases...)
			for _, name := range names {
				rest, ok := removePhrase(tokens, name)
				if !ok {
					continue
				}
				c.BaseProduct = capitalize(kw.Canonical)
				// look for a known type/variant within this category's vocabulary
				for _, t := range group.Types {
					if r2, ok := removePhrase(rest, t); ok {
						c.Type = strings.ToLower(t)
						rest = r2
						break
					}
				}
				return rest, group.Category, true
			}
		}
	}
	return tokens, "", false
}

func (p *Parser) extractAttributes(tokens []string, c *entity.ProductComponents) []string {
	for _, attr := range p.dict.Attributes {
		names := append([]string{attr.Canonical}, attr.Aliases...)
		for _, name := range names {
			if rest, ok := removePhrase(tokens, name); ok {
				c.KeyAttributes = append(c.KeyAttributes, attr.Canonical)
				tokens = rest
				break
			}
		}
	}
	return tokens
}

// removePhrase removes the first case-insensitive occurrence of phrase
// (one or more consecutive tokens) from tokens.
func removePhrase(tokens []string, phrase string) ([]string, bool) {
	want := strings.Fields(strings.ToLower(phrase))
	if len(want) == 0 || len(want) > len(tokens) {
		return tokens, false
	}
	for i := 0; i+len(want) <= len(tokens); i++ {
		match := true
		for j, w := range want {
			if strings.ToLower(strings.Trim(tokens[i+j], ".")) != w {
				match = false
				break
			}
		}
		if match {
			rest := make([]string, 0, len(tokens)-len(want))
			rest = append(rest, tokens[:i]...)
			rest = append(rest, tokens[i+len(want):]...)
			return rest, true
		}
	}
	return tokens, false
}

// fallbackBase picks the first word of 3+ letters when no keyword matched.
func fallbackBase(tokens []string) string {
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) >= 3 {
			return capitalize(strings.ToLower(tok))
		}
	}
	return ""
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
