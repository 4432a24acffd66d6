package itemize

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/entity"
	"github.com/spesti-app/receipts-core/internal/ocr"
)

var (
	// "2.000 x 7.49" / "2 × 7,49": quantity and unit price on their own line
	rePair = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*[x×*хХ]\s*(\d+(?:[.,]\d{2}))\s*$`)

	// trailing price column on a product line, optional letter suffix (VAT group)
	reTrailingPrice = regexp.MustCompile(`\s+(\d+[.,]\d{2})\s*[A-ZА-Я]?\s*$`)

	reCyrillicRun = regexp.MustCompile(`\p{Cyrillic}{3,}`)
	reNumericOnly = regexp.MustCompile(`^[\d\s.,:%*#-]+$`)
)

// LIDL's layout prints "quantity × unit price" on the line immediately above
// the product name; the name line ends with the printed line total.
type LIDL struct {
	log *slog.Logger
}

func NewLIDL(logger *slog.Logger) *LIDL {
	if logger == nil {
		logger = slog.Default()
	}
	return &LIDL{log: logger}
}

func (s *LIDL) Detect(rawText string) bool {
	u := strings.ToUpper(rawText)
	return strings.Contains(u, "ЛИДЛ") || strings.Contains(u, "LIDL")
}

func (s *LIDL) ExtractPairs(lines []string) map[int]QtyPrice {
	pairs := make(map[int]QtyPrice)
	for i, line := range lines {
		m := rePair.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err1 := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
		unit, err2 := decimal.NewFromString(strings.ReplaceAll(m[2], ",", "."))
		if err1 != nil || err2 != nil || !qty.IsPositive() || !unit.IsPositive() {
			continue
		}
		pairs[i] = QtyPrice{Quantity: qty, UnitPrice: unit}
	}
	return pairs
}

func (s *LIDL) Itemize(rawText string, draft *entity.ReceiptDraft) []entity.LineItem {
	lines := ocr.Lines(rawText)
	pairs := s.ExtractPairs(lines)

	var added []entity.LineItem
	for i, line := range lines {
		if _, isPair := pairs[i]; isPair {
			continue
		}
		name, price, ok := splitProductLine(line)
		if !ok {
			continue
		}
		if draft.HasItemNamed(name) {
			continue
		}
		dup := false
		for _, a := range added {
			if strings.EqualFold(a.Name, name) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		item := entity.LineItem{
			Name: name,
			// printed line total is authoritative; recomputing qty×unit would
			// compound OCR digit errors
			TotalPrice: price,
			Quantity:   decimal.NewFromInt(1),
			UnitPrice:  price,
			Confidence: 0.7,
		}
		if p, ok := pairs[i-1]; ok && i > 0 {
			item.Quantity = p.Quantity
			item.UnitPrice = p.UnitPrice
			item.Confidence = 0.85
		}
		added = append(added, item)
	}
	if len(added) > 0 {
		s.log.Info("itemize.lidl.recovered", "items", len(added))
	}
	return added
}

// splitProductLine extracts the product name and its printed line total from
// a candidate product line. Rejects store metadata, numeric-only lines and
// names outside the 3..50 rune plausibility window.
func splitProductLine(line string) (string, decimal.Decimal, bool) {
	if constants.IsNoiseLine(line) || reNumericOnly.MatchString(line) {
		return "", decimal.Decimal{}, false
	}
	if !reCyrillicRun.MatchString(line) {
		return "", decimal.Decimal{}, false
	}
	m := reTrailingPrice.FindStringSubmatchIndex(line)
	if m == nil {
		return "", decimal.Decimal{}, false
	}
	priceStr := strings.ReplaceAll(line[m[2]:m[3]], ",", ".")
	price, err := decimal.NewFromString(priceStr)
	if err != nil || !price.IsPositive() {
		return "", decimal.Decimal{}, false
	}

	name := strings.TrimSpace(line[:m[0]])
	n := utf8.RuneCountInString(name)
	if n < 3 || n > 50 {
		return "", decimal.Decimal{}, false
	}
	return sentenceCase(name), price, true
}

// sentenceCase lowers a shouting receipt name and capitalizes the first rune:
// "СЛАДОЛЕД МИНИ КЛАСИК" -> "Сладолед мини класик".
func sentenceCase(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
