package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate     = regexp.MustCompile(`\b\d{1,2}[./-]\d{1,2}[./-](20)?\d{2}\b`)
	reCurrency = regexp.MustCompile(`(^|[^\p{L}])(лв|lv|bgn)($|[^\p{L}])`)
	reAmount   = regexp.MustCompile(`\b\d+[.,]\d{2}\b`)
	reTotalKw  = regexp.MustCompile(`обща сума|всичко|за плащане`)
	reCyrillic = regexp.MustCompile(`\p{Cyrillic}{3,}`)
)

// naive heuristic confidence based on decoded text characteristics.
// Bulgarian receipt artifacts (date, лв/BGN marks, decimal amounts, total
// keywords, Cyrillic runs) each add to a small base score.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.15) // base
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reCurrency.MatchString(txtL) {
		score += 0.1
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if reTotalKw.MatchString(txtL) {
		score += 0.2
	}
	if reCyrillic.MatchString(txt) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
