package constants

import "strings"

// receipt lines and tokens that are store metadata, never product names.
var noiseTokens = []string{
	"ОБЩА СУМА",
	"ВСИЧКО",
	"МЕЖДИННА СУМА",
	"К ПЛАЩАНЕ",
	"ЗА ПЛАЩАНЕ",
	"В БРОЙ",
	"РЕСТО",
	"КАРТА",
	"ДДС",
	"ДАН.ОСНОВА",
	"КАСОВ БОН",
	"ФИСКАЛЕН БОН",
	"АРТИКУЛА",
	"АРТИКУЛИ",
	"ЕИК",
	"БУЛСТАТ",
	"ЗДДС",
	"БЛАГОДАРИМ",
	"ЗАПОВЯДАЙТЕ",
	"РАБОТНО ВРЕМЕ",
	"КАСИЕР",
	"ОПЕРАТОР",
	"TOTAL",
	"УНП",
}

// IsNoiseLine reports whether a receipt line is store metadata rather than a
// plausible product name.
func IsNoiseLine(line string) bool {
	u := strings.ToUpper(strings.TrimSpace(line))
	if u == "" {
		return true
	}
	for _, tok := range noiseTokens {
		if strings.Contains(u, tok) {
			return true
		}
	}
	return false
}
