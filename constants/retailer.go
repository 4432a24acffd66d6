package constants

// RetailerAliases maps the canonical Bulgarian retailer name to the spellings
// seen on printed receipts (Latin, Cyrillic, partial). Matching is
// case-insensitive substring over the receipt header lines.
var RetailerAliases = map[string][]string{
	"ЛИДЛ БЪЛГАРИЯ":  {"ЛИДЛ", "LIDL"},
	"КАУФЛАНД":       {"КАУФЛАНД", "KAUFLAND"},
	"БИЛЛА БЪЛГАРИЯ": {"БИЛЛА", "BILLA"},
	"ФАНТАСТИКО":     {"ФАНТАСТИКО", "FANTASTICO"},
	"Т МАРКЕТ":       {"Т МАРКЕТ", "T MARKET", "ТИ МАРКЕТ"},
	"МЕТРО":          {"МЕТРО", "METRO"},
}
