package constants

import "strings"

// CategoryID is the canonical, stable identifier for a spending category.
// All internal tables (keyword rules, brand dictionaries, corrections) key on
// these slugs; display names live in the taxonomy and may be renamed freely.
type CategoryID string

const (
	BasicFoods   CategoryID = "basic_foods"
	Dairy        CategoryID = "dairy"
	MeatFish     CategoryID = "meat_fish"
	FruitsVeg    CategoryID = "fruits_veg"
	Beverages    CategoryID = "beverages"
	SnacksSweets CategoryID = "snacks_sweets"
	Household    CategoryID = "household"
	PersonalCare CategoryID = "personal_care"
	Other        CategoryID = "other"
)

var allCategories = []CategoryID{
	BasicFoods,
	Dairy,
	MeatFish,
	FruitsVeg,
	Beverages,
	SnacksSweets,
	Household,
	PersonalCare,
	Other,
}

// DefaultCategoryNames maps canonical ids to Bulgarian display names.
// Serves as the fallback taxonomy when no external taxonomy source is wired.
var DefaultCategoryNames = map[CategoryID]string{
	BasicFoods:   "Основни храни",
	Dairy:        "Млечни продукти",
	MeatFish:     "Месо и риба",
	FruitsVeg:    "Плодове и зеленчуци",
	Beverages:    "Напитки",
	SnacksSweets: "Снаксове и сладки",
	Household:    "Домакински",
	PersonalCare: "Лична хигиена",
	Other:        "Други",
}

func AllCategories() []CategoryID {
	out := make([]CategoryID, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize resolves a free-form category label (slug, legacy numeric id,
// or Bulgarian display name) to a canonical id. Unknown input maps to Other.
func Canonicalize(input string) (CategoryID, bool) {
	if input == "" {
		return Other, false
	}
	normalized := strings.ToLower(strings.TrimSpace(input))

	// legacy numeric-string ids from earlier taxonomy revisions
	legacy := map[string]CategoryID{
		"1": BasicFoods,
		"2": Dairy,
		"3": MeatFish,
		"4": FruitsVeg,
		"5": Beverages,
		"6": SnacksSweets,
		"7": Household,
		"8": PersonalCare,
		"9": Other,
	}
	if cat, ok := legacy[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	for id, name := range DefaultCategoryNames {
		if normalized == strings.ToLower(name) {
			return id, true
		}
	}
	return Other, false
}
