package product

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spesti-app/receipts-core/constants"
)

// The brand/keyword tables are data, not logic: embedded defaults ship with
// the binary and a file override swaps them without code changes.

//go:embed data/dictionary.json
var defaultDictionaryJSON []byte

// BrandEntry is one known brand with its receipt spellings.
type BrandEntry struct {
	Canonical string               `json:"canonical"`
	Aliases   []string             `json:"aliases,omitempty"`
	Category  constants.CategoryID `json:"category"`
}

// KeywordEntry is one base-product keyword with transliteration aliases.
type KeywordEntry struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases,omitempty"`
}

// ProductGroup holds one category's base-product vocabulary and its known
// type/variant tokens.
type ProductGroup struct {
	Category constants.CategoryID `json:"category"`
	Keywords []KeywordEntry       `json:"keywords"`
	Types    []string             `json:"types,omitempty"`
}

// AttributeEntry normalizes attribute synonyms to one canonical token.
type AttributeEntry struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases,omitempty"`
}

type Dictionary struct {
	Brands     []BrandEntry     `json:"brands"`
	Products   []ProductGroup   `json:"products"`
	Attributes []AttributeEntry `json:"attributes"`
}

// DefaultDictionary returns the embedded Bulgarian grocery dictionary.
func DefaultDictionary() *Dictionary {
	var d Dictionary
	if err := json.Unmarshal(defaultDictionaryJSON, &d); err != nil {
		// embedded data is validated by tests; a decode failure here is a build defect
		panic(fmt.Sprintf("product: embedded dictionary invalid: %v", err))
	}
	return &d
}

// LoadDictionary reads a dictionary override from disk.
func LoadDictionary(path string) (*Dictionary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var d Dictionary
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	return &d, nil
}
