package llm

// BuildDraftJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the model as a structured output constraint and
// also use it locally to validate the response.
func BuildDraftJSONSchema(retailerHints []string) map[string]any {
	itemProps := map[string]any{
		"name":        map[string]any{"type": "string", "minLength": 1},
		"total_price": decimalProp(),
		"quantity":    decimalProp(),
		"unit_price":  decimalProp(),
	}
	retailerProp := map[string]any{"type": "string", "minLength": 1}
	if len(retailerHints) > 0 {
		retailerProp["examples"] = retailerHints
	}
	props := map[string]any{
		"retailer": retailerProp,
		"date":     map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"total":    decimalProp(),
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           itemProps,
				"required":             []string{"name", "total_price"},
			},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"retailer", "date", "total", "items"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d+(\.\d{1,3})?$`,
	}
}
