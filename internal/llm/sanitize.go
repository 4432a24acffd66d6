package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StripMarkdownFences removes ```json ... ``` wrapping that chat models add
// around structured output despite instructions.
func StripMarkdownFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}

// SanitizeDraftJSON normalizes a model response toward the draft schema:
//   - coerces numeric money fields to decimal strings
//   - drops null/empty optionals and unknown keys
//   - trims obvious string fields
//
// Returns the cleaned document and the list of keys touched.
func SanitizeDraftJSON(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	coerceDecimal := func(m map[string]any, k, label string) {
		v, ok := m[k]
		if !ok {
			return
		}
		switch t := v.(type) {
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', 2, 64)
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
			s = strings.TrimSuffix(s, "лв")
			s = strings.TrimSpace(strings.TrimSuffix(s, "BGN"))
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				dropped = append(dropped, label+"(empty)")
				return
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				m[k] = strconv.FormatFloat(f, 'f', 2, 64)
			} else {
				delete(m, k)
				dropped = append(dropped, label+"(unparsable)")
			}
		case nil:
			delete(m, k)
			dropped = append(dropped, label+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, label+"(type)")
		}
	}

	coerceDecimal(m, "total", "total")

	if v, ok := m["retailer"].(string); ok {
		s := strings.TrimSpace(v)
		if s == "" {
			delete(m, "retailer")
			dropped = append(dropped, "retailer(empty)")
		} else {
			m["retailer"] = s
		}
	}
	if v, ok := m["date"].(string); ok {
		m["date"] = strings.TrimSpace(v)
	}

	// items: keep only known keys, coerce money fields
	if rawItems, ok := m["items"].([]any); ok {
		items := make([]any, 0, len(rawItems))
		for i, ri := range rawItems {
			im, ok := ri.(map[string]any)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("items[%d](type)", i))
				continue
			}
			if v, ok := im["name"].(string); ok {
				im["name"] = strings.TrimSpace(v)
			}
			coerceDecimal(im, "total_price", fmt.Sprintf("items[%d].total_price", i))
			coerceDecimal(im, "quantity", fmt.Sprintf("items[%d].quantity", i))
			coerceDecimal(im, "unit_price", fmt.Sprintf("items[%d].unit_price", i))
			for k := range im {
				switch k {
				case "name", "total_price", "quantity", "unit_price":
				default:
					delete(im, k)
					dropped = append(dropped, fmt.Sprintf("items[%d].%s(unknown)", i, k))
				}
			}
			items = append(items, im)
		}
		m["items"] = items
	}

	// remove unknown top-level keys
	allowed := map[string]struct{}{
		"retailer": {}, "date": {}, "total": {}, "items": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
