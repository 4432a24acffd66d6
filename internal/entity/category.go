package entity

import (
	"strings"
	"time"

	"github.com/spesti-app/receipts-core/constants"
)

// Category represents a taxonomy entry for data transfer between layers.
type Category struct {
	ID   constants.CategoryID `json:"id"`
	Name string               `json:"name"`
}

// CategoryAssignment is the categorization verdict attached 1:1 to a line item.
type CategoryAssignment struct {
	CategoryID   constants.CategoryID       `json:"category_id"`
	CategoryName string                     `json:"category_name"`
	Confidence   float32                    `json:"confidence"` // 0.0..1.0
	Method       constants.AssignmentMethod `json:"method"`
}

// CorrectionRecord pins a normalized product name to a category. Authored by
// a user action; immutable once written, superseded only by a newer record
// for the same key.
type CorrectionRecord struct {
	NormalizedName string               `json:"normalized_name"`
	CategoryID     constants.CategoryID `json:"category_id"`
	CreatedAt      time.Time            `json:"created_at"`
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
