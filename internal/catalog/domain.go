// internal/catalog/domain.go
package catalog

import "strings"

// Category is the pricing tier of a video title.
type Category string

const (
	CategoryNew     Category = "new"
	CategoryRegular Category = "regular"
	CategoryOld     Category = "old"
)

// ParseCategory maps user input to a Category, case-insensitively.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryNew:
		return CategoryNew, true
	case CategoryRegular:
		return CategoryRegular, true
	case CategoryOld:
		return CategoryOld, true
	}
	return "", false
}

// Title represents a distinct film in the catalog. Two titles are the same
// film when name and year match exactly (case-sensitive). The id is assigned
// on creation and never changes; the category may change by reclassification.
type Title struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Year     int      `json:"year"`
	Category Category `json:"category"`
}

// Copy is one physical rentable unit of a title. TitleID is a plain
// foreign-key reference resolved through the catalog. OnShelf is maintained
// by the rental workflow inside its critical section and must always agree
// with the rental ledger: a copy is on shelf iff no active rental holds it.
type Copy struct {
	ID      int  `json:"id"`
	TitleID int  `json:"title_id"`
	OnShelf bool `json:"on_shelf"`
}
