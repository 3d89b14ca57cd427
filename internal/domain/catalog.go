package domain

import "github.com/shopspring/decimal"

// AddOn is an optional, separately priced modifier attachable to a catalog item.
type AddOn struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CatalogItem is one purchasable menu entry. Immutable once loaded; prices on
// line items are snapshotted at add time, so later catalog changes never
// retroactively alter a cart.
type CatalogItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
	Image       string          `json:"image"`
	Extras      []AddOn         `json:"extras"`
}

// AddOnByID looks up one of the item's add-ons. Second return is false when
// the id does not belong to this item.
func (c *CatalogItem) AddOnByID(id string) (AddOn, bool) {
	for _, e := range c.Extras {
		if e.ID == id {
			return e, true
		}
	}
	return AddOn{}, false
}
