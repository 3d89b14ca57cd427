package domain

import "github.com/shopspring/decimal"

const (
	// MaxCartItems bounds the number of distinct line items in a cart.
	MaxCartItems = 20
	// MaxItemQuantity bounds the quantity of a single line item.
	MaxItemQuantity = 10
)

// LineItem is one customized, quantified instance of a catalog item inside a
// cart. Name and base price are captured at add time, not live-linked.
type LineItem struct {
	ID             string          `json:"id"`
	CatalogItemID  int64           `json:"catalog_item_id"`
	Name           string          `json:"name"`
	BasePrice      decimal.Decimal `json:"base_price"`
	Quantity       int             `json:"quantity"`
	AddOnIDs       []string        `json:"add_on_ids,omitempty"`
	Note           string          `json:"note,omitempty"`
	RecipientLabel string          `json:"recipient_label,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// Subtotal is unit price times quantity, rounded to 2 decimals.
func (li *LineItem) Subtotal() decimal.Decimal {
	return Round2(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
}

// CartState is the single mutable aggregate owned by the cart store.
// Line-item order is insertion order and is significant for display.
type CartState struct {
	Items    []LineItem        `json:"items"`
	Customer *CustomerProfile  `json:"customer,omitempty"`
	Payment  *PaymentSelection `json:"payment,omitempty"`
	Theme    string            `json:"theme,omitempty"`
}

// Total sums subtotals over all line items, rounded to 2 decimals after
// summation.
func (c *CartState) Total() decimal.Decimal {
	sum := decimal.Zero
	for i := range c.Items {
		sum = sum.Add(c.Items[i].Subtotal())
	}
	return Round2(sum)
}

// ItemCount is the sum of quantities across line items.
func (c *CartState) ItemCount() int {
	n := 0
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}
