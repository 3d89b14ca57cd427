package domain

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "dinheiro"
	PaymentCredit PaymentMethod = "credito"
	PaymentDebit  PaymentMethod = "debito"
	PaymentPix    PaymentMethod = "pix"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCredit, PaymentDebit, PaymentPix:
		return true
	}
	return false
}

// MaxChangeFor caps the change-for amount on cash orders.
var MaxChangeFor = decimal.NewFromInt(200)

// PaymentSelection is the chosen on-delivery payment method. For cash, either
// NoChange is set or ChangeFor holds the bill the customer will pay with.
type PaymentSelection struct {
	Method    PaymentMethod   `json:"method"`
	ChangeFor decimal.Decimal `json:"change_for"`
	NoChange  bool            `json:"no_change,omitempty"`
}

// Validate checks the selection against the order total. The change-for
// amount must exceed the total (otherwise no change is due) and stay within
// MaxChangeFor.
func (p *PaymentSelection) Validate(total decimal.Decimal) error {
	if !p.Method.Valid() {
		return &FieldError{Field: "payment", Rule: "unknown method"}
	}
	if p.Method != PaymentCash || p.NoChange {
		return nil
	}
	if p.ChangeFor.LessThanOrEqual(decimal.Zero) {
		return &FieldError{Field: "change_for", Rule: "inform the amount or mark no change"}
	}
	if p.ChangeFor.GreaterThan(MaxChangeFor) {
		return &FieldError{Field: "change_for", Rule: "maximum is 200.00"}
	}
	if p.ChangeFor.LessThanOrEqual(total) {
		return &FieldError{Field: "change_for", Rule: "must exceed the order total"}
	}
	return nil
}
