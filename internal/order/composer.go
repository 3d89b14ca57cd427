// Package order renders cart and customer state into the outbound WhatsApp
// order message. Composing is pure: same inputs, same output, no side
// effects — the caller opens the handoff URL and resets the cart.
package order

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/catalog"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/domain"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/validate"
)

const (
	mobileHandoffHost = "https://api.whatsapp.com"
	webHandoffHost    = "https://web.whatsapp.com"

	defaultRecipient = "Sem Nome"
)

// Composer builds order messages for one establishment.
type Composer struct {
	BusinessName   string
	WhatsAppNumber string
	Catalog        catalog.Repository
}

// Input is everything a message depends on. Now drives only the greeting
// band; ScheduledWindow, when non-empty, appends the scheduling notice.
type Input struct {
	Customer        domain.CustomerProfile
	Payment         domain.PaymentSelection
	Items           []domain.LineItem
	Total           decimal.Decimal
	ScheduledWindow string
	Mobile          bool
	Now             time.Time
}

// Composed is the outbound message and the URL that delivers it.
type Composed struct {
	Text       string
	HandoffURL string
}

// Compose renders the message in its fixed section order: greeting, header,
// customer block, items, total, payment, address, optional scheduling notice.
func (c *Composer) Compose(ctx context.Context, in Input) (*Composed, error) {
	var b strings.Builder

	greeting, period := greetingFor(in.Now)
	b.WriteString(greeting + "! 👋\n")
	b.WriteString("_Que bom que nos escolheu para memorar o seu " + period + "_\n\n")

	b.WriteString("🍔 *Pedido " + c.BusinessName + "*\n\n")

	b.WriteString("👤 *Cliente:* " + validate.Sanitize(in.Customer.Name) + "\n")
	b.WriteString("📞 *Telefone:* " + phoneLine(in.Customer.Phone) + "\n")
	if in.Customer.SecondaryPhone != "" {
		b.WriteString("📞 *Telefone 2:* " + phoneLine(in.Customer.SecondaryPhone) + "\n")
	}
	b.WriteString("\n📝 *Itens:*\n")

	for i := range in.Items {
		line, err := c.itemLine(ctx, &in.Items[i])
		if err != nil {
			return nil, err
		}
		b.WriteString(line)
	}

	b.WriteString("\n💰 *Total: R$" + domain.FormatPrice(in.Total) + "*\n")
	b.WriteString("💳 " + paymentLine(in.Payment))
	b.WriteString("\n\n📍 *Endereço:* " + formatAddress(in.Customer.Address))

	if in.ScheduledWindow != "" {
		b.WriteString("\n\n⏰ *ESTABELECIMENTO FECHADO*\n")
		b.WriteString("📅 Pedido agendado para *" + in.ScheduledWindow + "*\n")
		b.WriteString("📞 _O estabelecimento entrará em contato para confirmar o pedido_")
	}

	text := b.String()
	return &Composed{
		Text:       text,
		HandoffURL: c.handoffURL(text, in.Mobile),
	}, nil
}

// itemLine formats one cart entry: recipient, product, add-on names (no
// prices in the outbound text), line price, and an indented note when given.
func (c *Composer) itemLine(ctx context.Context, li *domain.LineItem) (string, error) {
	recipient := li.RecipientLabel
	if recipient == "" {
		recipient = defaultRecipient
	}

	extras := ""
	if len(li.AddOnIDs) > 0 {
		src, err := c.Catalog.GetItem(ctx, li.CatalogItemID)
		if err != nil {
			return "", err
		}
		names := make([]string, 0, len(li.AddOnIDs))
		for _, id := range li.AddOnIDs {
			if a, ok := src.AddOnByID(id); ok {
				names = append(names, a.Name)
			}
		}
		if len(names) > 0 {
			extras = " (" + strings.Join(names, ", ") + ")"
		}
	}

	line := "• " + validate.Sanitize(recipient) + " - " + li.Name + extras +
		" - R$" + domain.FormatPrice(li.UnitPrice)
	if li.Quantity > 1 {
		line += " x" + strconv.Itoa(li.Quantity)
	}
	if li.Note != "" {
		line += "\n  Obs: " + validate.Sanitize(li.Note)
	}
	return line + "\n", nil
}

func phoneLine(phone string) string {
	if phone == "" {
		return "Não informado"
	}
	return validate.MaskPhone(validate.Sanitize(phone))
}

func paymentLine(p domain.PaymentSelection) string {
	switch p.Method {
	case domain.PaymentCredit:
		return "Pagamento: Cartão de Crédito na entrega"
	case domain.PaymentDebit:
		return "Pagamento: Cartão de Débito na entrega"
	case domain.PaymentPix:
		return "Pagamento: PIX"
	case domain.PaymentCash:
		line := "Pagamento: Dinheiro na entrega"
		if !p.NoChange && p.ChangeFor.GreaterThan(decimal.Zero) {
			line += "\nTroco para: R$ " + domain.FormatPrice(p.ChangeFor)
		}
		return line
	}
	return "Pagamento: não informado"
}

// formatAddress joins the delivery address into the single comma-separated
// line the establishment reads off the message.
func formatAddress(a domain.Address) string {
	line := a.Street + ", " + a.Number + ", " + a.Neighborhood + ", " + a.City
	if a.Reference != "" {
		line += " - Ref: " + validate.Sanitize(a.Reference)
	}
	return line
}

// handoffURL picks the platform template and percent-encodes the message the
// way browsers do (%20, not '+').
func (c *Composer) handoffURL(text string, mobile bool) string {
	host := webHandoffHost
	if mobile {
		host = mobileHandoffHost
	}
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return host + "/send?phone=" + c.WhatsAppNumber + "&text=" + encoded
}

func greetingFor(now time.Time) (greeting, period string) {
	switch h := now.Hour(); {
	case h < 12:
		return "Bom dia", "dia"
	case h < 18:
		return "Boa tarde", "tarde"
	default:
		return "Boa noite", "noite"
	}
}
