// Package checkout drives the order pipeline: precondition gates, the
// business-hours consent step, and the final compose-and-reset. Preconditions
// are checked in a fixed order — non-empty cart, minimum total, business
// hours — and a rejected gate leaves every piece of state untouched.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/cart"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/domain"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/events"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/hours"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/order"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/storage"
)

const markerKey = "scheduled_order"

// Marker records that the customer accepted deferred fulfillment. It is
// session-scoped and single-use: composing the order consumes it.
type Marker struct {
	Scheduled           bool      `json:"scheduled"`
	DeliveryWindowLabel string    `json:"delivery_window_label"`
	CreatedAt           time.Time `json:"created_at"`
}

// Decision is the outcome of the gate checks when they pass: either the
// establishment is open, or the order needs consent to be scheduled for Next.
type Decision struct {
	Open bool
	Next *hours.NextWindow
}

// Pipeline wires the gates to the composer. Now is the injected clock; every
// time-sensitive decision goes through it.
type Pipeline struct {
	Schedule     *hours.Schedule
	MinimumOrder decimal.Decimal
	Composer     *order.Composer
	Events       events.Publisher
	Now          func() time.Time
	Log          *slog.Logger
}

// Begin runs the precondition gates for a cart about to enter checkout.
// Order: non-empty cart, minimum total, business hours. The first two fail
// with their sentinel; the hours gate never fails here — it reports the next
// window so the caller can ask for scheduling consent.
func (p *Pipeline) Begin(st *cart.Store) (Decision, error) {
	state := st.State()
	if len(state.Items) == 0 {
		return Decision{}, domain.ErrEmptyCart
	}
	if state.Total().LessThan(p.MinimumOrder) {
		return Decision{}, domain.ErrBelowMinimum
	}

	now := p.Now()
	if p.Schedule.IsOpen(now) {
		return Decision{Open: true}, nil
	}
	next, ok := p.Schedule.Next(now)
	if !ok {
		// schedule with no open days; treat as a plain closed signal
		return Decision{}, domain.ErrOutsideHours
	}
	return Decision{Open: false, Next: &next}, nil
}

// Acknowledge records the customer's answer to the scheduling consent prompt.
// Accepting persists the marker; declining aborts with no state change.
func (p *Pipeline) Acknowledge(ctx context.Context, session storage.Store, accept bool) error {
	if !accept {
		return domain.ErrOutsideHours
	}
	next, ok := p.Schedule.Next(p.Now())
	if !ok {
		return domain.ErrOutsideHours
	}
	m := Marker{Scheduled: true, DeliveryWindowLabel: next.Label, CreatedAt: p.Now()}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal scheduling marker: %w", err)
	}
	if err := session.Set(ctx, markerKey, string(raw)); err != nil {
		return fmt.Errorf("persist scheduling marker: %w", err)
	}
	return nil
}

// consumeMarker reads and deletes the scheduling marker, returning the
// stored window label ("" when no order was scheduled).
func (p *Pipeline) consumeMarker(ctx context.Context, session storage.Store) string {
	raw, err := session.Get(ctx, markerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return ""
	}
	if err != nil {
		p.Log.Warn("scheduling marker unreadable", "error", err)
		return ""
	}
	var m Marker
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		p.Log.Warn("scheduling marker corrupt, ignoring", "error", err)
	}
	if err := session.Remove(ctx, markerKey); err != nil {
		p.Log.Warn("scheduling marker not deleted", "error", err)
	}
	if !m.Scheduled {
		return ""
	}
	return m.DeliveryWindowLabel
}

// Finalize re-runs the gates, composes the order message and resets the cart
// for the next visit. Outside business hours it requires a previously
// acknowledged scheduling marker. The handoff itself — opening the URL — is
// the caller's side effect.
func (p *Pipeline) Finalize(ctx context.Context, st *cart.Store, session storage.Store, mobile bool) (*order.Composed, error) {
	state := st.State()
	if len(state.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	total := state.Total()
	if total.LessThan(p.MinimumOrder) {
		return nil, domain.ErrBelowMinimum
	}
	if state.Customer == nil {
		return nil, domain.ErrNoCustomer
	}
	if state.Payment == nil {
		return nil, domain.ErrNoPayment
	}
	if err := state.Payment.Validate(total); err != nil {
		return nil, err
	}

	now := p.Now()
	window := p.consumeMarker(ctx, session)
	if !p.Schedule.IsOpen(now) && window == "" {
		return nil, domain.ErrOutsideHours
	}

	composed, err := p.Composer.Compose(ctx, order.Input{
		Customer:        *state.Customer,
		Payment:         *state.Payment,
		Items:           state.Items,
		Total:           total,
		ScheduledWindow: window,
		Mobile:          mobile,
		Now:             now.In(p.Schedule.Location),
	})
	if err != nil {
		return nil, err
	}

	p.publish(ctx, &state, total, window != "")
	st.CompleteOrder(ctx)
	return composed, nil
}

// publish emits the order-completed event. Fire and forget: a missing or
// failing broker never blocks the handoff.
func (p *Pipeline) publish(ctx context.Context, state *domain.CartState, total decimal.Decimal, scheduled bool) {
	if p.Events == nil {
		return
	}
	ev := events.OrderCompleted{
		CustomerName: state.Customer.Name,
		City:         state.Customer.Address.City,
		Method:       string(state.Payment.Method),
		Total:        total.StringFixed(2),
		ItemCount:    state.ItemCount(),
		Scheduled:    scheduled,
		CompletedAt:  p.Now(),
	}
	if err := p.Events.Publish(ctx, ev); err != nil {
		p.Log.Warn("order event not published", "error", err)
	}
}
