// Package cart owns the per-session cart state: line items, customer profile,
// payment selection and theme. Every read and write goes through the Store;
// every mutation persists before notifying subscribers.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/catalog"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/domain"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/storage"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/validate"
)

const (
	keyCart     = "cart"
	keyCustomer = "customer"
	keyPayment  = "payment"
	keyTheme    = "theme"
	keyPhones   = "phones"

	noteMaxLen  = 200
	labelMaxLen = 50
)

// sessionPhones is the session-scoped slice of the customer profile. It lives
// apart from the durable profile so closing the session drops it.
type sessionPhones struct {
	Phone          string `json:"phone"`
	SecondaryPhone string `json:"secondary_phone,omitempty"`
}

// Store is the sole mutable owner of one session's CartState. Constructed per
// session; nothing here is process-global, so tests run in isolation.
type Store struct {
	catalog catalog.Repository
	durable storage.Store
	session storage.Store
	log     *slog.Logger

	mu        sync.Mutex
	state     domain.CartState
	listeners map[int]func()
	nextID    int
	degraded  bool
}

// NewStore loads any previously persisted state and returns a ready store.
// A failing storage read is logged and treated as empty state: the session
// degrades to in-memory operation instead of crashing.
func NewStore(ctx context.Context, cat catalog.Repository, durable, session storage.Store, log *slog.Logger) *Store {
	s := &Store{
		catalog:   cat,
		durable:   durable,
		session:   session,
		log:       log,
		listeners: make(map[int]func()),
	}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	s.loadJSON(ctx, s.durable, keyCart, &s.state.Items)
	s.loadJSON(ctx, s.durable, keyCustomer, &s.state.Customer)
	s.loadJSON(ctx, s.durable, keyPayment, &s.state.Payment)

	if theme, err := s.durable.Get(ctx, keyTheme); err == nil {
		s.state.Theme = theme
	}

	var phones sessionPhones
	s.loadJSON(ctx, s.session, keyPhones, &phones)
	if s.state.Customer != nil {
		s.state.Customer.Phone = phones.Phone
		s.state.Customer.SecondaryPhone = phones.SecondaryPhone
	}
}

func (s *Store) loadJSON(ctx context.Context, st storage.Store, key string, dst interface{}) {
	raw, err := st.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warn("state load failed, starting empty", "key", key, "error", err)
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Warn("stored state unreadable, starting empty", "key", key, "error", err)
	}
}

// persistLocked writes the full state. Called with the mutex held. After the
// first write failure the store stops persisting for the session and carries
// on in memory.
func (s *Store) persistLocked(ctx context.Context) {
	if s.degraded {
		return
	}
	fail := func(key string, err error) {
		s.log.Error("persist failed, degrading to in-memory state", "key", key, "error", err)
		s.degraded = true
	}

	set := func(st storage.Store, key string, v interface{}) {
		if s.degraded {
			return
		}
		raw, err := json.Marshal(v)
		if err != nil {
			fail(key, err)
			return
		}
		if err := st.Set(ctx, key, string(raw)); err != nil {
			fail(key, err)
		}
	}

	set(s.durable, keyCart, s.state.Items)
	if s.state.Customer != nil {
		set(s.durable, keyCustomer, s.state.Customer.WithoutPhones())
		set(s.session, keyPhones, sessionPhones{
			Phone:          s.state.Customer.Phone,
			SecondaryPhone: s.state.Customer.SecondaryPhone,
		})
	} else if !s.degraded {
		if err := s.durable.Remove(ctx, keyCustomer); err != nil {
			fail(keyCustomer, err)
		}
	}
	if s.state.Payment != nil {
		set(s.durable, keyPayment, s.state.Payment)
	} else if !s.degraded {
		if err := s.durable.Remove(ctx, keyPayment); err != nil {
			fail(keyPayment, err)
		}
	}
	if !s.degraded {
		if err := s.durable.Set(ctx, keyTheme, s.state.Theme); err != nil {
			fail(keyTheme, err)
		}
	}
}

// commitLocked persists, snapshots the listener set and releases the lock
// before notifying, so listeners can re-read the store.
func (s *Store) commitLocked(ctx context.Context) {
	s.persistLocked(ctx)
	ls := make([]func(), 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()
	for _, l := range ls {
		l()
	}
}

// Subscribe registers a listener invoked synchronously after every mutation,
// with no payload: the listener re-reads whatever it needs. The returned
// function unsubscribes.
func (s *Store) Subscribe(listener func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// AddItem appends a new line item built from the referenced catalog item with
// quantity 1. The name and base price are snapshotted; later catalog changes
// do not touch items already in the cart.
func (s *Store) AddItem(ctx context.Context, catalogItemID int64, addOnIDs []string, note, recipientLabel string) (*domain.LineItem, error) {
	item, err := s.catalog.GetItem(ctx, catalogItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, domain.ErrItemUnavailable
	}

	addOns := normalizeAddOns(addOnIDs)
	unit, err := unitPrice(item, addOns)
	if err != nil {
		return nil, err
	}

	li := domain.LineItem{
		ID:             uuid.NewString(),
		CatalogItemID:  item.ID,
		Name:           item.Name,
		BasePrice:      item.Price,
		Quantity:       1,
		AddOnIDs:       addOns,
		Note:           truncate(validate.Sanitize(note), noteMaxLen),
		RecipientLabel: truncate(validate.Sanitize(recipientLabel), labelMaxLen),
		UnitPrice:      unit,
	}

	s.mu.Lock()
	if len(s.state.Items) >= domain.MaxCartItems {
		s.mu.Unlock()
		return nil, domain.ErrCapacityExceeded
	}
	s.state.Items = append(s.state.Items, li)
	s.commitLocked(ctx)

	out := li
	out.AddOnIDs = append([]string(nil), li.AddOnIDs...)
	return &out, nil
}

// normalizeAddOns copies the selection and drops duplicate ids, keeping first
// occurrence order. The selection is a set: an add-on is applied once, never
// charged twice.
func normalizeAddOns(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// unitPrice is the snapshotted base price plus the selected add-ons, resolved
// against the source item's own add-on table.
func unitPrice(item *domain.CatalogItem, addOnIDs []string) (decimal.Decimal, error) {
	sum := item.Price
	for _, id := range addOnIDs {
		a, ok := item.AddOnByID(id)
		if !ok {
			return decimal.Zero, domain.ErrAddOnNotFound
		}
		sum = sum.Add(a.Price)
	}
	return domain.Round2(sum), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// RemoveItem drops the matching line item. A missing id is a no-op, not an
// error.
func (s *Store) RemoveItem(ctx context.Context, lineItemID string) {
	s.mu.Lock()
	for i := range s.state.Items {
		if s.state.Items[i].ID == lineItemID {
			s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
			s.commitLocked(ctx)
			return
		}
	}
	s.mu.Unlock()
}

// SetQuantity changes a line item's quantity. A quantity below 1 removes the
// item; above MaxItemQuantity the call is rejected and the quantity is left
// unchanged.
func (s *Store) SetQuantity(ctx context.Context, lineItemID string, qty int) error {
	if qty > domain.MaxItemQuantity {
		return domain.ErrInvalidQuantity
	}
	if qty < 1 {
		s.RemoveItem(ctx, lineItemID)
		return nil
	}

	s.mu.Lock()
	for i := range s.state.Items {
		if s.state.Items[i].ID == lineItemID {
			s.state.Items[i].Quantity = qty
			s.commitLocked(ctx)
			return nil
		}
	}
	s.mu.Unlock()
	return domain.ErrLineItemNotFound
}

// ItemUpdate carries the optional fields of UpdateItem; nil fields are left
// untouched.
type ItemUpdate struct {
	AddOnIDs       *[]string
	Note           *string
	RecipientLabel *string
}

// UpdateItem patches a line item. When the add-on selection changes, the unit
// price is recomputed against the original catalog item's add-on price table.
func (s *Store) UpdateItem(ctx context.Context, lineItemID string, upd ItemUpdate) error {
	s.mu.Lock()
	idx := -1
	for i := range s.state.Items {
		if s.state.Items[i].ID == lineItemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return domain.ErrLineItemNotFound
	}
	li := s.state.Items[idx]
	s.mu.Unlock()

	if upd.AddOnIDs != nil {
		item, err := s.catalog.GetItem(ctx, li.CatalogItemID)
		if err != nil {
			return err
		}
		addOns := normalizeAddOns(*upd.AddOnIDs)
		unit, err := unitPrice(item, addOns)
		if err != nil {
			return err
		}
		li.AddOnIDs = addOns
		li.UnitPrice = unit
	}
	if upd.Note != nil {
		li.Note = truncate(validate.Sanitize(*upd.Note), noteMaxLen)
	}
	if upd.RecipientLabel != nil {
		li.RecipientLabel = truncate(validate.Sanitize(*upd.RecipientLabel), labelMaxLen)
	}

	s.mu.Lock()
	// the item may have been removed while the catalog was consulted
	for i := range s.state.Items {
		if s.state.Items[i].ID == lineItemID {
			s.state.Items[i] = li
			s.commitLocked(ctx)
			return nil
		}
	}
	s.mu.Unlock()
	return domain.ErrLineItemNotFound
}

// ClearCart empties the line-item sequence, keeping customer and payment.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.state.Items = nil
	s.commitLocked(ctx)
}

// CartTotal sums unit price times quantity over all line items.
func (s *Store) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Total()
}

// ItemCount is the sum of quantities, not the number of line items.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ItemCount()
}

// State returns a deep-enough copy for display: the slice is cloned so
// callers cannot mutate store internals.
func (s *Store) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Items = make([]domain.LineItem, len(s.state.Items))
	for i, li := range s.state.Items {
		li.AddOnIDs = append([]string(nil), li.AddOnIDs...)
		out.Items[i] = li
	}
	if s.state.Customer != nil {
		c := *s.state.Customer
		out.Customer = &c
	}
	if s.state.Payment != nil {
		p := *s.state.Payment
		out.Payment = &p
	}
	return out
}

// SetCustomer overwrites the customer profile. Phones go to session storage;
// the rest is durable.
func (s *Store) SetCustomer(ctx context.Context, p domain.CustomerProfile) error {
	if err := validate.Profile(&p); err != nil {
		return err
	}
	p.Name = validate.CapitalizeName(validate.Sanitize(p.Name))
	s.mu.Lock()
	s.state.Customer = &p
	s.commitLocked(ctx)
	return nil
}

func (s *Store) Customer() *domain.CustomerProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Customer == nil {
		return nil
	}
	c := *s.state.Customer
	return &c
}

// SetPayment stores the payment selection after validating it against the
// current total.
func (s *Store) SetPayment(ctx context.Context, p domain.PaymentSelection) error {
	s.mu.Lock()
	if err := p.Validate(s.state.Total()); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.Payment = &p
	s.commitLocked(ctx)
	return nil
}

func (s *Store) Payment() *domain.PaymentSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Payment == nil {
		return nil
	}
	p := *s.state.Payment
	return &p
}

// SetTheme switches the UI theme ("light" or "dark").
func (s *Store) SetTheme(ctx context.Context, theme string) {
	s.mu.Lock()
	s.state.Theme = theme
	s.commitLocked(ctx)
}

func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Theme
}

// CompleteOrder resets for the next visit: cart and payment are cleared in
// one mutation, the customer profile is retained.
func (s *Store) CompleteOrder(ctx context.Context) {
	s.mu.Lock()
	s.state.Items = nil
	s.state.Payment = nil
	s.commitLocked(ctx)
}
