package checkout

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/cart"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/domain"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/events"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/hours"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/order"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/storage"
)

var testLoc = time.FixedZone("-03", -3*60*60)

// 2026-08-28 is a Friday.
var (
	fridayOpen   = time.Date(2026, 8, 28, 19, 0, 0, 0, testLoc)
	fridayClosed = time.Date(2026, 8, 28, 10, 0, 0, 0, testLoc)
	monday       = time.Date(2026, 8, 31, 12, 0, 0, 0, testLoc)
)

type stubCatalog struct{ items map[int64]domain.CatalogItem }

func newStubCatalog() *stubCatalog {
	return &stubCatalog{items: map[int64]domain.CatalogItem{
		1: {ID: 1, Name: "X-Burguer", Price: decimal.RequireFromString("18.00"), Available: true},
		2: {ID: 2, Name: "Batata Frita", Price: decimal.RequireFromString("5.00"), Available: true},
	}}
}

func (s *stubCatalog) GetAllItems(_ context.Context) ([]domain.CatalogItem, error) {
	out := make([]domain.CatalogItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out, nil
}

func (s *stubCatalog) GetItem(_ context.Context, id int64) (*domain.CatalogItem, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, domain.ErrCatalogItemNotFound
	}
	return &it, nil
}

func (s *stubCatalog) Close() error { return nil }

type capturePublisher struct{ published []events.OrderCompleted }

func (p *capturePublisher) Publish(_ context.Context, ev events.OrderCompleted) error {
	p.published = append(p.published, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type fixture struct {
	pipeline  *Pipeline
	store     *cart.Store
	session   *storage.MemoryStore
	publisher *capturePublisher
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := newStubCatalog()
	session := storage.NewMemoryStore()
	st := cart.NewStore(context.Background(), cat, storage.NewMemoryStore(), session, log)

	f := &fixture{store: st, session: session, publisher: &capturePublisher{}, now: fridayOpen}
	f.pipeline = &Pipeline{
		Schedule:     hours.DefaultSchedule(testLoc),
		MinimumOrder: decimal.RequireFromString("15.00"),
		Composer: &order.Composer{
			BusinessName:   "Kadu Lanches",
			WhatsAppNumber: "5519986021602",
			Catalog:        cat,
		},
		Events: f.publisher,
		Now:    func() time.Time { return f.now },
		Log:    log,
	}
	return f
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.AddItem(ctx, 1, nil, "", "")
	require.NoError(t, err)
	require.NoError(t, f.store.SetCustomer(ctx, domain.CustomerProfile{
		Name:  "Maria de Souza",
		Phone: "11987654321",
		Address: domain.Address{
			Street: "Rua das Flores", Number: "123",
			Neighborhood: "Centro", City: "Campinas",
		},
	}))
	require.NoError(t, f.store.SetPayment(ctx, domain.PaymentSelection{Method: domain.PaymentPix}))
}

func TestBeginGateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// empty cart fails first, even though the total is also below minimum
	_, err := f.pipeline.Begin(f.store)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	// below minimum fails before the hours check, even when closed
	f.now = monday
	_, err = f.store.AddItem(ctx, 2, nil, "", "")
	require.NoError(t, err)
	_, err = f.pipeline.Begin(f.store)
	assert.ErrorIs(t, err, domain.ErrBelowMinimum)
}

func TestBeginOpen(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	d, err := f.pipeline.Begin(f.store)
	require.NoError(t, err)
	assert.True(t, d.Open)
	assert.Nil(t, d.Next)
}

func TestBeginClosedReportsNextWindow(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	f.now = fridayClosed

	d, err := f.pipeline.Begin(f.store)
	require.NoError(t, err)
	assert.False(t, d.Open)
	require.NotNil(t, d.Next)
	assert.Equal(t, "hoje às 18h", d.Next.Label)
}

func TestFinalizeOpen(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	composed, err := f.pipeline.Finalize(ctx, f.store, f.session, true)
	require.NoError(t, err)
	assert.Contains(t, composed.Text, "Pedido Kadu Lanches")
	assert.NotContains(t, composed.Text, "ESTABELECIMENTO FECHADO")
	assert.True(t, strings.HasPrefix(composed.HandoffURL, "https://api.whatsapp.com/send?phone=5519986021602"))

	// cart reset, customer retained
	assert.Empty(t, f.store.State().Items)
	assert.Nil(t, f.store.Payment())
	assert.NotNil(t, f.store.Customer())

	require.Len(t, f.publisher.published, 1)
	ev := f.publisher.published[0]
	assert.Equal(t, "Maria de Souza", ev.CustomerName)
	assert.Equal(t, "18.00", ev.Total)
	assert.Equal(t, "pix", ev.Method)
	assert.False(t, ev.Scheduled)
}

func TestFinalizeMissingPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.Finalize(ctx, f.store, f.session, false)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	_, err = f.store.AddItem(ctx, 1, nil, "", "")
	require.NoError(t, err)
	_, err = f.pipeline.Finalize(ctx, f.store, f.session, false)
	assert.ErrorIs(t, err, domain.ErrNoCustomer)

	require.NoError(t, f.store.SetCustomer(ctx, domain.CustomerProfile{
		Name:  "Maria de Souza",
		Phone: "11987654321",
		Address: domain.Address{
			Street: "Rua das Flores", Number: "123",
			Neighborhood: "Centro", City: "Campinas",
		},
	}))
	_, err = f.pipeline.Finalize(ctx, f.store, f.session, false)
	assert.ErrorIs(t, err, domain.ErrNoPayment)
}

func TestFinalizeClosedWithoutMarker(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	f.now = monday

	_, err := f.pipeline.Finalize(context.Background(), f.store, f.session, false)
	assert.ErrorIs(t, err, domain.ErrOutsideHours)
	assert.Len(t, f.store.State().Items, 1, "rejected checkout leaves the cart untouched")
	assert.Empty(t, f.publisher.published)
}

func TestAcknowledgeDecline(t *testing.T) {
	f := newFixture(t)
	f.now = monday
	ctx := context.Background()

	err := f.pipeline.Acknowledge(ctx, f.session, false)
	assert.ErrorIs(t, err, domain.ErrOutsideHours)

	_, err = f.session.Get(ctx, markerKey)
	assert.ErrorIs(t, err, storage.ErrNotFound, "declining writes nothing")
}

func TestScheduledOrderFlow(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	f.now = monday
	ctx := context.Background()

	require.NoError(t, f.pipeline.Acknowledge(ctx, f.session, true))

	composed, err := f.pipeline.Finalize(ctx, f.store, f.session, true)
	require.NoError(t, err)
	assert.Contains(t, composed.Text, "ESTABELECIMENTO FECHADO")
	assert.Contains(t, composed.Text, "próxima sexta-feira às 18h")

	require.Len(t, f.publisher.published, 1)
	assert.True(t, f.publisher.published[0].Scheduled)

	// the marker is single-use: a second closed-hours checkout needs consent again
	f.fillCart(t)
	_, err = f.pipeline.Finalize(ctx, f.store, f.session, true)
	assert.ErrorIs(t, err, domain.ErrOutsideHours)
}

func TestFinalizeRevalidatesPayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	// cash with change that covered the old total, then the cart grows past it
	require.NoError(t, f.store.SetPayment(ctx, domain.PaymentSelection{
		Method:    domain.PaymentCash,
		ChangeFor: decimal.RequireFromString("20.00"),
	}))
	li, err := f.store.AddItem(ctx, 1, nil, "", "")
	require.NoError(t, err)
	require.NoError(t, f.store.SetQuantity(ctx, li.ID, 2)) // total 54.00

	_, err = f.pipeline.Finalize(ctx, f.store, f.session, false)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
