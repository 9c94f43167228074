package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeCreator struct {
	number string
	err    error
	calls  int
	last   domain.OrderRequest
	// during runs while the order is being created.
	during func()
}

func (f *fakeCreator) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.Order, error) {
	f.calls++
	f.last = req
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return domain.Order{ID: "o-1", OrderNumber: f.number, Status: domain.OrderStatusPending, TotalAmount: req.TotalAmount}, nil
}

type recordingLauncher struct {
	mu     sync.Mutex
	events []domain.OrderPlacedEvent
	err    error
}

func (l *recordingLauncher) Launch(_ context.Context, e domain.OrderPlacedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return l.err
}

func (l *recordingLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

var (
	productA = domain.Product{ID: "a", Name: "Tomatoes", Price: 1000, Unit: "kg", Tags: []string{"fresh", "salad"}}
	productB = domain.Product{ID: "b", Name: "Matooke", Price: 2500, Unit: "bunch", Tags: []string{"staple"}}
	placedAt = time.Date(2024, 1, 15, 14, 5, 0, 0, time.UTC)
	guest    = domain.CustomerInfo{Name: "Ann", Phone: "0700 000000", Address: "Plot 4, Kampala Road"}
)

func newFlow(creator OrderCreator, launcher Launcher, cfg Config) *Flow {
	if cfg.StoreName == "" {
		cfg.StoreName = "M.A Online Store"
	}
	if cfg.Currency == "" {
		cfg.Currency = "UGX"
	}
	return NewFlow(creator, launcher, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return placedAt }))
}

func filledCart() *cart.Cart {
	c := cart.New()
	c.AddItem(productA, 2)
	c.AddItem(productB, 1)
	return c
}

func TestSubmit_Success(t *testing.T) {
	creator := &fakeCreator{number: "ORD-0001"}
	launcher := &recordingLauncher{}
	flow := newFlow(creator, launcher, Config{})
	c := filledCart()

	receipt, err := flow.Submit(context.Background(), c, nil, guest)
	require.NoError(t, err)
	flow.Wait()

	assert.Equal(t, "ORD-0001", receipt.OrderNumber)
	assert.Equal(t, int64(4500), receipt.TotalAmount)
	assert.Contains(t, receipt.Message, "\nOrder #: *ORD-0001*\n")
	assert.Contains(t, receipt.Message, "Total Items: 2\n")
	assert.Contains(t, receipt.Message, "Total Quantity: 3 units\n")
	assert.Contains(t, receipt.Message, "*Total Amount: UGX 4,500*")

	require.True(t, strings.HasPrefix(receipt.DeepLink, "https://wa.me/256741068782?text="))
	encoded := strings.TrimPrefix(receipt.DeepLink, "https://wa.me/256741068782?text=")
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, " ")
	decoded, err := url.PathUnescape(encoded)
	require.NoError(t, err)
	assert.Equal(t, receipt.Message, decoded)

	assert.True(t, c.IsEmpty())

	require.Equal(t, 1, creator.calls)
	req := creator.last
	assert.Empty(t, req.UserID)
	assert.Equal(t, int64(4500), req.TotalAmount)
	assert.Equal(t, []domain.OrderRequestItem{
		{ProductID: "a", Quantity: 2, UnitPrice: 1000, TotalPrice: 2000},
		{ProductID: "b", Quantity: 1, UnitPrice: 2500, TotalPrice: 2500},
	}, req.Items)

	require.Equal(t, 1, launcher.count())
	event := launcher.events[0]
	assert.Equal(t, "ORD-0001", event.OrderNumber)
	assert.Equal(t, 2, event.ItemCount)
	assert.Equal(t, receipt.DeepLink, event.DeepLink)
}

func TestSubmit_MissingPhoneMakesNoRemoteCall(t *testing.T) {
	creator := &fakeCreator{number: "ORD-0001"}
	launcher := &recordingLauncher{}
	flow := newFlow(creator, launcher, Config{})
	c := filledCart()
	before := c.Lines()

	info := guest
	info.Phone = "   "
	_, err := flow.Submit(context.Background(), c, nil, info)
	flow.Wait()

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "phone", verr.Field)
	assert.Zero(t, creator.calls)
	assert.Zero(t, launcher.count())
	assert.Equal(t, before, c.Lines())
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cart  *cart.Cart
		info  domain.CustomerInfo
		field string
	}{
		{"empty cart", cart.New(), guest, "cart"},
		{"missing name", filledCart(), domain.CustomerInfo{Phone: "0700", Address: "Kampala"}, "name"},
		{"missing address", filledCart(), domain.CustomerInfo{Name: "Ann", Phone: "0700"}, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &fakeCreator{number: "ORD-1"}
			flow := newFlow(creator, &recordingLauncher{}, Config{})

			_, err := flow.Submit(context.Background(), tt.cart, nil, tt.info)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, creator.calls)
		})
	}
}

func TestSubmit_RemoteFailureKeepsCart(t *testing.T) {
	creator := &fakeCreator{err: errors.New("network unreachable")}
	launcher := &recordingLauncher{}
	flow := newFlow(creator, launcher, Config{})
	c := filledCart()

	receipt, err := flow.Submit(context.Background(), c, nil, guest)
	flow.Wait()

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, domain.ErrOrderCreationFailed)
	assert.Equal(t, msgOrderFailed, err.Error())
	assert.Equal(t, int64(4500), c.TotalPrice())
	assert.Equal(t, 2, c.TotalItems())
	assert.Zero(t, launcher.count())
}

func TestSubmit_KeepsLinesAddedDuringCreation(t *testing.T) {
	c := filledCart()
	late := domain.Product{ID: "late", Name: "Mangoes", Price: 500, Unit: "kg"}
	creator := &fakeCreator{number: "ORD-2", during: func() {
		c.AddItem(late, 1)
		c.AddItem(productA, 3)
	}}
	flow := newFlow(creator, &recordingLauncher{}, Config{})

	receipt, err := flow.Submit(context.Background(), c, nil, guest)
	require.NoError(t, err)
	flow.Wait()

	assert.Equal(t, int64(4500), receipt.TotalAmount)
	assert.Equal(t, 1, c.Quantity("late"))
	assert.Equal(t, 3, c.Quantity(productA.ID))
	assert.Zero(t, c.Quantity(productB.ID))
	assert.Equal(t, 2, c.TotalItems())
}

func TestSubmit_NotConfigured(t *testing.T) {
	flow := newFlow(nil, &recordingLauncher{}, Config{})
	c := filledCart()

	_, err := flow.Submit(context.Background(), c, nil, guest)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.False(t, c.IsEmpty())
}

func TestSubmit_UsesProfileForBlankFields(t *testing.T) {
	creator := &fakeCreator{number: "ORD-7"}
	flow := newFlow(creator, &recordingLauncher{}, Config{})
	user := &domain.AppUser{ID: "u-1", Email: "ann@example.com", FullName: "Ann N", Phone: "0700", Address: "Ntinda"}

	receipt, err := flow.Submit(context.Background(), filledCart(), user, domain.CustomerInfo{Address: "Kololo"})
	require.NoError(t, err)
	flow.Wait()

	assert.Equal(t, "u-1", creator.last.UserID)
	assert.Equal(t, "Ann N", creator.last.CustomerName)
	assert.Equal(t, "ann@example.com", creator.last.CustomerEmail)
	assert.Equal(t, "0700", creator.last.CustomerPhone)
	assert.Equal(t, "Kololo", creator.last.CustomerAddress)
	assert.Contains(t, receipt.Message, "Email: ann@example.com\n")
}

func TestSubmit_RequireLogin(t *testing.T) {
	creator := &fakeCreator{number: "ORD-1"}
	flow := newFlow(creator, &recordingLauncher{}, Config{RequireLogin: true})

	_, err := flow.Submit(context.Background(), filledCart(), nil, guest)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Zero(t, creator.calls)
}

func TestSubmit_HandoffFailureDoesNotFailOrder(t *testing.T) {
	launcher := &recordingLauncher{err: errors.New("broker down")}
	flow := newFlow(&fakeCreator{number: "ORD-9"}, launcher, Config{})
	c := filledCart()

	receipt, err := flow.Submit(context.Background(), c, nil, guest)
	flow.Wait()

	require.NoError(t, err)
	assert.Equal(t, "ORD-9", receipt.OrderNumber)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 1, launcher.count())
}

func TestSubmit_CustomBusinessNumber(t *testing.T) {
	flow := newFlow(&fakeCreator{number: "ORD-1"}, &recordingLauncher{}, Config{BusinessNumber: "15550001111"})

	receipt, err := flow.Submit(context.Background(), filledCart(), nil, guest)
	require.NoError(t, err)
	flow.Wait()

	assert.True(t, strings.HasPrefix(receipt.DeepLink, "https://wa.me/15550001111?text="))
	assert.Equal(t, "https://wa.me/15550001111?text=Hello!%20I%20need%20help%20choosing%20the%20right%20food%20products.", flow.ContactLink())
}
