// Package checkout turns a visitor's cart into a remote order and prepares
// the messaging hand-off that tells the business about it.
package checkout

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const (
	DefaultBusinessNumber = "256741068782"
	launchTimeout         = 10 * time.Second

	msgOrderFailed = "Failed to create order. Please try again."
)

// OrderCreator is the remote order creation procedure.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
}

type Config struct {
	BusinessNumber string
	StoreName      string
	Currency       string
	Location       *time.Location
	RequireLogin   bool
}

// Receipt is what the visitor gets back after a successful checkout.
type Receipt struct {
	OrderNumber string       `json:"order_number"`
	TotalAmount int64        `json:"total_amount"`
	Message     string       `json:"message"`
	DeepLink    string       `json:"deep_link"`
	Order       domain.Order `json:"order"`
}

type Option func(*Flow)

func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

type Flow struct {
	creator  OrderCreator
	launcher Launcher
	renderer *Renderer
	cfg      Config
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	now      func() time.Time

	launches sync.WaitGroup
}

// NewFlow builds a checkout flow. A nil creator means the remote store is
// not configured.
func NewFlow(creator OrderCreator, launcher Launcher, cfg Config, metrics *telemetry.Metrics, logger *slog.Logger, opts ...Option) *Flow {
	if cfg.BusinessNumber == "" {
		cfg.BusinessNumber = DefaultBusinessNumber
	}
	if launcher == nil {
		launcher = NewLogLauncher(logger)
	}
	f := &Flow{
		creator:  creator,
		launcher: launcher,
		renderer: NewRenderer(cfg.StoreName, cfg.Currency, cfg.Location),
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) Renderer() *Renderer {
	return f.renderer
}

func (f *Flow) ContactLink() string {
	return ContactLink(f.cfg.BusinessNumber)
}

// Submit places the cart as an order. Nothing is sent and the cart is left
// untouched unless validation passes; the ordered lines leave the cart only
// once the remote store has accepted the order. user may be nil for guest checkout.
func (f *Flow) Submit(ctx context.Context, c *cart.Cart, user *domain.AppUser, info domain.CustomerInfo) (*Receipt, error) {
	lines := c.Lines()
	info = fillFromProfile(info, user)

	if err := f.validate(lines, user, info); err != nil {
		f.metrics.OrderFailed(ctx, "validation")
		return nil, err
	}
	if f.creator == nil {
		f.metrics.OrderFailed(ctx, "unavailable")
		return nil, domain.NewError(domain.ErrServiceUnavailable,
			"Database connection required. Please configure the store backend first.", nil)
	}

	req := buildRequest(lines, user, info)

	order, err := f.creator.CreateOrder(ctx, req)
	if err != nil {
		f.logger.Error("failed to create order", "error", err, "customer_phone", info.Phone)
		f.metrics.OrderFailed(ctx, "remote")
		return nil, domain.NewError(domain.ErrOrderCreationFailed, msgOrderFailed, err)
	}

	placedAt := f.now()
	message := f.renderer.Render(order.OrderNumber, placedAt, info, lines)
	link := DeepLink(f.cfg.BusinessNumber, message)

	f.launch(ctx, domain.OrderPlacedEvent{
		OrderNumber:   order.OrderNumber,
		UserID:        req.UserID,
		CustomerName:  info.Name,
		CustomerPhone: info.Phone,
		TotalAmount:   req.TotalAmount,
		ItemCount:     len(lines),
		Message:       message,
		DeepLink:      link,
		Timestamp:     placedAt.UTC(),
	})

	c.RemoveLines(lines)
	f.metrics.OrderPlaced(ctx)
	f.logger.Info("order placed", "order_number", order.OrderNumber, "total_amount", req.TotalAmount, "items", len(lines))

	return &Receipt{
		OrderNumber: order.OrderNumber,
		TotalAmount: req.TotalAmount,
		Message:     message,
		DeepLink:    link,
		Order:       order,
	}, nil
}

// Wait blocks until every pending hand-off has finished.
func (f *Flow) Wait() {
	f.launches.Wait()
}

func (f *Flow) launch(ctx context.Context, event domain.OrderPlacedEvent) {
	ctx = context.WithoutCancel(ctx)
	f.launches.Add(1)
	go func() {
		defer f.launches.Done()
		ctx, cancel := context.WithTimeout(ctx, launchTimeout)
		defer cancel()
		if err := f.launcher.Launch(ctx, event); err != nil {
			f.metrics.HandoffFailed(ctx)
			f.logger.Error("order hand-off failed", "error", err, "order_number", event.OrderNumber)
		}
	}()
}

func (f *Flow) validate(lines []domain.CartLine, user *domain.AppUser, info domain.CustomerInfo) error {
	if len(lines) == 0 {
		return domain.Invalid("cart", "is empty")
	}
	if f.cfg.RequireLogin && user == nil {
		return domain.NewError(domain.ErrNotAuthenticated, "Please log in to place an order", nil)
	}
	if info.Name == "" {
		return domain.Invalid("name", "Please enter your name")
	}
	if info.Phone == "" {
		return domain.Invalid("phone", "Please enter your phone number")
	}
	if info.Address == "" {
		return domain.Invalid("address", "Please enter your delivery address")
	}
	return nil
}

// fillFromProfile trims the entered fields and falls back to the logged-in
// user's profile for any left blank.
func fillFromProfile(info domain.CustomerInfo, user *domain.AppUser) domain.CustomerInfo {
	info = domain.CustomerInfo{
		Name:    strings.TrimSpace(info.Name),
		Email:   strings.TrimSpace(info.Email),
		Phone:   strings.TrimSpace(info.Phone),
		Address: strings.TrimSpace(info.Address),
		Notes:   strings.TrimSpace(info.Notes),
	}
	if user == nil {
		return info
	}
	if info.Name == "" {
		info.Name = user.FullName
	}
	if info.Email == "" {
		info.Email = user.Email
	}
	if info.Phone == "" {
		info.Phone = user.Phone
	}
	if info.Address == "" {
		info.Address = user.Address
	}
	return info
}

func buildRequest(lines []domain.CartLine, user *domain.AppUser, info domain.CustomerInfo) domain.OrderRequest {
	req := domain.OrderRequest{
		CustomerName:    info.Name,
		CustomerEmail:   info.Email,
		CustomerPhone:   info.Phone,
		CustomerAddress: info.Address,
		Notes:           info.Notes,
		Items:           make([]domain.OrderRequestItem, 0, len(lines)),
	}
	if user != nil {
		req.UserID = user.ID
	}
	for _, line := range lines {
		item := domain.OrderRequestItem{
			ProductID:  line.Product.ID,
			Quantity:   line.Quantity,
			UnitPrice:  line.Product.Price,
			TotalPrice: line.Subtotal(),
		}
		req.TotalAmount += item.TotalPrice
		req.Items = append(req.Items, item)
	}
	return req
}
