package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	orderHistoryColumns = "*,order_items(*,products(id,name,image,unit))"
)

// Backend maps the storefront's remote operations onto PostgREST calls.
type Backend struct {
	client *Client
}

func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

type registerParams struct {
	Email    string  `json:"p_email"`
	Password string  `json:"p_password"`
	FullName string  `json:"p_full_name"`
	Phone    *string `json:"p_phone"`
	Address  *string `json:"p_address"`
}

func (b *Backend) RegisterUser(ctx context.Context, in domain.RegisterInput) (domain.AppUser, error) {
	raw, err := b.client.RPC(ctx, "register_user", registerParams{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		Phone:    Nullable(in.Phone),
		Address:  Nullable(in.Address),
	})
	if err != nil {
		return domain.AppUser{}, err
	}
	return DecodeUser(raw)
}

type authenticateParams struct {
	Email    string `json:"p_email"`
	Password string `json:"p_password"`
}

func (b *Backend) AuthenticateUser(ctx context.Context, email, password string) (domain.AppUser, error) {
	raw, err := b.client.RPC(ctx, "authenticate_user", authenticateParams{Email: email, Password: password})
	if err != nil {
		return domain.AppUser{}, err
	}
	return DecodeUser(raw)
}

type updateProfileParams struct {
	UserID   string  `json:"p_user_id"`
	FullName *string `json:"p_full_name"`
	Phone    *string `json:"p_phone"`
	Address  *string `json:"p_address"`
}

func (b *Backend) UpdateUserProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.AppUser, error) {
	raw, err := b.client.RPC(ctx, "update_user_profile", updateProfileParams{
		UserID:   userID,
		FullName: NullablePtr(upd.FullName),
		Phone:    NullablePtr(upd.Phone),
		Address:  NullablePtr(upd.Address),
	})
	if err != nil {
		return domain.AppUser{}, err
	}
	return DecodeUser(raw)
}

func (b *Backend) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	raw, err := b.client.From("orders").
		Select(orderHistoryColumns).
		Eq("user_id", userID).
		Order("created_at", false).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeOrders(raw)
}

type createOrderParams struct {
	UserID          *string         `json:"p_user_id"`
	CustomerName    string          `json:"p_customer_name"`
	CustomerEmail   *string         `json:"p_customer_email"`
	CustomerPhone   string          `json:"p_customer_phone"`
	CustomerAddress string          `json:"p_customer_address"`
	OrderItems      json.RawMessage `json:"p_order_items"`
	TotalAmount     int64           `json:"p_total_amount"`
	Notes           *string         `json:"p_notes"`
}

func (b *Backend) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	items, err := json.Marshal(req.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal order items: %w", err)
	}

	raw, err := b.client.RPC(ctx, "create_order", createOrderParams{
		UserID:          Nullable(req.UserID),
		CustomerName:    req.CustomerName,
		CustomerEmail:   Nullable(req.CustomerEmail),
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		OrderItems:      items,
		TotalAmount:     req.TotalAmount,
		Notes:           Nullable(req.Notes),
	})
	if err != nil {
		return domain.Order{}, err
	}
	return DecodeOrder(raw)
}

func (b *Backend) ListProducts(ctx context.Context) ([]domain.Product, error) {
	raw, err := b.client.From("products").Select("*").Order("name", true).Execute(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeProducts(raw)
}

// GetProduct returns nil without error when no product has the id.
func (b *Backend) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	raw, err := b.client.From("products").Select("*").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return nil, err
	}
	products, err := DecodeProducts(raw)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

func (b *Backend) ListCategories(ctx context.Context) ([]domain.Category, error) {
	raw, err := b.client.From("categories").
		Select("*").
		Eq("is_active", "true").
		Order("display_order", true).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeCategories(raw)
}

// Nullable maps blank optional input to SQL NULL.
func Nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NullablePtr treats both nil and a blank string as "leave unchanged".
func NullablePtr(s *string) *string {
	if s == nil {
		return nil
	}
	return Nullable(*s)
}
