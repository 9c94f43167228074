package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// The decoders below are the only way remote payloads become domain values.
// A payload missing required fields or carrying unknown enum values is
// rejected with a *domain.ValidationError instead of being partially used.

// amount accepts integer JSON numbers and floats without a fractional part,
// since numeric columns may be rendered as 5000.0.
type amount int64

func (a *amount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*a = amount(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("not a whole currency amount: %s", s)
	}
	*a = amount(f)
	return nil
}

type userRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (r userRecord) toDomain() (domain.AppUser, error) {
	if r.ID == "" {
		return domain.AppUser{}, domain.Invalid("user.id", "missing in response")
	}
	if r.Email == "" {
		return domain.AppUser{}, domain.Invalid("user.email", "missing in response")
	}
	u := domain.AppUser{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName,
		Phone:     deref(r.Phone),
		Address:   deref(r.Address),
		Active:    r.IsActive == nil || *r.IsActive,
		CreatedAt: r.CreatedAt,
	}
	return u, nil
}

type snapshotRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Unit  string `json:"unit"`
}

type orderItemRecord struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  amount          `json:"unit_price"`
	TotalPrice amount          `json:"total_price"`
	Products   *snapshotRecord `json:"products"`
}

type orderRecord struct {
	ID              string            `json:"id"`
	OrderNumber     string            `json:"order_number"`
	UserID          *string           `json:"user_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   *string           `json:"customer_email"`
	CustomerPhone   *string           `json:"customer_phone"`
	CustomerAddress *string           `json:"customer_address"`
	TotalAmount     amount            `json:"total_amount"`
	Status          string            `json:"status"`
	PaymentStatus   *string           `json:"payment_status"`
	Notes           *string           `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	OrderItems      []orderItemRecord `json:"order_items"`
}

func (r orderRecord) toDomain() (domain.Order, error) {
	if r.ID == "" {
		return domain.Order{}, domain.Invalid("order.id", "missing in response")
	}
	if r.OrderNumber == "" {
		return domain.Order{}, domain.Invalid("order.order_number", "missing in response")
	}
	status := domain.OrderStatus(r.Status)
	if !status.Valid() {
		return domain.Order{}, domain.Invalid("order.status", "unknown value %q", r.Status)
	}

	o := domain.Order{
		ID:              r.ID,
		OrderNumber:     r.OrderNumber,
		UserID:          deref(r.UserID),
		CustomerName:    r.CustomerName,
		CustomerEmail:   deref(r.CustomerEmail),
		CustomerPhone:   deref(r.CustomerPhone),
		CustomerAddress: deref(r.CustomerAddress),
		TotalAmount:     int64(r.TotalAmount),
		Status:          status,
		PaymentStatus:   deref(r.PaymentStatus),
		Notes:           deref(r.Notes),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Items:           make([]domain.OrderItem, 0, len(r.OrderItems)),
	}

	for _, it := range r.OrderItems {
		if it.ProductID == "" || it.Quantity < 1 {
			return domain.Order{}, domain.Invalid("order.order_items", "malformed line in order %s", r.OrderNumber)
		}
		item := domain.OrderItem{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  int64(it.UnitPrice),
			TotalPrice: int64(it.TotalPrice),
		}
		if it.Products != nil {
			item.Product = &domain.ProductSnapshot{
				ID:    it.Products.ID,
				Name:  it.Products.Name,
				Image: it.Products.Image,
				Unit:  it.Products.Unit,
			}
		}
		o.Items = append(o.Items, item)
	}
	return o, nil
}

type productRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       *amount  `json:"price"`
	Image       *string  `json:"image"`
	CategoryID  *string  `json:"category_id"`
	Tags        []string `json:"tags"`
	Available   *bool    `json:"available"`
	Featured    bool     `json:"featured"`
	Rating      *float64 `json:"rating"`
	Unit        *string  `json:"unit"`
}

func (r productRecord) toDomain() (domain.Product, error) {
	if r.ID == "" || r.Name == "" {
		return domain.Product{}, domain.Invalid("product", "id and name are required")
	}
	if r.Price == nil || *r.Price < 0 {
		return domain.Product{}, domain.Invalid("product.price", "missing or negative for %s", r.ID)
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: deref(r.Description),
		Price:       int64(*r.Price),
		Image:       deref(r.Image),
		CategoryID:  deref(r.CategoryID),
		Tags:        tags,
		Available:   r.Available == nil || *r.Available,
		Featured:    r.Featured,
		Rating:      r.Rating,
		Unit:        deref(r.Unit),
	}, nil
}

type categoryRecord struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Icon         *string `json:"icon"`
	DisplayOrder int     `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

func (r categoryRecord) toDomain() (domain.Category, error) {
	if r.ID == "" || r.Name == "" {
		return domain.Category{}, domain.Invalid("category", "id and name are required")
	}
	return domain.Category{
		ID:           r.ID,
		Name:         r.Name,
		Description:  deref(r.Description),
		Icon:         deref(r.Icon),
		DisplayOrder: r.DisplayOrder,
		Active:       r.IsActive == nil || *r.IsActive,
	}, nil
}

// DecodeUser accepts either a bare object or a one-element array, since
// set-returning procedures answer with arrays.
func DecodeUser(raw []byte) (domain.AppUser, error) {
	var rec userRecord
	if err := decodeOne(raw, &rec); err != nil {
		return domain.AppUser{}, err
	}
	return rec.toDomain()
}

func DecodeOrder(raw []byte) (domain.Order, error) {
	var rec orderRecord
	if err := decodeOne(raw, &rec); err != nil {
		return domain.Order{}, err
	}
	return rec.toDomain()
}

func DecodeOrders(raw []byte) ([]domain.Order, error) {
	var recs []orderRecord
	if err := decodeMany(raw, &recs); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(recs))
	for _, rec := range recs {
		o, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func DecodeProducts(raw []byte) ([]domain.Product, error) {
	var recs []productRecord
	if err := decodeMany(raw, &recs); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(recs))
	for _, rec := range recs {
		p, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func DecodeCategories(raw []byte) ([]domain.Category, error) {
	var recs []categoryRecord
	if err := decodeMany(raw, &recs); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(recs))
	for _, rec := range recs {
		c, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeOne(raw []byte, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return domain.Invalid("", "malformed response: %v", err)
		}
		if len(items) != 1 {
			return domain.Invalid("", "expected one record, got %d", len(items))
		}
		raw = items[0]
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.Invalid("", "empty response")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.Invalid("", "malformed response: %v", err)
	}
	return nil
}

func decodeMany(raw []byte, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("[]")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.Invalid("", "malformed response: %v", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
