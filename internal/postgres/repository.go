// Package postgres runs the storefront's remote operations directly against
// the Postgres database behind the hosted service, calling the same stored
// procedures the REST interface exposes.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/remote"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RegisterUser(ctx context.Context, in domain.RegisterInput) (domain.AppUser, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT register_user($1::text, $2::text, $3::text, $4::text, $5::text)::text
	`, in.Email, in.Password, in.FullName, remote.Nullable(in.Phone), remote.Nullable(in.Address)).Scan(&raw)
	if err != nil {
		return domain.AppUser{}, mapError(err)
	}
	return remote.DecodeUser(raw)
}

func (r *Repository) AuthenticateUser(ctx context.Context, email, password string) (domain.AppUser, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT authenticate_user($1::text, $2::text)::text
	`, email, password).Scan(&raw)
	if err != nil {
		return domain.AppUser{}, mapError(err)
	}
	return remote.DecodeUser(raw)
}

func (r *Repository) UpdateUserProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.AppUser, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT update_user_profile($1::uuid, $2::text, $3::text, $4::text)::text
	`, userID, remote.NullablePtr(upd.FullName), remote.NullablePtr(upd.Phone), remote.NullablePtr(upd.Address)).Scan(&raw)
	if err != nil {
		return domain.AppUser{}, mapError(err)
	}
	return remote.DecodeUser(raw)
}

func (r *Repository) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	items, err := json.Marshal(req.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal order items: %w", err)
	}

	var raw []byte
	err = r.db.QueryRowContext(ctx, `
		SELECT create_order($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::jsonb, $7::bigint, $8::text)::text
	`,
		remote.Nullable(req.UserID),
		req.CustomerName,
		remote.Nullable(req.CustomerEmail),
		req.CustomerPhone,
		req.CustomerAddress,
		string(items),
		req.TotalAmount,
		remote.Nullable(req.Notes),
	).Scan(&raw)
	if err != nil {
		return domain.Order{}, mapError(err)
	}
	return remote.DecodeOrder(raw)
}

// ListUserOrders loads the orders first and then every line of those orders
// in a single query.
func (r *Repository) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_number, customer_name, COALESCE(customer_email, ''),
		       COALESCE(customer_phone, ''), COALESCE(customer_address, ''),
		       total_amount, status, payment_status, COALESCE(notes, ''), created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order := domain.Order{UserID: userID, Items: []domain.OrderItem{}}
		var status string
		if err := rows.Scan(&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerEmail,
			&order.CustomerPhone, &order.CustomerAddress, &order.TotalAmount, &status,
			&order.PaymentStatus, &order.Notes, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		order.Status = domain.OrderStatus(status)
		if !order.Status.Valid() {
			return nil, domain.Invalid("order.status", "unknown value %q", status)
		}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, oi.quantity, oi.unit_price, oi.total_price,
		       p.id, p.name, COALESCE(p.image, ''), COALESCE(p.unit, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.created_at, oi.id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, mapError(err)
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var (
			orderID string
			item    domain.OrderItem
			pID     sql.NullString
			pName   sql.NullString
			pImage  string
			pUnit   string
		)
		if err := itemRows.Scan(&orderID, &item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.TotalPrice, &pID, &pName, &pImage, &pUnit); err != nil {
			return nil, err
		}
		if pID.Valid {
			item.Product = &domain.ProductSnapshot{ID: pID.String, Name: pName.String, Image: pImage, Unit: pUnit}
		}
		if order, ok := orderMap[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

const productColumns = `
	id, name, COALESCE(description, ''), price, COALESCE(image, ''), COALESCE(category_id, ''),
	tags, available, featured, rating, COALESCE(unit, '')
`

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), COALESCE(icon, ''), display_order, is_active
		FROM categories
		WHERE is_active
		ORDER BY display_order, name
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.DisplayOrder, &c.Active); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p      domain.Product
		tags   pq.StringArray
		rating sql.NullFloat64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.CategoryID,
		&tags, &p.Available, &p.Featured, &rating, &p.Unit); err != nil {
		return domain.Product{}, err
	}
	p.Tags = []string(tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if rating.Valid {
		p.Rating = &rating.Float64
	}
	return p, nil
}

// mapError turns errors raised inside the database into *remote.Error so
// callers classify them the same way regardless of backend.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &remote.Error{
			Code:    string(pqErr.Code),
			Message: pqErr.Message,
			Details: pqErr.Detail,
			Hint:    pqErr.Hint,
		}
	}
	return err
}
