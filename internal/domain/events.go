package domain

import "time"

// OrderPlacedEvent is published after the remote store accepted an order.
// Delivery is best effort; consumers must not assume they see every order.
type OrderPlacedEvent struct {
	OrderNumber   string    `json:"order_number"`
	UserID        string    `json:"user_id,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	TotalAmount   int64     `json:"total_amount"`
	ItemCount     int       `json:"item_count"`
	Message       string    `json:"message"`
	DeepLink      string    `json:"deep_link"`
	Timestamp     time.Time `json:"timestamp"`
}
