// Package cart holds a visitor's shopping cart: an insertion-ordered list of
// product lines with totals derived on every read.
package cart

import (
	"sync"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// MaxQuantity caps a single line. Adds past it saturate.
const MaxQuantity = 10000

// Cart never holds two lines for the same product id and never holds a line
// with a quantity below one or above MaxQuantity.
type Cart struct {
	mu    sync.Mutex
	lines []domain.CartLine
}

func New() *Cart {
	return &Cart{}
}

// AddItem merges into the existing line for product.ID or appends a new one.
// A non-positive quantity leaves the cart untouched; the merged quantity is
// capped at MaxQuantity.
func (c *Cart) AddItem(product domain.Product, quantity int) {
	if quantity < 1 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(product.ID); i >= 0 {
		c.lines[i].Quantity = capped(c.lines[i].Quantity, quantity)
		return
	}
	c.lines = append(c.lines, domain.CartLine{Product: product, Quantity: min(quantity, MaxQuantity)})
}

// UpdateQuantity sets the quantity of an existing line; below one removes it.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	if quantity < 1 {
		c.removeAt(i)
		return
	}
	c.lines[i].Quantity = min(quantity, MaxQuantity)
}

func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(productID); i >= 0 {
		c.removeAt(i)
	}
}

// RemoveLines takes ordered lines back out of the cart: each line's quantity
// is subtracted from the matching product and lines reaching zero are
// dropped. Anything added after lines was read stays.
func (c *Cart) RemoveLines(lines []domain.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range lines {
		i := c.indexOf(l.Product.ID)
		if i < 0 {
			continue
		}
		if c.lines[i].Quantity <= l.Quantity {
			c.removeAt(i)
			continue
		}
		c.lines[i].Quantity -= l.Quantity
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Quantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) TotalPrice() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// TotalItems counts distinct lines.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) TotalQuantity() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return c.TotalItems() == 0
}

// Snapshot is a consistent read of lines and totals taken under one lock.
type Snapshot struct {
	Lines         []domain.CartLine `json:"items"`
	TotalPrice    int64             `json:"total_price"`
	TotalItems    int               `json:"total_items"`
	TotalQuantity int               `json:"total_quantity"`
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{Lines: make([]domain.CartLine, len(c.lines)), TotalItems: len(c.lines)}
	copy(s.Lines, c.lines)
	for _, l := range c.lines {
		s.TotalPrice += l.Subtotal()
		s.TotalQuantity += l.Quantity
	}
	return s
}

func (c *Cart) indexOf(productID string) int {
	for i, l := range c.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// capped adds without passing MaxQuantity. current never exceeds MaxQuantity,
// so the comparison cannot overflow.
func capped(current, add int) int {
	if add >= MaxQuantity-current {
		return MaxQuantity
	}
	return current + add
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
