package cart

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: price, Unit: "kg"}
}

func TestCart_AddItem(t *testing.T) {
	t.Run("merges repeated product into one line", func(t *testing.T) {
		c := New()
		a := product("A", 1000)

		c.AddItem(a, 2)
		c.AddItem(a, 3)

		lines := c.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, 5, lines[0].Quantity)
		assert.Equal(t, int64(5000), c.TotalPrice())
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		c := New()
		c.AddItem(product("B", 10), 1)
		c.AddItem(product("A", 10), 1)
		c.AddItem(product("B", 10), 1)

		lines := c.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, "B", lines[0].Product.ID)
		assert.Equal(t, "A", lines[1].Product.ID)
	})

	t.Run("ignores non-positive quantity", func(t *testing.T) {
		c := New()
		c.AddItem(product("A", 1000), 0)
		c.AddItem(product("A", 1000), -4)
		assert.True(t, c.IsEmpty())

		c.AddItem(product("A", 1000), 2)
		c.AddItem(product("A", 1000), -1)
		assert.Equal(t, 2, c.Quantity("A"))
	})
}

func TestCart_Totals(t *testing.T) {
	c := New()
	c.AddItem(product("A", 1000), 2)
	c.AddItem(product("B", 2500), 1)

	assert.Equal(t, 2, c.TotalItems())
	assert.Equal(t, 3, c.TotalQuantity())
	assert.Equal(t, int64(4500), c.TotalPrice())

	snap := c.Snapshot()
	assert.Equal(t, 2, snap.TotalItems)
	assert.Equal(t, 3, snap.TotalQuantity)
	assert.Equal(t, int64(4500), snap.TotalPrice)
	assert.Len(t, snap.Lines, 2)
}

func TestCart_AddItemSaturates(t *testing.T) {
	tests := []struct {
		name  string
		adds  []int
		wantQ int
	}{
		{"single huge add", []int{math.MaxInt}, MaxQuantity},
		{"merge past the cap", []int{math.MaxInt, 2}, MaxQuantity},
		{"merge up to the cap", []int{MaxQuantity - 1, 1}, MaxQuantity},
		{"below the cap", []int{10, 5}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for _, q := range tt.adds {
				c.AddItem(product("A", 1000), q)
			}
			assert.Equal(t, tt.wantQ, c.Quantity("A"))
			assert.Equal(t, tt.wantQ, c.TotalQuantity())
			assert.Equal(t, int64(tt.wantQ)*1000, c.TotalPrice())
		})
	}
}

func TestCart_RemoveLines(t *testing.T) {
	c := New()
	c.AddItem(product("A", 1000), 2)
	c.AddItem(product("B", 500), 1)
	ordered := c.Lines()

	c.AddItem(product("A", 1000), 3)
	c.AddItem(product("C", 200), 1)
	c.RemoveItem("B")

	c.RemoveLines(ordered)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].Product.ID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "C", lines[1].Product.ID)
}

func TestCart_UpdateQuantity(t *testing.T) {
	t.Run("sets quantity", func(t *testing.T) {
		c := New()
		c.AddItem(product("A", 1000), 2)
		c.UpdateQuantity("A", 7)
		assert.Equal(t, 7, c.Quantity("A"))
		assert.Equal(t, int64(7000), c.TotalPrice())
	})

	for _, tt := range []struct {
		name     string
		quantity int
	}{
		{"zero removes line", 0},
		{"negative removes line", -1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.AddItem(product("A", 1000), 2)
			c.AddItem(product("B", 500), 1)
			c.UpdateQuantity("A", tt.quantity)

			lines := c.Lines()
			require.Len(t, lines, 1)
			assert.Equal(t, "B", lines[0].Product.ID)
		})
	}

	t.Run("caps at max quantity", func(t *testing.T) {
		c := New()
		c.AddItem(product("A", 1000), 1)
		c.UpdateQuantity("A", math.MaxInt)
		assert.Equal(t, MaxQuantity, c.Quantity("A"))
	})

	t.Run("absent product is a no-op", func(t *testing.T) {
		c := New()
		c.AddItem(product("A", 1000), 2)
		c.UpdateQuantity("Z", 9)
		assert.Equal(t, 1, c.TotalItems())
		assert.Equal(t, 0, c.Quantity("Z"))
	})
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New()
	c.AddItem(product("A", 1000), 2)
	c.AddItem(product("B", 2500), 1)

	c.RemoveItem("missing")
	assert.Equal(t, 2, c.TotalItems())

	c.RemoveItem("A")
	assert.Equal(t, 1, c.TotalItems())
	assert.Equal(t, int64(2500), c.TotalPrice())

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalItems())
	assert.Zero(t, c.TotalQuantity())
	assert.Zero(t, c.TotalPrice())
	assert.Empty(t, c.Lines())
}

func TestCart_LinesIsACopy(t *testing.T) {
	c := New()
	c.AddItem(product("A", 1000), 1)

	lines := c.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, c.Quantity("A"))
}

func TestCart_RandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	catalog := []domain.Product{product("A", 1000), product("B", 2500), product("C", 75), product("D", 0)}
	c := New()

	for i := 0; i < 2000; i++ {
		p := catalog[rng.Intn(len(catalog))]
		switch rng.Intn(3) {
		case 0:
			c.AddItem(p, rng.Intn(6)-1)
		case 1:
			c.UpdateQuantity(p.ID, rng.Intn(6)-2)
		case 2:
			c.RemoveItem(p.ID)
		}

		seen := map[string]bool{}
		var want int64
		for _, l := range c.Lines() {
			require.False(t, seen[l.Product.ID], "duplicate line for %s", l.Product.ID)
			require.GreaterOrEqual(t, l.Quantity, 1)
			require.LessOrEqual(t, l.Quantity, MaxQuantity)
			seen[l.Product.ID] = true
			want += l.Product.Price * int64(l.Quantity)
		}
		require.Equal(t, want, c.TotalPrice())
	}
}
