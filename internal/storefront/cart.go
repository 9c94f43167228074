package storefront

import (
	"net/http"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	h.writeJSON(w, http.StatusOK, v.Cart.Snapshot())
}

// HandleAddCartItem adds one unit unless a quantity is given. The product is
// looked up in the catalog so the cart holds current prices.
func (h *Handler) HandleAddCartItem(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)

	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 || quantity > cart.MaxQuantity {
		h.fail(w, r, domain.Invalid("quantity", "quantity must be between 1 and %d", cart.MaxQuantity))
		return
	}

	product, err := h.svc.Catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !product.Available {
		h.fail(w, r, domain.Invalid("product_id", "%s is currently unavailable", product.Name))
		return
	}

	v.Cart.AddItem(product, quantity)
	h.svc.Metrics.CartMutation(r.Context(), "add")
	h.writeJSON(w, http.StatusOK, v.Cart.Snapshot())
}

func (h *Handler) HandleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)

	var req updateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		h.fail(w, r, domain.Invalid("quantity", "is required"))
		return
	}
	if *req.Quantity > cart.MaxQuantity {
		h.fail(w, r, domain.Invalid("quantity", "quantity must be at most %d", cart.MaxQuantity))
		return
	}

	v.Cart.UpdateQuantity(r.PathValue("productId"), *req.Quantity)
	h.svc.Metrics.CartMutation(r.Context(), "update")
	h.writeJSON(w, http.StatusOK, v.Cart.Snapshot())
}

func (h *Handler) HandleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	v.Cart.RemoveItem(r.PathValue("productId"))
	h.svc.Metrics.CartMutation(r.Context(), "remove")
	h.writeJSON(w, http.StatusOK, v.Cart.Snapshot())
}

func (h *Handler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	v.Cart.Clear()
	h.svc.Metrics.CartMutation(r.Context(), "clear")
	h.writeJSON(w, http.StatusOK, v.Cart.Snapshot())
}
