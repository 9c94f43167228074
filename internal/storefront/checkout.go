package storefront

import (
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)

	var info domain.CustomerInfo
	if !h.decode(w, r, &info) {
		return
	}

	user := h.account(v).User(r.Context())
	receipt, err := h.svc.Checkout.Submit(r.Context(), v.Cart, user, info)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, receipt)
}
