package storefront

import (
	"net/http"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
)

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.svc.Catalog.Products(r.Context(), catalog.Filter{
		CategoryID: q.Get("category"),
		Query:      q.Get("q"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Catalog.Featured(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.Catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Catalog.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) HandleListPromotions(w http.ResponseWriter, r *http.Request) {
	applicable := domain.Applicability(r.URL.Query().Get("applicable"))
	switch applicable {
	case "", domain.AppliesToAll, domain.AppliesToCategory, domain.AppliesToProduct:
	default:
		writeErrorBody(w, http.StatusBadRequest, "must be one of all, category, product", "applicable")
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.Promotions.View(h.now(), applicable))
}

func (h *Handler) HandleContact(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"link": h.svc.Checkout.ContactLink()})
}
