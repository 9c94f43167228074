package storefront

import (
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)

	var req domain.RegisterInput
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.account(v).Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)

	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.account(v).Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	h.account(v).Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	user := h.account(v).User(r.Context())
	if user == nil {
		h.fail(w, r, domain.NewError(domain.ErrNotAuthenticated, "No user logged in", nil))
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)

	var req domain.ProfileUpdate
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.account(v).UpdateProfile(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleListMyOrders(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)

	orders, err := h.account(v).Orders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}
