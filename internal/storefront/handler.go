// Package storefront exposes the shop over HTTP: catalog browsing, a cart
// and session per visitor cookie, account endpoints and checkout.
package storefront

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const VisitorCookie = "sf_visitor"

type Services struct {
	Registry   *Registry
	Catalog    *catalog.Catalog
	Promotions *catalog.Promotions
	Gateway    *auth.Gateway
	Checkout   *checkout.Flow
	Metrics    *telemetry.Metrics
	// AuthLimiter throttles the login and registration endpoints. Nil disables it.
	AuthLimiter *RateLimiter
	// CookieTTL bounds the visitor cookie lifetime.
	CookieTTL time.Duration
}

type Handler struct {
	svc    Services
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(svc Services, logger *slog.Logger) *Handler {
	if svc.Promotions == nil {
		svc.Promotions = catalog.NewPromotions(nil)
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(fn))
	}

	handle("GET /healthz", h.HandleHealth)

	handle("GET /products", h.HandleListProducts)
	handle("GET /products/featured", h.HandleFeaturedProducts)
	handle("GET /products/{id}", h.HandleGetProduct)
	handle("GET /categories", h.HandleListCategories)
	handle("GET /promotions", h.HandleListPromotions)
	handle("GET /contact", h.HandleContact)

	handle("GET /cart", h.HandleGetCart)
	handle("POST /cart/items", h.HandleAddCartItem)
	handle("PATCH /cart/items/{productId}", h.HandleUpdateCartItem)
	handle("DELETE /cart/items/{productId}", h.HandleRemoveCartItem)
	handle("DELETE /cart", h.HandleClearCart)

	handle("POST /auth/register", h.svc.AuthLimiter.Wrap(h.HandleRegister))
	handle("POST /auth/login", h.svc.AuthLimiter.Wrap(h.HandleLogin))
	handle("POST /auth/logout", h.HandleLogout)
	handle("GET /me", h.HandleGetMe)
	handle("PATCH /me", h.HandleUpdateMe)
	handle("GET /me/orders", h.HandleListMyOrders)

	handle("POST /checkout", h.HandleCheckout)

	return mux
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"backend_connected": h.svc.Gateway.Configured(),
	})
}

// visitor resolves the caller's visitor from the cookie and refreshes the
// cookie so that it follows the idle timeout.
func (h *Handler) visitor(w http.ResponseWriter, r *http.Request) *Visitor {
	var id string
	if c, err := r.Cookie(VisitorCookie); err == nil {
		id = c.Value
	}
	v := h.svc.Registry.Open(id)

	ttl := h.svc.CookieTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    v.ID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

func (h *Handler) account(v *Visitor) *auth.Account {
	return auth.NewAccount(h.svc.Gateway, v.Session, h.logger)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	writeErrorBody(w, status, message, "")
}

// fail maps err onto a status code and writes it. Classified errors carry a
// message meant for the user; anything else is logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		status := statusFor(de.Kind)
		if status >= http.StatusInternalServerError {
			h.logger.Warn("request failed", "error", err, "path", r.URL.Path, "status", status)
		}
		writeErrorBody(w, status, de.Message, "")
		return
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeErrorBody(w, http.StatusBadRequest, verr.Message, verr.Field)
		return
	}

	h.logger.Error("unexpected error", "error", err, "path", r.URL.Path)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}

func statusFor(kind error) int {
	switch kind {
	case domain.ErrValidationFailed:
		return http.StatusBadRequest
	case domain.ErrNotAuthenticated, domain.ErrInvalidCredentials:
		return http.StatusUnauthorized
	case domain.ErrDuplicateEmail:
		return http.StatusConflict
	case domain.ErrProductNotFound:
		return http.StatusNotFound
	case domain.ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeErrorBody(w http.ResponseWriter, status int, message, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Field: field})
}
