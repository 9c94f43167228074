// Package auth wraps the remote registration, login and profile procedures
// and keeps the visitor's session in step with their results.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// Backend is the part of the remote store the gateway calls.
type Backend interface {
	RegisterUser(ctx context.Context, in domain.RegisterInput) (domain.AppUser, error)
	AuthenticateUser(ctx context.Context, email, password string) (domain.AppUser, error)
	UpdateUserProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.AppUser, error)
	ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error)
}

const (
	MinPasswordLength = 6

	msgUnavailable        = "Database connection required. Please configure the store backend first."
	msgDuplicateEmail     = "This email is already registered. Please use a different email or try logging in."
	msgInvalidCredentials = "Invalid email or password. Please check your credentials and try again."

	remoteDuplicateEmail     = "Email already registered"
	remoteInvalidCredentials = "Invalid email or password"
)

type Gateway struct {
	backend Backend
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewGateway builds a gateway. A nil backend means the remote store is not
// configured and every call fails with domain.ErrServiceUnavailable.
func NewGateway(backend Backend, metrics *telemetry.Metrics, logger *slog.Logger) *Gateway {
	return &Gateway{backend: backend, metrics: metrics, logger: logger}
}

func (g *Gateway) Configured() bool {
	return g.backend != nil
}

func (g *Gateway) Register(ctx context.Context, in domain.RegisterInput) (domain.AppUser, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	if err := validateEmail(in.Email); err != nil {
		return domain.AppUser{}, err
	}
	if len(in.Password) < MinPasswordLength {
		return domain.AppUser{}, domain.Invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	if in.FullName == "" {
		return domain.AppUser{}, domain.Invalid("full_name", "is required")
	}
	if err := g.available(); err != nil {
		return domain.AppUser{}, err
	}

	user, err := g.backend.RegisterUser(ctx, in)
	if err != nil {
		g.logger.Error("registration failed", "error", err, "email", in.Email)
		err = classify(err, remoteDuplicateEmail, domain.ErrDuplicateEmail, msgDuplicateEmail,
			domain.ErrRegistrationFailed, "Registration failed")
		g.metrics.AuthRequest(ctx, "register", outcome(err))
		return domain.AppUser{}, err
	}

	g.metrics.AuthRequest(ctx, "register", "ok")
	g.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (g *Gateway) Login(ctx context.Context, email, password string) (domain.AppUser, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.AppUser{}, domain.Invalid("email", "is required")
	}
	if password == "" {
		return domain.AppUser{}, domain.Invalid("password", "is required")
	}
	if err := g.available(); err != nil {
		return domain.AppUser{}, err
	}

	user, err := g.backend.AuthenticateUser(ctx, email, password)
	if err != nil {
		g.logger.Warn("login failed", "error", err, "email", email)
		err = classify(err, remoteInvalidCredentials, domain.ErrInvalidCredentials, msgInvalidCredentials,
			domain.ErrLoginFailed, "Login failed")
		g.metrics.AuthRequest(ctx, "login", outcome(err))
		return domain.AppUser{}, err
	}

	g.metrics.AuthRequest(ctx, "login", "ok")
	g.logger.Info("user authenticated", "user_id", user.ID)
	return user, nil
}

// UpdateProfile sends only the fields present in upd. Blank strings count
// as absent so an empty form field never clears a stored value.
func (g *Gateway) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.AppUser, error) {
	if userID == "" {
		return domain.AppUser{}, domain.Invalid("user_id", "is required")
	}
	upd = domain.ProfileUpdate{
		FullName: present(upd.FullName),
		Phone:    present(upd.Phone),
		Address:  present(upd.Address),
	}
	if err := g.available(); err != nil {
		return domain.AppUser{}, err
	}

	user, err := g.backend.UpdateUserProfile(ctx, userID, upd)
	if err != nil {
		g.logger.Error("profile update failed", "error", err, "user_id", userID)
		err = classify(err, "", nil, "", domain.ErrProfileUpdateFailed, "Profile update failed")
		g.metrics.AuthRequest(ctx, "update_profile", outcome(err))
		return domain.AppUser{}, err
	}

	g.metrics.AuthRequest(ctx, "update_profile", "ok")
	return user, nil
}

// GetUserOrders returns the user's orders, most recent first.
func (g *Gateway) GetUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.Invalid("user_id", "is required")
	}
	if err := g.available(); err != nil {
		return nil, err
	}

	orders, err := g.backend.ListUserOrders(ctx, userID)
	if err != nil {
		g.logger.Error("failed to fetch orders", "error", err, "user_id", userID)
		return nil, classify(err, "", nil, "", domain.ErrOrdersFetchFailed, "Failed to fetch orders")
	}
	return orders, nil
}

func (g *Gateway) available() error {
	if g.backend == nil {
		return domain.NewError(domain.ErrServiceUnavailable, msgUnavailable, nil)
	}
	return nil
}

// classify maps a backend failure onto the taxonomy. When the remote message
// contains marker the error becomes special with specialMsg; anything else
// becomes fallback prefixed with the remote message. A malformed response
// keeps matching domain.ErrValidationFailed through the wrapped cause.
func classify(err error, marker string, special error, specialMsg string, fallback error, prefix string) error {
	if marker != "" && strings.Contains(err.Error(), marker) {
		return domain.NewError(special, specialMsg, err)
	}
	return domain.NewError(fallback, prefix+": "+err.Error(), err)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrValidationFailed):
		return "invalid_response"
	default:
		return "error"
	}
}

func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.Invalid("email", "is not a valid address")
	}
	return nil
}

func present(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
