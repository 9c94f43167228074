package auth

import (
	"context"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/session"
)

const msgNotLoggedIn = "No user logged in"

// Account binds the gateway to one visitor's session: successful logins and
// registrations start a session, profile edits refresh it.
type Account struct {
	gateway *Gateway
	session *session.Store
	logger  *slog.Logger
}

func NewAccount(gateway *Gateway, store *session.Store, logger *slog.Logger) *Account {
	return &Account{gateway: gateway, session: store, logger: logger}
}

// User returns the logged-in user, or nil when the session is absent or expired.
func (a *Account) User(ctx context.Context) *domain.AppUser {
	user, ok := a.session.CurrentUser(ctx)
	if !ok {
		return nil
	}
	return user
}

func (a *Account) Register(ctx context.Context, in domain.RegisterInput) (domain.AppUser, error) {
	user, err := a.gateway.Register(ctx, in)
	if err != nil {
		return domain.AppUser{}, err
	}
	a.save(ctx, user)
	return user, nil
}

func (a *Account) Login(ctx context.Context, email, password string) (domain.AppUser, error) {
	user, err := a.gateway.Login(ctx, email, password)
	if err != nil {
		return domain.AppUser{}, err
	}
	a.save(ctx, user)
	return user, nil
}

func (a *Account) Logout(ctx context.Context) {
	a.session.Logout(ctx)
}

func (a *Account) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (domain.AppUser, error) {
	current := a.User(ctx)
	if current == nil {
		return domain.AppUser{}, domain.NewError(domain.ErrNotAuthenticated, msgNotLoggedIn, nil)
	}
	user, err := a.gateway.UpdateProfile(ctx, current.ID, upd)
	if err != nil {
		return domain.AppUser{}, err
	}
	a.save(ctx, user)
	return user, nil
}

func (a *Account) Orders(ctx context.Context) ([]domain.Order, error) {
	current := a.User(ctx)
	if current == nil {
		return nil, domain.NewError(domain.ErrNotAuthenticated, msgNotLoggedIn, nil)
	}
	return a.gateway.GetUserOrders(ctx, current.ID)
}

// save only logs a failed write; the remote call has already succeeded.
func (a *Account) save(ctx context.Context, user domain.AppUser) {
	if err := a.session.Save(ctx, user); err != nil {
		a.logger.Error("failed to save session", "error", err, "user_id", user.ID)
	}
}
