package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/remote"
)

type fakeBackend struct {
	user   domain.AppUser
	orders []domain.Order
	err    error

	calls      int
	lastInput  domain.RegisterInput
	lastUpdate domain.ProfileUpdate
	lastUserID string
}

func (f *fakeBackend) RegisterUser(_ context.Context, in domain.RegisterInput) (domain.AppUser, error) {
	f.calls++
	f.lastInput = in
	return f.user, f.err
}

func (f *fakeBackend) AuthenticateUser(_ context.Context, _, _ string) (domain.AppUser, error) {
	f.calls++
	return f.user, f.err
}

func (f *fakeBackend) UpdateUserProfile(_ context.Context, userID string, upd domain.ProfileUpdate) (domain.AppUser, error) {
	f.calls++
	f.lastUserID = userID
	f.lastUpdate = upd
	return f.user, f.err
}

func (f *fakeBackend) ListUserOrders(_ context.Context, userID string) ([]domain.Order, error) {
	f.calls++
	f.lastUserID = userID
	return f.orders, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() domain.RegisterInput {
	return domain.RegisterInput{Email: "ann@example.com", Password: "secret1", FullName: "Ann"}
}

func TestGateway_NotConfigured(t *testing.T) {
	g := NewGateway(nil, nil, discardLogger())
	ctx := context.Background()
	assert.False(t, g.Configured())

	_, err := g.Register(ctx, validInput())
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	_, err = g.Login(ctx, "ann@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	name := "Ann"
	_, err = g.UpdateProfile(ctx, "u-1", domain.ProfileUpdate{FullName: &name})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	_, err = g.GetUserOrders(ctx, "u-1")
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestGateway_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		backend := &fakeBackend{user: domain.AppUser{ID: "u-1", Email: "ann@example.com"}}
		g := NewGateway(backend, nil, discardLogger())

		in := validInput()
		in.Email = "  ann@example.com "
		user, err := g.Register(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, "ann@example.com", backend.lastInput.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		backend := &fakeBackend{err: &remote.Error{Status: 400, Code: "P0001", Message: "Email already registered"}}
		g := NewGateway(backend, nil, discardLogger())

		_, err := g.Register(context.Background(), validInput())
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
		assert.NotErrorIs(t, err, domain.ErrRegistrationFailed)
		assert.Equal(t, msgDuplicateEmail, err.Error())
	})

	t.Run("other remote error carries remote message", func(t *testing.T) {
		cause := &remote.Error{Status: 500, Message: "connection reset"}
		g := NewGateway(&fakeBackend{err: cause}, nil, discardLogger())

		_, err := g.Register(context.Background(), validInput())
		assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
		assert.Equal(t, "Registration failed: connection reset", err.Error())

		var remoteErr *remote.Error
		assert.True(t, errors.As(err, &remoteErr))
	})

	t.Run("malformed response", func(t *testing.T) {
		g := NewGateway(&fakeBackend{err: domain.Invalid("user.id", "missing in response")}, nil, discardLogger())

		_, err := g.Register(context.Background(), validInput())
		assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
	})
}

func TestGateway_RegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*domain.RegisterInput)
		field string
	}{
		{"missing email", func(in *domain.RegisterInput) { in.Email = "" }, "email"},
		{"bad email", func(in *domain.RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"short password", func(in *domain.RegisterInput) { in.Password = "abc" }, "password"},
		{"blank name", func(in *domain.RegisterInput) { in.FullName = "   " }, "full_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			g := NewGateway(backend, nil, discardLogger())
			in := validInput()
			tt.edit(&in)

			_, err := g.Register(context.Background(), in)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, backend.calls)
		})
	}
}

func TestGateway_Login(t *testing.T) {
	t.Run("invalid credentials", func(t *testing.T) {
		g := NewGateway(&fakeBackend{err: &remote.Error{Message: "Invalid email or password"}}, nil, discardLogger())

		_, err := g.Login(context.Background(), "ann@example.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Equal(t, msgInvalidCredentials, err.Error())
	})

	t.Run("other error", func(t *testing.T) {
		g := NewGateway(&fakeBackend{err: errors.New("dial tcp: timeout")}, nil, discardLogger())

		_, err := g.Login(context.Background(), "ann@example.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrLoginFailed)
		assert.Equal(t, "Login failed: dial tcp: timeout", err.Error())
	})

	t.Run("missing password", func(t *testing.T) {
		backend := &fakeBackend{}
		g := NewGateway(backend, nil, discardLogger())

		_, err := g.Login(context.Background(), "ann@example.com", "")
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
		assert.Zero(t, backend.calls)
	})
}

func TestGateway_UpdateProfileDropsBlankFields(t *testing.T) {
	backend := &fakeBackend{user: domain.AppUser{ID: "u-1", Email: "ann@example.com"}}
	g := NewGateway(backend, nil, discardLogger())

	blank := "  "
	phone := " 0700 123456 "
	_, err := g.UpdateProfile(context.Background(), "u-1", domain.ProfileUpdate{FullName: &blank, Phone: &phone})
	require.NoError(t, err)

	assert.Equal(t, "u-1", backend.lastUserID)
	assert.Nil(t, backend.lastUpdate.FullName)
	assert.Nil(t, backend.lastUpdate.Address)
	require.NotNil(t, backend.lastUpdate.Phone)
	assert.Equal(t, "0700 123456", *backend.lastUpdate.Phone)
}

func TestGateway_UpdateProfileFailure(t *testing.T) {
	g := NewGateway(&fakeBackend{err: &remote.Error{Message: "permission denied"}}, nil, discardLogger())

	_, err := g.UpdateProfile(context.Background(), "u-1", domain.ProfileUpdate{})
	assert.ErrorIs(t, err, domain.ErrProfileUpdateFailed)
	assert.Equal(t, "Profile update failed: permission denied", err.Error())
}

func TestGateway_GetUserOrders(t *testing.T) {
	orders := []domain.Order{{OrderNumber: "ORD-2"}, {OrderNumber: "ORD-1"}}

	t.Run("success", func(t *testing.T) {
		backend := &fakeBackend{orders: orders}
		g := NewGateway(backend, nil, discardLogger())

		got, err := g.GetUserOrders(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, orders, got)
	})

	t.Run("failure", func(t *testing.T) {
		g := NewGateway(&fakeBackend{err: errors.New("boom")}, nil, discardLogger())

		_, err := g.GetUserOrders(context.Background(), "u-1")
		assert.ErrorIs(t, err, domain.ErrOrdersFetchFailed)
		assert.Equal(t, "Failed to fetch orders: boom", err.Error())
	})
}
