package contracts

import (
	"context"

	"courier/internal/core/domain"
)

// AuthProvider is the external identity service: account lifecycle, session
// tokens and identity-change notification.
type AuthProvider interface {
	// SignUp creates the account and returns it with a session token.
	SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, string, error)
	SignIn(ctx context.Context, email, password string) (*domain.Identity, string, error)
	// SignOut notifies watchers of the identity; it does not revoke tokens.
	SignOut(ctx context.Context, identityID string) error
	// Verify resolves a session token to its identity.
	Verify(ctx context.Context, token string) (*domain.Identity, error)
	// UpdateIdentity applies the non-nil fields and notifies watchers.
	UpdateIdentity(ctx context.Context, identityID string, displayName, avatarRef *string) (*domain.Identity, error)
	// Watch streams identity-change notifications for one identity, starting
	// with its current state. The release func must be called on teardown.
	Watch(ctx context.Context, identityID string) (<-chan domain.AuthState, func(), error)
}
