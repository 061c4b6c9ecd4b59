package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"courier/internal/core/domain"
	"courier/internal/core/services"
)

type memIdentityRepo struct {
	mu         sync.Mutex
	identities map[string]*domain.Identity
	hashes     map[string]string
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{
		identities: make(map[string]*domain.Identity),
		hashes:     make(map[string]string),
	}
}

func (r *memIdentityRepo) GetIdentityByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	cp := *ident
	return &cp, nil
}

func (r *memIdentityRepo) GetIdentityByEmail(_ context.Context, email string) (*domain.Identity, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ident := range r.identities {
		if ident.Email == email {
			cp := *ident
			return &cp, r.hashes[ident.ID], nil
		}
	}
	return nil, "", domain.ErrIdentityNotFound
}

func (r *memIdentityRepo) CreateIdentity(_ context.Context, ident *domain.Identity, passwordHash string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.identities {
		if existing.Email == ident.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	cp := *ident
	cp.CreatedAt = time.Now()
	r.identities[cp.ID] = &cp
	r.hashes[cp.ID] = passwordHash
	out := cp
	return &out, nil
}

func (r *memIdentityRepo) UpdateIdentity(_ context.Context, id string, displayName, avatarRef *string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	if displayName != nil {
		ident.DisplayName = *displayName
	}
	if avatarRef != nil {
		ident.AvatarRef = *avatarRef
	}
	cp := *ident
	return &cp, nil
}

func newTestProvider() (*Provider, *memIdentityRepo) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemIdentityRepo()
	tokens := services.NewTokenService("test-secret", "courier-test", time.Hour)
	return NewProvider(log, repo, tokens, bcrypt.MinCost), repo
}

func TestProviderSignUp(t *testing.T) {
	ctx := context.Background()
	provider, repo := newTestProvider()

	t.Run("creates account and mints a working token", func(t *testing.T) {
		ident, token, err := provider.SignUp(ctx, "Morgan@Example.com", "hunter2", "Morgan")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.Equal(t, "morgan@example.com", ident.Email)
		assert.Equal(t, "Morgan", ident.DisplayName)

		verified, err := provider.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, ident.ID, verified.ID)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		_, _, err := provider.SignUp(ctx, "morgan@example.com", "other", "Someone Else")
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
		assert.Len(t, repo.identities, 1)
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		_, _, err := provider.SignUp(ctx, "", "pw", "Nobody")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		_, _, err = provider.SignUp(ctx, "nobody@example.com", "", "Nobody")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestProviderSignIn(t *testing.T) {
	ctx := context.Background()
	provider, _ := newTestProvider()
	_, _, err := provider.SignUp(ctx, "riley@example.com", "s3cret", "Riley")
	require.NoError(t, err)

	t.Run("valid credentials return a token", func(t *testing.T) {
		ident, token, err := provider.SignIn(ctx, "riley@example.com", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, "Riley", ident.DisplayName)

		verified, err := provider.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, ident.ID, verified.ID)
	})

	t.Run("wrong password is indistinguishable from unknown email", func(t *testing.T) {
		_, _, err := provider.SignIn(ctx, "riley@example.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		_, _, err = provider.SignIn(ctx, "ghost@example.com", "s3cret")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestProviderVerify(t *testing.T) {
	ctx := context.Background()
	provider, _ := newTestProvider()

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := provider.Verify(ctx, "not-a-token")
		assert.Error(t, err)
	})

	t.Run("token for a deleted account is rejected", func(t *testing.T) {
		other := services.NewTokenService("test-secret", "courier-test", time.Hour)
		token, err := other.Generate("gone")
		require.NoError(t, err)
		_, err = provider.Verify(ctx, token)
		assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	})
}

func TestProviderWatch(t *testing.T) {
	ctx := context.Background()
	provider, _ := newTestProvider()
	ident, _, err := provider.SignUp(ctx, "jo@example.com", "pw", "Jo")
	require.NoError(t, err)

	states, release, err := provider.Watch(ctx, ident.ID)
	require.NoError(t, err)
	defer release()

	recv := func() domain.AuthState {
		select {
		case s := <-states:
			return s
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for auth state")
			return domain.AuthState{}
		}
	}

	t.Run("seeds the current state on subscribe", func(t *testing.T) {
		state := recv()
		require.True(t, state.SignedIn)
		assert.Equal(t, "Jo", state.Identity.DisplayName)
	})

	t.Run("identity edits reach watchers", func(t *testing.T) {
		name := "Jo Martin"
		_, err := provider.UpdateIdentity(ctx, ident.ID, &name, nil)
		require.NoError(t, err)

		state := recv()
		require.True(t, state.SignedIn)
		assert.Equal(t, "Jo Martin", state.Identity.DisplayName)
	})

	t.Run("sign-out reaches watchers", func(t *testing.T) {
		require.NoError(t, provider.SignOut(ctx, ident.ID))
		state := recv()
		assert.False(t, state.SignedIn)
		assert.Nil(t, state.Identity)
	})

	t.Run("release stops delivery", func(t *testing.T) {
		release()
		_, ok := <-states
		assert.False(t, ok)

		name := "after release"
		_, err := provider.UpdateIdentity(ctx, ident.ID, &name, nil)
		assert.NoError(t, err)
	})
}
