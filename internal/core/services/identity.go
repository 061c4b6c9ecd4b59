package services

import (
	"context"
	"log/slog"
	"sync"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
)

// IdentityContext holds the current identity and profile for one signed-in
// scope. It observes the auth provider's change notifications: a sign-in (or
// identity edit) resolves the profile through EnsureProfile and marks it
// online, a sign-out clears both and marks the profile offline. Components
// needing the current identity read it from here instead of caching their
// own copy; the auth callback is the only writer.
type IdentityContext struct {
	log      *slog.Logger
	auth     contracts.AuthProvider
	profiles *ProfileService

	mu       sync.RWMutex
	identity *domain.Identity
	profile  *domain.Profile

	stop func()
	done chan struct{}
}

func NewIdentityContext(log *slog.Logger, auth contracts.AuthProvider, profiles *ProfileService) *IdentityContext {
	return &IdentityContext{
		log:      log,
		auth:     auth,
		profiles: profiles,
	}
}

// Start subscribes to auth-state changes for the identity and keeps the
// context current until Stop. It must be called once per context.
func (c *IdentityContext) Start(ctx context.Context, identityID string) error {
	states, release, err := c.auth.Watch(ctx, identityID)
	if err != nil {
		return err
	}
	c.stop = release
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		for state := range states {
			c.apply(ctx, state)
		}
	}()
	return nil
}

// Stop releases the auth subscription and waits for the observer to drain.
func (c *IdentityContext) Stop() {
	if c.stop != nil {
		c.stop()
		<-c.done
	}
}

func (c *IdentityContext) Identity() *domain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

func (c *IdentityContext) Profile() *domain.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

func (c *IdentityContext) apply(ctx context.Context, state domain.AuthState) {
	if state.SignedIn && state.Identity != nil {
		profile, err := c.profiles.EnsureProfile(ctx, state.Identity)
		if err != nil {
			c.log.ErrorContext(ctx, "identity - ensure profile failed", "identity_id", state.Identity.ID, "err", err)
		}
		c.mu.Lock()
		c.identity = state.Identity
		c.profile = profile
		c.mu.Unlock()
		return
	}
	c.mu.Lock()
	previous := c.identity
	c.identity = nil
	c.profile = nil
	c.mu.Unlock()
	if previous != nil {
		if err := c.profiles.SetPresence(ctx, previous.ID, false); err != nil {
			c.log.ErrorContext(ctx, "identity - mark offline failed", "identity_id", previous.ID, "err", err)
		}
		c.log.InfoContext(ctx, "identity - signed out", "identity_id", previous.ID)
	}
}
