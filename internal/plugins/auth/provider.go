package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"courier/internal/core/domain"
)

// Tokens mints and validates session tokens for the provider.
type Tokens interface {
	Generate(identityID string) (string, error)
	Validate(tokenStr string) (string, error)
}

// Provider is a self-hosted auth backend: accounts in Postgres, bcrypt
// credentials, JWT sessions and in-process identity-change fan-out.
//
// Watch delivery is per process. Sign-out in one replica does not reach
// watchers in another; each connection watches through the replica it is
// attached to, which is the one that performs its auth calls.
type Provider struct {
	log    *slog.Logger
	repo   domain.IdentityRepository
	tokens Tokens
	cost   int

	mu       sync.Mutex
	watchers map[string]map[int]chan domain.AuthState
	nextID   int
}

func NewProvider(log *slog.Logger, repo domain.IdentityRepository, tokens Tokens, bcryptCost int) *Provider {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Provider{
		log:      log,
		repo:     repo,
		tokens:   tokens,
		cost:     bcryptCost,
		watchers: make(map[string]map[int]chan domain.AuthState),
	}
}

func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		p.log.ErrorContext(ctx, "auth - signup - hash failed", slog.Any("error", err))
		return nil, "", err
	}
	ident := &domain.Identity{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
	}
	created, err := p.repo.CreateIdentity(ctx, ident, string(hash))
	if err != nil {
		if !errors.Is(err, domain.ErrEmailTaken) {
			p.log.ErrorContext(ctx, "auth - signup - create failed", slog.Any("error", err))
		}
		return nil, "", err
	}
	token, err := p.tokens.Generate(created.ID)
	if err != nil {
		return nil, "", err
	}
	p.notify(created.ID, domain.AuthState{SignedIn: true, Identity: created})
	return created, token, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Identity, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	ident, hash, err := p.repo.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	token, err := p.tokens.Generate(ident.ID)
	if err != nil {
		return nil, "", err
	}
	p.notify(ident.ID, domain.AuthState{SignedIn: true, Identity: ident})
	return ident, token, nil
}

func (p *Provider) SignOut(ctx context.Context, identityID string) error {
	p.notify(identityID, domain.AuthState{SignedIn: false})
	return nil
}

func (p *Provider) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	identityID, err := p.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return p.repo.GetIdentityByID(ctx, identityID)
}

func (p *Provider) UpdateIdentity(ctx context.Context, identityID string, displayName, avatarRef *string) (*domain.Identity, error) {
	updated, err := p.repo.UpdateIdentity(ctx, identityID, displayName, avatarRef)
	if err != nil {
		return nil, err
	}
	p.notify(identityID, domain.AuthState{SignedIn: true, Identity: updated})
	return updated, nil
}

// Watch registers a watcher channel and seeds it with the identity's current
// state. The channel is buffered; a watcher that falls behind drops
// intermediate states and keeps only the most recent view it managed to read.
func (p *Provider) Watch(ctx context.Context, identityID string) (<-chan domain.AuthState, func(), error) {
	ch := make(chan domain.AuthState, 4)

	p.mu.Lock()
	if p.watchers[identityID] == nil {
		p.watchers[identityID] = make(map[int]chan domain.AuthState)
	}
	id := p.nextID
	p.nextID++
	p.watchers[identityID][id] = ch
	p.mu.Unlock()

	if ident, err := p.repo.GetIdentityByID(ctx, identityID); err == nil {
		ch <- domain.AuthState{SignedIn: true, Identity: ident}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers[identityID], id)
			if len(p.watchers[identityID]) == 0 {
				delete(p.watchers, identityID)
			}
			p.mu.Unlock()
			close(ch)
		})
	}
	return ch, release, nil
}

func (p *Provider) notify(identityID string, state domain.AuthState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.watchers[identityID] {
		select {
		case ch <- state:
		default:
		}
	}
}
