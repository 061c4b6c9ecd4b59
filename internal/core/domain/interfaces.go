package domain

import (
	"context"
	"time"
)

// IdentityRepository persists auth-provider accounts.
type IdentityRepository interface {
	GetIdentityByID(ctx context.Context, id string) (*Identity, error)
	// GetIdentityByEmail also returns the stored password hash for credential checks.
	GetIdentityByEmail(ctx context.Context, email string) (*Identity, string, error)
	CreateIdentity(ctx context.Context, ident *Identity, passwordHash string) (*Identity, error)
	// UpdateIdentity applies the non-nil fields and returns the stored record.
	UpdateIdentity(ctx context.Context, id string, displayName, avatarRef *string) (*Identity, error)
}

// ProfileRepository is the keyed document view over the user directory.
type ProfileRepository interface {
	GetProfileByID(ctx context.Context, id string) (*Profile, error)
	// CreateProfile is an unconditional upsert: concurrent first sign-ins race
	// to create the same key and the last write wins.
	CreateProfile(ctx context.Context, p *Profile) (*Profile, error)
	UpdateAvatar(ctx context.Context, id, avatarRef string) error
	// SetPresence flips the online flag; last_seen is assigned store-side.
	SetPresence(ctx context.Context, id string, online bool) error
	ListProfiles(ctx context.Context) ([]Profile, error)
}

// SessionRepository stores two-party conversations. The only indexable
// predicate is single-participant containment, so pair lookup is a superset
// query plus a client-side scan.
type SessionRepository interface {
	GetSessionByID(ctx context.Context, id string) (*Session, error)
	// ListByParticipant returns every session containing the given identity,
	// newest last-message first.
	ListByParticipant(ctx context.Context, participantID string) ([]Session, error)
	// CreateSession assigns CreatedAt and LastMessageTime store-side and
	// returns the stored record.
	CreateSession(ctx context.Context, s *Session) (*Session, error)
	// UpdateSummary sets the denormalized last-message fields. The timestamp
	// is the ordering instant of the message that produced the update.
	UpdateSummary(ctx context.Context, id, lastMessage string, at time.Time) error
}

// MessageRepository appends and lists messages within one session.
type MessageRepository interface {
	// AppendMessage inserts the message and returns the store-assigned
	// ordering timestamp.
	AppendMessage(ctx context.Context, m *Message) (time.Time, error)
	// ListBySession returns all messages in ascending ordering-timestamp
	// order, id as tiebreak for equal instants.
	ListBySession(ctx context.Context, sessionID string) ([]Message, error)
}
