package postgres

import (
	"context"
	"database/sql"
	"strings"

	"courier/internal/core/domain"
)

type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

/*
	-- Auth accounts
	CREATE TABLE identities (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		avatar_ref    TEXT,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

func (r *IdentityRepo) GetIdentityByID(ctx context.Context, id string) (*domain.Identity, error) {
	if id == "" {
		return nil, domain.ErrIdentityNotFound
	}
	ident := &domain.Identity{ID: id}
	var avatar sql.NullString
	query := `SELECT email, display_name, avatar_ref, created_at FROM identities WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ident.Email,
		&ident.DisplayName,
		&avatar,
		&ident.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	ident.AvatarRef = avatar.String
	return ident, nil
}

func (r *IdentityRepo) GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, string, error) {
	ident := &domain.Identity{Email: strings.ToLower(email)}
	var avatar sql.NullString
	var passwordHash string
	query := `SELECT id, display_name, avatar_ref, password_hash, created_at FROM identities WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, ident.Email).Scan(
		&ident.ID,
		&ident.DisplayName,
		&avatar,
		&passwordHash,
		&ident.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", domain.ErrIdentityNotFound
		}
		return nil, "", err
	}
	ident.AvatarRef = avatar.String
	return ident, passwordHash, nil
}

func (r *IdentityRepo) CreateIdentity(ctx context.Context, ident *domain.Identity, passwordHash string) (*domain.Identity, error) {
	created := *ident
	// Do nothing on a taken email so the conflict surfaces as ErrNoRows
	query :=
		`INSERT INTO identities (id, email, display_name, avatar_ref, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (email) DO NOTHING
        RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		ident.ID,
		ident.Email,
		ident.DisplayName,
		nullIfEmpty(ident.AvatarRef),
		passwordHash,
	).Scan(&created.CreatedAt)
	switch {
	case err == nil:
		return &created, nil
	case err == sql.ErrNoRows:
		return nil, domain.ErrEmailTaken
	default:
		return nil, err
	}
}

func (r *IdentityRepo) UpdateIdentity(ctx context.Context, id string, displayName, avatarRef *string) (*domain.Identity, error) {
	if id == "" {
		return nil, domain.ErrIdentityNotFound
	}
	ident := &domain.Identity{ID: id}
	var avatar sql.NullString
	var newName, newAvatar sql.NullString
	if displayName != nil {
		newName = sql.NullString{String: *displayName, Valid: true}
	}
	if avatarRef != nil {
		newAvatar = sql.NullString{String: *avatarRef, Valid: true}
	}
	query :=
		`UPDATE identities
        SET display_name = COALESCE($2, display_name),
            avatar_ref = COALESCE($3, avatar_ref)
        WHERE id = $1
        RETURNING email, display_name, avatar_ref, created_at`
	err := r.db.QueryRowContext(ctx, query, id, newName, newAvatar).Scan(
		&ident.Email,
		&ident.DisplayName,
		&avatar,
		&ident.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	ident.AvatarRef = avatar.String
	return ident, nil
}
