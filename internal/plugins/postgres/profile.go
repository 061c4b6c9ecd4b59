package postgres

import (
	"context"
	"database/sql"

	"courier/internal/core/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

/*
	-- Directory documents, keyed by the owning identity id
	CREATE TABLE profiles (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email        TEXT NOT NULL,
		avatar_ref   TEXT,
		online       BOOLEAN NOT NULL DEFAULT false,
		last_seen    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

func (r *ProfileRepo) GetProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, domain.ErrProfileNotFound
	}
	p := &domain.Profile{ID: id}
	var avatar sql.NullString
	query := `SELECT display_name, email, avatar_ref, online, last_seen FROM profiles WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.DisplayName,
		&p.Email,
		&avatar,
		&p.Online,
		&p.LastSeen,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	p.AvatarRef = avatar.String
	return p, nil
}

// CreateProfile is an unconditional upsert: when two first sign-ins race on
// the same key the last write wins, which is the documented resolution for
// the duplicate-profile race.
func (r *ProfileRepo) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p.ID == "" {
		return nil, domain.ErrProfileNotFound
	}
	stored := *p
	query :=
		`INSERT INTO profiles (id, display_name, email, avatar_ref, online, last_seen)
        VALUES ($1, $2, $3, $4, $5, now())
        ON CONFLICT (id) DO UPDATE SET
            display_name = EXCLUDED.display_name,
            email = EXCLUDED.email,
            avatar_ref = EXCLUDED.avatar_ref,
            online = EXCLUDED.online,
            last_seen = EXCLUDED.last_seen
        RETURNING last_seen`
	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.DisplayName,
		p.Email,
		nullIfEmpty(p.AvatarRef),
		p.Online,
	).Scan(&stored.LastSeen)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *ProfileRepo) UpdateAvatar(ctx context.Context, id, avatarRef string) error {
	query := `UPDATE profiles SET avatar_ref = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, nullIfEmpty(avatarRef))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) SetPresence(ctx context.Context, id string, online bool) error {
	query := `UPDATE profiles SET online = $2, last_seen = now() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, online)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	// no ordering contract beyond being stable for list rendering
	query := `SELECT id, display_name, email, avatar_ref, online, last_seen FROM profiles ORDER BY display_name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		var avatar sql.NullString
		if err := rows.Scan(
			&p.ID,
			&p.DisplayName,
			&p.Email,
			&avatar,
			&p.Online,
			&p.LastSeen,
		); err != nil {
			return nil, err
		}
		p.AvatarRef = avatar.String
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
