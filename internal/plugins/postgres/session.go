package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"courier/internal/core/domain"
)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

/*
	-- Two-party conversations. The pair columns are deliberately not
	-- unique-indexed as a set: pair uniqueness is enforced cooperatively
	-- by the resolver.
	CREATE TABLE chat_sessions (
		id                  TEXT PRIMARY KEY,
		participant_a       TEXT NOT NULL,
		participant_b       TEXT NOT NULL,
		participant_details JSONB NOT NULL,
		last_message        TEXT NOT NULL DEFAULT '',
		last_message_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX chat_sessions_participant_a_idx ON chat_sessions (participant_a);
	CREATE INDEX chat_sessions_participant_b_idx ON chat_sessions (participant_b);
*/

func (r *SessionRepo) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrInvalidSessionID
	}
	query :=
		`SELECT id, participant_a, participant_b, participant_details, last_message, last_message_time, created_at
        FROM chat_sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListByParticipant is the single-field containment query: every session the
// identity takes part in, a superset of any pair lookup.
func (r *SessionRepo) ListByParticipant(ctx context.Context, participantID string) ([]domain.Session, error) {
	if participantID == "" {
		return nil, domain.ErrInvalidParticipant
	}
	query :=
		`SELECT id, participant_a, participant_b, participant_details, last_message, last_message_time, created_at
        FROM chat_sessions
        WHERE $1 IN (participant_a, participant_b)
        ORDER BY last_message_time DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepo) CreateSession(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if s.ID == "" {
		return nil, domain.ErrInvalidSessionID
	}
	details, err := json.Marshal(s.ParticipantDetails)
	if err != nil {
		return nil, err
	}
	stored := *s
	// created_at and last_message_time share the insert's now()
	query :=
		`INSERT INTO chat_sessions (id, participant_a, participant_b, participant_details, last_message)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING last_message_time, created_at`
	err = r.db.QueryRowContext(ctx, query,
		s.ID,
		s.Participants[0],
		s.Participants[1],
		details,
		s.LastMessage,
	).Scan(&stored.LastMessageTime, &stored.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *SessionRepo) UpdateSummary(ctx context.Context, id, lastMessage string, at time.Time) error {
	query := `UPDATE chat_sessions SET last_message = $2, last_message_time = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, lastMessage, at)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var details []byte
	if err := row.Scan(
		&s.ID,
		&s.Participants[0],
		&s.Participants[1],
		&details,
		&s.LastMessage,
		&s.LastMessageTime,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(details, &s.ParticipantDetails); err != nil {
		return nil, err
	}
	return &s, nil
}
