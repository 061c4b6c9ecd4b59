package postgres

import (
	"context"
	"database/sql"
	"time"

	"courier/internal/core/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

/*
	-- Messages are immutable once written. sent_at is assigned here, at
	-- insert time, and is the sole ordering key; client clocks never
	-- participate in ordering.
	CREATE TABLE messages (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES chat_sessions (id),
		sender_id   TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		text        TEXT,
		image_ref   TEXT,
		sent_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX messages_session_sent_idx ON messages (session_id, sent_at);
*/

func (r *MessageRepo) AppendMessage(ctx context.Context, m *domain.Message) (time.Time, error) {
	if m.SessionID == "" {
		return time.Time{}, domain.ErrInvalidSessionID
	}
	var sentAt time.Time
	query :=
		`INSERT INTO messages (id, session_id, sender_id, sender_name, text, image_ref)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING sent_at`
	err := r.db.QueryRowContext(ctx, query,
		m.ID,
		m.SessionID,
		m.SenderID,
		m.SenderName,
		nullIfEmpty(m.Text),
		nullIfEmpty(m.ImageRef),
	).Scan(&sentAt)
	if err != nil {
		return time.Time{}, err
	}
	return sentAt, nil
}

func (r *MessageRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidSessionID
	}
	// id breaks ties between inserts that land on the same instant
	query :=
		`SELECT id, session_id, sender_id, sender_name, text, image_ref, sent_at
        FROM messages
        WHERE session_id = $1
        ORDER BY sent_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var text, imageRef sql.NullString
		if err := rows.Scan(
			&m.ID,
			&m.SessionID,
			&m.SenderID,
			&m.SenderName,
			&text,
			&imageRef,
			&m.SentAt,
		); err != nil {
			return nil, err
		}
		m.Text = text.String
		m.ImageRef = imageRef.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
