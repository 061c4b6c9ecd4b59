package domain

import (
	"time"
)

// Identity is the record held by the auth provider. Its ID is opaque and
// immutable for the lifetime of the account.
type Identity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarRef   string    `json:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Profile is the directory-visible document for one identity. Exactly one
// profile exists per identity and shares its id. It is created lazily on
// first sign-in and mutated only on avatar and presence changes.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	AvatarRef   string    `json:"photoURL,omitempty"`
	Online      bool      `json:"isOnline"`
	LastSeen    time.Time `json:"lastSeen"`
}

// ParticipantDetail is the display snapshot captured when a session is
// created. It is not kept in sync with later profile edits.
type ParticipantDetail struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"photoURL,omitempty"`
}

// Session is a two-party conversation. For any unordered pair of identities
// at most one session should exist; the resolver enforces this cooperatively
// since the store has no uniqueness index over the participant set.
type Session struct {
	ID                 string               `json:"id"`
	Participants       [2]string            `json:"participants"`
	ParticipantDetails [2]ParticipantDetail `json:"participantDetails"`
	LastMessage        string               `json:"lastMessage"`
	LastMessageTime    time.Time            `json:"lastMessageTime"`
	// TimeLabel is the human-readable form of LastMessageTime, stamped on
	// outgoing snapshots.
	TimeLabel string    `json:"timeLabel,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasParticipant reports whether id is one of the session's two parties.
func (s *Session) HasParticipant(id string) bool {
	return s.Participants[0] == id || s.Participants[1] == id
}

// OtherParticipant returns the party that is not id, or "" when id is not a
// participant.
func (s *Session) OtherParticipant(id string) string {
	switch id {
	case s.Participants[0]:
		return s.Participants[1]
	case s.Participants[1]:
		return s.Participants[0]
	}
	return ""
}

// Message belongs to exactly one session and is immutable once written.
// SentAt is assigned by the store at insert time and is the sole ordering
// key; client clocks never participate in ordering.
type Message struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text,omitempty"`
	ImageRef   string    `json:"imageUrl,omitempty"`
	SentAt     time.Time `json:"timestamp"`
	// TimeLabel is the human-readable form of SentAt, stamped on outgoing
	// snapshots.
	TimeLabel string `json:"timeLabel,omitempty"`
}

// AuthState is one identity-change notification from the auth provider.
// Identity is nil when SignedIn is false.
type AuthState struct {
	SignedIn bool
	Identity *Identity
}
