package domain

const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeSnapshot    = "snapshot"
	TypeOpenChat    = "open_chat"
	TypeChatReady   = "chat_ready"
	TypeSend        = "send"
	TypeError       = "error"
)

const (
	StreamDirectory = "directory"
	StreamSessions  = "sessions"
	StreamMessages  = "messages"
)

// ClientFrame is every message a client can send over the live connection.
// Fields beyond Type are populated depending on the frame type.
type ClientFrame struct {
	Type      string `json:"type"`
	Stream    string `json:"stream,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	OtherID   string `json:"other_id,omitempty"`
	Text      string `json:"text,omitempty"`
	ImageRef  string `json:"image_ref,omitempty"`
}

// Snapshot is a full-replacement view of one stream. Exactly one of the
// payload slices is set, matching Stream.
type Snapshot struct {
	Type      string    `json:"type"` // "snapshot"
	Stream    string    `json:"stream"`
	SessionID string    `json:"session_id,omitempty"`
	Profiles  []Profile `json:"profiles,omitempty"`
	Sessions  []Session `json:"sessions,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
}

// ChatReady answers an open_chat frame with the resolved session.
type ChatReady struct {
	Type    string  `json:"type"` // "chat_ready"
	Session Session `json:"session"`
}

// ErrorFrame is a connection-safe operation failure notice. It never
// terminates unrelated live streams.
type ErrorFrame struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}
