package contracts

import "context"

const (
	TopicProfiles = "profiles"
	TopicSessions = "sessions"
)

// TopicMessages is the per-session message feed topic.
func TopicMessages(sessionID string) string {
	return "messages:" + sessionID
}

// ChangeFeed is the invalidation channel behind every live subscription.
// Publish signals that documents under a topic changed; subscribers re-query
// and emit a fresh full snapshot. Events carry no payload, so a missed or
// coalesced event only delays a snapshot, never corrupts one.
type ChangeFeed interface {
	Publish(ctx context.Context, topic string) error
	// Subscribe returns an event channel and a release func. The channel is
	// closed after release; callers must release when the owning scope ends
	// or the server-side listener leaks for the process lifetime.
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
}
