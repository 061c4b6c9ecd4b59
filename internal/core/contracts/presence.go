package contracts

import (
	"context"
	"time"
)

// PresenceStore tracks live-connection heartbeats. Profile online flags are
// derived from it: a lapsed heartbeat eventually flips the profile offline.
type PresenceStore interface {
	Heartbeat(ctx context.Context, identityID string) error
	Drop(ctx context.Context, identityID string) error
	// SweepExpired removes entries whose last heartbeat is older than the
	// threshold and returns their ids.
	SweepExpired(ctx context.Context, olderThan time.Duration) ([]string, error)
}
