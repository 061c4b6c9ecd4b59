package worker

import (
	"context"
	"log/slog"
	"time"

	"courier/internal/core/contracts"
	"courier/internal/core/services"
)

// PresenceReaper periodically sweeps identities whose heartbeats have gone
// stale and flips their directory profiles offline. It catches connections
// that died without a clean disconnect.
type PresenceReaper struct {
	log      *slog.Logger
	presence contracts.PresenceStore
	profiles *services.ProfileService
	interval time.Duration
	maxAge   time.Duration
}

func NewPresenceReaper(
	log *slog.Logger,
	presence contracts.PresenceStore,
	profiles *services.ProfileService,
	interval, maxAge time.Duration,
) *PresenceReaper {
	return &PresenceReaper{
		log:      log,
		presence: presence,
		profiles: profiles,
		interval: interval,
		maxAge:   maxAge,
	}
}

func (w *PresenceReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.InfoContext(ctx, "reaper - started", "interval", w.interval, "max_age", w.maxAge)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("reaper - stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *PresenceReaper) sweep(ctx context.Context) {
	expired, err := w.presence.SweepExpired(ctx, w.maxAge)
	if err != nil {
		w.log.ErrorContext(ctx, "reaper - sweep failed", "err", err)
		return
	}
	for _, identityID := range expired {
		if err := w.profiles.SetPresence(ctx, identityID, false); err != nil {
			w.log.ErrorContext(ctx, "reaper - presence offline failed", "identity_id", identityID, "err", err)
			continue
		}
		w.log.InfoContext(ctx, "reaper - marked offline", "identity_id", identityID)
	}
}
