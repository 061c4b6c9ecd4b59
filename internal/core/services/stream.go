package services

import (
	"context"

	"courier/internal/core/contracts"
	"courier/internal/platform/metrics"
)

// subscribeSnapshots is the live-query loop behind every stream: emit one
// full snapshot immediately, then re-query and emit on each feed event until
// the returned cancel func runs. Snapshots for one subscription are emitted
// from a single goroutine, so consumers see them in order; nothing is
// guaranteed across independent subscriptions.
func subscribeSnapshots(ctx context.Context, feed contracts.ChangeFeed, topic string, emit func(context.Context)) (func(), error) {
	events, release, err := feed.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	metrics.LiveSubscriptions.Inc()
	go func() {
		defer release()
		defer metrics.LiveSubscriptions.Dec()
		emit(subCtx)
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-events:
				// an event can race the cancel; never emit after it
				if !ok || subCtx.Err() != nil {
					return
				}
				emit(subCtx)
			}
		}
	}()
	return cancel, nil
}
