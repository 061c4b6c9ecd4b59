package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/core/domain"
)

func TestDirectoryService_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots never contain the subscriber", func(t *testing.T) {
		clock := newMemClock()
		repo := newMemProfileRepo(clock)
		feed := newMemFeed()
		profiles := NewProfileService(slog.Default(), repo, feed)
		directory := NewDirectoryService(slog.Default(), repo, feed)

		for _, name := range []string{"alice", "bob", "carol"} {
			_, err := profiles.EnsureProfile(ctx, testIdentity(name))
			require.NoError(t, err)
		}

		var (
			mu   sync.Mutex
			last []domain.Profile
		)
		cancel, err := directory.Subscribe(ctx, "id-alice", func(ps []domain.Profile) {
			mu.Lock()
			last = ps
			mu.Unlock()
		}, nil)
		require.NoError(t, err)
		defer cancel()

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(last) == 2
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		for _, p := range last {
			assert.NotEqual(t, "id-alice", p.ID)
		}
	})

	t.Run("a new profile triggers a fresh snapshot", func(t *testing.T) {
		clock := newMemClock()
		repo := newMemProfileRepo(clock)
		feed := newMemFeed()
		profiles := NewProfileService(slog.Default(), repo, feed)
		directory := NewDirectoryService(slog.Default(), repo, feed)

		var (
			mu   sync.Mutex
			last []domain.Profile
		)
		cancel, err := directory.Subscribe(ctx, "id-alice", func(ps []domain.Profile) {
			mu.Lock()
			last = ps
			mu.Unlock()
		}, nil)
		require.NoError(t, err)
		defer cancel()

		_, err = profiles.EnsureProfile(ctx, testIdentity("dave"))
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(last) == 1 && last[0].ID == "id-dave"
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("query failure reaches onError and keeps the stream alive", func(t *testing.T) {
		clock := newMemClock()
		repo := newMemProfileRepo(clock)
		feed := newMemFeed()
		directory := NewDirectoryService(slog.Default(), &failingOnceProfileRepo{memProfileRepo: repo}, feed)

		var (
			mu      sync.Mutex
			errs    int
			updates int
		)
		cancel, err := directory.Subscribe(ctx, "id-alice", func([]domain.Profile) {
			mu.Lock()
			updates++
			mu.Unlock()
		}, func(error) {
			mu.Lock()
			errs++
			mu.Unlock()
		})
		require.NoError(t, err)
		defer cancel()

		// first emit fails, the publish-driven one succeeds
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return errs == 1
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, feed.Publish(ctx, "profiles"))
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return updates == 1
		}, time.Second, 5*time.Millisecond)
	})
}

// failingOnceProfileRepo fails the first ListProfiles call only.
type failingOnceProfileRepo struct {
	*memProfileRepo
	mu     sync.Mutex
	failed bool
}

func (r *failingOnceProfileRepo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	r.mu.Lock()
	if !r.failed {
		r.failed = true
		r.mu.Unlock()
		return nil, errors.New("transient backend failure")
	}
	r.mu.Unlock()
	return r.memProfileRepo.ListProfiles(ctx)
}
