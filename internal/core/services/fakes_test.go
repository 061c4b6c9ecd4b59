package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"courier/internal/core/domain"
)

// In-memory doubles for the external store and feed. The clock advances one
// step per write so store-assigned timestamps are strictly increasing.

type memClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMemClock() *memClock {
	return &memClock{now: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *memClock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type memFeed struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

func newMemFeed() *memFeed {
	return &memFeed{subs: make(map[string][]chan struct{})}
}

func (f *memFeed) Publish(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *memFeed) Subscribe(_ context.Context, topic string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs[topic] = append(f.subs[topic], ch)
	f.mu.Unlock()
	release := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, c := range f.subs[topic] {
			if c == ch {
				f.subs[topic] = append(f.subs[topic][:i], f.subs[topic][i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, release, nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	clock    *memClock
	profiles map[string]domain.Profile
	creates  int
}

func newMemProfileRepo(clock *memClock) *memProfileRepo {
	return &memProfileRepo{clock: clock, profiles: make(map[string]domain.Profile)}
}

func (r *memProfileRepo) GetProfileByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (r *memProfileRepo) CreateProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	stored := *p
	r.profiles[p.ID] = stored
	return &stored, nil
}

func (r *memProfileRepo) UpdateAvatar(_ context.Context, id, avatarRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.AvatarRef = avatarRef
	r.profiles[id] = p
	return nil
}

func (r *memProfileRepo) SetPresence(_ context.Context, id string, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Online = online
	p.LastSeen = time.Now()
	r.profiles[id] = p
	return nil
}

func (r *memProfileRepo) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	clock    *memClock
	sessions map[string]domain.Session
}

func newMemSessionRepo(clock *memClock) *memSessionRepo {
	return &memSessionRepo{clock: clock, sessions: make(map[string]domain.Session)}
}

func (r *memSessionRepo) GetSessionByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *memSessionRepo) ListByParticipant(_ context.Context, participantID string) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.HasParticipant(participantID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageTime.After(out[j].LastMessageTime) })
	return out, nil
}

func (r *memSessionRepo) CreateSession(_ context.Context, s *domain.Session) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *s
	stored.CreatedAt = r.clock.next()
	stored.LastMessageTime = stored.CreatedAt
	r.sessions[stored.ID] = stored
	return &stored, nil
}

func (r *memSessionRepo) UpdateSummary(_ context.Context, id, lastMessage string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.LastMessage = lastMessage
	s.LastMessageTime = at
	r.sessions[id] = s
	return nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	clock    *memClock
	messages []domain.Message
}

func newMemMessageRepo(clock *memClock) *memMessageRepo {
	return &memMessageRepo{clock: clock}
}

func (r *memMessageRepo) AppendMessage(_ context.Context, m *domain.Message) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *m
	stored.SentAt = r.clock.next()
	r.messages = append(r.messages, stored)
	return stored.SentAt, nil
}

func (r *memMessageRepo) ListBySession(_ context.Context, sessionID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out, nil
}

// stubAuth feeds scripted auth states to one watcher.
type stubAuth struct {
	mu       sync.Mutex
	states   chan domain.AuthState
	released bool
}

func newStubAuth() *stubAuth {
	return &stubAuth{states: make(chan domain.AuthState, 8)}
}

func (a *stubAuth) SignUp(context.Context, string, string, string) (*domain.Identity, string, error) {
	panic("not used")
}

func (a *stubAuth) SignIn(context.Context, string, string) (*domain.Identity, string, error) {
	panic("not used")
}

func (a *stubAuth) SignOut(context.Context, string) error { return nil }

func (a *stubAuth) Verify(context.Context, string) (*domain.Identity, error) {
	panic("not used")
}

func (a *stubAuth) UpdateIdentity(context.Context, string, *string, *string) (*domain.Identity, error) {
	panic("not used")
}

func (a *stubAuth) Watch(context.Context, string) (<-chan domain.AuthState, func(), error) {
	return a.states, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if !a.released {
			a.released = true
			close(a.states)
		}
	}, nil
}

func (a *stubAuth) emit(state domain.AuthState) { a.states <- state }

func testIdentity(name string) *domain.Identity {
	return &domain.Identity{
		ID:          "id-" + name,
		Email:       name + "@example.com",
		DisplayName: name,
	}
}

func testProfile(name string) *domain.Profile {
	return &domain.Profile{
		ID:          "id-" + name,
		DisplayName: name,
		Email:       name + "@example.com",
	}
}
