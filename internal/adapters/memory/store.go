// Package memory provides an in-process session store with optional idle
// expiry and a capacity bound.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"goa.design/clue/log"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

type (
	// Options bounds the store. Zero values disable the bound.
	Options struct {
		// TTL evicts sessions idle for longer than this.
		TTL time.Duration
		// Capacity evicts the least recently used session when exceeded.
		Capacity int
	}

	// Store is safe for concurrent use. Mutate serializes calls per session
	// id; different sessions never wait on each other's work.
	Store struct {
		opts  Options
		locks *Locker
		now   func() time.Time

		mu       sync.Mutex
		sessions map[string]*entry
	}

	entry struct {
		session  *domain.Session
		lastSeen time.Time
	}
)

var _ ports.SessionStore = (*Store)(nil)

// New returns an empty Store.
func New(opts Options) *Store {
	return &Store{
		opts:     opts,
		locks:    NewLocker(),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// GetOrCreate implements ports.SessionStore.
func (s *Store) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, errors.New("memory store: session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, id).Clone(), nil
}

// Get implements ports.SessionStore.
func (s *Store) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || s.expired(e, s.now()) {
		return nil, domain.ErrNotFound
	}
	e.lastSeen = s.now()
	return e.session.Clone(), nil
}

// Mutate implements ports.SessionStore. fn works on a private copy which is
// written back once fn returns, whatever its result.
func (s *Store) Mutate(ctx context.Context, id string, fn func(*domain.Session) error) error {
	if id == "" {
		return errors.New("memory store: session id is required")
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	s.mu.Lock()
	working := s.load(ctx, id).Clone()
	s.mu.Unlock()

	err := fn(working)

	s.mu.Lock()
	s.sessions[id] = &entry{session: working, lastSeen: s.now()}
	s.evictOverflow(ctx, id)
	s.mu.Unlock()
	return err
}

// Len returns the number of stored sessions, expired ones included until the
// next sweep.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep(ctx context.Context) int {
	if s.opts.TTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		log.Debugf(ctx, "memory store: swept %d idle sessions", n)
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.opts.TTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// load returns the live session for id, replacing an expired one. Callers
// hold s.mu.
func (s *Store) load(ctx context.Context, id string) *domain.Session {
	now := s.now()
	e, ok := s.sessions[id]
	if ok && !s.expired(e, now) {
		e.lastSeen = now
		return e.session
	}
	e = &entry{session: domain.NewSession(id, now), lastSeen: now}
	s.sessions[id] = e
	s.evictOverflow(ctx, id)
	return e.session
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.opts.TTL > 0 && now.Sub(e.lastSeen) > s.opts.TTL
}

// evictOverflow drops least recently seen sessions other than keep until the
// capacity holds. Callers hold s.mu.
func (s *Store) evictOverflow(ctx context.Context, keep string) {
	if s.opts.Capacity <= 0 {
		return
	}
	for len(s.sessions) > s.opts.Capacity {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, e := range s.sessions {
			if id == keep {
				continue
			}
			if oldestID == "" || e.lastSeen.Before(oldest) {
				oldestID, oldest = id, e.lastSeen
			}
		}
		if oldestID == "" {
			return
		}
		delete(s.sessions, oldestID)
		log.Debugf(ctx, "memory store: evicted session %s over capacity %d", oldestID, s.opts.Capacity)
	}
}
