// Package redis stores sessions as JSON documents in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"goa.design/clue/log"

	"github.com/ewilliams-labs/moodtunes/internal/adapters/memory"
	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

const (
	// DefaultPrefix namespaces session keys.
	DefaultPrefix = "moodtunes:session:"
	// DefaultTTL is applied when Options.TTL is zero.
	DefaultTTL = 24 * time.Hour
)

// Options configures a Store.
type Options struct {
	Prefix string
	TTL    time.Duration
}

// Store implements ports.SessionStore on top of a Redis client. Keys expire
// after TTL of inactivity; reads and writes refresh it.
//
// Mutate serializes calls for a session within this process only. Run a
// single API replica per Redis database or route a session to one replica.
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	locks  *memory.Locker
	now    func() time.Time
}

var _ ports.SessionStore = (*Store)(nil)

// New wraps client. The caller owns the client and closes it.
func New(client *goredis.Client, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Store{
		client: client,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		locks:  memory.NewLocker(),
		now:    time.Now,
	}
}

// GetOrCreate implements ports.SessionStore.
func (s *Store) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, errors.New("redis store: session id is required")
	}
	sess, err := s.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	sess = domain.NewSession(id, s.now())
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("redis store: encode session %s: %w", id, err)
	}
	created, err := s.client.SetNX(ctx, s.key(id), data, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: create session %s: %w", id, err)
	}
	if !created {
		// Lost a race with another creator; theirs wins.
		return s.Get(ctx, id)
	}
	return sess, nil
}

// Get implements ports.SessionStore.
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	key := s.key(id)
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: read session %s: %w", id, err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("redis store: decode session %s: %w", id, err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		log.Debugf(ctx, "redis store: refresh ttl for %s: %v", id, err)
	}
	return &sess, nil
}

// Mutate implements ports.SessionStore. The session is written back after fn
// returns even when fn fails; the write is not tied to ctx cancellation.
func (s *Store) Mutate(ctx context.Context, id string, fn func(*domain.Session) error) error {
	if id == "" {
		return errors.New("redis store: session id is required")
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return err
	}

	fnErr := fn(sess)

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redis store: encode session %s: %w", id, err)
	}
	if err := s.client.Set(context.WithoutCancel(ctx), s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis store: save session %s: %w", id, err)
	}
	return fnErr
}

func (s *Store) key(id string) string {
	return s.prefix + id
}
