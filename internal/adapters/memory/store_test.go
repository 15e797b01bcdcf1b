package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(opts Options) (*Store, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := New(opts)
	s.now = c.now
	return s, c
}

func TestStoreGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(Options{})

	_, err := s.Get(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	created, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "s1", created.ID)
	require.Equal(t, domain.PhaseGathering, created.Phase)

	created.Append(domain.RoleUser, "changed outside")
	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, got.History, "snapshots must not alias stored state")

	_, err = s.GetOrCreate(ctx, "")
	require.Error(t, err)
}

func TestStoreMutateSavesOnError(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(Options{})
	boom := errors.New("boom")

	err := s.Mutate(ctx, "s1", func(sess *domain.Session) error {
		sess.Append(domain.RoleUser, "oi")
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.History, 1)
}

func TestStoreMutateSerializesPerSession(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := "shared"
			if i%2 == 1 {
				sid = "other"
			}
			err := s.Mutate(ctx, sid, func(sess *domain.Session) error {
				sess.Append(domain.RoleUser, fmt.Sprintf("msg %d", i))
				sess.Offered.Admit([]string{fmt.Sprintf("Artist - Song %d", i)})
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	shared, err := s.Get(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, shared.History, 25)
	require.Equal(t, 25, shared.Offered.Len())

	other, err := s.Get(ctx, "other")
	require.NoError(t, err)
	require.Len(t, other.History, 25)
	require.Zero(t, s.locks.size())
}

func TestStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(Options{TTL: time.Minute})

	require.NoError(t, s.Mutate(ctx, "s1", func(sess *domain.Session) error {
		sess.Append(domain.RoleUser, "oi")
		return nil
	}))
	_, err := s.GetOrCreate(ctx, "s2")
	require.NoError(t, err)

	c.advance(30 * time.Second)
	_, err = s.Get(ctx, "s2")
	require.NoError(t, err, "reads refresh idle time")

	c.advance(45 * time.Second)
	_, err = s.Get(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	fresh, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, fresh.History, "expired session is replaced")

	c.advance(2 * time.Minute)
	require.Equal(t, 2, s.Sweep(ctx))
	require.Zero(t, s.Len())
}

func TestStoreCapacity(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(Options{Capacity: 2})

	for _, id := range []string{"a", "b"} {
		_, err := s.GetOrCreate(ctx, id)
		require.NoError(t, err)
		c.advance(time.Second)
	}
	_, err := s.Get(ctx, "a")
	require.NoError(t, err)
	c.advance(time.Second)

	_, err = s.GetOrCreate(ctx, "c")
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	_, err = s.Get(ctx, "b")
	require.ErrorIs(t, err, domain.ErrNotFound, "least recently seen is evicted")
	_, err = s.Get(ctx, "a")
	require.NoError(t, err)
}

func TestStoreRunJanitor(t *testing.T) {
	s, c := newTestStore(Options{TTL: time.Millisecond})
	_, err := s.GetOrCreate(context.Background(), "s1")
	require.NoError(t, err)
	c.advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
