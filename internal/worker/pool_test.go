package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

type fakeRepo struct {
	mu    sync.Mutex
	saved []domain.PlaylistRecord
	err   error
	block chan struct{}
}

func (f *fakeRepo) SaveRecord(ctx context.Context, rec domain.PlaylistRecord) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeRepo) LatestRecord(context.Context, string) (domain.PlaylistRecord, error) {
	return domain.PlaylistRecord{}, domain.ErrNotFound
}

func (f *fakeRepo) ListRecords(context.Context, string) ([]domain.PlaylistRecord, error) {
	return nil, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func TestPool(t *testing.T) {
	tests := []struct {
		name      string
		repo      *fakeRepo
		queue     int
		records   int
		wantSaved int
	}{
		{name: "saves queued records", repo: &fakeRepo{}, queue: 8, records: 3, wantSaved: 3},
		{name: "repository errors are logged", repo: &fakeRepo{err: errors.New("disk full")}, queue: 8, records: 2, wantSaved: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(context.Background(), tt.repo, tt.queue, time.Second)
			p.Start(2)
			for i := 0; i < tt.records; i++ {
				p.Record(domain.PlaylistRecord{SessionID: "s1", PlaylistID: string(rune('a' + i))})
			}
			p.Stop()
			if got := tt.repo.count(); got != tt.wantSaved {
				t.Fatalf("saved: got %d, want %d", got, tt.wantSaved)
			}
		})
	}
}

func TestPoolDropsWhenFull(t *testing.T) {
	repo := &fakeRepo{block: make(chan struct{})}
	p := NewPool(context.Background(), repo, 1, time.Second)

	// No workers yet: the first record fills the queue, the second is dropped.
	p.Record(domain.PlaylistRecord{PlaylistID: "a"})
	p.Record(domain.PlaylistRecord{PlaylistID: "b"})

	p.Start(1)
	close(repo.block)
	p.Stop()

	if got := repo.count(); got != 1 {
		t.Fatalf("saved: got %d, want 1", got)
	}
}

func TestPoolRecordAfterStop(t *testing.T) {
	repo := &fakeRepo{}
	p := NewPool(context.Background(), repo, 4, time.Second)
	p.Start(1)
	p.Stop()
	p.Stop()

	p.Record(domain.PlaylistRecord{PlaylistID: "late"})
	if got := repo.count(); got != 0 {
		t.Fatalf("saved: got %d, want 0", got)
	}
}
