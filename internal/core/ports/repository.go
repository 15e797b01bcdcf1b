package ports

import (
	"context"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

// SessionStore holds sessions keyed by identifier.
type SessionStore interface {
	// GetOrCreate returns a snapshot of the session, creating it when unknown.
	GetOrCreate(ctx context.Context, id string) (*domain.Session, error)
	// Get returns a snapshot of the session or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Mutate runs fn on the session under a per-session lock, creating the
	// session when unknown. The state fn leaves behind is saved even when fn
	// returns an error, and that error is returned.
	Mutate(ctx context.Context, id string, fn func(s *domain.Session) error) error
}

// PlaylistRepository persists built playlist records.
type PlaylistRepository interface {
	SaveRecord(ctx context.Context, rec domain.PlaylistRecord) error
	LatestRecord(ctx context.Context, sessionID string) (domain.PlaylistRecord, error)
	ListRecords(ctx context.Context, sessionID string) ([]domain.PlaylistRecord, error)
}

// PlaylistRecorder accepts records to persist off the request path.
type PlaylistRecorder interface {
	Record(rec domain.PlaylistRecord)
}
