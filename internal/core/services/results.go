package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

// Results reads built playlists back from the ledger.
type Results struct {
	repo ports.PlaylistRepository
}

// NewResults constructs a Results service.
func NewResults(repo ports.PlaylistRepository) *Results {
	return &Results{repo: repo}
}

// Latest returns the newest playlist record of a session or domain.ErrNotFound.
func (r *Results) Latest(ctx context.Context, sessionID string) (domain.PlaylistRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.PlaylistRecord{}, ErrMissingSession
	}
	rec, err := r.repo.LatestRecord(ctx, sessionID)
	if err != nil {
		return domain.PlaylistRecord{}, fmt.Errorf("service: failed to load mood result: %w", err)
	}
	return rec, nil
}

// History returns every playlist record of a session, newest first.
func (r *Results) History(ctx context.Context, sessionID string) ([]domain.PlaylistRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrMissingSession
	}
	recs, err := r.repo.ListRecords(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list mood results: %w", err)
	}
	if recs == nil {
		recs = []domain.PlaylistRecord{}
	}
	return recs, nil
}
