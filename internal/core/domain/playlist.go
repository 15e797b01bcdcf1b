package domain

import (
	"errors"
	"time"
)

// Playlist is a playlist created in the external catalog.
type Playlist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	Tracks []Track `json:"tracks,omitempty"`
}

// PlaylistSpec describes a playlist to be created.
type PlaylistSpec struct {
	Name        string
	Description string
	Public      bool
}

// PlaylistRecord is the ledger entry written after a playlist is built.
type PlaylistRecord struct {
	SessionID  string    `json:"sessionId"`
	PlaylistID string    `json:"playlistId"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Mood       string    `json:"mood"`
	Rationale  string    `json:"rationale"`
	Songs      []string  `json:"songs"`
	TrackCount int       `json:"trackCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewPlaylistRecord builds a ledger entry for a built playlist.
func NewPlaylistRecord(sessionID string, p Playlist, rec Recommendation, at time.Time) (PlaylistRecord, error) {
	if sessionID == "" || p.ID == "" {
		return PlaylistRecord{}, errors.New("domain: invalid argument")
	}
	return PlaylistRecord{
		SessionID:  sessionID,
		PlaylistID: p.ID,
		Name:       p.Name,
		URL:        p.URL,
		Mood:       rec.Mood,
		Rationale:  rec.Rationale,
		Songs:      append([]string(nil), rec.Songs...),
		TrackCount: len(p.Tracks),
		CreatedAt:  at.UTC(),
	}, nil
}
