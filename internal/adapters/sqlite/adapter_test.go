package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

func record(session, playlist string, at time.Time, songs ...string) domain.PlaylistRecord {
	return domain.PlaylistRecord{
		SessionID:  session,
		PlaylistID: playlist,
		Name:       "MoodTunes - Calmo",
		URL:        "https://open.spotify.com/playlist/" + playlist,
		Mood:       "calmo",
		Rationale:  "para relaxar",
		Songs:      songs,
		TrackCount: len(songs),
		CreatedAt:  at,
	}
}

func TestAdapter_LatestRecord(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setup     func(t *testing.T, a *Adapter)
		session   string
		wantErr   error
		wantID    string
		wantSongs []string
	}{
		{
			name:    "not found",
			setup:   func(t *testing.T, a *Adapter) {},
			session: "missing",
			wantErr: domain.ErrNotFound,
		},
		{
			name: "returns newest record with songs in order",
			setup: func(t *testing.T, a *Adapter) {
				for _, rec := range []domain.PlaylistRecord{
					record("s1", "pl-old", base, "A - X"),
					record("s1", "pl-new", base.Add(time.Minute), "C - Z", "B - Y"),
					record("s2", "pl-other", base.Add(time.Hour), "D - W"),
				} {
					if err := a.SaveRecord(context.Background(), rec); err != nil {
						t.Fatalf("save record: %v", err)
					}
				}
			},
			session:   "s1",
			wantID:    "pl-new",
			wantSongs: []string{"C - Z", "B - Y"},
		},
		{
			name: "orders within the same second",
			setup: func(t *testing.T, a *Adapter) {
				for _, rec := range []domain.PlaylistRecord{
					record("s1", "pl-later", base.Add(123456789*time.Nanosecond), "A - X"),
					record("s1", "pl-earlier", base.Add(120*time.Millisecond), "B - Y"),
				} {
					if err := a.SaveRecord(context.Background(), rec); err != nil {
						t.Fatalf("save record: %v", err)
					}
				}
			},
			session:   "s1",
			wantID:    "pl-later",
			wantSongs: []string{"A - X"},
		},
		{
			name: "upsert replaces songs",
			setup: func(t *testing.T, a *Adapter) {
				if err := a.SaveRecord(context.Background(), record("s1", "pl-1", base, "A - X", "B - Y")); err != nil {
					t.Fatalf("save record: %v", err)
				}
				if err := a.SaveRecord(context.Background(), record("s1", "pl-1", base, "E - V")); err != nil {
					t.Fatalf("save record: %v", err)
				}
			},
			session:   "s1",
			wantID:    "pl-1",
			wantSongs: []string{"E - V"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAdapter(":memory:")
			if err != nil {
				t.Fatalf("new adapter: %v", err)
			}
			defer a.Close()

			tt.setup(t, a)
			got, err := a.LatestRecord(context.Background(), tt.session)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.PlaylistID != tt.wantID {
				t.Fatalf("playlist id: got %q, want %q", got.PlaylistID, tt.wantID)
			}
			if len(got.Songs) != len(tt.wantSongs) {
				t.Fatalf("songs: got %v, want %v", got.Songs, tt.wantSongs)
			}
			for i := range tt.wantSongs {
				if got.Songs[i] != tt.wantSongs[i] {
					t.Fatalf("song %d: got %q, want %q", i, got.Songs[i], tt.wantSongs[i])
				}
			}
			if got.Mood != "calmo" || got.URL == "" {
				t.Fatalf("record fields not populated: %+v", got)
			}
		})
	}
}

func TestAdapter_ListRecords(t *testing.T) {
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	defer a.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"pl-1", "pl-2", "pl-3"} {
		if err := a.SaveRecord(context.Background(), record("s1", id, base.Add(time.Duration(i)*time.Second), "A - X")); err != nil {
			t.Fatalf("save record: %v", err)
		}
	}

	got, err := a.ListRecords(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("records: got %d, want 3", len(got))
	}
	if got[0].PlaylistID != "pl-3" || got[2].PlaylistID != "pl-1" {
		t.Fatalf("order: got %s..%s", got[0].PlaylistID, got[2].PlaylistID)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("created_at: got %v", got[0].CreatedAt)
	}

	empty, err := a.ListRecords(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no records, got %d", len(empty))
	}
}
