// Package sqlite provides a SQLite-backed implementation of the playlist ledger.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

// DefaultDSN keeps the ledger in a shared in-memory database.
const DefaultDSN = "file:moodtunes?mode=memory&cache=shared"

// timeLayout is fixed width so created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Adapter implements ports.PlaylistRepository for SQLite.
type Adapter struct {
	db *sql.DB
}

var _ ports.PlaylistRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration.
func NewAdapter(dsn string) (*Adapter, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if isMemory(dsn) {
		// Every connection to a private in-memory database is a new database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// SaveRecord upserts a playlist record and its song list.
func (a *Adapter) SaveRecord(ctx context.Context, rec domain.PlaylistRecord) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO playlist_records (playlist_id, session_id, name, url, mood, rationale, track_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(playlist_id) DO UPDATE SET
			session_id=excluded.session_id,
			name=excluded.name,
			url=excluded.url,
			mood=excluded.mood,
			rationale=excluded.rationale,
			track_count=excluded.track_count,
			created_at=excluded.created_at;
	`, rec.PlaylistID, rec.SessionID, rec.Name, rec.URL, rec.Mood, rec.Rationale, rec.TrackCount, rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save playlist record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM record_songs WHERE playlist_id = ?", rec.PlaylistID); err != nil {
		return fmt.Errorf("failed to clear old songs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO record_songs (playlist_id, position, song) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare song insert: %w", err)
	}
	defer stmt.Close()

	for i, song := range rec.Songs {
		if _, err := stmt.ExecContext(ctx, rec.PlaylistID, i, song); err != nil {
			return fmt.Errorf("failed to save song %q: %w", song, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// LatestRecord returns the most recent record of a session or domain.ErrNotFound.
func (a *Adapter) LatestRecord(ctx context.Context, sessionID string) (domain.PlaylistRecord, error) {
	records, err := a.list(ctx, sessionID, 1)
	if err != nil {
		return domain.PlaylistRecord{}, err
	}
	if len(records) == 0 {
		return domain.PlaylistRecord{}, domain.ErrNotFound
	}
	return records[0], nil
}

// ListRecords returns a session's records, newest first.
func (a *Adapter) ListRecords(ctx context.Context, sessionID string) ([]domain.PlaylistRecord, error) {
	return a.list(ctx, sessionID, -1)
}

func (a *Adapter) list(ctx context.Context, sessionID string, limit int) ([]domain.PlaylistRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT playlist_id, session_id, name, url, mood, rationale, track_count, created_at
		FROM playlist_records
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist records: %w", err)
	}
	defer rows.Close()

	var records []domain.PlaylistRecord
	for rows.Next() {
		var rec domain.PlaylistRecord
		var created string
		if err := rows.Scan(&rec.PlaylistID, &rec.SessionID, &rec.Name, &rec.URL, &rec.Mood, &rec.Rationale, &rec.TrackCount, &created); err != nil {
			return nil, fmt.Errorf("failed to scan playlist record: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", created, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlist records: %w", err)
	}

	for i := range records {
		songs, err := a.songs(ctx, records[i].PlaylistID)
		if err != nil {
			return nil, err
		}
		records[i].Songs = songs
	}
	return records, nil
}

func (a *Adapter) songs(ctx context.Context, playlistID string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT song FROM record_songs WHERE playlist_id = ? ORDER BY position ASC", playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record songs: %w", err)
	}
	defer rows.Close()

	songs := []string{}
	for rows.Next() {
		var song string
		if err := rows.Scan(&song); err != nil {
			return nil, fmt.Errorf("failed to scan record song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record songs: %w", err)
	}
	return songs, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS playlist_records (
		playlist_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		mood TEXT,
		rationale TEXT,
		track_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_playlist_records_session ON playlist_records (session_id, created_at);

	CREATE TABLE IF NOT EXISTS record_songs (
		playlist_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		song TEXT NOT NULL,
		PRIMARY KEY (playlist_id, position),
		FOREIGN KEY(playlist_id) REFERENCES playlist_records(playlist_id) ON DELETE CASCADE
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}
	return nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
