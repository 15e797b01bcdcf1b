package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

// --- Mocks ---

// fakeStore is a map-backed session store with one global lock.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*domain.Session)}
}

func (f *fakeStore) GetOrCreate(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(id).Clone(), nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (f *fakeStore) Mutate(_ context.Context, id string, fn func(*domain.Session) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.load(id).Clone()
	err := fn(s)
	f.sessions[id] = s
	return err
}

func (f *fakeStore) load(id string) *domain.Session {
	s, ok := f.sessions[id]
	if !ok {
		s = domain.NewSession(id, testNow)
		f.sessions[id] = s
	}
	return s
}

// scriptedLLM returns replies in order; when exhausted it repeats the last one.
type scriptedLLM struct {
	replies  []string
	err      error
	requests []ports.CompletionRequest
}

func (m *scriptedLLM) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "ok", nil
	}
	idx := len(m.requests) - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return m.replies[idx], nil
}

func (m *scriptedLLM) last() ports.CompletionRequest {
	return m.requests[len(m.requests)-1]
}

// fakeCatalog resolves queries from a fixed table and records every call.
type fakeCatalog struct {
	tracks    map[string]domain.Track
	identity  domain.Identity
	searchErr error
	createErr error
	addErr    error
	deleteErr error

	calls        []string
	tokens       []string
	addedURIs    []string
	deletedIDs   []string
	createdSpecs []domain.PlaylistSpec
}

func (f *fakeCatalog) CurrentUser(_ context.Context, token string) (domain.Identity, error) {
	f.calls = append(f.calls, "me")
	f.tokens = append(f.tokens, token)
	return f.identity, nil
}

func (f *fakeCatalog) SearchTrack(_ context.Context, token, query string) (domain.Track, bool, error) {
	f.calls = append(f.calls, "search:"+query)
	f.tokens = append(f.tokens, token)
	if f.searchErr != nil {
		return domain.Track{}, false, f.searchErr
	}
	t, ok := f.tracks[query]
	return t, ok, nil
}

func (f *fakeCatalog) CreatePlaylist(_ context.Context, token, userID string, spec domain.PlaylistSpec) (domain.Playlist, error) {
	f.calls = append(f.calls, "create:"+userID)
	f.tokens = append(f.tokens, token)
	f.createdSpecs = append(f.createdSpecs, spec)
	if f.createErr != nil {
		return domain.Playlist{}, f.createErr
	}
	return domain.Playlist{ID: "pl-1", Name: spec.Name, URL: "https://open.spotify.com/playlist/pl-1"}, nil
}

func (f *fakeCatalog) AddTracks(_ context.Context, token, playlistID string, uris []string) error {
	f.calls = append(f.calls, "add:"+playlistID)
	f.tokens = append(f.tokens, token)
	if f.addErr != nil {
		return f.addErr
	}
	f.addedURIs = append(f.addedURIs, uris...)
	return nil
}

func (f *fakeCatalog) DeletePlaylist(_ context.Context, token, playlistID string) error {
	f.calls = append(f.calls, "delete:"+playlistID)
	f.deletedIDs = append(f.deletedIDs, playlistID)
	return f.deleteErr
}

func (f *fakeCatalog) mutated() bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, "create:") || strings.HasPrefix(c, "add:") {
			return true
		}
	}
	return false
}

// fakeAuth issues deterministic credentials.
type fakeAuth struct {
	exchangeErr error
	refreshErr  error
	refreshed   int
}

func (f *fakeAuth) AuthURL(state string) string {
	return "https://accounts.example/authorize?state=" + state
}

func (f *fakeAuth) Exchange(_ context.Context, code string) (domain.Credential, error) {
	if f.exchangeErr != nil {
		return domain.Credential{}, f.exchangeErr
	}
	return domain.Credential{AccessToken: "at-" + code, RefreshToken: "rt-" + code, Expiry: testNow.Add(time.Hour)}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, cred domain.Credential) (domain.Credential, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return domain.Credential{}, f.refreshErr
	}
	return domain.Credential{AccessToken: fmt.Sprintf("fresh-%d", f.refreshed), Expiry: testNow.Add(time.Hour)}, nil
}

// fakeRecorder keeps recorded entries.
type fakeRecorder struct {
	records []domain.PlaylistRecord
}

func (f *fakeRecorder) Record(rec domain.PlaylistRecord) {
	f.records = append(f.records, rec)
}

var errBoom = errors.New("boom")
