package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestResolver(c *fakeCatalog, a *fakeAuth) *Resolver {
	r := NewResolver(c, a, time.Second)
	r.now = func() time.Time { return testNow }
	return r
}

func catalogWith(songs ...string) *fakeCatalog {
	c := &fakeCatalog{
		tracks:   make(map[string]domain.Track),
		identity: domain.Identity{ID: "user-1", DisplayName: "Ana"},
	}
	for i, s := range songs {
		c.tracks[s] = domain.Track{ID: s, URI: "spotify:track:" + string(rune('a'+i))}
	}
	return c
}

func validCred() domain.Credential {
	return domain.Credential{AccessToken: "at", RefreshToken: "rt", Expiry: testNow.Add(time.Hour)}
}

func TestResolver_Resolve(t *testing.T) {
	rec := domain.Recommendation{Mood: "calmo", Rationale: "para relaxar"}

	t.Run("builds in resolution order and drops unresolved", func(t *testing.T) {
		c := catalogWith("A - 1", "C - 3")
		r := newTestResolver(c, &fakeAuth{})
		res, err := r.Resolve(context.Background(), ResolveRequest{
			Credential:     validCred(),
			Recommendation: rec,
			Songs:          []string{"A - 1", "B - 2", "C - 3"},
		})
		require.NoError(t, err)
		require.True(t, res.Built)
		require.Equal(t, "MoodTunes - Calmo", res.Playlist.Name)
		require.NotEmpty(t, res.Playlist.URL)
		require.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, c.addedURIs)
		require.Equal(t, []string{"B - 2"}, res.Unresolved)
		require.Len(t, res.Suggestions, 2)
		require.Equal(t, "user-1", res.Identity.ID)
		require.False(t, res.Refreshed)
		require.Equal(t, []string{"me", "search:A - 1", "search:B - 2", "search:C - 3", "create:user-1", "add:pl-1"}, c.calls)
		require.Len(t, c.createdSpecs, 1)
		require.False(t, c.createdSpecs[0].Public)
	})

	t.Run("nothing resolved creates nothing", func(t *testing.T) {
		c := catalogWith()
		r := newTestResolver(c, &fakeAuth{})
		res, err := r.Resolve(context.Background(), ResolveRequest{
			Credential:     validCred(),
			Identity:       &domain.Identity{ID: "cached"},
			Recommendation: rec,
			Songs:          []string{"X - 1", "Y - 2"},
		})
		require.NoError(t, err)
		require.False(t, res.Built)
		require.False(t, c.mutated())
		require.Equal(t, []string{"X - 1", "Y - 2"}, res.Unresolved)
	})

	t.Run("refreshes near expiry and uses the new token", func(t *testing.T) {
		c := catalogWith("A - 1")
		a := &fakeAuth{}
		r := newTestResolver(c, a)
		cred := validCred()
		cred.Expiry = testNow.Add(30 * time.Second)
		res, err := r.Resolve(context.Background(), ResolveRequest{
			Credential:     cred,
			Identity:       &domain.Identity{ID: "user-1"},
			Recommendation: rec,
			Songs:          []string{"A - 1"},
		})
		require.NoError(t, err)
		require.True(t, res.Refreshed)
		require.Equal(t, "fresh-1", res.Credential.AccessToken)
		require.Equal(t, "rt", res.Credential.RefreshToken)
		for _, tok := range c.tokens {
			require.Equal(t, "fresh-1", tok)
		}
	})

	t.Run("revoked refresh fails the refresh step", func(t *testing.T) {
		c := catalogWith("A - 1")
		r := newTestResolver(c, &fakeAuth{refreshErr: domain.ErrCredentialRevoked})
		cred := validCred()
		cred.Expiry = testNow
		_, err := r.Resolve(context.Background(), ResolveRequest{Credential: cred, Recommendation: rec, Songs: []string{"A - 1"}})
		var stepErr *domain.CatalogStepError
		require.ErrorAs(t, err, &stepErr)
		require.Equal(t, domain.StepRefresh, stepErr.Step)
		require.ErrorIs(t, err, domain.ErrCredentialRevoked)
		require.ErrorIs(t, err, domain.ErrUpstreamCatalog)
		require.Empty(t, c.calls)
	})

	t.Run("search failure", func(t *testing.T) {
		c := catalogWith("A - 1")
		c.searchErr = errBoom
		r := newTestResolver(c, &fakeAuth{})
		_, err := r.Resolve(context.Background(), ResolveRequest{Credential: validCred(), Identity: &domain.Identity{ID: "u"}, Songs: []string{"A - 1"}})
		var stepErr *domain.CatalogStepError
		require.ErrorAs(t, err, &stepErr)
		require.Equal(t, domain.StepSearch, stepErr.Step)
		require.False(t, c.mutated())
	})

	t.Run("insert failure cleans up the playlist", func(t *testing.T) {
		c := catalogWith("A - 1")
		c.addErr = errBoom
		r := newTestResolver(c, &fakeAuth{})
		_, err := r.Resolve(context.Background(), ResolveRequest{Credential: validCred(), Identity: &domain.Identity{ID: "u"}, Songs: []string{"A - 1"}})
		var stepErr *domain.CatalogStepError
		require.ErrorAs(t, err, &stepErr)
		require.Equal(t, domain.StepInsert, stepErr.Step)
		require.Equal(t, "pl-1", stepErr.PlaylistID)
		require.True(t, stepErr.Cleaned)
		require.Equal(t, []string{"pl-1"}, c.deletedIDs)
	})

	t.Run("cleanup failure is reported", func(t *testing.T) {
		c := catalogWith("A - 1")
		c.addErr = errBoom
		c.deleteErr = errors.New("forbidden")
		r := newTestResolver(c, &fakeAuth{})
		_, err := r.Resolve(context.Background(), ResolveRequest{Credential: validCred(), Identity: &domain.Identity{ID: "u"}, Songs: []string{"A - 1"}})
		var stepErr *domain.CatalogStepError
		require.ErrorAs(t, err, &stepErr)
		require.False(t, stepErr.Cleaned)
		require.ErrorIs(t, err, errBoom)
	})
}

func TestDescription_IsBounded(t *testing.T) {
	long := make([]rune, 500)
	for i := range long {
		long[i] = 'é'
	}
	d := description(domain.Recommendation{Mood: "m", Rationale: string(long)}, "pt")
	require.Len(t, []rune(d), maxDescriptionLen)
}
