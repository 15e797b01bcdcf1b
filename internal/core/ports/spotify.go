package ports

import (
	"context"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

// Catalog is the token-authenticated music catalog API.
type Catalog interface {
	CurrentUser(ctx context.Context, accessToken string) (domain.Identity, error)
	// SearchTrack returns the single best match for a free-text query; found is
	// false when the catalog has no result.
	SearchTrack(ctx context.Context, accessToken string, query string) (track domain.Track, found bool, err error)
	CreatePlaylist(ctx context.Context, accessToken string, userID string, spec domain.PlaylistSpec) (domain.Playlist, error)
	AddTracks(ctx context.Context, accessToken string, playlistID string, uris []string) error
	DeletePlaylist(ctx context.Context, accessToken string, playlistID string) error
}

// Authorizer runs the catalog OAuth2 authorization-code and refresh flows.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (domain.Credential, error)
	// Refresh returns a new credential; it wraps domain.ErrCredentialRevoked
	// when the refresh token is no longer accepted.
	Refresh(ctx context.Context, cred domain.Credential) (domain.Credential, error)
}
