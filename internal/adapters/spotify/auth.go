package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

// Spotify accounts service endpoints.
const (
	AuthURL  = "https://accounts.spotify.com/authorize"
	TokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes needed to read the profile and write playlists.
var Scopes = []string{"playlist-modify-public", "playlist-modify-private", "user-read-email"}

// Authorizer runs the OAuth2 authorization-code and refresh-token flows
// against the Spotify accounts service.
type Authorizer struct {
	cfg        *oauth2.Config
	httpClient *http.Client
}

var _ ports.Authorizer = (*Authorizer)(nil)

// NewAuthorizer constructs an Authorizer. endpoint overrides the accounts
// service URLs when non-zero; httpClient may be nil.
func NewAuthorizer(clientID, clientSecret, redirectURL string, endpoint oauth2.Endpoint, httpClient *http.Client) *Authorizer {
	if endpoint.AuthURL == "" {
		endpoint.AuthURL = AuthURL
	}
	if endpoint.TokenURL == "" {
		endpoint.TokenURL = TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInHeader
	return &Authorizer{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
	}
}

// AuthURL returns the consent URL carrying state.
func (a *Authorizer) AuthURL(state string) string {
	return a.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "false"))
}

// Exchange trades an authorization code for a credential.
func (a *Authorizer) Exchange(ctx context.Context, code string) (domain.Credential, error) {
	tok, err := a.cfg.Exchange(a.context(ctx), code)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("spotify adapter: code exchange: %w", classify(err))
	}
	return toCredential(tok, ""), nil
}

// Refresh obtains a new access token. The refresh token is kept when Spotify
// does not rotate it.
func (a *Authorizer) Refresh(ctx context.Context, cred domain.Credential) (domain.Credential, error) {
	if cred.RefreshToken == "" {
		return domain.Credential{}, fmt.Errorf("spotify adapter: refresh: %w", domain.ErrCredentialRevoked)
	}
	src := a.cfg.TokenSource(a.context(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("spotify adapter: refresh: %w", classify(err))
	}
	return toCredential(tok, cred.RefreshToken), nil
}

func (a *Authorizer) context(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// classify maps a rejected grant to domain.ErrCredentialRevoked.
func classify(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		return fmt.Errorf("%w: %w", domain.ErrCredentialRevoked, err)
	}
	return err
}

func toCredential(tok *oauth2.Token, fallbackRefresh string) domain.Credential {
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = fallbackRefresh
	}
	return domain.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		Expiry:       tok.Expiry,
	}
}
