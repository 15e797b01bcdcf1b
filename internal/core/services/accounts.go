package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

// Accounts links sessions to catalog accounts through the OAuth2 flow.
type Accounts struct {
	store       ports.SessionStore
	auth        ports.Authorizer
	catalog     ports.Catalog
	frontendURL string
	timeout     time.Duration
}

// NewAccounts constructs an Accounts service.
func NewAccounts(store ports.SessionStore, auth ports.Authorizer, catalog ports.Catalog, frontendURL string, timeout time.Duration) *Accounts {
	if timeout <= 0 {
		timeout = DefaultCatalogTimeout
	}
	return &Accounts{
		store:       store,
		auth:        auth,
		catalog:     catalog,
		frontendURL: frontendURL,
		timeout:     timeout,
	}
}

// LoginURL returns the authorization URL carrying sessionID as OAuth state.
func (a *Accounts) LoginURL(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("service: login: %w", ErrMissingSession)
	}
	if _, err := a.store.GetOrCreate(ctx, sessionID); err != nil {
		return "", fmt.Errorf("service: failed to load session: %w", err)
	}
	return a.auth.AuthURL(sessionID), nil
}

// CompleteLogin exchanges the authorization code, resolves the catalog
// identity, stores both on the session named by state and returns the
// frontend URL to redirect to. Every failure wraps domain.ErrAuthCallbackInvalid
// and leaves the session untouched.
func (a *Accounts) CompleteLogin(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", fmt.Errorf("%w: missing code or state", domain.ErrAuthCallbackInvalid)
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	cred, err := a.auth.Exchange(callCtx, code)
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: code exchange: %w", domain.ErrAuthCallbackInvalid, err)
	}

	callCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	identity, err := a.catalog.CurrentUser(callCtx, cred.AccessToken)
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: identity lookup: %w", domain.ErrAuthCallbackInvalid, err)
	}

	err = a.store.Mutate(ctx, state, func(s *domain.Session) error {
		s.Credential = &cred
		s.Identity = &identity
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("service: failed to save credential: %w", err)
	}
	return a.redirectURL(state), nil
}

func (a *Accounts) redirectURL(sessionID string) string {
	u, err := url.Parse(a.frontendURL)
	if err != nil || a.frontendURL == "" {
		return "/?sessionId=" + url.QueryEscape(sessionID)
	}
	q := u.Query()
	q.Set("sessionId", sessionID)
	u.RawQuery = q.Encode()
	return u.String()
}
