package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goa.design/clue/log"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

const (
	// RefreshMargin is how close to expiry a credential is refreshed proactively.
	RefreshMargin = 60 * time.Second
	// DefaultCatalogTimeout bounds each outbound catalog call.
	DefaultCatalogTimeout = 20 * time.Second

	maxDescriptionLen = 300
)

// Resolution is the outcome of one Resolve call.
type Resolution struct {
	// Built is false when no song resolved; no playlist was created then.
	Built    bool
	Playlist domain.Playlist
	// Credential is the credential in force after the call, refreshed when
	// Refreshed is true.
	Credential domain.Credential
	Refreshed  bool
	Identity   domain.Identity
	// Suggestions holds the resolved tracks in resolution order.
	Suggestions []domain.Suggestion
	Unresolved  []string
}

// ResolveRequest is the input of Resolve.
type ResolveRequest struct {
	Credential domain.Credential
	// Identity may be nil, in which case it is looked up.
	Identity       *domain.Identity
	Recommendation domain.Recommendation
	Songs          []string
	Language       string
}

// Resolver turns song descriptors into a catalog playlist.
type Resolver struct {
	catalog ports.Catalog
	auth    ports.Authorizer
	timeout time.Duration
	now     func() time.Time
}

// NewResolver constructs a Resolver. timeout <= 0 selects DefaultCatalogTimeout.
func NewResolver(catalog ports.Catalog, auth ports.Authorizer, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultCatalogTimeout
	}
	return &Resolver{
		catalog: catalog,
		auth:    auth,
		timeout: timeout,
		now:     time.Now,
	}
}

// Resolve refreshes the credential when close to expiry, searches each song
// once and, if at least one resolved, creates a playlist named after the mood
// and inserts the tracks in resolution order. Failures are returned as
// *domain.CatalogStepError. When insertion fails the created playlist is
// removed best-effort.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (Resolution, error) {
	cred, identity, rec := req.Credential, req.Identity, req.Recommendation
	res := Resolution{Credential: cred}

	if cred.ExpiresWithin(r.now(), RefreshMargin) {
		fresh, err := r.refresh(ctx, cred)
		if err != nil {
			return res, &domain.CatalogStepError{Step: domain.StepRefresh, Err: err}
		}
		res.Credential, res.Refreshed = fresh, true
	}
	token := res.Credential.AccessToken

	if identity != nil && identity.ID != "" {
		res.Identity = *identity
	} else {
		callCtx, cancel := r.callContext(ctx)
		id, err := r.catalog.CurrentUser(callCtx, token)
		cancel()
		if err != nil {
			return res, &domain.CatalogStepError{Step: domain.StepIdentity, Err: err}
		}
		res.Identity = id
	}

	tracks := make([]domain.Track, 0, len(req.Songs))
	for _, song := range req.Songs {
		callCtx, cancel := r.callContext(ctx)
		track, found, err := r.catalog.SearchTrack(callCtx, token, song)
		cancel()
		if err != nil {
			return res, &domain.CatalogStepError{Step: domain.StepSearch, Err: fmt.Errorf("search %q: %w", song, err)}
		}
		if !found || track.URI == "" {
			res.Unresolved = append(res.Unresolved, song)
			continue
		}
		tracks = append(tracks, track)
		t := track
		res.Suggestions = append(res.Suggestions, domain.Suggestion{Query: song, Resolved: true, Track: &t})
	}
	if len(tracks) == 0 {
		return res, nil
	}

	spec := domain.PlaylistSpec{
		Name:        domain.PlaylistName(rec.Mood),
		Description: description(rec, req.Language),
		Public:      false,
	}
	callCtx, cancel := r.callContext(ctx)
	playlist, err := r.catalog.CreatePlaylist(callCtx, token, res.Identity.ID, spec)
	cancel()
	if err != nil {
		return res, &domain.CatalogStepError{Step: domain.StepCreate, Err: err}
	}

	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uris = append(uris, t.URI)
	}
	callCtx, cancel = r.callContext(ctx)
	err = r.catalog.AddTracks(callCtx, token, playlist.ID, uris)
	cancel()
	if err != nil {
		stepErr := &domain.CatalogStepError{Step: domain.StepInsert, PlaylistID: playlist.ID, Err: err}
		cleanCtx, cancel := r.callContext(ctx)
		if delErr := r.catalog.DeletePlaylist(cleanCtx, token, playlist.ID); delErr != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "service: orphan playlist cleanup failed"},
				log.KV{K: "playlist", V: playlist.ID}, log.KV{K: "err", V: delErr.Error()})
		} else {
			stepErr.Cleaned = true
		}
		cancel()
		return res, stepErr
	}

	playlist.Tracks = tracks
	if playlist.Name == "" {
		playlist.Name = spec.Name
	}
	res.Playlist = playlist
	res.Built = true
	return res, nil
}

func (r *Resolver) refresh(ctx context.Context, cred domain.Credential) (domain.Credential, error) {
	if r.auth == nil {
		return domain.Credential{}, errors.New("no authorizer configured")
	}
	callCtx, cancel := r.callContext(ctx)
	defer cancel()
	fresh, err := r.auth.Refresh(callCtx, cred)
	if err != nil {
		return domain.Credential{}, err
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cred.RefreshToken
	}
	return fresh, nil
}

// callContext detaches from the caller's cancellation and bounds the call.
func (r *Resolver) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
}

func description(rec domain.Recommendation, lang string) string {
	d := fmt.Sprintf(phrases(lang).description, rec.Mood, rec.Rationale)
	runes := []rune(d)
	if len(runes) > maxDescriptionLen {
		d = string(runes[:maxDescriptionLen])
	}
	return d
}
