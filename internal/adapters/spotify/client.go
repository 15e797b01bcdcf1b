package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"goa.design/clue/log"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

// DefaultBaseURL is the Spotify Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// APIError is a non-2xx response from the Spotify Web API.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify adapter: %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("spotify adapter: %s: status %d", e.Op, e.Status)
}

// Client is an HTTP client for the Spotify Web API. Every call is a single
// attempt authenticated with the caller's access token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	// minScore drops search hits whose similarity to the descriptor is lower.
	minScore float64
}

// compile-time interface assertion
var _ ports.Catalog = (*Client)(nil)

// NewClient constructs a new Spotify client. An empty baseURL selects
// DefaultBaseURL; minScore <= 0 accepts the first search hit as is.
func NewClient(httpClient *http.Client, baseURL string, minScore float64) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		minScore:   minScore,
	}
}

// CurrentUser resolves the identity owning the access token.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (domain.Identity, error) {
	var u spotifyUser
	if err := c.do(ctx, "current user", http.MethodGet, c.baseURL+"/me", accessToken, nil, &u); err != nil {
		return domain.Identity{}, err
	}
	if u.ID == "" {
		return domain.Identity{}, fmt.Errorf("spotify adapter: current user: empty id")
	}
	return mapUserToDomain(u), nil
}

// SearchTrack runs a free-text track search restricted to the single best hit.
func (c *Client) SearchTrack(ctx context.Context, accessToken string, query string) (domain.Track, bool, error) {
	searchURL, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return domain.Track{}, false, fmt.Errorf("spotify adapter: invalid search url: %w", err)
	}
	q := searchURL.Query()
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", "1")
	searchURL.RawQuery = q.Encode()

	log.Debugf(ctx, "spotify adapter: search request URL: %s", searchURL.String())

	var body searchResponse
	if err := c.do(ctx, "search", http.MethodGet, searchURL.String(), accessToken, nil, &body); err != nil {
		return domain.Track{}, false, err
	}
	if len(body.Tracks.Items) == 0 {
		return domain.Track{}, false, nil
	}

	track := mapTrackToDomain(body.Tracks.Items[0])
	if c.minScore > 0 {
		score := ScoreResult(query, track)
		log.Debugf(ctx, "spotify adapter: match %s - %s (score %.2f)", track.Artist, track.Title, score)
		if score < c.minScore {
			return domain.Track{}, false, nil
		}
	}
	return track, true, nil
}

// CreatePlaylist creates a playlist owned by userID.
func (c *Client) CreatePlaylist(ctx context.Context, accessToken string, userID string, spec domain.PlaylistSpec) (domain.Playlist, error) {
	endpoint := fmt.Sprintf("%s/users/%s/playlists", c.baseURL, url.PathEscape(userID))
	reqBody := createPlaylistRequest{Name: spec.Name, Description: spec.Description, Public: spec.Public}

	var sp spotifyPlaylist
	if err := c.do(ctx, "create playlist", http.MethodPost, endpoint, accessToken, reqBody, &sp); err != nil {
		return domain.Playlist{}, err
	}
	if sp.ID == "" {
		return domain.Playlist{}, fmt.Errorf("spotify adapter: create playlist: empty id")
	}
	p := mapPlaylistToDomain(sp)
	if p.Name == "" {
		p.Name = spec.Name
	}
	return p, nil
}

// AddTracks appends track URIs to a playlist in order.
func (c *Client) AddTracks(ctx context.Context, accessToken string, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks", c.baseURL, url.PathEscape(playlistID))
	return c.do(ctx, "add tracks", http.MethodPost, endpoint, accessToken, addTracksRequest{URIs: uris}, nil)
}

// DeletePlaylist unfollows a playlist, which is how Spotify removes it for its owner.
func (c *Client) DeletePlaylist(ctx context.Context, accessToken string, playlistID string) error {
	endpoint := fmt.Sprintf("%s/playlists/%s/followers", c.baseURL, url.PathEscape(playlistID))
	return c.do(ctx, "delete playlist", http.MethodDelete, endpoint, accessToken, nil, nil)
}

// do issues one request. in is JSON-encoded when non-nil; out is decoded from
// a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, op, method, endpoint, accessToken string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("spotify adapter: %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("spotify adapter: %s: failed to create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("spotify adapter: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: op, Status: resp.StatusCode}
		var envelope errorResponse
		if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil && json.Unmarshal(raw, &envelope) == nil {
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify adapter: %s decode error: %w", op, err)
	}
	return nil
}
