package spotify

// spotifyImage is an album artwork entry.
type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// spotifyTrack represents the Spotify API response for a track.
type spotifyTrack struct {
	ID           string          `json:"id"`
	URI          string          `json:"uri"`
	Name         string          `json:"name"`
	Artists      []spotifyArtist `json:"artists"`
	Album        spotifyAlbum    `json:"album"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// searchResponse is the body of GET /search?type=track.
type searchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// spotifyUser is the body of GET /me.
type spotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// spotifyPlaylist is the body returned when a playlist is created.
type spotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// addTracksRequest represents the request body for adding tracks to a playlist.
type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// errorResponse is Spotify's error envelope.
type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
