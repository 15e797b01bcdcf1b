package spotify

import (
	"strings"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a domain track.
func mapTrackToDomain(st spotifyTrack) domain.Track {
	var artistNames []string
	for _, a := range st.Artists {
		artistNames = append(artistNames, a.Name)
	}

	coverURL := ""
	if len(st.Album.Images) > 0 {
		coverURL = st.Album.Images[0].URL
	}

	uri := st.URI
	if uri == "" && st.ID != "" {
		uri = "spotify:track:" + st.ID
	}

	return domain.Track{
		ID:         st.ID,
		URI:        uri,
		Title:      st.Name,
		Artist:     strings.Join(artistNames, ", "),
		Album:      st.Album.Name,
		URL:        st.ExternalURLs.Spotify,
		PreviewURL: st.PreviewURL,
		CoverURL:   coverURL,
	}
}

// mapPlaylistToDomain converts a created Spotify playlist. The returned
// playlist has no tracks yet.
func mapPlaylistToDomain(sp spotifyPlaylist) domain.Playlist {
	url := sp.ExternalURLs.Spotify
	if url == "" && sp.ID != "" {
		url = "https://open.spotify.com/playlist/" + sp.ID
	}
	return domain.Playlist{
		ID:   sp.ID,
		Name: sp.Name,
		URL:  url,
	}
}

func mapUserToDomain(u spotifyUser) domain.Identity {
	name := u.DisplayName
	if name == "" {
		name = u.ID
	}
	return domain.Identity{ID: u.ID, DisplayName: name}
}
