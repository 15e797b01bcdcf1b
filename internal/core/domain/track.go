package domain

// Track represents a catalog track resolved from a song descriptor.
type Track struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	Title      string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	URL        string `json:"url,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	CoverURL   string `json:"coverUrl,omitempty"`
}

// Suggestion is a song surfaced to the user: either a resolved catalog track or the raw query.
type Suggestion struct {
	Query    string `json:"query"`
	Resolved bool   `json:"resolved"`
	Track    *Track `json:"track,omitempty"`
}

// RawSuggestions wraps unresolved descriptors as suggestions.
func RawSuggestions(songs []string) []Suggestion {
	out := make([]Suggestion, 0, len(songs))
	for _, s := range songs {
		out = append(out, Suggestion{Query: s})
	}
	return out
}
