package domain

import "strings"

// Recommendation is the structured reply the language model emits to finalize a round.
type Recommendation struct {
	Mood      string   `json:"mood"`
	Rationale string   `json:"rationale"`
	Songs     []string `json:"songs"`
}

// SplitDescriptor splits an "Artist - Title" descriptor at its first separator.
// Descriptors without a separator are returned as a bare title.
func SplitDescriptor(descriptor string) (artist string, title string) {
	d := strings.TrimSpace(descriptor)
	idx := strings.Index(d, " - ")
	if idx == -1 {
		return "", d
	}
	return strings.TrimSpace(d[:idx]), strings.TrimSpace(d[idx+3:])
}

// PlaylistName derives the deterministic playlist name for a mood label.
func PlaylistName(mood string) string {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return "MoodTunes"
	}
	runes := []rune(strings.ToLower(mood))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return "MoodTunes - " + string(runes)
}
