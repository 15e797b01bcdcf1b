package spotify

import (
	"strings"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

// ScoreResult returns the similarity in [0,1] between an "Artist - Title"
// descriptor and a candidate track. Descriptors without an artist are scored
// on the title alone.
func ScoreResult(descriptor string, candidate domain.Track) float64 {
	artist, title := domain.SplitDescriptor(descriptor)
	wantTitle := Normalize(title)
	gotTitle := Normalize(candidate.Title)
	if wantTitle == "" || gotTitle == "" {
		return 0
	}
	titleSim := similarity(wantTitle, gotTitle)

	wantArtist := Normalize(artist)
	if wantArtist == "" {
		return titleSim
	}
	artistSim := bestArtistSimilarity(wantArtist, candidate.Artist)
	return 0.7*titleSim + 0.3*artistSim
}

// bestArtistSimilarity compares against the joined credit and each credited
// artist, so "Queen" still matches "Queen, David Bowie".
func bestArtistSimilarity(want string, credits string) float64 {
	best := similarity(want, Normalize(credits))
	for _, name := range strings.Split(credits, ",") {
		if s := similarity(want, Normalize(name)); s > best {
			best = s
		}
	}
	return best
}

// similarity is one minus the edit distance scaled by the longer string.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the Levenshtein distance computed over a single row.
func editDistance(a, b []rune) int {
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			above := row[j]
			sub := diag
			if a[i-1] != b[j-1] {
				sub++
			}
			row[j] = min(above+1, row[j-1]+1, sub)
			diag = above
		}
	}
	return row[len(b)]
}
