package services

import (
	"fmt"
	"strings"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

// maxAvoidHint bounds how many offered songs are listed in the finalize
// directive. The most recently offered ones are kept.
const maxAvoidHint = 30

// PromptParams controls BuildPrompt.
type PromptParams struct {
	Language string
	// Window is how many trailing messages are replayed while the user's name
	// is still unknown.
	Window   int
	Finalize bool
	SongsMin int
	SongsMax int
}

// BuildPrompt assembles the outbound messages for one turn: the system
// instruction, the replayed history and, when finalizing, the directive that
// asks for the structured reply.
func BuildPrompt(s *domain.Session, p PromptParams) []domain.Message {
	book := phrases(p.Language)
	history := s.History
	if !s.NameKnown && p.Window > 0 && len(history) > p.Window {
		history = history[len(history)-p.Window:]
	}

	out := make([]domain.Message, 0, len(history)+2)
	out = append(out, domain.Message{Role: domain.RoleSystem, Content: book.system})
	out = append(out, history...)
	if p.Finalize {
		out = append(out, domain.Message{Role: domain.RoleSystem, Content: directive(book, s.Offered, p.SongsMin, p.SongsMax)})
	}
	return out
}

func directive(book phrasebook, offered domain.SongSet, songsMin, songsMax int) string {
	var b strings.Builder
	fmt.Fprintf(&b, book.directive, songsMin, songsMax)
	if offered.Len() > 0 {
		items := offered.Items()
		if len(items) > maxAvoidHint {
			items = items[len(items)-maxAvoidHint:]
		}
		fmt.Fprintf(&b, book.avoid, strings.Join(items, "; "))
	}
	return b.String()
}
