package domain

import (
	"strings"
	"time"
)

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session's history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Credential is the catalog OAuth token pair.
type Credential struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	Expiry       time.Time `json:"expiry"`
}

// ExpiresWithin reports whether the access token expires before now+margin.
func (c Credential) ExpiresWithin(now time.Time, margin time.Duration) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Add(margin).Before(c.Expiry)
}

// Identity is the catalog user owning created playlists.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Session is the per-conversation state keyed by an opaque identifier.
type Session struct {
	ID         string      `json:"id"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	History    []Message   `json:"history"`
	Credential *Credential `json:"credential,omitempty"`
	Identity   *Identity   `json:"identity,omitempty"`
	Mood       string      `json:"mood,omitempty"`
	Offered    SongSet     `json:"offered"`
	NameKnown  bool        `json:"nameKnown"`
	Phase      Phase       `json:"phase"`
	Language   string      `json:"language,omitempty"`
	// Pending holds fresh songs from a structured reply that could not be
	// built yet because no credential was present.
	Pending   []string  `json:"pending,omitempty"`
	Rationale string    `json:"rationale,omitempty"`
	Playlist  *Playlist `json:"playlist,omitempty"`
}

// NewSession creates an empty session in the gathering phase.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		History:   []Message{},
		Offered:   NewSongSet(),
		Phase:     PhaseGathering,
	}
}

// Append adds a message to the history.
func (s *Session) Append(role Role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
}

// Authenticated reports whether a catalog credential is present.
func (s *Session) Authenticated() bool {
	return s.Credential != nil && s.Credential.AccessToken != ""
}

// UserTurns counts user-authored messages.
func (s *Session) UserTurns() int {
	n := 0
	for _, m := range s.History {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// LastUserMessage returns the most recent user text, or "".
func (s *Session) LastUserMessage() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleUser {
			return s.History[i].Content
		}
	}
	return ""
}

// Clone returns a deep copy so stores can hand out snapshots.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]Message(nil), s.History...)
	c.Offered = s.Offered.Clone()
	c.Pending = append([]string(nil), s.Pending...)
	if s.Credential != nil {
		cred := *s.Credential
		c.Credential = &cred
	}
	if s.Identity != nil {
		id := *s.Identity
		c.Identity = &id
	}
	if s.Playlist != nil {
		p := *s.Playlist
		p.Tracks = append([]Track(nil), s.Playlist.Tracks...)
		c.Playlist = &p
	}
	return &c
}

// LooksStructured reports whether text resembles a structured recommendation
// payload. It is a marker check, not a parse.
func LooksStructured(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, `"songs"`) {
		return false
	}
	return strings.Contains(lower, `"mood"`) || strings.Contains(lower, `"rationale"`)
}

// VisibleHistory projects the history for callers, hiding assistant entries
// that look like structured payloads.
func (s *Session) VisibleHistory() []Message {
	out := make([]Message, 0, len(s.History))
	for _, m := range s.History {
		if m.Role == RoleAssistant && LooksStructured(m.Content) {
			continue
		}
		out = append(out, m)
	}
	return out
}
