package domain

import "fmt"

// Phase is the conversation state of a session.
type Phase string

const (
	PhaseGathering     Phase = "gathering"
	PhaseAwaitingReply Phase = "awaiting_structured_reply"
	PhaseAwaitingLink  Phase = "awaiting_catalog_link"
	PhasePlaylistBuilt Phase = "playlist_built"
)

// Event drives a Phase transition.
type Event string

const (
	// EventUserMessage starts a new turn; finished rounds go back to gathering.
	EventUserMessage Event = "user_message"
	// EventFinalizeRequested is raised when the policy forces a structured reply.
	EventFinalizeRequested Event = "finalize_requested"
	// EventConversationalReply is raised when the reply did not parse as structured.
	EventConversationalReply Event = "conversational_reply"
	// EventNothingNew is raised when every parsed song was already offered.
	EventNothingNew Event = "nothing_new"
	// EventSuggestionsOnly is raised when songs parsed but no catalog credential exists.
	EventSuggestionsOnly Event = "suggestions_only"
	// EventNoTracksResolved is raised when the catalog matched none of the songs.
	EventNoTracksResolved Event = "no_tracks_resolved"
	// EventPlaylistBuilt is raised once a playlist was created and populated.
	EventPlaylistBuilt Event = "playlist_built"
)

var transitions = map[Phase]map[Event]Phase{
	PhaseGathering: {
		EventUserMessage:         PhaseGathering,
		EventFinalizeRequested:   PhaseAwaitingReply,
		EventConversationalReply: PhaseGathering,
		EventNothingNew:          PhaseGathering,
		EventSuggestionsOnly:     PhaseAwaitingLink,
		EventNoTracksResolved:    PhaseGathering,
		EventPlaylistBuilt:       PhasePlaylistBuilt,
	},
	PhaseAwaitingReply: {
		EventUserMessage:         PhaseGathering,
		EventConversationalReply: PhaseGathering,
		EventNothingNew:          PhaseGathering,
		EventSuggestionsOnly:     PhaseAwaitingLink,
		EventNoTracksResolved:    PhaseGathering,
		EventPlaylistBuilt:       PhasePlaylistBuilt,
	},
	PhaseAwaitingLink: {
		EventUserMessage:      PhaseGathering,
		EventNoTracksResolved: PhaseGathering,
		EventPlaylistBuilt:    PhasePlaylistBuilt,
	},
	PhasePlaylistBuilt: {
		EventUserMessage: PhaseGathering,
	},
}

// Next returns the phase reached from p on ev, or ErrInvalidTransition.
// The zero Phase is treated as gathering.
func (p Phase) Next(ev Event) (Phase, error) {
	from := p
	if from == "" {
		from = PhaseGathering
	}
	next, ok := transitions[from][ev]
	if !ok {
		return p, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, ev)
	}
	return next, nil
}
