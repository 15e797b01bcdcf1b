package domain

import (
	"errors"
	"testing"
)

func TestPhase_Next(t *testing.T) {
	tests := []struct {
		name    string
		from    Phase
		event   Event
		want    Phase
		wantErr bool
	}{
		{name: "zero phase gathers", from: "", event: EventUserMessage, want: PhaseGathering},
		{name: "finalize request", from: PhaseGathering, event: EventFinalizeRequested, want: PhaseAwaitingReply},
		{name: "parse failure rolls back", from: PhaseAwaitingReply, event: EventConversationalReply, want: PhaseGathering},
		{name: "nothing new rolls back", from: PhaseAwaitingReply, event: EventNothingNew, want: PhaseGathering},
		{name: "no credential", from: PhaseAwaitingReply, event: EventSuggestionsOnly, want: PhaseAwaitingLink},
		{name: "built", from: PhaseAwaitingReply, event: EventPlaylistBuilt, want: PhasePlaylistBuilt},
		{name: "pending build after link", from: PhaseAwaitingLink, event: EventPlaylistBuilt, want: PhasePlaylistBuilt},
		{name: "new round after build", from: PhasePlaylistBuilt, event: EventUserMessage, want: PhaseGathering},
		{name: "cannot finalize a built round", from: PhasePlaylistBuilt, event: EventFinalizeRequested, want: PhasePlaylistBuilt, wantErr: true},
		{name: "cannot build twice", from: PhasePlaylistBuilt, event: EventPlaylistBuilt, want: PhasePlaylistBuilt, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.from.Next(tc.event)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("phase: got %q, want %q", got, tc.want)
			}
		})
	}
}
