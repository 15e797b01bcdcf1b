package policy

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

func TestFinalization_Decide(t *testing.T) {
	f := DefaultFinalization()
	cases := []struct {
		name string
		in   Input
		want Decision
	}{
		{name: "name unknown blocks everything", in: Input{Coverage: 5, UserTurns: 20, ExplicitFinalize: true}, want: Gather},
		{name: "coverage threshold", in: Input{Coverage: 3, UserTurns: 1, NameKnown: true}, want: Finalize},
		{name: "below thresholds", in: Input{Coverage: 2, UserTurns: 2, NameKnown: true}, want: Gather},
		{name: "turn cap", in: Input{Coverage: 0, UserTurns: 6, NameKnown: true}, want: Finalize},
		{name: "explicit with coverage", in: Input{Coverage: 2, UserTurns: 1, ExplicitFinalize: true, NameKnown: true}, want: Finalize},
		{name: "explicit with turns", in: Input{Coverage: 0, UserTurns: 3, ExplicitFinalize: true, NameKnown: true}, want: Finalize},
		{name: "explicit too early", in: Input{Coverage: 1, UserTurns: 2, ExplicitFinalize: true, NameKnown: true}, want: Gather},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, f.Decide(tc.in))
		})
	}
}

func TestFinalization_ZeroTurnCapStillTerminates(t *testing.T) {
	f := Finalization{CoverageThreshold: 3}
	require.Equal(t, Finalize, f.Decide(Input{UserTurns: DefaultTurnCap, NameKnown: true}))
}

func TestFinalization_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	f := DefaultFinalization()

	properties.Property("never finalizes before the name is known", prop.ForAll(
		func(coverage int, turns int, explicit bool) bool {
			return f.Decide(Input{Coverage: coverage, UserTurns: turns, ExplicitFinalize: explicit}) == Gather
		},
		gen.IntRange(0, MaxCoverage),
		gen.IntRange(0, 50),
		gen.Bool(),
	))

	properties.Property("turn cap always finalizes once the name is known", prop.ForAll(
		func(coverage int, extra int, explicit bool) bool {
			in := Input{Coverage: coverage, UserTurns: f.TurnCap + extra, ExplicitFinalize: explicit, NameKnown: true}
			return f.Decide(in) == Finalize
		},
		gen.IntRange(0, MaxCoverage),
		gen.IntRange(0, 20),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// A conversation of generic, low-coverage replies must reach finalization at the cap.
func TestFinalization_GenericConversationReachesCap(t *testing.T) {
	f := DefaultFinalization()
	scorer := NewKeywordCoverage()
	names := NewIntroductionDetector()

	replies := []string{"Ana", "ok", "hmm", "talvez", "pode ser", "certo", "uhum"}
	var history []domain.Message
	nameKnown := false
	decisions := make([]Decision, 0, len(replies))
	for i, r := range replies {
		history = append(history, user(r))
		if !nameKnown {
			nameKnown = names.Detect(r)
		}
		decisions = append(decisions, f.Decide(Input{
			Coverage:         scorer.Score(history),
			UserTurns:        i + 1,
			ExplicitFinalize: WantsFinalize(r),
			NameKnown:        nameKnown,
		}))
		history = append(history, domain.Message{Role: domain.RoleAssistant, Content: "e aí?"})
	}

	for i := 0; i < f.TurnCap-1; i++ {
		require.Equal(t, Gather, decisions[i], "turn %d", i+1)
	}
	require.Equal(t, Finalize, decisions[f.TurnCap-1])
}
