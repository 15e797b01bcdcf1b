package policy

// DefaultTurnCap is the hard cap used when none is configured.
const DefaultTurnCap = 6

// Decision is the outcome of the finalization policy for one turn.
type Decision int

const (
	// Gather keeps the free-form conversation going.
	Gather Decision = iota
	// Finalize forces the model to emit the structured recommendation.
	Finalize
)

func (d Decision) String() string {
	if d == Finalize {
		return "finalize_requested"
	}
	return "gathering"
}

// Input is what the policy looks at each turn.
type Input struct {
	Coverage         int
	UserTurns        int
	ExplicitFinalize bool
	NameKnown        bool
}

// Finalization decides when to stop gathering.
type Finalization struct {
	CoverageThreshold   int
	TurnCap             int
	FinalizeMinCoverage int
	FinalizeMinTurns    int
}

// DefaultFinalization returns the stock thresholds.
func DefaultFinalization() Finalization {
	return Finalization{
		CoverageThreshold:   3,
		TurnCap:             DefaultTurnCap,
		FinalizeMinCoverage: 2,
		FinalizeMinTurns:    3,
	}
}

// Decide returns Finalize once the name is known and either coverage, the hard
// turn cap or an explicit request backed by some context allows it. The turn
// cap always applies, so gathering terminates.
func (f Finalization) Decide(in Input) Decision {
	if !in.NameKnown {
		return Gather
	}
	if in.Coverage >= f.CoverageThreshold {
		return Finalize
	}
	turnCap := f.TurnCap
	if turnCap <= 0 {
		turnCap = DefaultTurnCap
	}
	if in.UserTurns >= turnCap {
		return Finalize
	}
	if in.ExplicitFinalize && (in.Coverage >= f.FinalizeMinCoverage || in.UserTurns >= f.FinalizeMinTurns) {
		return Finalize
	}
	return Gather
}
