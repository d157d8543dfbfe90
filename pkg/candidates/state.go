package candidates

import (
	"fmt"
	"slices"
)

// ProposalState is the lifecycle state of a Proposal.
type ProposalState string

const (
	StateCreated  ProposalState = "CREATED"  // Initial state
	StateClaimed  ProposalState = "CLAIMED"  // A worker accepted the proposal for execution
	StateFailed   ProposalState = "FAILED"   // Terminal: execution or pre-execution failed
	StateFinished ProposalState = "FINISHED" // Terminal: candidates were produced
)

// ReasonInvalidState is reported for any value outside the four states.
const ReasonInvalidState = "state must be one of CREATED, CLAIMED, FAILED, FINISHED"

var states = []ProposalState{StateCreated, StateClaimed, StateFailed, StateFinished}

// transitions is the legal transition graph. Terminal states have no entry.
var transitions = map[ProposalState][]ProposalState{
	StateCreated: {StateClaimed, StateFailed},
	StateClaimed: {StateFinished, StateFailed},
}

// States returns the four proposal states in lifecycle order.
func States() []ProposalState {
	return slices.Clone(states)
}

// ParseProposalState converts an external string to a ProposalState.
// The match is exact; anything else fails.
func ParseProposalState(s string) (ProposalState, error) {
	state := ProposalState(s)
	if !state.Valid() {
		return "", fmt.Errorf("%s, got %q", ReasonInvalidState, s)
	}
	return state, nil
}

// Valid reports whether s is one of the four states.
func (s ProposalState) Valid() bool {
	return slices.Contains(states, s)
}

// IsTerminal reports whether no further transitions are possible.
func (s ProposalState) IsTerminal() bool {
	return s == StateFailed || s == StateFinished
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s ProposalState) CanTransitionTo(next ProposalState) bool {
	return slices.Contains(transitions[s], next)
}

// Transitions returns a copy of the legal transition graph.
func Transitions() map[ProposalState][]ProposalState {
	graph := make(map[ProposalState][]ProposalState, len(transitions))
	for from, to := range transitions {
		graph[from] = slices.Clone(to)
	}
	return graph
}

// Successors returns the legal successors of s.
func (s ProposalState) Successors() []ProposalState {
	return slices.Clone(transitions[s])
}

func (s ProposalState) String() string { return string(s) }

// MarshalText implements encoding.TextMarshaler. Unknown states do not encode.
func (s ProposalState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%s, got %q", ReasonInvalidState, string(s))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ProposalState) UnmarshalText(text []byte) error {
	state, err := ParseProposalState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}
