package candidates

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/proposer/pkg/domain"
)

var (
	// ErrIllegalTransition is returned when the requested state is not a legal successor.
	ErrIllegalTransition = errors.New("illegal proposal state transition")

	// ErrStaleTimestamp is returned when a transition time precedes the last update.
	ErrStaleTimestamp = errors.New("transition timestamp precedes last update")
)

// Claim moves a CREATED proposal to CLAIMED.
func (p *Proposal) Claim(at time.Time) (*Proposal, error) {
	return p.advance(StateClaimed, at, nil)
}

// Finish moves a CLAIMED proposal to FINISHED with the generated candidates.
// Any error message is cleared.
func (p *Proposal) Finish(result domain.Candidates, at time.Time) (*Proposal, error) {
	return p.advance(StateFinished, at, func(next *Proposal) {
		c := result.Clone()
		next.Candidates = &c
		next.ErrorMessage = nil
	})
}

// Fail moves a CREATED or CLAIMED proposal to FAILED with a non-empty message.
func (p *Proposal) Fail(message string, at time.Time) (*Proposal, error) {
	if message == "" {
		return nil, domain.NewValidationError([]*domain.FieldError{
			domain.Structural("error_message", "must not be empty when failing a proposal", message),
		})
	}
	return p.advance(StateFailed, at, func(next *Proposal) {
		next.ErrorMessage = &message
	})
}

// Transition moves the proposal to next without touching the payload fields.
// Use Finish and Fail to attach a result or a message.
func (p *Proposal) Transition(next ProposalState, at time.Time) (*Proposal, error) {
	return p.advance(next, at, nil)
}

// advance returns a re-validated copy of p in state to, stamped with at.
func (p *Proposal) advance(to ProposalState, at time.Time, apply func(*Proposal)) (*Proposal, error) {
	if !p.State.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, p.State, to)
	}

	at = at.UTC()
	if p.LastUpdatedAt != nil && at.Before(*p.LastUpdatedAt) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrStaleTimestamp,
			at.Format(time.RFC3339Nano), p.LastUpdatedAt.Format(time.RFC3339Nano))
	}

	next := p.Clone()
	next.State = to
	next.LastUpdatedAt = &at
	if apply != nil {
		apply(next)
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}
