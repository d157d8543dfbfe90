package candidates

import (
	"time"

	"github.com/aretw0/proposer/pkg/domain"
)

// Option sets a field of a Request or Proposal under construction.
// Payloads are copied, so the caller keeps no alias into the built value.
type Option func(*Proposal)

// WithNCandidates sets the number of candidates to generate (default 1).
func WithNCandidates(n int) Option {
	return func(p *Proposal) { p.NCandidates = n }
}

// WithExperiments provides prior observations to the strategy.
func WithExperiments(experiments domain.Experiments) Option {
	return func(p *Proposal) {
		e := experiments.Clone()
		p.Experiments = &e
	}
}

// WithPendings provides candidates already issued and awaiting results.
// Only proposals accept pendings.
func WithPendings(pendings domain.Candidates) Option {
	return func(p *Proposal) {
		c := pendings.Clone()
		p.Pendings = &c
	}
}

// WithState sets the proposal state (default CREATED).
func WithState(state ProposalState) Option {
	return func(p *Proposal) { p.State = state }
}

// WithErrorMessage sets the failure message of a FAILED proposal.
func WithErrorMessage(message string) Option {
	return func(p *Proposal) { p.ErrorMessage = &message }
}

// WithLastUpdatedAt sets the time of the last lifecycle transition.
func WithLastUpdatedAt(at time.Time) Option {
	return func(p *Proposal) {
		at = at.UTC()
		p.LastUpdatedAt = &at
	}
}

// WithCandidates sets the generated candidates of a FINISHED proposal.
func WithCandidates(result domain.Candidates) Option {
	return func(p *Proposal) {
		c := result.Clone()
		p.Candidates = &c
	}
}

func newDraft(strategy domain.Strategy, opts []Option) *Proposal {
	p := &Proposal{
		Request: Request{
			Strategy:    strategy.Clone(),
			NCandidates: DefaultNCandidates,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
