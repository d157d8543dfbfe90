package candidates

import (
	"time"

	"github.com/aretw0/proposer/pkg/domain"
)

// Reasons reported by proposal validation.
const (
	ReasonErrorMessageState = "only permitted when state is FAILED"
	ReasonCandidatesState   = "only permitted when state is FINISHED"
)

// Proposal is a Request tracked asynchronously through the proposal lifecycle.
type Proposal struct {
	Request

	// State is the lifecycle state. Defaults to CREATED.
	State ProposalState `json:"state"`

	// ErrorMessage explains a failure. Only legal when State is FAILED.
	ErrorMessage *string `json:"error_message,omitempty"`

	// LastUpdatedAt is the time of the last transition.
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`

	// Candidates holds the generated candidates. Only legal when State is FINISHED.
	Candidates *domain.Candidates `json:"candidates,omitempty"`
}

// NewProposal builds and validates a proposal. The state defaults to CREATED.
func NewProposal(strategy domain.Strategy, opts ...Option) (*Proposal, error) {
	p := newDraft(strategy, opts)
	if p.State == "" {
		p.State = StateCreated
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks field-level rules first (count, strategy, state). When they
// pass it checks experiments, pendings and candidates against the domain and
// the state-dependent field rules.
func (p *Proposal) Validate() error {
	errs := p.Request.structuralErrors()
	if !p.State.Valid() {
		errs = append(errs, domain.Structural("state", ReasonInvalidState, string(p.State)))
	}
	if len(errs) > 0 {
		return domain.NewValidationError(errs)
	}

	errs = p.experimentErrors()
	v := p.Validator()
	if p.Pendings != nil {
		errs = append(errs, domain.FieldErrors(v.ValidateCandidates("pendings", *p.Pendings))...)
	}
	if p.Candidates != nil {
		errs = append(errs, domain.FieldErrors(v.ValidateCandidates("candidates", *p.Candidates))...)
	}
	if p.ErrorMessage != nil && p.State != StateFailed {
		errs = append(errs, domain.IllegalCombination("error_message", ReasonErrorMessageState))
	}
	if p.Candidates != nil && p.State != StateFinished {
		errs = append(errs, domain.IllegalCombination("candidates", ReasonCandidatesState))
	}
	return domain.NewValidationError(errs)
}

// Clone returns a deep copy of the proposal.
func (p *Proposal) Clone() *Proposal {
	c := &Proposal{
		Request: *p.Request.Clone(),
		State:   p.State,
	}
	if p.ErrorMessage != nil {
		msg := *p.ErrorMessage
		c.ErrorMessage = &msg
	}
	if p.LastUpdatedAt != nil {
		at := *p.LastUpdatedAt
		c.LastUpdatedAt = &at
	}
	if p.Candidates != nil {
		cands := p.Candidates.Clone()
		c.Candidates = &cands
	}
	return c
}

// ToRequest projects the proposal onto the request a strategy consumes.
// Pendings are dropped, so the result validates as a Request.
func (p *Proposal) ToRequest() *Request {
	r := p.Request.Clone()
	r.Pendings = nil
	return r
}

// Message returns the error message, or "" when none is set.
func (p *Proposal) Message() string {
	if p.ErrorMessage == nil {
		return ""
	}
	return *p.ErrorMessage
}
