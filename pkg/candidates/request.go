package candidates

import (
	"github.com/aretw0/proposer/pkg/domain"
)

// DefaultNCandidates is used when a request does not state a count.
const DefaultNCandidates = 1

// Reasons reported by request validation.
const (
	ReasonNonPositiveCount     = "non-positive count: must be greater than 0"
	ReasonPendingsNotPermitted = "pendings not permitted on a request"
	ReasonLifecycleOnRequest   = "lifecycle fields are not permitted on a request"
)

// Request asks a strategy for new candidates in a single synchronous call.
type Request struct {
	// Strategy selects the strategy and carries its domain.
	Strategy domain.Strategy `json:"strategy_data"`

	// NCandidates is the number of candidates to generate. Must be positive.
	NCandidates int `json:"n_candidates"`

	// Experiments are prior observations offered to the strategy as context.
	Experiments *domain.Experiments `json:"experiments,omitempty"`

	// Pendings must always be nil on a Request. The field exists so that a
	// Proposal, which embeds Request, can carry pending candidates.
	Pendings *domain.Candidates `json:"pendings,omitempty"`
}

// NewRequest builds and validates a request.
// Options that only apply to proposals (state, error message, timestamps,
// result candidates) are rejected.
func NewRequest(strategy domain.Strategy, opts ...Option) (*Request, error) {
	draft := newDraft(strategy, opts)

	var errs []*domain.FieldError
	if draft.State != "" {
		errs = append(errs, domain.IllegalCombination("state", ReasonLifecycleOnRequest))
	}
	if draft.ErrorMessage != nil {
		errs = append(errs, domain.IllegalCombination("error_message", ReasonLifecycleOnRequest))
	}
	if draft.LastUpdatedAt != nil {
		errs = append(errs, domain.IllegalCombination("last_updated_at", ReasonLifecycleOnRequest))
	}
	if draft.Candidates != nil {
		errs = append(errs, domain.IllegalCombination("candidates", ReasonLifecycleOnRequest))
	}

	req := draft.Request
	errs = append(errs, domain.FieldErrors(req.Validate())...)
	if err := domain.NewValidationError(errs); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate runs every request rule. The pendings rule always runs; the domain
// check of experiments runs whenever the structural checks pass.
func (r *Request) Validate() error {
	errs := r.structuralErrors()
	if len(errs) == 0 {
		errs = r.experimentErrors()
	}
	if r.Pendings != nil {
		errs = append(errs, domain.IllegalCombination("pendings", ReasonPendingsNotPermitted))
	}
	return domain.NewValidationError(errs)
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	c := &Request{
		Strategy:    r.Strategy.Clone(),
		NCandidates: r.NCandidates,
	}
	if r.Experiments != nil {
		e := r.Experiments.Clone()
		c.Experiments = &e
	}
	if r.Pendings != nil {
		p := r.Pendings.Clone()
		c.Pendings = &p
	}
	return c
}

// Validator returns the domain validator the request is checked against.
func (r *Request) Validator() domain.Validator {
	return r.Strategy.Domain
}

func (r *Request) structuralErrors() []*domain.FieldError {
	var errs []*domain.FieldError
	if r.NCandidates <= 0 {
		errs = append(errs, domain.Structural("n_candidates", ReasonNonPositiveCount, r.NCandidates))
	}
	return append(errs, r.Strategy.Validate("strategy_data")...)
}

func (r *Request) experimentErrors() []*domain.FieldError {
	if r.Experiments == nil {
		return nil
	}
	return domain.FieldErrors(r.Validator().ValidateExperiments("experiments", *r.Experiments))
}
