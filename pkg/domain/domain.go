package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/proposer/pkg/schema"
)

// Reasons reported for rows that do not match the domain.
const (
	ReasonExtraInputs  = "extra inputs are not permitted"
	ReasonExtraOutputs = "extra outputs are not permitted"
	ReasonInvalidType  = "invalid value type"
	ReasonOutOfBounds  = "value out of bounds"
	ReasonRequired     = "field required"
)

// Validator checks tabular payloads against a domain.
// Implementations report failures as a *ValidationError of ErrDomainViolation
// field errors, with field paths rooted at the given field name.
type Validator interface {
	ValidateExperiments(field string, experiments Experiments) error
	ValidateCandidates(field string, candidates Candidates) error
}

// Domain declares the legal input and output features of an optimization problem.
// A Domain is read-only once embedded in a strategy and may be shared across goroutines.
type Domain struct {
	Inputs  []Feature `json:"inputs" yaml:"inputs"`
	Outputs []Feature `json:"outputs" yaml:"outputs"`
}

var _ Validator = Domain{}

// Validate checks the feature declarations themselves: keys must be non-empty
// and unique across inputs and outputs, and each feature must be well-formed.
func (d Domain) Validate(field string) []*FieldError {
	var errs []*FieldError
	if len(d.Inputs) == 0 {
		errs = append(errs, Structural(field+".inputs", "at least one input feature is required", nil))
	}

	seen := make(map[string]bool, len(d.Inputs)+len(d.Outputs))
	check := func(group string, features []Feature) {
		for i, f := range features {
			path := fmt.Sprintf("%s.%s[%d]", field, group, i)
			errs = append(errs, f.validate(path)...)
			if f.Key != "" && seen[f.Key] {
				errs = append(errs, Structural(path+".key", fmt.Sprintf("duplicate feature key %q", f.Key), nil))
			}
			seen[f.Key] = true
		}
	}
	check("inputs", d.Inputs)
	check("outputs", d.Outputs)
	return errs
}

// InputKeys returns the input feature keys in declaration order.
func (d Domain) InputKeys() []string {
	keys := make([]string, len(d.Inputs))
	for i, f := range d.Inputs {
		keys[i] = f.Key
	}
	return keys
}

// OutputKeys returns the output feature keys in declaration order.
func (d Domain) OutputKeys() []string {
	keys := make([]string, len(d.Outputs))
	for i, f := range d.Outputs {
		keys[i] = f.Key
	}
	return keys
}

// InputSchema returns the schema experiment inputs are checked against.
// Observed values are not required to fall within the current bounds.
func (d Domain) InputSchema() schema.Schema {
	s := make(schema.Schema, len(d.Inputs))
	for _, f := range d.Inputs {
		s[f.Key] = f.valueType(false)
	}
	return s
}

// CandidateSchema returns the schema candidate inputs are checked against.
// Unlike InputSchema, continuous values must fall within their bounds.
func (d Domain) CandidateSchema() schema.Schema {
	s := make(schema.Schema, len(d.Inputs))
	for _, f := range d.Inputs {
		s[f.Key] = f.valueType(true)
	}
	return s
}

// OutputSchema returns the schema experiment outputs are checked against.
// A nil value stands for a measurement that was not taken.
func (d Domain) OutputSchema() schema.Schema {
	s := make(schema.Schema, len(d.Outputs))
	for _, f := range d.Outputs {
		s[f.Key] = schema.Nullable(schema.Float())
	}
	return s
}

// ValidateExperiments checks that every row uses exactly the declared input
// and output keys with compatible values.
func (d Domain) ValidateExperiments(field string, experiments Experiments) error {
	inputs, outputs := d.InputSchema(), d.OutputSchema()

	var errs []*FieldError
	for i, row := range experiments.Rows {
		path := fmt.Sprintf("%s.rows[%d]", field, i)
		errs = append(errs, violations(path+".inputs", schema.ValidateExact(inputs, row.Inputs, ReasonExtraInputs))...)
		errs = append(errs, violations(path+".outputs", schema.ValidateExact(outputs, row.outputValues(), ReasonExtraOutputs))...)
	}
	return NewValidationError(errs)
}

// ValidateCandidates checks that every row uses exactly the declared input keys
// with values inside the domain.
func (d Domain) ValidateCandidates(field string, candidates Candidates) error {
	inputs := d.CandidateSchema()

	var errs []*FieldError
	for i, row := range candidates.Rows {
		path := fmt.Sprintf("%s.rows[%d].inputs", field, i)
		errs = append(errs, violations(path, schema.ValidateExact(inputs, row.Inputs, ReasonExtraInputs))...)
	}
	return NewValidationError(errs)
}

// violations converts schema failures into domain violations under path.
func violations(path string, err error) []*FieldError {
	var errs []*FieldError
	for _, e := range schema.ValidationErrors(err) {
		var verr *schema.ValidationError
		if !errors.As(e, &verr) {
			continue
		}
		field := path + "." + verr.Key
		switch {
		case verr.Extra:
			errs = append(errs, DomainViolation(field, verr.Reason, verr.Value))
		case verr.Missing:
			errs = append(errs, DomainViolation(field, ReasonRequired, nil))
		case errors.Is(verr, schema.ErrOutOfBounds):
			errs = append(errs, DomainViolation(field, ReasonOutOfBounds+": "+trimCause(verr.Reason), verr.Value))
		default:
			errs = append(errs, DomainViolation(field, ReasonInvalidType+": "+verr.Reason, verr.Value))
		}
	}
	return errs
}

func trimCause(reason string) string {
	return strings.TrimPrefix(reason, schema.ErrOutOfBounds.Error()+": ")
}
