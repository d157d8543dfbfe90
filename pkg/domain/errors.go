package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every FieldError unwraps to exactly one of them.
var (
	// ErrStructural marks a field holding a value of the wrong type or range.
	ErrStructural = errors.New("structural error")

	// ErrDomainViolation marks experiments or candidates that do not conform to the domain.
	ErrDomainViolation = errors.New("domain violation")

	// ErrIllegalFieldCombination marks fields that are individually valid but not together.
	ErrIllegalFieldCombination = errors.New("illegal field combination")
)

// ErrProposalNotFound is returned when a proposal ID cannot be found in the store.
var ErrProposalNotFound = errors.New("proposal not found")

// FieldError describes one failed check on one field.
type FieldError struct {
	Kind   error  // One of ErrStructural, ErrDomainViolation, ErrIllegalFieldCombination
	Field  string // Dotted path of the offending field, e.g. "experiments.rows[0].inputs.x2"
	Reason string // Human-readable reason
	Value  any    // Offending value, if any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", e.Kind, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// Structural creates a FieldError of kind ErrStructural.
func Structural(field, reason string, value any) *FieldError {
	return &FieldError{Kind: ErrStructural, Field: field, Reason: reason, Value: value}
}

// DomainViolation creates a FieldError of kind ErrDomainViolation.
func DomainViolation(field, reason string, value any) *FieldError {
	return &FieldError{Kind: ErrDomainViolation, Field: field, Reason: reason, Value: value}
}

// IllegalCombination creates a FieldError of kind ErrIllegalFieldCombination.
func IllegalCombination(field, reason string) *FieldError {
	return &FieldError{Kind: ErrIllegalFieldCombination, Field: field, Reason: reason}
}

// ValidationError is the result of a failed validation: every field error found.
type ValidationError struct {
	Errors []*FieldError
}

// NewValidationError returns nil for an empty list and a *ValidationError otherwise.
func NewValidationError(errs []*FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes every field error, so errors.Is(err, ErrStructural) reports
// whether any of them is structural.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = fe
	}
	return errs
}

// HasKind reports whether at least one field error is of the given kind.
func (e *ValidationError) HasKind(kind error) bool {
	for _, fe := range e.Errors {
		if fe.Kind == kind {
			return true
		}
	}
	return false
}

// Fields returns the failing field paths in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		fields[i] = fe.Field
	}
	return fields
}

// FieldErrors flattens err into its field errors. It returns nil when err
// carries none, so callers can merge results of nested validations without
// re-wrapping them.
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Errors
	}
	var ferr *FieldError
	if errors.As(err, &ferr) {
		return []*FieldError{ferr}
	}
	return nil
}
