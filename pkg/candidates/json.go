package candidates

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/aretw0/proposer/pkg/domain"
)

// Reasons reported while decoding the wire representation.
const (
	ReasonInvalidObject  = "Input should be a valid object"
	ReasonInvalidInteger = "Input should be a valid integer"
	ReasonInvalidString  = "Input should be a valid string"
	ReasonExtraField     = "extra inputs are not permitted"
)

var requestFields = map[string]bool{
	"strategy_data": true,
	"n_candidates":  true,
	"experiments":   true,
	"pendings":      true,
}

var proposalFields = map[string]bool{
	"strategy_data":   true,
	"n_candidates":    true,
	"experiments":     true,
	"pendings":        true,
	"state":           true,
	"error_message":   true,
	"last_updated_at": true,
	"candidates":      true,
}

// UnmarshalJSON decodes and validates a request. Unknown fields are rejected
// and a missing n_candidates defaults to 1.
func (r *Request) UnmarshalJSON(data []byte) error {
	fields, ferr := decodeObject(data)
	if ferr != nil {
		return domain.NewValidationError([]*domain.FieldError{ferr})
	}

	errs := rejectUnknown(fields, requestFields)
	var out Request
	errs = append(errs, decodeRequestFields(fields, &out)...)

	if len(errs) > 0 {
		if present(fields, "pendings") {
			errs = append(errs, domain.IllegalCombination("pendings", ReasonPendingsNotPermitted))
		}
		return domain.NewValidationError(errs)
	}
	if err := out.Validate(); err != nil {
		return err
	}

	*r = out
	return nil
}

// UnmarshalJSON decodes and validates a proposal. Unknown fields are rejected;
// a missing n_candidates defaults to 1 and a missing state to CREATED.
func (p *Proposal) UnmarshalJSON(data []byte) error {
	fields, ferr := decodeObject(data)
	if ferr != nil {
		return domain.NewValidationError([]*domain.FieldError{ferr})
	}

	errs := rejectUnknown(fields, proposalFields)
	out := Proposal{State: StateCreated}
	errs = append(errs, decodeRequestFields(fields, &out.Request)...)

	if raw, ok := fields["state"]; ok {
		var s string
		if isNull(raw) || json.Unmarshal(raw, &s) != nil {
			errs = append(errs, domain.Structural("state", ReasonInvalidState, rawValue(raw)))
		} else if state, err := ParseProposalState(s); err != nil {
			errs = append(errs, domain.Structural("state", ReasonInvalidState, s))
		} else {
			out.State = state
		}
	}

	if raw, ok := fields["error_message"]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			errs = append(errs, domain.Structural("error_message", ReasonInvalidString, rawValue(raw)))
		} else {
			out.ErrorMessage = &s
		}
	}

	if raw, ok := fields["last_updated_at"]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			errs = append(errs, domain.Structural("last_updated_at", ReasonInvalidTimestamp, rawValue(raw)))
		} else if at, err := ParseTimestamp(s); err != nil {
			errs = append(errs, domain.Structural("last_updated_at", ReasonInvalidTimestamp, s))
		} else {
			out.LastUpdatedAt = &at
		}
	}

	if raw, ok := fields["candidates"]; ok && !isNull(raw) {
		var c domain.Candidates
		if err := decodeStrict(raw, &c); err != nil {
			errs = append(errs, domain.Structural("candidates", decodeReason(err), nil))
		} else {
			out.Candidates = &c
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationError(errs)
	}
	if err := out.Validate(); err != nil {
		return err
	}

	*p = out
	return nil
}

func decodeRequestFields(fields map[string]json.RawMessage, r *Request) []*domain.FieldError {
	var errs []*domain.FieldError

	if raw, ok := fields["strategy_data"]; !ok || isNull(raw) {
		errs = append(errs, domain.Structural("strategy_data", domain.ReasonRequired, nil))
	} else if err := decodeStrict(raw, &r.Strategy); err != nil {
		errs = append(errs, domain.Structural("strategy_data", decodeReason(err), nil))
	}

	r.NCandidates = DefaultNCandidates
	if raw, ok := fields["n_candidates"]; ok {
		var n int
		if isNull(raw) || json.Unmarshal(raw, &n) != nil {
			errs = append(errs, domain.Structural("n_candidates", ReasonInvalidInteger, rawValue(raw)))
		} else {
			r.NCandidates = n
		}
	}

	if raw, ok := fields["experiments"]; ok && !isNull(raw) {
		var e domain.Experiments
		if err := decodeStrict(raw, &e); err != nil {
			errs = append(errs, domain.Structural("experiments", decodeReason(err), nil))
		} else {
			r.Experiments = &e
		}
	}

	if raw, ok := fields["pendings"]; ok && !isNull(raw) {
		var c domain.Candidates
		if err := decodeStrict(raw, &c); err != nil {
			errs = append(errs, domain.Structural("pendings", decodeReason(err), nil))
		} else {
			r.Pendings = &c
		}
	}

	return errs
}

func decodeObject(data []byte) (map[string]json.RawMessage, *domain.FieldError) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, domain.Structural("", ReasonInvalidObject, nil)
	}
	return fields, nil
}

// rejectUnknown reports every top-level field not in allowed, sorted by name.
func rejectUnknown(fields map[string]json.RawMessage, allowed map[string]bool) []*domain.FieldError {
	var unknown []string
	for name := range fields {
		if !allowed[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)

	errs := make([]*domain.FieldError, 0, len(unknown))
	for _, name := range unknown {
		errs = append(errs, domain.Structural(name, ReasonExtraField, rawValue(fields[name])))
	}
	return errs
}

// decodeStrict decodes raw into v, rejecting fields v does not declare.
func decodeStrict(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func decodeReason(err error) string {
	msg := strings.TrimPrefix(err.Error(), "json: ")
	if strings.HasPrefix(msg, "unknown field") {
		return ReasonExtraField + " (" + msg + ")"
	}
	return msg
}

func present(fields map[string]json.RawMessage, name string) bool {
	raw, ok := fields[name]
	return ok && !isNull(raw)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func rawValue(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
