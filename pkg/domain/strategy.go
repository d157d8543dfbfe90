package domain

import "slices"

// Strategy describes which optimization strategy to run and over which domain.
// Type selects the implementation; Params carries its strategy-specific settings.
type Strategy struct {
	Type   string         `json:"type"`
	Domain Domain         `json:"domain"`
	Params map[string]any `json:"params,omitempty"`
}

// Validate checks the descriptor and its domain declaration.
func (s Strategy) Validate(field string) []*FieldError {
	var errs []*FieldError
	if s.Type == "" {
		errs = append(errs, Structural(field+".type", "must not be empty", nil))
	}
	return append(errs, s.Domain.Validate(field+".domain")...)
}

// Clone returns a deep copy of the descriptor. Params are normalized with
// NormalizeValue; empty Params become nil, as they are omitted from JSON.
func (s Strategy) Clone() Strategy {
	var params map[string]any
	if len(s.Params) > 0 {
		params = normalizeMap(s.Params)
	}
	return Strategy{
		Type: s.Type,
		Domain: Domain{
			Inputs:  cloneFeatures(s.Domain.Inputs),
			Outputs: cloneFeatures(s.Domain.Outputs),
		},
		Params: params,
	}
}

func cloneFeatures(features []Feature) []Feature {
	if features == nil {
		return nil
	}
	out := make([]Feature, len(features))
	for i, f := range features {
		f.Bounds = slices.Clone(f.Bounds)
		f.Values = slices.Clone(f.Values)
		f.Categories = slices.Clone(f.Categories)
		out[i] = f
	}
	return out
}
